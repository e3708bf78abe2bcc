package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvInitialBalance = "TRADESIM_INITIAL_BALANCE"
	EnvFeeRate        = "TRADESIM_FEE_RATE"
	EnvSlippageRate   = "TRADESIM_SLIPPAGE_RATE"
	EnvStrategy       = "TRADESIM_STRATEGY"
	EnvDBPath         = "TRADESIM_DB_PATH"
)

// ApplyEnv overrides c from the process environment and, when path names an
// existing file, from that .env file. Process variables win over the file.
// A missing file is not an error.
func (c *Config) ApplyEnv(path string) error {
	file := map[string]string{}
	if path != "" {
		m, err := godotenv.Read(path)
		switch {
		case err == nil:
			file = m
		case errors.Is(err, os.ErrNotExist):
		default:
			return fmt.Errorf("read env file: %w", err)
		}
	}
	get := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return file[key]
	}

	for _, f := range []struct {
		key string
		dst *float64
	}{
		{EnvInitialBalance, &c.Run.InitialBalance},
		{EnvFeeRate, &c.Run.FeeRate},
		{EnvSlippageRate, &c.Run.SlippageRate},
	} {
		v := get(f.key)
		if v == "" {
			continue
		}
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid number %q", f.key, v)
		}
		*f.dst = x
	}

	if v := get(EnvStrategy); v != "" {
		c.Strategy.Name = v
	}
	if v := get(EnvDBPath); v != "" {
		c.Journal.DBPath = v
		if c.Journal.Type == "" || c.Journal.Type == JournalNone {
			c.Journal.Type = JournalSQLite
		}
	}
	return nil
}
