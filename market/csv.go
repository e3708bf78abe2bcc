package market

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
)

// ReadOptions filters rows while loading. Zero values disable a filter.
// From is inclusive and To is exclusive, both unix seconds.
type ReadOptions struct {
	From  int64
	To    int64
	Limit int
}

// millisThreshold separates second and millisecond unix timestamps.
const millisThreshold = 1e10

// LoadCSV opens path and reads bars from it. Files ending in .xz or .gz
// are decompressed on the fly.
func LoadCSV(path string, opts ReadOptions) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars file: %w", err)
	}
	defer f.Close()

	r, err := decompress(f, path)
	if err != nil {
		return nil, fmt.Errorf("open bars file: %w", err)
	}
	return ReadCSV(r, opts)
}

func decompress(r io.Reader, path string) (io.Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xz":
		return xz.NewReader(r)
	case ".gz":
		return gzip.NewReader(r)
	}
	return r, nil
}

// ReadCSV reads bar rows with a header naming the columns:
//
//	ts|time|timestamp,open,high,low,close[,volume]
//
// Timestamps may be unix seconds, unix milliseconds or RFC3339. Rows are
// returned sorted by time. Duplicate timestamps are an error.
func ReadCSV(r io.Reader, opts ReadOptions) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptySeries
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var bars []Bar
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		b, err := parseBarRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !inRange(b.Time, opts.From, opts.To) {
			continue
		}
		bars = append(bars, b)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time < bars[j].Time })
	for i := 1; i < len(bars); i++ {
		if bars[i].Time == bars[i-1].Time {
			return nil, fmt.Errorf("%w: duplicate timestamp %d", ErrInvalidSeries, bars[i].Time)
		}
	}
	if opts.Limit > 0 && len(bars) > opts.Limit {
		bars = bars[len(bars)-opts.Limit:]
	}
	if len(bars) == 0 {
		return nil, ErrEmptySeries
	}
	return bars, nil
}

type columns struct {
	time, open, high, low, close, volume int
}

func columnIndex(header []string) (columns, error) {
	c := columns{time: -1, open: -1, high: -1, low: -1, close: -1, volume: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "ts", "time", "timestamp":
			c.time = i
		case "open":
			c.open = i
		case "high":
			c.high = i
		case "low":
			c.low = i
		case "close":
			c.close = i
		case "volume":
			c.volume = i
		}
	}
	if c.time < 0 {
		return c, fmt.Errorf("missing time column (ts, time or timestamp)")
	}
	for name, idx := range map[string]int{"open": c.open, "high": c.high, "low": c.low, "close": c.close} {
		if idx < 0 {
			return c, fmt.Errorf("missing %s column", name)
		}
	}
	return c, nil
}

func parseBarRow(row []string, c columns) (Bar, error) {
	field := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	ts, err := parseTime(field(c.time))
	if err != nil {
		return Bar{}, err
	}

	var b Bar
	b.Time = ts
	for _, p := range []struct {
		name string
		idx  int
		dst  *float64
	}{
		{"open", c.open, &b.Open},
		{"high", c.high, &b.High},
		{"low", c.low, &b.Low},
		{"close", c.close, &b.Close},
	} {
		v, err := strconv.ParseFloat(field(p.idx), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad %s %q: %w", p.name, field(p.idx), err)
		}
		*p.dst = v
	}
	if s := field(c.volume); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad volume %q: %w", s, err)
		}
		b.Volume = v
	}
	return b, nil
}

func parseTime(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if v > millisThreshold {
			v /= 1000
		}
		return int64(v), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, s)
		if err2 != nil {
			return 0, fmt.Errorf("bad time %q: %w", s, err)
		}
		t = t2
	}
	return t.Unix(), nil
}

func inRange(t, from, to int64) bool {
	if from != 0 && t < from {
		return false
	}
	if to != 0 && t >= to {
		return false
	}
	return true
}
