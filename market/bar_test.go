package market

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSeries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		bars    []Bar
		wantErr error
		errMsg  string
	}{
		{
			name:    "empty",
			bars:    nil,
			wantErr: ErrEmptySeries,
		},
		{
			name: "valid",
			bars: FromCloses(100, 60, 1, 2, 3),
		},
		{
			name:    "time not increasing",
			bars:    []Bar{{Time: 10, Open: 1, High: 1, Low: 1, Close: 1}, {Time: 10, Open: 1, High: 1, Low: 1, Close: 1}},
			wantErr: ErrInvalidSeries,
			errMsg:  "bar 1",
		},
		{
			name:    "close above high",
			bars:    []Bar{{Time: 1, Open: 1, High: 2, Low: 1, Close: 3}},
			wantErr: ErrInvalidSeries,
			errMsg:  "close",
		},
		{
			name:    "low above high",
			bars:    []Bar{{Time: 1, Open: 1, High: 1, Low: 2, Close: 1}},
			wantErr: ErrInvalidSeries,
			errMsg:  "low",
		},
		{
			name:    "negative volume",
			bars:    []Bar{{Time: 1, Open: 1, High: 1, Low: 1, Close: 1, Volume: -1}},
			wantErr: ErrInvalidSeries,
			errMsg:  "volume",
		},
		{
			name:    "nan close",
			bars:    []Bar{{Time: 1, Open: 1, High: 1, Low: 1, Close: math.NaN()}},
			wantErr: ErrInvalidSeries,
			errMsg:  "non-finite",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateSeries(tt.bars)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestReadCSV(t *testing.T) {
	t.Parallel()

	t.Run("seconds with volume, unsorted", func(t *testing.T) {
		in := "ts,open,high,low,close,volume\n" +
			"120,2,3,1,2.5,10\n" +
			"60,1,2,0.5,1.5,5\n"
		bars, err := ReadCSV(strings.NewReader(in), ReadOptions{})
		require.NoError(t, err)
		require.Len(t, bars, 2)
		assert.Equal(t, int64(60), bars[0].Time)
		assert.Equal(t, 1.5, bars[0].Close)
		assert.Equal(t, 10.0, bars[1].Volume)
	})

	t.Run("milliseconds are scaled", func(t *testing.T) {
		in := "timestamp,open,high,low,close\n1700000000000,1,1,1,1\n"
		bars, err := ReadCSV(strings.NewReader(in), ReadOptions{})
		require.NoError(t, err)
		assert.Equal(t, int64(1700000000), bars[0].Time)
	})

	t.Run("rfc3339 time column", func(t *testing.T) {
		in := "time,open,high,low,close\n2024-01-01T00:00:00Z,1,1,1,1\n"
		bars, err := ReadCSV(strings.NewReader(in), ReadOptions{})
		require.NoError(t, err)
		assert.Equal(t, int64(1704067200), bars[0].Time)
	})

	t.Run("range and limit", func(t *testing.T) {
		in := "ts,open,high,low,close\n1,1,1,1,1\n2,2,2,2,2\n3,3,3,3,3\n4,4,4,4,4\n"
		bars, err := ReadCSV(strings.NewReader(in), ReadOptions{From: 2, To: 4})
		require.NoError(t, err)
		require.Len(t, bars, 2)
		assert.Equal(t, int64(2), bars[0].Time)

		bars, err = ReadCSV(strings.NewReader(in), ReadOptions{Limit: 1})
		require.NoError(t, err)
		require.Len(t, bars, 1)
		assert.Equal(t, int64(4), bars[0].Time)
	})

	t.Run("duplicate timestamps", func(t *testing.T) {
		in := "ts,open,high,low,close\n1,1,1,1,1\n1,2,2,2,2\n"
		_, err := ReadCSV(strings.NewReader(in), ReadOptions{})
		require.ErrorIs(t, err, ErrInvalidSeries)
	})

	t.Run("missing column", func(t *testing.T) {
		in := "ts,open,high,close\n1,1,1,1\n"
		_, err := ReadCSV(strings.NewReader(in), ReadOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing low column")
	})

	t.Run("bad number", func(t *testing.T) {
		in := "ts,open,high,low,close\n1,x,1,1,1\n"
		_, err := ReadCSV(strings.NewReader(in), ReadOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("header only", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("ts,open,high,low,close\n"), ReadOptions{})
		require.ErrorIs(t, err, ErrEmptySeries)
	})
}
