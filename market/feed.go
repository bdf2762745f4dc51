package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// BarFeed yields bars one at a time. Implementations should be
// deterministic and return (ok=false, err=nil) at EOF.
type BarFeed interface {
	Next() (b Bar, ok bool, err error)
	Close() error
}

// DataProvider is the collaborator capability the core consumes for
// historical and current market data. Concrete providers (broker APIs,
// files, databases) live outside this repository's core.
type DataProvider interface {
	Bars(symbol string, from, to time.Time) ([]Bar, error)
	Quote(symbol string) (Quote, error)
}

// SliceFeed replays an in-memory bar slice; mainly for tests and demos.
type SliceFeed struct {
	bars []Bar
	idx  int
}

func NewSliceFeed(bars []Bar) *SliceFeed { return &SliceFeed{bars: bars} }

func (f *SliceFeed) Next() (Bar, bool, error) {
	if f.idx >= len(f.bars) {
		return Bar{}, false, nil
	}
	b := f.bars[f.idx]
	f.idx++
	return b, true, nil
}

func (f *SliceFeed) Close() error { return nil }

// CSVBarFeed reads canonical bar CSV rows:
//
//	time,symbol,open,high,low,close,volume
//
// where time is RFC3339 or RFC3339Nano.
//
// It optionally filters bars to [From, To) if provided.
// Header row ("time,...") is allowed.
// Empty/short rows are skipped.
type CSVBarFeed struct {
	f    *os.File
	r    *csv.Reader
	from time.Time
	to   time.Time

	sawFirst bool
}

func NewCSVBarFeed(path string, from, to time.Time) (*CSVBarFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	return &CSVBarFeed{f: f, r: r, from: from, to: to}, nil
}

func (f *CSVBarFeed) Close() error {
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

func (f *CSVBarFeed) Next() (Bar, bool, error) {
	for {
		row, err := f.r.Read()
		if err == io.EOF {
			return Bar{}, false, nil
		}
		if err != nil {
			return Bar{}, false, err
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row
		if !f.sawFirst {
			f.sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		b, ok, err := parseBarRow(row)
		if err != nil {
			return Bar{}, false, err
		}
		if !ok {
			continue
		}
		if !inRange(b.Time, f.from, f.to) {
			continue
		}
		return b, true, nil
	}
}

func parseBarRow(row []string) (Bar, bool, error) {
	// Need at least: time,symbol,open,high,low,close
	if len(row) < 6 {
		return Bar{}, false, nil
	}

	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return Bar{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, ts)
		if err2 != nil {
			return Bar{}, false, fmt.Errorf("bad time %q: %w", ts, err)
		}
		t = t2
	}

	sym := strings.TrimSpace(row[1])
	if sym == "" {
		return Bar{}, false, nil
	}

	vals := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[2+i]), 64)
		if err != nil {
			return Bar{}, false, fmt.Errorf("bad price %q: %w", row[2+i], err)
		}
		vals[i] = v
	}

	b := Bar{Time: t, Symbol: sym, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]}

	if len(row) >= 7 {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[6]), 64)
		if err != nil {
			return Bar{}, false, fmt.Errorf("bad volume %q: %w", row[6], err)
		}
		b.Volume = v
	}
	return b, true, nil
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

// Collect drains a feed into a slice, closing it afterwards.
func Collect(f BarFeed) ([]Bar, error) {
	defer f.Close()

	var bars []Bar
	for {
		b, ok, err := f.Next()
		if err != nil {
			return bars, err
		}
		if !ok {
			return bars, nil
		}
		bars = append(bars, b)
	}
}
