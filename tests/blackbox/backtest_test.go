//go:build blackbox

package blackbox

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestBacktestBuyOnce(t *testing.T) {
	dir := t.TempDir()
	barsPath := filepath.Join(dir, "bars.csv")

	// Three bars closing 100/105/95: buy-once enters 10 units at 100 and
	// holds into the 95 close, so final equity is 9,950.
	closes := []float64{100, 105, 95}
	writeBarsCSV(t, barsPath, "AAPL", len(closes), func(i int) float64 { return closes[i] })

	out := run(t, "backtest",
		"--bars", barsPath,
		"--strategy", "buy-once",
		"--symbol", "AAPL",
		"--units", "10",
		"--capital", "10000")

	for _, want := range []string{
		"Backtest completed",
		"Final cash:    $9000.00",
		"Final equity:  $9950.00",
		"Trades:        1",
		"Total return:  -0.50%",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestBacktestEmaCrossJournalsTrades(t *testing.T) {
	dir := t.TempDir()
	barsPath := filepath.Join(dir, "bars.csv")
	dbPath := filepath.Join(dir, "journal.db")

	// Flat, ramp up (bull cross), ramp down (bear cross).
	writeBarsCSV(t, barsPath, "SPY", 200, func(i int) float64 {
		switch {
		case i < 80:
			return 100
		case i < 140:
			return 100 + float64(i-80)*0.5
		default:
			return 130 - float64(i-140)*0.5
		}
	})

	out := run(t, "backtest",
		"--bars", barsPath,
		"--strategy", "ema-cross",
		"--symbol", "SPY",
		"--units", "10",
		"--fast", "20", "--slow", "50",
		"--capital", "10000",
		"--db", dbPath)

	if !strings.Contains(out, "Backtest completed") {
		t.Fatalf("run did not complete:\n%s", out)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer db.Close()

	var trades int
	if err := db.QueryRow(`SELECT COUNT(*) FROM trades`).Scan(&trades); err != nil {
		t.Fatalf("count trades: %v", err)
	}
	if trades < 2 {
		t.Fatalf("expected at least one full round trip journaled, got %d trades", trades)
	}

	var samples int
	if err := db.QueryRow(`SELECT COUNT(*) FROM equity`).Scan(&samples); err != nil {
		t.Fatalf("count equity: %v", err)
	}
	if samples != 200 {
		t.Fatalf("expected one equity sample per bar, got %d", samples)
	}
}
