package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)

	when := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(TradeRecord{
		TradeID:    "T1",
		Symbol:     "AAPL",
		Side:       "sell",
		Quantity:   10,
		Price:      95,
		Time:       when,
		RealizedPL: -50,
		Reason:     "exit",
	}))
	require.NoError(t, j.RecordEquity(EquitySnapshot{Time: when, Cash: 9950, Equity: 9950}))
	require.NoError(t, j.Close())

	trades := readAll(t, tradesPath)
	require.Len(t, trades, 2)
	assert.Equal(t, []string{"trade_id", "symbol", "side", "quantity", "price", "time", "realized_pl", "reason"}, trades[0])
	assert.Equal(t, []string{"T1", "AAPL", "sell", "10", "95", "2024-01-04T00:00:00Z", "-50", "exit"}, trades[1])

	equity := readAll(t, equityPath)
	require.Len(t, equity, 2)
	assert.Equal(t, []string{"time", "cash", "equity"}, equity[0])
	assert.Equal(t, []string{"2024-01-04T00:00:00Z", "9950", "9950"}, equity[1])
}

// Not parallel: it counts this process's open descriptors, which only
// holds still while no sibling test is opening files.
func TestCSVJournalHeaderFailureClosesFiles(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}

	equityPath := filepath.Join(t.TempDir(), "equity.csv")

	before, err := os.ReadDir("/proc/self/fd")
	require.NoError(t, err)

	// /dev/full accepts the open but fails every write, so the header
	// flush errors out after both files are already open.
	_, err = NewCSV("/dev/full", equityPath)
	require.Error(t, err)

	after, err := os.ReadDir("/proc/self/fd")
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

func TestCSVJournalFlushesPerRecord(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")

	j, err := NewCSV(tradesPath, filepath.Join(dir, "equity.csv"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	require.NoError(t, j.RecordTrade(TradeRecord{TradeID: "T1", Symbol: "AAPL", Side: "buy"}))

	// Visible on disk before Close.
	rows := readAll(t, tradesPath)
	assert.Len(t, rows, 2)
}
