//go:build blackbox

package blackbox

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

// writeBarsCSV generates a daily bar file for one symbol from a close-price
// function.
func writeBarsCSV(t *testing.T, path, symbol string, n int, closeAt func(i int) float64) {
	t.Helper()

	var b strings.Builder
	b.WriteString("time,symbol,open,high,low,close,volume\n")

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := closeAt(i)
		fmt.Fprintf(&b, "%s,%s,%.4f,%.4f,%.4f,%.4f,%d\n",
			start.AddDate(0, 0, i).Format(time.RFC3339),
			symbol, c, c+0.5, c-0.5, c, 1000+i)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write bars: %v", err)
	}
}
