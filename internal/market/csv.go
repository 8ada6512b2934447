package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CSV layout: time,open,high,low,close,volume with an optional header row.
// Matches the export format used by the data-fetch side.

// ReadCSV parses a candle series from r.
func ReadCSV(r io.Reader) (History, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	var candles []Candle
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return History{}, fmt.Errorf("market: read csv line %d: %w", line+1, err)
		}
		line++
		if len(rec) < 6 {
			return History{}, fmt.Errorf("market: csv line %d has %d columns, want 6", line, len(rec))
		}
		if line == 1 && looksLikeHeader(rec[0]) {
			continue
		}
		t, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil {
			return History{}, fmt.Errorf("market: csv line %d time %q: %w", line, rec[0], err)
		}
		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
			if err != nil {
				return History{}, fmt.Errorf("market: csv line %d column %d %q: %w", line, i+2, rec[i+1], err)
			}
			vals[i] = v
		}
		candles = append(candles, Candle{
			Index:  len(candles),
			Time:   t,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	out := FromCandles(candles)
	if err := out.Validate(); err != nil {
		return History{}, err
	}
	return out, nil
}

// LoadCSV reads a candle series from a file path.
func LoadCSV(path string) (History, error) {
	f, err := os.Open(path)
	if err != nil {
		return History{}, fmt.Errorf("market: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// WriteCSV renders the series with a header row.
func WriteCSV(w io.Writer, h History) error {
	var b strings.Builder
	b.WriteString("time,open,high,low,close,volume\n")
	for i := 0; i < h.Len(); i++ {
		b.WriteString(strconv.FormatInt(h.T[i], 10))
		b.WriteByte(',')
		b.WriteString(formatPrice(h.O[i]))
		b.WriteByte(',')
		b.WriteString(formatPrice(h.H[i]))
		b.WriteByte(',')
		b.WriteString(formatPrice(h.L[i]))
		b.WriteByte(',')
		b.WriteString(formatPrice(h.C[i]))
		b.WriteByte(',')
		b.WriteString(formatPrice(h.V[i]))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func looksLikeHeader(first string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(first), 10, 64)
	return err != nil
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
