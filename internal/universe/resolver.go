package universe

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
)

// Lister is the remote ticker-list source.
type Lister interface {
	ListTickers(ctx context.Context) ([]string, error)
}

// Resolver resolves the ticker universe, preferring the remote API and
// falling back to a static CSV file when it is unavailable.
type Resolver struct {
	Lister       Lister
	FallbackPath string
}

// NewResolver creates a Resolver.
func NewResolver(lister Lister, fallbackPath string) *Resolver {
	return &Resolver{Lister: lister, FallbackPath: fallbackPath}
}

// Resolve returns the ticker universe. It errors only when both the
// remote source and the fallback file fail.
func (r *Resolver) Resolve(ctx context.Context) ([]string, error) {
	tickers, err := r.Lister.ListTickers(ctx)
	if err == nil {
		return tickers, nil
	}
	log.Printf("[WARN] ticker list API failed, using fallback: %v", err)

	tickers, ferr := LoadFallbackCSV(r.FallbackPath)
	if ferr != nil {
		return nil, fmt.Errorf("ticker API failed (%v) and fallback failed: %w", err, ferr)
	}
	log.Printf("[INFO] loaded %d tickers from fallback %s", len(tickers), r.FallbackPath)
	return tickers, nil
}

// LoadFallbackCSV reads the static ticker list. The file must have a
// header row with a "ticker" column; codes are upcased and given the
// ".SA" suffix when missing.
func LoadFallbackCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fallback csv: %w", err)
	}
	defer f.Close()
	return readFallback(f)
}

func readFallback(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	tickerIdx := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "ticker") {
			tickerIdx = i
			break
		}
	}
	if tickerIdx < 0 {
		return nil, fmt.Errorf("missing required column: ticker")
	}

	seen := make(map[string]bool)
	var tickers []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		code := strings.ToUpper(strings.TrimSpace(record[tickerIdx]))
		if code == "" {
			continue
		}
		if !strings.HasSuffix(code, ".SA") {
			code += ".SA"
		}
		if !seen[code] {
			seen[code] = true
			tickers = append(tickers, code)
		}
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("fallback csv contains no tickers")
	}
	sort.Strings(tickers)
	return tickers, nil
}
