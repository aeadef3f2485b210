package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"b3monitor/internal/model"
)

// BrapiFetcher implements Fetcher using the brapi.dev quote API as an
// alternative to Yahoo. Selected when data_source.base_url is set.
type BrapiFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewBrapiFetcher creates a new fetcher with optional proxy support.
func NewBrapiFetcher(baseURL, apiKey, proxyURL string) *BrapiFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &BrapiFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *BrapiFetcher) Name() string { return "brapi" }

// brapiQuote is the expected JSON shape from the brapi quote API.
type brapiQuote struct {
	Results []struct {
		Symbol              string `json:"symbol"`
		HistoricalDataPrice []struct {
			Date  int64   `json:"date"`
			Close float64 `json:"close"`
		} `json:"historicalDataPrice"`
	} `json:"results"`
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func (f *BrapiFetcher) FetchDailyCloses(ctx context.Context, symbol string, days int) ([]model.DailyClose, error) {
	// brapi takes the bare B3 code, without the Yahoo exchange suffix.
	code := strings.TrimSuffix(symbol, ".SA")
	endpoint := fmt.Sprintf("%s/api/quote/%s?range=%s&interval=1d",
		f.BaseURL, url.PathEscape(code), rangeForDays(days))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brapi fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("brapi: status %d, body: %s", resp.StatusCode, string(body))
	}

	var quote brapiQuote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("brapi decode: %w", err)
	}
	if quote.Error {
		return nil, fmt.Errorf("brapi api error: %s", quote.Message)
	}
	if len(quote.Results) == 0 || len(quote.Results[0].HistoricalDataPrice) == 0 {
		return nil, fmt.Errorf("brapi: no data returned")
	}

	hist := quote.Results[0].HistoricalDataPrice
	bars := make([]model.DailyClose, 0, len(hist))
	for _, h := range hist {
		if h.Close == 0 {
			continue
		}
		bars = append(bars, model.DailyClose{
			Date:  time.Unix(h.Date, 0).UTC(),
			Close: h.Close,
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("brapi: only null bars returned")
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}
