package universe

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
)

// BrapiClient lists B3 tickers via the brapi.dev quote-list API.
type BrapiClient struct {
	BaseURL string
	Token   string
	Limit   int
	Client  *http.Client
}

// NewBrapiClient creates a brapi ticker-list client with optional proxy support.
func NewBrapiClient(baseURL, token string, limit int, proxyURL string) *BrapiClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &BrapiClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Limit:   limit,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// brapiQuoteList is the response structure of /api/quote/list.
type brapiQuoteList struct {
	Stocks []struct {
		Stock string `json:"stock"`
		Name  string `json:"name"`
		Type  string `json:"type"`
	} `json:"stocks"`
}

// validSuffixes keeps the common ON/PN/unit share classes and drops
// fractional and other unwanted codes.
var validSuffixes = []string{"11", "3", "4", "5", "6", "7", "8"}

func hasValidSuffix(code string) bool {
	for _, s := range validSuffixes {
		if strings.HasSuffix(code, s) {
			return true
		}
	}
	return false
}

// ListTickers fetches the full stock list and returns exchange-qualified
// Yahoo symbols like "PETR4.SA", deduplicated and sorted.
func (c *BrapiClient) ListTickers(ctx context.Context) ([]string, error) {
	u := fmt.Sprintf("%s/api/quote/list?limit=%d", c.BaseURL, c.Limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brapi fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("brapi read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brapi: status %d, body: %s", resp.StatusCode, string(body))
	}

	var list brapiQuoteList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("brapi decode: %w", err)
	}
	if len(list.Stocks) == 0 {
		return nil, fmt.Errorf("brapi: empty stock list")
	}

	seen := make(map[string]bool)
	tickers := make([]string, 0, len(list.Stocks))
	for _, s := range list.Stocks {
		code := strings.ToUpper(strings.TrimSpace(s.Stock))
		if code == "" || s.Type != "stock" {
			continue
		}
		if !hasValidSuffix(code) {
			continue
		}
		sym := code + ".SA"
		if !seen[sym] {
			seen[sym] = true
			tickers = append(tickers, sym)
		}
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("brapi: no tickers left after filtering")
	}
	sort.Strings(tickers)
	return tickers, nil
}
