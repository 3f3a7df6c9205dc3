// Package marketsrc implements the primary market source over a JSON HTTP
// aggregator API.
package marketsrc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Codex-zero-source/Stellar-arbitrage/internal/types"
)

type HTTPError struct {
	Status      int
	URL         string
	Body        string
	RateLimited bool
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d %s: %s", e.Status, e.URL, e.Body)
}

type Client struct {
	base   string
	apiKey string
	cli    *http.Client
	log    *zap.Logger
}

func NewClient(baseURL, apiKey string, log *zap.Logger) *Client {
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		apiKey: apiKey,
		cli:    &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

type oppRow struct {
	Pair              string  `json:"pair"`
	BuyVenue          string  `json:"buy_venue"`
	SellVenue         string  `json:"sell_venue"`
	BuyPrice          float64 `json:"buy_price"`
	SellPrice         float64 `json:"sell_price"`
	ProfitPct         float64 `json:"profit_percentage"`
	EstimatedProfit   float64 `json:"estimated_profit"`
	EstimatedSlippage float64 `json:"estimated_slippage"`
}

// Scan fetches current cross-venue discrepancies. Malformed rows are
// dropped at the boundary; only fixed-shape records leave this package.
func (c *Client) Scan(ctx context.Context, assets []string, minProfit float64) ([]types.Opportunity, error) {
	q := url.Values{}
	q.Set("assets", strings.Join(assets, ","))
	q.Set("min_profit", fmt.Sprintf("%g", minProfit))

	var rows []oppRow
	if err := c.getJSON(ctx, "/arbitrage/opportunities?"+q.Encode(), &rows); err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]types.Opportunity, 0, len(rows))
	for _, r := range rows {
		if r.Pair == "" || r.BuyPrice <= 0 || r.SellPrice <= 0 {
			c.log.Debug("dropping malformed opportunity row", zap.String("pair", r.Pair))
			continue
		}
		out = append(out, types.Opportunity{
			Pair:              r.Pair,
			BuyVenue:          r.BuyVenue,
			SellVenue:         r.SellVenue,
			BuyPrice:          r.BuyPrice,
			SellPrice:         r.SellPrice,
			ProfitPct:         r.ProfitPct,
			EstimatedProfit:   r.EstimatedProfit,
			EstimatedSlippage: r.EstimatedSlippage,
			Source:            types.SourcePrimary,
			DiscoveredAt:      now,
		})
	}
	return out, nil
}

func (c *Client) SupportedAssets(ctx context.Context) ([]string, error) {
	var resp struct {
		Assets []string `json:"assets"`
	}
	if err := c.getJSON(ctx, "/arbitrage/assets", &resp); err != nil {
		return nil, err
	}
	return resp.Assets, nil
}

func (c *Client) getJSON(ctx context.Context, pathAndQuery string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+pathAndQuery, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.cli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &HTTPError{
			Status:      resp.StatusCode,
			URL:         req.URL.String(),
			Body:        strings.TrimSpace(string(body)),
			RateLimited: resp.StatusCode == http.StatusTooManyRequests,
		}
	}
	return json.Unmarshal(body, v)
}
