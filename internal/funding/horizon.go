// Package funding checks trading-account balances against a Horizon-style
// accounts API. Used only from the supervisor's extended-backoff path.
package funding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Client struct {
	base string
	cli  *http.Client
	log  *zap.Logger
}

func NewClient(horizonURL string, log *zap.Logger) *Client {
	return &Client{
		base: strings.TrimRight(horizonURL, "/"),
		cli:  &http.Client{Timeout: 10 * time.Second},
		log:  log,
	}
}

type accountResponse struct {
	Balances []struct {
		AssetType string `json:"asset_type"`
		AssetCode string `json:"asset_code"`
		Balance   string `json:"balance"`
	} `json:"balances"`
}

// NativeBalance returns the account's native (XLM) balance.
func (c *Client) NativeBalance(ctx context.Context, accountID string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/accounts/"+accountID, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.cli.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("funding: http %d for account %s", resp.StatusCode, accountID)
	}

	var acc accountResponse
	if err := json.Unmarshal(body, &acc); err != nil {
		return 0, err
	}
	for _, b := range acc.Balances {
		if b.AssetType == "native" {
			return strconv.ParseFloat(b.Balance, 64)
		}
	}
	return 0, fmt.Errorf("funding: no native balance for account %s", accountID)
}

// EnsureFunded reports whether the account holds at least minBalance of
// the native asset.
func (c *Client) EnsureFunded(ctx context.Context, accountID string, minBalance float64) (bool, error) {
	bal, err := c.NativeBalance(ctx, accountID)
	if err != nil {
		return false, err
	}
	c.log.Info("funding check",
		zap.String("account_id", accountID),
		zap.Float64("balance", bal),
		zap.Float64("min_balance", minBalance),
	)
	return bal >= minBalance, nil
}
