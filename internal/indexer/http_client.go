package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerwatch/btc-sanctions/internal/apperr"
	"github.com/ledgerwatch/btc-sanctions/internal/domain"
)

// HTTPClient talks to a high-level blockchain indexer (not a full node)
// over a read-only REST API, converting its provider-specific JSON into
// the system's normalized domain.BitcoinTransaction shape.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	limiter *slidingWindowLimiter
}

// HTTPClientConfig configures an HTTPClient.
type HTTPClientConfig struct {
	BaseURL         string
	Timeout         time.Duration
	RateLimitWindow time.Duration
	RateLimitMax    int
}

// NewHTTPClient builds an HTTPClient. A zero Timeout defaults to 10s; a
// zero RateLimitWindow/Max defaults to a 60-request, 60-second window.
func NewHTTPClient(cfg HTTPClientConfig, logger *zap.Logger) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	window := cfg.RateLimitWindow
	if window <= 0 {
		window = 60 * time.Second
	}
	maxReq := cfg.RateLimitMax
	if maxReq <= 0 {
		maxReq = 60
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		limiter: newSlidingWindowLimiter(window, maxReq),
	}
}

type wireTransaction struct {
	TxID   string `json:"txid"`
	Status struct {
		Confirmed   bool  `json:"confirmed"`
		BlockHeight int64 `json:"blockHeight"`
		BlockTime   int64 `json:"blockTime"`
	} `json:"status"`
	Fee  int64 `json:"fee"`
	Size int   `json:"size"`
	Vin  []struct {
		TxID    string `json:"txid"`
		Vout    int    `json:"vout"`
		Prevout *struct {
			Address string `json:"address"`
			Value   int64  `json:"value"`
		} `json:"prevout"`
	} `json:"vin"`
	Vout []struct {
		Address      string `json:"address"`
		Value        int64  `json:"value"`
		ScriptPubKey string `json:"scriptPubKey"`
	} `json:"vout"`
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	allowed, count, limit, resetAt := c.limiter.Allow()
	if !allowed {
		return apperr.New(apperr.ExternalAPI, "indexer rate limit exceeded").
			WithDetails(fmt.Sprintf("count=%d limit=%d resetAt=%s", count, limit, resetAt.Format(time.RFC3339)))
	}

	u := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return apperr.Wrap(apperr.ExternalAPI, "build indexer request", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.ExternalAPI, "indexer request failed for "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apperr.New(apperr.ExternalAPI, fmt.Sprintf("indexer returned %d for %s", resp.StatusCode, path))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.ExternalAPI, "decode indexer response for "+path, err)
	}
	return nil
}

// GetTransaction implements Client.
func (c *HTTPClient) GetTransaction(ctx context.Context, txid string) (*domain.BitcoinTransaction, error) {
	var w wireTransaction
	if err := c.get(ctx, "/tx/"+url.PathEscape(txid), &w); err != nil {
		return nil, err
	}
	return normalizeTransaction(&w), nil
}

func normalizeTransaction(w *wireTransaction) *domain.BitcoinTransaction {
	tx := &domain.BitcoinTransaction{
		TxID:        w.TxID,
		BlockHeight: w.Status.BlockHeight,
		FeeSats:     w.Fee,
		SizeBytes:   w.Size,
	}
	if w.Status.Confirmed {
		tx.BlockTime = w.Status.BlockTime
	}
	for _, in := range w.Vin {
		input := domain.TxInput{PrevTxID: in.TxID, PrevVout: in.Vout}
		if in.Prevout != nil {
			if in.Prevout.Address != "" {
				input.Addresses = []string{in.Prevout.Address}
			}
			input.ValueSats = in.Prevout.Value
		}
		tx.Inputs = append(tx.Inputs, input)
	}
	for _, out := range w.Vout {
		output := domain.TxOutput{ValueSats: out.Value, ScriptPubKey: out.ScriptPubKey}
		if out.Address != "" {
			output.Addresses = []string{out.Address}
		}
		tx.Outputs = append(tx.Outputs, output)
	}
	return tx
}

// GetAddressTransactions implements Client.
func (c *HTTPClient) GetAddressTransactions(ctx context.Context, addr string, limit int) ([]string, error) {
	limit = clampLimit(limit)
	var wire []struct {
		TxID string `json:"txid"`
	}
	path := "/address/" + url.PathEscape(addr) + "/txs?limit=" + strconv.Itoa(limit)
	if err := c.get(ctx, path, &wire); err != nil {
		return nil, err
	}
	txids := make([]string, 0, len(wire))
	for i, t := range wire {
		if i >= limit {
			break
		}
		txids = append(txids, t.TxID)
	}
	return txids, nil
}

// GetAddressInfo implements Client.
func (c *HTTPClient) GetAddressInfo(ctx context.Context, addr string) (*AddressInfo, error) {
	var wire struct {
		Address string `json:"address"`
		ChainStats struct {
			TxCount int64 `json:"tx_count"`
			Funded  int64 `json:"funded_sum"`
			Spent   int64 `json:"spent_sum"`
		} `json:"chainStats"`
	}
	if err := c.get(ctx, "/address/"+url.PathEscape(addr), &wire); err != nil {
		return nil, err
	}
	return &AddressInfo{
		Address:     addr,
		TxCount:     int(wire.ChainStats.TxCount),
		BalanceSats: wire.ChainStats.Funded - wire.ChainStats.Spent,
	}, nil
}

// RateLimitStatus implements Client.
func (c *HTTPClient) RateLimitStatus() RateLimitStatus {
	count, limit, resetAt := c.limiter.Status()
	return RateLimitStatus{Count: count, Limit: limit, ResetAt: resetAt}
}
