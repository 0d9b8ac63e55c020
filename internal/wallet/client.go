package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/set-night/memelord/internal/config"
)

// Client talks to the signing wallet service that holds the treasury key.
// It never retries: the service may have broadcast before a failure.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: config.WalletTimeout},
	}
}

type sendOutput struct {
	Address  string `json:"address"`
	Satoshis int64  `json:"satoshis"`
}

type sendRequest struct {
	Outputs []sendOutput `json:"outputs"`
}

type sendResponse struct {
	TxID  string `json:"txid"`
	Error string `json:"error"`
}

// Submit sends amountSats to address and returns the broadcast txid.
func (c *Client) Submit(ctx context.Context, address string, amountSats int64) (string, error) {
	if amountSats <= 0 {
		return "", fmt.Errorf("invalid amount %d", amountSats)
	}

	payload, err := json.Marshal(sendRequest{
		Outputs: []sendOutput{{Address: address, Satoshis: amountSats}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/send", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	idempotencyKey := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Idempotency-Key", idempotencyKey)

	slog.InfoContext(ctx, "sending payment",
		"address", address,
		"sats", amountSats,
		"bsv", ToCoins(amountSats).String(),
		"idempotency_key", idempotencyKey,
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var result sendResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("unmarshal response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("wallet status %d: %s", resp.StatusCode, result.Error)
	}
	if result.TxID == "" {
		return "", fmt.Errorf("wallet returned no txid")
	}

	slog.InfoContext(ctx, "payment broadcast", "address", address, "sats", amountSats, "tx_id", result.TxID)
	return result.TxID, nil
}

// ToCoins converts sats to whole BSV.
func ToCoins(sats int64) decimal.Decimal {
	return decimal.NewFromInt(sats).Div(decimal.NewFromInt(config.SatsPerCoin))
}
