package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"escrow-backend/internal/core/domain"
	"escrow-backend/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// FincraClient implements ports.WalletProvider against the FinCra API.
type FincraClient struct {
	baseURL string
	apiKey  string
	http    HTTPDoer
	log     zerolog.Logger
}

// NewFincraClient creates a FinCra provider client with a bounded
// per-request timeout.
func NewFincraClient(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) *FincraClient {
	return &FincraClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Name returns the provider identity.
func (c *FincraClient) Name() domain.Provider {
	return domain.ProviderFincra
}

type fincraBalanceResponse struct {
	Success bool `json:"success"`
	Data    struct {
		ID       string      `json:"id"`
		Amount   json.Number `json:"amount"`
		Currency string      `json:"currency"`
	} `json:"data"`
	Message string `json:"message"`
}

// FetchBalance retrieves the current balance of a FinCra virtual account.
func (c *FincraClient) FetchBalance(ctx context.Context, providerAccountID string) (*ports.BalanceReport, error) {
	url := fmt.Sprintf("%s/v1/accounts/%s/balance", c.baseURL, providerAccountID)

	resp, err := doWithRetry(ctx, c.http, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("api-key", c.apiKey)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fincra balance fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fincra balance fetch: unexpected status %d", resp.StatusCode)
	}

	var body fincraBalanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("fincra balance fetch: decode response: %w", err)
	}
	if !body.Success {
		return nil, fmt.Errorf("fincra balance fetch: %s", body.Message)
	}

	balance, err := decimal.NewFromString(body.Data.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("fincra balance fetch: parse amount %q: %w", body.Data.Amount, err)
	}

	c.log.Debug().
		Str("account_id", providerAccountID).
		Str("balance", balance.String()).
		Str("currency", body.Data.Currency).
		Msg("fincra balance fetched")

	return &ports.BalanceReport{
		Balance:           balance,
		Currency:          body.Data.Currency,
		ExternalBalanceID: body.Data.ID,
		AsOf:              time.Now().UTC(),
	}, nil
}
