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

// LNbitsClient implements ports.WalletProvider against an LNbits instance.
// LNbits reports balances in millisatoshis; the client normalizes to
// satoshis with currency code SAT.
type LNbitsClient struct {
	baseURL  string
	adminKey string
	http     HTTPDoer
	log      zerolog.Logger
}

// NewLNbitsClient creates an LNbits provider client with a bounded
// per-request timeout.
func NewLNbitsClient(baseURL, adminKey string, timeout time.Duration, log zerolog.Logger) *LNbitsClient {
	return &LNbitsClient{
		baseURL:  baseURL,
		adminKey: adminKey,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Name returns the provider identity.
func (c *LNbitsClient) Name() domain.Provider {
	return domain.ProviderLNbits
}

type lnbitsWalletResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"` // millisatoshis
}

// FetchBalance retrieves the current balance of an LNbits wallet. The key
// identifies the wallet at LNbits; providerAccountID is cross-checked
// against the wallet id the instance reports.
func (c *LNbitsClient) FetchBalance(ctx context.Context, providerAccountID string) (*ports.BalanceReport, error) {
	url := c.baseURL + "/api/v1/wallet"

	resp, err := doWithRetry(ctx, c.http, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Api-Key", c.adminKey)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("lnbits balance fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lnbits balance fetch: unexpected status %d", resp.StatusCode)
	}

	var body lnbitsWalletResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("lnbits balance fetch: decode response: %w", err)
	}
	if providerAccountID != "" && body.ID != providerAccountID {
		return nil, fmt.Errorf("lnbits balance fetch: wallet mismatch: got %s, want %s", body.ID, providerAccountID)
	}

	// msat -> sat, keeping sub-satoshi precision.
	balance := decimal.NewFromInt(body.Balance).Div(decimal.NewFromInt(1000))

	c.log.Debug().
		Str("wallet_id", body.ID).
		Str("balance_sat", balance.String()).
		Msg("lnbits balance fetched")

	return &ports.BalanceReport{
		Balance:  balance,
		Currency: "SAT",
		AsOf:     time.Now().UTC(),
		Metadata: map[string]any{"wallet_name": body.Name},
	}, nil
}
