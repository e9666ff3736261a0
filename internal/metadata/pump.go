package metadata

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gagliardetto/solana-go"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/httpclient"
)

// DefaultPumpURL is the public pump.fun frontend API.
const DefaultPumpURL = "https://frontend-api.pump.fun"

// pumpCoin is the subset of GET /coins/{mint} used for routing.
type pumpCoin struct {
	Mint         string  `json:"mint"`
	Name         string  `json:"name"`
	Symbol       string  `json:"symbol"`
	Complete     bool    `json:"complete"`
	BondingCurve string  `json:"bonding_curve"`
	RaydiumPool  *string `json:"raydium_pool"`
}

// PumpClient reads coin metadata from pump.fun.
type PumpClient struct {
	http *httpclient.Client
}

// NewPumpClient creates a PumpClient. An empty baseURL uses DefaultPumpURL.
func NewPumpClient(baseURL string, opts httpclient.Options) *PumpClient {
	if baseURL == "" {
		baseURL = DefaultPumpURL
	}
	if opts.Name == "" {
		opts.Name = "pump"
	}
	return &PumpClient{http: httpclient.New(baseURL, opts)}
}

// Coin fetches metadata for mint. The address must be valid base58.
func (c *PumpClient) Coin(ctx context.Context, mint string) (*domain.TokenInfo, error) {
	if _, err := solana.PublicKeyFromBase58(mint); err != nil {
		return nil, fmt.Errorf("invalid mint %q: %w", mint, err)
	}

	var coin pumpCoin
	if err := c.http.GetJSON(ctx, "/coins/"+url.PathEscape(mint), nil, &coin); err != nil {
		return nil, fmt.Errorf("pump.fun coin %s: %w", mint, err)
	}
	if coin.Mint == "" {
		return nil, fmt.Errorf("pump.fun coin %s: empty response", mint)
	}

	info := &domain.TokenInfo{
		Mint:         coin.Mint,
		Name:         coin.Name,
		Symbol:       coin.Symbol,
		Complete:     coin.Complete,
		BondingCurve: coin.BondingCurve,
		Source:       domain.TokenSourcePump,
	}
	if coin.RaydiumPool != nil {
		info.AMMPool = *coin.RaydiumPool
	}
	return info, nil
}
