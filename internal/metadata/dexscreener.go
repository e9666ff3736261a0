package metadata

import (
	"context"
	"fmt"
	"net/url"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/httpclient"
)

// DefaultDexScreenerURL is the public DexScreener API.
const DefaultDexScreenerURL = "https://api.dexscreener.com"

const dexRaydium = "raydium"

type dexToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type dexPair struct {
	ChainID     string   `json:"chainId"`
	DexID       string   `json:"dexId"`
	PairAddress string   `json:"pairAddress"`
	BaseToken   dexToken `json:"baseToken"`
	QuoteToken  dexToken `json:"quoteToken"`
	PriceNative string   `json:"priceNative"`
}

type dexSearchResponse struct {
	Pairs []dexPair `json:"pairs"`
}

// DexScreenerClient searches pairs on DexScreener.
type DexScreenerClient struct {
	http *httpclient.Client
}

// NewDexScreenerClient creates a DexScreenerClient. An empty baseURL uses DefaultDexScreenerURL.
func NewDexScreenerClient(baseURL string, opts httpclient.Options) *DexScreenerClient {
	if baseURL == "" {
		baseURL = DefaultDexScreenerURL
	}
	if opts.Name == "" {
		opts.Name = "dexscreener"
	}
	return &DexScreenerClient{http: httpclient.New(baseURL, opts)}
}

// Search looks up query (a mint or ticker) and describes the first pair.
func (c *DexScreenerClient) Search(ctx context.Context, query string) (*domain.TokenInfo, error) {
	var resp dexSearchResponse
	if err := c.http.GetJSON(ctx, "/latest/dex/search", url.Values{"q": {query}}, &resp); err != nil {
		return nil, fmt.Errorf("dexscreener search %s: %w", query, err)
	}
	if len(resp.Pairs) == 0 {
		return nil, fmt.Errorf("dexscreener search %s: no trading pairs", query)
	}

	pair := resp.Pairs[0]
	info := &domain.TokenInfo{
		Mint:   pair.BaseToken.Address,
		Name:   pair.BaseToken.Name,
		Symbol: pair.BaseToken.Symbol,
		Source: domain.TokenSourceDexScreener,
	}
	if pair.DexID == dexRaydium {
		info.Complete = true
		info.AMMPool = pair.PairAddress
	}
	return info, nil
}
