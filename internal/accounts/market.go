package accounts

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"solana-copy-trader/internal/layout"
)

// MarketSize is the exact size of a Serum market account.
const MarketSize = 388

// MarketLayout is the Serum v3 market state layout.
var MarketLayout = layout.New("serum_market",
	layout.BytesField("blob5", 5),
	layout.BytesField("account_flags", 8),
	layout.PublicKeyField("own_address"),
	layout.U64Field("vault_signer_nonce"),
	layout.PublicKeyField("base_mint"),
	layout.PublicKeyField("quote_mint"),
	layout.PublicKeyField("base_vault"),
	layout.U64Field("base_deposits_total"),
	layout.U64Field("base_fees_accrued"),
	layout.PublicKeyField("quote_vault"),
	layout.U64Field("quote_deposits_total"),
	layout.U64Field("quote_fees_accrued"),
	layout.U64Field("quote_dust_threshold"),
	layout.PublicKeyField("request_queue"),
	layout.PublicKeyField("event_queue"),
	layout.PublicKeyField("bids"),
	layout.PublicKeyField("asks"),
	layout.U64Field("base_lot_size"),
	layout.U64Field("quote_lot_size"),
	layout.U64Field("fee_rate_bps"),
	layout.U64Field("referrer_rebates_accrued"),
	layout.BytesField("blob7", 7),
)

// Market holds the market accounts an AMM swap routes through.
type Market struct {
	OwnAddress       solana.PublicKey
	VaultSignerNonce uint64
	BaseMint         solana.PublicKey
	QuoteMint        solana.PublicKey
	BaseVault        solana.PublicKey
	QuoteVault       solana.PublicKey
	RequestQueue     solana.PublicKey
	EventQueue       solana.PublicKey
	Bids             solana.PublicKey
	Asks             solana.PublicKey
	BaseLotSize      uint64
	QuoteLotSize     uint64
	FeeRateBps       uint64
}

// DecodeMarket decodes a market account. data must be exactly MarketSize bytes.
func DecodeMarket(data []byte) (*Market, error) {
	rec, err := MarketLayout.Decode(data)
	if err != nil {
		return nil, err
	}

	d := decoder{rec: rec}
	m := &Market{
		OwnAddress:       d.key("own_address"),
		VaultSignerNonce: d.u64("vault_signer_nonce"),
		BaseMint:         d.key("base_mint"),
		QuoteMint:        d.key("quote_mint"),
		BaseVault:        d.key("base_vault"),
		QuoteVault:       d.key("quote_vault"),
		RequestQueue:     d.key("request_queue"),
		EventQueue:       d.key("event_queue"),
		Bids:             d.key("bids"),
		Asks:             d.key("asks"),
		BaseLotSize:      d.u64("base_lot_size"),
		QuoteLotSize:     d.u64("quote_lot_size"),
		FeeRateBps:       d.u64("fee_rate_bps"),
	}
	if d.err != nil {
		return nil, fmt.Errorf("decode market: %w", d.err)
	}
	return m, nil
}

// EncodeMarket writes m in the on-chain market layout.
func EncodeMarket(m *Market) ([]byte, error) {
	return MarketLayout.NewWriter().
		PutPublicKey("own_address", m.OwnAddress).
		PutU64("vault_signer_nonce", m.VaultSignerNonce).
		PutPublicKey("base_mint", m.BaseMint).
		PutPublicKey("quote_mint", m.QuoteMint).
		PutPublicKey("base_vault", m.BaseVault).
		PutPublicKey("quote_vault", m.QuoteVault).
		PutPublicKey("request_queue", m.RequestQueue).
		PutPublicKey("event_queue", m.EventQueue).
		PutPublicKey("bids", m.Bids).
		PutPublicKey("asks", m.Asks).
		PutU64("base_lot_size", m.BaseLotSize).
		PutU64("quote_lot_size", m.QuoteLotSize).
		PutU64("fee_rate_bps", m.FeeRateBps).
		Bytes()
}
