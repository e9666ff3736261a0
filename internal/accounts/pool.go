package accounts

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"solana-copy-trader/internal/layout"
	"solana-copy-trader/internal/pricemath"
)

// PoolSize is the exact size of a Raydium AMM v4 pool account.
const PoolSize = 752

var poolU64Fields = []string{
	"status", "nonce", "max_order", "depth", "base_decimal", "quote_decimal",
	"state", "reset_flag", "min_size", "vol_max_cut_ratio", "amount_wave_ratio",
	"base_lot_size", "quote_lot_size", "min_price_multiplier", "max_price_multiplier",
	"system_decimal_value", "min_separate_numerator", "min_separate_denominator",
	"trade_fee_numerator", "trade_fee_denominator", "pnl_numerator", "pnl_denominator",
	"swap_fee_numerator", "swap_fee_denominator", "base_need_take_pnl", "quote_need_take_pnl",
	"quote_total_pnl", "base_total_pnl", "pool_open_time", "punish_pc_amount",
	"punish_coin_amount", "orderbook_to_init_time",
}

var poolKeyFields = []string{
	"base_vault", "quote_vault", "base_mint", "quote_mint", "lp_mint", "open_orders",
	"market_id", "market_program_id", "target_orders", "withdraw_queue", "lp_vault", "owner",
}

// PoolLayout is the Raydium AMM v4 pool state layout.
var PoolLayout = func() *layout.Layout {
	fields := make([]layout.Field, 0, 52)
	for _, name := range poolU64Fields {
		fields = append(fields, layout.U64Field(name))
	}
	fields = append(fields,
		layout.U128Field("swap_base_in_amount"),
		layout.U128Field("swap_quote_out_amount"),
		layout.U64Field("swap_base2_quote_fee"),
		layout.U128Field("swap_quote_in_amount"),
		layout.U128Field("swap_base_out_amount"),
		layout.U64Field("swap_quote2_base_fee"),
	)
	for _, name := range poolKeyFields {
		fields = append(fields, layout.PublicKeyField(name))
	}
	fields = append(fields,
		layout.U64Field("lp_reserve"),
		layout.BytesField("padding", 24),
	)
	return layout.New("amm_v4_pool", fields...)
}()

// Pool holds the fields of a pool account that swaps depend on.
type Pool struct {
	Status             uint64
	Nonce              uint64
	BaseDecimal        uint64
	QuoteDecimal       uint64
	SwapFeeNumerator   uint64
	SwapFeeDenominator uint64
	PoolOpenTime       uint64

	SwapBaseInAmount   layout.Uint128
	SwapQuoteOutAmount layout.Uint128
	SwapQuoteInAmount  layout.Uint128
	SwapBaseOutAmount  layout.Uint128

	BaseVault       solana.PublicKey
	QuoteVault      solana.PublicKey
	BaseMint        solana.PublicKey
	QuoteMint       solana.PublicKey
	LPMint          solana.PublicKey
	OpenOrders      solana.PublicKey
	MarketID        solana.PublicKey
	MarketProgramID solana.PublicKey
	TargetOrders    solana.PublicKey
	WithdrawQueue   solana.PublicKey
	LPVault         solana.PublicKey
	Owner           solana.PublicKey

	LPReserve uint64
}

// DecodePool decodes a pool account. data must be exactly PoolSize bytes.
func DecodePool(data []byte) (*Pool, error) {
	rec, err := PoolLayout.Decode(data)
	if err != nil {
		return nil, err
	}

	d := decoder{rec: rec}
	p := &Pool{
		Status:             d.u64("status"),
		Nonce:              d.u64("nonce"),
		BaseDecimal:        d.u64("base_decimal"),
		QuoteDecimal:       d.u64("quote_decimal"),
		SwapFeeNumerator:   d.u64("swap_fee_numerator"),
		SwapFeeDenominator: d.u64("swap_fee_denominator"),
		PoolOpenTime:       d.u64("pool_open_time"),
		SwapBaseInAmount:   d.u128("swap_base_in_amount"),
		SwapQuoteOutAmount: d.u128("swap_quote_out_amount"),
		SwapQuoteInAmount:  d.u128("swap_quote_in_amount"),
		SwapBaseOutAmount:  d.u128("swap_base_out_amount"),
		BaseVault:          d.key("base_vault"),
		QuoteVault:         d.key("quote_vault"),
		BaseMint:           d.key("base_mint"),
		QuoteMint:          d.key("quote_mint"),
		LPMint:             d.key("lp_mint"),
		OpenOrders:         d.key("open_orders"),
		MarketID:           d.key("market_id"),
		MarketProgramID:    d.key("market_program_id"),
		TargetOrders:       d.key("target_orders"),
		WithdrawQueue:      d.key("withdraw_queue"),
		LPVault:            d.key("lp_vault"),
		Owner:              d.key("owner"),
		LPReserve:          d.u64("lp_reserve"),
	}
	if d.err != nil {
		return nil, fmt.Errorf("decode pool: %w", d.err)
	}
	return p, nil
}

// Reserves returns the pool's swap reserves oriented base to quote.
func (p *Pool) Reserves() pricemath.Reserves {
	return pricemath.Reserves{
		Base:           p.SwapBaseInAmount.Big(),
		Quote:          p.SwapQuoteOutAmount.Big(),
		FeeNumerator:   p.SwapFeeNumerator,
		FeeDenominator: p.SwapFeeDenominator,
	}
}

// decoder collects the first getter error so field lists stay flat.
type decoder struct {
	rec layout.Record
	err error
}

func (d *decoder) u64(name string) uint64 {
	v, err := d.rec.U64(name)
	d.keep(err)
	return v
}

func (d *decoder) u128(name string) layout.Uint128 {
	v, err := d.rec.U128(name)
	d.keep(err)
	return v
}

func (d *decoder) key(name string) solana.PublicKey {
	v, err := d.rec.PublicKey(name)
	d.keep(err)
	return v
}

func (d *decoder) flag(name string) bool {
	v, err := d.rec.Bool(name)
	d.keep(err)
	return v
}

func (d *decoder) keep(err error) {
	if err != nil && d.err == nil {
		d.err = err
	}
}

// EncodePool writes p in the on-chain pool layout. Fields not carried by
// Pool are zero.
func EncodePool(p *Pool) ([]byte, error) {
	return PoolLayout.NewWriter().
		PutU64("status", p.Status).
		PutU64("nonce", p.Nonce).
		PutU64("base_decimal", p.BaseDecimal).
		PutU64("quote_decimal", p.QuoteDecimal).
		PutU64("swap_fee_numerator", p.SwapFeeNumerator).
		PutU64("swap_fee_denominator", p.SwapFeeDenominator).
		PutU64("pool_open_time", p.PoolOpenTime).
		PutU128("swap_base_in_amount", p.SwapBaseInAmount).
		PutU128("swap_quote_out_amount", p.SwapQuoteOutAmount).
		PutU128("swap_quote_in_amount", p.SwapQuoteInAmount).
		PutU128("swap_base_out_amount", p.SwapBaseOutAmount).
		PutPublicKey("base_vault", p.BaseVault).
		PutPublicKey("quote_vault", p.QuoteVault).
		PutPublicKey("base_mint", p.BaseMint).
		PutPublicKey("quote_mint", p.QuoteMint).
		PutPublicKey("lp_mint", p.LPMint).
		PutPublicKey("open_orders", p.OpenOrders).
		PutPublicKey("market_id", p.MarketID).
		PutPublicKey("market_program_id", p.MarketProgramID).
		PutPublicKey("target_orders", p.TargetOrders).
		PutPublicKey("withdraw_queue", p.WithdrawQueue).
		PutPublicKey("lp_vault", p.LPVault).
		PutPublicKey("owner", p.Owner).
		PutU64("lp_reserve", p.LPReserve).
		Bytes()
}
