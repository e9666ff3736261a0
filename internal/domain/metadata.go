package domain

// TokenSource identifies where token metadata came from.
type TokenSource string

const (
	TokenSourcePump        TokenSource = "pump"
	TokenSourceDexScreener TokenSource = "dexscreener"
)

// TokenInfo is the routing-relevant metadata of a mint.
type TokenInfo struct {
	Mint         string
	Name         string
	Symbol       string
	Complete     bool   // bonding curve migrated; trade on the AMM
	BondingCurve string // empty when unknown
	AMMPool      string // empty until migrated
	Source       TokenSource
}
