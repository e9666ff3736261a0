package accounts

import "github.com/gagliardetto/solana-go"

// Well-known program and mint addresses.
var (
	RaydiumAMMProgramID = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	RaydiumAuthority    = solana.MustPublicKeyFromBase58("5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1")
	SerumProgramID      = solana.MustPublicKeyFromBase58("srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX")
	PumpProgramID       = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	WrappedSOLMint      = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
)
