package venue

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"solana-copy-trader/internal/accounts"
)

const swapBaseInDiscriminator = 9

// NewSwapInstruction builds the AMM v4 swap_base_in instruction.
func NewSwapInstruction(accs *accounts.SwapAccounts, source, dest, owner solana.PublicKey, amountIn, minOut uint64) solana.Instruction {
	data := make([]byte, 17)
	data[0] = swapBaseInDiscriminator
	binary.LittleEndian.PutUint64(data[1:9], amountIn)
	binary.LittleEndian.PutUint64(data[9:17], minOut)

	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(accs.AMM, true, false),
		solana.NewAccountMeta(accounts.RaydiumAuthority, false, false),
		solana.NewAccountMeta(accs.OpenOrders, true, false),
		solana.NewAccountMeta(accs.TargetOrders, true, false),
		solana.NewAccountMeta(accs.BaseVault, true, false),
		solana.NewAccountMeta(accs.QuoteVault, true, false),
		solana.NewAccountMeta(accs.MarketProgramID, false, false),
		solana.NewAccountMeta(accs.MarketID, true, false),
		solana.NewAccountMeta(accs.Bids, true, false),
		solana.NewAccountMeta(accs.Asks, true, false),
		solana.NewAccountMeta(accs.EventQueue, true, false),
		solana.NewAccountMeta(accs.MarketBaseVault, true, false),
		solana.NewAccountMeta(accs.MarketQuoteVault, true, false),
		solana.NewAccountMeta(accs.VaultSigner, false, false),
		solana.NewAccountMeta(source, true, false),
		solana.NewAccountMeta(dest, true, false),
		solana.NewAccountMeta(owner, true, true),
	}
	return solana.NewInstruction(accounts.RaydiumAMMProgramID, metas, data)
}

// NewCreateATAIdempotentInstruction creates owner's associated token account
// for mint unless it already exists.
func NewCreateATAIdempotentInstruction(payer, ata, owner, mint solana.PublicKey) solana.Instruction {
	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(ata, true, false),
		solana.NewAccountMeta(owner, false, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
	}
	return solana.NewInstruction(solana.SPLAssociatedTokenAccountProgramID, metas, []byte{1})
}
