package app

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solana-copy-trader/internal/config"
	"solana-copy-trader/internal/signer"
)

func memoryConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Storage.UseMemory = true
	return &cfg
}

func TestBuild_MemoryWithoutSigner(t *testing.T) {
	rt, err := Build(context.Background(), memoryConfig(), Options{SkipConfirmer: true})
	require.NoError(t, err)
	defer rt.Close()

	assert.NotNil(t, rt.Trader)
	assert.NotNil(t, rt.Stores.Trades)
	assert.NotNil(t, rt.Stores.Signals)
	assert.NotNil(t, rt.Stores.Reports)
	assert.Nil(t, rt.Signer)

	positions, err := rt.Trader.Positions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestNewSigner_Local(t *testing.T) {
	wallet := solana.NewWallet()
	cfg := memoryConfig()
	cfg.Signer.PrivateKey = wallet.PrivateKey.String()

	s, err := NewSigner(cfg, nil, nil, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.IsType(t, &signer.LocalSigner{}, s)
	assert.Equal(t, wallet.PublicKey(), s.PublicKey())
}

func TestNewSigner_LocalBadKey(t *testing.T) {
	cfg := memoryConfig()
	cfg.Signer.PrivateKey = "not-a-key"

	_, err := NewSigner(cfg, nil, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestNewSigner_Delegated(t *testing.T) {
	pub := solana.NewWallet().PublicKey()
	cfg := memoryConfig()
	cfg.Signer = config.Signer{
		Mode:            config.SignerDelegated,
		CustodyURL:      "http://custody",
		CustodyAppID:    "app",
		CustodyWalletID: "wallet",
		WalletAddress:   pub.String(),
	}

	s, err := NewSigner(cfg, nil, nil, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &signer.DelegatedSigner{}, s)
	assert.Equal(t, pub, s.PublicKey())

	cfg.Signer.WalletAddress = "bogus"
	_, err = NewSigner(cfg, nil, nil, zap.NewNop())
	assert.Error(t, err)
}
