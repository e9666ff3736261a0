package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMint = "So11111111111111111111111111111111111111112"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("NO_DOTENV", "1")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPositions_Empty(t *testing.T) {
	out, err := execute(t, "positions", "--use-memory")
	require.NoError(t, err)
	assert.Contains(t, out, "no open positions")
}

func TestInfo_UsesPumpMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/"+testMint, r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"mint":          testMint,
			"name":          "Wrapped SOL",
			"symbol":        "WSOL",
			"complete":      false,
			"bonding_curve": "Curve111",
		})
	}))
	defer srv.Close()
	t.Setenv("PUMP_API_URL", srv.URL)

	out, err := execute(t, "info", testMint, "--use-memory")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrapped SOL (WSOL)")
	assert.Contains(t, out, "complete:      false")
	assert.Contains(t, out, "amm pool:      -")
}

func TestBuy_RequiresPositiveSol(t *testing.T) {
	_, err := execute(t, "buy", testMint, "--sol", "0", "--use-memory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--sol")
}

func TestBuy_WithoutSignerFails(t *testing.T) {
	t.Setenv("SOLANA_PRIVATE_KEY", "")
	t.Setenv("SIGNER_MODE", "local")

	_, err := execute(t, "buy", testMint, "--sol", "0.1", "--use-memory", "--no-confirm")
	assert.Error(t, err)
}

func TestSell_RejectsUnknownOp(t *testing.T) {
	_, err := execute(t, "sell", testMint, "--op", "YOLO", "--use-memory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation type")
}

func TestSell_NoPosition(t *testing.T) {
	t.Setenv("STRATEGIES_FILE", t.TempDir()+"/absent.yaml")

	_, err := execute(t, "sell", testMint, "--strategy", "S1", "--use-memory", "--no-confirm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no active trade")
}

func TestArgsValidation(t *testing.T) {
	_, err := execute(t, "info")
	assert.Error(t, err)

	_, err = execute(t, "positions", "extra")
	assert.Error(t, err)
}
