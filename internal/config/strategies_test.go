package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strategyYAML = `
- strategyId: S1
  isShaved: false
  buyConditions:
    - timeWindowSeconds: 60
      minSolBuyDelta: 5
      minWallets: 3
      minMarketcap: 10000
      solBuyAmount: 0.1
      top10MaxPercentage: 30
      description: early momentum
  sellConditions:
    takeProfitConditions:
      - pnlPercentage: 10
        targetOpenPercentage: 50
        description: half at 10%
      - pnlPercentage: 25
        targetOpenPercentage: 0
    stopLossCondition:
      stopLossPercentage: 20
    trailingStopLossCondition:
      trailingStopLossPercentage: 15
      isLogarithmic: false
- strategyId: S2
  sellConditions: {}
`

func TestParseStrategies_List(t *testing.T) {
	book, err := ParseStrategies([]byte(strategyYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"S1", "S2"}, book.IDs())

	s1, ok := book.Get("S1")
	require.True(t, ok)
	require.Len(t, s1.SellConditions.TakeProfitConditions, 2)
	assert.Equal(t, int32(50), s1.SellConditions.TakeProfitConditions[0].TargetOpenPercentage)
	require.NotNil(t, s1.SellConditions.StopLossCondition)
	assert.Equal(t, int32(20), s1.SellConditions.StopLossCondition.StopLossPercentage)
	require.NotNil(t, s1.SellConditions.TrailingStopLossCondition)
	assert.Equal(t, 15.0, s1.SellConditions.TrailingStopLossCondition.TrailingStopLossPercentage)
	require.Len(t, s1.BuyConditions, 1)
	assert.Equal(t, uint64(10000), s1.BuyConditions[0].MinMarketcap)
}

func TestParseStrategies_Document(t *testing.T) {
	book, err := ParseStrategies([]byte("strategies:\n  - strategyId: X\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, book.IDs())
}

func TestParseStrategies_Errors(t *testing.T) {
	tests := map[string]string{
		"duplicate id":   "- strategyId: A\n- strategyId: A\n",
		"missing id":     "- isShaved: true\n",
		"unknown field":  "- strategyId: A\n  stopLoss: 5\n",
		"bad percentage": "- strategyId: A\n  sellConditions:\n    takeProfitConditions:\n      - pnlPercentage: 10\n        targetOpenPercentage: 120\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseStrategies([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseStrategies_Empty(t *testing.T) {
	book, err := ParseStrategies(nil)
	require.NoError(t, err)
	assert.Empty(t, book.IDs())
}

func TestLoadStrategies_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strategyYAML), 0o644))

	book, err := LoadStrategies(path)
	require.NoError(t, err)
	assert.Len(t, book.IDs(), 2)

	_, err = LoadStrategies(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
