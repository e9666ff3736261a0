package domain

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const strategyYAML = `
- strategyId: PUMP_FAST
  isShaved: true
  buyConditions:
    - timeWindowSeconds: 60
      minSolBuyDelta: 2.5
      minWallets: 5
      minMarketcap: 10000
      maxMarketcap: 90000
      solBuyAmount: 0.1
      top10MaxPercentage: 30
      description: fast entries
  sellConditions:
    takeProfitConditions:
      - pnlPercentage: 10
        targetOpenPercentage: 50
      - pnlPercentage: 25
        targetOpenPercentage: 0
    stopLossCondition:
      stopLossPercentage: 20
`

func TestStrategy_YAML(t *testing.T) {
	var strategies []Strategy
	require.NoError(t, yaml.Unmarshal([]byte(strategyYAML), &strategies))
	require.Len(t, strategies, 1)

	s := strategies[0]
	assert.Equal(t, "PUMP_FAST", s.StrategyID)
	assert.True(t, s.IsShaved)
	require.Len(t, s.BuyConditions, 1)
	require.NotNil(t, s.BuyConditions[0].MaxMarketcap)
	assert.Equal(t, uint64(90000), *s.BuyConditions[0].MaxMarketcap)
	assert.Len(t, s.SellConditions.TakeProfitConditions, 2)
	require.NotNil(t, s.SellConditions.StopLossCondition)
	assert.Nil(t, s.SellConditions.TrailingStopLossCondition)
}

func TestStrategy_JSONFieldNames(t *testing.T) {
	raw := []byte(`{"strategyId":"X","isShaved":false,"buyConditions":[],"sellConditions":{"trailingStopLossCondition":{"trailingStopLossPercentage":12.5,"isLogarithmic":true}}}`)

	var s Strategy
	require.NoError(t, json.Unmarshal(raw, &s))
	require.NotNil(t, s.SellConditions.TrailingStopLossCondition)
	assert.Equal(t, 12.5, s.SellConditions.TrailingStopLossCondition.TrailingStopLossPercentage)
	assert.True(t, s.SellConditions.TrailingStopLossCondition.IsLogarithmic)
}

func TestStrategy_Validate(t *testing.T) {
	s := Strategy{StrategyID: "BAD", SellConditions: SellConditions{
		TakeProfitConditions: []TakeProfitCondition{{PnlPercentage: 10, TargetOpenPercentage: 120}},
	}}
	assert.Error(t, s.Validate())

	assert.Error(t, (&Strategy{}).Validate())
}

func TestStrategyBook(t *testing.T) {
	book, err := NewStrategyBook([]Strategy{{StrategyID: "B"}, {StrategyID: "A"}})
	require.NoError(t, err)

	s, ok := book.Get("A")
	require.True(t, ok)
	assert.Equal(t, "A", s.StrategyID)

	_, ok = book.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"A", "B"}, book.IDs())

	_, err = NewStrategyBook([]Strategy{{StrategyID: "A"}, {StrategyID: "A"}})
	assert.Error(t, err)
}
