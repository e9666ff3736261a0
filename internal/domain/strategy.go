package domain

import (
	"fmt"
	"sort"
)

// Strategy defines how positions opened for a strategy are exited.
type Strategy struct {
	StrategyID     string         `yaml:"strategyId" json:"strategyId"`
	IsShaved       bool           `yaml:"isShaved" json:"isShaved"`
	BuyConditions  []BuyCondition `yaml:"buyConditions" json:"buyConditions"`
	SellConditions SellConditions `yaml:"sellConditions" json:"sellConditions"`
}

// BuyCondition documents the signal source's entry filter. Not evaluated here.
type BuyCondition struct {
	TimeWindowSeconds  int32   `yaml:"timeWindowSeconds" json:"timeWindowSeconds"`
	MinSolBuyDelta     float64 `yaml:"minSolBuyDelta" json:"minSolBuyDelta"`
	MinWallets         int32   `yaml:"minWallets" json:"minWallets"`
	MinMarketcap       uint64  `yaml:"minMarketcap" json:"minMarketcap"`
	MaxMarketcap       *uint64 `yaml:"maxMarketcap,omitempty" json:"maxMarketcap,omitempty"`
	SolBuyAmount       float64 `yaml:"solBuyAmount" json:"solBuyAmount"`
	Top10MaxPercentage float64 `yaml:"top10MaxPercentage" json:"top10MaxPercentage"`
	Description        string  `yaml:"description" json:"description"`
}

// SellConditions are the exit rules. Any of them may be absent.
type SellConditions struct {
	TakeProfitConditions      []TakeProfitCondition      `yaml:"takeProfitConditions,omitempty" json:"takeProfitConditions,omitempty"`
	StopLossCondition         *StopLossCondition         `yaml:"stopLossCondition,omitempty" json:"stopLossCondition,omitempty"`
	TrailingStopLossCondition *TrailingStopLossCondition `yaml:"trailingStopLossCondition,omitempty" json:"trailingStopLossCondition,omitempty"`
}

// TakeProfitCondition keeps TargetOpenPercentage of the initial position open
// once profit reaches PnlPercentage.
type TakeProfitCondition struct {
	PnlPercentage        int32  `yaml:"pnlPercentage" json:"pnlPercentage"`
	TargetOpenPercentage int32  `yaml:"targetOpenPercentage" json:"targetOpenPercentage"`
	Description          string `yaml:"description" json:"description"`
}

type StopLossCondition struct {
	StopLossPercentage int32  `yaml:"stopLossPercentage" json:"stopLossPercentage"`
	Description        string `yaml:"description" json:"description"`
}

type TrailingStopLossCondition struct {
	TrailingStopLossPercentage float64 `yaml:"trailingStopLossPercentage" json:"trailingStopLossPercentage"`
	IsLogarithmic              bool    `yaml:"isLogarithmic" json:"isLogarithmic"`
	Description                string  `yaml:"description" json:"description"`
}

// Validate checks percentage ranges.
func (s *Strategy) Validate() error {
	if s.StrategyID == "" {
		return fmt.Errorf("strategy without strategyId")
	}
	for i, tp := range s.SellConditions.TakeProfitConditions {
		if tp.TargetOpenPercentage < 0 || tp.TargetOpenPercentage > 100 {
			return fmt.Errorf("strategy %s: take profit %d: targetOpenPercentage %d outside [0,100]",
				s.StrategyID, i, tp.TargetOpenPercentage)
		}
	}
	if sl := s.SellConditions.StopLossCondition; sl != nil && sl.StopLossPercentage < 0 {
		return fmt.Errorf("strategy %s: negative stopLossPercentage", s.StrategyID)
	}
	if tsl := s.SellConditions.TrailingStopLossCondition; tsl != nil && tsl.TrailingStopLossPercentage < 0 {
		return fmt.Errorf("strategy %s: negative trailingStopLossPercentage", s.StrategyID)
	}
	return nil
}

// StrategyBook indexes strategies by id.
type StrategyBook struct {
	byID map[string]*Strategy
}

// NewStrategyBook validates and indexes strategies. Duplicate ids are rejected.
func NewStrategyBook(strategies []Strategy) (*StrategyBook, error) {
	b := &StrategyBook{byID: make(map[string]*Strategy, len(strategies))}
	for i := range strategies {
		s := strategies[i]
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := b.byID[s.StrategyID]; dup {
			return nil, fmt.Errorf("duplicate strategy %s", s.StrategyID)
		}
		b.byID[s.StrategyID] = &s
	}
	return b, nil
}

// Get returns the strategy with id.
func (b *StrategyBook) Get(id string) (*Strategy, bool) {
	if b == nil {
		return nil, false
	}
	s, ok := b.byID[id]
	return s, ok
}

// IDs returns the strategy ids in sorted order.
func (b *StrategyBook) IDs() []string {
	if b == nil {
		return nil
	}
	ids := make([]string, 0, len(b.byID))
	for id := range b.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
