package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"solana-copy-trader/internal/domain"
)

// strategyFile accepts either a bare list or a {strategies: [...]} document.
type strategyFile struct {
	Strategies []domain.Strategy `yaml:"strategies"`
}

// LoadStrategies reads a YAML strategy file into a StrategyBook.
func LoadStrategies(path string) (*domain.StrategyBook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategies: %w", err)
	}
	book, err := ParseStrategies(data)
	if err != nil {
		return nil, fmt.Errorf("strategies %s: %w", path, err)
	}
	return book, nil
}

// ParseStrategies decodes YAML strategy definitions. Unknown fields are
// rejected.
func ParseStrategies(data []byte) (*domain.StrategyBook, error) {
	var list []domain.Strategy
	if err := decodeStrict(data, &list); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewStrategyBook(nil)
		}
		var doc strategyFile
		if derr := decodeStrict(data, &doc); derr != nil {
			return nil, fmt.Errorf("decode: %w", derr)
		}
		list = doc.Strategies
	}
	return domain.NewStrategyBook(list)
}

func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(v)
}
