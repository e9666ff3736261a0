// Package signal reads typed trading signals from an external feed.
package signal

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"solana-copy-trader/internal/domain"
)

// Source returns signals newer than a message id, in feed order.
type Source interface {
	Fetch(ctx context.Context, afterMessageID int64) ([]domain.Signal, error)
}

// FileSource reads one JSON signal per line. The file is re-read on every
// fetch so an external writer can append to it. A missing file is empty.
type FileSource struct {
	path   string
	logger *zap.Logger
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{path: path, logger: logger}
}

// Fetch returns signals with MessageID > afterMessageID ordered by MessageID.
// Malformed lines are logged and skipped.
func (s *FileSource) Fetch(ctx context.Context, afterMessageID int64) ([]domain.Signal, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open signal file: %w", err)
	}
	defer f.Close()

	signals, err := s.decode(ctx, f, afterMessageID)
	if err != nil {
		return nil, fmt.Errorf("read signal file %s: %w", s.path, err)
	}
	return signals, nil
}

func (s *FileSource) decode(ctx context.Context, r io.Reader, after int64) ([]domain.Signal, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		out  []domain.Signal
		seen = make(map[int64]struct{})
		line int
	)
	for scanner.Scan() {
		line++
		if line%1024 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var sig domain.Signal
		if err := json.Unmarshal(raw, &sig); err != nil {
			s.logger.Warn("skipping malformed signal", zap.Int("line", line), zap.Error(err))
			continue
		}
		if err := sig.Validate(); err != nil {
			s.logger.Warn("skipping invalid signal", zap.Int("line", line), zap.Error(err))
			continue
		}
		if sig.MessageID <= after {
			continue
		}
		if _, dup := seen[sig.MessageID]; dup {
			continue
		}
		seen[sig.MessageID] = struct{}{}
		out = append(out, sig)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].MessageID < out[j].MessageID })
	return out, nil
}

// Append writes sig as one line to the file at path.
func Append(path string, sig domain.Signal) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("encode signal: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open signal file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append signal: %w", err)
	}
	return nil
}
