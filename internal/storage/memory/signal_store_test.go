package memory

import (
	"context"
	"errors"
	"testing"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

func openRecord(id int64) *domain.SignalRecord {
	total := 12.5
	return &domain.SignalRecord{
		Signal: domain.Signal{
			MessageID: id,
			Kind:      domain.SignalOpen,
			Open: &domain.OpenSignal{
				Strategy:        "S1",
				Token:           "BONK",
				ContractAddress: "Mint1",
				TotalBuys:       &total,
			},
		},
		ReceivedAt: 1000,
	}
}

func TestSignalStore_InsertAndLastMessageID(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	last, err := store.LastMessageID(ctx)
	if err != nil || last != 0 {
		t.Fatalf("expected empty cursor 0, got %d (%v)", last, err)
	}

	for _, id := range []int64{5, 9, 7} {
		if err := store.Insert(ctx, openRecord(id)); err != nil {
			t.Fatalf("Insert %d failed: %v", id, err)
		}
	}

	last, _ = store.LastMessageID(ctx)
	if last != 9 {
		t.Errorf("LastMessageID mismatch: got %d, want 9", last)
	}
}

func TestSignalStore_DuplicateKey(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	_ = store.Insert(ctx, openRecord(1))
	if err := store.Insert(ctx, openRecord(1)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestSignalStore_RejectsInvalid(t *testing.T) {
	store := NewSignalStore()
	rec := &domain.SignalRecord{Signal: domain.Signal{MessageID: 1, Kind: domain.SignalClose}}

	if err := store.Insert(context.Background(), rec); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSignalStore_GetReturnsDeepCopy(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	_ = store.Insert(ctx, openRecord(3))

	got, err := store.GetByMessageID(ctx, 3)
	if err != nil {
		t.Fatalf("GetByMessageID failed: %v", err)
	}
	*got.Open.TotalBuys = 99

	again, _ := store.GetByMessageID(ctx, 3)
	if *again.Open.TotalBuys != 12.5 {
		t.Errorf("store leaked internal state")
	}

	if _, err := store.GetByMessageID(ctx, 404); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
