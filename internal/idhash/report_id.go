package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeReportID computes a deterministic report_id using SHA256.
// Formula: SHA256(message_id|side|token|strategy_id|venue|attempt|created_at)
// Returns hex-encoded hash (64 characters).
func ComputeReportID(
	messageID int64,
	side string,
	token string,
	strategyID string,
	venue string,
	attempt int,
	createdAt int64,
) string {
	data := fmt.Sprintf("%d|%s|%s|%s|%s|%d|%d",
		messageID,
		side,
		token,
		strategyID,
		venue,
		attempt,
		createdAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
