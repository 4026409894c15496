package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// Kind identifies the operation a cached result belongs to.
type Kind string

const (
	KindSummary Kind = "summary"
	KindAnswer  Kind = "answer"
)

// Cache stores inference results per session.
type Cache interface {
	// Get retrieves a cached result by key.
	// Returns nil if not found
	Get(ctx context.Context, key string) (*Result, error)

	// Set stores a result; ttl <= 0 keeps it until the session ends.
	Set(ctx context.Context, key string, result *Result, ttl time.Duration) error

	// InvalidateSession removes every result cached for a session.
	InvalidateSession(ctx context.Context, sessionID string) error

	// Close releases the backend.
	Close() error
}

// Result is a normalized inference result.
type Result struct {
	Summary []string `json:"summary,omitempty"`
	Answer  string   `json:"answer,omitempty"`
	Score   float64  `json:"score,omitempty"`
}

// SessionPrefix is the key prefix shared by every entry of a session.
func SessionPrefix(sessionID string) string {
	return "session:" + sessionID + ":"
}

// GenerateCacheKey builds a session-scoped key. Arguments are hashed with
// their lengths so that two keys are equal only when every argument is.
func GenerateCacheKey(sessionID string, kind Kind, args ...string) string {
	h := sha256.New()
	var n [8]byte
	for _, a := range args {
		binary.BigEndian.PutUint64(n[:], uint64(len(a)))
		h.Write(n[:])
		h.Write([]byte(a))
	}
	return SessionPrefix(sessionID) + string(kind) + ":" + hex.EncodeToString(h.Sum(nil))
}
