package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"

	"github.com/deskmate-core-poc/server/internal/agent/model"
)

// Fingerprint derives the canonical cache key for a question. The normalized
// triple is serialized, canonicalized per RFC 8785 so key order and spacing
// cannot vary, and hashed. Logically identical questions yield byte-identical
// keys.
func Fingerprint(q model.Question) (string, error) {
	raw, err := json.Marshal(q.Normalize())
	if err != nil {
		return "", fmt.Errorf("marshal fingerprint triple: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize fingerprint: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
