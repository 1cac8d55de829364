// Package cache provides a bounded, TTL-expiring memo of completed task
// results keyed by content fingerprint.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// Fingerprint derives a deterministic cache key from a task's semantic
// content: type, objective, and payload. Two logically identical requests
// always hash identically.
//
// The payload is canonicalized through encoding/json, which marshals map
// keys in sorted order at every nesting depth, so structurally equal
// payloads produce byte-identical input regardless of construction order.
func Fingerprint(task *models.Task) string {
	payload, err := json.Marshal(task.Data)
	if err != nil {
		// Non-serializable payloads degrade to type+objective keying.
		payload = nil
	}

	content := fmt.Sprintf("%s:%s:%s", task.Type, task.Objective, payload)
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
