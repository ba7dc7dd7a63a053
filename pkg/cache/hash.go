package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash returns the hex SHA-256 digest of data. Trace payloads and
// serialized forests are identified by this digest, so the full
// 64-character form is kept to rule out collisions between unrelated
// recordings.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey derives a "<stage>:<digest>" cache key from a pipeline stage
// name and the key components. Components are JSON-encoded before
// hashing so option structs contribute stably.
func hashKey(stage string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return fmt.Sprintf("%s:%s", stage, Hash(data))
}
