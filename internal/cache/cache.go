package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/claimcheck/internal/model"
)

// Cache stores search results by query key
type Cache interface {
	Get(key string) ([]model.SearchResult, bool)
	Set(key string, results []model.SearchResult, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// QueryKey generates a cache key from a search query and its result limit.
// Case and whitespace differences map to the same key.
func QueryKey(query string, maxResults int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	hash := sha256.Sum256([]byte(normalized + "\x00" + strconv.Itoa(maxResults)))
	return "claimcheck:search:v1:" + hex.EncodeToString(hash[:])
}

func cloneResults(in []model.SearchResult) []model.SearchResult {
	if in == nil {
		return nil
	}
	out := make([]model.SearchResult, len(in))
	copy(out, in)
	return out
}
