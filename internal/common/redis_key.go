package common

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// RedisKeySearchPage is the key of a cached page of search results. Queries
// are hashed, they may be long and contain any character.
func RedisKeySearchPage(query string, page int) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(query))))
	return fmt.Sprintf("search:%s:%d", hex.EncodeToString(sum[:]), page)
}
