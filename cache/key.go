package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// KeyFor derives a stable cache key from rendered SQL text and its
// bindings CacheEntry: "key (stable hash of rendered SQL
// plus bindings)". Bindings are formatted with fmt.Sprintf("%#v", ...) so
// distinct Go values with the same string representation (e.g. int64(1) vs
// "1") still hash differently.
func KeyFor(sql string, bindings []any) string {
	h := sha256.New()
	h.Write([]byte(sql))
	for _, b := range bindings {
		h.Write([]byte{0})
		fmt.Fprintf(h, "%#v", b)
	}
	return hex.EncodeToString(h.Sum(nil))
}
