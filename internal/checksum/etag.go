// Package checksum computes HTTP ETags for GET /locks and GET /holders
// snapshot bodies, so clients polling for changes can use
// If-None-Match and the adapter can answer with 304 Not Modified
// instead of re-sending an unchanged snapshot.
package checksum

import (
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// ETag returns a quoted strong entity tag for body, computed as the
// hex-encoded XXH3-64 digest. The same body always yields the same
// tag; a single differing byte almost always yields a different one.
func ETag(body []byte) string {
	sum := xxh3.Hash(body)
	return `"` + strconv.FormatUint(sum, 16) + `"`
}

// Matches reports whether an If-None-Match header value contains tag,
// honoring the wildcard "*" and the comma-separated list form clients
// send when they hold multiple cached representations.
func Matches(ifNoneMatch, tag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		if strings.TrimSpace(candidate) == tag {
			return true
		}
	}
	return false
}
