package session

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Sign computes the request signature the feed validates: the hex MD5 of
// "<token prefix>&<timestamp>&<appKey>&<data>". Only the part of token before
// the first underscore is used.
func Sign(token, timestamp, appKey, data string) string {
	prefix, _, _ := strings.Cut(token, "_")

	sum := md5.Sum([]byte(prefix + "&" + timestamp + "&" + appKey + "&" + data))
	return hex.EncodeToString(sum[:])
}
