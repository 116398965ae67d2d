// Package authn implements the signed-request authentication protocol used
// by all DeniZEN agents.
package authn

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
)

// ComputeSignature builds the canonical signed string for a request and
// returns its lowercase hex HMAC-SHA1.
//
// The canonical string is privateKey, the uppercased effective method, the
// stamp, the nonce, and the lowercased action path, concatenated. The private
// key doubles as the HMAC key. Including it in the message as well is
// redundant, but every deployed agent signs this exact construction, so it is
// load-bearing for compatibility and must not be changed.
func ComputeSignature(privateKey, method string, stamp int64, nonce, actionPath string) string {
	var signed strings.Builder
	signed.WriteString(privateKey)
	signed.WriteString(strings.ToUpper(method))
	signed.WriteString(strconv.FormatInt(stamp, 10))
	signed.WriteString(nonce)
	signed.WriteString(strings.ToLower(actionPath))

	mac := hmac.New(sha1.New, []byte(privateKey))
	mac.Write([]byte(signed.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares a submitted signature against the expected one in
// constant time.
func VerifySignature(candidate, expected string) bool {
	return hmac.Equal([]byte(candidate), []byte(expected))
}
