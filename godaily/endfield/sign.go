package endfield

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// signHeader is serialized into the v2 canonical string. Field order matters:
// the upstream verifier rebuilds the exact same JSON.
type signHeader struct {
	Platform  string `json:"platform"`
	Timestamp string `json:"timestamp"`
	DID       string `json:"dId"`
	VName     string `json:"vName"`
}

// SignV1 computes the legacy signature used by basic endpoints:
// md5("timestamp=<t>&cred=<c>").
func SignV1(timestamp, cred string) string {
	sum := md5.Sum([]byte("timestamp=" + timestamp + "&cred=" + cred))
	return hex.EncodeToString(sum[:])
}

// SignV2 computes the HMAC signature required by newer endpoints. The
// canonical string is path + timestamp + headerJSON, keyed with the signing
// secret from the OAuth exchange, then collapsed through md5.
func SignV2(path, timestamp, platform, versionName, secret string) string {
	headerJSON, _ := json.Marshal(signHeader{
		Platform:  platform,
		Timestamp: timestamp,
		DID:       "",
		VName:     versionName,
	})

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(path + timestamp))
	mac.Write(headerJSON)
	hmacHex := hex.EncodeToString(mac.Sum(nil))

	sum := md5.Sum([]byte(hmacHex))
	return hex.EncodeToString(sum[:])
}

// v2PathPatterns lists the endpoint path substrings that require v2 signing.
// This table must stay exact: a v2 endpoint signed with v1 fails auth
// silently instead of crashing.
var v2PathPatterns = []string{"/binding", "/card/detail", "/wiki/", "/enums", "/v2/", "/attendance"}

// SignVersionForPath selects the signing protocol for a request path.
func SignVersionForPath(path string) string {
	for _, pattern := range v2PathPatterns {
		if strings.Contains(path, pattern) {
			return "v2"
		}
	}
	return "v1"
}
