package platform

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Query parameters excluded from the redirect signature base string.
var signatureExcludedParams = map[string]struct{}{
	"hmac":      {},
	"signature": {},
}

// VerifyRequestSignature checks the hmac parameter the platform appends to
// browser redirects. The base string is every other query parameter as
// key=value pairs, sorted by key, joined with '&'; the digest is hex-encoded
// HMAC-SHA256 under the app's shared secret.
func VerifyRequestSignature(params map[string]string, secret string) bool {
	sig := strings.TrimSpace(params["hmac"])
	if sig == "" || strings.TrimSpace(secret) == "" {
		return false
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if _, skip := signatureExcludedParams[k]; skip {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	base := strings.Join(pairs, "&")

	expected, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(base))
	return hmac.Equal(mac.Sum(nil), expected)
}

// SignRequestParams produces the hmac value for a parameter set. Tests and
// local tooling use it to fabricate authentic-looking redirects.
func SignRequestParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if _, skip := signatureExcludedParams[k]; skip {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks a webhook's HMAC header: base64-encoded
// HMAC-SHA256 over the raw request body under the shared secret.
func VerifyWebhookSignature(payload []byte, signatureHeader, secret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	if sig == "" || strings.TrimSpace(secret) == "" {
		return false
	}

	expected, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expected)
}

// SignWebhookPayload produces the webhook HMAC header value for a body.
func SignWebhookPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SignedQueryString builds a full query string including its hmac parameter,
// for constructing test handshake URLs.
func SignedQueryString(params map[string]string, secret string) string {
	v := url.Values{}
	for k, val := range params {
		v.Set(k, val)
	}
	v.Set("hmac", SignRequestParams(params, secret))
	return v.Encode()
}
