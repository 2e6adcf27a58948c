package logging

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// RedactedValue replaces sensitive values in logs and errors.
const RedactedValue = "[REDACTED]"

var redactionAllowlist = map[string]struct{}{
	"service":  {},
	"env":      {},
	"network":  {},
	"chain_id": {},
	"rpc_url":  {},
	"call_id":  {},
	"kind":     {},
	"method":   {},
	"contract": {},
	"tx":       {},
}

// Hosted RPC providers embed project keys as long path segments
// (https://mainnet.infura.io/v3/<key>).
var apiKeySegment = regexp.MustCompile(`^[0-9A-Za-z_-]{20,}$`)

// MaskField redacts value unless key is known to be safe to log.
func MaskField(key, value string) slog.Attr {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if _, ok := redactionAllowlist[normalized]; ok || strings.TrimSpace(value) == "" {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

// RedactURL strips credentials, query values and key-like path segments from
// an RPC endpoint. Unparseable input is redacted entirely.
func RedactURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		if strings.TrimSpace(raw) == "" {
			return raw
		}
		return RedactedValue
	}
	if u.User != nil {
		u.User = url.User(RedactedValue)
	}
	if u.RawQuery != "" {
		query := u.Query()
		for key := range query {
			query.Set(key, RedactedValue)
		}
		u.RawQuery = query.Encode()
	}
	segments := strings.Split(u.Path, "/")
	for i, segment := range segments {
		if apiKeySegment.MatchString(segment) {
			segments[i] = RedactedValue
		}
	}
	u.Path = strings.Join(segments, "/")
	u.RawPath = ""
	out, err := url.PathUnescape(u.String())
	if err != nil {
		return u.String()
	}
	return out
}
