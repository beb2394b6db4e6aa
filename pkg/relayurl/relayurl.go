// Package relayurl validates and normalizes the websocket relay URLs used
// throughout the store, picker and minion (spec.md §3 "RelayUrl"). A
// RelayUrl is a string, not a struct: normalization happens once at the
// boundary (ingest of an `r` tag, a relay-list entry, a CLI flag) and every
// downstream table key is built from the normalized form so that the same
// relay never appears twice under two different spellings.
package relayurl

import (
	"net/url"
	"strings"

	"lol.mleku.dev/errorf"
)

// bannedSuffixes lists host fragments of relays known to misbehave
// (spec.md §3); a url containing one anywhere is rejected. Wildcarded
// subdomain patterns such as "wss://*.nostr.example" are rejected by
// bannedPrefixes.
var bannedSuffixes = []string{
	".nostr.wine",
}

var bannedPrefixes = []string{
	"wss://*.",
	"ws://*.",
}

// Normalize validates raw as a websocket relay URL and returns its
// canonical form: lowercase scheme and host, trailing slash retained on an
// empty path. An error is returned for anything that isn't ws/wss, that
// carries a wildcarded host, or that fails to parse.
func Normalize(raw string) (normalized string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		err = errorf.E("relayurl: empty")
		return
	}
	for _, p := range bannedPrefixes {
		if strings.HasPrefix(raw, p) {
			err = errorf.E("relayurl: banned wildcard host %q", raw)
			return
		}
	}
	for _, s := range bannedSuffixes {
		if strings.Contains(raw, s) {
			err = errorf.E("relayurl: banned relay %q", raw)
			return
		}
	}
	var u *url.URL
	if u, err = url.Parse(raw); err != nil {
		err = errorf.E("relayurl: %w", err)
		return
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "ws" && scheme != "wss" {
		err = errorf.E("relayurl: scheme must be ws or wss, got %q", raw)
		return
	}
	if u.Host == "" {
		err = errorf.E("relayurl: missing host in %q", raw)
		return
	}
	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	} else if !strings.HasSuffix(u.Path, "/") && u.RawQuery == "" && u.Fragment == "" {
		u.Path += "/"
	}
	u.Fragment = ""
	normalized = u.String()
	return
}

// IsValid reports whether raw normalizes without error.
func IsValid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}
