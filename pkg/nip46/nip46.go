// Package nip46 implements a minimal nostr-connect (NIP-46) remote-signer
// bus: it parses a "nostrconnect://" connection string into a Server
// record and dispatches the handful of JSON-RPC methods a remote signer
// client needs (get_public_key, sign_event, get_relays, the NIP-04/NIP-44
// helpers, ping), wired to identity.I the way gossip-lib's nip46.rs wires
// them to its GLOBALS.identity. Full remote-signer session management
// (connect/disconnect handshake, permission prompts) is out of scope; the
// Minion's VariantNip46 subscription shape is real even though this bus
// only answers already-authorized requests.
package nip46

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/hex"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/tag"
)

var (
	ErrBadConnectString = errors.New("nip46: malformed nostrconnect:// string")
	ErrNoPublicKey       = errors.New("nip46: no public key configured")
	ErrUnknownMethod     = errors.New("nip46: unknown method")
)

// ClientMetadata is the optional descriptive blob a connecting client may
// advertise (name, url, description).
type ClientMetadata struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Server is one connected nostr-connect peer.
type Server struct {
	PeerPubkey []byte
	Relays     []string
	Metadata   *ClientMetadata
}

// ParseConnectString parses a "nostrconnect://<client-key-hex>?relay=...&
// relay=...&metadata={...}" URI into a Server awaiting approval.
func ParseConnectString(input string) (s *Server, err error) {
	const prefix = "nostrconnect://"
	if !strings.HasPrefix(input, prefix) {
		return nil, ErrBadConnectString
	}
	rest := input[len(prefix):]
	q := strings.IndexByte(rest, '?')
	if q < 0 {
		return nil, ErrBadConnectString
	}
	keyHex, query := rest[:q], rest[q+1:]
	pk, err := hex.Dec(keyHex)
	if err != nil || len(pk) != 32 {
		return nil, ErrBadConnectString
	}
	s = &Server{PeerPubkey: pk}
	for _, part := range strings.Split(query, "&") {
		if v, ok := strings.CutPrefix(part, "relay="); ok {
			s.Relays = append(s.Relays, v)
		} else if v, ok := strings.CutPrefix(part, "metadata="); ok {
			var md ClientMetadata
			if jerr := json.Unmarshal([]byte(v), &md); jerr == nil {
				s.Metadata = &md
			}
		}
	}
	return s, nil
}

// Identity is the slice of identity.I this bus needs: accept interfaces so
// this package never imports pkg/identity directly.
type Identity interface {
	PublicKey() []byte
	SignEvent(pre *event.E) error
	Nip04Encrypt(plaintext string, other []byte) (string, error)
	Nip04Decrypt(ciphertext string, other []byte) (string, error)
	Nip44ConversationKey(other []byte) ([]byte, error)
	Nip44Encrypt(plaintext string, other []byte) (string, error)
	Nip44Decrypt(ciphertext string, other []byte) (string, error)
}

// preEvent is the JSON-RPC sign_event param shape: pubkey/created_at are
// optional and default to the identity's own key and the current time.
type preEvent struct {
	Pubkey    string          `json:"pubkey"`
	CreatedAt int64           `json:"created_at"`
	Kind      uint16          `json:"kind"`
	Tags      [][]string      `json:"tags"`
	Content   string          `json:"content"`
}

// Handle dispatches one NIP-46 method call against id, returning the
// JSON-RPC result string (never the full envelope — callers wrap it).
func Handle(id Identity, relays []string, method string, params []string) (result string, err error) {
	switch method {
	case "get_public_key":
		if len(id.PublicKey()) == 0 {
			return "", ErrNoPublicKey
		}
		return hex.Enc(id.PublicKey()), nil
	case "sign_event":
		return signEvent(id, params)
	case "get_relays":
		b, merr := json.Marshal(relays)
		if merr != nil {
			return "", merr
		}
		return string(b), nil
	case "nip04_encrypt":
		if len(params) < 2 {
			return "", errors.New("nip04_encrypt: requires two parameters")
		}
		other, derr := hex.Dec(params[0])
		if derr != nil {
			return "", derr
		}
		return id.Nip04Encrypt(params[1], other)
	case "nip04_decrypt":
		if len(params) < 2 {
			return "", errors.New("nip04_decrypt: requires two parameters")
		}
		other, derr := hex.Dec(params[0])
		if derr != nil {
			return "", derr
		}
		return id.Nip04Decrypt(params[1], other)
	case "nip44_get_key":
		if len(params) < 1 {
			return "", errors.New("nip44_get_key: requires a parameter")
		}
		other, derr := hex.Dec(params[0])
		if derr != nil {
			return "", derr
		}
		ck, cerr := id.Nip44ConversationKey(other)
		if cerr != nil {
			return "", cerr
		}
		return hex.Enc(ck), nil
	case "nip44_encrypt":
		if len(params) < 2 {
			return "", errors.New("nip44_encrypt: requires two parameters")
		}
		other, derr := hex.Dec(params[0])
		if derr != nil {
			return "", derr
		}
		return id.Nip44Encrypt(params[1], other)
	case "nip44_decrypt":
		if len(params) < 2 {
			return "", errors.New("nip44_decrypt: requires two parameters")
		}
		other, derr := hex.Dec(params[0])
		if derr != nil {
			return "", derr
		}
		return id.Nip44Decrypt(params[1], other)
	case "ping":
		return "pong", nil
	default:
		return "", ErrUnknownMethod
	}
}

func signEvent(id Identity, params []string) (result string, err error) {
	if len(params) == 0 {
		return "", errors.New("sign_event: requires a parameter")
	}
	var pre preEvent
	if err = json.Unmarshal([]byte(params[0]), &pre); err != nil {
		return "", err
	}
	if pre.Pubkey != "" && pre.Pubkey != hex.Enc(id.PublicKey()) {
		return "", errors.New("sign_event: pubkey mismatch")
	}
	ev := event.New()
	ev.CreatedAt = pre.CreatedAt
	if ev.CreatedAt == 0 {
		ev.CreatedAt = time.Now().Unix()
	}
	ev.Kind = pre.Kind
	ev.Content = []byte(pre.Content)
	for _, t := range pre.Tags {
		nt := tag.NewWithCap(len(t))
		for _, v := range t {
			nt.T = append(nt.T, []byte(v))
		}
		*ev.Tags = append(*ev.Tags, nt)
	}
	if err = id.SignEvent(ev); err != nil {
		return "", err
	}
	return string(ev.Serialize()), nil
}

// ConnectionToken formats the "<pubkey-hex>#<secret>?relay=...&relay=..."
// token an unconnected server advertises to the user. connect_secret is
// caller-supplied since this package has no randomness source of its own.
func ConnectionToken(pubkeyHex, secret string, relays []string) string {
	parts := make([]string, 0, len(relays))
	for _, r := range relays {
		parts = append(parts, "relay="+r)
	}
	return pubkeyHex + "#" + secret + "?" + strings.Join(parts, "&")
}
