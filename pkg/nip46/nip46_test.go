package nip46

import (
	"encoding/json"
	"testing"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/hex"
)

type fakeIdentity struct {
	pk []byte
}

func (f *fakeIdentity) PublicKey() []byte { return f.pk }
func (f *fakeIdentity) SignEvent(pre *event.E) error {
	pre.Pubkey = f.pk
	pre.ID = []byte("fakeid")
	pre.Sig = []byte("fakesig")
	return nil
}
func (f *fakeIdentity) Nip04Encrypt(pt string, other []byte) (string, error) { return "enc:" + pt, nil }
func (f *fakeIdentity) Nip04Decrypt(ct string, other []byte) (string, error) { return "dec:" + ct, nil }
func (f *fakeIdentity) Nip44ConversationKey(other []byte) ([]byte, error)    { return []byte("key"), nil }
func (f *fakeIdentity) Nip44Encrypt(pt string, other []byte) (string, error) { return "enc44:" + pt, nil }
func (f *fakeIdentity) Nip44Decrypt(ct string, other []byte) (string, error) { return "dec44:" + ct, nil }

func TestParseConnectString(t *testing.T) {
	keyHex := hex.Enc(make([]byte, 32))
	input := "nostrconnect://" + keyHex + "?relay=wss://relay.example&metadata=" + `{"name":"app","url":"https://app","description":"d"}`
	s, err := ParseConnectString(input)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Relays) != 1 || s.Relays[0] != "wss://relay.example" {
		t.Fatalf("expected one relay parsed, got %v", s.Relays)
	}
	if s.Metadata == nil || s.Metadata.Name != "app" {
		t.Fatalf("expected metadata parsed, got %v", s.Metadata)
	}
}

func TestParseConnectStringRejectsBadPrefix(t *testing.T) {
	if _, err := ParseConnectString("nostr://bad"); err != ErrBadConnectString {
		t.Fatalf("expected ErrBadConnectString, got %v", err)
	}
}

func TestHandleGetPublicKey(t *testing.T) {
	id := &fakeIdentity{pk: []byte("0123456789abcdef0123456789abcdef")}
	res, err := Handle(id, nil, "get_public_key", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res != hex.Enc(id.pk) {
		t.Fatalf("expected hex pubkey, got %q", res)
	}
}

func TestHandleSignEvent(t *testing.T) {
	id := &fakeIdentity{pk: []byte("pk")}
	pre := preEvent{Kind: 1, Content: "hello", Tags: [][]string{{"p", "abc"}}}
	b, _ := json.Marshal(pre)
	res, err := Handle(id, nil, "sign_event", []string{string(b)})
	if err != nil {
		t.Fatal(err)
	}
	if res == "" {
		t.Fatal("expected a serialized signed event")
	}
}

func TestHandleUnknownMethod(t *testing.T) {
	id := &fakeIdentity{pk: []byte("pk")}
	if _, err := Handle(id, nil, "nonsense", nil); err != ErrUnknownMethod {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
}

func TestConnectionToken(t *testing.T) {
	tok := ConnectionToken("abc", "secret", []string{"wss://r1", "wss://r2"})
	want := "abc#secret?relay=wss://r1&relay=wss://r2"
	if tok != want {
		t.Fatalf("expected %q, got %q", want, tok)
	}
}
