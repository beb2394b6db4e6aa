package authenvelope

import (
	"bufio"
	"bytes"
	"testing"

	"lol.mleku.dev/chk"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/envelopes"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/event/examples"
	"github.com/mikedilger/gossip-sub003/pkg/utils"
	"github.com/mikedilger/gossip-sub003/pkg/utils/bufpool"
)

func TestChallenge(t *testing.T) {
	c, rem, out := bufpool.Get(), bufpool.Get(), bufpool.Get()
	ch := NewChallengeFrom("abcdef0123456789")
	rem = ch.Marshal(rem[:0])
	c = append(c, rem...)
	var err error
	var l string
	if l, rem, err = envelopes.Identify(rem); chk.E(err) {
		t.Fatal(err)
	}
	if l != L {
		t.Fatalf("invalid sentinel %s, expect %s", l, L)
	}
	ch2 := NewChallenge()
	if rem, err = ch2.Unmarshal(rem); chk.E(err) {
		t.Fatal(err)
	}
	if len(rem) != 0 {
		t.Fatalf("some of input remaining after marshal/unmarshal: '%s'", rem)
	}
	out = ch2.Marshal(out)
	if !utils.FastEqual(out, c) {
		t.Fatalf("mismatched output\n%s\n\n%s\n", c, out)
	}
	bufpool.Put(c)
	bufpool.Put(rem)
	bufpool.Put(out)
}

func TestResponse(t *testing.T) {
	scanner := bufio.NewScanner(bytes.NewBuffer(examples.Cache))
	var err error
	for scanner.Scan() {
		c, rem, out := bufpool.Get(), bufpool.Get(), bufpool.Get()
		b := scanner.Bytes()
		ev := event.New()
		if _, err = ev.Unmarshal(b); chk.E(err) {
			t.Fatal(err)
		}
		rem = rem[:0]
		res := NewResponseWith(ev)
		rem = res.Marshal(rem)
		c = append(c, rem...)
		var l string
		if l, rem, err = envelopes.Identify(rem); chk.E(err) {
			t.Fatal(err)
		}
		if l != L {
			t.Fatalf("invalid sentinel %s, expect %s", l, L)
		}
		if rem, err = res.Unmarshal(rem); chk.E(err) {
			t.Fatal(err)
		}
		if len(rem) != 0 {
			t.Fatalf(
				"some of input remaining after marshal/unmarshal: '%s'",
				rem,
			)
		}
		out = res.Marshal(out)
		if !utils.FastEqual(out, c) {
			t.Fatalf("mismatched output\n%s\n\n%s\n", c, out)
		}
		ev.Free()
		bufpool.Put(c)
		bufpool.Put(rem)
		bufpool.Put(out)
	}
}
