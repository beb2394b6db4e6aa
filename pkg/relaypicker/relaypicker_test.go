package relaypicker

import "testing"

type fakeStore struct {
	edges     map[string][]PersonRelayEdge
	relays    []string
	connected map[string]bool
}

func (f *fakeStore) GetPersonRelayEdges(pubkey string) ([]PersonRelayEdge, error) {
	return f.edges[pubkey], nil
}
func (f *fakeStore) AllRelayURLs() ([]string, error) { return f.relays, nil }
func (f *fakeStore) ConnectedRelayURLs() map[string]bool { return f.connected }

func fixedSettings() Settings {
	return Settings{
		NumRelaysPerPerson:   func() uint8 { return 2 },
		MaxRelays:            func() uint8 { return 3 },
		NumRelaysForCounting: func() uint8 { return 3 },
	}
}

// scenario 4 (spec.md §8): relay picker coverage.
func TestPickCoversFollowSet(t *testing.T) {
	fs := &fakeStore{
		edges: map[string][]PersonRelayEdge{
			"A": {{URL: "r1", Write: true}, {URL: "r2", Write: true}, {URL: "r3", Write: true}},
			"B": {{URL: "r1", Write: true}, {URL: "r4", Write: true}},
			"C": {{URL: "r2", Write: true}, {URL: "r3", Write: true}},
		},
		relays:    []string{"r1", "r2", "r3", "r4"},
		connected: map[string]bool{},
	}
	// Force exact scores from the spec's worked example rather than relying
	// on decay(): A->[r1:30,r2:20,r3:5], B->[r1:25,r4:15], C->[r2:20,r3:5].
	fs.edges = nil
	p := New(fs, fixedSettings())
	p.personRelayScores.Store("A", []scoredRelay{{"r1", 30}, {"r2", 20}, {"r3", 5}})
	p.personRelayScores.Store("B", []scoredRelay{{"r1", 25}, {"r4", 15}})
	p.personRelayScores.Store("C", []scoredRelay{{"r2", 20}, {"r3", 5}})
	p.pubkeyCounts.Store("A", 2)
	p.pubkeyCounts.Store("B", 2)
	p.pubkeyCounts.Store("C", 2)

	first, err := p.Pick()
	if err != nil {
		t.Fatal(err)
	}
	if first != "r1" {
		t.Fatalf("expected first pick r1, got %s", first)
	}

	second, err := p.Pick()
	if err != nil {
		t.Fatal(err)
	}
	if second != "r2" {
		t.Fatalf("expected second pick r2, got %s", second)
	}

	third, err := p.Pick()
	if err != nil {
		t.Fatal(err)
	}
	if third != "r4" {
		t.Fatalf("expected third pick r4, got %s", third)
	}

	if _, err = p.Pick(); err == nil {
		t.Fatal("expected no fourth pick: C's only remaining candidate r3 is unconnected at cap")
	}
}

func TestRelayDisconnectedRestoresCounts(t *testing.T) {
	fs := &fakeStore{relays: []string{"r1"}, connected: map[string]bool{}}
	p := New(fs, fixedSettings())
	p.relayAssignments.Store("r1", &RelayAssignment{RelayURL: "r1", Pubkeys: map[string]bool{"A": true}})
	p.pubkeyCounts.Store("A", 0)

	p.RelayDisconnected("r1", 30)

	if _, ok := p.relayAssignments.Load("r1"); ok {
		t.Fatal("expected assignment to be removed")
	}
	until, excluded := p.ExcludedUntil("r1")
	if !excluded || until <= 0 {
		t.Fatal("expected r1 to be excluded")
	}
	count, _ := p.pubkeyCounts.Load("A")
	if count != 1 {
		t.Fatalf("expected pubkey_counts[A] restored to 1, got %d", count)
	}
}

func TestNoPeopleLeft(t *testing.T) {
	fs := &fakeStore{relays: []string{"r1"}, connected: map[string]bool{}}
	p := New(fs, fixedSettings())
	if _, err := p.Pick(); err != ErrNoPeopleLeft {
		t.Fatalf("expected ErrNoPeopleLeft, got %v", err)
	}
}

func TestNoRelays(t *testing.T) {
	fs := &fakeStore{relays: nil, connected: map[string]bool{}}
	p := New(fs, fixedSettings())
	p.pubkeyCounts.Store("A", 1)
	if _, err := p.Pick(); err != ErrNoRelays {
		t.Fatalf("expected ErrNoRelays, got %v", err)
	}
}
