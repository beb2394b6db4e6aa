package minion

import "testing"

func TestSynthesizeInboxSubstitutesAuthorsWhenUnsafe(t *testing.T) {
	job := Job{
		Variant:    VariantInboxFeedFuture,
		Pubkeys:    [][]byte{[]byte("alice")},
		Subscribed: [][]byte{[]byte("bob"), []byte("carol")},
	}
	req := Synthesize(job, false, true)
	if len(req.Filters) != 1 {
		t.Fatalf("expected one filter, got %d", len(req.Filters))
	}
	f := req.Filters[0]
	if f.Authors == nil || f.Authors.Len() != 2 {
		t.Fatalf("expected spam-safety substitution to constrain authors to the subscribed set, got %v", f.Authors)
	}
}

func TestSynthesizeInboxLeavesAuthorsOpenWhenSafe(t *testing.T) {
	job := Job{
		Variant:    VariantInboxFeedFuture,
		Pubkeys:    [][]byte{[]byte("alice")},
		Subscribed: [][]byte{[]byte("bob")},
	}
	req := Synthesize(job, true, true)
	f := req.Filters[0]
	if f.Authors != nil {
		t.Fatal("expected no authors constraint on a spam-safe relay")
	}
}

func TestSynthesizeHandlesDuplicateChunks(t *testing.T) {
	req1 := Synthesize(Job{Variant: VariantGeneralFeedChunk, JobID: "job1"}, true, true)
	req2 := Synthesize(Job{Variant: VariantGeneralFeedChunk, JobID: "job2"}, true, true)
	if req1.Handle == req2.Handle {
		t.Fatalf("expected distinct handles for distinct chunk jobs, got %q twice", req1.Handle)
	}
	if !req1.Temporary {
		t.Fatal("expected a chunked feed request to close on EOSE")
	}
}

func TestSynthesizeConfigIsNotTemporary(t *testing.T) {
	req := Synthesize(Job{Variant: VariantConfig, Own: []byte("me")}, true, true)
	if req.Temporary {
		t.Fatal("expected the config subscription to stay open across EOSE")
	}
}
