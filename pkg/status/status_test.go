package status

import "testing"

func TestPostRecordsAndReturnsMessage(t *testing.T) {
	var tick int64 = 100
	q := New(func() int64 { tick++; return tick })
	m := q.Warnf("relay r1 timed out; excluded for 60 s")
	if m.Severity != Warning {
		t.Fatalf("expected Warning, got %s", m.Severity)
	}
	recent := q.Recent()
	if len(recent) != 1 || recent[0].Text != m.Text {
		t.Fatalf("expected message in recent, got %v", recent)
	}
}

func TestSubscribeReceivesNewMessages(t *testing.T) {
	q := New(nil)
	q.Infof("posted to r1")
	history, ch, cancel := q.Subscribe()
	defer cancel()
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
	q.Errorf("boom")
	select {
	case m := <-ch:
		if m.Text != "boom" || m.Severity != Error {
			t.Fatalf("unexpected message %v", m)
		}
	default:
		t.Fatal("expected message on subscriber channel")
	}
}

func TestBufferTrimsToCap(t *testing.T) {
	q := New(nil)
	for i := 0; i < bufSize+10; i++ {
		q.Infof("x")
	}
	if len(q.Recent()) != bufSize {
		t.Fatalf("expected buffer capped at %d, got %d", bufSize, len(q.Recent()))
	}
}
