package runstate

import "testing"

func TestNewStartsInStarting(t *testing.T) {
	r := New()
	if r.Get() != Starting {
		t.Fatalf("expected Starting, got %s", r.Get())
	}
	if r.ShuttingDown() {
		t.Fatal("expected not shutting down")
	}
}

func TestSetWakesWatchers(t *testing.T) {
	r := New()
	done := make(chan State, 1)
	w := r.Watch()
	go func() {
		<-w
		done <- r.Get()
	}()
	r.Set(Online)
	if got := <-done; got != Online {
		t.Fatalf("expected Online, got %s", got)
	}
}

func TestShuttingDownTransition(t *testing.T) {
	r := New()
	r.Set(Online)
	r.Set(ShuttingDown)
	if !r.ShuttingDown() {
		t.Fatal("expected ShuttingDown")
	}
}
