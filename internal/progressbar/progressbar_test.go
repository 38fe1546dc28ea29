package progressbar

import "testing"

func TestBarTicksAndCancel(t *testing.T) {
	b := New("test", 10)
	defer b.Finish()

	if b.Cancelled() {
		t.Fatal("new bar should not start cancelled")
	}
	for i := 0; i < 5; i++ {
		b.Tick()
	}
	if got := b.processed.Load(); got != 5 {
		t.Fatalf("processed = %d, want 5", got)
	}

	b.Cancel()
	if !b.Cancelled() {
		t.Fatal("expected Cancelled() to report true after Cancel()")
	}
}
