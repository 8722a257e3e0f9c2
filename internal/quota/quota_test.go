package quota

import "testing"

func TestUnlimited(t *testing.T) {
	q := New(Unlimited, Unlimited)

	for i := 0; i < 1000; i++ {
		if !q.TryConsume(1 << 30) {
			t.Fatalf("TryConsume() denied on iteration %d with no limits", i)
		}
		q.RecordSuccess(1 << 30)
	}
	if q.Exhausted() {
		t.Error("Exhausted() = true with no limits")
	}
	if q.String() != "files=unlimited bytes=unlimited" {
		t.Errorf("String() = %q", q.String())
	}
}

func TestFileLimit(t *testing.T) {
	q := New(2, Unlimited)

	processed := 0
	for i := 0; i < 5; i++ {
		if !q.TryConsume(100) {
			break
		}
		q.RecordSuccess(100)
		processed++
	}

	if processed != 2 {
		t.Errorf("processed = %d, want 2", processed)
	}
	if !q.Exhausted() {
		t.Error("Exhausted() = false after file budget spent")
	}
	files, bytes := q.Processed()
	if files != 2 || bytes != 200 {
		t.Errorf("Processed() = %d, %d; want 2, 200", files, bytes)
	}
}

func TestByteLimitSmallerThanFirstFile(t *testing.T) {
	q := New(Unlimited, 1000)

	if q.TryConsume(500_000) {
		t.Error("TryConsume() allowed a file larger than the byte budget")
	}
	if q.Exhausted() {
		t.Error("Exhausted() = true before anything was consumed")
	}
}

func TestByteLimitStopsAtBoundary(t *testing.T) {
	q := New(Unlimited, 250)

	sizes := []int64{100, 100, 100}
	processed := 0
	for _, size := range sizes {
		if !q.TryConsume(size) {
			break
		}
		q.RecordSuccess(size)
		processed++
	}

	if processed != 2 {
		t.Errorf("processed = %d, want 2", processed)
	}
	remaining, limited := q.RemainingBytes()
	if !limited || remaining != 50 {
		t.Errorf("RemainingBytes() = %d, %v; want 50, true", remaining, limited)
	}
}

func TestFailuresAreFree(t *testing.T) {
	q := New(1, 100)

	// Nothing recorded: a failed attempt leaves both budgets untouched.
	for i := 0; i < 3; i++ {
		if !q.TryConsume(100) {
			t.Fatalf("TryConsume() denied on attempt %d", i)
		}
	}
	remaining, _ := q.RemainingFiles()
	if remaining != 1 {
		t.Errorf("RemainingFiles() = %d, want 1", remaining)
	}
}

func TestNegativeLimitIsUnlimited(t *testing.T) {
	q := New(-1, -5)
	if _, limited := q.RemainingFiles(); limited {
		t.Error("negative file limit should be unlimited")
	}
	if _, limited := q.RemainingBytes(); limited {
		t.Error("negative byte limit should be unlimited")
	}
}

func TestSpentBudgetRefusesEmptyFile(t *testing.T) {
	tests := []struct {
		name     string
		maxFiles int64
		maxBytes int64
		first    int64
	}{
		{"byte budget spent", Unlimited, 100, 100},
		{"file budget spent", 1, Unlimited, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := New(tt.maxFiles, tt.maxBytes)
			if !q.TryConsume(tt.first) {
				t.Fatalf("TryConsume(%d) denied with a fresh budget", tt.first)
			}
			q.RecordSuccess(tt.first)
			if !q.Exhausted() {
				t.Fatal("Exhausted() = false after spending the budget")
			}
			if q.TryConsume(0) {
				t.Error("TryConsume(0) allowed after the budget reached zero")
			}
		})
	}
}
