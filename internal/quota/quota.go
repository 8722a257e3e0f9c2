package quota

import "fmt"

// Unlimited disables a budget when passed to New.
const Unlimited int64 = 0

type budget struct {
	limited   bool
	remaining int64
}

func newBudget(limit int64) budget {
	if limit <= 0 {
		return budget{}
	}
	return budget{limited: true, remaining: limit}
}

func (b budget) allows(amount int64) bool {
	return !b.limited || b.remaining >= amount
}

func (b *budget) consume(amount int64) {
	if b.limited {
		b.remaining -= amount
	}
}

func (b budget) String() string {
	if !b.limited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", b.remaining)
}

// Tracker holds the two run budgets. Both are decremented only by
// RecordSuccess; a failed thumbnail costs nothing.
type Tracker struct {
	files budget
	bytes budget

	processed      int64
	processedBytes int64
}

// New returns a tracker allowing maxFiles thumbnails and maxBytes of source
// data per run. A limit of zero or less is unlimited.
func New(maxFiles, maxBytes int64) *Tracker {
	return &Tracker{
		files: newBudget(maxFiles),
		bytes: newBudget(maxBytes),
	}
}

// TryConsume reports whether a source file of size bytes may be processed
// without exceeding either budget. Once a budget is spent nothing more is
// admitted, not even an empty file. It does not change the budgets.
func (t *Tracker) TryConsume(size int64) bool {
	return !t.Exhausted() && t.files.allows(1) && t.bytes.allows(size)
}

// RecordSuccess charges one file and size source bytes.
func (t *Tracker) RecordSuccess(size int64) {
	t.files.consume(1)
	t.bytes.consume(size)
	t.processed++
	t.processedBytes += size
}

// Exhausted reports whether a budget has reached zero or gone negative.
func (t *Tracker) Exhausted() bool {
	return (t.files.limited && t.files.remaining <= 0) ||
		(t.bytes.limited && t.bytes.remaining <= 0)
}

// Processed returns the number of files and source bytes recorded so far.
func (t *Tracker) Processed() (files, bytes int64) {
	return t.processed, t.processedBytes
}

// RemainingFiles returns the remaining file budget and whether it is limited.
func (t *Tracker) RemainingFiles() (int64, bool) {
	return t.files.remaining, t.files.limited
}

// RemainingBytes returns the remaining byte budget and whether it is limited.
func (t *Tracker) RemainingBytes() (int64, bool) {
	return t.bytes.remaining, t.bytes.limited
}

func (t *Tracker) String() string {
	return fmt.Sprintf("files=%s bytes=%s", t.files, t.bytes)
}
