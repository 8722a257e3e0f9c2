package runner

// State is a step of the run state machine.
type State int

const (
	StateNotStarted State = iota
	StateAcquiringLock
	StateLockHeld
	StateLockContended
	StateScanning
	StateFiltering
	StateProcessing
	StateShuttingDown
	StateTerminated
)

var stateNames = [...]string{
	StateNotStarted:    "not_started",
	StateAcquiringLock: "acquiring_lock",
	StateLockHeld:      "lock_held",
	StateLockContended: "lock_contended",
	StateScanning:      "scanning",
	StateFiltering:     "filtering",
	StateProcessing:    "processing",
	StateShuttingDown:  "shutting_down",
	StateTerminated:    "terminated",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}
