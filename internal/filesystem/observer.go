package filesystem

// Observer records filesystem operation metrics. The metrics package
// provides the implementation, keeping this package free of Prometheus.
type Observer interface {
	// ObserveOperation records duration and error status for one call.
	// operation is "stat", "open" or "exists".
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	ObserveRetryAttempt(op, volume string)
	ObserveRetrySuccess(op, volume string)
	ObserveRetryFailure(op, volume string)
	ObserveStaleError(op, volume string)
}

var defaultObserver Observer

// SetObserver sets the package-level metrics observer. Call it once at
// startup.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observe() Observer {
	return defaultObserver
}
