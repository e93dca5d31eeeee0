package model

// BatchState represents the lifecycle of a download batch.
type BatchState string

const (
	// BatchIdle means no batch has been started or the last one finished
	// and its result was consumed.
	BatchIdle BatchState = "Idle"

	// BatchRunning means a batch worker is processing items.
	BatchRunning BatchState = "Running"

	// BatchCompleted means the batch processed every selected item.
	BatchCompleted BatchState = "Completed"

	// BatchCancelled means the cancellation flag was observed before the
	// batch ran out of items.
	BatchCancelled BatchState = "Cancelled"
)

// String returns the string representation of BatchState
func (bs BatchState) String() string {
	return string(bs)
}

// IsActive returns true while a batch worker is running.
func (bs BatchState) IsActive() bool {
	return bs == BatchRunning
}

// IsFinished returns true once a batch reached a terminal state.
func (bs BatchState) IsFinished() bool {
	return bs == BatchCompleted || bs == BatchCancelled
}
