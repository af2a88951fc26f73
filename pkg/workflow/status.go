package workflow

// Status is the workflow state of a session.
type Status string

const (
	StatusIdle                 Status = "idle"
	StatusAnalyzing            Status = "analyzing"
	StatusAwaitingConfirmation Status = "awaitingConfirmation"
	StatusProcessing           Status = "processing"
	StatusCompleted            Status = "completed"
	StatusError                Status = "error"
)

// String returns the status name.
func (s Status) String() string {
	return string(s)
}

// Busy reports whether the status has a backend call in flight.
func (s Status) Busy() bool {
	return s == StatusAnalyzing || s == StatusProcessing
}

// Operation names a long-running backend call.
type Operation string

const (
	OpAnalyze  Operation = "analyze"
	OpProcess  Operation = "process"
	OpDownload Operation = "download"
)

// Ticket identifies one in-flight operation. A completion is applied only if
// its ticket is still the latest one issued.
type Ticket struct {
	Operation Operation `json:"operation"`
	Sequence  uint64    `json:"sequence"`
}

// TransitionHook is called after every status change.
type TransitionHook func(from, to Status)
