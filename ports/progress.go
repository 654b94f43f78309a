package ports

// ProgressSink receives fractional progress and free-text status updates
// from a running phase. Implementations must tolerate concurrent calls:
// the detail phase invokes the sink from multiple workers when configured
// with more than one.
type ProgressSink interface {
	// Progress reports completion in [0.0, 1.0] for the current phase.
	Progress(fraction float64)

	// Status reports a human-readable line, including warnings about
	// skipped records or early stops.
	Status(message string)
}

type nopProgress struct{}

func (nopProgress) Progress(float64) {}
func (nopProgress) Status(string)    {}

// NopProgress discards all updates.
var NopProgress ProgressSink = nopProgress{}

// ProgressFuncs adapts plain functions to a ProgressSink. Nil functions
// are skipped.
type ProgressFuncs struct {
	OnProgress func(fraction float64)
	OnStatus   func(message string)
}

func (p ProgressFuncs) Progress(fraction float64) {
	if p.OnProgress != nil {
		p.OnProgress(fraction)
	}
}

func (p ProgressFuncs) Status(message string) {
	if p.OnStatus != nil {
		p.OnStatus(message)
	}
}
