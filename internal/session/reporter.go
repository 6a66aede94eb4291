package session

// Severity classifies a progress message.
type Severity int

const (
	Info Severity = iota
	Success
	Error
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Reporter receives human-readable progress.
type Reporter interface {
	Report(msg string, sev Severity)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(msg string, sev Severity)

// Report calls f(msg, sev).
func (f ReporterFunc) Report(msg string, sev Severity) { f(msg, sev) }

type discard struct{}

func (discard) Report(string, Severity) {}
