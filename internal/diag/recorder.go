package diag

import "fmt"

// Recorder is a Logger that captures every line instead of writing it,
// so tests can assert "exactly one diagnostic was logged for this dropped
// frame" the way the teacher's tests assert on parsed struct fields.
type Recorder struct {
	Infos []string
	Warns []string
	Drops []string
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Infof(format string, args ...interface{}) {
	r.Infos = append(r.Infos, fmt.Sprintf(format, args...))
}

func (r *Recorder) Warnf(format string, args ...interface{}) {
	r.Warns = append(r.Warns, fmt.Sprintf(format, args...))
}

func (r *Recorder) Dropf(format string, args ...interface{}) {
	r.Drops = append(r.Drops, fmt.Sprintf(format, args...))
}
