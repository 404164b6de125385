package tracecore

import "github.com/pkg/errors"

// ErrorKind classifies the per-frame and per-file faults §7 names. Every
// kind is contained: logged and the frame dropped or flagged, never
// propagated as a whole-trace abort.
type ErrorKind int

const (
	KindUnsupportedFormat ErrorKind = iota
	KindFileAccess
	KindBadTimestamp
	KindTruncatedFrame
	KindESPUnknown
	KindUnsupportedLinkType
	KindUnsupportedExtensionHeader
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "UnsupportedFormat"
	case KindFileAccess:
		return "FileAccess"
	case KindBadTimestamp:
		return "BadTimestamp"
	case KindTruncatedFrame:
		return "TruncatedFrame"
	case KindESPUnknown:
		return "ESPUnknown"
	case KindUnsupportedLinkType:
		return "UnsupportedLinkType"
	case KindUnsupportedExtensionHeader:
		return "UnsupportedExtensionHeader"
	default:
		return "Unknown"
	}
}

// DecodeError pairs an ErrorKind with the underlying cause, so a
// diagnostic line can report both the classification and the detail.
// Generalizes the teacher's flat errors.New sentinels (NotAPcapFile,
// InsufficientLength, UnexpectedEOF, IncorrectPacket) into a kind+cause
// pair.
type DecodeError struct {
	Kind  ErrorKind
	cause error
}

func (e *DecodeError) Error() string {
	if e.cause == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.cause.Error()
}

func (e *DecodeError) Unwrap() error { return e.cause }

// newError builds a DecodeError of kind whose cause is a fresh
// github.com/pkg/errors error formatted from format and args, so callers
// retain a stack-annotated cause.
func newError(kind ErrorKind, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Kind: kind, cause: errors.Errorf(format, args...)}
}

func wrapError(kind ErrorKind, cause error, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Kind: kind, cause: errors.Wrapf(cause, format, args...)}
}

// ErrIndexOutOfRange is the recoverable fault raised when decode indexes
// past the captured bytes; callers convert it into a truncation-error
// counter bump rather than propagating it, per §4.D.
var ErrIndexOutOfRange = errors.New("tracecore: index out of range")

// dropFrame classifies a per-frame fault as a DecodeError, logs it through
// the frame-dropped severity, and bumps the matching Stats counter. Every
// per-frame containment point in the link/network/transport decoders (§7)
// goes through here so the error kind and the drop reason stay in sync.
func (t *Trace) dropFrame(kind ErrorKind, reason string, format string, args ...interface{}) {
	err := newError(kind, format, args...)
	t.log().Dropf("%s", err.Error())
	t.Stats.recordDrop(reason)
}

// warnFrame is dropFrame's non-fatal sibling: the frame or header chain is
// still abandoned and counted, but cause (already known, e.g. an ESP
// trailer probe failure) is wrapped rather than freshly constructed.
func (t *Trace) warnFrame(kind ErrorKind, cause error, reason string, format string, args ...interface{}) {
	err := wrapError(kind, cause, format, args...)
	t.log().Warnf("%s", err.Error())
	t.Stats.recordDrop(reason)
}
