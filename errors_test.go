package tracecore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/csssqlnet/tracecore/internal/diag"
)

func TestDecodeErrorFormatsKindAndCause(t *testing.T) {
	r := require.New(t)
	err := newError(KindTruncatedFrame, "frame %d truncated", 7)
	r.Equal("TruncatedFrame: frame 7 truncated", err.Error())
}

func TestDropFrameLogsAndCountsStats(t *testing.T) {
	r := require.New(t)
	rec := diag.NewRecorder()
	tr := NewTrace(0, Options{Logger: rec})

	tr.dropFrame(KindBadTimestamp, "bad-timestamp", "frame %d bad", 1)

	r.Len(rec.Drops, 1)
	r.Equal(1, tr.Stats.FramesDropped["bad-timestamp"])
}

func TestWarnFrameWrapsCause(t *testing.T) {
	r := require.New(t)
	rec := diag.NewRecorder()
	tr := NewTrace(0, Options{Logger: rec})

	tr.warnFrame(KindESPUnknown, errESPUnknown, "esp-unknown", "frame %d", 1)

	r.Len(rec.Warns, 1)
	r.Equal(1, tr.Stats.FramesDropped["esp-unknown"])
}

func TestErrorKindStringCoversAllKinds(t *testing.T) {
	r := require.New(t)
	kinds := []ErrorKind{
		KindUnsupportedFormat, KindFileAccess, KindBadTimestamp,
		KindTruncatedFrame, KindESPUnknown, KindUnsupportedLinkType,
		KindUnsupportedExtensionHeader,
	}
	for _, k := range kinds {
		r.NotEqual("Unknown", k.String())
	}
}
