package tracecore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFixupAllProducesSameResultsUnderConcurrency exercises §5's "MAY
// parallelize §4.H and §4.I across conversations" allowance: the same
// trace fixed up serially and with Concurrency > 1 must agree on every
// retransmit/continuation flag and counter.
func TestFixupAllProducesSameResultsUnderConcurrency(t *testing.T) {
	r := require.New(t)

	build := func(opts Options) *Trace {
		tr := NewTrace(0, opts)
		a := IPAddr{V4: 0x0A000001}
		b := IPAddr{V4: 0x0A000002}

		for c := 0; c < 10; c++ {
			convID := newTestConversation(tr, a, b, uint16(5000+c), 443)
			payload := make([]byte, 64)
			appendConvFrame(tr, convID, Frame{IsFromClient: true, Seq: 1000, Ack: 1, Payload: payload})
			appendConvFrame(tr, convID, Frame{IsFromClient: true, Seq: 1000, Ack: 1, Payload: payload})
			appendConvFrame(tr, convID, Frame{IsFromClient: true, Seq: 1064, Ack: 1, Payload: payload})
		}
		return tr
	}

	serial := build(Options{Concurrency: 1})
	serial.fixupRetransmit()
	serial.fixupContinuation()

	parallel := build(Options{Concurrency: 4})
	parallel.fixupRetransmit()
	parallel.fixupContinuation()

	r.Equal(len(serial.Conversations), len(parallel.Conversations))
	for i := range serial.Conversations {
		sc, pc := &serial.Conversations[i], &parallel.Conversations[i]
		r.Equal(sc.RawRetransmits, pc.RawRetransmits)
		r.Equal(sc.SigRetransmits, pc.SigRetransmits)
	}
	for i := range serial.Frames {
		r.Equal(serial.Frames[i].IsRetransmit, parallel.Frames[i].IsRetransmit)
		r.Equal(serial.Frames[i].IsContinuation, parallel.Frames[i].IsContinuation)
	}
}
