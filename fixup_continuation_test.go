package tracecore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixupContinuationMarksFollowingSameAckFrames(t *testing.T) {
	r := require.New(t)
	tr := NewTrace(0, Options{})

	a := IPAddr{V4: 0x0A000001}
	b := IPAddr{V4: 0x0A000002}
	convID := newTestConversation(tr, a, b, 1234, 443)

	payload := make([]byte, 512)
	f1 := appendConvFrame(tr, convID, Frame{IsFromClient: true, Ack: 500, Seq: 1000, Payload: payload})
	f2 := appendConvFrame(tr, convID, Frame{IsFromClient: true, Ack: 500, Seq: 1512, Payload: payload})
	f3 := appendConvFrame(tr, convID, Frame{IsFromClient: true, Ack: 500, Seq: 2024, Payload: payload})

	tr.fixupRetransmit()
	tr.fixupContinuation()

	r.False(tr.frame(f1).IsContinuation)
	r.True(tr.frame(f2).IsContinuation)
	r.True(tr.frame(f3).IsContinuation)
}

func TestFixupContinuationStopsAtPush(t *testing.T) {
	r := require.New(t)
	tr := NewTrace(0, Options{})

	a := IPAddr{V4: 0x0A000001}
	b := IPAddr{V4: 0x0A000002}
	convID := newTestConversation(tr, a, b, 1234, 443)

	payload := make([]byte, 100)
	appendConvFrame(tr, convID, Frame{IsFromClient: true, Ack: 500, Flags: TCPFlagPSH, Payload: payload})
	f2 := appendConvFrame(tr, convID, Frame{IsFromClient: true, Ack: 500, Payload: payload})

	tr.fixupRetransmit()
	tr.fixupContinuation()

	r.False(tr.frame(f2).IsContinuation, "a PUSH predecessor bounds the message and aborts the scan")
}

func TestFixupContinuationIgnoresRetransmittedPredecessor(t *testing.T) {
	r := require.New(t)
	tr := NewTrace(0, Options{})

	a := IPAddr{V4: 0x0A000001}
	b := IPAddr{V4: 0x0A000002}
	convID := newTestConversation(tr, a, b, 1234, 443)

	payload := make([]byte, 100)
	appendConvFrame(tr, convID, Frame{IsFromClient: true, Ack: 400, Seq: 1000, Payload: payload})
	// identical seq -> retransmit of frame 1, not a valid continuation source
	appendConvFrame(tr, convID, Frame{IsFromClient: true, Ack: 500, Seq: 1000, Payload: payload})
	f3 := appendConvFrame(tr, convID, Frame{IsFromClient: true, Ack: 500, Seq: 2000, Payload: payload})

	tr.fixupRetransmit()
	tr.fixupContinuation()

	r.False(tr.frame(f3).IsContinuation, "the only same-ack predecessor is a retransmit, which is not a valid continuation source")
}

func TestFixupContinuationSkipsUDP(t *testing.T) {
	r := require.New(t)
	tr := NewTrace(0, Options{})

	a := IPAddr{V4: 0x0A000001}
	b := IPAddr{V4: 0x0A000002}
	convID := tr.newConversation(false, true, a, b, 1234, 443, 0)
	tr.conversation(convID).IsUDP = true

	fid := appendConvFrame(tr, convID, Frame{IsFromClient: true, Payload: []byte{1, 2, 3}})

	tr.fixupContinuation()

	r.False(tr.frame(fid).IsContinuation)
}
