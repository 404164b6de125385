package tracecore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttachConversationCreatesNewOnFirstSight(t *testing.T) {
	r := require.New(t)
	tr := NewTrace(0, Options{})

	src := IPAddr{V4: 0x0A000001}
	dst := IPAddr{V4: 0x0A000002}

	id, isClient := tr.attachConversation(false, false, src, dst, 1234, 443, true, 100)
	r.True(isClient)
	r.Len(tr.Conversations, 1)

	conv := tr.conversation(id)
	r.Equal(src, conv.SrcIP)
	r.Equal(dst, conv.DstIP)
	r.EqualValues(1234, conv.SrcPort)
	r.EqualValues(443, conv.DstPort)
}

func TestAttachConversationMatchesReversedTuple(t *testing.T) {
	r := require.New(t)
	tr := NewTrace(0, Options{})

	a := IPAddr{V4: 0x0A000001}
	b := IPAddr{V4: 0x0A000002}

	firstID, _ := tr.attachConversation(false, false, a, b, 1234, 443, true, 100)
	secondID, isClient := tr.attachConversation(false, false, b, a, 443, 1234, false, 200)

	r.Equal(firstID, secondID)
	r.False(isClient)
}

func TestAttachConversationBucketIsDirectionSymmetric(t *testing.T) {
	r := require.New(t)
	tr := NewTrace(0, Options{})

	a := IPAddr{V4: 0x0A000001}
	b := IPAddr{V4: 0x0A000002}

	tr.attachConversation(false, false, a, b, 1234, 443, true, 100)
	bucketForward := uint16(1234) ^ uint16(443)
	bucketReverse := uint16(443) ^ uint16(1234)
	r.Equal(bucketForward, bucketReverse)
	r.Len(tr.index[bucketForward], 1)
}

func TestPortRolloverSplitsOnFinThenSyn(t *testing.T) {
	r := require.New(t)
	tr := NewTrace(0, Options{})

	a := IPAddr{V4: 0x0A000001}
	b := IPAddr{V4: 0x0A000002}

	id, _ := tr.attachConversation(false, false, a, b, 5000, 80, true, 0)
	tr.conversation(id).FinCount = 1

	rolledID, isClient := tr.attachConversation(false, false, a, b, 5000, 80, true, 1000)

	r.NotEqual(id, rolledID)
	r.True(isClient)
	r.Len(tr.Conversations, 2)
	r.Equal(tr.conversation(id).SrcMAC, tr.conversation(rolledID).SrcMAC)
}

func TestPortRolloverSplitsOnRstAfterGap(t *testing.T) {
	r := require.New(t)
	tr := NewTrace(0, Options{RolloverGapTicks: 20 * 10_000_000})

	a := IPAddr{V4: 0x0A000001}
	b := IPAddr{V4: 0x0A000002}

	id, _ := tr.attachConversation(false, false, a, b, 5000, 80, true, 0)
	conv := tr.conversation(id)
	conv.RstCount = 1
	conv.EndTick = 0

	withinGap, _ := tr.attachConversation(false, false, a, b, 5000, 80, true, 10*10_000_000)
	r.Equal(id, withinGap, "a SYN within the gap threshold must not split")

	pastGap, _ := tr.attachConversation(false, false, a, b, 5000, 80, true, 25*10_000_000)
	r.NotEqual(id, pastGap, "a SYN past the gap threshold must split")
}

func TestPortRolloverIgnoredForUDP(t *testing.T) {
	r := require.New(t)
	tr := NewTrace(0, Options{})

	a := IPAddr{V4: 0x0A000001}
	b := IPAddr{V4: 0x0A000002}

	id, _ := tr.attachConversation(false, true, a, b, 5000, 80, false, 0)
	tr.conversation(id).FinCount = 1

	again, _ := tr.attachConversation(false, true, a, b, 5000, 80, false, 1000)
	r.Equal(id, again)
}
