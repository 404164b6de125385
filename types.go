/*
Package tracecore is the packet-capture ingestion and
conversation-reconstruction engine of a SQL network-trace analyzer. Given
one or more capture files produced by heterogeneous tools, it reads raw
frames, decodes link/network/transport headers, groups frames into TCP/UDP
conversations, extracts TCP payloads (optionally unwrapping an SMP
multiplexing shim), and runs post-processing passes that correct inverted
conversation direction, mark retransmitted TCP segments, and mark
continuation segments of a logical message.

The concrete capture-file readers live in the sibling reader package and
are treated as external collaborators: this package consumes whatever they
yield through the reader.FrameReader interface.
*/
package tracecore

import (
	"time"

	"github.com/csssqlnet/tracecore/reader"
)

// FrameID, ConversationID, and FileID are stable arena indices into a
// Trace's slices, used instead of bidirectional pointers to avoid the
// cyclic frame<->conversation ownership called out in §9 Design Notes.
type FrameID int
type ConversationID int
type FileID int

// NoConversation is the sentinel (-1) meaning "not yet attached".
const NoConversation ConversationID = -1

// IPAddr holds either a 32-bit IPv4 address or a 128-bit IPv6 address
// split into two 64-bit halves, per §3's storage convention.
type IPAddr struct {
	IsIPv6 bool
	V4     uint32
	V6Hi   uint64
	V6Lo   uint64
}

// Equal reports whether two addresses carry the same bits and IP version.
func (a IPAddr) Equal(b IPAddr) bool {
	if a.IsIPv6 != b.IsIPv6 {
		return false
	}
	if a.IsIPv6 {
		return a.V6Hi == b.V6Hi && a.V6Lo == b.V6Lo
	}
	return a.V4 == b.V4
}

// TCP flag bits, matching the single flags byte at TCP offset 13.
const (
	TCPFlagFIN uint8 = 1 << 0
	TCPFlagSYN uint8 = 1 << 1
	TCPFlagRST uint8 = 1 << 2
	TCPFlagPSH uint8 = 1 << 3
	TCPFlagACK uint8 = 1 << 4
	TCPFlagURG uint8 = 1 << 5
	TCPFlagECE uint8 = 1 << 6
	TCPFlagCWR uint8 = 1 << 7
)

// HasFlag reports whether flags carries every bit in mask.
func HasFlag(flags, mask uint8) bool { return flags&mask == mask }

// Frame is one decoded packet.
type Frame struct {
	FrameNumber    uint32
	ArrivalOrder   int
	Tick           int64
	File           FileID
	FrameLength    uint32
	CapturedLength uint32
	LastByteOffset int
	LinkType       reader.LinkType

	IsFromClient bool

	Seq   uint32
	Ack   uint32
	Flags uint8
	Window uint16

	HasSMPSession bool
	SMPSession    uint16

	Payload []byte

	IsUDP         bool
	IsRetransmit  bool
	IsContinuation bool

	Conversation ConversationID
}

// Conversation is the set of frames sharing a directional 5-tuple.
type Conversation struct {
	SrcIP, DstIP     IPAddr
	SrcPort, DstPort uint16
	IsIPv6           bool
	IsUDP            bool
	IsMarsEnabled    bool
	NextProtocol     uint8

	StartTick int64
	EndTick   int64

	SourceFrames int
	DestFrames   int
	TotalBytes   uint64

	SynCount   int
	AckCount   int
	FinCount   int
	RstCount   int
	PushCount  int
	Keepalives int

	RawRetransmits int
	SigRetransmits int

	TruncationErrorCount int

	FirstFinTick int64
	FirstRstTick int64

	SrcMAC, DstMAC [6]byte

	// TruncatedFrameLength is 0 until the conversation sees its first
	// truncated frame, per §3.
	TruncatedFrameLength uint32

	Frames []FrameID
}

// File is one ingested capture file.
type File struct {
	Path       string
	ModTime    time.Time
	Size       int64
	FirstTick  int64
	LastTick   int64
	FrameCount int
	Format     reader.Format
}

// Stats is additive bookkeeping populated during ingest; never consulted
// by decode logic itself, purely for reporting.
type Stats struct {
	FilesIngested int
	FilesFailed   int
	FramesDropped map[string]int // reason -> count
}

func (s *Stats) recordDrop(reason string) {
	if s.FramesDropped == nil {
		s.FramesDropped = make(map[string]int)
	}
	s.FramesDropped[reason]++
}
