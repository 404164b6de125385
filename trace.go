package tracecore

import (
	"github.com/csssqlnet/tracecore/internal/diag"
	"github.com/csssqlnet/tracecore/reader"
)

// Options tunes the performance heuristics and thresholds §9 calls out as
// hints rather than correctness contracts, plus the two post-processing
// backward-scan/gap thresholds §4.E/H/I fix at specific values. Zero
// values are replaced with the spec's defaults by NewTrace.
type Options struct {
	// InitialFrameBytesPerFrame and InitialConversationBytesPerConversation
	// size ArrayList-style initial capacity from total input bytes (§9):
	// 200 bytes/frame, 50000 bytes/conversation.
	InitialFrameBytesPerFrame           int
	InitialConversationBytesPerConversation int

	// RolloverGapTicks is the 20-second gap (in 100ns ticks) that, with an
	// RST already seen, triggers a port-rollover split on a new SYN (§4.E).
	RolloverGapTicks int64

	// BackCountLimit bounds the backward scan in both the retransmit and
	// continuation markers (§4.H/I): BACK_COUNT_LIMIT = 20.
	BackCountLimit int

	// Concurrency controls how many conversations the retransmit/
	// continuation fixup passes process in parallel (§5: "implementers MAY
	// parallelize §4.H and §4.I across conversations"). 1 (the default)
	// runs them serially.
	Concurrency int

	Logger diag.Logger
}

func (o *Options) setDefaults() {
	if o.InitialFrameBytesPerFrame <= 0 {
		o.InitialFrameBytesPerFrame = 200
	}
	if o.InitialConversationBytesPerConversation <= 0 {
		o.InitialConversationBytesPerConversation = 50_000
	}
	if o.RolloverGapTicks <= 0 {
		o.RolloverGapTicks = 20 * reader.TicksPerSecond
	}
	if o.BackCountLimit <= 0 {
		o.BackCountLimit = 20
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.Logger == nil {
		o.Logger = diag.Nop
	}
}

// Trace is the mutable in-memory store: three ordered sequences (frames,
// conversations, files) plus a secondary index keyed by
// srcPort XOR dstPort, direction-symmetric so a lookup works regardless of
// which direction a packet happened to be captured travelling.
type Trace struct {
	Frames        []Frame
	Conversations []Conversation
	Files         []File
	Stats         Stats

	opts Options

	// index maps srcPort^dstPort to the conversations that might match;
	// a bucket may (rarely) hold conversations whose actual ports differ
	// but collide under XOR, so lookups still compare the full tuple.
	index map[uint16][]ConversationID

	// fileDiagnosed tracks which (file, kind) diagnostics have already been
	// emitted, since several warnings in §4.C/D are "once per file".
	fileDiagnosed map[FileID]map[string]bool
}

// NewTrace constructs an empty Trace. totalInputBytes, when > 0, sizes the
// initial slice capacities per the §9 heuristic; it is a pure performance
// hint and passing 0 is always correct.
func NewTrace(totalInputBytes int64, opts Options) *Trace {
	opts.setDefaults()

	t := &Trace{
		opts:          opts,
		index:         make(map[uint16][]ConversationID),
		fileDiagnosed: make(map[FileID]map[string]bool),
	}

	if totalInputBytes > 0 {
		frameCap := int(totalInputBytes) / opts.InitialFrameBytesPerFrame
		convCap := int(totalInputBytes) / opts.InitialConversationBytesPerConversation
		if frameCap > 0 {
			t.Frames = make([]Frame, 0, frameCap)
		}
		if convCap > 0 {
			t.Conversations = make([]Conversation, 0, convCap)
		}
	}

	return t
}

func (t *Trace) log() diag.Logger { return t.opts.Logger }

// diagnoseOnce logs format via t.log().Warnf at most once per (file, key)
// pair, matching §4.C's "one diagnostic per file" policy for unsupported
// link types and ignored EtherTypes.
func (t *Trace) diagnoseOnce(file FileID, key string, format string, args ...interface{}) {
	seen, ok := t.fileDiagnosed[file]
	if !ok {
		seen = make(map[string]bool)
		t.fileDiagnosed[file] = seen
	}
	if seen[key] {
		return
	}
	seen[key] = true
	t.log().Warnf(format, args...)
}

// addFile appends f and returns its stable ID.
func (t *Trace) addFile(f File) FileID {
	t.Files = append(t.Files, f)
	return FileID(len(t.Files) - 1)
}

// conversation returns a pointer into t.Conversations for id; valid only
// until the next append to t.Conversations; callers must not hold it
// across a newConversation or maybeRollover call.
func (t *Trace) conversation(id ConversationID) *Conversation {
	return &t.Conversations[id]
}

func (t *Trace) frame(id FrameID) *Frame {
	return &t.Frames[id]
}
