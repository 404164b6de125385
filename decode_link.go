package tracecore

import (
	"encoding/binary"

	"github.com/csssqlnet/tracecore/reader"
)

// MinTick and MaxTick bound the representable absolute-tick range (0001-01-01
// through 9999-12-31, the project's DateTime convention). A frame whose tick
// falls outside this range has an unparseable timestamp and is dropped
// before it ever reaches link decoding (§3 invariant).
const (
	MinTick int64 = 0
	MaxTick int64 = 3155378975999999999
)

const (
	etherTypeVLAN EtherType = 0x8100
	etherTypeIPv4 EtherType = 0x0800
	etherTypeIPv6 EtherType = 0x86DD
)

// EtherType is the 16-bit value following an Ethernet (or VLAN-tagged
// Ethernet) header.
type EtherType uint16

// decodeContext threads the in-progress Frame plus its raw source bytes
// through the link -> network -> transport chain without bidirectional
// pointers between the stages.
type decodeContext struct {
	trace  *Trace
	fileID FileID
	data   []byte
	frame  Frame
}

// IngestFrame runs §4.C-§4.F over one raw frame: bad-timestamp rejection,
// link decode, network decode, and (via the network decoder) conversation
// attach and transport decode. It never returns an error: every fault is
// contained per §7, logged through the Trace's diagnostic sink, and the
// frame is dropped or flagged rather than propagated.
func (t *Trace) IngestFrame(fileID FileID, raw reader.RawFrame) {
	if raw.Tick < MinTick || raw.Tick > MaxTick {
		t.dropFrame(KindBadTimestamp, "bad-timestamp", "frame %d: unparseable timestamp %d outside representable range", raw.FrameNumber, raw.Tick)
		return
	}

	ctx := &decodeContext{
		trace:  t,
		fileID: fileID,
		data:   raw.Data,
		frame: Frame{
			FrameNumber:    raw.FrameNumber,
			Tick:           raw.Tick,
			File:           fileID,
			FrameLength:    raw.FrameLength,
			CapturedLength: raw.CapturedLength,
			LinkType:       raw.LinkType,
			Conversation:   NoConversation,
		},
	}

	switch raw.LinkType {
	case reader.LinkEthernet:
		t.decodeEthernet(ctx)
	case reader.LinkWiFi:
		t.diagnoseOnce(fileID, "link:wifi", "frame %d: WiFi link type is recognized but unsupported, dropping", raw.FrameNumber)
		t.Stats.recordDrop("wifi-unsupported")
	case reader.LinkNetEvent:
		t.diagnoseOnce(fileID, "link:netevent", "frame %d: NetEvent link type is recognized but unsupported, dropping", raw.FrameNumber)
		t.Stats.recordDrop("netevent-unsupported")
	default:
		t.diagnoseOnce(fileID, "link:unsupported", "frame %d: unsupported link type %d, dropping", raw.FrameNumber, raw.LinkType)
		t.Stats.recordDrop("unsupported-link-type")
	}
}

// decodeEthernet implements §4.C: strips Ethernet + zero-or-more VLAN tags
// and dispatches on the final EtherType.
func (t *Trace) decodeEthernet(ctx *decodeContext) {
	data := ctx.data
	if len(data) < 14 {
		t.dropFrame(KindTruncatedFrame, "truncated-ethernet", "frame %d: truncated before Ethernet header", ctx.frame.FrameNumber)
		return
	}

	var dstMAC, srcMAC [6]byte
	copy(dstMAC[:], data[0:6])
	copy(srcMAC[:], data[6:12])

	offset := 12
	etherType := EtherType(binary.BigEndian.Uint16(data[offset : offset+2]))
	for etherType == etherTypeVLAN {
		offset += 4
		if offset+2 > len(data) {
			t.dropFrame(KindTruncatedFrame, "truncated-vlan", "frame %d: truncated inside VLAN tag chain", ctx.frame.FrameNumber)
			return
		}
		etherType = EtherType(binary.BigEndian.Uint16(data[offset : offset+2]))
	}
	ipOffset := offset + 2

	switch etherType {
	case etherTypeIPv4:
		t.decodeIPv4(ctx, ipOffset, srcMAC, dstMAC)
	case etherTypeIPv6:
		t.decodeIPv6(ctx, ipOffset, srcMAC, dstMAC)
	default:
		t.diagnoseOnce(ctx.fileID, "link:ethertype", "file: ignored EtherType 0x%04X", uint16(etherType))
		t.Stats.recordDrop("ignored-ethertype")
	}
}
