package tracecore

import "encoding/binary"

// smpMarkerByte is the first byte of an SMP (Session Multiplexing
// Protocol) shim header, per §4.F.
const smpMarkerByte = 0x53

// smpHeaderLength is the total size of the SMP shim consumed once detected
// (the marker byte plus the remaining 15 bytes of fixed header).
const smpHeaderLength = 16

// decodeTransport dispatches to the TCP or UDP decoder (§4.F).
func (t *Trace) decodeTransport(ctx *decodeContext, proto uint8, offset, lastByteOffset int, isIPv6 bool, srcIP, dstIP IPAddr, srcMAC, dstMAC [6]byte) {
	if proto == ipProtoTCP {
		t.decodeTCP(ctx, offset, lastByteOffset, isIPv6, srcIP, dstIP, srcMAC, dstMAC)
		return
	}
	t.decodeUDP(ctx, offset, lastByteOffset, isIPv6, srcIP, dstIP, srcMAC, dstMAC)
}

func (t *Trace) decodeTCP(ctx *decodeContext, offset, lastByteOffset int, isIPv6 bool, srcIP, dstIP IPAddr, srcMAC, dstMAC [6]byte) {
	data := ctx.data
	if offset+20 > len(data) {
		t.dropFrame(KindTruncatedFrame, "truncated-tcp", "frame %d: truncated before TCP header", ctx.frame.FrameNumber)
		return
	}

	srcPort := binary.BigEndian.Uint16(data[offset : offset+2])
	dstPort := binary.BigEndian.Uint16(data[offset+2 : offset+4])
	seq := binary.BigEndian.Uint32(data[offset+4 : offset+8])
	ack := binary.BigEndian.Uint32(data[offset+8 : offset+12])
	headerLen := int(data[offset+12]>>4) * 4
	flags := data[offset+13]
	window := binary.BigEndian.Uint16(data[offset+14 : offset+16])

	convID, isFromClient := t.attachConversation(isIPv6, false, srcIP, dstIP, srcPort, dstPort, HasFlag(flags, TCPFlagSYN), ctx.frame.Tick)
	conv := t.conversation(convID)

	payloadStart := offset + headerLen
	payloadLen := lastByteOffset - payloadStart + 1

	hasSMP := false
	var smpSession uint16
	if payloadLen >= smpHeaderLength && payloadStart >= 0 && payloadStart < len(data) && data[payloadStart] == smpMarkerByte {
		hasSMP = true
		conv.IsMarsEnabled = true
		if payloadStart+4 <= len(data) {
			smpSession = binary.LittleEndian.Uint16(data[payloadStart+2 : payloadStart+4])
		}
		payloadStart += smpHeaderLength
	}

	if lastByteOffset >= len(data) {
		// Caught per §4.D's IndexOutOfRange rule: the frame is not
		// dropped, just flagged and clamped, so this only logs and
		// bumps the conversation's counters rather than going through
		// dropFrame/warnFrame and Stats.FramesDropped.
		t.log().Warnf("%s", wrapError(KindTruncatedFrame, ErrIndexOutOfRange, "frame %d: tcp payload extends past captured bytes", ctx.frame.FrameNumber).Error())
		conv.TruncationErrorCount++
		if conv.TruncatedFrameLength == 0 {
			conv.TruncatedFrameLength = ctx.frame.FrameLength
		}
		lastByteOffset = len(data) - 1
	}
	payloadLen = lastByteOffset - payloadStart + 1

	var payload []byte
	if payloadLen > 0 && payloadStart >= 0 && payloadStart < len(data) {
		end := payloadStart + payloadLen
		if end > len(data) {
			end = len(data)
		}
		payload = append([]byte(nil), data[payloadStart:end]...)
	}

	ctx.frame.Seq = seq
	ctx.frame.Ack = ack
	ctx.frame.Flags = flags
	ctx.frame.Window = window
	ctx.frame.IsFromClient = isFromClient
	ctx.frame.HasSMPSession = hasSMP
	ctx.frame.SMPSession = smpSession
	ctx.frame.Payload = payload
	ctx.frame.LastByteOffset = lastByteOffset
	ctx.frame.Conversation = convID

	frameID := t.appendFrame(ctx.frame)
	t.attachFrameToConversation(convID, frameID, isFromClient, srcMAC, dstMAC, ctx.frame.Tick, len(payload))

	t.applyTCPCounters(conv, flags, len(payload), ctx.frame.Tick)
}

// applyTCPCounters implements the conversation counter updates in §4.F:
// per-flag counts, first-FIN/first-RST ticks, and keepalive detection.
func (t *Trace) applyTCPCounters(conv *Conversation, flags uint8, payloadLen int, tick int64) {
	if HasFlag(flags, TCPFlagSYN) {
		conv.SynCount++
	}
	if HasFlag(flags, TCPFlagACK) {
		conv.AckCount++
	}
	if HasFlag(flags, TCPFlagFIN) {
		conv.FinCount++
		if conv.FirstFinTick == 0 {
			conv.FirstFinTick = tick
		}
	}
	if HasFlag(flags, TCPFlagRST) {
		conv.RstCount++
		if conv.FirstRstTick == 0 {
			conv.FirstRstTick = tick
		}
	}
	if HasFlag(flags, TCPFlagPSH) {
		conv.PushCount++
	}

	isKeepalive := payloadLen == 1 &&
		HasFlag(flags, TCPFlagACK) &&
		flags&(TCPFlagFIN|TCPFlagSYN|TCPFlagRST|TCPFlagPSH) == 0
	if isKeepalive {
		conv.Keepalives++
	}
}

func (t *Trace) decodeUDP(ctx *decodeContext, offset, lastByteOffset int, isIPv6 bool, srcIP, dstIP IPAddr, srcMAC, dstMAC [6]byte) {
	data := ctx.data
	if offset+8 > len(data) {
		t.dropFrame(KindTruncatedFrame, "truncated-udp", "frame %d: truncated before UDP header", ctx.frame.FrameNumber)
		return
	}

	srcPort := binary.BigEndian.Uint16(data[offset : offset+2])
	dstPort := binary.BigEndian.Uint16(data[offset+2 : offset+4])

	convID, isFromClient := t.attachConversation(isIPv6, true, srcIP, dstIP, srcPort, dstPort, false, ctx.frame.Tick)
	conv := t.conversation(convID)
	conv.IsUDP = true

	if lastByteOffset >= len(data) {
		lastByteOffset = len(data) - 1
	}
	payloadStart := offset + 8
	payloadLen := lastByteOffset - payloadStart + 1

	var payload []byte
	if payloadLen > 0 && payloadStart < len(data) {
		end := payloadStart + payloadLen
		if end > len(data) {
			end = len(data)
		}
		payload = append([]byte(nil), data[payloadStart:end]...)
	}

	ctx.frame.IsFromClient = isFromClient
	ctx.frame.IsUDP = true
	ctx.frame.Payload = payload
	ctx.frame.LastByteOffset = lastByteOffset
	ctx.frame.Conversation = convID

	frameID := t.appendFrame(ctx.frame)
	t.attachFrameToConversation(convID, frameID, isFromClient, srcMAC, dstMAC, ctx.frame.Tick, len(payload))
}
