package tracecore

import "encoding/binary"

const (
	ipProtoIPv6     uint8 = 41
	ipProtoESP      uint8 = 50
	ipProtoAH       uint8 = 51
	ipProtoTCP      uint8 = 6
	ipProtoUDP      uint8 = 17
)

// ignoredIPv6ExtensionHeaders are the extension-header next-header values
// §4.D recognizes but does not walk: Hop-by-Hop (0), Routing (43),
// Fragment (44), Destination Options (60), Mobility (135). AH (51) is not
// in the set: decodeIPv6's AH branch unwraps it before this set is
// consulted.
var ignoredIPv6ExtensionHeaders = map[uint8]bool{
	0:   true,
	43:  true,
	44:  true,
	60:  true,
	135: true,
}

// decodeIPv4 implements §4.D's IPv4 branch.
func (t *Trace) decodeIPv4(ctx *decodeContext, offset int, srcMAC, dstMAC [6]byte) {
	data := ctx.data
	if offset+20 > len(data) {
		t.dropFrame(KindTruncatedFrame, "truncated-ipv4", "frame %d: truncated before IPv4 header", ctx.frame.FrameNumber)
		return
	}

	headerLen := int(data[offset]&0x0F) * 4
	totalLength := int(binary.BigEndian.Uint16(data[offset+2 : offset+4]))
	proto := data[offset+9]
	srcIP := IPAddr{V4: binary.BigEndian.Uint32(data[offset+12 : offset+16])}
	dstIP := IPAddr{V4: binary.BigEndian.Uint32(data[offset+16 : offset+20])}

	var lastByteOffset int
	if totalLength == 0 {
		lastByteOffset = len(data) - 1
	} else {
		lastByteOffset = offset + totalLength - 1
	}

	if proto == ipProtoIPv6 {
		innerOffset := offset + headerLen
		if innerOffset+7 > len(data) {
			t.dropFrame(KindTruncatedFrame, "truncated-ipv6-in-ipv4", "frame %d: truncated IPv6-in-IPv4 inner header", ctx.frame.FrameNumber)
			return
		}
		proto = data[innerOffset+6]
		headerLen += 40
	}

	if proto == ipProtoESP {
		nextProto, trailerLen, err := espTrailer(data, lastByteOffset)
		if err != nil {
			t.warnFrame(KindESPUnknown, err, "esp-unknown", "frame %d: ESP trailer probe failed, treating as unknown next-protocol", ctx.frame.FrameNumber)
			proto = 0
		} else {
			proto = nextProto
			lastByteOffset -= trailerLen
			headerLen += 8 // skip the 8-byte ESP header to reach the inner payload
		}
	} else if proto == ipProtoAH {
		ahOffset := offset + headerLen
		if ahOffset+2 > len(data) {
			t.dropFrame(KindTruncatedFrame, "truncated-ah", "frame %d: truncated AH header", ctx.frame.FrameNumber)
			return
		}
		newProto := data[ahOffset]
		ahLen := int(data[ahOffset+1])*4 + 8
		proto = newProto
		headerLen += ahLen
	}

	if proto != ipProtoTCP && proto != ipProtoUDP {
		t.log().Dropf("frame %d: ignored IPv4 next-protocol %d", ctx.frame.FrameNumber, proto)
		t.Stats.recordDrop("ignored-ip-protocol")
		return
	}

	transportOffset := offset + headerLen
	t.decodeTransport(ctx, proto, transportOffset, lastByteOffset, false, srcIP, dstIP, srcMAC, dstMAC)
}

// decodeIPv6 implements §4.D's IPv6 branch: fixed 40-byte header, ESP/AH
// handled identically to IPv4, all other extension headers dropped with a
// warning since the chain is not walked.
func (t *Trace) decodeIPv6(ctx *decodeContext, offset int, srcMAC, dstMAC [6]byte) {
	data := ctx.data
	if offset+40 > len(data) {
		t.dropFrame(KindTruncatedFrame, "truncated-ipv6", "frame %d: truncated before IPv6 header", ctx.frame.FrameNumber)
		return
	}

	payloadLength := int(binary.BigEndian.Uint16(data[offset+4 : offset+6]))
	proto := data[offset+6]

	var srcIP, dstIP IPAddr
	srcIP.IsIPv6 = true
	dstIP.IsIPv6 = true
	srcIP.V6Hi = binary.BigEndian.Uint64(data[offset+8 : offset+16])
	srcIP.V6Lo = binary.BigEndian.Uint64(data[offset+16 : offset+24])
	dstIP.V6Hi = binary.BigEndian.Uint64(data[offset+24 : offset+32])
	dstIP.V6Lo = binary.BigEndian.Uint64(data[offset+32 : offset+40])

	headerLen := 40
	var lastByteOffset int
	if payloadLength == 0 {
		lastByteOffset = len(data) - 1
	} else {
		lastByteOffset = offset + headerLen + payloadLength - 1
	}

	if proto == ipProtoESP {
		nextProto, trailerLen, err := espTrailer(data, lastByteOffset)
		if err != nil {
			t.warnFrame(KindESPUnknown, err, "esp-unknown", "frame %d: ESP trailer probe failed", ctx.frame.FrameNumber)
			return
		}
		proto = nextProto
		lastByteOffset -= trailerLen
		headerLen += 8
	} else if proto == ipProtoAH {
		ahOffset := offset + headerLen
		if ahOffset+2 > len(data) {
			t.dropFrame(KindTruncatedFrame, "truncated-ah", "frame %d: truncated AH header", ctx.frame.FrameNumber)
			return
		}
		newProto := data[ahOffset]
		ahLen := int(data[ahOffset+1])*4 + 8
		proto = newProto
		headerLen += ahLen
	} else if ignoredIPv6ExtensionHeaders[proto] {
		t.dropFrame(KindUnsupportedExtensionHeader, "ignored-ipv6-extension-header", "frame %d: ignored IPv6 extension header %d", ctx.frame.FrameNumber, proto)
		return
	}

	if proto != ipProtoTCP && proto != ipProtoUDP {
		t.log().Dropf("frame %d: ignored IPv6 next-header %d", ctx.frame.FrameNumber, proto)
		t.Stats.recordDrop("ignored-ip-protocol")
		return
	}

	transportOffset := offset + headerLen
	t.decodeTransport(ctx, proto, transportOffset, lastByteOffset, true, srcIP, dstIP, srcMAC, dstMAC)
}
