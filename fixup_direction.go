package tracecore

// fixupDirection implements §4.G. Only a conversation's first frame is
// consulted: if it contradicts the SYN-from-client convention, the whole
// conversation (endpoints, MACs, per-direction counts) is reversed along
// with the from-client flag on every frame already attached to it.
func (t *Trace) fixupDirection() {
	for i := range t.Conversations {
		conv := &t.Conversations[i]
		if conv.IsUDP || len(conv.Frames) == 0 {
			continue
		}

		first := &t.Frames[conv.Frames[0]]
		flags := first.Flags

		synOnly := HasFlag(flags, TCPFlagSYN) && !HasFlag(flags, TCPFlagACK)
		synAck := HasFlag(flags, TCPFlagSYN) && HasFlag(flags, TCPFlagACK)

		shouldReverse := (synOnly && !first.IsFromClient) || (synAck && first.IsFromClient)
		if !shouldReverse {
			continue
		}

		conv.SrcIP, conv.DstIP = conv.DstIP, conv.SrcIP
		conv.SrcPort, conv.DstPort = conv.DstPort, conv.SrcPort
		conv.SrcMAC, conv.DstMAC = conv.DstMAC, conv.SrcMAC
		conv.SourceFrames, conv.DestFrames = conv.DestFrames, conv.SourceFrames

		for _, fid := range conv.Frames {
			f := &t.Frames[fid]
			f.IsFromClient = !f.IsFromClient
		}
	}
}
