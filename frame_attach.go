package tracecore

// appendFrame appends f to the trace and returns its stable ID.
// ArrivalOrder is stamped here: a monotonic ingest-order counter distinct
// from the source's own FrameNumber (§3 supplemental field).
func (t *Trace) appendFrame(f Frame) FrameID {
	f.ArrivalOrder = len(t.Frames)
	t.Frames = append(t.Frames, f)
	return FrameID(len(t.Frames) - 1)
}

// attachFrameToConversation finishes §4.C's MAC/time-window/per-direction
// bookkeeping once a frame has been fully decoded and assigned a
// conversation: appends frameID to the conversation's frame list, extends
// its tick window, bumps source/dest frame counts and total bytes, and
// copies the observed MACs onto the conversation in client/server terms.
func (t *Trace) attachFrameToConversation(id ConversationID, frameID FrameID, isFromClient bool, srcMAC, dstMAC [6]byte, tick int64, payloadLen int) {
	conv := t.conversation(id)

	conv.Frames = append(conv.Frames, frameID)

	if tick < conv.StartTick || len(conv.Frames) == 1 {
		conv.StartTick = tick
	}
	if tick > conv.EndTick {
		conv.EndTick = tick
	}

	if isFromClient {
		conv.SourceFrames++
		conv.SrcMAC = srcMAC
		conv.DstMAC = dstMAC
	} else {
		conv.DestFrames++
		conv.SrcMAC = dstMAC
		conv.DstMAC = srcMAC
	}

	conv.TotalBytes += uint64(payloadLen)
}
