package tracecore

// attachConversation implements §4.E, the Conversation Index. It looks up
// the conversation for the directional 5-tuple (srcIP, srcPort, dstIP,
// dstPort, isIPv6), trying the tuple as-given and then reversed, creating
// a fresh one if neither matches. When the current segment is TCP with SYN
// set, it also applies the port-rollover split: a new conversation is
// spliced in when the matched conversation already saw a FIN, or saw an
// RST more than RolloverGapTicks ago.
//
// Returns the conversation to attach this frame to and whether the frame
// is from the client side of that conversation (the side that created it,
// per spec.md: "a fresh conversation is created with the as-given
// direction being the client->server direction").
func (t *Trace) attachConversation(isIPv6, isUDP bool, srcIP, dstIP IPAddr, srcPort, dstPort uint16, tcpSYN bool, frameTick int64) (ConversationID, bool) {
	bucket := srcPort ^ dstPort

	// Walk newest-first so that, after a port-rollover split, subsequent
	// frames on the same 5-tuple attach to the replacement conversation
	// rather than the stale one it superseded (both remain indexed under
	// the same symmetric bucket, per §4.E/§9: "the new conversation becomes
	// the target for this and subsequent frames").
	bucketIDs := t.index[bucket]
	for i := len(bucketIDs) - 1; i >= 0; i-- {
		id := bucketIDs[i]
		c := t.conversation(id)
		if c.IsIPv6 != isIPv6 || c.IsUDP != isUDP {
			continue
		}
		if c.SrcPort == srcPort && c.DstPort == dstPort && c.SrcIP.Equal(srcIP) && c.DstIP.Equal(dstIP) {
			return t.maybeRollover(id, isUDP, tcpSYN, frameTick), true
		}
		if c.SrcPort == dstPort && c.DstPort == srcPort && c.SrcIP.Equal(dstIP) && c.DstIP.Equal(srcIP) {
			return t.maybeRollover(id, isUDP, tcpSYN, frameTick), false
		}
	}

	id := t.newConversation(isIPv6, isUDP, srcIP, dstIP, srcPort, dstPort, frameTick)
	return id, true
}

func (t *Trace) newConversation(isIPv6, isUDP bool, srcIP, dstIP IPAddr, srcPort, dstPort uint16, startTick int64) ConversationID {
	c := Conversation{
		SrcIP:     srcIP,
		DstIP:     dstIP,
		SrcPort:   srcPort,
		DstPort:   dstPort,
		IsIPv6:    isIPv6,
		IsUDP:     isUDP,
		StartTick: startTick,
		EndTick:   startTick,
	}
	t.Conversations = append(t.Conversations, c)
	id := ConversationID(len(t.Conversations) - 1)
	bucket := srcPort ^ dstPort
	t.index[bucket] = append(t.index[bucket], id)
	return id
}

// maybeRollover applies the port-rollover split rule (§4.E) when the
// current segment is TCP with SYN set; otherwise (including all UDP
// traffic) it returns existing unchanged. A rollover triggered by a
// non-SYN segment is not representable here by construction: this
// function is only ever asked to roll over when tcpSYN is true, so the
// source's "undefined behavior on non-SYN rollover" (§9) never arises.
func (t *Trace) maybeRollover(existing ConversationID, isUDP, tcpSYN bool, frameTick int64) ConversationID {
	if isUDP || !tcpSYN {
		return existing
	}

	c := t.conversation(existing)
	gap := frameTick - c.EndTick
	shouldSplit := c.FinCount >= 1 || (c.RstCount >= 1 && gap > t.opts.RolloverGapTicks)
	if !shouldSplit {
		return existing
	}

	replacement := Conversation{
		SrcIP:     c.SrcIP,
		DstIP:     c.DstIP,
		SrcPort:   c.SrcPort,
		DstPort:   c.DstPort,
		IsIPv6:    c.IsIPv6,
		IsUDP:     c.IsUDP,
		SrcMAC:    c.SrcMAC,
		DstMAC:    c.DstMAC,
		StartTick: frameTick,
		EndTick:   frameTick,
	}
	t.Conversations = append(t.Conversations, replacement)
	newID := ConversationID(len(t.Conversations) - 1)
	bucket := c.SrcPort ^ c.DstPort
	t.index[bucket] = append(t.index[bucket], newID)
	return newID
}
