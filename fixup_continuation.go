package tracecore

// fixupContinuation implements §4.I and must run after fixupRetransmit. For
// each frame with a non-empty payload, it scans backward through at most
// backCountLimit same-direction predecessors, aborting the scan the moment
// it meets a predecessor carrying PUSH (PUSH closes a logical message). A
// predecessor with the same ack number, that is not itself a retransmit,
// and that carries payload marks the current frame as a continuation and
// ends the scan.
//
// Like fixupRetransmit, this fans out across Options.Concurrency workers
// via forEachConversation since each conversation's frames are independent.
func (t *Trace) fixupContinuation() {
	t.forEachConversation(func(conv *Conversation) {
		if conv.IsUDP {
			return
		}
		t.fixupContinuationConversation(conv)
	})
}

func (t *Trace) fixupContinuationConversation(conv *Conversation) {
	limit := t.opts.BackCountLimit

	for fi, fid := range conv.Frames {
		f := &t.Frames[fid]
		f.IsContinuation = false

		if len(f.Payload) == 0 {
			continue
		}

		scanned := 0
		for j := fi - 1; j >= 0 && scanned < limit; j-- {
			prior := &t.Frames[conv.Frames[j]]
			if prior.IsFromClient != f.IsFromClient {
				continue
			}
			scanned++

			if HasFlag(prior.Flags, TCPFlagPSH) {
				break
			}

			if prior.Ack == f.Ack && !prior.IsRetransmit && len(prior.Payload) > 0 {
				f.IsContinuation = true
				break
			}
		}
	}
}
