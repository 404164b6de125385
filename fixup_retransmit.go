package tracecore

import "sync"

// fixupRetransmit implements §4.H. Scans each TCP conversation's frames in
// forward order; for every frame whose payload is at least 8 bytes, walks
// backward through same-direction predecessors (capped at Options.BackCountLimit)
// looking for a segment with the same payload length and either the same
// sequence number or a sequence number landing inside the predecessor's
// byte range. The first match wins; it is never re-evaluated.
//
// Per §5, conversations are independent once ingest completes, so this pass
// fans out across Options.Concurrency workers when it's set above 1; each
// worker only ever touches the Frame and Conversation entries belonging to
// the conversation it was handed, so there's no shared mutable state
// between workers.
func (t *Trace) fixupRetransmit() {
	t.forEachConversation(func(conv *Conversation) {
		if conv.IsUDP {
			return
		}
		t.fixupRetransmitConversation(conv)
	})
}

func (t *Trace) fixupRetransmitConversation(conv *Conversation) {
	limit := t.opts.BackCountLimit
	conv.RawRetransmits = 0
	conv.SigRetransmits = 0

	for fi, fid := range conv.Frames {
		f := &t.Frames[fid]
		f.IsRetransmit = false

		if len(f.Payload) < 8 {
			continue
		}

		scanned := 0
		for j := fi - 1; j >= 0 && scanned < limit; j-- {
			prior := &t.Frames[conv.Frames[j]]
			if prior.IsFromClient != f.IsFromClient {
				continue
			}
			scanned++

			if len(prior.Payload) != len(f.Payload) {
				continue
			}

			sameSeq := prior.Seq == f.Seq
			inRange := f.Seq > prior.Seq && f.Seq < prior.Seq+uint32(len(prior.Payload))
			if !sameSeq && !inRange {
				continue
			}

			f.IsRetransmit = true
			conv.RawRetransmits++
			if len(f.Payload) > 1 {
				conv.SigRetransmits++
			}
			break
		}
	}
}

// forEachConversation runs fn once per conversation, serially when
// Options.Concurrency is 1 (the default) and across a bounded worker pool
// otherwise. fn must only touch the Frame/Conversation entries reachable
// from the *Conversation it's given.
func (t *Trace) forEachConversation(fn func(conv *Conversation)) {
	n := len(t.Conversations)
	if n == 0 {
		return
	}
	if t.opts.Concurrency <= 1 {
		for i := range t.Conversations {
			fn(&t.Conversations[i])
		}
		return
	}

	sem := make(chan struct{}, t.opts.Concurrency)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range t.Conversations {
		conv := &t.Conversations[i]
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			fn(conv)
		}()
	}
	wg.Wait()
}
