// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package eventpoll

import (
	"trpc.group/trpc-go/eventpoll/internal/pollqueue"
	"trpc.group/trpc-go/eventpoll/metrics"
)

// Wait blocks until at least one watched file has deliverable events or
// the monotonic deadline passes (0 waits forever), then fills events in
// interest-list order and returns the count. A timeout returns 0.
//
// The loop clears the readiness bit before scanning and consumes each
// entry's pending word with an exchange, so an edge transition is seen by
// exactly one scan. Level-triggered entries are then re-verified against
// the live file: if the condition still holds, the consumed events are
// OR-ed back and the bit is re-armed after the scan, keeping the next
// waiter from blocking. A notification landing between the exchange and
// the re-verify re-sets both the pending word and the bit on its own, so
// nothing is lost either way.
func (ep *Eventpoll) Wait(events []Event, deadline int64) (int, error) {
	if events == nil {
		return 0, EFAULT
	}
	if len(events) == 0 {
		return 0, EINVAL
	}
	metrics.Add(metrics.WaitCalls, 1)
	for {
		if !ep.gate.WaitUntil(deadline) {
			metrics.Add(metrics.WaitTimeouts, 1)
			return 0, nil
		}
		ep.clearReady()
		ep.mu.RLock()
		nout := 0
		rearm := false
		for _, e := range ep.items {
			if nout == len(events) {
				// Truncated: unscanned entries may still hold consumed-
				// nothing pending state, so the bit has to stay up.
				rearm = true
				break
			}
			revents := e.takePending()
			if revents == 0 {
				continue
			}
			// One-shot entries are disarmed at the backend when they fire;
			// consuming the pending word here is the single delivery, so
			// they skip the level re-verify as well.
			if !e.edgeTriggered() && !e.oneShot() {
				mask := uint32(events2mask(e.ev.Events))
				switch e.kind {
				case legacyEntry:
					cur, err := e.vf.VPoll(nil)
					if err != nil {
						cur = pollqueue.EventErr
					}
					revents = uint32(cur) & mask
				case modernEntry:
					revents = uint32(e.file.Readiness(pollqueue.EventMask(mask)))
				}
				if revents == 0 {
					continue
				}
				rearm = true
				e.orPending(revents)
			}
			events[nout] = Event{Events: revents, Data: e.ev.Data}
			nout++
		}
		ep.mu.RUnlock()
		if rearm {
			ep.setReady(true)
		}
		if nout > 0 {
			metrics.Add(metrics.EventsDelivered, uint64(nout))
			return nout, nil
		}
		metrics.Add(metrics.WaitSpurious, 1)
	}
}
