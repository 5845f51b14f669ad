// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package eventpoll

import (
	"go.uber.org/atomic"

	"trpc.group/trpc-go/eventpoll/internal/fdtable"
	"trpc.group/trpc-go/eventpoll/internal/pollqueue"
	"trpc.group/trpc-go/eventpoll/log"
	"trpc.group/trpc-go/eventpoll/metrics"
)

// legacyWatch is the callback control block a driver keeps on its
// notification list. It carries a typed back-reference to its entry and
// the saved interest mask; a zero mask mutes the block, which is how
// one-shot disarm and teardown stop a driver that still holds the
// pointer.
type legacyWatch struct {
	e    *entry
	mask atomic.Uint32
}

// Signal is the driver push path: mask the reported events and hand the
// survivors to the entry. Drivers may call it from any context, including
// bottom halves; it never blocks and never takes the eventpoll lock.
func (w *legacyWatch) Signal(revents pollqueue.EventMask) {
	if active := revents & pollqueue.EventMask(w.mask.Load()); active != 0 {
		w.e.deliver(active)
	}
}

// FileClosed is the close-time eviction path: the watched file is going
// away, so the entry is removed from its eventpoll's interest list. Legacy
// files cannot be held weakly, which makes this push from the file layer
// the only way to honor their lifetime.
//
// A concurrent DEL may have unlinked the entry already; the lookup by
// identity makes the race benign.
func (w *legacyWatch) FileClosed() {
	w.mask.Store(0)
	ep := w.e.ep
	ep.mu.Lock()
	for i, e := range ep.items {
		if e == w.e {
			ep.items = append(ep.items[:i], ep.items[i+1:]...)
			metrics.Add(metrics.Evictions, 1)
			log.Debugf("eventpoll: fd %d evicted, watched file closed", e.fd)
			break
		}
	}
	ep.mu.Unlock()
}

// attachLegacy wires e to a driver-notified file: hand the watch block to
// the vnode poll operation, join the file's watch list, and arm any
// already-active events. A failing poll operation does not fail the
// attach; the entry is armed with the error condition instead, so the
// caller observes the failure through wait rather than a lost ADD.
func (ep *Eventpoll) attachLegacy(e *entry, vf fdtable.LegacyFile) {
	mask := events2mask(e.ev.Events)
	w := &legacyWatch{e: e}
	w.mask.Store(uint32(mask))
	e.vf = vf
	e.watch = w
	active, err := vf.VPoll(w)
	vf.Watches().Attach(w)
	if err != nil {
		log.Debugf("eventpoll: vnode poll on fd %d failed: %v", e.fd, err)
		e.deliver(pollqueue.EventErr)
		return
	}
	if active &= mask; active != 0 {
		e.deliver(active)
	}
}

// modifyLegacy saves the new mask and re-invokes the vnode poll operation
// so the driver observes the new interest and current state is re-armed.
func (ep *Eventpoll) modifyLegacy(e *entry) {
	mask := events2mask(e.ev.Events)
	e.watch.mask.Store(uint32(mask))
	active, err := e.vf.VPoll(e.watch)
	if err != nil {
		e.deliver(pollqueue.EventErr)
		return
	}
	if active &= mask; active != 0 {
		e.deliver(active)
	}
}

// detachLegacy mutes the watch block and leaves the file's watch list. The
// driver may still hold the block; the zero mask turns any late Signal
// into a no-op.
func (ep *Eventpoll) detachLegacy(e *entry) {
	e.watch.mask.Store(0)
	e.vf.Watches().Detach(e.watch)
}
