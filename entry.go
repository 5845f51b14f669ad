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
	"trpc.group/trpc-go/eventpoll/metrics"
)

type entryKind uint8

const (
	modernEntry entryKind = iota
	legacyEntry
)

// entry is one (eventpoll, fd) subscription in the interest list.
//
// The watched file is held without a reference of its own: an entry never
// extends the file's lifetime. Structural fields (ev, the backend
// bindings) are guarded by the owning Eventpoll's lock; pending and opts
// are atomics because the notification path touches them without it.
type entry struct {
	fd   int
	kind entryKind
	ep   *Eventpoll

	// ev is the user-supplied mask and data word.
	ev Event

	// opts mirrors the option bits of ev.Events for the notification
	// path, which runs outside the eventpoll lock.
	opts atomic.Uint32

	// pending accumulates delivered events until a waiter consumes them:
	// OR to set, exchange-zero to consume.
	pending atomic.Uint32

	// Modern backend binding.
	file fdtable.ModernFile
	sub  *pollqueue.Subscription

	// Legacy backend binding.
	vf    fdtable.LegacyFile
	watch *legacyWatch
}

func (e *entry) setOptions(events uint32) {
	e.opts.Store(events & optionEvents)
}

func (e *entry) edgeTriggered() bool {
	return e.opts.Load()&EPOLLET != 0
}

func (e *entry) oneShot() bool {
	return e.opts.Load()&EPOLLONESHOT != 0
}

func (e *entry) orPending(events uint32) {
	for {
		old := e.pending.Load()
		if old|events == old || e.pending.CAS(old, old|events) {
			return
		}
	}
}

func (e *entry) takePending() uint32 {
	return e.pending.Swap(0)
}

// deliver is the common notification tail of both backends: record the
// events, raise the readiness bit, disarm a one-shot subscription. Edge
// delivery wakes a single waiter, level delivery wakes them all.
//
// It runs under the watched file's notification lock and therefore must
// not touch the eventpoll lock.
func (e *entry) deliver(active pollqueue.EventMask) {
	if active == 0 {
		return
	}
	e.orPending(uint32(active))
	e.ep.setReady(!e.edgeTriggered())
	metrics.Add(metrics.Notifies, 1)
	if e.oneShot() {
		switch e.kind {
		case modernEntry:
			e.sub.SetMask(0)
		case legacyEntry:
			e.watch.mask.Store(0)
		}
	}
}
