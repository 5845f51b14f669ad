// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package eventpoll implements the epoll family of readiness primitives
// for a library OS: a pollable aggregator that watches a set of open files
// and delivers their readiness transitions to waiters.
//
// Watched files come in two shapes. Modern files publish transitions
// through a pollqueue the aggregator subscribes to; legacy files hand a
// callback block to their driver, which pushes level updates, while the
// file table pushes close-time eviction through the same block. Both backends funnel into the same per-entry
// pending word and the same readiness bit, so the wait loop never cares
// which kind produced an event.
package eventpoll

import (
	"sync"

	"trpc.group/trpc-go/eventpoll/internal/fdtable"
	"trpc.group/trpc-go/eventpoll/internal/gate"
	"trpc.group/trpc-go/eventpoll/internal/pollqueue"
	"trpc.group/trpc-go/eventpoll/internal/safejob"
	"trpc.group/trpc-go/eventpoll/log"
)

// maxWatches bounds the interest list of one Eventpoll. Hitting it maps to
// allocation exhaustion at the control plane.
const maxWatches = 1 << 16

// Eventpoll is the epoll object: an interest list of watched files, a
// readiness bit with its wait machinery, and enough of the file surface to
// be watched itself (nesting, outer poll/select).
//
// The rwlock serializes structural mutation (control plane, exclusive)
// against scans (wait loop, shared). Notification callbacks never take it;
// they go through the entries' atomics and the gate only.
type Eventpoll struct {
	fdtable.Refs

	mu    sync.RWMutex
	items []*entry

	gate  gate.Gate
	queue pollqueue.Queue

	released safejob.OnceJob
}

// newEventpoll returns an initialized Eventpoll holding its creating
// reference.
func newEventpoll() *Eventpoll {
	ep := &Eventpoll{}
	ep.Refs.Init()
	ep.gate.Init()
	return ep
}

// DecRef drops a reference. The last drop detaches every subscription and
// empties the interest list.
func (ep *Eventpoll) DecRef() {
	ep.Refs.DecRef(ep.release)
}

func (ep *Eventpoll) release() {
	if !ep.released.Begin() {
		return
	}
	ep.mu.Lock()
	items := ep.items
	ep.items = nil
	for _, e := range items {
		ep.detachLocked(e)
	}
	ep.mu.Unlock()
	if n := len(items); n > 0 {
		log.Debugf("eventpoll: released with %d live entries", n)
	}
}

// setReady raises the readiness bit and wakes waiters: all of them for
// level notifications, a single one for edge notifications. The object's
// own pollqueue is notified as well so outer watchers see the transition.
func (ep *Eventpoll) setReady(all bool) {
	ep.gate.Set(all)
	ep.queue.Notify(pollqueue.EventIn)
}

// clearReady lowers the readiness bit. Only the wait loop calls it,
// immediately before scanning.
func (ep *Eventpoll) clearReady() {
	ep.gate.Clear()
}

// PollQueue makes the Eventpoll itself a watchable file.
func (ep *Eventpoll) PollQueue() *pollqueue.Queue {
	return &ep.queue
}

// Readiness reports whether the Eventpoll currently has deliverable
// events, without blocking. A set readiness bit answers immediately; a
// clear one falls back to scanning the pending words under the shared
// lock.
func (ep *Eventpoll) Readiness(mask pollqueue.EventMask) pollqueue.EventMask {
	if mask&pollqueue.EventIn == 0 {
		return 0
	}
	if ep.gate.IsSet() {
		return pollqueue.EventIn
	}
	ep.mu.RLock()
	defer ep.mu.RUnlock()
	for _, e := range ep.items {
		if e.pending.Load() != 0 {
			return pollqueue.EventIn
		}
	}
	return 0
}

// lookupLocked finds the entry with the given fd key. Callers hold ep.mu
// in either mode.
func (ep *Eventpoll) lookupLocked(fd int) (int, *entry) {
	for i, e := range ep.items {
		if e.fd == fd {
			return i, e
		}
	}
	return -1, nil
}
