// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package fdtable

import (
	"go.uber.org/atomic"

	"trpc.group/trpc-go/eventpoll/internal/locker"
	"trpc.group/trpc-go/eventpoll/internal/pollqueue"
)

// File is the common surface of everything installable in a Table.
//
// IncRef is a weak upgrade: it fails once the file is dying, so holders of
// a bare pointer can attempt to borrow without ever extending the file's
// lifetime themselves.
type File interface {
	IncRef() bool
	DecRef()
}

// ModernFile is a file whose readiness is published through a pollqueue.
type ModernFile interface {
	File

	// PollQueue returns the file's subscription queue. The queue stays
	// valid on a dying-but-not-collected file.
	PollQueue() *pollqueue.Queue

	// Readiness returns the currently active events intersected with mask,
	// without blocking.
	Readiness(mask pollqueue.EventMask) pollqueue.EventMask
}

// EventWatch is the callback control block a watcher leaves with a legacy
// file. The driver pushes level updates through Signal; the file layer
// pushes eviction through FileClosed when the file goes away underneath
// the watcher.
type EventWatch interface {
	Signal(revents pollqueue.EventMask)
	FileClosed()
}

// LegacyFile is a file whose readiness is pushed by its driver through
// callback blocks rather than a pollqueue.
type LegacyFile interface {
	File

	// VPoll hands w to the driver to keep on its notification list and
	// returns the currently active events. A nil w queries current state
	// without attaching anything. Drivers must tolerate being handed the
	// same block more than once.
	VPoll(w EventWatch) (pollqueue.EventMask, error)

	// Watches returns the per-file list of attached watch blocks, used to
	// evict watchers when the file is closed.
	Watches() *WatchList
}

// Refs is an embeddable reference count. The count starts at 1 on Init;
// IncRef is the weak upgrade described on File.
type Refs struct {
	n atomic.Int64
}

// Init sets the count to 1 for the creating reference.
func (r *Refs) Init() {
	r.n.Store(1)
}

// IncRef acquires a reference, failing if the file is already dying.
func (r *Refs) IncRef() bool {
	for {
		v := r.n.Load()
		if v <= 0 {
			return false
		}
		if r.n.CAS(v, v+1) {
			return true
		}
	}
}

// DecRef drops a reference and runs release when the last one is gone.
func (r *Refs) DecRef(release func()) {
	if r.n.Dec() == 0 && release != nil {
		release()
	}
}

// WatchList is a legacy file's list of attached watch blocks. The zero
// value is ready for use.
type WatchList struct {
	mu    locker.Locker
	items []EventWatch
}

// Attach adds w to the list.
func (l *WatchList) Attach(w EventWatch) {
	l.mu.Lock()
	l.items = append(l.items, w)
	l.mu.Unlock()
}

// Detach removes w from the list. Detaching an absent block is a no-op.
func (l *WatchList) Detach(w EventWatch) {
	l.mu.Lock()
	for i, it := range l.items {
		if it == w {
			l.items = append(l.items[:i], l.items[i+1:]...)
			break
		}
	}
	l.mu.Unlock()
}

// Drain removes and returns every attached block. The caller notifies the
// returned blocks after the list lock is released, keeping the lock order
// file list -> watcher.
func (l *WatchList) Drain() []EventWatch {
	l.mu.Lock()
	items := l.items
	l.items = nil
	l.mu.Unlock()
	return items
}

// Len returns the number of attached blocks.
func (l *WatchList) Len() int {
	l.mu.Lock()
	n := len(l.items)
	l.mu.Unlock()
	return n
}
