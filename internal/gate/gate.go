// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package gate provides a level-triggered readiness flag with timed wait.
//
// A Gate carries a single bit. Notifiers set it and wake either one waiter
// or all of them; waiters block until they observe the bit set or their
// deadline passes. Spurious wakeups are permitted, lost wakeups are not:
// the bit is always stored before any waiter is signalled, and waiters
// re-check it on every pass.
package gate

import (
	"sync"

	"go.uber.org/atomic"
	"trpc.group/trpc-go/eventpoll/internal/clock"
	"trpc.group/trpc-go/eventpoll/internal/timer"
)

// Gate is the readiness bit plus its wait machinery. Use New or Init
// before first use.
type Gate struct {
	set atomic.Bool

	mu sync.Mutex
	// bcast is closed and replaced to wake every waiter at once.
	bcast chan struct{}
	// one holds a single wake token, consumed by exactly one waiter.
	one chan struct{}
}

// New returns an initialized Gate.
func New() *Gate {
	g := &Gate{}
	g.Init()
	return g
}

// Init prepares an embedded Gate for use.
func (g *Gate) Init() {
	g.bcast = make(chan struct{})
	g.one = make(chan struct{}, 1)
}

// Set raises the bit. With all set, every blocked waiter is woken;
// otherwise at most one is.
func (g *Gate) Set(all bool) {
	g.set.Store(true)
	if all {
		g.mu.Lock()
		close(g.bcast)
		g.bcast = make(chan struct{})
		g.mu.Unlock()
		return
	}
	select {
	case g.one <- struct{}{}:
	default:
	}
}

// Clear lowers the bit. Only a waiter about to scan may call it.
func (g *Gate) Clear() {
	g.set.Store(false)
}

// IsSet reports the current state of the bit.
func (g *Gate) IsSet() bool {
	return g.set.Load()
}

// WaitUntil blocks until the bit is observed set or the monotonic deadline
// passes. A deadline of 0 waits indefinitely. It reports whether the bit
// was observed set.
//
// The broadcast channel is snapshotted before the bit is checked, so a
// notifier that replaces the channel between the two steps is still
// observed via the flag.
func (g *Gate) WaitUntil(deadline int64) bool {
	var tm *timer.Timer
	for {
		g.mu.Lock()
		bcast := g.bcast
		g.mu.Unlock()
		if g.set.Load() {
			return true
		}
		if deadline != 0 && clock.Now() >= deadline {
			return g.set.Load()
		}
		if deadline == 0 {
			select {
			case <-bcast:
			case <-g.one:
			}
			continue
		}
		if tm == nil {
			tm = timer.New(clock.TimeOf(deadline))
		} else {
			tm.Reset(clock.TimeOf(deadline))
		}
		tm.Start()
		select {
		case <-bcast:
		case <-g.one:
		case <-tm.Wait():
		}
		tm.Stop()
	}
}
