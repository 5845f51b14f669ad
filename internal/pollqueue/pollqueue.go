// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package pollqueue provides the subscription primitive pollable files use
// to publish readiness transitions.
//
// A file owns one Queue per pollable endpoint. Interested parties register
// a Subscription carrying an events-of-interest mask and a callback; when
// the file transitions, it calls Notify with the newly active events, and
// every subscription whose mask intersects them has its callback invoked.
//
// Callbacks run with the queue lock held. They must not block and must not
// acquire any lock that is ever held while registering on this queue.
package pollqueue

import (
	"go.uber.org/atomic"
	"trpc.group/trpc-go/eventpoll/internal/locker"
)

// EventMask is a set of readiness conditions. The bit values match the
// epoll wire encoding so masks cross the file boundary without
// translation.
type EventMask uint32

// Readiness conditions a file can report.
const (
	EventIn    EventMask = 0x001
	EventPri   EventMask = 0x002
	EventOut   EventMask = 0x004
	EventErr   EventMask = 0x008
	EventHup   EventMask = 0x010
	EventRdHup EventMask = 0x2000
)

// AllEvents is every condition a file can report.
const AllEvents = EventIn | EventPri | EventOut | EventErr | EventHup | EventRdHup

// Subscription is one registration on a Queue. The interest mask is
// mutable in place: a callback may shrink it (one-shot disarm) and
// Reregister may replace it, without the subscription leaving the queue.
type Subscription struct {
	mask   atomic.Uint32
	notify func(active EventMask)
}

// NewSubscription returns a subscription that delivers active events
// intersecting mask to notify.
func NewSubscription(mask EventMask, notify func(active EventMask)) *Subscription {
	s := &Subscription{notify: notify}
	s.mask.Store(uint32(mask))
	return s
}

// Mask returns the current events-of-interest mask.
func (s *Subscription) Mask() EventMask {
	return EventMask(s.mask.Load())
}

// SetMask replaces the events-of-interest mask. Safe from inside the
// subscription's own callback.
func (s *Subscription) SetMask(mask EventMask) {
	s.mask.Store(uint32(mask))
}

// Queue is a file's set of subscriptions. The zero value is ready for use.
type Queue struct {
	mu   locker.Locker
	subs []*Subscription
}

// Register adds s to the queue. The caller is responsible for checking the
// file's current readiness afterwards; Register itself does not deliver.
func (q *Queue) Register(s *Subscription) {
	q.mu.Lock()
	q.subs = append(q.subs, s)
	q.mu.Unlock()
}

// Unregister removes s from the queue. Removing a subscription that is not
// registered is a no-op. Unregister remains valid on a dying file: the
// queue outlives the last strong reference to its owner.
func (q *Queue) Unregister(s *Subscription) {
	q.mu.Lock()
	for i, sub := range q.subs {
		if sub == s {
			q.subs = append(q.subs[:i], q.subs[i+1:]...)
			break
		}
	}
	q.mu.Unlock()
}

// Reregister swaps the interest mask of an already-registered
// subscription, serialized against in-flight Notify calls.
func (q *Queue) Reregister(s *Subscription, mask EventMask) {
	q.mu.Lock()
	s.SetMask(mask)
	q.mu.Unlock()
}

// Notify delivers newly active events to every subscription whose mask
// intersects them. The owning file calls it on each transition, holding
// whatever internal lock it uses to make the transition atomic.
func (q *Queue) Notify(active EventMask) {
	if active == 0 {
		return
	}
	q.mu.Lock()
	for _, s := range q.subs {
		if hit := active & s.Mask(); hit != 0 {
			s.notify(hit)
		}
	}
	q.mu.Unlock()
}

// Len returns the number of registered subscriptions.
func (q *Queue) Len() int {
	q.mu.Lock()
	n := len(q.subs)
	q.mu.Unlock()
	return n
}
