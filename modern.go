// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package eventpoll

import (
	"trpc.group/trpc-go/eventpoll/internal/fdtable"
	"trpc.group/trpc-go/eventpoll/internal/pollqueue"
)

func newModernSub(e *entry) *pollqueue.Subscription {
	return pollqueue.NewSubscription(events2mask(e.ev.Events), e.deliver)
}

// attachModern subscribes e to a pollqueue-backed file. Registration is
// followed by a readiness snapshot so a condition that was already active
// is delivered instead of waiting for the next transition.
//
// The subscription closes over the entry; the pollqueue hands delivered
// events straight to entry.deliver with no container arithmetic in
// between.
func (ep *Eventpoll) attachModern(e *entry, f fdtable.ModernFile) {
	mask := events2mask(e.ev.Events)
	e.file = f
	e.sub = newModernSub(e)
	f.PollQueue().Register(e.sub)
	if active := f.Readiness(mask); active != 0 {
		e.deliver(active)
	}
}

// modifyModern swaps the subscription mask in place and re-snapshots
// readiness, so a level condition that holds across the change is not
// lost.
func (ep *Eventpoll) modifyModern(e *entry) {
	mask := events2mask(e.ev.Events)
	e.file.PollQueue().Reregister(e.sub, mask)
	if active := e.file.Readiness(mask); active != 0 {
		e.deliver(active)
	}
}

// detachModern removes the subscription. Valid on a dying file; the queue
// outlives the last strong reference to its owner.
func (ep *Eventpoll) detachModern(e *entry) {
	e.file.PollQueue().Unregister(e.sub)
}
