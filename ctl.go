// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package eventpoll

import (
	"trpc.group/trpc-go/eventpoll/internal/fdtable"
	"trpc.group/trpc-go/eventpoll/metrics"
)

// Add subscribes fd. The fd key must not already be watched, f must be a
// pollable file, and the interest list must have room. Backend
// registration happens under the exclusive lock, which fixes the lock
// order eventpoll -> watched file.
func (ep *Eventpoll) Add(fd int, f fdtable.File, ev Event) error {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	if _, old := ep.lookupLocked(fd); old != nil {
		return EEXIST
	}
	if len(ep.items) >= maxWatches {
		return ENOMEM
	}
	e := &entry{fd: fd, ep: ep, ev: ev}
	e.setOptions(ev.Events)
	switch file := f.(type) {
	case fdtable.ModernFile:
		e.kind = modernEntry
		ep.attachModern(e, file)
	case fdtable.LegacyFile:
		e.kind = legacyEntry
		ep.attachLegacy(e, file)
	default:
		return EINVAL
	}
	ep.items = append(ep.items, e)
	metrics.Add(metrics.CtlAdd, 1)
	return nil
}

// Mod replaces the event of an existing subscription: consumed state is
// discarded, the backend mask is rewritten in place, and current readiness
// is re-armed. This is also how a fired one-shot entry comes back to life.
func (ep *Eventpoll) Mod(fd int, ev Event) error {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	_, e := ep.lookupLocked(fd)
	if e == nil {
		return ENOENT
	}
	e.takePending()
	e.ev = ev
	e.setOptions(ev.Events)
	switch e.kind {
	case modernEntry:
		ep.modifyModern(e)
	case legacyEntry:
		ep.modifyLegacy(e)
	}
	metrics.Add(metrics.CtlMod, 1)
	return nil
}

// Del unsubscribes fd: unlink from the interest list, detach from the
// watched file's notification machinery.
func (ep *Eventpoll) Del(fd int) error {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	i, e := ep.lookupLocked(fd)
	if e == nil {
		return ENOENT
	}
	ep.items = append(ep.items[:i], ep.items[i+1:]...)
	ep.detachLocked(e)
	metrics.Add(metrics.CtlDel, 1)
	return nil
}

func (ep *Eventpoll) detachLocked(e *entry) {
	switch e.kind {
	case modernEntry:
		ep.detachModern(e)
	case legacyEntry:
		ep.detachLegacy(e)
	}
}
