// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package eventpoll

import (
	"trpc.group/trpc-go/eventpoll/internal/clock"
	"trpc.group/trpc-go/eventpoll/internal/fdtable"
)

// Sigset is the signal-mask argument of the pwait family. Applying a mask
// for the duration of a wait is not supported; any non-nil set is
// rejected.
type Sigset uint64

// Timespec is the nanosecond-resolution timeout of Pwait2.
type Timespec struct {
	Sec  int64
	Nsec int64
}

// Create makes a new epoll descriptor in t. The size argument carries no
// meaning beyond the historical requirement that it be positive.
func Create(t *fdtable.Table, size int) (int, error) {
	if size <= 0 {
		return 0, EINVAL
	}
	return create(t, 0), nil
}

// Create1 makes a new epoll descriptor in t. EPOLL_CLOEXEC is the only
// flag accepted.
func Create1(t *fdtable.Table, flags int) (int, error) {
	if flags&^EPOLL_CLOEXEC != 0 {
		return 0, EINVAL
	}
	return create(t, flags), nil
}

func create(t *fdtable.Table, flags int) int {
	var fdFlags int
	if flags&EPOLL_CLOEXEC != 0 {
		fdFlags |= fdtable.FlagCloexec
	}
	return t.Install(newEventpoll(), fdFlags)
}

// Ctl applies a control-plane operation to the epoll at epfd. The target
// fd must name an open file, except for Del, which looks the fd key up in
// the interest list even after the fd was closed (ENOENT if absent); op
// selects Add, Mod or Del.
func Ctl(t *fdtable.Table, epfd, op, fd int, ev *Event) error {
	if epfd == fd {
		return EINVAL
	}
	ep, err := getEventpoll(t, epfd)
	if err != nil {
		return err
	}
	defer ep.DecRef()
	f, err := t.Get(fd)
	if err != nil {
		if op == EPOLL_CTL_DEL {
			return ep.Del(fd)
		}
		return EBADF
	}
	defer f.DecRef()
	switch op {
	case EPOLL_CTL_ADD:
		if ev == nil {
			return EFAULT
		}
		return ep.Add(fd, f, *ev)
	case EPOLL_CTL_MOD:
		if ev == nil {
			return EFAULT
		}
		return ep.Mod(fd, *ev)
	case EPOLL_CTL_DEL:
		return ep.Del(fd)
	default:
		return EINVAL
	}
}

// Wait collects events from the epoll at epfd into events. A negative
// timeout waits indefinitely, zero polls without blocking.
func Wait(t *fdtable.Table, epfd int, events []Event, timeoutMs int) (int, error) {
	return waitOn(t, epfd, events, deadlineFromMillis(timeoutMs))
}

// Pwait is Wait with a signal-mask argument. A non-nil mask is not
// supported.
func Pwait(t *fdtable.Table, epfd int, events []Event, timeoutMs int, sigmask *Sigset) (int, error) {
	if sigmask != nil {
		return 0, ENOSYS
	}
	return Wait(t, epfd, events, timeoutMs)
}

// Pwait2 is Pwait with a nanosecond-resolution timeout. A nil timespec
// waits indefinitely; a malformed one is rejected.
func Pwait2(t *fdtable.Table, epfd int, events []Event, ts *Timespec, sigmask *Sigset) (int, error) {
	if sigmask != nil {
		return 0, ENOSYS
	}
	deadline, err := deadlineFromTimespec(ts)
	if err != nil {
		return 0, err
	}
	return waitOn(t, epfd, events, deadline)
}

func waitOn(t *fdtable.Table, epfd int, events []Event, deadline int64) (int, error) {
	ep, err := getEventpoll(t, epfd)
	if err != nil {
		return 0, err
	}
	defer ep.DecRef()
	return ep.Wait(events, deadline)
}

// getEventpoll borrows epfd and checks that it names an epoll. The
// nominal type assertion is the volume check: nothing else in the table
// can satisfy it.
func getEventpoll(t *fdtable.Table, epfd int) (*Eventpoll, error) {
	f, err := t.Get(epfd)
	if err != nil {
		return nil, EBADF
	}
	ep, ok := f.(*Eventpoll)
	if !ok {
		f.DecRef()
		return nil, EINVAL
	}
	return ep, nil
}

func deadlineFromMillis(timeoutMs int) int64 {
	if timeoutMs < 0 {
		return 0
	}
	return clock.Now() + int64(timeoutMs)*1e6
}

func deadlineFromTimespec(ts *Timespec) (int64, error) {
	if ts == nil {
		return 0, nil
	}
	if ts.Sec < 0 || ts.Nsec < 0 || ts.Nsec >= 1e9 {
		return 0, EINVAL
	}
	return clock.Now() + ts.Sec*1e9 + ts.Nsec, nil
}
