// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package eventpoll

import "trpc.group/trpc-go/eventpoll/internal/pollqueue"

// Interest and result bits of Event.Events. Values match the Linux ABI.
const (
	EPOLLIN    uint32 = 0x001
	EPOLLPRI   uint32 = 0x002
	EPOLLOUT   uint32 = 0x004
	EPOLLERR   uint32 = 0x008
	EPOLLHUP   uint32 = 0x010
	EPOLLRDHUP uint32 = 0x2000
)

// Option bits of Event.Events. They shape delivery instead of naming a
// readiness condition.
const (
	EPOLLEXCLUSIVE uint32 = 1 << 28
	EPOLLWAKEUP    uint32 = 1 << 29
	EPOLLONESHOT   uint32 = 1 << 30
	EPOLLET        uint32 = 1 << 31
)

// Control operations accepted by Ctl.
const (
	EPOLL_CTL_ADD = 1
	EPOLL_CTL_DEL = 2
	EPOLL_CTL_MOD = 3
)

// EPOLL_CLOEXEC is the only flag Create1 accepts.
const EPOLL_CLOEXEC = 0x80000

// standardEvents are the interest bits a subscription can ask for.
// Anything else in the low half of the mask is ignored.
const standardEvents = EPOLLIN | EPOLLPRI | EPOLLOUT | EPOLLERR | EPOLLHUP | EPOLLRDHUP

// alwaysEvents are delivered whether or not they were asked for.
const alwaysEvents = EPOLLERR | EPOLLHUP

// optionEvents are the recognized option bits.
const optionEvents = EPOLLEXCLUSIVE | EPOLLWAKEUP | EPOLLONESHOT | EPOLLET

// Event is the user-visible epoll_event: an event mask plus an opaque data
// word returned verbatim with each delivery.
type Event struct {
	Events uint32
	Data   uint64
}

// events2mask narrows a user mask to the conditions files can report and
// arms the unmaskable ones. Event bit values match pollqueue's, so the
// conversion is a filter, not a translation.
func events2mask(events uint32) pollqueue.EventMask {
	return pollqueue.EventMask((events & standardEvents) | alwaysEvents)
}
