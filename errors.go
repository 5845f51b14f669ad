// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package eventpoll

import "fmt"

// Errno is the error surfaced at the system-call boundary. Values follow
// the conventional unix numbering so callers can hand them straight back
// to a trampoline as negative return codes.
type Errno int

// Errors the facility can return.
const (
	ENOENT Errno = 2  // no such entry
	EBADF  Errno = 9  // fd not in table
	ENOMEM Errno = 12 // entry allocation exhausted
	EFAULT Errno = 14 // nil event buffer
	EEXIST Errno = 17 // entry already present
	EINVAL Errno = 22 // malformed argument
	ENOSYS Errno = 38 // not implemented
)

// Error implements error.
func (e Errno) Error() string {
	switch e {
	case ENOENT:
		return "no such entry"
	case EBADF:
		return "bad file descriptor"
	case ENOMEM:
		return "out of memory"
	case EFAULT:
		return "bad address"
	case EEXIST:
		return "entry already exists"
	case EINVAL:
		return "invalid argument"
	case ENOSYS:
		return "not implemented"
	default:
		return fmt.Sprintf("errno %d", int(e))
	}
}

// Code returns the negative integer form used on the system-call wire.
func (e Errno) Code() int {
	return -int(e)
}
