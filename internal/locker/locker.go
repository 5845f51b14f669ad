// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package locker provides a spinlock for short critical sections on
// notification paths, where a sleeping mutex would be too heavy.
package locker

import (
	"runtime"
	"sync/atomic"
)

const (
	unlocked = 0
	locked   = 1
)

// A Locker is a spinlock. The zero value is unlocked.
//
// Critical sections guarded by a Locker must not block; callbacks invoked
// while it is held run to completion before the lock is released.
type Locker uint32

// Lock acquires l, spinning until it is available.
func (l *Locker) Lock() {
	for !atomic.CompareAndSwapUint32((*uint32)(l), unlocked, locked) {
		runtime.Gosched()
	}
}

// Unlock releases l. It is not tied to a particular goroutine; the
// goroutine that releases need not be the one that acquired.
func (l *Locker) Unlock() {
	atomic.StoreUint32((*uint32)(l), unlocked)
}

// TryLock attempts to acquire l without spinning, and reports whether it
// succeeded.
func (l *Locker) TryLock() bool {
	return atomic.CompareAndSwapUint32((*uint32)(l), unlocked, locked)
}

// IsLocked reports whether l is currently held.
func (l *Locker) IsLocked() bool {
	return atomic.LoadUint32((*uint32)(l)) == locked
}
