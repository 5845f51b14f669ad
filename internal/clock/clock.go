// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package clock provides the monotonic nanosecond clock used for wait
// deadlines.
package clock

import "time"

var base = time.Now()

// Now returns the current monotonic reading in nanoseconds. Readings start
// at 1, keeping 0 free as the no-deadline sentinel.
func Now() int64 {
	return time.Since(base).Nanoseconds() + 1
}

// TimeOf converts a monotonic reading back to a wall-clock time suitable
// for timers.
func TimeOf(ns int64) time.Time {
	return base.Add(time.Duration(ns - 1))
}

// Until returns the duration from now to the given monotonic reading. The
// result is negative if the reading is in the past.
func Until(ns int64) time.Duration {
	return time.Duration(ns - Now())
}
