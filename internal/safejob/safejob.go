// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package safejob provides concurrent-safe entry guards for teardown work
// that must run at most once.
package safejob

import "go.uber.org/atomic"

// Job is a guarded unit of work.
type Job interface {
	// Begin claims the job. It returns false if the job already ran or is
	// closed.
	Begin() bool

	// End releases the job after Begin returned true.
	End()

	// Close marks the job closed without running it.
	Close()

	// Closed reports whether the job can no longer run.
	Closed() bool
}

// OnceJob runs at most once: the first Begin wins and every later call
// returns false.
type OnceJob struct {
	closed atomic.Bool
}

// Begin claims the job. Only the first caller gets true.
func (j *OnceJob) Begin() bool {
	return j.closed.CAS(false, true)
}

// End is a no-op; a OnceJob stays closed after its single run.
func (j *OnceJob) End() {}

// Close marks the job closed so Begin can never succeed.
func (j *OnceJob) Close() {
	j.closed.Store(true)
}

// Closed reports whether the job already ran or was closed.
func (j *OnceJob) Closed() bool {
	return j.closed.Load()
}
