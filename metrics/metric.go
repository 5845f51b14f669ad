// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package metrics exposes runtime counters of the event-polling facility:
// control-plane traffic, waiter activity and notification volume. It is a
// cheap first stop when tuning readiness delivery.
package metrics

import (
	"fmt"
	"time"

	"go.uber.org/atomic"
)

// All metrics definitions.
const (
	// Control plane.
	CtlAdd = iota
	CtlMod
	CtlDel

	// Wait loop.
	WaitCalls
	WaitTimeouts
	WaitSpurious
	EventsDelivered

	// Notification paths.
	Notifies
	Evictions
	BottomHalves

	Max
)

var metrics [Max]atomic.Uint64

// Add increases a metric counter by delta.
func Add(name int, delta uint64) {
	if name >= Max {
		return
	}
	metrics[name].Add(delta)
}

// Get returns one metric counter.
func Get(name int) uint64 {
	if name >= Max {
		return 0
	}
	return metrics[name].Load()
}

// GetAll returns a snapshot of every counter.
func GetAll() [Max]uint64 {
	var m [Max]uint64
	for i := range metrics {
		m[i] = metrics[i].Load()
	}
	return m
}

// ShowMetricsOfPeriod blocks for d and then prints the counter deltas
// accumulated over that window.
func ShowMetricsOfPeriod(d time.Duration) {
	old := GetAll()
	<-time.After(d)
	cur := GetAll()
	var m [Max]uint64
	for i := range metrics {
		m[i] = cur[i] - old[i]
	}
	showAll(m)
}

// ShowMetrics prints the current counters to the console.
func ShowMetrics() {
	showAll(GetAll())
}

func showAll(m [Max]uint64) {
	fmt.Printf("%-59s: %d\n", "# ctl - number of ADD operations", m[CtlAdd])
	fmt.Printf("%-59s: %d\n", "# ctl - number of MOD operations", m[CtlMod])
	fmt.Printf("%-59s: %d\n", "# ctl - number of DEL operations", m[CtlDel])
	fmt.Printf("%-59s: %d\n", "# wait - number of wait calls", m[WaitCalls])
	fmt.Printf("%-59s: %d\n", "# wait - number of waits ended by timeout", m[WaitTimeouts])
	fmt.Printf("%-59s: %d\n", "# wait - number of spurious wakeups", m[WaitSpurious])
	fmt.Printf("%-59s: %d\n", "# wait - number of events delivered", m[EventsDelivered])
	waitSucc := m[WaitCalls] - m[WaitTimeouts]
	if waitSucc > 0 {
		fmt.Printf("%-59s: %.2f\n", "# wait - events per successful wait", float64(m[EventsDelivered])/float64(waitSucc))
	}
	fmt.Printf("%-59s: %d\n", "# notify - number of readiness notifications", m[Notifies])
	fmt.Printf("%-59s: %d\n", "# notify - number of close-time evictions", m[Evictions])
	fmt.Printf("%-59s: %d\n", "# notify - number of bottom halves submitted", m[BottomHalves])
}
