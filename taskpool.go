// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package eventpoll

import (
	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/eventpoll/metrics"
)

var (
	maxRoutines = 0 // meaning INT32_MAX.
	bhPool, _   = ants.NewPool(maxRoutines)
)

// Submit runs task on the shared bottom-half pool. Drivers use it to push
// readiness notifications from outside their own locks, the way an
// interrupt handler defers the heavy half of its work.
func Submit(task func()) error {
	metrics.Add(metrics.BottomHalves, 1)
	return bhPool.Submit(task)
}
