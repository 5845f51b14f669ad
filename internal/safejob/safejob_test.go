// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package safejob_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"trpc.group/trpc-go/eventpoll/internal/safejob"
)

func TestOnceJob(t *testing.T) {
	var j safejob.OnceJob
	assert.False(t, j.Closed())
	assert.True(t, j.Begin())
	j.End()
	assert.True(t, j.Closed())
	assert.False(t, j.Begin())
}

func TestOnceJobClose(t *testing.T) {
	var j safejob.OnceJob
	j.Close()
	assert.True(t, j.Closed())
	assert.False(t, j.Begin())
}

func TestOnceJobConcurrent(t *testing.T) {
	var j safejob.OnceJob
	var wg sync.WaitGroup
	wins := make(chan struct{}, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if j.Begin() {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)
	n := 0
	for range wins {
		n++
	}
	assert.Equal(t, 1, n)
}
