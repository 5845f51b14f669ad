// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package fdtable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/eventpoll/internal/fdtable"
	"trpc.group/trpc-go/eventpoll/internal/pollqueue"
)

type modernStub struct {
	fdtable.Refs
	q        pollqueue.Queue
	released bool
}

func newModernStub() *modernStub {
	f := &modernStub{}
	f.Refs.Init()
	return f
}

func (f *modernStub) DecRef() {
	f.Refs.DecRef(func() { f.released = true })
}

func (f *modernStub) PollQueue() *pollqueue.Queue {
	return &f.q
}

func (f *modernStub) Readiness(mask pollqueue.EventMask) pollqueue.EventMask {
	return 0
}

type legacyStub struct {
	fdtable.Refs
	watches fdtable.WatchList
}

func newLegacyStub() *legacyStub {
	f := &legacyStub{}
	f.Refs.Init()
	return f
}

func (f *legacyStub) DecRef() {
	f.Refs.DecRef(nil)
}

func (f *legacyStub) VPoll(w fdtable.EventWatch) (pollqueue.EventMask, error) {
	return 0, nil
}

func (f *legacyStub) Watches() *fdtable.WatchList {
	return &f.watches
}

type watchStub struct {
	signals int
	closes  int
}

func (w *watchStub) Signal(pollqueue.EventMask) { w.signals++ }
func (w *watchStub) FileClosed()                { w.closes++ }

func TestInstallGetClose(t *testing.T) {
	tbl := fdtable.NewTable()
	f := newModernStub()
	fd := tbl.Install(f, 0)
	assert.GreaterOrEqual(t, fd, 3)
	assert.Equal(t, 1, tbl.Len())

	got, err := tbl.Get(fd)
	require.Nil(t, err)
	assert.Equal(t, fdtable.File(f), got)
	got.DecRef()

	require.Nil(t, tbl.Close(fd))
	assert.True(t, f.released)
	assert.Equal(t, 0, tbl.Len())

	_, err = tbl.Get(fd)
	assert.Equal(t, fdtable.ErrBadFd, err)
	assert.Equal(t, fdtable.ErrBadFd, tbl.Close(fd))
}

func TestFdReuse(t *testing.T) {
	tbl := fdtable.NewTable()
	fd1 := tbl.Install(newModernStub(), 0)
	fd2 := tbl.Install(newModernStub(), 0)
	assert.NotEqual(t, fd1, fd2)
	require.Nil(t, tbl.Close(fd1))
	fd3 := tbl.Install(newModernStub(), 0)
	assert.Equal(t, fd1, fd3)
}

func TestFlags(t *testing.T) {
	tbl := fdtable.NewTable()
	fd := tbl.Install(newModernStub(), fdtable.FlagCloexec)
	flags, err := tbl.Flags(fd)
	require.Nil(t, err)
	assert.NotZero(t, flags&fdtable.FlagCloexec)
	_, err = tbl.Flags(999)
	assert.Equal(t, fdtable.ErrBadFd, err)
}

func TestGetFailsOnDyingFile(t *testing.T) {
	tbl := fdtable.NewTable()
	f := newModernStub()
	fd := tbl.Install(f, 0)
	// Drop the table's reference behind its back; the slot remains but the
	// weak upgrade must fail.
	f.DecRef()
	_, err := tbl.Get(fd)
	assert.Equal(t, fdtable.ErrBadFd, err)
}

func TestCloseDrainsLegacyWatches(t *testing.T) {
	tbl := fdtable.NewTable()
	f := newLegacyStub()
	fd := tbl.Install(f, 0)
	w1, w2 := &watchStub{}, &watchStub{}
	f.Watches().Attach(w1)
	f.Watches().Attach(w2)
	require.Equal(t, 2, f.Watches().Len())

	require.Nil(t, tbl.Close(fd))
	assert.Equal(t, 1, w1.closes)
	assert.Equal(t, 1, w2.closes)
	assert.Equal(t, 0, f.Watches().Len())
}

func TestWatchListDetach(t *testing.T) {
	var l fdtable.WatchList
	w1, w2 := &watchStub{}, &watchStub{}
	l.Attach(w1)
	l.Attach(w2)
	l.Detach(w1)
	l.Detach(w1)
	assert.Equal(t, 1, l.Len())
	drained := l.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, fdtable.EventWatch(w2), drained[0])
	assert.Equal(t, 0, l.Len())
}

func TestRefs(t *testing.T) {
	var r fdtable.Refs
	r.Init()
	assert.True(t, r.IncRef())
	released := 0
	rel := func() { released++ }
	r.DecRef(rel)
	assert.Equal(t, 0, released)
	r.DecRef(rel)
	assert.Equal(t, 1, released)
	assert.False(t, r.IncRef())
}
