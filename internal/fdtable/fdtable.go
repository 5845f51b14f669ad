// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package fdtable provides the process file-descriptor table: fd
// allocation, borrowed lookups and close-time teardown of the installed
// files.
package fdtable

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrBadFd is returned by lookups on descriptors that are not open.
var ErrBadFd = errors.New("fdtable: bad file descriptor")

// Per-fd flags.
const (
	FlagCloexec = 1 << iota
)

// firstFd keeps the conventional stdio descriptors out of the allocator.
const firstFd = 3

type slot struct {
	file  File
	flags int
}

// Table maps file descriptors to files. Installed files are owned by the
// table (one reference each); Get borrows, Close drops.
type Table struct {
	mu    sync.Mutex
	slots map[int]slot
	free  []int
	next  int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		slots: make(map[int]slot),
		next:  firstFd,
	}
}

// Install places f into the lowest free descriptor and returns it. The
// table takes over the creating reference.
func (t *Table) Install(f File, flags int) int {
	t.mu.Lock()
	fd := t.next
	if n := len(t.free); n > 0 {
		i := 0
		for j := 1; j < n; j++ {
			if t.free[j] < t.free[i] {
				i = j
			}
		}
		fd = t.free[i]
		t.free = append(t.free[:i], t.free[i+1:]...)
	} else {
		t.next++
	}
	t.slots[fd] = slot{file: f, flags: flags}
	t.mu.Unlock()
	return fd
}

// Get borrows the file at fd. The caller must DecRef it when done. A
// descriptor that is not open, or whose file is already dying, yields
// ErrBadFd.
func (t *Table) Get(fd int) (File, error) {
	t.mu.Lock()
	s, ok := t.slots[fd]
	t.mu.Unlock()
	if !ok || !s.file.IncRef() {
		return nil, ErrBadFd
	}
	return s.file, nil
}

// Flags returns the fd flags recorded at Install time.
func (t *Table) Flags(fd int) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[fd]
	if !ok {
		return 0, ErrBadFd
	}
	return s.flags, nil
}

// Close removes fd from the table and drops the table's reference.
//
// For a legacy file the attached watch blocks are evicted first, outside
// the table lock: eviction takes per-watcher locks, and holding the table
// lock across that would pin every other caller behind a close.
func (t *Table) Close(fd int) error {
	t.mu.Lock()
	s, ok := t.slots[fd]
	if !ok {
		t.mu.Unlock()
		return ErrBadFd
	}
	delete(t.slots, fd)
	t.free = append(t.free, fd)
	t.mu.Unlock()

	if lf, ok := s.file.(LegacyFile); ok {
		for _, w := range lf.Watches().Drain() {
			w.FileClosed()
		}
	}
	s.file.DecRef()
	return nil
}

// Len returns the number of open descriptors.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}
