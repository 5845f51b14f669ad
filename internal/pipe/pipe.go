// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package pipe provides an in-memory byte pipe exposed as a pair of
// pollable files. The read end reports input readiness while data is
// buffered and hang-up once the write end is gone; the write end reports
// output readiness while buffer space remains and an error condition once
// the read end is gone.
package pipe

import (
	"io"
	"sync"

	"github.com/pkg/errors"

	"trpc.group/trpc-go/eventpoll/internal/fdtable"
	"trpc.group/trpc-go/eventpoll/internal/pollqueue"
	"trpc.group/trpc-go/eventpoll/internal/safejob"
)

// DefaultCapacity is the buffer size used by New.
const DefaultCapacity = 64 * 1024

// ErrWouldBlock is returned by reads on an empty pipe and writes on a full
// one; both ends are non-blocking.
var ErrWouldBlock = errors.New("pipe: operation would block")

// ErrClosed is returned by writes after the read end is gone.
var ErrClosed = errors.New("pipe: read end closed")

type pipe struct {
	mu       sync.Mutex
	buf      []byte
	capacity int
	rClosed  bool
	wClosed  bool
}

// ReadEnd is the consuming side of a pipe.
type ReadEnd struct {
	fdtable.Refs
	p      *pipe
	w      *WriteEnd
	q      pollqueue.Queue
	closed safejob.OnceJob
}

// WriteEnd is the producing side of a pipe.
type WriteEnd struct {
	fdtable.Refs
	p      *pipe
	r      *ReadEnd
	q      pollqueue.Queue
	closed safejob.OnceJob
}

// New returns the two ends of a pipe with the default capacity.
func New() (*ReadEnd, *WriteEnd) {
	return NewSized(DefaultCapacity)
}

// NewSized returns the two ends of a pipe buffering at most capacity
// bytes.
func NewSized(capacity int) (*ReadEnd, *WriteEnd) {
	p := &pipe{capacity: capacity}
	r := &ReadEnd{p: p}
	w := &WriteEnd{p: p}
	r.w, w.r = w, r
	r.Refs.Init()
	w.Refs.Init()
	return r, w
}

// Read consumes up to len(b) buffered bytes. It returns ErrWouldBlock on
// an empty pipe with a live writer, and io.EOF on an empty pipe whose
// writer is gone.
func (r *ReadEnd) Read(b []byte) (int, error) {
	p := r.p
	p.mu.Lock()
	if len(p.buf) == 0 {
		closed := p.wClosed
		p.mu.Unlock()
		if closed {
			return 0, io.EOF
		}
		return 0, ErrWouldBlock
	}
	n := copy(b, p.buf)
	p.buf = p.buf[n:]
	p.mu.Unlock()
	// Space opened up; tell the write end.
	r.w.q.Notify(pollqueue.EventOut)
	return n, nil
}

// Close shuts the read end. Pending data is discarded and the write end
// observes an error condition.
func (r *ReadEnd) Close() {
	if !r.closed.Begin() {
		return
	}
	p := r.p
	p.mu.Lock()
	p.rClosed = true
	p.buf = nil
	p.mu.Unlock()
	r.w.q.Notify(pollqueue.EventErr)
}

// DecRef drops a reference, closing the end when the last one is gone.
func (r *ReadEnd) DecRef() {
	r.Refs.DecRef(r.Close)
}

// PollQueue returns the read end's subscription queue.
func (r *ReadEnd) PollQueue() *pollqueue.Queue {
	return &r.q
}

// Readiness returns the read end's active events intersected with mask.
func (r *ReadEnd) Readiness(mask pollqueue.EventMask) pollqueue.EventMask {
	p := r.p
	p.mu.Lock()
	defer p.mu.Unlock()
	var ev pollqueue.EventMask
	if len(p.buf) > 0 {
		ev |= pollqueue.EventIn
	}
	if p.wClosed {
		ev |= pollqueue.EventHup
	}
	return ev & mask
}

// Write buffers up to len(b) bytes. A full pipe yields ErrWouldBlock, a
// closed read end ErrClosed. Short writes return the count written.
func (w *WriteEnd) Write(b []byte) (int, error) {
	p := w.p
	p.mu.Lock()
	if p.rClosed {
		p.mu.Unlock()
		return 0, ErrClosed
	}
	space := p.capacity - len(p.buf)
	if space == 0 {
		p.mu.Unlock()
		return 0, ErrWouldBlock
	}
	n := len(b)
	if n > space {
		n = space
	}
	p.buf = append(p.buf, b[:n]...)
	p.mu.Unlock()
	// Data arrived; tell the read end.
	w.r.q.Notify(pollqueue.EventIn)
	if n < len(b) {
		return n, ErrWouldBlock
	}
	return n, nil
}

// Close shuts the write end. The read end observes hang-up at once and
// can still drain remaining data before reads return io.EOF.
func (w *WriteEnd) Close() {
	if !w.closed.Begin() {
		return
	}
	p := w.p
	p.mu.Lock()
	p.wClosed = true
	p.mu.Unlock()
	w.r.q.Notify(pollqueue.EventHup)
}

// DecRef drops a reference, closing the end when the last one is gone.
func (w *WriteEnd) DecRef() {
	w.Refs.DecRef(w.Close)
}

// PollQueue returns the write end's subscription queue.
func (w *WriteEnd) PollQueue() *pollqueue.Queue {
	return &w.q
}

// Readiness returns the write end's active events intersected with mask.
func (w *WriteEnd) Readiness(mask pollqueue.EventMask) pollqueue.EventMask {
	p := w.p
	p.mu.Lock()
	defer p.mu.Unlock()
	var ev pollqueue.EventMask
	if p.rClosed {
		ev |= pollqueue.EventErr
	} else if len(p.buf) < p.capacity {
		ev |= pollqueue.EventOut
	}
	return ev & mask
}
