// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package packet provides the fixed-capacity buffer that is the unit of
// data flowing over links, plus the arena that hands them out and takes
// them back.
package packet

import "sync/atomic"

// MaxSize is the compile-time maximum number of bytes a Packet can
// carry.
const MaxSize = 10 * 1024

// Packet is a fixed-capacity byte buffer with a length. Its handle
// passes by ownership: whoever holds a *Packet is expected to either
// forward it onto an output port or call Pool.Free on it exactly once.
type Packet struct {
	data   [MaxSize]byte
	length int
}

// Data returns the packet's used bytes. The returned slice aliases the
// packet's internal storage and is only valid until the packet is
// freed or its length changed.
func (p *Packet) Data() []byte {
	return p.data[:p.length]
}

// Length returns the number of used bytes.
func (p *Packet) Length() int {
	return p.length
}

// SetLength truncates or extends the used region. n must not exceed
// MaxSize.
func (p *Packet) SetLength(n int) {
	if n < 0 || n > MaxSize {
		panic("packet: length out of range")
	}
	p.length = n
}

// Append copies b onto the end of the packet's used region, extending
// the length. It panics if b would overflow MaxSize, mirroring the
// fixed-capacity contract described in the data model.
func (p *Packet) Append(b []byte) {
	n := p.length + len(b)
	if n > MaxSize {
		panic("packet: append exceeds MaxSize")
	}
	copy(p.data[p.length:n], b)
	p.length = n
}

// Pool is an arena of fixed-capacity Packet buffers: a free-list that
// apps draw from and return to instead of relying on the garbage
// collector for the hot path. It also carries the engine's process-wide
// free counters, since a free is only ever observed here.
type Pool struct {
	free []*Packet

	frees     uint64
	freebytes uint64
	freebits  uint64
}

// NewPool preallocates a pool of n packet buffers.
func NewPool(n int) *Pool {
	pool := &Pool{free: make([]*Packet, 0, n)}
	for i := 0; i < n; i++ {
		pool.free = append(pool.free, new(Packet))
	}
	return pool
}

// Alloc removes a buffer from the free-list, or allocates a fresh one
// if the arena is exhausted. The returned packet has length 0.
func (pool *Pool) Alloc() *Packet {
	if n := len(pool.free); n > 0 {
		p := pool.free[n-1]
		pool.free = pool.free[:n-1]
		p.length = 0
		return p
	}
	return new(Packet)
}

// Free returns a packet to the arena and bumps the pool's free
// counters (engine/frees, engine/freebytes, engine/freebits).
func (pool *Pool) Free(p *Packet) {
	atomic.AddUint64(&pool.frees, 1)
	atomic.AddUint64(&pool.freebytes, uint64(p.length))
	atomic.AddUint64(&pool.freebits, uint64(p.length)*8)
	pool.free = append(pool.free, p)
}

// Frees returns the running total of packets freed through this pool.
func (pool *Pool) Frees() uint64 { return atomic.LoadUint64(&pool.frees) }

// FreeBytes returns the running total of bytes freed through this pool.
func (pool *Pool) FreeBytes() uint64 { return atomic.LoadUint64(&pool.freebytes) }

// FreeBits returns the running total of bits freed through this pool.
func (pool *Pool) FreeBits() uint64 { return atomic.LoadUint64(&pool.freebits) }
