// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package link implements the single-producer/single-consumer bounded
// ring of packet handles that carries data between two apps.
package link

import (
	"github.com/intel-go/breathe/internal/common"
	"github.com/intel-go/breathe/packet"
)

// DefaultCapacity is used when an engine option doesn't override it.
// It must stay a power of two; see New.
const DefaultCapacity = 1024

// Link is a fixed-capacity ring of packet handles between one
// producer's output port and one consumer's input port. Links never
// grow: Put on a full ring drops the packet and counts it, which is
// the engine's normal backpressure signal, not an error.
//
// A Link never holds a pointer to either endpoint app. The consumer's
// position in the engine's active app array is cached in
// ConsumerIndex so the push fixed-point can dispatch without a name
// lookup; the engine is responsible for keeping it current.
type Link struct {
	Spec string

	ring []*packet.Packet
	head int
	tail int
	size int

	// HasNewData is set on every successful Put and cleared by the
	// engine when the push sweep visits this link.
	HasNewData bool

	// ConsumerIndex is the consumer app's index into the engine's
	// active app array, cached here for the push fixed-point.
	ConsumerIndex int

	RxPackets uint64
	RxBytes   uint64
	TxPackets uint64
	TxBytes   uint64
	TxDrop    uint64
}

// New creates a Link with the given ring capacity, which must be a
// power of two.
func New(spec string, capacity int) *Link {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		common.LogFatal("link capacity must be a power of two, got", capacity)
	}
	return &Link{
		Spec: spec,
		ring: make([]*packet.Packet, capacity),
	}
}

// Cap returns the ring's fixed capacity.
func (l *Link) Cap() int { return len(l.ring) }

// PullCap is the maximum number of packets a producer should enqueue
// onto this link in a single pull invocation, leaving headroom for
// other producers and for the push side to drain.
func (l *Link) PullCap() int {
	c := len(l.ring) / 10
	if c < 1 {
		c = 1
	}
	return c
}

// Len returns the number of packets currently buffered.
func (l *Link) Len() int { return l.size }

// Full reports whether the ring has no free slots.
func (l *Link) Full() bool { return l.size == len(l.ring) }

// Empty reports whether the ring holds no packets.
func (l *Link) Empty() bool { return l.size == 0 }

// Put enqueues p onto the ring. If the ring is full, p is not
// enqueued, TxDrop is incremented, and Put returns false: this is
// normal backpressure, not an error, and the caller (the producer's
// pull or push hook) remains responsible for the packet's handle.
func (l *Link) Put(p *packet.Packet) bool {
	if l.Full() {
		l.TxDrop++
		return false
	}
	l.ring[l.tail] = p
	l.tail = (l.tail + 1) % len(l.ring)
	l.size++
	l.TxPackets++
	l.TxBytes += uint64(p.Length())
	l.HasNewData = true
	return true
}

// Get dequeues the oldest buffered packet, if any.
func (l *Link) Get() (*packet.Packet, bool) {
	if l.Empty() {
		return nil, false
	}
	p := l.ring[l.head]
	l.ring[l.head] = nil
	l.head = (l.head + 1) % len(l.ring)
	l.size--
	l.RxPackets++
	l.RxBytes += uint64(p.Length())
	return p, true
}
