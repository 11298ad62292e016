// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tap is a Puller/Pusher app that reads and writes raw
// Ethernet frames on a host network interface through an AF_PACKET
// socket, grounded on the raw-socket send/receive pattern used for
// LLDP framing elsewhere in the pack.
package tap

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/intel-go/breathe/app"
	"github.com/intel-go/breathe/internal/common"
	"github.com/intel-go/breathe/packet"
)

// Class constructs Instance values bound to a named host interface.
type Class struct{}

// ConfigSchema requires "iface" and takes an optional "pool".
func (Class) ConfigSchema() app.Schema {
	return app.Schema{Required: []string{"iface"}, Permitted: []string{"iface", "pool"}}
}

func htons(v uint16) uint16 { return (v<<8)&0xff00 | v>>8 }

// New opens a non-blocking AF_PACKET raw socket bound to iface, so
// Pull's Recvfrom never stalls a breath waiting on the kernel.
func (Class) New(arg map[string]interface{}, ports *app.Ports) (app.Instance, error) {
	name := arg["iface"].(string)
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, common.Wrap(err, "tap: interface "+name, common.BadConstructor)
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW|unix.SOCK_NONBLOCK, int(htons(unix.ETH_P_ALL)))
	if err != nil {
		return nil, common.Wrap(err, "tap: socket", common.BadConstructor)
	}
	if err := unix.Bind(fd, &unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  iface.Index,
	}); err != nil {
		unix.Close(fd)
		return nil, common.Wrap(err, "tap: bind to "+name, common.BadConstructor)
	}

	pool, _ := arg["pool"].(*packet.Pool)
	if pool == nil {
		pool = packet.NewPool(64)
	}
	return &Instance{fd: fd, ifindex: iface.Index, pool: pool, ports: ports}, nil
}

// Instance is one AF_PACKET binding to a host interface.
type Instance struct {
	fd      int
	ifindex int
	pool    *packet.Pool
	ports   *app.Ports
}

// Pull drains up to PullCap() frames currently queued on the socket
// onto "out", stopping at the first EAGAIN.
func (in *Instance) Pull() {
	out := in.ports.Output("out")
	if out == nil {
		return
	}
	buf := make([]byte, packet.MaxSize)
	for i := 0; i < out.PullCap(); i++ {
		n, _, err := unix.Recvfrom(in.fd, buf, 0)
		if err != nil {
			return
		}
		p := in.pool.Alloc()
		p.Append(buf[:n])
		if !out.Put(p) {
			in.pool.Free(p)
		}
	}
}

// Push sends every frame queued on "in" out through the socket.
func (in *Instance) Push() {
	link := in.ports.Input("in")
	if link == nil {
		return
	}
	addr := &unix.SockaddrLinklayer{Ifindex: in.ifindex}
	for {
		p, ok := link.Get()
		if !ok {
			return
		}
		if err := unix.Sendto(in.fd, p.Data(), 0, addr); err != nil {
			common.LogWarning("tap: send error:", err)
		}
		in.pool.Free(p)
	}
}

// Stop closes the raw socket.
func (in *Instance) Stop() {
	unix.Close(in.fd)
}
