/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package transport

import (
	"context"
	"net"
	"time"

	"github.com/gothrift/gothrift/connstate"
	"github.com/gothrift/gothrift/frame"
	"github.com/gothrift/gothrift/netx"
)

// Conn is a framed duplex stream: Send/Receive exchange whole message
// payloads, with frame.ReadFrame/WriteFrame handling the length prefix
// underneath. It is not safe for concurrent use by multiple goroutines on
// the same direction (concurrent Send calls, or concurrent Receive calls)
// - the client/server engines serialize access per connection themselves.
type Conn interface {
	// Send writes payload as a single frame.
	Send(payload []byte) error
	// Receive reads the next frame's payload. The returned slice is only
	// valid until the next Receive call.
	Receive() ([]byte, error)
	// State reports whether the peer has closed its side.
	State() connstate.ConnState
	// Close closes the underlying socket.
	Close() error
	// RemoteAddr returns the address of the connection's peer.
	RemoteAddr() net.Addr
}

type conn struct {
	nc netx.Conn
}

// WrapConn adapts an already-established net.Conn into a framed transport.Conn.
func WrapConn(nc net.Conn) (Conn, error) {
	wrapped, err := netx.Wrap(nc)
	if err != nil {
		return nil, err
	}
	return &conn{nc: wrapped}, nil
}

func (c *conn) Send(payload []byte) error {
	return frame.WriteFrame(c.nc.Writer(), payload)
}

func (c *conn) Receive() ([]byte, error) {
	return frame.ReadFrame(c.nc.Reader())
}

func (c *conn) State() connstate.ConnState {
	return c.nc.State()
}

func (c *conn) Close() error {
	return c.nc.Close()
}

func (c *conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}

// Dialer establishes framed connections to a Target, wrapping net.Dialer
// with a context deadline exactly as the single `connect` entrypoint in
// the tutorial this runtime generalizes does.
type Dialer struct {
	// Timeout bounds the TCP/UNIX handshake itself; zero means no deadline
	// beyond ctx's own.
	Timeout time.Duration
}

// Dial connects to target and returns a framed Conn.
func (d Dialer) Dial(ctx context.Context, target Target) (Conn, error) {
	nd := net.Dialer{Timeout: d.Timeout}
	nc, err := nd.DialContext(ctx, target.Network, target.Address)
	if err != nil {
		return nil, err
	}
	return WrapConn(nc)
}

// Listener accepts framed connections on a Target.
type Listener struct {
	net.Listener
}

// Listen opens a listener on target.
func Listen(target Target) (*Listener, error) {
	ln, err := net.Listen(target.Network, target.Address)
	if err != nil {
		return nil, err
	}
	return &Listener{Listener: ln}, nil
}

// Accept blocks for the next inbound connection and wraps it.
func (l *Listener) Accept() (Conn, error) {
	nc, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return WrapConn(nc)
}
