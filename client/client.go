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

// Package client implements the RPC client engine: per-call sequence
// numbering, and Call/OneWay dispatch over a freshly dialed transport.Conn,
// run through a gopool worker pool. The pool reuses its worker goroutines;
// a task that finds the pool's queue full runs on a new goroutine, so the
// pool does not cap the number of goroutines.
package client

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gothrift/gothrift"
	"github.com/gothrift/gothrift/concurrency/gopool"
	"github.com/gothrift/gothrift/message"
	"github.com/gothrift/gothrift/protocol/thrift"
	"github.com/gothrift/gothrift/transport"
)

// Option configures a Client.
type Option func(*config)

type config struct {
	logger      gothrift.Logger
	dialTimeout time.Duration
	pool        *gopool.GoPool
	strict      bool
}

// WithLogger overrides the client's logger; DefaultLogger is used otherwise.
func WithLogger(l gothrift.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithDialTimeout bounds how long dialing a fresh connection may take.
func WithDialTimeout(d time.Duration) Option {
	return func(c *config) { c.dialTimeout = d }
}

// WithConcurrency sets the options of the worker pool that runs Call/OneWay
// dispatch. gopool.DefaultOption() is used if this is not set.
func WithConcurrency(o *gopool.Option) Option {
	return func(c *config) { c.pool = gopool.NewGoPool("gothrift-client", o) }
}

// WithNonStrictProtocol makes the client write and accept the legacy,
// pre-VERSION_1 MessageBegin layout (spec §4.1 non-strict mode) instead of
// the default strict header, for interop with peers that don't speak
// VERSION_1.
func WithNonStrictProtocol() Option {
	return func(c *config) { c.strict = false }
}

// CallOption configures a single Call or OneWay invocation.
type CallOption func(*callConfig)

type callConfig struct {
	timeout time.Duration
}

// WithTimeout wraps the call in a context.WithTimeout of d, surfaced as a
// transport error (context.DeadlineExceeded) if exceeded.
func WithTimeout(d time.Duration) CallOption {
	return func(c *callConfig) { c.timeout = d }
}

// Client dispatches Thrift calls to a single Target. It does not pool
// connections at this revision: every Call/OneWay dials its own
// transport.Conn, matching spec's "per-call transport construction" client
// engine design.
type Client struct {
	target transport.Target
	cfg    config
	seq    int32 // atomic; pre-seeded to 1, so the first assigned seq is 2
}

// New creates a Client that dials target for every call.
func New(target transport.Target, opts ...Option) *Client {
	cfg := config{
		logger:      gothrift.DefaultLogger,
		dialTimeout: 0,
		strict:      true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.pool == nil {
		cfg.pool = gopool.NewGoPool("gothrift-client", gopool.DefaultOption())
	}
	return &Client{target: target, cfg: cfg, seq: 1}
}

// nextSeq assigns the next sequence number. Numbering starts at 2: seq is
// pre-seeded to 1 in New, so the first AddInt32 observes 2, matching the
// monotonic-starting-at-2 contract.
func (c *Client) nextSeq() int32 {
	return atomic.AddInt32(&c.seq, 1)
}

// Call sends method(args) and decodes the reply into result. It blocks
// until the reply arrives, ctx is done, or an optional CallOption timeout
// elapses.
func (c *Client) Call(ctx context.Context, method string, args message.Codec, result message.Codec, opts ...CallOption) error {
	cc := callConfig{}
	for _, opt := range opts {
		opt(&cc)
	}
	if cc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cc.timeout)
		defer cancel()
	}

	seq := c.nextSeq()
	done := make(chan error, 1)
	c.cfg.pool.CtxGo(ctx, func() {
		done <- c.call(ctx, method, seq, args, result)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (c *Client) call(ctx context.Context, method string, seq int32, args, result message.Codec) error {
	conn, err := (transport.Dialer{Timeout: c.cfg.dialTimeout}).Dial(ctx, c.target)
	if err != nil {
		return err
	}
	defer conn.Close()

	mc := message.NewContext(ctx, method, seq, thrift.CALL)
	buf, err := message.Marshal(mc, args, c.cfg.strict)
	if err != nil {
		return err
	}
	if err = conn.Send(buf); err != nil {
		return err
	}

	reply, err := conn.Receive()
	if err != nil {
		return err
	}

	replyCtx, err := message.Unmarshal(reply, result, c.cfg.strict)
	if err != nil {
		return err
	}
	if replyCtx.Type != thrift.REPLY {
		return thrift.NewApplicationError(thrift.ApplicationInvalidMessageType,
			"expected REPLY, got a different message type")
	}
	if replyCtx.Method != method {
		return thrift.NewApplicationError(thrift.ApplicationWrongMethodName,
			"expected method "+method+", got "+replyCtx.Method)
	}
	if replyCtx.SeqID != seq {
		return thrift.NewApplicationError(thrift.ApplicationBadSequenceID,
			"sequence id mismatch")
	}
	return nil
}

// OneWay sends method(args) without waiting for a reply. The server
// suppresses any response for a ONEWAY message, so OneWay returns as soon
// as the request has been written.
func (c *Client) OneWay(ctx context.Context, method string, args message.Codec, opts ...CallOption) error {
	cc := callConfig{}
	for _, opt := range opts {
		opt(&cc)
	}
	if cc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cc.timeout)
		defer cancel()
	}

	seq := c.nextSeq()
	done := make(chan error, 1)
	c.cfg.pool.CtxGo(ctx, func() {
		done <- c.oneWay(ctx, method, seq, args)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (c *Client) oneWay(ctx context.Context, method string, seq int32, args message.Codec) error {
	conn, err := (transport.Dialer{Timeout: c.cfg.dialTimeout}).Dial(ctx, c.target)
	if err != nil {
		return err
	}
	defer conn.Close()

	mc := message.NewContext(ctx, method, seq, thrift.ONEWAY)
	buf, err := message.Marshal(mc, args, c.cfg.strict)
	if err != nil {
		return err
	}
	return conn.Send(buf)
}
