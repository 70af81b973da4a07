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

// Package server implements the RPC server engine: an accept loop, a
// per-connection read/dispatch/write loop, a service-wide concurrency cap,
// and the mapping from handler errors and panics to wire exceptions.
package server

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/gothrift/gothrift"
	"github.com/gothrift/gothrift/concurrency/gopool"
	"github.com/gothrift/gothrift/protocol/thrift"
	"github.com/gothrift/gothrift/transport"
)

// DefaultConcurrency is the service-wide concurrency cap applied when no
// WithConcurrency option is given; DefaultBuffer is the worker pool's task
// queue size applied when no WithPool option is given.
const (
	DefaultBuffer      = 1000
	DefaultConcurrency = 1000
)

// Handler dispatches one decoded call: method is the wire method name, body
// is the bytes immediately following MessageBegin (the generated Args
// struct's wire encoding), and the returned bytes are the generated Result
// struct's wire encoding. Generated *Server adapters implement this by
// looking up method in a per-service dispatch table.
type Handler interface {
	Handle(ctx context.Context, method string, body []byte) ([]byte, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, method string, body []byte) ([]byte, error)

func (f HandlerFunc) Handle(ctx context.Context, method string, body []byte) ([]byte, error) {
	return f(ctx, method, body)
}

// Middleware wraps a Handler with cross-cutting behavior. Only a single
// layer is applied by Server, matching the "single-layer request/response
// pipeline" this runtime supports.
type Middleware func(Handler) Handler

// Option configures a Server.
type Option func(*Server)

// WithLogger overrides the server's logger; gothrift.DefaultLogger is used otherwise.
func WithLogger(l gothrift.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithConcurrency overrides the service-wide concurrency cap (DefaultConcurrency).
func WithConcurrency(limit int) Option {
	return func(s *Server) { s.sem = semaphore.NewWeighted(int64(limit)) }
}

// WithMiddleware installs a single middleware layer around the handler.
func WithMiddleware(mw Middleware) Option {
	return func(s *Server) { s.middleware = mw }
}

// WithPool overrides the gopool.GoPool that runs per-request handler calls.
// Otherwise gopool.DefaultOption() is used with its task queue size set to
// DefaultBuffer.
func WithPool(o *gopool.Option) Option {
	return func(s *Server) { s.pool = gopool.NewGoPool("gothrift-server", o) }
}

// WithNonStrictProtocol makes the server accept and emit the legacy,
// pre-VERSION_1 MessageBegin layout (spec §4.1 non-strict mode) instead of
// requiring/writing the strict VERSION_1 header, for interop with peers
// that don't speak VERSION_1.
func WithNonStrictProtocol() Option {
	return func(s *Server) { s.strict = false }
}

// Server accepts connections on a transport.Listener and dispatches each
// decoded call to a Handler, applying a service-wide concurrency cap.
type Server struct {
	handler    Handler
	middleware Middleware
	logger     gothrift.Logger
	sem        *semaphore.Weighted
	pool       *gopool.GoPool
	strict     bool
}

// New creates a Server dispatching to handler.
func New(handler Handler, opts ...Option) *Server {
	s := &Server{
		handler: handler,
		logger:  gothrift.DefaultLogger,
		sem:     semaphore.NewWeighted(DefaultConcurrency),
		strict:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.middleware != nil {
		s.handler = s.middleware(s.handler)
	}
	if s.pool == nil {
		o := gopool.DefaultOption()
		o.TaskChanBuffer = DefaultBuffer
		s.pool = gopool.NewGoPool("gothrift-server", o)
	}
	return s
}

// Serve accepts connections on ln until ctx is done or Accept returns a
// non-context error, dispatching each to its own supervised goroutine via
// errgroup.
func (s *Server) Serve(ctx context.Context, ln *transport.Listener) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-egCtx.Done():
					return nil
				default:
					return err
				}
			}
			eg.Go(func() error {
				s.serveConn(egCtx, conn)
				return nil
			})
		}
	})
	go func() {
		<-egCtx.Done()
		_ = ln.Close()
	}()
	return eg.Wait()
}

func (s *Server) serveConn(ctx context.Context, conn transport.Conn) {
	defer conn.Close()
	for {
		reqBuf, err := conn.Receive()
		if err != nil {
			return
		}
		if reqBuf == nil {
			continue
		}
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return
		}
		respBuf, ok := s.dispatch(ctx, reqBuf)
		s.sem.Release(1)
		if !ok {
			continue // one-way call: no reply sent
		}
		if respBuf == nil {
			return
		}
		if err := conn.Send(respBuf); err != nil {
			s.logger.Warnf("gothrift: send reply failed: %v", err)
			return
		}
	}
}

// dispatch decodes a MessageBegin header from reqBuf, runs the handler
// (on the gopool worker pool), and builds the REPLY/EXCEPTION
// message to send back. ok is false for a ONEWAY call, meaning the caller
// must not send anything back even on error, per the one-way suppression
// policy.
func (s *Server) dispatch(ctx context.Context, reqBuf []byte) (respBuf []byte, ok bool) {
	method, typeID, seq, off, err := thrift.Binary.ReadMessageBegin(reqBuf, s.strict)
	if err != nil {
		s.logger.Errorf("gothrift: malformed message: %v", err)
		return nil, false
	}
	isOneWay := typeID == thrift.ONEWAY

	type result struct {
		body []byte
		err  error
	}
	done := make(chan result, 1)
	s.pool.CtxGo(ctx, func() {
		body, err := s.invoke(ctx, method, reqBuf[off:])
		done <- result{body: body, err: err}
	})

	var res result
	select {
	case <-ctx.Done():
		return nil, !isOneWay
	case res = <-done:
	}

	if isOneWay {
		return nil, false
	}

	if res.err != nil {
		appErr, isAppErr := res.err.(*thrift.ApplicationError)
		if !isAppErr {
			appErr = thrift.NewApplicationError(thrift.ApplicationUnknown, res.err.Error())
		}
		var buf []byte
		if s.strict {
			buf = thrift.Binary.AppendMessageBegin(buf, method, thrift.EXCEPTION, seq)
		} else {
			buf = thrift.Binary.AppendMessageBeginNonStrict(buf, method, thrift.EXCEPTION, seq)
		}
		errBuf := make([]byte, appErr.BLength())
		appErr.Encode(errBuf)
		return append(buf, errBuf...), true
	}

	var buf []byte
	var n int
	if s.strict {
		buf = make([]byte, thrift.Binary.MessageBeginLength(method)+len(res.body))
		n = thrift.Binary.WriteMessageBegin(buf, method, thrift.REPLY, seq)
	} else {
		buf = make([]byte, thrift.Binary.MessageBeginLengthNonStrict(method)+len(res.body))
		n = thrift.Binary.WriteMessageBeginNonStrict(buf, method, thrift.REPLY, seq)
	}
	copy(buf[n:], res.body)
	return buf, true
}

func (s *Server) invoke(ctx context.Context, method string, body []byte) (respBody []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("gothrift: panic in handler for %s: %v", method, r)
			err = thrift.NewApplicationError(thrift.ApplicationInternalError, "panic in handler")
		}
	}()
	return s.handler.Handle(ctx, method, body)
}
