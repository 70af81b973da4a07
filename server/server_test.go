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

package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gothrift/gothrift/message"
	"github.com/gothrift/gothrift/protocol/thrift"
	"github.com/gothrift/gothrift/transport"
	"github.com/stretchr/testify/require"
)

type strArg struct{ Value string }

func (a *strArg) BLength() int {
	return thrift.Binary.FieldBeginLength() + thrift.Binary.StringLength(a.Value) + thrift.Binary.FieldStopLength()
}

func (a *strArg) Write(buf []byte) int {
	off := thrift.Binary.WriteFieldBegin(buf, thrift.STRING, 1)
	off += thrift.Binary.WriteString(buf[off:], a.Value)
	off += thrift.Binary.WriteFieldStop(buf[off:])
	return off
}

func (a *strArg) Read(buf []byte) (int, error) {
	off := 0
	for {
		tp, id, l, err := thrift.Binary.ReadFieldBegin(buf[off:])
		if err != nil {
			return off, err
		}
		off += l
		if tp == thrift.STOP {
			return off, nil
		}
		if id == 1 && tp == thrift.STRING {
			var err error
			a.Value, l, err = thrift.Binary.ReadString(buf[off:])
			if err != nil {
				return off, err
			}
			off += l
			continue
		}
		if l, err = thrift.Binary.Skip(buf[off:], tp); err != nil {
			return off, err
		}
		off += l
	}
}

func echoHandler(oneWaySeen *int32) HandlerFunc {
	return func(ctx context.Context, method string, body []byte) ([]byte, error) {
		var args strArg
		if _, err := args.Read(body); err != nil {
			return nil, err
		}
		switch method {
		case "Boom":
			return nil, errors.New("handler failed")
		case "Panic":
			panic("boom")
		case "Fire":
			atomic.AddInt32(oneWaySeen, 1)
			return nil, nil
		default:
			result := &strArg{Value: args.Value}
			buf := make([]byte, result.BLength())
			result.Write(buf)
			return buf, nil
		}
	}
}

func startTestServer(t *testing.T, opts ...Option) (transport.Target, *int32) {
	t.Helper()
	var oneWaySeen int32
	srv := New(echoHandler(&oneWaySeen), opts...)

	ln, err := transport.Listen(transport.Target{Network: "tcp", Address: "127.0.0.1:0"})
	require.NoError(t, err)
	addr := ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	go srv.Serve(ctx, ln)
	t.Cleanup(cancel)

	return transport.Target{Network: "tcp", Address: addr}, &oneWaySeen
}

func call(t *testing.T, target transport.Target, method string, seq int32, typeID thrift.TMessageType, value string) ([]byte, error) {
	t.Helper()
	d := transport.Dialer{Timeout: time.Second}
	conn, err := d.Dial(context.Background(), target)
	require.NoError(t, err)
	defer conn.Close()

	mc := message.NewContext(context.Background(), method, seq, typeID)
	buf, err := message.Marshal(mc, &strArg{Value: value}, true)
	require.NoError(t, err)
	require.NoError(t, conn.Send(buf))

	if typeID == thrift.ONEWAY {
		return nil, nil
	}
	return conn.Receive()
}

func TestServerReplyRoundTrip(t *testing.T) {
	target, _ := startTestServer(t)
	reply, err := call(t, target, "Echo", 2, thrift.CALL, "hi")
	require.NoError(t, err)

	var result strArg
	replyCtx, err := message.Unmarshal(reply, &result, false)
	require.NoError(t, err)
	require.Equal(t, thrift.TMessageType(thrift.REPLY), replyCtx.Type)
	require.Equal(t, "Echo", replyCtx.Method)
	require.EqualValues(t, 2, replyCtx.SeqID)
	require.Equal(t, "hi", result.Value)
}

func TestServerHandlerErrorBecomesException(t *testing.T) {
	target, _ := startTestServer(t)
	reply, err := call(t, target, "Boom", 2, thrift.CALL, "x")
	require.NoError(t, err)

	var result strArg
	_, err = message.Unmarshal(reply, &result, false)
	require.Error(t, err)

	var appErr *thrift.ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, thrift.ApplicationUnknown, appErr.Kind())
}

func TestServerHandlerPanicBecomesException(t *testing.T) {
	target, _ := startTestServer(t)
	reply, err := call(t, target, "Panic", 2, thrift.CALL, "x")
	require.NoError(t, err)

	var result strArg
	_, err = message.Unmarshal(reply, &result, false)
	require.Error(t, err)

	var appErr *thrift.ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, thrift.ApplicationInternalError, appErr.Kind())
}

func TestServerOneWaySuppressesReply(t *testing.T) {
	target, seen := startTestServer(t)
	_, err := call(t, target, "Fire", 2, thrift.ONEWAY, "ignored")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(seen) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestServerConcurrencyOption(t *testing.T) {
	target, _ := startTestServer(t, WithConcurrency(2))
	reply, err := call(t, target, "Echo", 2, thrift.CALL, "hi")
	require.NoError(t, err)
	require.NotEmpty(t, reply)
}
