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

package client

import (
	"context"
	"testing"
	"time"

	"github.com/gothrift/gothrift/message"
	"github.com/gothrift/gothrift/protocol/thrift"
	"github.com/gothrift/gothrift/transport"
	"github.com/stretchr/testify/require"
)

// strArg is a minimal hand-written stand-in for a generated single-string
// Args/Result struct, field id 1.
type strArg struct {
	Value string
}

func (a *strArg) BLength() int {
	return thrift.Binary.FieldBeginLength() + thrift.Binary.StringLength(a.Value) +
		thrift.Binary.FieldStopLength()
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
		l, err = thrift.Binary.Skip(buf[off:], tp)
		if err != nil {
			return off, err
		}
		off += l
	}
}

// startEchoServer accepts a single connection, reads one call, and replies
// with a REPLY carrying the same payload, echoing the request's method and
// sequence id unless override* is set.
func startEchoServer(t *testing.T, overrideMethod string, overrideSeq int32, asException bool) transport.Target {
	t.Helper()
	ln, err := transport.Listen(transport.Target{Network: "tcp", Address: "127.0.0.1:0"})
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		reqBuf, err := conn.Receive()
		if err != nil {
			return
		}
		var reqArgs strArg
		reqCtx, err := message.Unmarshal(reqBuf, &reqArgs, false)
		if err != nil {
			return
		}
		if reqCtx.Type == thrift.ONEWAY {
			return
		}

		method := reqCtx.Method
		if overrideMethod != "" {
			method = overrideMethod
		}
		seq := reqCtx.SeqID
		if overrideSeq != 0 {
			seq = overrideSeq
		}

		typeID := thrift.TMessageType(thrift.REPLY)
		var respBuf []byte
		if asException {
			typeID = thrift.EXCEPTION
			appErr := thrift.NewApplicationError(thrift.ApplicationInternalError, "boom")
			var mb []byte
			mb = thrift.Binary.AppendMessageBegin(mb, method, typeID, seq)
			eb := make([]byte, appErr.BLength())
			appErr.Encode(eb)
			respBuf = append(mb, eb...)
		} else {
			respCtx := message.NewContext(context.Background(), method, seq, typeID)
			respBuf, _ = message.Marshal(respCtx, &strArg{Value: reqArgs.Value}, true)
		}
		_ = conn.Send(respBuf)
	}()

	return transport.Target{Network: "tcp", Address: ln.Addr().String()}
}

func TestClientCallRoundTrip(t *testing.T) {
	target := startEchoServer(t, "", 0, false)
	c := New(target, WithDialTimeout(time.Second))

	var result strArg
	err := c.Call(context.Background(), "Echo", &strArg{Value: "hi"}, &result)
	require.NoError(t, err)
	require.Equal(t, "hi", result.Value)
}

func TestClientCallSeqNumbersStartAtTwo(t *testing.T) {
	c := New(transport.Target{Network: "tcp", Address: "127.0.0.1:1"})
	require.EqualValues(t, 2, c.nextSeq())
	require.EqualValues(t, 3, c.nextSeq())
}

func TestClientCallExceptionPropagates(t *testing.T) {
	target := startEchoServer(t, "", 0, true)
	c := New(target, WithDialTimeout(time.Second))

	var result strArg
	err := c.Call(context.Background(), "Echo", &strArg{Value: "hi"}, &result)
	require.Error(t, err)

	var appErr *thrift.ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, thrift.ApplicationInternalError, appErr.Kind())
}

func TestClientCallWrongMethodName(t *testing.T) {
	target := startEchoServer(t, "NotEcho", 0, false)
	c := New(target, WithDialTimeout(time.Second))

	var result strArg
	err := c.Call(context.Background(), "Echo", &strArg{Value: "hi"}, &result)
	require.Error(t, err)

	var appErr *thrift.ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, thrift.ApplicationWrongMethodName, appErr.Kind())
}

func TestClientCallBadSequenceID(t *testing.T) {
	target := startEchoServer(t, "", 999, false)
	c := New(target, WithDialTimeout(time.Second))

	var result strArg
	err := c.Call(context.Background(), "Echo", &strArg{Value: "hi"}, &result)
	require.Error(t, err)

	var appErr *thrift.ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, thrift.ApplicationBadSequenceID, appErr.Kind())
}

func TestClientOneWayDoesNotBlockOnReply(t *testing.T) {
	target := startEchoServer(t, "", 0, false)
	c := New(target, WithDialTimeout(time.Second))

	err := c.OneWay(context.Background(), "Fire", &strArg{Value: "ignored"})
	require.NoError(t, err)
}

func TestClientCallTimeout(t *testing.T) {
	ln, err := transport.Listen(transport.Target{Network: "tcp", Address: "127.0.0.1:0"})
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Receive() // read but never reply
		select {}
	}()

	c := New(transport.Target{Network: "tcp", Address: ln.Addr().String()})
	var result strArg
	err = c.Call(context.Background(), "Echo", &strArg{Value: "hi"}, &result, WithTimeout(50*time.Millisecond))
	require.Error(t, err)
}
