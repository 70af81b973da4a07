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

// Package message implements the RPC message contract and codec: a
// message is a MessageBegin header (method, type, sequence id) followed by
// a generated Args or Result struct body, with Exception-typed messages
// carrying a thrift.ApplicationError body instead of the method's own
// Result type.
package message

import (
	"context"

	"github.com/bytedance/gopkg/lang/dirtmake"
	"github.com/gothrift/gothrift/protocol/thrift"
)

// Codec is implemented by generated Args/Result types (see the gen
// package). It mirrors the shape of a thriftgo fastcodec struct without
// requiring the nocopy writer plumbing this runtime does not use.
type Codec interface {
	BLength() int
	Write(buf []byte) int
	Read(buf []byte) (int, error)
}

// Context is the per-call mutable bag threaded through client dispatch,
// server dispatch and generated adapters: method name, sequence number,
// message type, a context.Context for cancellation/deadlines, and a
// freeform string metadata map generated structs may expose as a field
// but which the runtime itself never interprets.
type Context struct {
	Ctx    context.Context
	Method string
	SeqID  int32
	Type   thrift.TMessageType
	Meta   map[string]string
}

// NewContext builds a Context for an outbound CALL/ONEWAY message.
func NewContext(ctx context.Context, method string, seqID int32, typeID thrift.TMessageType) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{Ctx: ctx, Method: method, SeqID: seqID, Type: typeID}
}

// WithMeta attaches a metadata key/value and returns the receiver for chaining.
func (c *Context) WithMeta(key, value string) *Context {
	if c.Meta == nil {
		c.Meta = make(map[string]string)
	}
	c.Meta[key] = value
	return c
}

// Marshal encodes a MessageBegin header for mc followed by msg's wire body
// into a single freshly-allocated buffer, mirroring fastcodec.go's
// MarshalFastMsg but against the Codec interface above instead of the
// nocopy FastCodec one. strict selects the VERSION_1 header (spec §4.1
// strict mode); pass false to emit the legacy name-first layout instead for
// peers that don't speak VERSION_1.
func Marshal(mc *Context, msg Codec, strict bool) ([]byte, error) {
	if mc.Method == "" {
		return nil, thrift.NewProtocolError(thrift.ProtocolInvalidData, "message: method not set")
	}
	var sz, off int
	buf := dirtmake.Bytes(0, 0)
	if strict {
		sz = thrift.Binary.MessageBeginLength(mc.Method) + msg.BLength()
		buf = dirtmake.Bytes(sz, sz)
		off = thrift.Binary.WriteMessageBegin(buf, mc.Method, mc.Type, mc.SeqID)
	} else {
		sz = thrift.Binary.MessageBeginLengthNonStrict(mc.Method) + msg.BLength()
		buf = dirtmake.Bytes(sz, sz)
		off = thrift.Binary.WriteMessageBeginNonStrict(buf, mc.Method, mc.Type, mc.SeqID)
	}
	msg.Write(buf[off:])
	return buf, nil
}

// Unmarshal reads a MessageBegin header from buf and decodes the body into
// msg. If the header's type is EXCEPTION, the body is decoded as a
// thrift.ApplicationError and returned as err instead of being written
// into msg, matching UnmarshalFastMsg's EXCEPTION handling. requireStrict
// rejects a peer still speaking the legacy non-strict dialect instead of
// silently accepting it; pass false to accept either wire dialect.
func Unmarshal(buf []byte, msg Codec, requireStrict bool) (mc *Context, err error) {
	method, typeID, seq, off, err := thrift.Binary.ReadMessageBegin(buf, requireStrict)
	if err != nil {
		return nil, err
	}
	mc = &Context{Method: method, Type: typeID, SeqID: seq}

	if typeID == thrift.EXCEPTION {
		var appErr thrift.ApplicationError
		if _, err = appErr.Decode(buf[off:]); err != nil {
			return mc, err
		}
		return mc, &appErr
	}
	if _, err = msg.Read(buf[off:]); err != nil {
		return mc, err
	}
	return mc, nil
}
