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

package message

import (
	"context"
	"testing"

	"github.com/gothrift/gothrift/protocol/thrift"
	"github.com/stretchr/testify/require"
)

// pingArgs is a minimal hand-written stand-in for a generated Args struct:
// one required string field, id 1.
type pingArgs struct {
	Name string
}

func (a *pingArgs) BLength() int {
	return thrift.Binary.FieldBeginLength() + thrift.Binary.StringLength(a.Name) +
		thrift.Binary.FieldStopLength()
}

func (a *pingArgs) Write(buf []byte) int {
	off := thrift.Binary.WriteFieldBegin(buf, thrift.STRING, 1)
	off += thrift.Binary.WriteString(buf[off:], a.Name)
	off += thrift.Binary.WriteFieldStop(buf[off:])
	return off
}

func (a *pingArgs) Read(buf []byte) (int, error) {
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
			a.Name, l, err = thrift.Binary.ReadString(buf[off:])
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

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	mc := NewContext(context.Background(), "Ping", 2, thrift.CALL)
	args := &pingArgs{Name: "world"}

	buf, err := Marshal(mc, args, true)
	require.NoError(t, err)

	var got pingArgs
	gotCtx, err := Unmarshal(buf, &got, true)
	require.NoError(t, err)
	require.Equal(t, "Ping", gotCtx.Method)
	require.EqualValues(t, 2, gotCtx.SeqID)
	require.Equal(t, thrift.TMessageType(thrift.CALL), gotCtx.Type)
	require.Equal(t, "world", got.Name)
}

func TestUnmarshalExceptionMessage(t *testing.T) {
	mc := NewContext(context.Background(), "Ping", 3, thrift.EXCEPTION)
	appErr := thrift.NewApplicationError(thrift.ApplicationUnknownMethod, "no such method")

	var buf []byte
	buf = thrift.Binary.AppendMessageBegin(buf, mc.Method, mc.Type, mc.SeqID)
	errBuf := make([]byte, appErr.BLength())
	appErr.Encode(errBuf)
	buf = append(buf, errBuf...)

	var dummy pingArgs
	gotCtx, err := Unmarshal(buf, &dummy, true)
	require.Error(t, err)
	require.Equal(t, "Ping", gotCtx.Method)

	var got *thrift.ApplicationError
	require.ErrorAs(t, err, &got)
	require.Equal(t, thrift.ApplicationUnknownMethod, got.Kind())
}

func TestMarshalRejectsEmptyMethod(t *testing.T) {
	mc := NewContext(context.Background(), "", 1, thrift.CALL)
	_, err := Marshal(mc, &pingArgs{}, true)
	require.Error(t, err)
}

// TestMarshalUnmarshalNonStrictRoundTrip covers the legacy wire dialect
// end to end through the message layer, not just the binary codec.
func TestMarshalUnmarshalNonStrictRoundTrip(t *testing.T) {
	mc := NewContext(context.Background(), "Ping", 2, thrift.CALL)
	args := &pingArgs{Name: "world"}

	buf, err := Marshal(mc, args, false)
	require.NoError(t, err)

	var got pingArgs
	gotCtx, err := Unmarshal(buf, &got, false)
	require.NoError(t, err)
	require.Equal(t, "Ping", gotCtx.Method)
	require.EqualValues(t, 2, gotCtx.SeqID)
	require.Equal(t, "world", got.Name)
}

func TestWithMetaChaining(t *testing.T) {
	mc := NewContext(context.Background(), "Ping", 1, thrift.CALL)
	mc.WithMeta("trace-id", "abc").WithMeta("shard", "3")
	require.Equal(t, "abc", mc.Meta["trace-id"])
	require.Equal(t, "3", mc.Meta["shard"])
}
