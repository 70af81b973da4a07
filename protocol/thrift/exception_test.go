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

package thrift

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplicationErrorRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		kind ApplicationErrorKind
		msg  string
	}{
		{"unknown method", ApplicationUnknownMethod, "no such method: Ping"},
		{"internal", ApplicationInternalError, "panic recovered"},
		{"empty message", ApplicationMissingResult, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := NewApplicationError(c.kind, c.msg)
			buf := make([]byte, e.BLength())
			n := e.Encode(buf)
			require.Equal(t, len(buf), n)

			var got ApplicationError
			off, err := got.Decode(buf)
			require.NoError(t, err)
			require.Equal(t, n, off)
			require.Equal(t, c.kind, got.Kind())
			require.Equal(t, c.msg, got.Msg())
		})
	}
}

func TestApplicationErrorDefaultMessage(t *testing.T) {
	e := NewApplicationError(ApplicationUnknownMethod, "")
	require.Equal(t, "unknown method", e.Error())
}

func TestApplicationErrorDecodeSkipsUnknownFields(t *testing.T) {
	var buf []byte
	buf = Binary.AppendFieldBegin(buf, I16, 99)
	buf = Binary.AppendI16(buf, 7)
	buf = Binary.AppendFieldBegin(buf, STRING, 1)
	buf = Binary.AppendString(buf, "boom")
	buf = Binary.AppendFieldBegin(buf, I32, 2)
	buf = Binary.AppendI32(buf, int32(ApplicationInternalError))
	buf = Binary.AppendFieldStop(buf)

	var got ApplicationError
	off, err := got.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), off)
	require.Equal(t, ApplicationInternalError, got.Kind())
	require.Equal(t, "boom", got.Msg())
}

func TestProtocolErrorIs(t *testing.T) {
	require.True(t, errors.Is(errBufferTooShort, errBufferTooShort))

	wrapped := NewProtocolErrorWithErr(errBufferTooShort)
	require.Same(t, errBufferTooShort, wrapped)

	other := errors.New("boom")
	wrapped2 := NewProtocolErrorWithErr(other)
	require.Equal(t, ProtocolUnknown, wrapped2.Kind())
	require.ErrorIs(t, wrapped2, other)
}

func TestProtocolErrorKindMismatch(t *testing.T) {
	a := NewProtocolError(ProtocolInvalidData, "x")
	b := NewProtocolError(ProtocolBadVersion, "x")
	require.False(t, errors.Is(a, b))
}
