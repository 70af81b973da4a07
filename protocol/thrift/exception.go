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
	"fmt"
)

// ApplicationErrorKind enumerates the application-level exception kinds
// that can be carried on the wire, matching apache/thrift numeric values.
type ApplicationErrorKind int32

const (
	ApplicationUnknown               ApplicationErrorKind = 0
	ApplicationUnknownMethod         ApplicationErrorKind = 1
	ApplicationInvalidMessageType    ApplicationErrorKind = 2
	ApplicationWrongMethodName       ApplicationErrorKind = 3
	ApplicationBadSequenceID         ApplicationErrorKind = 4
	ApplicationMissingResult         ApplicationErrorKind = 5
	ApplicationInternalError         ApplicationErrorKind = 6
	ApplicationProtocolError         ApplicationErrorKind = 7
	ApplicationInvalidTransform      ApplicationErrorKind = 8
	ApplicationInvalidProtocol       ApplicationErrorKind = 9
	ApplicationUnsupportedClientType ApplicationErrorKind = 10
)

var defaultApplicationErrorMessage = map[ApplicationErrorKind]string{
	ApplicationUnknown:               "unknown application exception",
	ApplicationUnknownMethod:         "unknown method",
	ApplicationInvalidMessageType:    "invalid message type",
	ApplicationWrongMethodName:       "wrong method name",
	ApplicationBadSequenceID:         "bad sequence ID",
	ApplicationMissingResult:         "missing result",
	ApplicationInternalError:         "unknown internal error",
	ApplicationProtocolError:         "unknown protocol error",
	ApplicationInvalidTransform:      "invalid transform",
	ApplicationInvalidProtocol:       "invalid protocol",
	ApplicationUnsupportedClientType: "unsupported client type",
}

// ApplicationError is the struct sent on the wire with MessageType Exception.
// It encodes as {1: string message, 2: i32 kind}, matching the generator's
// authoritative field-id scheme (see Result variant encoding in DESIGN.md).
type ApplicationError struct {
	kind ApplicationErrorKind
	msg  string
}

// NewApplicationError creates an ApplicationError with the given kind and message.
func NewApplicationError(kind ApplicationErrorKind, msg string) *ApplicationError {
	return &ApplicationError{kind: kind, msg: msg}
}

// Kind returns the application error kind.
func (e *ApplicationError) Kind() ApplicationErrorKind { return e.kind }

// Msg returns the server-provided message, if any.
func (e *ApplicationError) Msg() string { return e.msg }

// TypeId mirrors apache/thrift's TApplicationException.TypeId for interop
// with code written against that interface.
func (e *ApplicationError) TypeId() int32 { return int32(e.kind) }

func (e *ApplicationError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	if m, ok := defaultApplicationErrorMessage[e.kind]; ok {
		return m
	}
	return fmt.Sprintf("unknown application exception kind [%d]", e.kind)
}

func (e *ApplicationError) String() string {
	return fmt.Sprintf("ApplicationError(%d): %q", e.kind, e.msg)
}

// BLength returns the number of bytes Encode will write.
func (e *ApplicationError) BLength() int {
	return Binary.FieldBeginLength() + Binary.StringLength(e.msg) + // 1: message
		Binary.FieldBeginLength() + Binary.I32Length() + // 2: kind
		Binary.FieldStopLength()
}

// Encode writes the ApplicationError struct body (no MessageBegin/End) to buf.
func (e *ApplicationError) Encode(buf []byte) (off int) {
	off += Binary.WriteFieldBegin(buf[off:], STRING, 1)
	off += Binary.WriteString(buf[off:], e.msg)
	off += Binary.WriteFieldBegin(buf[off:], I32, 2)
	off += Binary.WriteI32(buf[off:], int32(e.kind))
	off += Binary.WriteByte(buf[off:], STOP)
	return off
}

// Decode reads an ApplicationError struct body from buf, tolerating the
// legacy field-id-0-for-success ambiguity noted in DESIGN.md by accepting
// any field id/type combination and skipping what it doesn't recognize.
func (e *ApplicationError) Decode(buf []byte) (off int, err error) {
	for {
		tp, id, l, ferr := Binary.ReadFieldBegin(buf[off:])
		if ferr != nil {
			return off, ferr
		}
		off += l
		if tp == STOP {
			break
		}
		switch {
		case id == 1 && tp == STRING:
			e.msg, l, err = Binary.ReadString(buf[off:])
		case id == 2 && tp == I32:
			var k int32
			k, l, err = Binary.ReadI32(buf[off:])
			e.kind = ApplicationErrorKind(k)
		default:
			l, err = Binary.Skip(buf[off:], tp)
		}
		if err != nil {
			return off, err
		}
		off += l
	}
	return off, nil
}

// ProtocolErrorKind enumerates the local decode/encode failure kinds; these
// never cross the wire (see spec §7 taxonomy).
type ProtocolErrorKind int32

const (
	ProtocolUnknown        ProtocolErrorKind = 0
	ProtocolInvalidData    ProtocolErrorKind = 1
	ProtocolNegativeSize   ProtocolErrorKind = 2
	ProtocolSizeLimit      ProtocolErrorKind = 3
	ProtocolBadVersion     ProtocolErrorKind = 4
	ProtocolNotImplemented ProtocolErrorKind = 5
	ProtocolDepthLimit     ProtocolErrorKind = 6
)

// ProtocolError is returned by the binary protocol and framing codec for
// any local decode/encode failure.
type ProtocolError struct {
	kind ProtocolErrorKind
	msg  string
	err  error
}

// NewProtocolError creates a ProtocolError with the given kind and message.
func NewProtocolError(kind ProtocolErrorKind, msg string) *ProtocolError {
	return &ProtocolError{kind: kind, msg: msg}
}

// NewProtocolErrorWithErr wraps err as a ProtocolError, preserving it as the
// cause if err is not already a *ProtocolError.
func NewProtocolErrorWithErr(err error) *ProtocolError {
	if e, ok := err.(*ProtocolError); ok {
		return e
	}
	return &ProtocolError{kind: ProtocolUnknown, msg: err.Error(), err: err}
}

// Kind returns the protocol error kind.
func (e *ProtocolError) Kind() ProtocolErrorKind { return e.kind }

func (e *ProtocolError) Error() string { return e.msg }

// Unwrap exposes the wrapped cause, if any, for errors.Is/As.
func (e *ProtocolError) Unwrap() error { return e.err }

// Is reports whether err is an equivalent protocol error, or wraps one.
func (e *ProtocolError) Is(err error) bool {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.kind == e.kind && pe.msg == e.msg
	}
	return errors.Is(e.err, err)
}

var (
	errBufferTooShort = NewProtocolError(ProtocolInvalidData, "unexpected data length")
	errDataLength     = NewProtocolError(ProtocolNegativeSize, "invalid negative size")
)
