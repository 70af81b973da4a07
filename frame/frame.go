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

// Package frame implements the length-prefixed framing layer that sits
// between a raw duplex byte stream and the thrift message codec: every
// frame on the wire is a 4-byte big-endian length followed by exactly that
// many bytes of payload.
//
//	+----------------4 bytes---------------+------- length bytes -------+
//	|                LENGTH                |          PAYLOAD           |
//	+---------------------------------------+----------------------------+
//
// Both directions enforce MaxFrameSize; a frame whose declared length
// exceeds the cap, or whose declared length is negative, is rejected
// before any payload bytes are read or copied.
package frame

import (
	"encoding/binary"

	"github.com/gothrift/gothrift/cache/mempool"
	"github.com/gothrift/gothrift/protocol/thrift"
)

// LengthPrefixSize is the size in bytes of the frame length header.
const LengthPrefixSize = 4

// MaxFrameSize is the largest payload a frame may carry; it is
// thrift.MaxFrameSize.
const MaxFrameSize = thrift.MaxFrameSize

var (
	errFrameTooLarge = thrift.NewProtocolError(thrift.ProtocolSizeLimit, "frame exceeds maximum size")
	errNegativeSize  = thrift.NewProtocolError(thrift.ProtocolNegativeSize, "frame declares negative length")
)

// Reader is the subset of bufiox.Reader the framing codec needs: a
// blocking "give me exactly n bytes or an error" primitive.
type Reader interface {
	Next(n int) ([]byte, error)
	Release(e error) error
}

// Writer is the subset of bufiox.Writer the framing codec needs.
type Writer interface {
	Malloc(n int) ([]byte, error)
	Flush() error
}

// ReadFrame reads one length-prefixed frame from r and returns its payload.
// The returned slice is only valid until the next call to r.Next/Release,
// matching bufiox.Reader's zero-copy contract; callers that need to retain
// the payload past that point must copy it.
func ReadFrame(r Reader) ([]byte, error) {
	head, err := r.Next(LengthPrefixSize)
	if err != nil {
		return nil, err
	}
	size := int32(binary.BigEndian.Uint32(head))
	if size < 0 {
		return nil, errNegativeSize
	}
	if size > MaxFrameSize {
		return nil, errFrameTooLarge
	}
	if size == 0 {
		return nil, nil
	}
	return r.Next(int(size))
}

// WriteFrame writes payload as one length-prefixed frame to w. It mallocs
// the 4-byte length header and the payload as one buffer, writes the
// length, copies the payload after it, then flushes.
func WriteFrame(w Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return errFrameTooLarge
	}
	buf, err := w.Malloc(LengthPrefixSize + len(payload))
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[LengthPrefixSize:], payload)
	return w.Flush()
}

// Encode returns a length-prefixed frame for payload, borrowed from
// mempool. Callers own the returned buffer and must mempool.Free it once
// written. It builds a whole frame in memory for a caller that writes it
// in a single call; transport.Conn writes frames through WriteFrame
// instead. Per mempool's contract
// the returned buffer must not be grown with append - it is already sized
// to fit the frame exactly.
func Encode(payload []byte) ([]byte, error) {
	if len(payload) > MaxFrameSize {
		return nil, errFrameTooLarge
	}
	buf := mempool.Malloc(LengthPrefixSize + len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[LengthPrefixSize:], payload)
	return buf, nil
}

// Decode reads a single frame's payload out of buf, returning the payload
// and the number of bytes of buf consumed. It returns (nil, 0, nil) - not
// an error - when buf does not yet contain a full frame, so callers reading
// off a streaming source can keep buffering and retry.
func Decode(buf []byte) (payload []byte, consumed int, err error) {
	if len(buf) < LengthPrefixSize {
		return nil, 0, nil
	}
	size := int32(binary.BigEndian.Uint32(buf))
	if size < 0 {
		return nil, 0, errNegativeSize
	}
	if size > MaxFrameSize {
		return nil, 0, errFrameTooLarge
	}
	total := LengthPrefixSize + int(size)
	if len(buf) < total {
		return nil, 0, nil
	}
	return buf[LengthPrefixSize:total], total, nil
}
