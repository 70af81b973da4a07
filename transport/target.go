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

// Package transport wraps a raw net.Conn into a framed duplex stream: a
// connection factory dials or accepts plain TCP/UNIX sockets, and a
// Conn pairs the socket with the frame codec so client and server
// engines exchange whole messages instead of raw bytes.
package transport

// Target names a dial/listen endpoint. Network is "tcp" or "unix", matching
// the two transport kinds net.Dial/net.Listen already support; there is no
// separate abstraction per network kind because net.Conn already erases
// the difference once a connection exists.
type Target struct {
	Network string
	Address string
}

func (t Target) String() string {
	return t.Network + "://" + t.Address
}
