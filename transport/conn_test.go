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

package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDialListenSendReceive(t *testing.T) {
	ln, err := Listen(Target{Network: "tcp", Address: "127.0.0.1:0"})
	require.NoError(t, err)
	defer ln.Close()

	serverDone := make(chan error, 1)
	go func() {
		sc, err := ln.Accept()
		if err != nil {
			serverDone <- err
			return
		}
		defer sc.Close()
		payload, err := sc.Receive()
		if err != nil {
			serverDone <- err
			return
		}
		serverDone <- sc.Send(payload)
	}()

	d := Dialer{Timeout: time.Second}
	target := Target{Network: "tcp", Address: ln.Addr().String()}
	cc, err := d.Dial(context.Background(), target)
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.Send([]byte("ping")))
	require.NoError(t, <-serverDone)

	got, err := cc.Receive()
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), got)
}

func TestTargetString(t *testing.T) {
	require.Equal(t, "tcp://127.0.0.1:1234", Target{Network: "tcp", Address: "127.0.0.1:1234"}.String())
}
