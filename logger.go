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

// Package gothrift holds the small set of cross-cutting types - the
// logger interface - shared by the client and server engines. The wire
// protocol, framing, transport and generator live in their own
// sub-packages.
package gothrift

import "log"

// Logger is the interface the client and server engines log through. It is
// always overridable and never required, the same relationship
// gopool.GoPool has with its panic handler: a sensible stdlib-backed
// default, swappable by callers that already have a logging stack.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// stdLogger backs DefaultLogger with the standard log package.
type stdLogger struct{}

func (stdLogger) Debugf(format string, args ...interface{}) { log.Printf("[DEBUG] "+format, args...) }
func (stdLogger) Warnf(format string, args ...interface{})  { log.Printf("[WARN] "+format, args...) }
func (stdLogger) Errorf(format string, args ...interface{}) { log.Printf("[ERROR] "+format, args...) }

// DefaultLogger is used by client.Client and server.Server when no Logger
// option is supplied.
var DefaultLogger Logger = stdLogger{}
