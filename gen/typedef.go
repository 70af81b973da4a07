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

package gen

import (
	"fmt"
	"strings"

	"github.com/gothrift/gothrift/idl"
)

// emitTypedef writes a Go type alias. Using '=' rather than a defined type
// keeps the typedef wire-transparent: a typedef'd field encodes exactly like
// its underlying type with no conversion wrapper required at call sites.
func emitTypedef(sb *strings.Builder, t *idl.Typedef) {
	fmt.Fprintf(sb, "type %s = %s\n\n", exportName(t.Alias), goType(t.Type))
}
