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

// emitEnum writes an enum as a Go int32 type with named constants, a
// <Name>Names value-to-name map and a String method. It emits no Write/Read
// methods: writeStmts/lengthStmts/readStmts encode enum-typed fields inline
// as a plain i32.
func emitEnum(sb *strings.Builder, e *idl.Enum) {
	goName := exportName(e.Name)
	fmt.Fprintf(sb, "type %s int32\n\n", goName)

	if len(e.Values) > 0 {
		sb.WriteString("const (\n")
		for _, v := range e.Values {
			fmt.Fprintf(sb, "\t%s%s %s = %d\n", goName, exportName(v.Name), goName, v.Value)
		}
		sb.WriteString(")\n\n")
	}

	fmt.Fprintf(sb, "var %sNames = map[%s]string{\n", goName, goName)
	for _, v := range e.Values {
		fmt.Fprintf(sb, "\t%d: %q,\n", v.Value, v.Name)
	}
	sb.WriteString("}\n\n")

	fmt.Fprintf(sb, "func (p %s) String() string {\n\tif s, ok := %sNames[p]; ok {\n\t\treturn s\n\t}\n\treturn fmt.Sprintf(\"%s(%%d)\", int32(p))\n}\n\n",
		goName, goName, goName)
}
