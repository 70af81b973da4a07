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
	"go/format"
	"strings"
	"unicode"
)

// Generate walks root and every file it transitively includes, emitting one
// Go source file: package header, imports, and every struct/union/exception/
// enum/typedef/const/service declaration reachable from root. Each resolved
// file is emitted exactly once, in the order Resolve first reached it,
// mirroring root's own include graph rather than re-deriving traversal
// order from scratch.
func Generate(root *File) ([]byte, error) {
	currentSymbols = newSymbolTable()
	currentSymbols.collect(root, make(map[string]bool))
	needsStrmapImport = false
	defer func() { currentSymbols = newSymbolTable(); needsStrmapImport = false }()

	var body strings.Builder
	visited := make(map[string]bool)
	needs := &importNeeds{}
	emitFile(&body, root, visited, needs)
	needs.strmap = needsStrmapImport

	var out strings.Builder
	out.WriteString(licenseHeader)
	out.WriteString("package " + packageName(root.Namespace) + "\n\n")
	writeImports(&out, needs)
	out.WriteString(body.String())

	return format.Source([]byte(out.String()))
}

// importNeeds tracks which packages the emitted declarations actually use,
// so a file with no services (no client/transport/strmap use) or no
// structs/enums (no fmt use) doesn't end up with a dead import.
type importNeeds struct {
	codec   bool // protocol/thrift: any struct/union/exception
	fmt     bool // fmt.Sprintf in String()/error messages: any enum, struct/union/exception or service
	service bool // client/transport/context: any service
	strmap  bool // container/strmap: a service dispatch table, or a map<string,string> field
}

func writeImports(out *strings.Builder, n *importNeeds) {
	if !n.codec && !n.fmt && !n.service && !n.strmap {
		return
	}
	out.WriteString("import (\n")
	if n.service {
		out.WriteString("\t\"context\"\n")
	}
	if n.fmt {
		out.WriteString("\t\"fmt\"\n")
	}
	if n.service {
		out.WriteString("\n\t\"github.com/gothrift/gothrift/client\"\n")
	}
	if n.strmap || n.service {
		out.WriteString("\t\"github.com/gothrift/gothrift/container/strmap\"\n")
	}
	if n.codec || n.service {
		out.WriteString("\t\"github.com/gothrift/gothrift/protocol/thrift\"\n")
	}
	if n.service {
		out.WriteString("\t\"github.com/gothrift/gothrift/transport\"\n")
	}
	out.WriteString(")\n\n")
}

// emitFile recursively emits f's includes (each file is only ever emitted
// once, at the point it's first reached) followed by f's own declarations.
func emitFile(sb *strings.Builder, f *File, visited map[string]bool, needs *importNeeds) {
	if visited[f.Path] {
		return
	}
	visited[f.Path] = true

	for _, inc := range f.Includes {
		emitFile(sb, inc, visited, needs)
	}

	doc := f.Doc
	for _, td := range doc.Typedefs {
		emitTypedef(sb, td)
	}
	for _, c := range doc.Consts {
		emitConst(sb, c)
	}
	for _, e := range doc.Enums {
		emitEnum(sb, e)
		needs.fmt = true
	}
	for _, s := range doc.Structs {
		emitStructLike(sb, s.Name, s.Fields, false)
		needs.codec, needs.fmt = true, true
	}
	for _, u := range doc.Unions {
		emitStructLike(sb, u.Name, u.Fields, false)
		needs.codec, needs.fmt = true, true
	}
	for _, ex := range doc.Exceptions {
		emitStructLike(sb, ex.Name, ex.Fields, true)
		needs.codec, needs.fmt = true, true
	}
	for _, svc := range doc.Services {
		emitService(sb, svc)
		needs.codec, needs.fmt, needs.service = true, true, true
	}
}

const licenseHeader = `/*
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

// Code generated by gothrift. DO NOT EDIT.

`

// packageName derives a Go package identifier from a namespace like
// "github.com/example/svc" or "com.example.svc": its last dotted/slashed
// component, lowercased and stripped of anything but letters/digits/underscore.
func packageName(namespace string) string {
	parts := strings.FieldsFunc(namespace, func(r rune) bool {
		return r == '.' || r == '/'
	})
	last := namespace
	if len(parts) > 0 {
		last = parts[len(parts)-1]
	}

	var sb strings.Builder
	for _, r := range last {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(unicode.ToLower(r))
		case r == '_':
			sb.WriteRune(r)
		}
	}
	out := sb.String()
	if out == "" {
		return "genthrift"
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "_" + out
	}
	return out
}
