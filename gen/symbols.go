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

import "github.com/gothrift/gothrift/idl"

// symbolTable resolves an IDL identifier (as it appears in a field/typedef/
// const type reference) to the kind of thing it actually names, across the
// whole include graph a single Generate call is walking. Without this,
// every bare identifier would have to be assumed to name a struct, which is
// wrong for enums (wire as i32, not a nested Codec) and typedefs (wire as
// their underlying type).
type symbolTable struct {
	enums    map[string]bool
	typedefs map[string]*idl.FieldType
}

func newSymbolTable() *symbolTable {
	return &symbolTable{enums: make(map[string]bool), typedefs: make(map[string]*idl.FieldType)}
}

func (s *symbolTable) collect(f *File, visited map[string]bool) {
	if visited[f.Path] {
		return
	}
	visited[f.Path] = true
	for _, inc := range f.Includes {
		s.collect(inc, visited)
	}
	for _, e := range f.Doc.Enums {
		s.enums[e.Name] = true
	}
	for _, td := range f.Doc.Typedefs {
		s.typedefs[td.Alias] = td.Type
	}
}

// resolve follows a chain of typedefs to the underlying non-identifier type,
// or to the enum/struct identifier the chain bottoms out at. Returns the
// same type unchanged if name isn't a known typedef.
func (s *symbolTable) resolve(t *idl.FieldType) *idl.FieldType {
	seen := make(map[string]bool)
	for t.Kind == idl.KindIdentifier && !s.enums[t.Identifier] {
		under, ok := s.typedefs[t.Identifier]
		if !ok || seen[t.Identifier] {
			break
		}
		seen[t.Identifier] = true
		t = under
	}
	return t
}

func (s *symbolTable) isEnum(name string) bool {
	return s.enums[name]
}

// currentSymbols is populated for the duration of a single Generate call.
// Code generation in this package is single-pass and not reentered
// concurrently, so a package-level table avoids threading a context
// parameter through every goType/ttypeConst/readStmts/writeStmts call.
var currentSymbols = newSymbolTable()

// isStrToStrMap reports whether t is a map<string,string>, the one map
// shape generated code backs with strmap.Str2Str instead of a plain Go map
// (see gen/typeref.go's goType). Thrift's IDL has no generic type
// parameters, so this is the only map shape worth a GC-friendlier
// representation: it's the one that shows up as free-form string metadata
// (a struct's "extra" field) across services.
func isStrToStrMap(t *idl.FieldType) bool {
	return t.Kind == idl.KindMap && t.Key.Kind == idl.KindString && t.Value.Kind == idl.KindString
}

// needsStrmapImport is set for the duration of a single Generate call
// whenever emitted code actually references strmap.Str2Str, so the import
// block only appears when something other than a service uses it.
var needsStrmapImport bool
