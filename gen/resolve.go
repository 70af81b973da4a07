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

// Package gen turns a parsed IDL document graph into a single Go source
// artifact: generated struct types with thrift wire tags, per-method
// Args/Result types, and Client/Server adapters wired to the client and
// server packages. No per-service Request/Response types are emitted; the
// generated Server's Handle method dispatches with a switch on the method
// name.
package gen

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gothrift/gothrift/idl"
)

// Source resolves an include path (as written in an `include "..."`
// statement, relative to the including file unless absolute) to that
// file's IDL source text and a canonical path to key the resolver's
// generated/generating sets and output namespace cache by.
type Source interface {
	Read(path string) (src string, canonicalPath string, err error)
}

// File is one resolved document: its parsed AST, computed namespace, and
// resolved includes in declaration order.
type File struct {
	Path      string
	Namespace string
	Doc       *idl.Document
	Includes  []*File
}

// Resolver walks an include graph, parsing every reachable file exactly
// once and failing deterministically on a cycle.
type Resolver struct {
	src        Source
	generated  map[string]*File
	generating map[string]bool
}

// NewResolver creates a Resolver reading file contents from src.
func NewResolver(src Source) *Resolver {
	return &Resolver{
		src:        src,
		generated:  make(map[string]*File),
		generating: make(map[string]bool),
	}
}

// Resolve parses path and every file it transitively includes, returning
// the root File. A file re-entered while still on the current include
// path (i.e. present in `generating`) is a hard cycle error, per the
// generator's traversal contract.
func (r *Resolver) Resolve(path string) (*File, error) {
	return r.resolve(path, "")
}

func (r *Resolver) resolve(path, fromDir string) (*File, error) {
	resolvedPath := path
	if fromDir != "" && !filepath.IsAbs(path) {
		resolvedPath = filepath.Join(fromDir, path)
	}

	src, canonicalPath, err := r.src.Read(resolvedPath)
	if err != nil {
		return nil, fmt.Errorf("gen: reading %q: %w", resolvedPath, err)
	}

	if f, ok := r.generated[canonicalPath]; ok {
		return f, nil
	}
	if r.generating[canonicalPath] {
		return nil, fmt.Errorf("gen: include cycle detected at %q", canonicalPath)
	}
	r.generating[canonicalPath] = true
	defer delete(r.generating, canonicalPath)

	doc, err := idl.Parse(src, canonicalPath)
	if err != nil {
		return nil, err
	}

	f := &File{Path: canonicalPath, Doc: doc, Namespace: namespaceFor(doc)}
	dir := filepath.Dir(canonicalPath)
	for _, inc := range doc.Includes {
		child, err := r.resolve(inc.Path, dir)
		if err != nil {
			return nil, err
		}
		f.Includes = append(f.Includes, child)
	}

	r.generated[canonicalPath] = f
	return f, nil
}

// namespaceFor computes a document's output module path: `namespace rs` if
// present, else `namespace *`, else the file stem in snake_case.
func namespaceFor(doc *idl.Document) string {
	if ns, ok := doc.Namespace(); ok {
		return ns
	}
	base := filepath.Base(doc.Path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return snakeCase(base)
}

func snakeCase(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r - 'A' + 'a')
			continue
		}
		if r == '-' || r == ' ' {
			sb.WriteByte('_')
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// MapSource is a Source backed by an in-memory path->contents map, keyed
// by canonical (cleaned) path. It is primarily useful for tests and for
// embedding a small fixed set of IDL files in a binary.
type MapSource map[string]string

func (m MapSource) Read(path string) (string, string, error) {
	clean := filepath.Clean(path)
	src, ok := m[clean]
	if !ok {
		return "", "", fmt.Errorf("no such file: %s", clean)
	}
	return src, clean, nil
}
