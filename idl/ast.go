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

// Package idl implements a hand-written lexer and recursive-descent parser
// for the subset of the Thrift interface definition language this runtime
// generates code from: includes, namespaces, typedefs, consts, enums,
// structs, unions, exceptions and services.
package idl

// TypeKind discriminates the shape of a FieldType.
type TypeKind int

const (
	KindBool TypeKind = iota
	KindByte
	KindI16
	KindI32
	KindI64
	KindDouble
	KindString
	KindBinary
	KindList
	KindSet
	KindMap
	KindIdentifier // a typedef'd, struct, union, exception or enum name
)

// baseTypeKinds maps a lexed base type keyword to its TypeKind.
var baseTypeKinds = map[string]TypeKind{
	"bool":   KindBool,
	"byte":   KindByte,
	"i8":     KindByte,
	"i16":    KindI16,
	"i32":    KindI32,
	"i64":    KindI64,
	"double": KindDouble,
	"string": KindString,
	"binary": KindBinary,
}

// FieldType is a field/typedef/const type reference.
type FieldType struct {
	Kind TypeKind

	// Identifier is set when Kind == KindIdentifier.
	Identifier string

	// Key is set for KindMap (the key type).
	Key *FieldType
	// Value is set for KindMap/KindList/KindSet (the element/value type).
	Value *FieldType
}

// String renders the type descriptor form spec §4.10 requires generated
// fields to carry: i32, string, bool, map(K,V), list(T), set(T), ident(Name).
func (t *FieldType) String() string {
	switch t.Kind {
	case KindBool:
		return "bool"
	case KindByte:
		return "byte"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindList:
		return "list(" + t.Value.String() + ")"
	case KindSet:
		return "set(" + t.Value.String() + ")"
	case KindMap:
		return "map(" + t.Key.String() + "," + t.Value.String() + ")"
	case KindIdentifier:
		return "ident(" + t.Identifier + ")"
	default:
		return "unknown"
	}
}

// Requiredness is a field's required/optional/default-in-schema marker.
type Requiredness int

const (
	// Default means no req keyword and no '=' default: optional-in-schema
	// with no client-side default, per spec §4.9 field syntax.
	Default Requiredness = iota
	Required
	Optional
)

// ConstKind discriminates the shape of a ConstValue.
type ConstKind int

const (
	ConstInt ConstKind = iota
	ConstDouble
	ConstString
	ConstIdentifier
	ConstList
	ConstMap
)

// ConstMapEntry is one key/value pair of a map-shaped const literal.
type ConstMapEntry struct {
	Key   *ConstValue
	Value *ConstValue
}

// ConstValue is a parsed const/default-value literal.
type ConstValue struct {
	Kind ConstKind

	Int        int64
	Double     float64
	String     string
	Identifier string
	List       []*ConstValue
	Map        []ConstMapEntry
}

// Field is a struct/union/exception field or a function argument/throws entry.
type Field struct {
	ID           int16
	HasID        bool
	Requiredness Requiredness
	Type         *FieldType
	Name         string
	Default      *ConstValue
}

// StructKind discriminates struct/union/exception, which share field syntax.
type StructKind int

const (
	KindStruct StructKind = iota
	KindUnion
	KindException
)

// StructLike is a struct, union, or exception declaration.
type StructLike struct {
	Kind   StructKind
	Name   string
	Fields []*Field
}

// EnumValue is one member of an enum declaration.
type EnumValue struct {
	Name     string
	Value    int32
	HasValue bool
}

// Enum is an enum declaration; unset values are assigned sequentially
// starting from 0 (or from the previous explicit value + 1), per classic
// Thrift enum semantics.
type Enum struct {
	Name   string
	Values []*EnumValue
}

// Typedef aliases Type as Alias.
type Typedef struct {
	Alias string
	Type  *FieldType
}

// Const is a top-level const declaration.
type Const struct {
	Name  string
	Type  *FieldType
	Value *ConstValue
}

// Function is one service method.
type Function struct {
	Name       string
	OneWay     bool
	ReturnType *FieldType // nil means void
	Args       []*Field
	Throws     []*Field
}

// Service is a service declaration, optionally extending another service.
type Service struct {
	Name     string
	Extends  string
	Functions []*Function
}

// Namespace is one `namespace <scope> <name>` declaration.
type Namespace struct {
	Scope string
	Name  string
}

// Include is one `include "path"` declaration.
type Include struct {
	Path string
}

// Document is the parsed contents of a single IDL file.
type Document struct {
	// Path is the source file path, used to derive a fallback namespace
	// (its stem, snake_cased) when no `namespace rs`/`namespace *` exists.
	Path string

	Includes    []*Include
	CppIncludes []string
	Namespaces  []*Namespace
	Typedefs    []*Typedef
	Consts      []*Const
	Enums       []*Enum
	Structs     []*StructLike
	Unions      []*StructLike
	Exceptions  []*StructLike
	Services    []*Service
}

// Namespace returns the effective module namespace for this document: the
// explicit `namespace rs` if present, else `namespace *`; ok is false when
// neither is declared.
func (d *Document) Namespace() (string, bool) {
	var wildcard string
	haveWildcard := false
	for _, ns := range d.Namespaces {
		if ns.Scope == "rs" {
			return ns.Name, true
		}
		if ns.Scope == "*" {
			wildcard, haveWildcard = ns.Name, true
		}
	}
	if haveWildcard {
		return wildcard, true
	}
	return "", false
}
