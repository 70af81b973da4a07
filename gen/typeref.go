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
	"strings"
	"unicode"

	"github.com/gothrift/gothrift/idl"
)

// goType renders the Go type a FieldType decodes to.
func goType(t *idl.FieldType) string {
	switch t.Kind {
	case idl.KindBool:
		return "bool"
	case idl.KindByte:
		return "int8"
	case idl.KindI16:
		return "int16"
	case idl.KindI32:
		return "int32"
	case idl.KindI64:
		return "int64"
	case idl.KindDouble:
		return "float64"
	case idl.KindString:
		return "string"
	case idl.KindBinary:
		return "[]byte"
	case idl.KindList, idl.KindSet:
		return "[]" + goType(t.Value)
	case idl.KindMap:
		if isStrToStrMap(t) {
			needsStrmapImport = true
			return "*strmap.Str2Str"
		}
		return "map[" + goType(t.Key) + "]" + goType(t.Value)
	case idl.KindIdentifier:
		if currentSymbols.isEnum(t.Identifier) {
			return exportName(t.Identifier)
		}
		if under := currentSymbols.resolve(t); under.Kind != idl.KindIdentifier {
			return goType(under)
		}
		// Struct/union/exception references are always pointer-typed so a
		// nil value distinguishes "not present" from the zero value,
		// matching IsSet's contract for optional fields.
		return "*" + exportName(t.Identifier)
	default:
		return "interface{}"
	}
}

// ttypeConst renders the thrift.TType constant identifier for t's wire tag.
func ttypeConst(t *idl.FieldType) string {
	switch t.Kind {
	case idl.KindBool:
		return "thrift.BOOL"
	case idl.KindByte:
		return "thrift.BYTE"
	case idl.KindI16:
		return "thrift.I16"
	case idl.KindI32:
		return "thrift.I32"
	case idl.KindI64:
		return "thrift.I64"
	case idl.KindDouble:
		return "thrift.DOUBLE"
	case idl.KindString, idl.KindBinary:
		return "thrift.STRING"
	case idl.KindList:
		return "thrift.LIST"
	case idl.KindSet:
		return "thrift.SET"
	case idl.KindMap:
		return "thrift.MAP"
	case idl.KindIdentifier:
		if currentSymbols.isEnum(t.Identifier) {
			return "thrift.I32"
		}
		if under := currentSymbols.resolve(t); under.Kind != idl.KindIdentifier {
			return ttypeConst(under)
		}
		// Anything left is a struct, union or exception reference, which
		// all wire as STRUCT.
		return "thrift.STRUCT"
	default:
		return "thrift.STRUCT"
	}
}

// exportName renders an IDL identifier (struct/service/enum/method name)
// as an exported Go identifier.
func exportName(name string) string {
	parts := splitIdentWords(name)
	var sb strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		r := []rune(p)
		sb.WriteRune(unicode.ToUpper(r[0]))
		sb.WriteString(string(r[1:]))
	}
	out := sb.String()
	if out == "" {
		return "Field"
	}
	return out
}

// fieldName renders an IDL field name (already snake_case on the wire, per
// the emission schema) as an exported Go struct field name.
func fieldName(name string) string {
	return exportName(name)
}

func splitIdentWords(name string) []string {
	name = strings.ReplaceAll(name, "-", "_")
	return strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '.'
	})
}

// zeroValue renders a Go literal for t's zero value, used by New<Struct>
// constructors for required-or-no-default fields.
func zeroValue(t *idl.FieldType) string {
	switch t.Kind {
	case idl.KindBool:
		return "false"
	case idl.KindByte, idl.KindI16, idl.KindI32, idl.KindI64:
		return "0"
	case idl.KindDouble:
		return "0"
	case idl.KindString:
		return `""`
	case idl.KindIdentifier:
		if currentSymbols.isEnum(t.Identifier) {
			return "0"
		}
		if under := currentSymbols.resolve(t); under.Kind != idl.KindIdentifier {
			return zeroValue(under)
		}
		return "nil"
	default:
		return "nil"
	}
}
