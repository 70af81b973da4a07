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

	"github.com/gothrift/gothrift/idl"
)

// This file generates the statement bodies of a struct's BLength/Write/Read
// methods, field by field and recursively through nested lists/sets/maps.
// Every emitted unit is wrapped in its own block so depth-independent
// variable names (v, k, l, err, sz, s, m) can be reused at every nesting
// level without colliding - the same trick fastcodec-style generators use
// to keep templates simple instead of threading a depth counter through
// variable names.

func writeMethodSuffix(t *idl.FieldType) string {
	switch t.Kind {
	case idl.KindBool:
		return "Bool"
	case idl.KindByte:
		return "Byte"
	case idl.KindI16:
		return "I16"
	case idl.KindI32:
		return "I32"
	case idl.KindI64:
		return "I64"
	case idl.KindDouble:
		return "Double"
	case idl.KindString:
		return "String"
	default:
		return ""
	}
}

// writeStmts emits statements that write expr (of Go type goType(t)) into
// buf starting at off, advancing off. Assumes off and buf are in scope.
func writeStmts(t *idl.FieldType, expr string) []string {
	if t.Kind == idl.KindIdentifier {
		if currentSymbols.isEnum(t.Identifier) {
			return []string{fmt.Sprintf("off += thrift.Binary.WriteI32(buf[off:], int32(%s))", expr)}
		}
		if under := currentSymbols.resolve(t); under.Kind != idl.KindIdentifier {
			return writeStmts(under, expr)
		}
		return []string{fmt.Sprintf("off += %s.Write(buf[off:])", expr)}
	}
	switch t.Kind {
	case idl.KindBool, idl.KindByte, idl.KindI16, idl.KindI32, idl.KindI64, idl.KindDouble, idl.KindString:
		return []string{fmt.Sprintf("off += thrift.Binary.Write%s(buf[off:], %s)", writeMethodSuffix(t), expr)}
	case idl.KindBinary:
		return []string{fmt.Sprintf("off += thrift.Binary.WriteBinary(buf[off:], %s)", expr)}
	case idl.KindList, idl.KindSet:
		begin := "WriteListBegin"
		if t.Kind == idl.KindSet {
			begin = "WriteSetBegin"
		}
		lines := []string{
			fmt.Sprintf("off += thrift.Binary.%s(buf[off:], %s, len(%s))", begin, ttypeConst(t.Value), expr),
			fmt.Sprintf("for _, v := range %s {", expr),
		}
		lines = append(lines, indent(writeStmts(t.Value, "v"))...)
		lines = append(lines, "}")
		return lines
	case idl.KindMap:
		if isStrToStrMap(t) {
			return []string{
				fmt.Sprintf("off += thrift.Binary.WriteMapBegin(buf[off:], thrift.STRING, thrift.STRING, %s.Len())", expr),
				fmt.Sprintf("for i := 0; i < %s.Len(); i++ {", expr),
				fmt.Sprintf("k, v := %s.Item(i)", expr),
				"off += thrift.Binary.WriteString(buf[off:], k)",
				"off += thrift.Binary.WriteString(buf[off:], v)",
				"}",
			}
		}
		lines := []string{
			fmt.Sprintf("off += thrift.Binary.WriteMapBegin(buf[off:], %s, %s, len(%s))", ttypeConst(t.Key), ttypeConst(t.Value), expr),
			fmt.Sprintf("for k, v := range %s {", expr),
		}
		lines = append(lines, indent(writeStmts(t.Key, "k"))...)
		lines = append(lines, indent(writeStmts(t.Value, "v"))...)
		lines = append(lines, "}")
		return lines
	default:
		return nil
	}
}

func lengthFixedMethod(t *idl.FieldType) (string, bool) {
	switch t.Kind {
	case idl.KindBool:
		return "BoolLength", true
	case idl.KindByte:
		return "ByteLength", true
	case idl.KindI16:
		return "I16Length", true
	case idl.KindI32:
		return "I32Length", true
	case idl.KindI64:
		return "I64Length", true
	case idl.KindDouble:
		return "DoubleLength", true
	default:
		return "", false
	}
}

// lengthStmts emits statements that add expr's encoded size to n.
func lengthStmts(t *idl.FieldType, expr string) []string {
	if t.Kind == idl.KindIdentifier {
		if currentSymbols.isEnum(t.Identifier) {
			return []string{"n += thrift.Binary.I32Length()"}
		}
		if under := currentSymbols.resolve(t); under.Kind != idl.KindIdentifier {
			return lengthStmts(under, expr)
		}
		return []string{fmt.Sprintf("n += %s.BLength()", expr)}
	}
	if m, ok := lengthFixedMethod(t); ok {
		return []string{fmt.Sprintf("n += thrift.Binary.%s()", m)}
	}
	switch t.Kind {
	case idl.KindString:
		return []string{fmt.Sprintf("n += thrift.Binary.StringLength(%s)", expr)}
	case idl.KindBinary:
		return []string{fmt.Sprintf("n += thrift.Binary.BinaryLength(%s)", expr)}
	case idl.KindList, idl.KindSet:
		begin := "ListBeginLength"
		if t.Kind == idl.KindSet {
			begin = "SetBeginLength"
		}
		lines := []string{
			fmt.Sprintf("n += thrift.Binary.%s()", begin),
			fmt.Sprintf("for _, v := range %s {", expr),
		}
		lines = append(lines, indent(lengthStmts(t.Value, "v"))...)
		lines = append(lines, "}")
		return lines
	case idl.KindMap:
		if isStrToStrMap(t) {
			return []string{
				"n += thrift.Binary.MapBeginLength()",
				fmt.Sprintf("for i := 0; i < %s.Len(); i++ {", expr),
				fmt.Sprintf("k, v := %s.Item(i)", expr),
				"n += thrift.Binary.StringLength(k)",
				"n += thrift.Binary.StringLength(v)",
				"}",
			}
		}
		lines := []string{
			"n += thrift.Binary.MapBeginLength()",
			fmt.Sprintf("for k, v := range %s {", expr),
		}
		lines = append(lines, indent(lengthStmts(t.Key, "k"))...)
		lines = append(lines, indent(lengthStmts(t.Value, "v"))...)
		lines = append(lines, "}")
		return lines
	default:
		return nil
	}
}

func readMethodSuffix(t *idl.FieldType) string {
	switch t.Kind {
	case idl.KindBool:
		return "Bool"
	case idl.KindByte:
		return "Byte"
	case idl.KindI16:
		return "I16"
	case idl.KindI32:
		return "I32"
	case idl.KindI64:
		return "I64"
	case idl.KindDouble:
		return "Double"
	case idl.KindString:
		return "String"
	default:
		return ""
	}
}

// readStmts emits statements that decode a value of type t starting at
// buf[off], assign it to assignTo and advance off. On a decode error it
// returns (off, err) from the enclosing method, so it can only be used
// inside a func(buf []byte) (int, error) body.
func readStmts(t *idl.FieldType, assignTo string) []string {
	if t.Kind == idl.KindIdentifier {
		if currentSymbols.isEnum(t.Identifier) {
			enumName := exportName(t.Identifier)
			return []string{
				"{",
				"val, l, err := thrift.Binary.ReadI32(buf[off:])",
				"if err != nil {",
				"return off, err",
				"}",
				"off += l",
				fmt.Sprintf("%s = %s(val)", assignTo, enumName),
				"}",
			}
		}
		if under := currentSymbols.resolve(t); under.Kind != idl.KindIdentifier {
			return readStmts(under, assignTo)
		}
		typeName := exportName(t.Identifier)
		return []string{
			"{",
			fmt.Sprintf("val := &%s{}", typeName),
			"l, err := val.Read(buf[off:])",
			"if err != nil {",
			"return off, err",
			"}",
			"off += l",
			fmt.Sprintf("%s = val", assignTo),
			"}",
		}
	}
	switch t.Kind {
	case idl.KindBool, idl.KindByte, idl.KindI16, idl.KindI32, idl.KindI64, idl.KindDouble, idl.KindString:
		return []string{
			"{",
			fmt.Sprintf("val, l, err := thrift.Binary.Read%s(buf[off:])", readMethodSuffix(t)),
			"if err != nil {",
			"return off, err",
			"}",
			"off += l",
			fmt.Sprintf("%s = val", assignTo),
			"}",
		}
	case idl.KindBinary:
		return []string{
			"{",
			"val, l, err := thrift.Binary.ReadBinary(buf[off:])",
			"if err != nil {",
			"return off, err",
			"}",
			"off += l",
			fmt.Sprintf("%s = val", assignTo),
			"}",
		}
	case idl.KindList, idl.KindSet:
		beginFn := "ReadListBegin"
		if t.Kind == idl.KindSet {
			beginFn = "ReadSetBegin"
		}
		elemType := goType(t.Value)
		lines := []string{
			"{",
			fmt.Sprintf("_, sz, l, err := thrift.Binary.%s(buf[off:])", beginFn),
			"if err != nil {",
			"return off, err",
			"}",
			"off += l",
			fmt.Sprintf("s := make([]%s, 0, sz)", elemType),
			"for i := 0; i < sz; i++ {",
			fmt.Sprintf("var v %s", elemType),
		}
		lines = append(lines, indent(readStmts(t.Value, "v"))...)
		lines = append(lines,
			"s = append(s, v)",
			"}",
			fmt.Sprintf("%s = s", assignTo),
			"}",
		)
		return lines
	case idl.KindMap:
		if isStrToStrMap(t) {
			lines := []string{
				"{",
				"_, _, sz, l, err := thrift.Binary.ReadMapBegin(buf[off:])",
				"if err != nil {",
				"return off, err",
				"}",
				"off += l",
				"kk := make([]string, 0, sz)",
				"vv := make([]string, 0, sz)",
				"for i := 0; i < sz; i++ {",
				"var k string",
			}
			lines = append(lines, indent(readStmts(t.Key, "k"))...)
			lines = append(lines, "var v string")
			lines = append(lines, indent(readStmts(t.Value, "v"))...)
			lines = append(lines,
				"kk = append(kk, k)",
				"vv = append(vv, v)",
				"}",
				fmt.Sprintf("%s = strmap.NewStr2StrFromSlice(kk, vv)", assignTo),
				"}",
			)
			return lines
		}
		keyType, valType := goType(t.Key), goType(t.Value)
		lines := []string{
			"{",
			"_, _, sz, l, err := thrift.Binary.ReadMapBegin(buf[off:])",
			"if err != nil {",
			"return off, err",
			"}",
			"off += l",
			fmt.Sprintf("m := make(map[%s]%s, sz)", keyType, valType),
			"for i := 0; i < sz; i++ {",
			fmt.Sprintf("var k %s", keyType),
		}
		lines = append(lines, indent(readStmts(t.Key, "k"))...)
		lines = append(lines, fmt.Sprintf("var v %s", valType))
		lines = append(lines, indent(readStmts(t.Value, "v"))...)
		lines = append(lines,
			"m[k] = v",
			"}",
			fmt.Sprintf("%s = m", assignTo),
			"}",
		)
		return lines
	default:
		return nil
	}
}

// skipStmt emits a statement that skips an unrecognized field's value,
// advancing off.
func skipStmt() []string {
	return []string{
		"{",
		"l, err := thrift.Binary.Skip(buf[off:], tp)",
		"if err != nil {",
		"return off, err",
		"}",
		"off += l",
		"}",
	}
}

func indent(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = "\t" + l
	}
	return out
}
