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

// isReferenceKind reports whether t's Go representation is already a
// reference type (slice, map or pointer) whose nil value can stand in for
// "not present" without an extra pointer wrapper.
func isReferenceKind(t *idl.FieldType) bool {
	switch t.Kind {
	case idl.KindList, idl.KindSet, idl.KindMap, idl.KindBinary:
		return true
	case idl.KindIdentifier:
		if currentSymbols.isEnum(t.Identifier) {
			return false
		}
		if under := currentSymbols.resolve(t); under.Kind != idl.KindIdentifier {
			return isReferenceKind(under)
		}
		return true
	default:
		return false
	}
}

// fieldGoType renders a struct field's declared Go type: required fields
// are unwrapped, non-required scalar fields are pointer-wrapped so the nil
// state can distinguish "unset" from the zero value, and non-required
// reference-kind fields keep their natural (already-nilable) type.
func fieldGoType(f *idl.Field) string {
	base := goType(f.Type)
	if f.Requiredness == idl.Required || isReferenceKind(f.Type) {
		return base
	}
	return "*" + base
}

func isPointerWrappedScalar(f *idl.Field) bool {
	return f.Requiredness != idl.Required && !isReferenceKind(f.Type)
}

// structName renders the emitted struct's exported Go name.
func structName(name string) string { return exportName(name) }

// emitStructLike writes the struct type, constructor, accessors and codec
// methods for a struct/union/exception/args/result type. fields must
// already carry their final field ids (IDL-declared for structs, position+1
// for args, 1+exception-declared-ids for results). isException additionally
// emits an Error() method so the type satisfies the builtin error
// interface, letting handler code return it directly.
func emitStructLike(sb *strings.Builder, name string, fields []*idl.Field, isException bool) {
	goName := structName(name)

	fmt.Fprintf(sb, "type %s struct {\n", goName)
	for _, f := range fields {
		fmt.Fprintf(sb, "\t%s %s `thrift:\"%s,%d%s\" json:\"%s%s\"`\n",
			fieldName(f.Name), fieldGoType(f), fieldName(f.Name), f.ID, tagSuffix(f),
			fieldName(f.Name), jsonSuffix(f))
	}
	sb.WriteString("}\n\n")

	emitConstructor(sb, goName, fields)
	emitAccessors(sb, goName, fields)
	emitFieldIDToName(sb, goName, fields)
	emitString(sb, goName, fields)
	emitBLength(sb, goName, fields)
	emitWrite(sb, goName, fields)
	emitRead(sb, goName, fields)
	if isException {
		fmt.Fprintf(sb, "func (p *%s) Error() string {\n\treturn p.String()\n}\n\n", goName)
	}
}

func tagSuffix(f *idl.Field) string {
	if f.Requiredness == idl.Required {
		return ""
	}
	return ",optional"
}

func jsonSuffix(f *idl.Field) string {
	if f.Requiredness == idl.Required {
		return ""
	}
	return ",omitempty"
}

func emitConstructor(sb *strings.Builder, goName string, fields []*idl.Field) {
	fmt.Fprintf(sb, "func New%s() *%s {\n\treturn &%s{\n", goName, goName, goName)
	for _, f := range fields {
		if f.Requiredness == idl.Required && !isReferenceKind(f.Type) {
			fmt.Fprintf(sb, "\t\t%s: %s,\n", fieldName(f.Name), zeroValue(f.Type))
		}
	}
	sb.WriteString("\t}\n}\n\n")
}

func emitAccessors(sb *strings.Builder, goName string, fields []*idl.Field) {
	for _, f := range fields {
		fn := fieldName(f.Name)
		gt := goType(f.Type)

		if isPointerWrappedScalar(f) {
			fmt.Fprintf(sb, "var %s_%s_DEFAULT %s\n\n", goName, fn, gt)
			fmt.Fprintf(sb, "func (p *%s) Get%s() (v %s) {\n\tif !p.IsSet%s() {\n\t\treturn %s_%s_DEFAULT\n\t}\n\treturn *p.%s\n}\n\n",
				goName, fn, gt, fn, goName, fn, fn)
		} else if f.Requiredness != idl.Required {
			fmt.Fprintf(sb, "var %s_%s_DEFAULT %s\n\n", goName, fn, gt)
			fmt.Fprintf(sb, "func (p *%s) Get%s() (v %s) {\n\tif !p.IsSet%s() {\n\t\treturn %s_%s_DEFAULT\n\t}\n\treturn p.%s\n}\n\n",
				goName, fn, gt, fn, goName, fn, fn)
		} else {
			fmt.Fprintf(sb, "func (p *%s) Get%s() (v %s) {\n\treturn p.%s\n}\n\n", goName, fn, gt, fn)
		}

		fmt.Fprintf(sb, "func (p *%s) Set%s(val %s) {\n\tp.%s = val\n}\n\n", goName, fn, fieldGoType(f), fn)

		if f.Requiredness != idl.Required {
			fmt.Fprintf(sb, "func (p *%s) IsSet%s() bool {\n\treturn p.%s != nil\n}\n\n", goName, fn, fn)
		}
	}
}

func emitFieldIDToName(sb *strings.Builder, goName string, fields []*idl.Field) {
	fmt.Fprintf(sb, "var fieldIDToName_%s = map[int16]string{\n", goName)
	for _, f := range fields {
		fmt.Fprintf(sb, "\t%d: %q,\n", f.ID, fieldName(f.Name))
	}
	sb.WriteString("}\n\n")
}

func emitString(sb *strings.Builder, goName string, fields []*idl.Field) {
	fmt.Fprintf(sb, "func (p *%s) String() string {\n\tif p == nil {\n\t\treturn \"<nil>\"\n\t}\n\treturn fmt.Sprintf(\"%s(%%+v)\", *p)\n}\n\n", goName, goName)
}

func emitBLength(sb *strings.Builder, goName string, fields []*idl.Field) {
	fmt.Fprintf(sb, "func (p *%s) BLength() int {\n\tn := 0\n", goName)
	for _, f := range fields {
		expr := fieldValueExpr(f)
		body := lengthStmts(f.Type, expr)
		if f.Requiredness == idl.Required {
			sb.WriteString("\tn += thrift.Binary.FieldBeginLength()\n")
			writeLines(sb, 1, body)
		} else {
			fmt.Fprintf(sb, "\tif p.%s != nil {\n", fieldName(f.Name))
			sb.WriteString("\t\tn += thrift.Binary.FieldBeginLength()\n")
			writeLines(sb, 2, body)
			sb.WriteString("\t}\n")
		}
	}
	sb.WriteString("\tn += thrift.Binary.FieldStopLength()\n\treturn n\n}\n\n")
}

func emitWrite(sb *strings.Builder, goName string, fields []*idl.Field) {
	fmt.Fprintf(sb, "func (p *%s) Write(buf []byte) int {\n\toff := 0\n", goName)
	for _, f := range fields {
		expr := fieldValueExpr(f)
		body := writeStmts(f.Type, expr)
		begin := fmt.Sprintf("off += thrift.Binary.WriteFieldBegin(buf[off:], %s, %d)", ttypeConst(f.Type), f.ID)
		if f.Requiredness == idl.Required {
			sb.WriteString("\t" + begin + "\n")
			writeLines(sb, 1, body)
		} else {
			fmt.Fprintf(sb, "\tif p.%s != nil {\n", fieldName(f.Name))
			sb.WriteString("\t\t" + begin + "\n")
			writeLines(sb, 2, body)
			sb.WriteString("\t}\n")
		}
	}
	sb.WriteString("\toff += thrift.Binary.WriteFieldStop(buf[off:])\n\treturn off\n}\n\n")
}

// fieldValueExpr renders the Go expression of the field's "bare" value
// (dereferenced if pointer-wrapped scalar) to feed into writeStmts/lengthStmts.
func fieldValueExpr(f *idl.Field) string {
	fn := fieldName(f.Name)
	if isPointerWrappedScalar(f) {
		return "*p." + fn
	}
	return "p." + fn
}

func emitRead(sb *strings.Builder, goName string, fields []*idl.Field) {
	fmt.Fprintf(sb, "func (p *%s) Read(buf []byte) (int, error) {\n\toff := 0\n", goName)
	var required []*idl.Field
	for _, f := range fields {
		if f.Requiredness == idl.Required {
			required = append(required, f)
			fmt.Fprintf(sb, "\tisset%s := false\n", fieldName(f.Name))
		}
	}
	sb.WriteString("\tfor {\n")
	sb.WriteString("\t\ttp, id, l, err := thrift.Binary.ReadFieldBegin(buf[off:])\n")
	sb.WriteString("\t\tif err != nil {\n\t\t\treturn off, err\n\t\t}\n")
	sb.WriteString("\t\toff += l\n")
	sb.WriteString("\t\tif tp == thrift.STOP {\n\t\t\tbreak\n\t\t}\n")
	sb.WriteString("\t\tswitch id {\n")
	for _, f := range fields {
		fn := fieldName(f.Name)
		fmt.Fprintf(sb, "\t\tcase %d:\n", f.ID)
		fmt.Fprintf(sb, "\t\t\tif tp != %s {\n", ttypeConst(f.Type))
		fmt.Fprintf(sb, "\t\t\t\treturn off, thrift.NewProtocolError(thrift.ProtocolInvalidData, \"field %d (%s) type mismatch\")\n", f.ID, fn)
		sb.WriteString("\t\t\t}\n")
		if isPointerWrappedScalar(f) {
			gt := goType(f.Type)
			fmt.Fprintf(sb, "\t\t\tvar v %s\n", gt)
			writeLines(sb, 3, readStmts(f.Type, "v"))
			fmt.Fprintf(sb, "\t\t\tp.%s = &v\n", fn)
		} else {
			writeLines(sb, 3, readStmts(f.Type, "p."+fn))
		}
		if f.Requiredness == idl.Required {
			fmt.Fprintf(sb, "\t\t\tisset%s = true\n", fn)
		}
	}
	sb.WriteString("\t\tdefault:\n")
	writeLines(sb, 3, skipStmt())
	sb.WriteString("\t\t}\n\t}\n")
	for _, f := range required {
		fn := fieldName(f.Name)
		fmt.Fprintf(sb, "\tif !isset%s {\n\t\treturn off, thrift.NewProtocolError(thrift.ProtocolInvalidData, \"required field %s is not set\")\n\t}\n", fn, fn)
	}
	sb.WriteString("\treturn off, nil\n}\n\n")
}

func writeLines(sb *strings.Builder, depth int, lines []string) {
	prefix := strings.Repeat("\t", depth)
	for _, l := range lines {
		sb.WriteString(prefix + l + "\n")
	}
}
