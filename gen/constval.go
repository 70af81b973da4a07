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
	"strconv"
	"strings"

	"github.com/gothrift/gothrift/idl"
)

// constValueExpr renders a parsed const literal as a Go expression of type
// goType(t). Identifier literals are assumed to reference another top-level
// const or enum value declared elsewhere in the same generated package.
func constValueExpr(v *idl.ConstValue, t *idl.FieldType) string {
	switch v.Kind {
	case idl.ConstInt:
		if t != nil && t.Kind == idl.KindDouble {
			return strconv.FormatFloat(float64(v.Int), 'g', -1, 64)
		}
		return strconv.FormatInt(v.Int, 10)
	case idl.ConstDouble:
		return strconv.FormatFloat(v.Double, 'g', -1, 64)
	case idl.ConstString:
		return fmt.Sprintf("%q", v.String)
	case idl.ConstIdentifier:
		return exportName(v.Identifier)
	case idl.ConstList:
		var elemType *idl.FieldType
		if t != nil && (t.Kind == idl.KindList || t.Kind == idl.KindSet) {
			elemType = t.Value
		}
		var sb strings.Builder
		if t != nil {
			sb.WriteString(goType(t))
		} else {
			sb.WriteString("[]interface{}")
		}
		sb.WriteString("{")
		for i, e := range v.List {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(constValueExpr(e, elemType))
		}
		sb.WriteString("}")
		return sb.String()
	case idl.ConstMap:
		var keyType, valType *idl.FieldType
		if t != nil && t.Kind == idl.KindMap {
			keyType, valType = t.Key, t.Value
		}
		// *strmap.Str2Str is a pointer, not a composite-literal type, so a
		// map<string,string> const is built via its constructor instead of
		// goType(t){...} like every other map shape.
		if t != nil && isStrToStrMap(t) {
			needsStrmapImport = true
			var sb strings.Builder
			sb.WriteString("strmap.NewStr2StrFromMap(map[string]string{")
			for i, e := range v.Map {
				if i > 0 {
					sb.WriteString(", ")
				}
				fmt.Fprintf(&sb, "%s: %s", constValueExpr(e.Key, keyType), constValueExpr(e.Value, valType))
			}
			sb.WriteString("})")
			return sb.String()
		}
		var sb strings.Builder
		if t != nil {
			sb.WriteString(goType(t))
		} else {
			sb.WriteString("map[interface{}]interface{}")
		}
		sb.WriteString("{")
		for i, e := range v.Map {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s: %s", constValueExpr(e.Key, keyType), constValueExpr(e.Value, valType))
		}
		sb.WriteString("}")
		return sb.String()
	default:
		return "nil"
	}
}

// emitConst writes a top-level const as a package-level var. A var (rather
// than a const) is used uniformly since Thrift const literals can be lists
// and maps, which Go const declarations cannot hold.
func emitConst(sb *strings.Builder, c *idl.Const) {
	fmt.Fprintf(sb, "var %s %s = %s\n\n", exportName(c.Name), goType(c.Type), constValueExpr(c.Value, c.Type))
}
