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

// argsName and resultName render the per-method generated type names, e.g.
// UserServiceGetUserArgs / UserServiceGetUserResult.
func argsName(svc, method string) string {
	return exportName(svc) + exportName(method) + "Args"
}

func resultName(svc, method string) string {
	return exportName(svc) + exportName(method) + "Result"
}

// argsFields assigns 1-based positional ids to a function's declared
// arguments when the IDL left them unset, mirroring struct field
// conventions (args are just a struct in wire terms).
func argsFields(fn *idl.Function) []*idl.Field {
	fields := make([]*idl.Field, len(fn.Args))
	for i, a := range fn.Args {
		f := *a
		if !f.HasID {
			f.ID = int16(i + 1)
		}
		f.Requiredness = idl.Default
		fields[i] = &f
	}
	return fields
}

// resultFields builds the Result sum type's field list: Success at field id
// 1 (absent for void/one-way methods) plus one field per declared
// exception at its IDL-declared id, per the emission schema.
func resultFields(fn *idl.Function) []*idl.Field {
	var fields []*idl.Field
	if fn.ReturnType != nil {
		fields = append(fields, &idl.Field{
			ID: 1, HasID: true, Requiredness: idl.Optional,
			Type: fn.ReturnType, Name: "success",
		})
	}
	for _, ex := range fn.Throws {
		f := *ex
		f.Requiredness = idl.Optional
		fields = append(fields, &f)
	}
	return fields
}

// emitService writes a service's per-method Args/Result types, its Client,
// and its Handler interface and Server adapter. It emits no Request/Response
// dispatch enums; the Server's Handle method switches on the method name.
func emitService(sb *strings.Builder, svc *idl.Service) {
	goSvc := exportName(svc.Name)

	for _, fn := range svc.Functions {
		emitStructLike(sb, argsName(svc.Name, fn.Name), argsFields(fn), false)
		if !fn.OneWay {
			emitResultType(sb, resultName(svc.Name, fn.Name), fn)
		}
	}

	emitClient(sb, goSvc, svc)
	emitServer(sb, goSvc, svc)
}

// emitResultType writes the Result sum type: a Go struct carrying at most
// one of Success/exception fields populated, matching the "encode writes a
// single field for the chosen variant" decode/encode contract. Presence is
// tracked the same pointer-or-reference-nil way plain struct fields are.
func emitResultType(sb *strings.Builder, name string, fn *idl.Function) {
	fields := resultFields(fn)
	goName := structName(name)

	fmt.Fprintf(sb, "type %s struct {\n", goName)
	for _, f := range fields {
		fmt.Fprintf(sb, "\t%s %s `thrift:\"%s,%d,optional\" json:\"%s,omitempty\"`\n",
			fieldName(f.Name), fieldGoType(f), fieldName(f.Name), f.ID, fieldName(f.Name))
	}
	sb.WriteString("}\n\n")

	emitAccessors(sb, goName, fields)
	emitFieldIDToName(sb, goName, fields)
	emitString(sb, goName, fields)
	emitBLength(sb, goName, fields)
	emitWrite(sb, goName, fields)
	emitRead(sb, goName, fields)
}

func emitClient(sb *strings.Builder, goSvc string, svc *idl.Service) {
	clientName := goSvc + "Client"
	fmt.Fprintf(sb, "type %s struct {\n\tclient *client.Client\n}\n\n", clientName)
	fmt.Fprintf(sb, "func New%s(target transport.Target, opts ...client.Option) *%s {\n\treturn &%s{client: client.New(target, opts...)}\n}\n\n",
		clientName, clientName, clientName)

	for _, fn := range svc.Functions {
		emitClientMethod(sb, clientName, svc.Name, fn)
	}
}

func emitClientMethod(sb *strings.Builder, clientName, svcName string, fn *idl.Function) {
	goMethod := exportName(fn.Name)
	argsType := argsName(svcName, fn.Name)

	var params strings.Builder
	var setters strings.Builder
	for _, a := range fn.Args {
		params.WriteString(fmt.Sprintf(", %s %s", fieldName(a.Name), goType(a.Type)))
		setters.WriteString(fmt.Sprintf("\targs.Set%s(%s)\n", fieldName(a.Name), paramValueExpr(a)))
	}

	if fn.OneWay {
		fmt.Fprintf(sb, "func (c *%s) %s(ctx context.Context%s) error {\n", clientName, goMethod, params.String())
		fmt.Fprintf(sb, "\targs := New%s()\n%s", argsType, setters.String())
		fmt.Fprintf(sb, "\treturn c.client.OneWay(ctx, %q, args)\n}\n\n", fn.Name)
		return
	}

	resultType := resultName(svcName, fn.Name)
	retType := "error"
	if fn.ReturnType != nil {
		retType = fmt.Sprintf("(%s, error)", goType(fn.ReturnType))
	}
	fmt.Fprintf(sb, "func (c *%s) %s(ctx context.Context%s) %s {\n", clientName, goMethod, params.String(), retType)
	fmt.Fprintf(sb, "\targs := New%s()\n%s", argsType, setters.String())
	fmt.Fprintf(sb, "\tresult := &%s{}\n", resultType)
	fmt.Fprintf(sb, "\terr := c.client.Call(ctx, %q, args, result)\n", fn.Name)
	if fn.ReturnType == nil {
		sb.WriteString("\treturn err\n}\n\n")
		return
	}
	sb.WriteString("\tif err != nil {\n")
	fmt.Fprintf(sb, "\t\tvar zero %s\n", goType(fn.ReturnType))
	sb.WriteString("\t\treturn zero, err\n\t}\n")
	for _, ex := range fn.Throws {
		fn2 := fieldName(ex.Name)
		sb.WriteString(fmt.Sprintf("\tif result.IsSet%s() {\n", fn2))
		fmt.Fprintf(sb, "\t\tvar zero %s\n", goType(fn.ReturnType))
		fmt.Fprintf(sb, "\t\treturn zero, result.Get%s()\n\t}\n", fn2)
	}
	sb.WriteString("\treturn result.GetSuccess(), nil\n}\n\n")
}

func paramValueExpr(a *idl.Field) string {
	if isReferenceKind(a.Type) {
		return fieldName(a.Name)
	}
	return "&" + fieldName(a.Name)
}

// emitServer writes the server side of svc: a <Svc>Handler interface the
// user implements with one method per IDL function, and a <Svc>Server
// adapter whose Handle method dispatches decoded Args to it and builds the
// Result.
func emitServer(sb *strings.Builder, goSvc string, svc *idl.Service) {
	ifaceName := goSvc + "Handler"
	fmt.Fprintf(sb, "type %s interface {\n", ifaceName)
	for _, fn := range svc.Functions {
		fmt.Fprintf(sb, "\t%s\n", handlerMethodSig(fn))
	}
	sb.WriteString("}\n\n")

	serverName := goSvc + "Server"
	fmt.Fprintf(sb, "type %s struct {\n\thandler %s\n\tdispatch *strmap.StrMap[struct{}]\n}\n\n", serverName, ifaceName)

	var methodNames strings.Builder
	for i, fn := range svc.Functions {
		if i > 0 {
			methodNames.WriteString(", ")
		}
		fmt.Fprintf(&methodNames, "%q", fn.Name)
	}
	fmt.Fprintf(sb, "func New%s(handler %s) *%s {\n", serverName, ifaceName, serverName)
	fmt.Fprintf(sb, "\tnames := []string{%s}\n", methodNames.String())
	sb.WriteString("\tvalues := make([]struct{}, len(names))\n")
	fmt.Fprintf(sb, "\treturn &%s{handler: handler, dispatch: strmap.NewFromSlice(names, values)}\n", serverName)
	sb.WriteString("}\n\n")

	fmt.Fprintf(sb, "func (s *%s) Handle(ctx context.Context, method string, body []byte) ([]byte, error) {\n", serverName)
	sb.WriteString("\tif _, ok := s.dispatch.Get(method); !ok {\n")
	sb.WriteString("\t\treturn nil, thrift.NewApplicationError(thrift.ApplicationUnknownMethod, \"unknown method \"+method)\n\t}\n")
	sb.WriteString("\tswitch method {\n")
	for _, fn := range svc.Functions {
		emitServerCase(sb, svc.Name, fn)
	}
	sb.WriteString("\t}\n\treturn nil, thrift.NewApplicationError(thrift.ApplicationUnknownMethod, \"unknown method \"+method)\n}\n\n")
}

func handlerMethodSig(fn *idl.Function) string {
	goMethod := exportName(fn.Name)
	var params strings.Builder
	for _, a := range fn.Args {
		params.WriteString(fmt.Sprintf(", %s %s", fieldName(a.Name), goType(a.Type)))
	}
	if fn.OneWay {
		return fmt.Sprintf("%s(ctx context.Context%s)", goMethod, params.String())
	}
	if fn.ReturnType == nil {
		return fmt.Sprintf("%s(ctx context.Context%s) error", goMethod, params.String())
	}
	return fmt.Sprintf("%s(ctx context.Context%s) (%s, error)", goMethod, params.String(), goType(fn.ReturnType))
}

func emitServerCase(sb *strings.Builder, svcName string, fn *idl.Function) {
	argsType := argsName(svcName, fn.Name)
	goMethod := exportName(fn.Name)

	fmt.Fprintf(sb, "\tcase %q:\n", fn.Name)
	fmt.Fprintf(sb, "\t\targs := &%s{}\n", argsType)
	sb.WriteString("\t\tif _, err := args.Read(body); err != nil {\n\t\t\treturn nil, err\n\t\t}\n")

	var callArgs strings.Builder
	for _, a := range fn.Args {
		callArgs.WriteString(", args.Get" + fieldName(a.Name) + "()")
	}

	if fn.OneWay {
		fmt.Fprintf(sb, "\t\ts.handler.%s(ctx%s)\n\t\treturn nil, nil\n", goMethod, callArgs.String())
		return
	}

	resultType := resultName(svcName, fn.Name)
	fmt.Fprintf(sb, "\t\tresult := &%s{}\n", resultType)
	if fn.ReturnType == nil {
		fmt.Fprintf(sb, "\t\terr := s.handler.%s(ctx%s)\n", goMethod, callArgs.String())
	} else {
		fmt.Fprintf(sb, "\t\tret, err := s.handler.%s(ctx%s)\n", goMethod, callArgs.String())
	}
	sb.WriteString("\t\tif err != nil {\n")
	for _, ex := range fn.Throws {
		exType := goType(ex.Type) // already pointer, e.g. *NotFound
		fmt.Fprintf(sb, "\t\t\tif typed, ok := err.(%s); ok {\n", exType)
		fmt.Fprintf(sb, "\t\t\t\tresult.Set%s(typed)\n", fieldName(ex.Name))
		fmt.Fprintf(sb, "\t\t\t\tbuf := make([]byte, result.BLength())\n\t\t\t\tresult.Write(buf)\n\t\t\t\treturn buf, nil\n\t\t\t}\n")
	}
	sb.WriteString("\t\t\treturn nil, err\n\t\t}\n")
	if fn.ReturnType != nil {
		fmt.Fprintf(sb, "\t\tresult.SetSuccess(%s)\n", successSetExpr(fn.ReturnType))
	}
	sb.WriteString("\t\tbuf := make([]byte, result.BLength())\n\t\tresult.Write(buf)\n\t\treturn buf, nil\n")
}

func successSetExpr(t *idl.FieldType) string {
	if isReferenceKind(t) {
		return "ret"
	}
	return "&ret"
}
