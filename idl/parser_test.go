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

package idl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseIncludesAndNamespaces(t *testing.T) {
	src := `
include "common.thrift"
cpp_include "<vector>"
namespace rs mini_lust
namespace go minilust
namespace * fallback
`
	doc, err := Parse(src, "demo.thrift")
	require.NoError(t, err)
	require.Len(t, doc.Includes, 1)
	require.Equal(t, "common.thrift", doc.Includes[0].Path)
	require.Equal(t, []string{"<vector>"}, doc.CppIncludes)
	require.Len(t, doc.Namespaces, 3)

	ns, ok := doc.Namespace()
	require.True(t, ok)
	require.Equal(t, "mini_lust", ns)
}

func TestParseNamespaceWildcardFallback(t *testing.T) {
	src := `namespace * only_wildcard`
	doc, err := Parse(src, "demo.thrift")
	require.NoError(t, err)
	ns, ok := doc.Namespace()
	require.True(t, ok)
	require.Equal(t, "only_wildcard", ns)
}

func TestParseNoNamespace(t *testing.T) {
	doc, err := Parse(`typedef i32 MyInt`, "demo.thrift")
	require.NoError(t, err)
	_, ok := doc.Namespace()
	require.False(t, ok)
}

func TestParseTypedef(t *testing.T) {
	doc, err := Parse(`typedef i64 Timestamp`, "demo.thrift")
	require.NoError(t, err)
	require.Len(t, doc.Typedefs, 1)
	require.Equal(t, "Timestamp", doc.Typedefs[0].Alias)
	require.Equal(t, KindI64, doc.Typedefs[0].Type.Kind)
}

func TestParseConstPrimitives(t *testing.T) {
	src := `
const i32 MaxRetries = 3
const double Pi = 3.14
const string Greeting = "hello, world"
const list<i32> Primes = [2, 3, 5, 7,]
const map<string, i32> Weights = {"a": 1, "b": 2}
`
	doc, err := Parse(src, "demo.thrift")
	require.NoError(t, err)
	require.Len(t, doc.Consts, 5)

	require.Equal(t, "MaxRetries", doc.Consts[0].Name)
	require.EqualValues(t, 3, doc.Consts[0].Value.Int)

	require.Equal(t, ConstDouble, doc.Consts[1].Value.Kind)
	require.InDelta(t, 3.14, doc.Consts[1].Value.Double, 0.0001)

	require.Equal(t, "hello, world", doc.Consts[2].Value.String)

	require.Equal(t, ConstList, doc.Consts[3].Value.Kind)
	require.Len(t, doc.Consts[3].Value.List, 4)

	require.Equal(t, ConstMap, doc.Consts[4].Value.Kind)
	require.Len(t, doc.Consts[4].Value.Map, 2)
	require.Equal(t, "a", doc.Consts[4].Value.Map[0].Key.String)
	require.EqualValues(t, 1, doc.Consts[4].Value.Map[0].Value.Int)
}

func TestParseEnumImplicitAndExplicitValues(t *testing.T) {
	src := `
enum Status {
  ACTIVE = 1,
  INACTIVE,
  DELETED = 10,
  ARCHIVED
}
`
	doc, err := Parse(src, "demo.thrift")
	require.NoError(t, err)
	require.Len(t, doc.Enums, 1)
	e := doc.Enums[0]
	require.Equal(t, "Status", e.Name)
	require.Len(t, e.Values, 4)
	require.EqualValues(t, 1, e.Values[0].Value)
	require.EqualValues(t, 2, e.Values[1].Value)
	require.EqualValues(t, 10, e.Values[2].Value)
	require.EqualValues(t, 11, e.Values[3].Value)
}

func TestParseStructFieldSyntax(t *testing.T) {
	src := `
struct User {
  1: required i64 user_id,
  2: optional string name = "anonymous"
  3: map<string, list<i32>> scores
  4: binary payload
}
`
	doc, err := Parse(src, "demo.thrift")
	require.NoError(t, err)
	require.Len(t, doc.Structs, 1)
	s := doc.Structs[0]
	require.Equal(t, "User", s.Name)
	require.Len(t, s.Fields, 4)

	f0 := s.Fields[0]
	require.EqualValues(t, 1, f0.ID)
	require.Equal(t, Required, f0.Requiredness)
	require.Equal(t, KindI64, f0.Type.Kind)
	require.Equal(t, "user_id", f0.Name)

	f1 := s.Fields[1]
	require.Equal(t, Optional, f1.Requiredness)
	require.NotNil(t, f1.Default)
	require.Equal(t, "anonymous", f1.Default.String)

	f2 := s.Fields[2]
	require.Equal(t, KindMap, f2.Type.Kind)
	require.Equal(t, KindString, f2.Type.Key.Kind)
	require.Equal(t, KindList, f2.Type.Value.Kind)
	require.Equal(t, KindI32, f2.Type.Value.Value.Kind)

	f3 := s.Fields[3]
	require.Equal(t, KindBinary, f3.Type.Kind)
	require.Equal(t, Default, f3.Requiredness)
}

func TestParseUnionAndException(t *testing.T) {
	src := `
union Payload {
  1: string text
  2: binary raw
}
exception NotFound {
  1: string message
}
`
	doc, err := Parse(src, "demo.thrift")
	require.NoError(t, err)
	require.Len(t, doc.Unions, 1)
	require.Equal(t, "Payload", doc.Unions[0].Name)
	require.Len(t, doc.Exceptions, 1)
	require.Equal(t, "NotFound", doc.Exceptions[0].Name)
}

func TestParseServiceWithExtendsAndThrows(t *testing.T) {
	src := `
service BaseService {
  void Ping()
}
service UserService extends BaseService {
  User GetUser(1: i64 user_id) throws (1: NotFound nf),
  oneway void Fire(1: string event)
}
`
	doc, err := Parse(src, "demo.thrift")
	require.NoError(t, err)
	require.Len(t, doc.Services, 2)

	base := doc.Services[0]
	require.Equal(t, "BaseService", base.Name)
	require.Empty(t, base.Extends)
	require.Len(t, base.Functions, 1)
	require.Nil(t, base.Functions[0].ReturnType)

	svc := doc.Services[1]
	require.Equal(t, "UserService", svc.Name)
	require.Equal(t, "BaseService", svc.Extends)
	require.Len(t, svc.Functions, 2)

	getUser := svc.Functions[0]
	require.Equal(t, "GetUser", getUser.Name)
	require.False(t, getUser.OneWay)
	require.Equal(t, KindIdentifier, getUser.ReturnType.Kind)
	require.Equal(t, "User", getUser.ReturnType.Identifier)
	require.Len(t, getUser.Args, 1)
	require.Len(t, getUser.Throws, 1)
	require.Equal(t, "NotFound", getUser.Throws[0].Type.Identifier)

	fire := svc.Functions[1]
	require.True(t, fire.OneWay)
	require.Nil(t, fire.ReturnType)
}

func TestParseCppTypeAnnotationIgnored(t *testing.T) {
	src := `
struct Blob {
  1: binary data cpp_type "folly::IOBuf"
}
`
	doc, err := Parse(src, "demo.thrift")
	require.NoError(t, err)
	require.Len(t, doc.Structs[0].Fields, 1)
	require.Equal(t, "data", doc.Structs[0].Fields[0].Name)
}

func TestParseAnnotationBlockIgnored(t *testing.T) {
	src := `
struct Annotated {
  1: string name (cpp.ref = "true", go.tag = "json:\"name\"")
}
`
	doc, err := Parse(src, "demo.thrift")
	require.NoError(t, err)
	require.Len(t, doc.Structs[0].Fields, 1)
	require.Equal(t, "name", doc.Structs[0].Fields[0].Name)
}

func TestParseErrorOnMalformedInput(t *testing.T) {
	_, err := Parse(`struct {}`, "bad.thrift")
	require.Error(t, err)
}

func TestParseCommentStyles(t *testing.T) {
	src := `
// line comment
# shell-style comment
/* block
   comment */
typedef i32 MyInt // trailing
`
	doc, err := Parse(src, "demo.thrift")
	require.NoError(t, err)
	require.Len(t, doc.Typedefs, 1)
}
