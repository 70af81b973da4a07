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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateStructWithAccessorsAndCodec(t *testing.T) {
	src := `
namespace rs example.user

struct User {
  1: required i64 id,
  2: required string name,
  3: optional string email,
  4: optional list<string> tags,
}
`
	res := NewResolver(MapSource{"user.thrift": src})
	f, err := res.Resolve("user.thrift")
	require.NoError(t, err)

	out, err := Generate(f)
	require.NoError(t, err)
	code := string(out)

	assert.Contains(t, code, "package user")
	assert.Contains(t, code, "type User struct {")
	assert.Contains(t, code, "`thrift:\"Id,1\" json:\"Id\"`")
	assert.Contains(t, code, "`thrift:\"Email,3,optional\" json:\"Email,omitempty\"`")
	assert.Contains(t, code, "`thrift:\"Tags,4,optional\" json:\"Tags,omitempty\"`")
	assert.Contains(t, code, "func NewUser() *User {")
	assert.Contains(t, code, "func (p *User) GetEmail() (v string) {")
	assert.Contains(t, code, "func (p *User) SetEmail(val *string) {")
	assert.Contains(t, code, "func (p *User) IsSetEmail() bool {")
	assert.Contains(t, code, "func (p *User) BLength() int {")
	assert.Contains(t, code, "func (p *User) Write(buf []byte) int {")
	assert.Contains(t, code, "func (p *User) Read(buf []byte) (int, error) {")
	assert.Contains(t, code, "required field Id is not set")
	assert.Contains(t, code, "import (")
	assert.Contains(t, code, "\"fmt\"")
}

func TestGenerateExceptionSatisfiesError(t *testing.T) {
	src := `
namespace rs example.user

exception NotFound {
  1: required string message,
}
`
	res := NewResolver(MapSource{"err.thrift": src})
	f, err := res.Resolve("err.thrift")
	require.NoError(t, err)

	out, err := Generate(f)
	require.NoError(t, err)
	code := string(out)

	assert.Contains(t, code, "type NotFound struct {")
	assert.Contains(t, code, "func (p *NotFound) Error() string {\n\treturn p.String()\n}")
}

func TestGenerateServiceClientAndServer(t *testing.T) {
	src := `
namespace rs example.user

struct GetUserReq {
  1: required i64 id,
}

exception NotFound {
  1: required string message,
}

service UserService {
  GetUserReq getUser(1: i64 id) throws (1: NotFound notFound),
  void ping(),
}
`
	res := NewResolver(MapSource{"svc.thrift": src})
	f, err := res.Resolve("svc.thrift")
	require.NoError(t, err)

	out, err := Generate(f)
	require.NoError(t, err)
	code := string(out)

	assert.Contains(t, code, "type UserServiceClient struct {")
	assert.Contains(t, code, "func NewUserServiceClient(target transport.Target, opts ...client.Option) *UserServiceClient {")
	assert.Contains(t, code, "type UserServiceHandler interface {")
	assert.Contains(t, code, "GetUser(ctx context.Context, Id int64) (*GetUserReq, error)")
	assert.Contains(t, code, "Ping(ctx context.Context) error")
	assert.Contains(t, code, "type UserServiceServer struct {")
	assert.Contains(t, code, "dispatch *strmap.StrMap[struct{}]")
	assert.Contains(t, code, "strmap.NewFromSlice(names, values)")
	assert.Contains(t, code, "func (s *UserServiceServer) Handle(ctx context.Context, method string, body []byte) ([]byte, error) {")
	assert.Contains(t, code, "if _, ok := s.dispatch.Get(method); !ok {")
	assert.Contains(t, code, "thrift.ApplicationUnknownMethod")
	assert.Contains(t, code, "type UserServiceGetUserArgs struct {")
	assert.Contains(t, code, "type UserServiceGetUserResult struct {")
	assert.Contains(t, code, "if typed, ok := err.(*NotFound); ok {")
}

func TestGenerateEnumAndTypedefAndConst(t *testing.T) {
	src := `
namespace rs example.user

enum Status {
  ACTIVE = 1,
  INACTIVE,
  BANNED = 10,
}

typedef string UserID

const i32 MAX_USERS = 1000
const list<string> DEFAULT_TAGS = ["a", "b"]
`
	res := NewResolver(MapSource{"enum.thrift": src})
	f, err := res.Resolve("enum.thrift")
	require.NoError(t, err)

	out, err := Generate(f)
	require.NoError(t, err)
	code := string(out)

	assert.Contains(t, code, "type Status int32")
	assert.Contains(t, code, "StatusACTIVE")
	assert.Contains(t, code, "Status = 1")
	assert.Contains(t, code, "StatusINACTIVE")
	assert.Contains(t, code, "Status = 2")
	assert.Contains(t, code, "StatusBANNED")
	assert.Contains(t, code, "Status = 10")
	assert.Contains(t, code, "type UserID = string")
	assert.Contains(t, code, "var MAXUSERS int32 = 1000")
	assert.Contains(t, code, `var DEFAULTTAGS []string = []string{"a", "b"}`)
}

func TestGenerateEnumAndTypedefFieldsWireAsScalars(t *testing.T) {
	src := `
namespace rs example.account

enum Status {
  ACTIVE = 1,
  BANNED = 2,
}

typedef string UserID

struct Account {
  1: required UserID id,
  2: required Status status,
  3: optional Status lastStatus,
}
`
	res := NewResolver(MapSource{"account.thrift": src})
	f, err := res.Resolve("account.thrift")
	require.NoError(t, err)

	out, err := Generate(f)
	require.NoError(t, err)
	code := string(out)

	// UserID resolves to string: the field is a plain string, not a *UserID.
	assert.Contains(t, code, "`thrift:\"Id,1\" json:\"Id\"`")
	assert.NotContains(t, code, "*UserID")

	// Status resolves to an I32 wire type and a bare (not pointer) Go type
	// for the required field; the optional field is pointer-wrapped like
	// any other scalar, not left as a reference type.
	assert.Contains(t, code, "thrift.Binary.WriteI32(buf[off:], int32(p.Status))")
	assert.Contains(t, code, "thrift.Binary.WriteI32(buf[off:], int32(*p.LastStatus))")
	assert.Contains(t, code, "p.Status = Status(val)")
	assert.Contains(t, code, "v = Status(val)")
	assert.Contains(t, code, "LastStatus *Status")
}

func TestGenerateStrToStrMapFieldUsesStr2Str(t *testing.T) {
	src := `
namespace rs example.profile

struct Profile {
  1: required i64 id,
  2: optional map<string, string> extra,
}

const map<string, string> DEFAULT_EXTRA = {"tier": "free"}
`
	res := NewResolver(MapSource{"profile.thrift": src})
	f, err := res.Resolve("profile.thrift")
	require.NoError(t, err)

	out, err := Generate(f)
	require.NoError(t, err)
	code := string(out)

	assert.Contains(t, code, "\"github.com/gothrift/gothrift/container/strmap\"")
	assert.Contains(t, code, "Extra *strmap.Str2Str")
	assert.Contains(t, code, "p.Extra.Len()")
	assert.Contains(t, code, "k, v := p.Extra.Item(i)")
	assert.Contains(t, code, "thrift.Binary.WriteMapBegin(buf[off:], thrift.STRING, thrift.STRING, p.Extra.Len())")
	assert.Contains(t, code, "strmap.NewStr2StrFromSlice(kk, vv)")
	assert.Contains(t, code, `strmap.NewStr2StrFromMap(map[string]string{"tier": "free"})`)
}

// TestGenerateStrToStrMapOnlyFileStillImportsStrmap covers a file with a
// map<string,string> field but no service, where strmap is needed purely
// for the codec, not for a dispatch table.
func TestGenerateStrToStrMapOnlyFileStillImportsStrmap(t *testing.T) {
	src := `
namespace rs example.tag

struct Tags {
  1: required map<string, string> labels,
}
`
	res := NewResolver(MapSource{"tags.thrift": src})
	f, err := res.Resolve("tags.thrift")
	require.NoError(t, err)

	out, err := Generate(f)
	require.NoError(t, err)
	code := string(out)

	assert.Contains(t, code, "\"github.com/gothrift/gothrift/container/strmap\"")
	assert.NotContains(t, code, "\"github.com/gothrift/gothrift/client\"")
	assert.Contains(t, code, "Labels *strmap.Str2Str")
}

func TestGenerateIncludeCycleIsError(t *testing.T) {
	src := MapSource{
		"a.thrift": `include "b.thrift"` + "\n",
		"b.thrift": `include "a.thrift"` + "\n",
	}
	res := NewResolver(src)
	_, err := res.Resolve("a.thrift")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestGenerateNamespaceFallbackToFileStem(t *testing.T) {
	src := `struct Ping { 1: required bool ok }`
	res := NewResolver(MapSource{"health_check.thrift": src})
	f, err := res.Resolve("health_check.thrift")
	require.NoError(t, err)
	assert.Equal(t, "health_check", f.Namespace)

	out, err := Generate(f)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(out), "package health_check"))
}

func TestGenerateIncludedFileEmittedOnce(t *testing.T) {
	src := MapSource{
		"common.thrift": `
namespace rs example.common
struct Money { 1: required i64 cents }
`,
		"order.thrift": `
namespace rs example.order
include "common.thrift"
struct Order { 1: required Money total }
`,
	}
	res := NewResolver(src)
	f, err := res.Resolve("order.thrift")
	require.NoError(t, err)

	out, err := Generate(f)
	require.NoError(t, err)
	code := string(out)

	assert.Equal(t, 1, strings.Count(code, "type Money struct {"))
	assert.Contains(t, code, "Total *Money")
}
