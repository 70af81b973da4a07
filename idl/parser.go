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
	"fmt"
	"strconv"
)

// namespaceScopes enumerates the scopes recognized by spec §4.9. Unlisted
// scope idents are still accepted (forward-compat with new target
// languages) and simply stored verbatim.
var namespaceScopes = map[string]bool{
	"*": true, "c_glib": true, "rs": true, "cpp": true, "delphi": true,
	"haxe": true, "go": true, "java": true, "js": true, "lua": true,
	"netstd": true, "perl": true, "php": true, "py": true, "py.twisted": true,
	"rb": true, "st": true, "xsd": true,
}

// Parser is a recursive-descent parser over a Lexer's token stream, with a
// single token of lookahead.
type Parser struct {
	lex  *Lexer
	tok  Token
	path string
}

// Parse parses src (the contents of the file at path) into a Document.
func Parse(src, path string) (*Document, error) {
	p := &Parser{lex: NewLexer(src), path: path}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseDocument()
}

func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("idl: %s:%d: %s", p.path, p.tok.Line, fmt.Sprintf(format, args...))
}

func (p *Parser) isIdent(text string) bool {
	return p.tok.Kind == TokenIdent && p.tok.Text == text
}

func (p *Parser) isSymbol(text string) bool {
	return p.tok.Kind == TokenSymbol && p.tok.Text == text
}

// expectIdent consumes and returns the current token's text if it is an
// identifier, regardless of which keyword it happens to spell - keywords
// are not reserved against use as names in this grammar.
func (p *Parser) expectIdent() (string, error) {
	if p.tok.Kind != TokenIdent {
		return "", p.errorf("expected identifier, got %q", p.tok.Text)
	}
	s := p.tok.Text
	return s, p.advance()
}

func (p *Parser) expectSymbol(sym string) error {
	if !p.isSymbol(sym) {
		return p.errorf("expected %q, got %q", sym, p.tok.Text)
	}
	return p.advance()
}

// skipListSeparator consumes an optional trailing ',' or ';'.
func (p *Parser) skipListSeparator() error {
	if p.isSymbol(",") || p.isSymbol(";") {
		return p.advance()
	}
	return nil
}

func (p *Parser) parseDocument() (*Document, error) {
	doc := &Document{Path: p.path}
	for p.tok.Kind != TokenEOF {
		if err := p.parseDefinition(doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (p *Parser) parseDefinition(doc *Document) error {
	if p.tok.Kind != TokenIdent {
		return p.errorf("expected a definition keyword, got %q", p.tok.Text)
	}
	switch p.tok.Text {
	case "include":
		return p.parseInclude(doc)
	case "cpp_include":
		return p.parseCppInclude(doc)
	case "namespace":
		return p.parseNamespace(doc)
	case "typedef":
		return p.parseTypedef(doc)
	case "const":
		return p.parseConst(doc)
	case "enum":
		return p.parseEnum(doc)
	case "struct":
		return p.parseStructLike(doc, KindStruct)
	case "union":
		return p.parseStructLike(doc, KindUnion)
	case "exception":
		return p.parseStructLike(doc, KindException)
	case "service":
		return p.parseService(doc)
	case "senum":
		return p.errorf("senum is not supported")
	default:
		return p.errorf("unexpected top-level keyword %q", p.tok.Text)
	}
}

func (p *Parser) parseInclude(doc *Document) error {
	if err := p.advance(); err != nil { // consume 'include'
		return err
	}
	if p.tok.Kind != TokenString {
		return p.errorf("expected a string literal after include")
	}
	path := p.tok.Text
	if err := p.advance(); err != nil {
		return err
	}
	doc.Includes = append(doc.Includes, &Include{Path: path})
	return nil
}

func (p *Parser) parseCppInclude(doc *Document) error {
	if err := p.advance(); err != nil {
		return err
	}
	if p.tok.Kind != TokenString {
		return p.errorf("expected a string literal after cpp_include")
	}
	doc.CppIncludes = append(doc.CppIncludes, p.tok.Text)
	return p.advance()
}

func (p *Parser) parseNamespace(doc *Document) error {
	if err := p.advance(); err != nil { // consume 'namespace'
		return err
	}
	var scope string
	if p.isSymbol("*") {
		scope = "*"
		if err := p.advance(); err != nil {
			return err
		}
	} else {
		s, err := p.expectIdent()
		if err != nil {
			return err
		}
		scope = s
	}
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	doc.Namespaces = append(doc.Namespaces, &Namespace{Scope: scope, Name: name})
	return nil
}

func (p *Parser) parseTypedef(doc *Document) error {
	if err := p.advance(); err != nil {
		return err
	}
	ft, err := p.parseFieldType()
	if err != nil {
		return err
	}
	alias, err := p.expectIdent()
	if err != nil {
		return err
	}
	doc.Typedefs = append(doc.Typedefs, &Typedef{Alias: alias, Type: ft})
	return nil
}

func (p *Parser) parseConst(doc *Document) error {
	if err := p.advance(); err != nil {
		return err
	}
	ft, err := p.parseFieldType()
	if err != nil {
		return err
	}
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := p.expectSymbol("="); err != nil {
		return err
	}
	val, err := p.parseConstValue()
	if err != nil {
		return err
	}
	if err := p.skipListSeparator(); err != nil {
		return err
	}
	doc.Consts = append(doc.Consts, &Const{Name: name, Type: ft, Value: val})
	return nil
}

func (p *Parser) parseEnum(doc *Document) error {
	if err := p.advance(); err != nil {
		return err
	}
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := p.expectSymbol("{"); err != nil {
		return err
	}
	e := &Enum{Name: name}
	next := int32(0)
	for !p.isSymbol("}") {
		vname, err := p.expectIdent()
		if err != nil {
			return err
		}
		ev := &EnumValue{Name: vname}
		if p.isSymbol("=") {
			if err := p.advance(); err != nil {
				return err
			}
			if p.tok.Kind != TokenInt {
				return p.errorf("expected integer enum value, got %q", p.tok.Text)
			}
			n, err := strconv.ParseInt(p.tok.Text, 10, 32)
			if err != nil {
				return p.errorf("invalid enum value %q: %v", p.tok.Text, err)
			}
			ev.Value, ev.HasValue = int32(n), true
			if err := p.advance(); err != nil {
				return err
			}
		} else {
			ev.Value, ev.HasValue = next, true
		}
		next = ev.Value + 1
		e.Values = append(e.Values, ev)
		if err := p.skipListSeparator(); err != nil {
			return err
		}
	}
	if err := p.advance(); err != nil { // consume '}'
		return err
	}
	doc.Enums = append(doc.Enums, e)
	return nil
}

func (p *Parser) parseStructLike(doc *Document, kind StructKind) error {
	if err := p.advance(); err != nil { // consume struct/union/exception
		return err
	}
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	fields, err := p.parseFieldBlock()
	if err != nil {
		return err
	}
	sl := &StructLike{Kind: kind, Name: name, Fields: fields}
	switch kind {
	case KindStruct:
		doc.Structs = append(doc.Structs, sl)
	case KindUnion:
		doc.Unions = append(doc.Unions, sl)
	case KindException:
		doc.Exceptions = append(doc.Exceptions, sl)
	}
	return nil
}

// parseFieldBlock parses "{ field* }".
func (p *Parser) parseFieldBlock() ([]*Field, error) {
	if err := p.expectSymbol("{"); err != nil {
		return nil, err
	}
	var fields []*Field
	for !p.isSymbol("}") {
		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, p.advance() // consume '}'
}

// parseField parses "id? req? type name ('=' const)? sep?".
func (p *Parser) parseField() (*Field, error) {
	f := &Field{}
	if p.tok.Kind == TokenInt {
		n, err := strconv.ParseInt(p.tok.Text, 10, 16)
		if err != nil {
			return nil, p.errorf("invalid field id %q: %v", p.tok.Text, err)
		}
		f.ID, f.HasID = int16(n), true
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectSymbol(":"); err != nil {
			return nil, err
		}
	}

	if p.isIdent("required") {
		f.Requiredness = Required
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else if p.isIdent("optional") {
		f.Requiredness = Optional
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else {
		f.Requiredness = Default
	}

	ft, err := p.parseFieldType()
	if err != nil {
		return nil, err
	}
	f.Type = ft

	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	f.Name = name

	if p.isSymbol("=") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		val, err := p.parseConstValue()
		if err != nil {
			return nil, err
		}
		f.Default = val
	}

	if err := p.skipAnnotations(); err != nil {
		return nil, err
	}
	if err := p.skipListSeparator(); err != nil {
		return nil, err
	}
	return f, nil
}

// skipAnnotations consumes an ignored `cpp_type "..."` or Thrift
// `(key="value", ...)` style annotation block, if present.
func (p *Parser) skipAnnotations() error {
	if p.isIdent("cpp_type") {
		if err := p.advance(); err != nil {
			return err
		}
		if p.tok.Kind != TokenString {
			return p.errorf("expected string after cpp_type")
		}
		return p.advance()
	}
	if p.isSymbol("(") {
		depth := 0
		for {
			if p.isSymbol("(") {
				depth++
			} else if p.isSymbol(")") {
				depth--
			} else if p.tok.Kind == TokenEOF {
				return p.errorf("unterminated annotation block")
			}
			if err := p.advance(); err != nil {
				return err
			}
			if depth == 0 {
				return nil
			}
		}
	}
	return nil
}

func (p *Parser) parseFieldType() (*FieldType, error) {
	if p.tok.Kind != TokenIdent {
		return nil, p.errorf("expected a type, got %q", p.tok.Text)
	}
	name := p.tok.Text

	if kind, ok := baseTypeKinds[name]; ok {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &FieldType{Kind: kind}, nil
	}

	switch name {
	case "list":
		return p.parseListOrSetType(KindList)
	case "set":
		return p.parseListOrSetType(KindSet)
	case "map":
		return p.parseMapType()
	default:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &FieldType{Kind: KindIdentifier, Identifier: name}, nil
	}
}

func (p *Parser) parseListOrSetType(kind TypeKind) (*FieldType, error) {
	if err := p.advance(); err != nil { // consume 'list'/'set'
		return nil, err
	}
	if err := p.expectSymbol("<"); err != nil {
		return nil, err
	}
	elem, err := p.parseFieldType()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol(">"); err != nil {
		return nil, err
	}
	if err := p.skipAnnotations(); err != nil {
		return nil, err
	}
	return &FieldType{Kind: kind, Value: elem}, nil
}

func (p *Parser) parseMapType() (*FieldType, error) {
	if err := p.advance(); err != nil { // consume 'map'
		return nil, err
	}
	if err := p.expectSymbol("<"); err != nil {
		return nil, err
	}
	key, err := p.parseFieldType()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol(","); err != nil {
		return nil, err
	}
	val, err := p.parseFieldType()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol(">"); err != nil {
		return nil, err
	}
	if err := p.skipAnnotations(); err != nil {
		return nil, err
	}
	return &FieldType{Kind: KindMap, Key: key, Value: val}, nil
}

func (p *Parser) parseConstValue() (*ConstValue, error) {
	switch p.tok.Kind {
	case TokenInt:
		n, err := strconv.ParseInt(p.tok.Text, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid integer constant %q: %v", p.tok.Text, err)
		}
		return &ConstValue{Kind: ConstInt, Int: n}, p.advance()

	case TokenDouble:
		f, err := strconv.ParseFloat(p.tok.Text, 64)
		if err != nil {
			return nil, p.errorf("invalid double constant %q: %v", p.tok.Text, err)
		}
		return &ConstValue{Kind: ConstDouble, Double: f}, p.advance()

	case TokenString:
		s := p.tok.Text
		return &ConstValue{Kind: ConstString, String: s}, p.advance()

	case TokenIdent:
		name := p.tok.Text
		return &ConstValue{Kind: ConstIdentifier, Identifier: name}, p.advance()

	case TokenSymbol:
		switch p.tok.Text {
		case "[":
			return p.parseConstList()
		case "{":
			return p.parseConstMap()
		}
	}
	return nil, p.errorf("expected a constant value, got %q", p.tok.Text)
}

func (p *Parser) parseConstList() (*ConstValue, error) {
	if err := p.advance(); err != nil { // consume '['
		return nil, err
	}
	cv := &ConstValue{Kind: ConstList}
	for !p.isSymbol("]") {
		v, err := p.parseConstValue()
		if err != nil {
			return nil, err
		}
		cv.List = append(cv.List, v)
		if err := p.skipListSeparator(); err != nil {
			return nil, err
		}
	}
	return cv, p.advance() // consume ']'
}

func (p *Parser) parseConstMap() (*ConstValue, error) {
	if err := p.advance(); err != nil { // consume '{'
		return nil, err
	}
	cv := &ConstValue{Kind: ConstMap}
	for !p.isSymbol("}") {
		k, err := p.parseConstValue()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(":"); err != nil {
			return nil, err
		}
		v, err := p.parseConstValue()
		if err != nil {
			return nil, err
		}
		cv.Map = append(cv.Map, ConstMapEntry{Key: k, Value: v})
		if err := p.skipListSeparator(); err != nil {
			return nil, err
		}
	}
	return cv, p.advance() // consume '}'
}

func (p *Parser) parseService(doc *Document) error {
	if err := p.advance(); err != nil {
		return err
	}
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	svc := &Service{Name: name}
	if p.isIdent("extends") {
		if err := p.advance(); err != nil {
			return err
		}
		base, err := p.expectIdent()
		if err != nil {
			return err
		}
		svc.Extends = base
	}
	if err := p.expectSymbol("{"); err != nil {
		return err
	}
	for !p.isSymbol("}") {
		fn, err := p.parseFunction()
		if err != nil {
			return err
		}
		svc.Functions = append(svc.Functions, fn)
	}
	if err := p.advance(); err != nil { // consume '}'
		return err
	}
	doc.Services = append(doc.Services, svc)
	return nil
}

func (p *Parser) parseFunction() (*Function, error) {
	fn := &Function{}
	if p.isIdent("oneway") {
		fn.OneWay = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if p.isIdent("void") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		fn.ReturnType = nil
	} else {
		rt, err := p.parseFieldType()
		if err != nil {
			return nil, err
		}
		fn.ReturnType = rt
	}

	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	fn.Name = name

	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	for !p.isSymbol(")") {
		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		fn.Args = append(fn.Args, f)
	}
	if err := p.advance(); err != nil { // consume ')'
		return nil, err
	}

	if p.isIdent("throws") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectSymbol("("); err != nil {
			return nil, err
		}
		for !p.isSymbol(")") {
			f, err := p.parseField()
			if err != nil {
				return nil, err
			}
			fn.Throws = append(fn.Throws, f)
		}
		if err := p.advance(); err != nil { // consume ')'
			return nil, err
		}
	}

	if err := p.skipAnnotations(); err != nil {
		return nil, err
	}
	return fn, p.skipListSeparator()
}
