// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package apidesc

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/samber/oops"
)

// signatureLexer splits method signatures such as
// "get_meta(name: StringName, default: Variant = null) -> Variant".
var signatureLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Number", Pattern: `-?\d+(\.\d+)?`},
	{Name: "Ellipsis", Pattern: `\.\.\.`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "Ident", Pattern: `[a-zA-Z_]\w*`},
	{Name: "Punct", Pattern: `[(),:=]`},
	{Name: "whitespace", Pattern: `\s+`},
})

// rawSignature is the grammar of a method declaration.
//
// Grammar: [ "const" ] name "(" [ item { "," item } ] ")" [ "->" type ]
// where an item is a parameter or "...", and "..." may only come last.
type rawSignature struct {
	Pos    lexer.Position `parser:""`
	Const  bool           `parser:"@'const'?"`
	Name   string         `parser:"@Ident '('"`
	Items  []*rawItem     `parser:"( @@ ( ',' @@ )* )? ')'"`
	Return string         `parser:"( '->' @Ident )?"`
}

type rawItem struct {
	Pos    lexer.Position `parser:""`
	Vararg bool           `parser:"  @'...'"`
	Param  *Param         `parser:"| @@"`
}

// Signature is a parsed method declaration.
type Signature struct {
	Const  bool     `json:"const,omitempty"`
	Name   string   `json:"name"`
	Params []*Param `json:"params,omitempty"`
	Vararg bool     `json:"vararg,omitempty"`
	Return string   `json:"return"`
}

// Param is one declared parameter.
type Param struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Name    string         `parser:"@Ident ':'" json:"name"`
	Type    string         `parser:"@Ident" json:"type"`
	Default *Literal       `parser:"( '=' @@ )?" json:"default,omitempty"`
}

// Literal is a default value.
type Literal struct {
	Null   bool    `parser:"  @'null'" json:"null,omitempty"`
	Bool   *string `parser:"| @( 'true' | 'false' )" json:"bool,omitempty"`
	Number *string `parser:"| @Number" json:"number,omitempty"`
	String *string `parser:"| @String" json:"string,omitempty"`
}

var signatureParser = participle.MustBuild[rawSignature](
	participle.Lexer(signatureLexer),
	participle.Unquote("String"),
)

// ParseSignature parses a method declaration.
func ParseSignature(text string) (*Signature, error) {
	raw, err := signatureParser.ParseString("", text)
	if err != nil {
		return nil, oops.In("apidesc").
			Code("API_INVALID").
			With("signature", text).
			Wrapf(err, "parsing method signature")
	}
	sig := &Signature{Const: raw.Const, Name: raw.Name, Return: raw.Return}
	for i, it := range raw.Items {
		if it.Vararg {
			if i != len(raw.Items)-1 {
				return nil, oops.In("apidesc").
					Code("API_INVALID").
					With("signature", text).
					Errorf("%s: '...' must be the last parameter", sig.Name)
			}
			sig.Vararg = true
			continue
		}
		sig.Params = append(sig.Params, it.Param)
	}
	if sig.Return == "" {
		sig.Return = "void"
	}
	return sig, nil
}

// Required returns the number of parameters without defaults.
func (s *Signature) Required() int {
	n := 0
	for _, p := range s.Params {
		if p.Default == nil {
			n++
		}
	}
	return n
}

// String renders the signature in its canonical form.
func (s *Signature) String() string {
	var b strings.Builder
	if s.Const {
		b.WriteString("const ")
	}
	b.WriteString(s.Name)
	b.WriteByte('(')
	parts := make([]string, 0, len(s.Params)+1)
	for _, p := range s.Params {
		part := p.Name + ": " + p.Type
		if p.Default != nil {
			part += " = " + p.Default.Text()
		}
		parts = append(parts, part)
	}
	if s.Vararg {
		parts = append(parts, "...")
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(") -> ")
	b.WriteString(s.Return)
	return b.String()
}

// Text renders the literal as it is written in a signature.
func (l *Literal) Text() string {
	switch {
	case l.Bool != nil:
		return *l.Bool
	case l.Number != nil:
		return *l.Number
	case l.String != nil:
		return fmt.Sprintf("%q", *l.String)
	default:
		return "null"
	}
}
