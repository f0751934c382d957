// Package sqlgroup implements the grouping core of a PL/SQL-flavored SQL
// parser: a statement splitter and a fixed pipeline of grouping passes that
// turn a flat lexer token stream into a tree of typed syntactic groups.
//
// The package never performs I/O and never returns an error from its core
// algorithms (Split, Group): malformed input is grouped as far as possible
// and left flat where it can't be recognized. Error handling, logging, and
// configuration belong to the layers built on top (see FilterStack and
// cmd/plsqlgroup).
package sqlgroup

import (
	"fmt"
)

// TokenType is a node in the hierarchical token-type lattice. Unlike a flat
// enum, a TokenType carries a parent so membership tests can ask "is this a
// kind of Keyword" rather than "is this exactly Keyword.DML".
type TokenType struct {
	name   string
	parent *TokenType
}

// String returns the dotted name of the type, e.g. "Keyword.DML".
func (t *TokenType) String() string {
	if t == nil {
		return "<nil>"
	}
	// the lattice root ("Token") is left out of every descendant's name
	if t.parent == nil || t.parent.parent == nil {
		return t.name
	}
	return t.parent.String() + "." + t.name
}

// Is reports whether t is other or a descendant of other in the lattice.
func (t *TokenType) Is(other *TokenType) bool {
	for cur := t; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

func newType(name string, parent *TokenType) *TokenType {
	return &TokenType{name: name, parent: parent}
}

// The token-type lattice. Declared as a process-wide immutable table per
// the design notes: every TokenType instance below is created once and
// shared by every Token of that type.
var (
	Root = newType("Token", nil)

	Keyword      = newType("Keyword", Root)
	KeywordDML   = newType("DML", Keyword)
	KeywordDDL   = newType("DDL", Keyword)
	KeywordCTE   = newType("CTE", Keyword)
	KeywordOrder = newType("Order", Keyword)

	Punctuation = newType("Punctuation", Root)
	Whitespace  = newType("Whitespace", Root)
	Newline     = newType("Newline", Whitespace)

	Comment          = newType("Comment", Root)
	CommentSingle    = newType("Single", Comment)
	CommentMultiline = newType("Multiline", Comment)

	Name            = newType("Name", Root)
	NamePlaceholder = newType("Placeholder", Name)

	Literal      = newType("Literal", Root)
	String       = newType("String", Literal)
	StringSingle = newType("Single", String)
	StringSymbol = newType("Symbol", String)
	Number       = newType("Number", Literal)
	NumberInt    = newType("Integer", Number)
	NumberFloat  = newType("Float", Number)

	Operator           = newType("Operator", Root)
	OperatorComparison = newType("Comparison", Operator)

	Wildcard   = newType("Wildcard", Root)
	Assignment = newType("Assignment", Root)
	ForIn      = newType("ForIn", Root)
	ErrorToken = newType("Error", Root)
)

// Token is a leaf node produced by the lexer. It satisfies Node.
type Token struct {
	Ttype      *TokenType
	Value      string
	Normalized string
	parent     *TokenList
}

// NewToken builds a Token, computing Normalized the way the lexer and the
// grouping passes expect: upper-cased for keywords, raw otherwise.
func NewToken(ttype *TokenType, value string) *Token {
	t := &Token{Ttype: ttype, Value: value}
	if t.IsKeyword() {
		t.Normalized = upperCaser.String(value)
	} else {
		t.Normalized = value
	}
	return t
}

func (t *Token) IsKeyword() bool   { return t.Ttype.Is(Keyword) }
func (t *Token) IsWhitespace() bool { return t.Ttype.Is(Whitespace) }
func (t *Token) IsGroup() bool     { return false }
func (t *Token) Parent() *TokenList { return t.parent }
func (t *Token) setParent(p *TokenList) { t.parent = p }
func (t *Token) String() string   { return t.Value }

// Flatten yields the leaf itself.
func (t *Token) Flatten() []*Token { return []*Token{t} }

// Match implements the match(token, type, values, ...) predicate from the
// matching primitives: true iff the token's type matches ttype AND (when
// values is non-empty) the normalized value is among them. Keyword
// comparisons are case-insensitive via Normalized; everything else is
// compared case-sensitively on Value.
func (t *Token) Match(ttype *TokenType, values ...string) bool {
	if t.Ttype != ttype {
		return false
	}
	if len(values) == 0 {
		return true
	}
	for _, v := range values {
		if t.IsKeyword() {
			if t.Normalized == upperCaser.String(v) {
				return true
			}
		} else if t.Value == v {
			return true
		}
	}
	return false
}

// Within reports whether t is nested, at any depth, inside a group of the
// given variant.
func (t *Token) Within(v Variant) bool {
	for p := t.parent; p != nil; p = p.parent {
		if p.Variant == v {
			return true
		}
	}
	return false
}

func (t *Token) GoString() string {
	return fmt.Sprintf("Token{%s %q}", t.Ttype, t.Value)
}
