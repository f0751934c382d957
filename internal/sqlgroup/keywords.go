package sqlgroup

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// upperCaser does the Unicode-aware upper-casing keyword classification and
// normalization need. A quoted identifier (Name/String.Symbol) can carry
// non-ASCII text even though every keyword this lattice recognizes is
// ASCII, so this is preferred over strings.ToUpper throughout the package.
var upperCaser = cases.Upper(language.Und)

// dmlKeywords, ddlKeywords, cteKeywords and orderKeywords carry the
// hierarchical subclasses of Keyword. Every other recognized keyword is
// plain Keyword.
var dmlKeywords = map[string]bool{
	"SELECT": true, "INSERT": true, "UPDATE": true, "DELETE": true,
}

var ddlKeywords = map[string]bool{
	"CREATE": true, "DROP": true, "ALTER": true,
}

var cteKeywords = map[string]bool{
	"WITH": true,
}

var orderKeywords = map[string]bool{
	"ASC": true, "DESC": true,
}

// plainKeywords rounds out the PL/SQL-flavored superset: stored-program
// constructs (BEGIN/END, IF/ELSIF/END IF,
// FOR/LOOP, DECLARE, CURSOR, EXCEPTION, ...) plus ordinary DML/DDL clause
// keywords (FROM, WHERE, JOIN, ...).
var plainKeywords = map[string]bool{
	"OR": true, "REPLACE": true, "AND": true, "NOT": true, "NULL": true,
	"IN": true, "LIKE": true, "BETWEEN": true, "EXISTS": true, "ALL": true,
	"DISTINCT": true, "UNION": true, "EXCEPT": true, "HAVING": true,
	"RETURNING": true, "INTO": true, "FROM": true, "WHERE": true,
	"GROUP": true, "BY": true, "ORDER": true, "LIMIT": true, "JOIN": true,
	"ON": true, "VALUES": true, "SET": true, "TABLE": true, "INDEX": true,
	"VIEW": true, "TRIGGER": true, "CONCURRENTLY": true,
	"CASE": true, "WHEN": true, "THEN": true, "ELSE": true, "ELSIF": true,
	"END": true, "BEGIN": true, "IF": true, "LOOP": true, "WHILE": true,
	"FOR": true, "DECLARE": true, "FUNCTION": true, "PROCEDURE": true,
	"PACKAGE": true, "IS": true, "AS": true, "RETURN": true, "RETURNS": true,
	"CURSOR": true, "EXCEPTION": true, "EXIT": true, "OPEN": true,
	"NOCOPY": true, "OUT": true, "DEFAULT": true, "COMMIT": true,
	"ROLLBACK": true, "TO": true, "FOUND": true, "NOTFOUND": true,
	"ROWCOUNT": true,
}

// classifyKeyword reports the TokenType a bare, case-insensitively
// matched keyword word should carry, and whether word is a keyword at
// all.
func classifyKeyword(word string) (*TokenType, bool) {
	up := upperCaser.String(word)
	switch {
	case dmlKeywords[up]:
		return KeywordDML, true
	case ddlKeywords[up]:
		return KeywordDDL, true
	case cteKeywords[up]:
		return KeywordCTE, true
	case orderKeywords[up]:
		return KeywordOrder, true
	case plainKeywords[up]:
		return Keyword, true
	}
	return nil, false
}

// phrase is a fixed multi-word keyword the matchers rely on seeing
// as a single token (e.g. "CREATE OR REPLACE", "END IF"): each word must
// immediately follow the previous one separated only by whitespace.
type phrase struct {
	words []string
	ttype *TokenType
}

func (p phrase) normalized() string {
	out := p.words[0]
	for _, w := range p.words[1:] {
		out += " " + w
	}
	return out
}

var phrases = []phrase{
	{[]string{"CREATE", "OR", "REPLACE"}, KeywordDDL},
	{[]string{"UNION", "ALL"}, Keyword},
	{[]string{"END", "IF"}, Keyword},
	{[]string{"END", "CASE"}, Keyword},
	{[]string{"END", "LOOP"}, Keyword},
	{[]string{"END", "WHILE"}, Keyword},
	{[]string{"FOR", "UPDATE"}, Keyword},
}

// mergePhrases post-processes a raw token stream, splicing runs that
// spell out a known multi-word keyword phrase, or the FOR-IN loop header,
// into a single token. This keeps Token.Match's whole-value comparison
// (the primitive every grouping pass relies on) working the same way it
// does against a single-word keyword.
func mergePhrases(raw []*Token) []*Token {
	out := make([]*Token, 0, len(raw))
	for i := 0; i < len(raw); {
		if n, ttype, ok := matchForIn(raw, i); ok {
			out = append(out, joinTokens(raw[i:i+n], ttype, ""))
			i += n
			continue
		}
		if n, p, ok := matchPhrase(raw, i); ok {
			out = append(out, joinTokens(raw[i:i+n], p.ttype, p.normalized()))
			i += n
			continue
		}
		out = append(out, raw[i])
		i++
	}
	return out
}

// matchForIn recognizes "FOR <name> IN" as a single ForIn-typed token,
// the compound token the For grouping keys its open sentinel off.
func matchForIn(raw []*Token, i int) (int, *TokenType, bool) {
	if !raw[i].Match(Keyword, "FOR") {
		return 0, nil, false
	}
	j := i + 1
	wsIdx, ok := expectWhitespace(raw, j)
	if !ok {
		return 0, nil, false
	}
	j = wsIdx
	if raw[j].TType() != Name {
		return 0, nil, false
	}
	j++
	wsIdx, ok = expectWhitespace(raw, j)
	if !ok {
		return 0, nil, false
	}
	j = wsIdx
	if !raw[j].Match(Keyword, "IN") {
		return 0, nil, false
	}
	return j - i + 1, ForIn, true
}

func expectWhitespace(raw []*Token, idx int) (int, bool) {
	if idx >= len(raw) || !raw[idx].IsWhitespace() {
		return 0, false
	}
	return idx + 1, true
}

func matchPhrase(raw []*Token, i int) (int, phrase, bool) {
	for _, p := range phrases {
		if n, ok := tryPhrase(raw, i, p.words); ok {
			return n, p, true
		}
	}
	return 0, phrase{}, false
}

func tryPhrase(raw []*Token, i int, words []string) (int, bool) {
	j := i
	for wi, w := range words {
		if wi > 0 {
			idx, ok := expectWhitespace(raw, j)
			if !ok {
				return 0, false
			}
			j = idx
		}
		if j >= len(raw) || !raw[j].IsKeyword() || raw[j].Normalized != w {
			return 0, false
		}
		j++
	}
	return j - i, true
}

// joinTokens splices toks' original text into one token's Value (so the
// round-trip invariant holds byte for byte), overriding Normalized with
// normalized when non-empty since internal whitespace between the
// original words need not be a single space the way Normalized's callers
// expect.
func joinTokens(toks []*Token, ttype *TokenType, normalized string) *Token {
	var b []byte
	for _, t := range toks {
		b = append(b, t.Value...)
	}
	tok := NewToken(ttype, string(b))
	if normalized != "" {
		tok.Normalized = normalized
	}
	return tok
}
