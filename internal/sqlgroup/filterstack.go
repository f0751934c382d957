package sqlgroup

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// PreFilter transforms the raw token stream before splitting (e.g.
// stripping a specific comment convention, normalizing placeholders).
type PreFilter interface {
	Process(tokens []*Token) []*Token
}

// StmtFilter is invoked once per split (and, if enabled, grouped)
// Statement. FilterStack.Run calls it for its side effects and does not
// use its return value.
type StmtFilter interface {
	Process(stmt *TokenList) *TokenList
}

// PostFilter runs once over the full ordered slice of Statements and its
// return value IS used as the final result, unlike StmtFilter.
type PostFilter interface {
	Process(stmts []*TokenList) []*TokenList
}

// FilterStack is the external contract wrapping the lexer, Splitter and
// Grouping Engine with optional pre/per-statement/post filters. The core
// grouping package has no other configuration surface.
type FilterStack struct {
	Preprocess  []PreFilter
	Stmtprocess []StmtFilter
	Postprocess []PostFilter

	grouping bool
}

// NewFilterStack returns a FilterStack with grouping enabled, the default.
func NewFilterStack() *FilterStack {
	return &FilterStack{grouping: true}
}

// EnableGrouping turns grouping on (the default).
func (fs *FilterStack) EnableGrouping() { fs.grouping = true }

// DisableGrouping turns grouping off: Run yields flat, split-only
// Statements (splitter output, no Group pass applied).
func (fs *FilterStack) DisableGrouping() { fs.grouping = false }

// Run lexes, splits, and (unless disabled) groups src, applying the
// configured filters around each stage. Every invocation is tagged with a
// correlation ID so its debug log lines (emitted only at slog.LevelDebug;
// callers such as cmd/plsqlgroup's -v flag decide whether that level is
// enabled) can be told apart when multiple files are processed
// concurrently.
func (fs *FilterStack) Run(ctx context.Context, src string) ([]*TokenList, error) {
	runID := uuid.New().String()
	log := slog.Default().With("run_id", runID)
	log.Debug("lexing source", "bytes", len(src))
	tokens := Lex(src)

	for _, f := range fs.Preprocess {
		tokens = f.Process(tokens)
	}

	log.Debug("splitting tokens", "count", len(tokens))
	stmts := Split(tokens)

	result := make([]*TokenList, 0, len(stmts))
	for i, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			return nil, newError("FilterStack.Run", err)
		}
		if fs.grouping {
			before := len(stmt.Children)
			Group(stmt)
			log.Debug("grouped statement", "index", i, "tokens_before", before, "tokens_after", len(stmt.Children))
		}
		for _, f := range fs.Stmtprocess {
			f.Process(stmt)
		}
		result = append(result, stmt)
	}

	log.Debug("postprocessing statements", "count", len(result))
	for _, f := range fs.Postprocess {
		result = f.Process(result)
	}
	return result, nil
}
