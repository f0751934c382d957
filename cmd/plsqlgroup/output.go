package main

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"plsqlgroup/internal/sqlgroup"
)

// writeStatements renders each top-level statement to w in the requested
// format: "tree" (pprint-style debug dump), "json", or "yaml".
func writeStatements(w io.Writer, stmts []*sqlgroup.TokenList, format string) error {
	switch format {
	case "tree", "":
		for i, stmt := range stmts {
			fmt.Fprintf(w, "-- statement %d --\n", i)
			sqlgroup.DumpTree(w, stmt)
		}
		return nil
	case "json":
		for i, stmt := range stmts {
			b, err := sqlgroup.ToJSON(stmt)
			if err != nil {
				return fmt.Errorf("failed to marshal statement %d: %w", i, err)
			}
			fmt.Fprintln(w, string(b))
		}
		return nil
	case "yaml":
		docs := make([]yamlStatement, len(stmts))
		for i, stmt := range stmts {
			docs[i] = toYAMLStatement(stmt)
		}
		b, err := yaml.Marshal(docs)
		if err != nil {
			return fmt.Errorf("failed to marshal statements: %w", err)
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// yamlStatement is a small, human-browsable YAML projection of a grouped
// tree: types and values only, mirroring the "public attributes only" shape
// used by ToJSON.
type yamlStatement struct {
	Variant  string          `yaml:"variant,omitempty"`
	Type     string          `yaml:"type,omitempty"`
	Value    string          `yaml:"value,omitempty"`
	Children []yamlStatement `yaml:"children,omitempty"`
}

func toYAMLStatement(n sqlgroup.Node) yamlStatement {
	if g, ok := n.(*sqlgroup.TokenList); ok {
		children := make([]yamlStatement, len(g.Children))
		for i, c := range g.Children {
			children[i] = toYAMLStatement(c)
		}
		return yamlStatement{Variant: g.Variant.String(), Children: children}
	}
	t := n.(*sqlgroup.Token)
	return yamlStatement{Type: t.Ttype.String(), Value: t.Value}
}
