package applyfix

import (
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/hyperifyio/transcriptfix/internal/docmodel"
	"github.com/hyperifyio/transcriptfix/internal/fingerprint"
	"github.com/hyperifyio/transcriptfix/internal/tableplace"
)

// verifyTableIntegrity checks that a MOVE preserved the document's tables:
// same total count and the same multiset of (normalized heading, row count)
// pairs, cross-checked with an independent goldmark parse. Returns "" when
// the invariant holds, otherwise a diagnostic reason.
func verifyTableIntegrity(before, after string) string {
	cb, ca := tableCensus(before), tableCensus(after)
	if len(cb) != len(ca) {
		return fmt.Sprintf("table census changed: %d keys before, %d after", len(cb), len(ca))
	}
	for key, n := range cb {
		if ca[key] != n {
			return fmt.Sprintf("table %q count changed from %d to %d", key, n, ca[key])
		}
	}
	tb, rb := goldmarkTableCount(before)
	ta, ra := goldmarkTableCount(after)
	if tb != ta || rb != ra {
		return fmt.Sprintf("markdown table structure changed: %d/%d tables, %d/%d rows", tb, ta, rb, ra)
	}
	return ""
}

// tableCensus keys each table block by normalized heading and row count.
func tableCensus(text string) map[string]int {
	doc := docmodel.Parse(text)
	out := map[string]int{}
	for _, b := range tableplace.FindBlocks(doc) {
		key := fmt.Sprintf("%s|%d", fingerprint.Normalize(b.Heading), b.RowCount)
		out[key]++
	}
	return out
}

var tableMarkdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// goldmarkTableCount parses with the GFM table extension and counts table
// nodes and data rows, independent of the line-oriented census.
func goldmarkTableCount(text string) (tables, rows int) {
	src := []byte(text)
	root := tableMarkdown.Parser().Parse(gmtext.NewReader(src))
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *east.Table:
			tables++
		case *east.TableRow:
			rows++
		}
		return ast.WalkContinue, nil
	})
	return tables, rows
}
