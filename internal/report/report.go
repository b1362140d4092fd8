// Package report renders comparison results for files and terminals.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ppiankov/genediff/internal/model"
)

// RenderJSON writes the comparison in the API's response shape
func RenderJSON(w io.Writer, cmp model.Comparison) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cmp); err != nil {
		return errors.Wrap(err, "encode comparison")
	}
	return nil
}

// RenderMarkdown writes a readable report with an attribution footer
func RenderMarkdown(w io.Writer, cmp model.Comparison, notices []model.Notice) error {
	var b strings.Builder

	b.WriteString("# Gene list comparison\n\n")
	b.WriteString("| | Up-regulated | Down-regulated |\n|---|---|---|\n")
	fmt.Fprintf(&b, "| Submitted | %d | %d |\n", cmp.Summary.UpSubmitted, cmp.Summary.DownSubmitted)
	fmt.Fprintf(&b, "| Mapped | %d | %d |\n\n", cmp.Summary.UpMapped, cmp.Summary.DownMapped)

	b.WriteString("## GO terms\n\n")
	writeTerms(&b, "Unique to up-regulated", cmp.GOComparison.UniqueToUp)
	writeTerms(&b, "Unique to down-regulated", cmp.GOComparison.UniqueToDown)
	writeTerms(&b, "Shared", cmp.GOComparison.Shared)

	b.WriteString("## Protein interactions\n\n")
	writePairs(&b, "Within up-regulated", cmp.PPIAnalysis.InternalUp)
	writePairs(&b, "Within down-regulated", cmp.PPIAnalysis.InternalDown)
	writePairs(&b, "Cross talk", cmp.PPIAnalysis.CrossTalk)

	if len(notices) > 0 {
		b.WriteString("---\n\n")
		for _, n := range notices {
			b.WriteString("- " + n.Text + "\n")
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.Wrap(err, "write markdown")
	}
	return nil
}

func writeTerms(b *strings.Builder, title string, terms []model.GOTerm) {
	fmt.Fprintf(b, "### %s (%d)\n\n", title, len(terms))
	if len(terms) == 0 {
		b.WriteString("_none_\n\n")
		return
	}
	for _, t := range terms {
		fmt.Fprintf(b, "- `%s` %s\n", t.ID, t.Term)
	}
	b.WriteString("\n")
}

func writePairs(b *strings.Builder, title string, pairs []model.InteractionPair) {
	fmt.Fprintf(b, "### %s (%d)\n\n", title, len(pairs))
	if len(pairs) == 0 {
		b.WriteString("_none_\n\n")
		return
	}
	for _, p := range pairs {
		fmt.Fprintf(b, "- %s -- %s\n", p.InteractorA, p.InteractorB)
	}
	b.WriteString("\n")
}

// Summary is the one-line terminal summary
func Summary(cmp model.Comparison) string {
	return fmt.Sprintf("up %d/%d mapped, down %d/%d mapped; GO unique up %d, unique down %d, shared %d; PPI up %d, down %d, cross %d",
		cmp.Summary.UpMapped, cmp.Summary.UpSubmitted,
		cmp.Summary.DownMapped, cmp.Summary.DownSubmitted,
		len(cmp.GOComparison.UniqueToUp), len(cmp.GOComparison.UniqueToDown), len(cmp.GOComparison.Shared),
		len(cmp.PPIAnalysis.InternalUp), len(cmp.PPIAnalysis.InternalDown), len(cmp.PPIAnalysis.CrossTalk))
}
