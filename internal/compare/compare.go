// Package compare contrasts an up-regulated and a down-regulated gene list
// by their GO annotations and protein-protein interactions.
package compare

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-set/v2"

	"github.com/ppiankov/genediff/internal/model"
)

// ErrTooManyGenes is returned when a list exceeds the configured limit
var ErrTooManyGenes = errors.New("too many genes in list")

// Dataset is the lookup surface a comparison needs
type Dataset interface {
	Known(ids []string) []string
	SymbolsFor(ids []string) []string
	GOFor(ids []string) []string
	Terms(goIDs []string) []model.GOTerm
	Interactions() []model.Interaction
}

// Normalize trims and upper-cases ids, dropping empties and duplicates.
// First occurrence order is kept.
func Normalize(ids []string) []string {
	seen := set.New[string](len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id == "" || !seen.Insert(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// CheckLimit rejects lists longer than max. max <= 0 disables the check.
func CheckLimit(lists model.GeneLists, max int) error {
	if max <= 0 {
		return nil
	}
	if n := len(lists.UpRegulated); n > max {
		return errors.Wrapf(ErrTooManyGenes, "up_regulated has %d ids, limit is %d", n, max)
	}
	if n := len(lists.DownRegulated); n > max {
		return errors.Wrapf(ErrTooManyGenes, "down_regulated has %d ids, limit is %d", n, max)
	}
	return nil
}

// Run compares the two lists against d
func Run(d Dataset, lists model.GeneLists) model.Comparison {
	up := Normalize(lists.UpRegulated)
	down := Normalize(lists.DownRegulated)

	return model.Comparison{
		Summary: model.Summary{
			UpSubmitted:   len(up),
			DownSubmitted: len(down),
			UpMapped:      len(d.Known(up)),
			DownMapped:    len(d.Known(down)),
		},
		GOComparison: compareGO(d, up, down),
		PPIAnalysis:  comparePPI(d, up, down),
	}
}

func compareGO(d Dataset, up, down []string) model.GOComparison {
	goUp := set.From(d.GOFor(up))
	goDown := set.From(d.GOFor(down))

	return model.GOComparison{
		UniqueToUp:   d.Terms(goUp.Difference(goDown).(*set.Set[string]).Slice()),
		UniqueToDown: d.Terms(goDown.Difference(goUp).(*set.Set[string]).Slice()),
		Shared:       d.Terms(goUp.Intersect(goDown).(*set.Set[string]).Slice()),
	}
}

func comparePPI(d Dataset, up, down []string) model.PPIAnalysis {
	symUp := set.From(d.SymbolsFor(up))
	symDown := set.From(d.SymbolsFor(down))

	out := model.PPIAnalysis{
		InternalUp:   []model.InteractionPair{},
		InternalDown: []model.InteractionPair{},
		CrossTalk:    []model.InteractionPair{},
	}
	if symUp.Empty() && symDown.Empty() {
		return out
	}

	for _, in := range d.Interactions() {
		pair := model.InteractionPair{InteractorA: in.InteractorA, InteractorB: in.InteractorB}
		aUp, bUp := symUp.Contains(in.InteractorA), symUp.Contains(in.InteractorB)
		aDown, bDown := symDown.Contains(in.InteractorA), symDown.Contains(in.InteractorB)

		if aUp && bUp {
			out.InternalUp = append(out.InternalUp, pair)
		}
		if aDown && bDown {
			out.InternalDown = append(out.InternalDown, pair)
		}
		if (aUp && bDown) || (aDown && bUp) {
			out.CrossTalk = append(out.CrossTalk, pair)
		}
	}
	return out
}
