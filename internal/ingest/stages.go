package ingest

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ppiankov/genediff/internal/model"
	"github.com/ppiankov/genediff/internal/obo"
	"github.com/ppiankov/genediff/internal/tsv"
)

// Header aliases accepted for BioMart export columns. The first name is the
// BioMart web export header, the second the processed-table name.
var (
	martGeneIDColumns = []string{"Gene stable ID", model.ColEnsemblGeneID}
	martGOColumns     = []string{"GO term accession", model.ColGOID}
	martNameColumns   = []string{"Gene name", model.ColGeneSymbol, "HGNC symbol"}
)

const physicalSystemType = "physical"

// checkEvery bounds how many rows are processed between ctx checks
const checkEvery = 1 << 14

func (b *Builder) runGOTerms(ctx context.Context, input string, res *StageResult) error {
	f, err := os.Open(input)
	if err != nil {
		return errors.Wrap(err, "open ontology")
	}
	defer func() { _ = f.Close() }()

	terms, err := obo.Parse(f)
	if err != nil {
		return err
	}
	res.RowsIn = len(terms)

	out := b.output(model.GOTermsTable)
	err = tsv.WriteFile(out, func(w io.Writer) error {
		tw, err := tsv.NewWriter(w, model.ColGOTermID, model.ColGOTermName)
		if err != nil {
			return err
		}
		seen := make(map[string]struct{}, len(terms))
		for _, t := range obo.GOTerms(terms) {
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
			if err := tw.Write(t.ID, t.Term); err != nil {
				return err
			}
			res.RowsOut++
		}
		return tw.Flush()
	})
	if err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, out)
	return nil
}

type pair struct{ a, b string }

// runMartExport writes the gene to GO mapping and, when the export has a
// gene name column, the gene id to symbol table.
func (b *Builder) runMartExport(ctx context.Context, input string, res *StageResult) error {
	f, err := tsv.Open(input)
	if err != nil {
		return errors.Wrap(err, "open mart export")
	}
	defer func() { _ = f.Close() }()

	r, err := tsv.NewReader(f)
	if err != nil {
		return err
	}
	geneCol, err := r.Column(martGeneIDColumns...)
	if err != nil {
		return err
	}
	goCol, err := r.Column(martGOColumns...)
	if err != nil {
		return err
	}
	nameCol, nameErr := r.Column(martNameColumns...)
	if nameErr != nil {
		b.logger.WarnContext(ctx, "mart export has no gene name column, genes table not written", "input", input)
	}

	var (
		annotations []pair
		genes       []pair
		seenAnn     = map[pair]struct{}{}
		seenGene    = map[pair]struct{}{}
	)
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		res.RowsIn++
		if res.RowsIn%checkEvery == 0 && ctx.Err() != nil {
			return ctx.Err()
		}

		gene := strings.TrimSpace(row[geneCol])
		if gene == "" {
			continue
		}
		if goID := strings.TrimSpace(row[goCol]); goID != "" {
			p := pair{gene, goID}
			if _, dup := seenAnn[p]; !dup {
				seenAnn[p] = struct{}{}
				annotations = append(annotations, p)
			}
		}
		if nameErr == nil {
			if name := strings.TrimSpace(row[nameCol]); name != "" {
				p := pair{gene, name}
				if _, dup := seenGene[p]; !dup {
					seenGene[p] = struct{}{}
					genes = append(genes, p)
				}
			}
		}
	}

	annOut := b.output(model.EnsemblToGOTable)
	if err := writePairs(annOut, model.ColEnsemblGeneID, model.ColGOID, annotations); err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, annOut)
	res.RowsOut = len(annotations)

	if nameErr == nil {
		genesOut := b.output(model.GenesTable)
		if err := writePairs(genesOut, model.ColEnsemblGeneID, model.ColGeneSymbol, genes); err != nil {
			return err
		}
		res.Outputs = append(res.Outputs, genesOut)
	}
	return nil
}

func writePairs(path, colA, colB string, rows []pair) error {
	return tsv.WriteFile(path, func(w io.Writer) error {
		tw, err := tsv.NewWriter(w, colA, colB)
		if err != nil {
			return err
		}
		for _, p := range rows {
			if err := tw.Write(p.a, p.b); err != nil {
				return err
			}
		}
		return tw.Flush()
	})
}

// runBioGRID keeps physical interactions only
func (b *Builder) runBioGRID(ctx context.Context, input string, res *StageResult) error {
	f, err := tsv.Open(input)
	if err != nil {
		return errors.Wrap(err, "open biogrid release")
	}
	defer func() { _ = f.Close() }()

	r, err := tsv.NewReader(f)
	if err != nil {
		return err
	}

	cols := make([]int, 0, 4)
	for _, name := range []string{model.ColInteractorA, model.ColInteractorB, model.ColExperimental, model.ColPubmedID} {
		i, err := r.Column(name)
		if err != nil {
			return err
		}
		cols = append(cols, i)
	}
	typeCol, err := r.Column(model.ColSystemType)
	if err != nil {
		return err
	}

	out := b.output(model.BioGRIDTable)
	err = tsv.WriteFile(out, func(w io.Writer) error {
		tw, err := tsv.NewWriter(w, model.ColInteractorA, model.ColInteractorB, model.ColExperimental, model.ColPubmedID)
		if err != nil {
			return err
		}
		values := make([]string, len(cols))
		for {
			row, err := r.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			res.RowsIn++
			if res.RowsIn%checkEvery == 0 && ctx.Err() != nil {
				return ctx.Err()
			}
			if strings.TrimSpace(row[typeCol]) != physicalSystemType {
				continue
			}
			for i, c := range cols {
				values[i] = row[c]
			}
			if err := tw.Write(values...); err != nil {
				return err
			}
			res.RowsOut++
		}
		return tw.Flush()
	})
	if err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, out)
	return nil
}
