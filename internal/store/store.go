// Package store holds the processed gene, GO and interaction tables in
// memory for the comparison service.
package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/genediff/internal/model"
	"github.com/ppiankov/genediff/internal/tsv"
)

// ErrMissingTable is returned when a processed table file does not exist
var ErrMissingTable = errors.New("processed table missing")

// Dataset is immutable after Load and safe for concurrent readers
type Dataset struct {
	symbols      map[string][]string // ensembl id -> upper-cased symbols, file order
	goByGene     map[string][]string // ensembl id -> GO ids
	terms        map[string]string   // GO id -> term name
	interactions []model.Interaction // upper-cased symbols, file order
}

// Stats counts loaded rows
type Stats struct {
	Genes        int `json:"genes"`
	Annotations  int `json:"annotations"`
	Terms        int `json:"terms"`
	Interactions int `json:"interactions"`
}

// Load reads the four processed tables from dir concurrently
func Load(ctx context.Context, dir string) (*Dataset, error) {
	d := &Dataset{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m, err := loadGenes(ctx, filepath.Join(dir, model.GenesTable))
		d.symbols = m
		return err
	})
	g.Go(func() error {
		m, err := loadAnnotations(ctx, filepath.Join(dir, model.EnsemblToGOTable))
		d.goByGene = m
		return err
	})
	g.Go(func() error {
		m, err := loadTerms(ctx, filepath.Join(dir, model.GOTermsTable))
		d.terms = m
		return err
	})
	g.Go(func() error {
		s, err := loadInteractions(ctx, filepath.Join(dir, model.BioGRIDTable))
		d.interactions = s
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// New builds a Dataset from in-memory rows; symbols are normalised the
// same way Load does.
func New(genes map[string][]string, annotations []model.GOAnnotation, terms []model.GOTerm, interactions []model.Interaction) *Dataset {
	d := &Dataset{
		symbols:  make(map[string][]string, len(genes)),
		goByGene: make(map[string][]string),
		terms:    make(map[string]string, len(terms)),
	}
	for id, syms := range genes {
		for _, sym := range syms {
			d.symbols[id] = appendSymbol(d.symbols[id], sym)
		}
	}
	for _, a := range annotations {
		d.goByGene[a.EnsemblGeneID] = append(d.goByGene[a.EnsemblGeneID], a.GOID)
	}
	for _, t := range terms {
		d.terms[t.ID] = t.Term
	}
	for _, in := range interactions {
		in.InteractorA = NormalizeSymbol(in.InteractorA)
		in.InteractorB = NormalizeSymbol(in.InteractorB)
		d.interactions = append(d.interactions, in)
	}
	return d
}

// NormalizeSymbol is the matching form of a gene symbol
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Stats reports table sizes
func (d *Dataset) Stats() Stats {
	annotations := 0
	for _, ids := range d.goByGene {
		annotations += len(ids)
	}
	return Stats{
		Genes:        len(d.symbols),
		Annotations:  annotations,
		Terms:        len(d.terms),
		Interactions: len(d.interactions),
	}
}

// Has reports whether id appears in the gene table
func (d *Dataset) Has(id string) bool {
	_, ok := d.symbols[id]
	return ok
}

// Known returns the ids present in the gene table, in input order
func (d *Dataset) Known(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if d.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// SymbolsFor returns the distinct symbols of the given ids. An id listed
// under several symbols contributes all of them.
func (d *Dataset) SymbolsFor(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		for _, s := range d.symbols[id] {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// GOFor returns the distinct GO ids annotated to any of the given ids
func (d *Dataset) GOFor(ids []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, id := range ids {
		for _, goID := range d.goByGene[id] {
			if _, dup := seen[goID]; dup {
				continue
			}
			seen[goID] = struct{}{}
			out = append(out, goID)
		}
	}
	return out
}

// Terms resolves GO ids to named terms sorted by id. Ids without a term
// entry are omitted.
func (d *Dataset) Terms(goIDs []string) []model.GOTerm {
	out := make([]model.GOTerm, 0, len(goIDs))
	for _, id := range goIDs {
		if name, ok := d.terms[id]; ok {
			out = append(out, model.GOTerm{ID: id, Term: name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Interactions returns every physical interaction in source order. The
// slice must not be modified.
func (d *Dataset) Interactions() []model.Interaction {
	return d.interactions
}

func openTable(path string) (io.ReadCloser, *tsv.Reader, error) {
	f, err := tsv.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.Wrapf(ErrMissingTable, "%s", path)
		}
		return nil, nil, errors.Wrapf(err, "open %s", path)
	}
	r, err := tsv.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, errors.Wrapf(err, "%s", filepath.Base(path))
	}
	return f, r, nil
}

// eachRow calls fn for every record of the table at path, resolving the
// named columns first.
func eachRow(ctx context.Context, path string, columns []string, fn func(values []string)) error {
	f, r, err := openTable(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	idx := make([]int, len(columns))
	for i, c := range columns {
		if idx[i], err = r.Column(c); err != nil {
			return errors.Wrapf(err, "%s", filepath.Base(path))
		}
	}

	values := make([]string, len(columns))
	for n := 0; ; n++ {
		if n%8192 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "%s", filepath.Base(path))
		}
		for i, c := range idx {
			values[i] = strings.TrimSpace(row[c])
		}
		fn(values)
	}
}

func loadGenes(ctx context.Context, path string) (map[string][]string, error) {
	m := make(map[string][]string)
	err := eachRow(ctx, path, []string{model.ColEnsemblGeneID, model.ColGeneSymbol}, func(v []string) {
		if v[0] == "" || v[1] == "" {
			return
		}
		m[v[0]] = appendSymbol(m[v[0]], v[1])
	})
	return m, err
}

// appendSymbol adds the normalised sym to syms unless already present
func appendSymbol(syms []string, sym string) []string {
	sym = NormalizeSymbol(sym)
	if sym == "" || slices.Contains(syms, sym) {
		return syms
	}
	return append(syms, sym)
}

func loadAnnotations(ctx context.Context, path string) (map[string][]string, error) {
	m := make(map[string][]string)
	err := eachRow(ctx, path, []string{model.ColEnsemblGeneID, model.ColGOID}, func(v []string) {
		if v[0] == "" || v[1] == "" {
			return
		}
		m[v[0]] = append(m[v[0]], v[1])
	})
	return m, err
}

func loadTerms(ctx context.Context, path string) (map[string]string, error) {
	m := make(map[string]string)
	err := eachRow(ctx, path, []string{model.ColGOTermID, model.ColGOTermName}, func(v []string) {
		if v[0] != "" {
			m[v[0]] = v[1]
		}
	})
	return m, err
}

func loadInteractions(ctx context.Context, path string) ([]model.Interaction, error) {
	var out []model.Interaction
	err := eachRow(ctx, path, []string{model.ColInteractorA, model.ColInteractorB}, func(v []string) {
		if v[0] == "" || v[1] == "" {
			return
		}
		out = append(out, model.Interaction{
			InteractorA: NormalizeSymbol(v[0]),
			InteractorB: NormalizeSymbol(v[1]),
		})
	})
	return out, err
}
