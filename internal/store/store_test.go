package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/genediff/internal/model"
)

func writeTables(t *testing.T, dir string, skip string) {
	t.Helper()
	tables := map[string]string{
		model.GenesTable: "ensembl_gene_id\tgene_symbol\n" +
			"ENSG00000141510\ttp53\n" +
			"ENSG00000012048\tBRCA1\n" +
			"ENSG00000012048\tBRCA1-dup\n" +
			"ENSG00000000003\t\n",
		model.EnsemblToGOTable: "ensembl_gene_id\tgo_id\n" +
			"ENSG00000141510\tGO:0006915\n" +
			"ENSG00000141510\tGO:0008150\n" +
			"ENSG00000012048\tGO:0006281\n",
		model.GOTermsTable: "GO_ID\tGO_Term\n" +
			"GO:0006915\tapoptotic process\n" +
			"GO:0006281\tDNA repair\n",
		model.BioGRIDTable: "Official Symbol Interactor A\tOfficial Symbol Interactor B\tExperimental System\tPubmed ID\n" +
			"tp53\tMdm2\tTwo-hybrid\t1\n" +
			"BRCA1\tTP53\tAffinity Capture-MS\t2\n",
	}
	for name, content := range tables {
		if name == skip {
			continue
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeTables(t, dir, "")

	d, err := Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, Stats{Genes: 2, Annotations: 3, Terms: 2, Interactions: 2}, d.Stats())

	assert.Equal(t, []string{"TP53"}, d.SymbolsFor([]string{"ENSG00000141510"}), "symbols are upper-cased at load")
	assert.Equal(t, []string{"BRCA1", "BRCA1-DUP"}, d.SymbolsFor([]string{"ENSG00000012048"}), "every symbol of an id is kept")

	assert.True(t, d.Has("ENSG00000141510"))
	assert.False(t, d.Has("ENSG00000000003"), "rows without a symbol are not loaded")

	assert.Equal(t, []string{"GO:0006915", "GO:0008150"}, d.GOFor([]string{"ENSG00000141510"}))
	assert.Equal(t, []model.GOTerm{{ID: "GO:0006281", Term: "DNA repair"}},
		d.Terms([]string{"GO:0006281", "GO:0008150"}), "terms without a name entry are omitted")

	assert.Equal(t, []model.Interaction{
		{InteractorA: "TP53", InteractorB: "MDM2"},
		{InteractorA: "BRCA1", InteractorB: "TP53"},
	}, d.Interactions())
}

func TestLoad_MissingTable(t *testing.T) {
	dir := t.TempDir()
	writeTables(t, dir, model.BioGRIDTable)

	_, err := Load(context.Background(), dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingTable))
	assert.Contains(t, err.Error(), model.BioGRIDTable)
}

func TestLoad_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeTables(t, dir, "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, model.GOTermsTable), []byte("id\tname\nGO:1\tx\n"), 0o644))

	_, err := Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), model.GOTermsTable)
}

func TestLoad_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeTables(t, dir, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	d := New(
		map[string][]string{"ENSG1": {" abc1 ", "ABC1", ""}},
		[]model.GOAnnotation{{EnsemblGeneID: "ENSG1", GOID: "GO:1"}},
		[]model.GOTerm{{ID: "GO:1", Term: "one"}},
		[]model.Interaction{{InteractorA: "abc1", InteractorB: "xyz"}},
	)
	assert.Equal(t, []string{"ABC1"}, d.SymbolsFor([]string{"ENSG1"}))
	assert.Equal(t, "XYZ", d.Interactions()[0].InteractorB)
	assert.Equal(t, Stats{Genes: 1, Annotations: 1, Terms: 1, Interactions: 1}, d.Stats())
}

func TestLookups(t *testing.T) {
	d := New(
		map[string][]string{"E1": {"A"}, "E2": {"B"}, "E3": {"A"}},
		[]model.GOAnnotation{
			{EnsemblGeneID: "E1", GOID: "GO:3"},
			{EnsemblGeneID: "E1", GOID: "GO:1"},
			{EnsemblGeneID: "E2", GOID: "GO:1"},
			{EnsemblGeneID: "E9", GOID: "GO:2"},
		},
		[]model.GOTerm{{ID: "GO:1", Term: "one"}, {ID: "GO:3", Term: "three"}},
		nil,
	)

	assert.Equal(t, []string{"E2", "E1"}, d.Known([]string{"E2", "E7", "E1"}))
	assert.Equal(t, []string{"A", "B"}, d.SymbolsFor([]string{"E1", "E3", "E2", "E7"}))
	assert.Equal(t, []string{"GO:3", "GO:1"}, d.GOFor([]string{"E1", "E2"}))
	assert.Empty(t, d.GOFor(nil))
	assert.Equal(t, []model.GOTerm{{ID: "GO:1", Term: "one"}, {ID: "GO:3", Term: "three"}},
		d.Terms([]string{"GO:3", "GO:2", "GO:1"}))
	assert.NotNil(t, d.Terms(nil))
}
