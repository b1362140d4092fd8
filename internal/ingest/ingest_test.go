package ingest

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/genediff/internal/model"
)

const oboFixture = `format-version: 1.2

[Term]
id: GO:0006915
name: apoptotic process

[Term]
id: GO:0008150
name: biological_process

[Typedef]
id: part_of
name: part of
`

const martFixture = "Gene stable ID\tGene name\tGO term accession\n" +
	"ENSG00000141510\tTP53\tGO:0006915\n" +
	"ENSG00000141510\tTP53\tGO:0006915\n" +
	"ENSG00000141510\tTP53\tGO:0008150\n" +
	"ENSG00000012048\tBRCA1\t\n" +
	"ENSG00000000000\t\tGO:0008150\n" +
	"\tORPHAN\tGO:0008150\n"

const biogridFixture = "#BioGRID Interaction ID\tOfficial Symbol Interactor A\tOfficial Symbol Interactor B\tExperimental System\tExperimental System Type\tPubmed ID\n" +
	"1\tTP53\tMDM2\tTwo-hybrid\tphysical\t111\n" +
	"2\tTP53\tBRCA1\tSynthetic Lethality\tgenetic\t222\n" +
	"3\tBRCA1\tBARD1\tAffinity Capture-MS\tphysical\t333\n"

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func writeRaw(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, model.RawGOOntology), []byte(oboFixture), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, model.RawMartExport), gzipBytes(t, martFixture), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BIOGRID-ORGANISM-Homo_sapiens-4.4.200.tab3.txt"), []byte("stale"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BIOGRID-ORGANISM-Homo_sapiens-5.0.250.tab3.txt"), []byte(biogridFixture), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestBuild_AllStages(t *testing.T) {
	raw := t.TempDir()
	processed := filepath.Join(t.TempDir(), "processed")
	writeRaw(t, raw)

	report, err := NewBuilder(Options{RawDir: raw, ProcessedDir: processed}).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Stages, 3)
	for _, s := range report.Stages {
		assert.False(t, s.Skipped, s.Stage)
		assert.NoError(t, s.Err, s.Stage)
	}

	assert.Equal(t,
		"GO_ID\tGO_Term\nGO:0006915\tapoptotic process\nGO:0008150\tbiological_process\n",
		readFile(t, filepath.Join(processed, model.GOTermsTable)))

	assert.Equal(t,
		"ensembl_gene_id\tgo_id\nENSG00000141510\tGO:0006915\nENSG00000141510\tGO:0008150\nENSG00000000000\tGO:0008150\n",
		readFile(t, filepath.Join(processed, model.EnsemblToGOTable)))

	assert.Equal(t,
		"ensembl_gene_id\tgene_symbol\nENSG00000141510\tTP53\nENSG00000012048\tBRCA1\n",
		readFile(t, filepath.Join(processed, model.GenesTable)))

	assert.Equal(t,
		"Official Symbol Interactor A\tOfficial Symbol Interactor B\tExperimental System\tPubmed ID\n"+
			"TP53\tMDM2\tTwo-hybrid\t111\n"+
			"BRCA1\tBARD1\tAffinity Capture-MS\t333\n",
		readFile(t, filepath.Join(processed, model.BioGRIDTable)))

	biogrid := report.Stages[2]
	assert.Equal(t, "biogrid", biogrid.Stage)
	assert.Equal(t, 3, biogrid.RowsIn)
	assert.Equal(t, 2, biogrid.RowsOut)
	assert.Contains(t, biogrid.Input, "5.0.250")
}

func TestBuild_MissingInputsAreSkipped(t *testing.T) {
	raw := t.TempDir()
	processed := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(raw, model.RawGOOntology), []byte(oboFixture), 0o644))

	report, err := NewBuilder(Options{RawDir: raw, ProcessedDir: processed}).Build(context.Background())
	require.NoError(t, err)

	skipped := map[string]bool{}
	for _, s := range report.Stages {
		skipped[s.Stage] = s.Skipped
	}
	assert.Equal(t, map[string]bool{"go_terms": false, "mart_export": true, "biogrid": true}, skipped)

	_, statErr := os.Stat(filepath.Join(processed, model.BioGRIDTable))
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuild_ExplicitBioGRIDFile(t *testing.T) {
	raw := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(raw, "custom.tab3.txt"), []byte(biogridFixture), 0o644))

	b := NewBuilder(Options{RawDir: raw, ProcessedDir: t.TempDir(), BioGRIDFile: "custom.tab3.txt"})
	path, err := b.biogridInput()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(raw, "custom.tab3.txt"), path)

	b = NewBuilder(Options{RawDir: raw, ProcessedDir: t.TempDir(), BioGRIDFile: "absent.txt"})
	_, err = b.biogridInput()
	assert.True(t, errors.Is(err, ErrInputMissing))
}

func TestBuild_BadMartExportFails(t *testing.T) {
	raw := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(raw, model.RawMartExport), gzipBytes(t, "Unrelated\tColumns\nx\ty\n"), 0o644))

	report, err := NewBuilder(Options{RawDir: raw, ProcessedDir: t.TempDir()}).Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mart_export")

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "mart_export", failed[0].Stage)
}

func TestBuild_MartExportWithoutNames(t *testing.T) {
	raw := t.TempDir()
	processed := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(raw, model.RawMartExport),
		gzipBytes(t, "ensembl_gene_id\tgo_id\nENSG1\tGO:1\n"), 0o644))

	_, err := NewBuilder(Options{RawDir: raw, ProcessedDir: processed}).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ensembl_gene_id\tgo_id\nENSG1\tGO:1\n", readFile(t, filepath.Join(processed, model.EnsemblToGOTable)))
	_, statErr := os.Stat(filepath.Join(processed, model.GenesTable))
	assert.True(t, os.IsNotExist(statErr))
}
