package compare

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/genediff/internal/model"
	"github.com/ppiankov/genediff/internal/store"
)

func fixture() *store.Dataset {
	return store.New(
		map[string][]string{
			"ENSG01": {"TP53"},
			"ENSG02": {"MDM2"},
			"ENSG03": {"BRCA1"},
			"ENSG04": {"BRCA2"},
			"ENSG05": {"EGFR", "ERBB1"},
		},
		[]model.GOAnnotation{
			{EnsemblGeneID: "ENSG01", GOID: "GO:0006915"},
			{EnsemblGeneID: "ENSG01", GOID: "GO:0005634"},
			{EnsemblGeneID: "ENSG02", GOID: "GO:0016567"},
			{EnsemblGeneID: "ENSG03", GOID: "GO:0006281"},
			{EnsemblGeneID: "ENSG03", GOID: "GO:0005634"},
			{EnsemblGeneID: "ENSG04", GOID: "GO:9999999"},
		},
		[]model.GOTerm{
			{ID: "GO:0006915", Term: "apoptotic process"},
			{ID: "GO:0005634", Term: "nucleus"},
			{ID: "GO:0016567", Term: "protein ubiquitination"},
			{ID: "GO:0006281", Term: "DNA repair"},
		},
		[]model.Interaction{
			{InteractorA: "TP53", InteractorB: "MDM2"},
			{InteractorA: "BRCA1", InteractorB: "BRCA2"},
			{InteractorA: "BRCA1", InteractorB: "TP53"},
			{InteractorA: "MDM2", InteractorB: "BRCA2"},
			{InteractorA: "EGFR", InteractorB: "TP53"},
			{InteractorA: "TP53", InteractorB: "ERBB1"},
		},
	)
}

func TestNormalize(t *testing.T) {
	got := Normalize([]string{" ensg01 ", "ENSG01", "", "   ", "Ensg02"})
	assert.Equal(t, []string{"ENSG01", "ENSG02"}, got)
	assert.Empty(t, Normalize(nil))
}

func TestRun(t *testing.T) {
	got := Run(fixture(), model.GeneLists{
		UpRegulated:   []string{"ensg01", "ENSG02", "ENSG02", "ENSG_UNKNOWN"},
		DownRegulated: []string{"ENSG03", " ENSG04 "},
	})

	assert.Equal(t, model.Summary{UpSubmitted: 3, DownSubmitted: 2, UpMapped: 2, DownMapped: 2}, got.Summary)

	assert.Equal(t, []model.GOTerm{
		{ID: "GO:0006915", Term: "apoptotic process"},
		{ID: "GO:0016567", Term: "protein ubiquitination"},
	}, got.GOComparison.UniqueToUp)
	assert.Equal(t, []model.GOTerm{
		{ID: "GO:0006281", Term: "DNA repair"},
	}, got.GOComparison.UniqueToDown, "GO ids without a term are omitted")
	assert.Equal(t, []model.GOTerm{
		{ID: "GO:0005634", Term: "nucleus"},
	}, got.GOComparison.Shared)

	assert.Equal(t, []model.InteractionPair{{InteractorA: "TP53", InteractorB: "MDM2"}}, got.PPIAnalysis.InternalUp)
	assert.Equal(t, []model.InteractionPair{{InteractorA: "BRCA1", InteractorB: "BRCA2"}}, got.PPIAnalysis.InternalDown)
	assert.Equal(t, []model.InteractionPair{
		{InteractorA: "BRCA1", InteractorB: "TP53"},
		{InteractorA: "MDM2", InteractorB: "BRCA2"},
	}, got.PPIAnalysis.CrossTalk, "cross talk keeps source order in both directions")
}

func TestRun_EmptyListsRenderEmptyArrays(t *testing.T) {
	got := Run(fixture(), model.GeneLists{UpRegulated: []string{}, DownRegulated: []string{" "}})

	assert.Equal(t, model.Summary{}, got.Summary)

	raw, err := json.Marshal(got)
	require.NoError(t, err)

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{"unique_to_up_regulated", "unique_to_down_regulated", "shared"} {
		assert.Equal(t, []any{}, decoded["go_comparison"][key], key)
	}
	for _, key := range []string{"internal_up_regulated", "internal_down_regulated", "cross_talk"} {
		assert.Equal(t, []any{}, decoded["ppi_analysis"][key], key)
	}
}

func TestRun_OverlappingListsShareTerms(t *testing.T) {
	got := Run(fixture(), model.GeneLists{
		UpRegulated:   []string{"ENSG01"},
		DownRegulated: []string{"ENSG01"},
	})
	assert.Empty(t, got.GOComparison.UniqueToUp)
	assert.Empty(t, got.GOComparison.UniqueToDown)
	assert.Len(t, got.GOComparison.Shared, 2)
}

func TestRun_EverySymbolOfAnIdMatchesInteractions(t *testing.T) {
	got := Run(fixture(), model.GeneLists{
		UpRegulated:   []string{"ENSG05"},
		DownRegulated: []string{"ENSG01"},
	})
	assert.Equal(t, 1, got.Summary.UpMapped)
	assert.Equal(t, []model.InteractionPair{
		{InteractorA: "EGFR", InteractorB: "TP53"},
		{InteractorA: "TP53", InteractorB: "ERBB1"},
	}, got.PPIAnalysis.CrossTalk)
}

func TestCheckLimit(t *testing.T) {
	lists := model.GeneLists{UpRegulated: []string{"a", "b", "c"}, DownRegulated: []string{"d"}}

	assert.NoError(t, CheckLimit(lists, 0))
	assert.NoError(t, CheckLimit(lists, 3))

	err := CheckLimit(lists, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyGenes))
	assert.Contains(t, err.Error(), "up_regulated")
}
