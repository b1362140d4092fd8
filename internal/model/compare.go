package model

// GeneLists is the comparison request body
type GeneLists struct {
	UpRegulated   []string `json:"up_regulated" binding:"required,dive,max=64,gene_id"`
	DownRegulated []string `json:"down_regulated" binding:"required,dive,max=64,gene_id"`
}

// Comparison is the full comparison result
type Comparison struct {
	Summary      Summary      `json:"summary"`
	GOComparison GOComparison `json:"go_comparison"`
	PPIAnalysis  PPIAnalysis  `json:"ppi_analysis"`
}

// Summary reports submitted and mapped identifier counts
type Summary struct {
	UpSubmitted   int `json:"up_regulated_submitted_count"`
	DownSubmitted int `json:"down_regulated_submitted_count"`
	UpMapped      int `json:"up_regulated_mapped_count"`
	DownMapped    int `json:"down_regulated_mapped_count"`
}

// GOComparison partitions the GO terms of both lists
type GOComparison struct {
	UniqueToUp   []GOTerm `json:"unique_to_up_regulated"`
	UniqueToDown []GOTerm `json:"unique_to_down_regulated"`
	Shared       []GOTerm `json:"shared"`
}

// PPIAnalysis partitions interactions between the two gene sets
type PPIAnalysis struct {
	InternalUp   []InteractionPair `json:"internal_up_regulated"`
	InternalDown []InteractionPair `json:"internal_down_regulated"`
	CrossTalk    []InteractionPair `json:"cross_talk"`
}

// InteractionPair is the reduced view of an interaction in results
type InteractionPair struct {
	InteractorA string `json:"interactor_a"`
	InteractorB string `json:"interactor_b"`
}
