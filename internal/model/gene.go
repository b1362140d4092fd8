package model

// GeneInfo is one row of the BioMart gene identifier export
type GeneInfo struct {
	EnsemblGeneID string `json:"ensembl_gene_id"`
	EntrezGeneID  int    `json:"entrezgene_id"`
	HGNCSymbol    string `json:"hgnc_symbol"`
}

// GOTerm is a Gene Ontology identifier and its name
type GOTerm struct {
	ID   string `json:"id"`
	Term string `json:"term"`
}

// GOAnnotation links an Ensembl gene to a GO term
type GOAnnotation struct {
	EnsemblGeneID string
	GOID          string
}

// Interaction is a physical protein-protein interaction from BioGRID
type Interaction struct {
	InteractorA string `json:"interactor_a"`
	InteractorB string `json:"interactor_b"`
}
