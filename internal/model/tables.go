package model

// Processed table file names, written by build and read by serve
const (
	GenesTable       = "genes.tsv"
	GOTermsTable     = "go_terms.tsv"
	EnsemblToGOTable = "ensembl_to_go.tsv"
	BioGRIDTable     = "biogrid_ppi.tsv"
)

// Processed table column names
const (
	ColEnsemblGeneID = "ensembl_gene_id"
	ColGeneSymbol    = "gene_symbol"
	ColGOID          = "go_id"
	ColGOTermID      = "GO_ID"
	ColGOTermName    = "GO_Term"
	ColInteractorA   = "Official Symbol Interactor A"
	ColInteractorB   = "Official Symbol Interactor B"
	ColExperimental  = "Experimental System"
	ColSystemType    = "Experimental System Type"
	ColPubmedID      = "Pubmed ID"
)

// Raw input file names expected in the raw data directory
const (
	RawGOOntology  = "go-basic.obo"
	RawMartExport  = "mart_export.txt.gz"
	RawBioGRIDGlob = "BIOGRID-*.tab3.txt"
)
