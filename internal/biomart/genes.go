package biomart

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ppiankov/genediff/internal/model"
)

// Gene identifier attributes, in the column order FetchGenes requests
const (
	AttrEnsemblGeneID = "ensembl_gene_id"
	AttrEntrezGeneID  = "entrezgene_id"
	AttrHGNCSymbol    = "hgnc_symbol"
)

// GeneAttributes is the default attribute list for FetchGenes
var GeneAttributes = []string{AttrEnsemblGeneID, AttrEntrezGeneID, AttrHGNCSymbol}

// GeneStats summarises a gene fetch
type GeneStats struct {
	Fetched int // rows returned by the server
	Kept    int // rows with both an Ensembl id and a symbol
}

// FetchGenes queries dataset for gene identifiers and returns the cleaned
// rows. filters, e.g. {"chromosome_name": "17"}, restrict the query.
func (c *Client) FetchGenes(ctx context.Context, dataset string, attributes []string, filters map[string]string) ([]model.GeneInfo, GeneStats, error) {
	if len(attributes) == 0 {
		attributes = GeneAttributes
	}
	body, err := c.Fetch(ctx, NewQuery(dataset, attributes...).WithFilters(filters))
	if err != nil {
		return nil, GeneStats{}, err
	}
	return ParseGenes(bytes.NewReader(body), attributes)
}

// ParseGenes reads a headerless BioMart CSV whose columns are attributes.
// Rows missing an Ensembl id or HGNC symbol are dropped; a missing or
// non-numeric Entrez id becomes 0.
func ParseGenes(r io.Reader, attributes []string) ([]model.GeneInfo, GeneStats, error) {
	idx := map[string]int{}
	for i, a := range attributes {
		idx[a] = i
	}
	ensemblCol, ok := idx[AttrEnsemblGeneID]
	if !ok {
		return nil, GeneStats{}, errors.Newf("attributes must include %s", AttrEnsemblGeneID)
	}
	symbolCol, ok := idx[AttrHGNCSymbol]
	if !ok {
		return nil, GeneStats{}, errors.Newf("attributes must include %s", AttrHGNCSymbol)
	}
	entrezCol, hasEntrez := idx[AttrEntrezGeneID]

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(attributes)
	reader.ReuseRecord = true

	var (
		genes []model.GeneInfo
		stats GeneStats
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, errors.Wrap(err, "read biomart csv")
		}
		stats.Fetched++

		gene := model.GeneInfo{
			EnsemblGeneID: strings.TrimSpace(record[ensemblCol]),
			HGNCSymbol:    strings.TrimSpace(record[symbolCol]),
		}
		if gene.EnsemblGeneID == "" || gene.HGNCSymbol == "" {
			continue
		}
		if hasEntrez {
			gene.EntrezGeneID = parseEntrez(record[entrezCol])
		}
		genes = append(genes, gene)
	}
	stats.Kept = len(genes)
	return genes, stats, nil
}

func parseEntrez(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	// BioMart occasionally renders ids as floats ("7157.0")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

// WriteGeneCSV writes genes with a header row
func WriteGeneCSV(w io.Writer, genes []model.GeneInfo) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(GeneAttributes); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, g := range genes {
		if err := cw.Write([]string{g.EnsemblGeneID, strconv.Itoa(g.EntrezGeneID), g.HGNCSymbol}); err != nil {
			return errors.Wrap(err, "write row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}
