// Package sources reads, validates and renders the table of external data
// sources genediff is built from, along with their license terms.
package sources

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ppiankov/genediff/internal/model"
)

// ErrNoTable is returned when a document has no attribution table
var ErrNoTable = errors.New("no data source table found")

// Column headers of the attribution table
const (
	HeaderName        = "Data Source"
	HeaderWebsite     = "Website"
	HeaderLicense     = "License Type"
	HeaderRequirement = "Requirement"
)

var (
	separatorCell = regexp.MustCompile(`^:?-+:?$`)
	markdownLink  = regexp.MustCompile(`^\[[^\]]*\]\(([^)\s]+)\)$`)
)

// Default returns the built-in attribution rows
func Default() []model.DataSource {
	return []model.DataSource{
		{Name: "Ensembl", Website: "https://www.ensembl.org", License: "CC BY 4.0", Requirement: "Attribution"},
		{Name: "Gene Ontology", Website: "http://geneontology.org", License: "CC BY 4.0", Requirement: "Attribution"},
		{Name: "BioGRID", Website: "https://thebiogrid.org", License: "MIT", Requirement: "Attribution"},
		{Name: "NCBI Gene", Website: "https://www.ncbi.nlm.nih.gov/gene", License: "Public Domain", Requirement: "Attribution Optional"},
		{Name: "HGNC", Website: "https://www.genenames.org", License: "CC0", Requirement: "Attribution Optional"},
		{Name: "UniProt", Website: "https://www.uniprot.org", License: "CC BY 4.0", Requirement: "Attribution"},
	}
}

// Load parses the attribution table in the Markdown file at path
func Load(path string) ([]model.DataSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open data sources")
	}
	defer func() { _ = f.Close() }()

	rows, err := ParseTable(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return rows, nil
}

// ParseTable returns the rows of the first Markdown table whose header
// carries the four attribution columns, in any order and any case.
func ParseTable(r io.Reader) ([]model.DataSource, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		cols    map[string]int
		width   int
		inTable bool
		rows    []model.DataSource
		lineNo  int
	)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		isRow := hasCellDelimiter(line)

		if inTable {
			if !isRow {
				break
			}
			cells := splitRow(line)
			if isSeparator(cells) {
				continue
			}
			if len(cells) != width {
				return nil, errors.Newf("line %d: expected %d cells, got %d", lineNo, width, len(cells))
			}
			rows = append(rows, model.DataSource{
				Name:        cells[cols[HeaderName]],
				Website:     unwrapLink(cells[cols[HeaderWebsite]]),
				License:     cells[cols[HeaderLicense]],
				Requirement: cells[cols[HeaderRequirement]],
			})
			continue
		}

		if !isRow {
			continue
		}
		cells := splitRow(line)
		if m, ok := headerColumns(cells); ok {
			cols, width, inTable = m, len(cells), true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read table")
	}
	if !inTable {
		return nil, ErrNoTable
	}
	if rows == nil {
		rows = []model.DataSource{}
	}
	return rows, nil
}

func headerColumns(cells []string) (map[string]int, bool) {
	want := []string{HeaderName, HeaderWebsite, HeaderLicense, HeaderRequirement}
	m := make(map[string]int, len(want))
	for _, h := range want {
		for i, c := range cells {
			if strings.EqualFold(c, h) {
				m[h] = i
				break
			}
		}
		if _, ok := m[h]; !ok {
			return nil, false
		}
	}
	return m, true
}

// hasCellDelimiter reports whether line holds an unescaped pipe. Outer
// pipes are optional in Markdown tables.
func hasCellDelimiter(line string) bool {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '|':
			return true
		}
	}
	return false
}

// splitRow splits a pipe-delimited row into trimmed cells. Outer pipes are
// dropped when present and escaped pipes stay inside their cell.
func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	if strings.HasSuffix(line, "|") && !strings.HasSuffix(line, `\|`) {
		line = strings.TrimSuffix(line, "|")
	}

	var (
		cells []string
		cur   strings.Builder
	)
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && i+1 < len(line) && line[i+1] == '|':
			cur.WriteByte('|')
			i++
		case line[i] == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(line[i])
		}
	}
	return append(cells, strings.TrimSpace(cur.String()))
}

func isSeparator(cells []string) bool {
	for _, c := range cells {
		if !separatorCell.MatchString(c) {
			return false
		}
	}
	return len(cells) > 0
}

func unwrapLink(cell string) string {
	if m := markdownLink.FindStringSubmatch(cell); m != nil {
		return m[1]
	}
	return strings.TrimSuffix(strings.TrimPrefix(cell, "<"), ">")
}

// RenderMarkdown writes rows as a canonical table sorted by name. rows is
// not modified.
func RenderMarkdown(rows []model.DataSource) string {
	sorted := make([]model.DataSource, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	var b strings.Builder
	b.WriteString("| " + HeaderName + " | " + HeaderWebsite + " | " + HeaderLicense + " | " + HeaderRequirement + " |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, r := range sorted {
		b.WriteString("| " + escapeCell(r.Name) +
			" | " + escapeCell(r.Website) +
			" | " + escapeCell(r.License) +
			" | " + escapeCell(r.Requirement) + " |\n")
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "|", `\|`)
}
