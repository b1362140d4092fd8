// Package biomart queries the Ensembl BioMart martservice for gene
// identifier tables.
package biomart

import (
	"encoding/xml"
	"sort"

	"github.com/cockroachdb/errors"
)

// Query is the BioMart XML query document
type Query struct {
	XMLName              xml.Name `xml:"Query"`
	VirtualSchemaName    string   `xml:"virtualSchemaName,attr"`
	Formatter            string   `xml:"formatter,attr"`
	Header               string   `xml:"header,attr"`
	UniqueRows           string   `xml:"uniqueRows,attr"`
	Count                string   `xml:"count,attr"`
	DatasetConfigVersion string   `xml:"datasetConfigVersion,attr"`
	Dataset              Dataset  `xml:"Dataset"`
}

// Dataset selects the mart dataset and the attributes (columns) to return
type Dataset struct {
	Name       string      `xml:"name,attr"`
	Interface  string      `xml:"interface,attr"`
	Filters    []Filter    `xml:"Filter"`
	Attributes []Attribute `xml:"Attribute"`
}

// Filter restricts rows, e.g. {Name: "chromosome_name", Value: "1"}
type Filter struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// Attribute is one requested column
type Attribute struct {
	Name string `xml:"name,attr"`
}

// NewQuery builds a headerless CSV query for dataset returning attributes
// in the given order.
func NewQuery(dataset string, attributes ...string) Query {
	q := Query{
		VirtualSchemaName:    "default",
		Formatter:            "CSV",
		Header:               "0",
		UniqueRows:           "0",
		Count:                "",
		DatasetConfigVersion: "0.6",
		Dataset: Dataset{
			Name:      dataset,
			Interface: "default",
		},
	}
	for _, a := range attributes {
		q.Dataset.Attributes = append(q.Dataset.Attributes, Attribute{Name: a})
	}
	return q
}

// WithFilter returns a copy of q with an additional filter
func (q Query) WithFilter(name, value string) Query {
	filters := make([]Filter, len(q.Dataset.Filters), len(q.Dataset.Filters)+1)
	copy(filters, q.Dataset.Filters)
	q.Dataset.Filters = append(filters, Filter{Name: name, Value: value})
	return q
}

// WithFilters adds filters sorted by name so equal maps encode identically
func (q Query) WithFilters(filters map[string]string) Query {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		q = q.WithFilter(name, filters[name])
	}
	return q
}

// Encode renders the query document sent in the `query` parameter
func (q Query) Encode() (string, error) {
	if q.Dataset.Name == "" {
		return "", errors.New("biomart query has no dataset")
	}
	if len(q.Dataset.Attributes) == 0 {
		return "", errors.New("biomart query has no attributes")
	}

	body, err := xml.Marshal(q)
	if err != nil {
		return "", errors.Wrap(err, "marshal biomart query")
	}
	return xml.Header + "<!DOCTYPE Query>" + string(body), nil
}
