// Package obo reads Gene Ontology term dictionaries in OBO 1.2 format.
package obo

import (
	"bufio"
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ppiankov/genediff/internal/model"
)

// Term is a parsed [Term] stanza. Only the tags genediff uses are kept.
type Term struct {
	ID     string
	Name   string
	AltIDs []string
}

// Parse reads every [Term] stanza from r. A stanza is kept when it has an
// id tag; tags are split on the first colon and trailing "!" comments are
// removed. Other stanza types ([Typedef], [Instance]) are skipped.
func Parse(r io.Reader) ([]Term, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		terms   []Term
		current *Term
		inTerm  bool
	)

	flush := func() {
		if inTerm && current != nil && current.ID != "" {
			terms = append(terms, *current)
		}
		current = nil
		inTerm = false
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			flush()
			if line == "[Term]" {
				inTerm = true
				current = &Term{}
			}
			continue
		}
		if !inTerm || line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripComment(strings.TrimSpace(value))

		switch key {
		case "id":
			current.ID = value
		case "name":
			current.Name = value
		case "alt_id":
			current.AltIDs = append(current.AltIDs, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read obo line %d", lineNo)
	}
	flush()

	return terms, nil
}

// stripComment removes an unescaped trailing "! comment"
func stripComment(value string) string {
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '\\':
			i++
		case '!':
			return strings.TrimSpace(value[:i])
		}
	}
	return value
}

// GOTerms flattens terms to id/name pairs. Primary ids come first, then
// each alt_id carrying the name of its term, so annotations made against
// a merged id still resolve.
func GOTerms(terms []Term) []model.GOTerm {
	out := make([]model.GOTerm, 0, len(terms))
	for _, t := range terms {
		out = append(out, model.GOTerm{ID: t.ID, Term: t.Name})
	}
	for _, t := range terms {
		for _, alt := range t.AltIDs {
			out = append(out, model.GOTerm{ID: alt, Term: t.Name})
		}
	}
	return out
}
