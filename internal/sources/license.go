package sources

import (
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ppiankov/genediff/internal/model"
)

// LicenseClassifier maps free-text license and requirement strings to
// their canonical kinds
type LicenseClassifier struct {
	explicit map[string]model.LicenseKind
	patterns []compiledPattern
}

type compiledPattern struct {
	pattern *regexp.Regexp
	kind    model.LicenseKind
}

var builtinPatterns = []model.LicensePattern{
	{Pattern: `^cc[ -]?by[ -]?4(\.0)?( international)?$`, Kind: string(model.LicenseCCBY4)},
	{Pattern: `^creative commons attribution 4(\.0)?( international)?$`, Kind: string(model.LicenseCCBY4)},
	{Pattern: `^cc[ -]?0( 1\.0)?$|^cc[ -]?zero$`, Kind: string(model.LicenseCC0)},
	{Pattern: `^public[ -]domain$`, Kind: string(model.LicensePublicDomain)},
	{Pattern: `^mit( license)?$`, Kind: string(model.LicenseMIT)},
}

// NewLicenseClassifier builds a classifier from cfg. Explicit mappings are
// consulted first, then configured patterns, then the built-in patterns.
func NewLicenseClassifier(cfg *model.SourcesConfig) (*LicenseClassifier, error) {
	if cfg == nil {
		cfg = &model.DefaultConfig().Sources
	}

	c := &LicenseClassifier{explicit: make(map[string]model.LicenseKind, len(cfg.LicenseMap))}

	for text, kind := range cfg.LicenseMap {
		k, err := ParseLicenseKind(kind)
		if err != nil {
			return nil, errors.Wrapf(err, "license_map[%q]", text)
		}
		c.explicit[normalizeText(text)] = k
	}

	patterns := append(append([]model.LicensePattern{}, cfg.LicensePatterns...), builtinPatterns...)
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p.Pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "license pattern %q", p.Pattern)
		}
		k, err := ParseLicenseKind(p.Kind)
		if err != nil {
			return nil, errors.Wrapf(err, "license pattern %q", p.Pattern)
		}
		c.patterns = append(c.patterns, compiledPattern{pattern: re, kind: k})
	}

	return c, nil
}

// Classify returns the license kind for text, or LicenseUnknown
func (c *LicenseClassifier) Classify(text string) model.LicenseKind {
	norm := normalizeText(text)
	if norm == "" {
		return model.LicenseUnknown
	}
	if k, ok := c.explicit[norm]; ok {
		return k
	}
	for _, p := range c.patterns {
		if p.pattern.MatchString(norm) {
			return p.kind
		}
	}
	return model.LicenseUnknown
}

// ClassifyRequirement returns the requirement kind for text
func ClassifyRequirement(text string) model.RequirementKind {
	switch normalizeText(strings.ReplaceAll(text, "-", " ")) {
	case "attribution", "attribution required", "required":
		return model.RequirementAttribution
	case "attribution optional", "optional attribution", "optional", "not required":
		return model.RequirementAttributionOptional
	default:
		return model.RequirementUnknown
	}
}

// ParseLicenseKind accepts a canonical kind name
func ParseLicenseKind(s string) (model.LicenseKind, error) {
	switch k := model.LicenseKind(strings.ToLower(strings.TrimSpace(s))); k {
	case model.LicenseCCBY4, model.LicenseCC0, model.LicensePublicDomain,
		model.LicenseMIT, model.LicenseCustom, model.LicenseUnknown:
		return k, nil
	default:
		return "", errors.Newf("unknown license kind %q", s)
	}
}

// normalizeText lower-cases s, turns '_' and non-breaking spaces into
// spaces and collapses whitespace. Hyphens are kept so "cc-by" still
// matches license ids.
func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("_", " ", "\u00a0", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
