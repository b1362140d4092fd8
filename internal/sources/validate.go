package sources

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ppiankov/genediff/internal/model"
	"github.com/ppiankov/genediff/internal/netutil"
)

// Validate checks every row and returns the issues found, ordered by row.
// A nil classifier uses the built-in license patterns.
func Validate(rows []model.DataSource, classifier *LicenseClassifier) []model.Issue {
	if classifier == nil {
		classifier, _ = NewLicenseClassifier(nil)
	}

	issues := []model.Issue{}
	names := make(map[string]int, len(rows))
	domains := make(map[string]int, len(rows))

	for i, row := range rows {
		add := func(field string, sev model.Severity, format string, args ...any) {
			issues = append(issues, model.Issue{
				Row:      i,
				Source:   row.Name,
				Field:    field,
				Severity: sev,
				Message:  fmt.Sprintf(format, args...),
			})
		}

		name := strings.TrimSpace(row.Name)
		if name == "" {
			add("name", model.SeverityError, "data source name is empty")
		} else if first, dup := names[strings.ToLower(name)]; dup {
			add("name", model.SeverityError, "duplicate of row %d", first)
		} else {
			names[strings.ToLower(name)] = i
		}

		if err := checkWebsite(row.Website); err != "" {
			add("website", model.SeverityError, "%s", err)
		} else if domain, derr := netutil.RegistrableDomain(row.Website); derr == nil {
			if first, dup := domains[domain]; dup {
				add("website", model.SeverityWarning, "shares domain %s with row %d", domain, first)
			} else {
				domains[domain] = i
			}
		}

		license := classifier.Classify(row.License)
		switch license {
		case model.LicenseUnknown:
			add("license", model.SeverityError, "license %q does not map to a known license", row.License)
		case model.LicenseCustom:
			add("license", model.SeverityWarning, "license %q has provider-specific terms", row.License)
		}

		requirement := ClassifyRequirement(row.Requirement)
		if requirement == model.RequirementUnknown {
			add("requirement", model.SeverityError, "requirement %q is not a known attribution requirement", row.Requirement)
		} else if license.RequiresAttribution() && requirement != model.RequirementAttribution {
			add("requirement", model.SeverityError, "%s requires attribution but row is marked %q", license, row.Requirement)
		}
	}

	return issues
}

// HasErrors reports whether any issue is an error
func HasErrors(issues []model.Issue) bool {
	for _, is := range issues {
		if is.Severity == model.SeverityError {
			return true
		}
	}
	return false
}

func checkWebsite(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "website is empty"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("website %q is not a valid URL", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("website %q must be an absolute http(s) URL", raw)
	}
	if u.Host == "" {
		return fmt.Sprintf("website %q has no host", raw)
	}
	return ""
}

// Attribution returns a notice for every row whose requirement is
// attribution, in table order
func Attribution(rows []model.DataSource, classifier *LicenseClassifier) []model.Notice {
	if classifier == nil {
		classifier, _ = NewLicenseClassifier(nil)
	}

	notices := []model.Notice{}
	for _, row := range rows {
		if ClassifyRequirement(row.Requirement) != model.RequirementAttribution {
			continue
		}
		notices = append(notices, model.Notice{
			Source:  row.Name,
			Website: row.Website,
			License: classifier.Classify(row.License),
			Text:    fmt.Sprintf("Contains data from %s (%s), licensed under %s.", row.Name, row.Website, row.License),
		})
	}
	return notices
}
