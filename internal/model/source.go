package model

// DataSource is one row of the attribution table
type DataSource struct {
	Name        string `json:"name" yaml:"name"`
	Website     string `json:"website" yaml:"website"`
	License     string `json:"license" yaml:"license"`         // License text as written, e.g. "CC BY 4.0"
	Requirement string `json:"requirement" yaml:"requirement"` // e.g. "Attribution", "Attribution Optional"
}

// LicenseKind is the canonical license a license text maps to
type LicenseKind string

const (
	LicenseCCBY4        LicenseKind = "cc-by-4.0"
	LicenseCC0          LicenseKind = "cc0"
	LicensePublicDomain LicenseKind = "public-domain"
	LicenseMIT          LicenseKind = "mit"
	LicenseCustom       LicenseKind = "custom" // Provider-specific terms, known but not standard
	LicenseUnknown      LicenseKind = "unknown"
)

// RequiresAttribution reports whether the license obliges crediting the source
func (k LicenseKind) RequiresAttribution() bool {
	switch k {
	case LicenseCCBY4, LicenseMIT:
		return true
	default:
		return false
	}
}

// RequirementKind is the canonical attribution requirement
type RequirementKind string

const (
	RequirementAttribution         RequirementKind = "attribution"
	RequirementAttributionOptional RequirementKind = "attribution-optional"
	RequirementUnknown             RequirementKind = "unknown"
)

// Notice is the attribution line served alongside results
type Notice struct {
	Source  string      `json:"source"`
	Website string      `json:"website"`
	License LicenseKind `json:"license"`
	Text    string      `json:"text"`
}

// Severity of a validation issue
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue is one validation finding against the attribution table
type Issue struct {
	Row      int      `json:"row"` // 0-based row index
	Source   string   `json:"source"`
	Field    string   `json:"field"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Reachability is the result of probing a source website
type Reachability struct {
	Source     string `json:"source"`
	URL        string `json:"url"`
	Reachable  bool   `json:"reachable"`
	StatusCode int    `json:"status_code,omitempty"`
	Attempts   int    `json:"attempts"`
	Error      string `json:"error,omitempty"`
}
