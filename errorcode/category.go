// category.go
package errorcode

// Category is the semantic class of a failure. Retry decisions are made on
// the category and the Retryable flag, never on Severity.
type Category int

const (
	CategoryOther Category = iota
	CategoryAuthentication
	CategoryPermission
	CategoryParameter
	CategoryResource
	CategoryServer
	CategoryNetwork
	CategoryRateLimit
)

// String returns the category name used in logs and metrics labels.
func (c Category) String() string {
	switch c {
	case CategoryAuthentication:
		return "Authentication"
	case CategoryPermission:
		return "Permission"
	case CategoryParameter:
		return "Parameter"
	case CategoryResource:
		return "Resource"
	case CategoryServer:
		return "Server"
	case CategoryNetwork:
		return "Network"
	case CategoryRateLimit:
		return "RateLimit"
	default:
		return "Other"
	}
}

// Severity is informational only.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "Info"
	case SeverityWarning:
		return "Warning"
	case SeverityCritical:
		return "Critical"
	default:
		return "Error"
	}
}
