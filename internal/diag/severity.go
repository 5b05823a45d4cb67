package diag

// Severity ranks a finding. The checker uses all three levels: SevInfo for
// advisory preprocessing notices (an include that cannot be resolved),
// SevWarning for guard findings, and SevError for hard failures such as an
// unreadable file or a conditional still open at end of unit.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{
	SevInfo:    "INFO",
	SevWarning: "WARNING",
	SevError:   "ERROR",
}

// String returns the uppercase label both renderers print.
func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}
