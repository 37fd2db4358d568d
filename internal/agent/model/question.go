package model

import "strings"

// Question is the normalized inbound support request the pipeline operates on.
type Question struct {
	Issue  string `json:"issue"`
	OS     string `json:"os"`
	Device string `json:"device"`
}

// SupportedOS lists the operating systems the answer contract recognizes.
var SupportedOS = []string{"Windows", "macOS", "Android", "iOS", "ChromeOS", "Linux"}

// IsSupportedOS reports whether label matches one of the supported operating
// systems exactly (labels are case-sensitive on the wire).
func IsSupportedOS(label string) bool {
	for _, os := range SupportedOS {
		if os == label {
			return true
		}
	}
	return false
}

// Normalize trims surrounding whitespace from every field so logically
// identical requests fingerprint identically.
func (q Question) Normalize() Question {
	return Question{
		Issue:  strings.TrimSpace(q.Issue),
		OS:     strings.TrimSpace(q.OS),
		Device: strings.TrimSpace(q.Device),
	}
}
