package core

import "strings"

// LineKind is the closed line-of-business classification. The raw
// line-of-business strings coming off carrier documents are free-form
// ("Homeowners HO3", "Personal Auto", "DP3 Landlord"), so the kind is
// computed once at ingestion and every rule keys off the enum.
type LineKind string

const (
	LineHome  LineKind = "home"
	LineAuto  LineKind = "auto"
	LineOther LineKind = "other"
)

var homeMarkers = []string{"home", "dwelling", "ho3", "ho5", "dp3"}

// ClassifyLine maps a free-form line-of-business string to its kind.
func ClassifyLine(lob string) LineKind {
	s := strings.ToLower(lob)
	for _, m := range homeMarkers {
		if strings.Contains(s, m) {
			return LineHome
		}
	}
	if strings.Contains(s, "auto") || strings.Contains(s, "vehicle") {
		return LineAuto
	}
	return LineOther
}
