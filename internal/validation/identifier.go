package validation

import "regexp"

// IdentifierLen is the length of male and female identifiers
const IdentifierLen = 10

var (
	digitRun     = regexp.MustCompile(`[0-9]+`)
	identifierRe = regexp.MustCompile(`^[0-9]{10}$`)
)

// IsIdentifier reports whether s is exactly ten ASCII digits
func IsIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}

// ExtractIdentifiers returns distinct 10-digit identifiers in order of appearance.
// Only standalone runs count, so digits inside longer numbers (phone numbers) are skipped.
func ExtractIdentifiers(text string) []string {
	if text == "" {
		return nil
	}

	var ids []string
	seen := make(map[string]struct{})

	for _, run := range digitRun.FindAllString(text, -1) {
		if len(run) != IdentifierLen {
			continue
		}
		if _, ok := seen[run]; ok {
			continue
		}
		seen[run] = struct{}{}
		ids = append(ids, run)
	}

	return ids
}

// FemaleIDFromTitle returns the first standalone 10-digit group of a chat title
func FemaleIDFromTitle(title string) (string, bool) {
	for _, run := range digitRun.FindAllString(title, -1) {
		if len(run) == IdentifierLen {
			return run, true
		}
	}
	return "", false
}
