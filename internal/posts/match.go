package posts

import "strings"

// MatchesSkills reports whether a post's skill requirements overlap a
// user's skills. Comparison is case-insensitive. A post without required
// skills matches everyone.
func MatchesSkills(requiredSkills, userSkills []string) bool {
	if len(requiredSkills) == 0 {
		return true
	}

	have := make(map[string]struct{}, len(userSkills))
	for _, skill := range userSkills {
		have[strings.ToLower(strings.TrimSpace(skill))] = struct{}{}
	}

	for _, required := range requiredSkills {
		if _, ok := have[strings.ToLower(strings.TrimSpace(required))]; ok {
			return true
		}
	}
	return false
}
