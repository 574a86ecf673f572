package local

import "strings"

// profileTable maps document script tags to Tesseract language profiles.
var profileTable = map[string]string{
	"Latin":      "eng",
	"Devanagari": "hin",
	"Tamil":      "tam",
	"Telugu":     "tel",
	"Kannada":    "kan",
	"Malayalam":  "mal",
	"Bengali":    "ben",
	"Gujarati":   "guj",
	"Gurmukhi":   "pan",
	"Odia":       "ori",
}

// ProfileFor resolves a script tag to a language profile. Mixed-script
// tags ("Devanagari+Latin") resolve each component and join them into a
// combined profile ("hin+eng"). Unmapped scripts resolve to the default.
func ProfileFor(script, defaultProfile string) string {
	parts := strings.Split(script, "+")
	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, part := range parts {
		lang, ok := profileTable[strings.TrimSpace(part)]
		if !ok {
			lang = defaultProfile
		}
		if lang == "" || seen[lang] {
			continue
		}
		seen[lang] = true
		out = append(out, lang)
	}
	if len(out) == 0 {
		return defaultProfile
	}
	return strings.Join(out, "+")
}

// splitProfile breaks a combined profile into its component languages.
func splitProfile(profile string) []string {
	return strings.Split(profile, "+")
}
