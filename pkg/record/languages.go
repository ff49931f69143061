package record

import "strings"

// TargetLanguages are the programming languages reported in summaries, in
// display order.
var TargetLanguages = []string{"Python", "Java", "C++", "C", "R", "Rust"}

var languageAliases = map[string]string{
	"c++":       "C++",
	"cpp":       "C++",
	"cplusplus": "C++",
	"java":      "Java",
	"c":         "C",
	"r":         "R",
	"rust":      "Rust",
}

// NormalizeLanguage maps a free-text language name onto its canonical
// spelling. Any name starting with "python" becomes "Python". Unrecognized
// names are returned trimmed but otherwise unchanged.
func NormalizeLanguage(name string) string {
	name = strings.TrimSpace(name)
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "python") {
		return "Python"
	}
	if canon, ok := languageAliases[lower]; ok {
		return canon
	}
	return name
}

// IsTargetLanguage reports whether lang is one of TargetLanguages.
func IsTargetLanguage(lang string) bool {
	for _, t := range TargetLanguages {
		if t == lang {
			return true
		}
	}
	return false
}

// Languages returns the target languages declared in the record's
// programming_languages property, deduplicated, in first-seen order. The
// name is read from result.value, falling back to result.name. Other
// languages are ignored.
func Languages(r Record) []string {
	var langs []string
	seen := make(map[string]bool)
	for _, e := range r.Entries(PropProgrammingLanguages) {
		if e.Result.Kind() != KindMap {
			continue
		}
		raw := e.Result.Field("value")
		if raw.IsAbsent() {
			raw = e.Result.Field("name")
		}
		name, ok := raw.Str()
		if !ok || name == "" {
			continue
		}
		lang := NormalizeLanguage(name)
		if IsTargetLanguage(lang) && !seen[lang] {
			seen[lang] = true
			langs = append(langs, lang)
		}
	}
	return langs
}
