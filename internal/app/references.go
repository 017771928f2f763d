package app

import (
	"regexp"
	"sort"
)

// CompendiumReferences scans a message for whole-word, case-insensitive
// mentions of compendium entry names and returns the matched names in
// sorted order. The workshop chat appends them to the outgoing message
// so the model knows which entries the author is talking about.
func CompendiumReferences(store CompendiumStore, message string) []string {
	if store == nil || message == "" {
		return nil
	}
	comp, err := store.Compendium()
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var refs []string
	for _, entries := range comp.Categories {
		for name := range entries {
			if name == "" || seen[name] {
				continue
			}
			pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
			if err != nil {
				continue
			}
			if pattern.MatchString(message) {
				seen[name] = true
				refs = append(refs, name)
			}
		}
	}
	sort.Strings(refs)
	return refs
}
