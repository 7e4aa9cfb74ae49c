package catalog

import (
	"strings"
	"unicode"
)

// ExpandTags turns admin tag input such as "Pulseras, Para-Parejas" into the
// stored tag list: every comma separated token lowercased, followed by its
// sub-tokens split on hyphens and whitespace. Order is preserved and
// duplicates dropped.
func ExpandTags(raw string) []string {
	return ExpandTagList(strings.Split(raw, ","))
}

// ExpandTagList applies ExpandTags to tags that already arrive as a list.
func ExpandTagList(raw []string) []string {
	out := make([]string, 0, len(raw)*2)
	seen := make(map[string]struct{}, len(raw)*2)
	add := func(tag string) {
		if tag == "" {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	for _, entry := range raw {
		for _, token := range strings.Split(entry, ",") {
			token = normalizeTag(token)
			if token == "" {
				continue
			}
			add(token)
			parts := strings.FieldsFunc(token, func(r rune) bool {
				return r == '-' || unicode.IsSpace(r)
			})
			if len(parts) > 1 {
				for _, part := range parts {
					add(part)
				}
			}
		}
	}
	return out
}

func normalizeTag(tag string) string {
	return strings.Join(strings.Fields(strings.ToLower(tag)), " ")
}
