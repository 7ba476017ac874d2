package wiki

import (
	"regexp"
	"strings"
)

// Section is one titled block of an article extract.
type Section struct {
	Title string
	Body  string
}

// headingRe matches plaintext extract headings like "== Taxonomy ==".
var headingRe = regexp.MustCompile(`(?m)^=+\s*([^=\n]+?)\s*=+\s*$`)

// excludedSections are heading names dropped from rendering.
var excludedSections = map[string]struct{}{
	"see also":        {},
	"references":      {},
	"external links":  {},
	"further reading": {},
	"bibliography":    {},
	"cited texts":     {},
	"notes":           {},
}

// ParseExtract splits a plaintext article extract into its lead
// paragraph and titled sections. Sections with empty bodies and
// excluded heading names are dropped.
func ParseExtract(extract string) (lead string, sections []Section) {
	matches := headingRe.FindAllStringSubmatchIndex(extract, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(extract), nil
	}

	lead = strings.TrimSpace(extract[:matches[0][0]])
	for i, m := range matches {
		title := extract[m[2]:m[3]]
		end := len(extract)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(extract[m[1]:end])
		if body == "" {
			continue
		}
		if _, excluded := excludedSections[strings.ToLower(title)]; excluded {
			continue
		}
		sections = append(sections, Section{Title: title, Body: body})
	}
	return lead, sections
}
