// Package policy screens reading questions for topics the service refuses to
// interpret: death, terminal illness and self-harm.
package policy

import (
	"regexp"
	"strings"
)

// Stems rather than whole words, so inflected Russian forms are caught.
// English entries carry word boundaries because bare substrings collide with
// harmless words (die/diet, kill/skill).
var defaultStems = []string{
	`смерт`, `умир`, `умр`, `умер`, `погиб`, `похорон`,
	`болезн`, `больн`, `болен`, `диагноз`, `опухол`, `онколог`,
	`суицид`, `самоуби`, `покончить с собой`,
	`\bdeath`, `\bdie(s|d)?\b`, `\bdying\b`, `\bsuicide`, `\bself-?harm`,
	`\bkill`, `\billness`, `\bdisease`, `\bcancer`, `\bterminal`,
}

// Filter reports whether a question touches a forbidden topic. It is pure;
// the caller owns any side effects like violation counters.
type Filter struct {
	re *regexp.Regexp
}

// New builds a filter from the built-in stems plus extraTopics, a raw
// "|"-separated list from configuration. Extra entries are matched literally.
func New(extraTopics string) *Filter {
	parts := make([]string, 0, len(defaultStems)+4)
	parts = append(parts, defaultStems...)
	for _, topic := range strings.Split(extraTopics, "|") {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		parts = append(parts, regexp.QuoteMeta(topic))
	}
	pattern := `(?i)(` + strings.Join(parts, `|`) + `)`
	return &Filter{re: regexp.MustCompile(pattern)}
}

func (f *Filter) IsForbidden(text string) bool {
	return f.re.MatchString(text)
}
