package content

import (
	"strings"
	"unicode"

	"github.com/alkime/captions/pkg/collections"
)

type section int

const (
	sectionNone section = iota
	sectionCaption
	sectionMissing
	sectionFollowUps
)

// ParseSections reads a plain-text caption answer made of the three headed
// sections. List items may be dash-prefixed or numbered ("1. item"); other
// lines under a list heading are ignored.
func ParseSections(text string) *Caption {
	caption := &Caption{}
	var captionLines []string
	current := sectionNone

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if heading := headingOf(line); heading != sectionNone {
			current = heading
			continue
		}

		switch current {
		case sectionCaption:
			captionLines = append(captionLines, line)
		case sectionMissing:
			if item, ok := listItem(line); ok {
				caption.MissingInformation = append(caption.MissingInformation, item)
			}
		case sectionFollowUps:
			if item, ok := listItem(line); ok {
				caption.FollowUpQuestions = append(caption.FollowUpQuestions, item)
			}
		case sectionNone:
		}
	}

	caption.FormattedCaption = strings.Join(captionLines, "\n")

	return caption.normalized()
}

func headingOf(line string) section {
	upper := strings.ToUpper(line)

	switch {
	case strings.Contains(upper, HeadingCaption):
		return sectionCaption
	case strings.Contains(upper, HeadingMissing):
		return sectionMissing
	case strings.Contains(upper, HeadingFollowUps), strings.Contains(upper, "FOLLOW UP QUESTIONS"):
		return sectionFollowUps
	default:
		return sectionNone
	}
}

func listItem(line string) (string, bool) {
	if strings.HasPrefix(line, "-") {
		return strings.TrimSpace(line[1:]), true
	}

	if unicode.IsDigit(rune(line[0])) {
		if _, rest, found := strings.Cut(line, "."); found {
			return strings.TrimSpace(rest), true
		}
	}

	return "", false
}

func cleanItems(items []string) []string {
	return collections.Filter(
		collections.Apply(items, strings.TrimSpace),
		func(item string) bool { return item != "" },
	)
}
