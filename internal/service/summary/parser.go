package summary

import (
	"regexp"
	"strings"
	"unicode"

	"imet-backend/internal/domain"
)

// TopicVocabulary is the fixed list of topics turned into #tags, in output order.
var TopicVocabulary = []string{
	"tech", "business", "design", "marketing", "finance", "education", "healthcare", "sports",
}

type field int

const (
	fieldNone field = iota
	fieldName
	fieldLocation
	fieldDate
	fieldInterests
)

var (
	// labelPattern finds every "Label:" on a line. Numbering, headings and bold markers
	// around a label do not prevent a match.
	labelPattern = regexp.MustCompile(`(?i)\b(name|location|met at|date|when|interests?(?:\s*(?:&|and)\s*goals)?)\s*\**\s*:`)
	bulletPrefix = regexp.MustCompile(`^[-*•·]\s*`)
	placeholders = map[string]struct{}{
		"unknown":      {},
		"not provided": {},
		"n/a":          {},
		"none":         {},
	}
)

type parseState int

const (
	stateScanning parseState = iota
	stateInterests
)

// parser holds the state of a single Parse call.
type parser struct {
	state      parseState
	recognized bool
	seen       map[field]bool
	out        domain.ConnectionFields
}

// Parse extracts structured connection fields from narrative text.
// It never fails: unrecognized input yields a record whose summary and
// rawInput carry the text verbatim.
func Parse(text string) domain.ConnectionFields {
	p := &parser{seen: make(map[field]bool)}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		p.consume(line)
	}

	if !p.recognized {
		return domain.ConnectionFields{
			Summary:  domain.StringPtr(text),
			RawInput: domain.StringPtr(text),
		}
	}

	p.out.Summary = domain.StringPtr(strings.TrimSpace(text))
	p.out.Tags = ExtractTags(text)
	return p.out
}

func (p *parser) consume(line string) {
	trimmed := strings.TrimSpace(line)
	labels := matchLabels(trimmed)

	if p.state == stateInterests {
		if trimmed == "" {
			p.state = stateScanning
			return
		}
		if len(labels) == 0 && !startsUpper(trimmed) {
			p.addInterests(bulletPrefix.ReplaceAllString(trimmed, ""))
			return
		}
		p.state = stateScanning
	}

	for _, l := range labels {
		p.recognized = true
		p.apply(l)
	}
}

// apply records a label's value unless that field was already taken. A placeholder
// still takes the field, leaving it null.
func (p *parser) apply(l label) {
	if p.seen[l.field] {
		return
	}

	if l.field == fieldInterests {
		p.seen[fieldInterests] = true
		p.out.Interests = []string{}
		p.addInterests(l.value)
		p.state = stateInterests
		return
	}

	value, placeholder := cleanValue(l.value)
	if value == "" && !placeholder {
		return
	}
	p.seen[l.field] = true
	if placeholder {
		return
	}

	switch l.field {
	case fieldName:
		p.out.Name = domain.StringPtr(value)
	case fieldLocation:
		p.out.MeetingLocation = domain.StringPtr(value)
	case fieldDate:
		p.out.MeetingDate = domain.StringPtr(value)
	}
}

func (p *parser) addInterests(chunk string) {
	for _, part := range strings.FieldsFunc(chunk, func(r rune) bool { return r == ',' || r == '•' }) {
		part = strings.TrimSpace(strings.Trim(strings.TrimSpace(part), "-*·"))
		if part == "" {
			continue
		}
		p.out.Interests = append(p.out.Interests, part)
	}
}

type label struct {
	field field
	value string
}

// matchLabels returns every label on line in order. Each value is the rest of the line
// after its own label.
func matchLabels(line string) []label {
	var labels []label
	for _, m := range labelPattern.FindAllStringSubmatchIndex(line, -1) {
		name := strings.ToLower(line[m[2]:m[3]])
		l := label{value: line[m[1]:]}
		switch name {
		case "name":
			l.field = fieldName
		case "location", "met at":
			l.field = fieldLocation
		case "date", "when":
			l.field = fieldDate
		default:
			l.field = fieldInterests
		}
		labels = append(labels, l)
	}
	return labels
}

// cleanValue trims decoration from v and reports whether it is a placeholder such as
// "Unknown".
func cleanValue(v string) (string, bool) {
	v = strings.TrimSpace(strings.Trim(strings.TrimSpace(v), "*"))
	if _, ok := placeholders[strings.ToLower(v)]; ok {
		return "", true
	}
	return v, false
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

// ExtractTags scans text for the topic vocabulary and returns "#topic" tags in vocabulary order.
func ExtractTags(text string) []string {
	lower := strings.ToLower(text)
	tags := make([]string, 0, len(TopicVocabulary))
	for _, topic := range TopicVocabulary {
		if strings.Contains(lower, topic) {
			tags = append(tags, "#"+topic)
		}
	}
	return tags
}
