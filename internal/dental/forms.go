package dental

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Choice is one option of a closed question.
type Choice struct {
	Value string
	Label string
}

type Choices []Choice

// Valid accepts the empty answer and any listed value.
func (cs Choices) Valid(v string) bool {
	if v == "" {
		return true
	}
	for _, c := range cs {
		if c.Value == v {
			return true
		}
	}
	return false
}

func (cs Choices) Label(v string) string {
	for _, c := range cs {
		if c.Value == v {
			return c.Label
		}
	}
	return v
}

// ChoiceError reports an answer outside its option list.
type ChoiceError struct {
	Field string
	Value string
}

func (e *ChoiceError) Error() string {
	return fmt.Sprintf("%s: opción no válida %q", e.Field, e.Value)
}

// TextError reports a free-text answer over its limit.
type TextError struct {
	Field string
	Max   int
}

func (e *TextError) Error() string {
	return fmt.Sprintf("%s: máximo %d caracteres", e.Field, e.Max)
}

type choiceField struct {
	name    string
	value   string
	options Choices
}

type textField struct {
	name  string
	value string
	max   int
}

func checkChoices(fields []choiceField) error {
	for _, f := range fields {
		if !f.options.Valid(f.value) {
			return &ChoiceError{Field: f.name, Value: f.value}
		}
	}
	return nil
}

func checkTexts(fields []textField) error {
	for _, f := range fields {
		if utf8.RuneCountInString(f.value) > f.max {
			return &TextError{Field: f.name, Max: f.max}
		}
	}
	return nil
}

// normalizeSet drops blanks and duplicates and puts known codes in option
// order. Unknown codes are kept at the end so validation can reject them.
func normalizeSet(codes []string, options Choices) []string {
	seen := make(map[string]bool, len(codes))
	var unknown []string
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		if !options.Valid(c) {
			unknown = append(unknown, c)
		}
	}
	out := []string{}
	for _, o := range options {
		if seen[o.Value] {
			out = append(out, o.Value)
		}
	}
	return append(out, unknown...)
}

type setField struct {
	name    string
	codes   []string
	options Choices
}

func checkSets(fields []setField) error {
	for _, f := range fields {
		for _, c := range f.codes {
			if c == "" || !f.options.Valid(c) {
				return &ChoiceError{Field: f.name, Value: c}
			}
		}
	}
	return nil
}

// Line is one printed answer.
type Line struct {
	Label string
	Value string
}

// Section groups the printed answers under a heading.
type Section struct {
	Title string
	Lines []Line
}

type sectionBuilder struct {
	sections []Section
}

func (b *sectionBuilder) start(title string) {
	b.sections = append(b.sections, Section{Title: title})
}

func (b *sectionBuilder) add(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	s := &b.sections[len(b.sections)-1]
	s.Lines = append(s.Lines, Line{Label: label, Value: value})
}

func (b *sectionBuilder) choice(label, value string, options Choices) {
	if value != "" {
		b.add(label, options.Label(value))
	}
}

func (b *sectionBuilder) flag(label string, on bool) {
	if on {
		b.add(label, "Sí")
	}
}

func (b *sectionBuilder) set(codes []string, options Choices) {
	for _, c := range codes {
		b.add(options.Label(c), "Sí")
	}
}

func yesNo(v bool) string {
	if v {
		return "Sí"
	}
	return "No"
}
