// Package course defines the course record exchanged between the catalog loader,
// the search engine and the schedule builder.
package course

import (
	"encoding/json"
	"strings"
)

// TitleDelimiter separates the Chinese and English title when both are packed
// into a single field (e.g., "資料結構`Data Structures").
const TitleDelimiter = "`"

// Course represents one catalog offering.
// Records are immutable once loaded; Code is unique within a snapshot.
type Course struct {
	Code          string      `json:"code"`
	Title         string      `json:"title"`
	TitleParsed   *Title      `json:"title_parsed,omitempty"`
	Department    string      `json:"department"`
	ForDept       string      `json:"for_dept"`
	Professor     Professor   `json:"professor"`
	Credits       string      `json:"credits"`
	CreditsParsed int         `json:"credits_parsed"`
	Time          TextList    `json:"time"`
	TimeParsed    []TimeBlock `json:"time_parsed,omitempty"`
	Career        string      `json:"career,omitempty"` // Catalog program-level code (U, G, D, N, W, O)

	// Display-only metadata
	Class        string   `json:"class,omitempty"`
	Program      string   `json:"program,omitempty"`
	Semester     string   `json:"semester,omitempty"`
	Year         string   `json:"year,omitempty"`
	Obligatory   string   `json:"obligatory,omitempty"`
	ObligatoryTF bool     `json:"obligatory_tf"`
	Location     []string `json:"location,omitempty"`
	Language     string   `json:"language,omitempty"`
	Hours        string   `json:"hours,omitempty"`
	Prerequisite string   `json:"prerequisite,omitempty"`
	EnrolledNum  string   `json:"enrolled_num,omitempty"`
	SelectedNum  string   `json:"selected_num,omitempty"`
	Note         string   `json:"note,omitempty"`
	URL          string   `json:"url,omitempty"`
}

// Title is the pre-split bilingual course title.
type Title struct {
	EN string `json:"en_US"`
	ZH string `json:"zh_TW"`
}

// TimeBlock is one weekly meeting: Day 1=Monday..7=Sunday, Periods are 1-based.
type TimeBlock struct {
	Day     int   `json:"day"`
	Periods []int `json:"time"`
}

// DisplayTitle returns the Chinese title, falling back to the first half of a
// delimited Title field.
func (c *Course) DisplayTitle() string {
	if c.TitleParsed != nil && c.TitleParsed.ZH != "" {
		return c.TitleParsed.ZH
	}
	title, _, _ := strings.Cut(c.Title, TitleDelimiter)
	return strings.TrimSpace(title)
}

// MeetsOn reports whether any meeting block falls on the given day.
func (c *Course) MeetsOn(day int) bool {
	for _, block := range c.TimeParsed {
		if block.Day == day {
			return true
		}
	}
	return false
}

// MeetsInAny reports whether any meeting block uses one of the given periods.
func (c *Course) MeetsInAny(periods map[int]struct{}) bool {
	for _, block := range c.TimeParsed {
		for _, p := range block.Periods {
			if _, ok := periods[p]; ok {
				return true
			}
		}
	}
	return false
}

// Professor holds either a single instructor name or an ordered list of names.
// The catalog sends both shapes under the same key.
type Professor struct {
	names    []string
	multiple bool
}

// SingleProfessor creates a Professor holding one name.
func SingleProfessor(name string) Professor {
	if name == "" {
		return Professor{}
	}
	return Professor{names: []string{name}}
}

// MultipleProfessors creates a Professor holding an ordered list of names.
func MultipleProfessors(names ...string) Professor {
	return Professor{names: append([]string(nil), names...), multiple: true}
}

// Names returns a copy of the instructor names.
func (p Professor) Names() []string {
	return append([]string(nil), p.names...)
}

// IsMultiple reports whether the value arrived as a list.
func (p Professor) IsMultiple() bool {
	return p.multiple
}

// Joined returns the names joined by a single space.
func (p Professor) Joined() string {
	return strings.Join(p.names, " ")
}

// String returns the names joined for display.
func (p Professor) String() string {
	return strings.Join(p.names, ", ")
}

// MarshalJSON preserves the original shape.
func (p Professor) MarshalJSON() ([]byte, error) {
	if p.multiple {
		if p.names == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(p.names)
	}
	if len(p.names) == 0 {
		return []byte(`""`), nil
	}
	return json.Marshal(p.names[0])
}

// UnmarshalJSON accepts a string, a list of strings or null.
func (p *Professor) UnmarshalJSON(data []byte) error {
	names, multiple, err := decodeTextOrList(data)
	if err != nil {
		return err
	}
	p.names, p.multiple = names, multiple
	return nil
}

// TextList is a display field that the catalog sends either as one string or a list.
type TextList []string

// Joined returns the entries joined by a single space.
func (t TextList) Joined() string {
	return strings.Join(t, " ")
}

// UnmarshalJSON accepts a string, a list of strings or null.
func (t *TextList) UnmarshalJSON(data []byte) error {
	names, _, err := decodeTextOrList(data)
	if err != nil {
		return err
	}
	*t = names
	return nil
}

func decodeTextOrList(data []byte) ([]string, bool, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, false, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, false, err
		}
		out := make([]string, 0, len(list))
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, true, nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, false, err
	}
	if single = strings.TrimSpace(single); single == "" {
		return nil, false, nil
	}
	return []string{single}, false, nil
}
