package enrich

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxListItems bounds both FunFacts and GenusMembers.
const MaxListItems = 3

const (
	unknownScientificName = "Unknown"
	fallbackFact          = "Could not retrieve facts at this time."
)

type FactRecord struct {
	CommonName     string   `json:"common_name"`
	ScientificName string   `json:"scientific_name"`
	FunFacts       []string `json:"fun_facts"`
	GenusMembers   []string `json:"genus_members"`
}

// FallbackRecord is the placeholder returned whenever the generative API
// cannot produce usable facts for label.
func FallbackRecord(label string) FactRecord {
	return FactRecord{
		CommonName:     capitalize(label),
		ScientificName: unknownScientificName,
		FunFacts:       []string{fallbackFact},
		GenusMembers:   []string{},
	}
}

func (r *FactRecord) normalize() {
	if r.FunFacts == nil {
		r.FunFacts = []string{}
	}
	if r.GenusMembers == nil {
		r.GenusMembers = []string{}
	}
	if len(r.FunFacts) > MaxListItems {
		r.FunFacts = r.FunFacts[:MaxListItems]
	}
	if len(r.GenusMembers) > MaxListItems {
		r.GenusMembers = r.GenusMembers[:MaxListItems]
	}
}

// capitalize title-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if first == utf8.RuneError {
		return s
	}
	return string(unicode.ToTitle(first)) + strings.ToLower(s[size:])
}
