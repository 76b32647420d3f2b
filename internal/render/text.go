// Package render formats an Analysis for terminal output.
package render

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/Brownie44l1/ecovision/internal/pipeline"
)

const barWidth = 20

func Text(w io.Writer, a *pipeline.Analysis) error {
	var b strings.Builder
	c := a.Classification

	fmt.Fprintf(&b, "Detected Species: %s\n", titleCase(c.Label))
	fmt.Fprintf(&b, "%s\n", progressBar(c.Confidence))
	fmt.Fprintf(&b, "Confidence: %.2f%%\n", c.Confidence)
	if len(c.Scores) > 0 {
		b.WriteString("Raw Probabilities:\n")
		for _, s := range c.Scores {
			fmt.Fprintf(&b, "  %d %s: %.4f\n", s.Index, s.Label, s.Score)
		}
	}

	if !a.Enriched || a.Facts == nil {
		fmt.Fprintf(&b, "\n%s\n", a.Warning)
		_, err := io.WriteString(w, b.String())
		return err
	}

	f := a.Facts
	fmt.Fprintf(&b, "\nInsights: %s\n", titleCase(c.Label))
	fmt.Fprintf(&b, "Scientific Name: %s\n", orUnknown(f.ScientificName))
	b.WriteString("\nDid you know?\n")
	for _, fact := range f.FunFacts {
		fmt.Fprintf(&b, "- %s\n", fact)
	}
	b.WriteString("\nSimilar Animals (Same Genus):\n")
	b.WriteString(strings.Join(f.GenusMembers, ", "))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// progressBar draws confidence (0-100) as a fixed-width bar.
func progressBar(confidence float64) string {
	filled := int(confidence) * barWidth / 100
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled) + "]"
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// titleCase upper-cases the first letter of every word and lower-cases the rest.
func titleCase(s string) string {
	runes := []rune(s)
	start := true
	for i, r := range runes {
		if unicode.IsLetter(r) {
			if start {
				runes[i] = unicode.ToUpper(r)
			} else {
				runes[i] = unicode.ToLower(r)
			}
			start = false
			continue
		}
		start = true
	}
	return string(runes)
}
