// Package observability provides formatted output utilities for the CLI text mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/jobflow/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxSourcesToShow is the number of research sources listed under a profile
	maxSourcesToShow = 5
)

// sectionTitles are the human-readable headings of the company profile sections.
var sectionTitles = map[types.ProfileField]string{
	types.FieldCompanyOverview:     "Company Overview",
	types.FieldMarketCustomers:     "Market & Customers",
	types.FieldKeyProducts:         "Key Products",
	types.FieldCultureValues:       "Culture & Values",
	types.FieldIndustryCompetition: "Industry & Competition",
	types.FieldGrowthOpportunities: "Growth Opportunities",
	types.FieldAdditionalInsights:  "Additional Insights",
}

// Printer handles formatted output for text mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content. Long lines wrap.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		for _, wrapped := range wrap(line, inner) {
			fmt.Fprintf(p.out, "│ %s │\n", pad(wrapped, inner))
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintMatchResult outputs the score, justification and suggestions.
func (p *Printer) PrintMatchResult(result types.MatchResult) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Score:  %d/100  %s\n", result.Score, scoreBar(result.Score)))

	if result.Justification != "" {
		sb.WriteString("\n")
		sb.WriteString(result.Justification)
		sb.WriteString("\n")
	}

	if len(result.Suggestions) > 0 {
		sb.WriteString("\nSuggestions:\n")
		for i, s := range result.Suggestions {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, s))
		}
	}

	p.printBox("RESUME MATCH", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCompanyProfile outputs the populated sections of a company profile and
// the sources it was grounded on.
func (p *Printer) PrintCompanyProfile(company string, profile types.CompanyProfile, sources []types.ResearchSource) {
	var sb strings.Builder
	if company != "" {
		sb.WriteString(fmt.Sprintf("Company:  %s\n\n", company))
	}

	if profile.IsEmpty() {
		sb.WriteString("No company information could be extracted.\n")
	}
	for _, f := range types.ProfileFields {
		value := profile.Get(f)
		if value == "" {
			continue
		}
		sb.WriteString(sectionTitles[f])
		sb.WriteString(":\n")
		sb.WriteString(value)
		sb.WriteString("\n\n")
	}

	if len(sources) > 0 {
		sb.WriteString("Sources:\n")
		count := min(len(sources), maxSourcesToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", sources[i].URL))
		}
		if len(sources) > maxSourcesToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(sources)-maxSourcesToShow))
		}
	}

	p.printBox("COMPANY PROFILE", strings.TrimRight(sb.String(), "\n"))
}

// scoreBar renders a 20-cell gauge for a 0-100 score.
func scoreBar(score int) string {
	score = max(0, min(score, 100))
	filled := score / 5
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", 20-filled) + "]"
}

// pad right-pads s with spaces to width runes.
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// wrap breaks a line into chunks of at most width runes, preferring word
// boundaries. Leading indentation is repeated on continuation lines.
func wrap(line string, width int) []string {
	if utf8.RuneCountInString(line) <= width {
		return []string{line}
	}

	indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
	var (
		lines   []string
		current = indent
	)
	for _, word := range strings.Fields(line) {
		for utf8.RuneCountInString(word) > width-len(indent) {
			if strings.TrimSpace(current) != "" {
				lines = append(lines, current)
				current = indent
			}
			runes := []rune(word)
			cut := width - len(indent)
			lines = append(lines, indent+string(runes[:cut]))
			word = string(runes[cut:])
		}

		switch {
		case strings.TrimSpace(current) == "":
			current = indent + word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = indent + word
		}
	}
	if strings.TrimSpace(current) != "" {
		lines = append(lines, current)
	}
	return lines
}
