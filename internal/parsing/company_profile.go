package parsing

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/jobflow/internal/types"
)

// MinParagraphLength is the shortest paragraph used by positional fallback.
const MinParagraphLength = 20

// sectionSpec describes how one profile field is located in a research response.
type sectionSpec struct {
	field types.ProfileField
	// label is the heading the research prompt asks for.
	label string
	// keywords are looser topic labels tried after the heading forms.
	keywords []string
}

var sectionSpecs = []sectionSpec{
	{types.FieldCompanyOverview, `company\s+overview`, []string{`about\s+the\s+company|overview`}},
	{types.FieldMarketCustomers, `market\s*(?:&|and)\s*customers`, []string{`target\s+market|customers`}},
	{types.FieldKeyProducts, `key\s+products(?:\s*(?:&|and)\s*services)?`, []string{`products|services`}},
	{types.FieldCultureValues, `culture\s*(?:&|and)\s*values`, []string{`company\s+culture|values`}},
	{types.FieldIndustryCompetition, `industry\s*(?:&|and)\s*competition`, []string{`competitors|competition`}},
	{types.FieldGrowthOpportunities, `growth\s*(?:&|and)\s*opportunities`, []string{`growth|opportunities`}},
	{types.FieldAdditionalInsights, `additional\s+insights`, []string{`insights|other\s+notes`}},
}

var (
	sectionPatterns  = compileSectionPatterns(sectionSpecs)
	sectionBoundary  = compileSectionBoundary(sectionSpecs)
	paragraphBreak   = regexp.MustCompile(`\n[ \t]*\n`)
	sectionEdgeChars = " \t\n*_:#"
)

// linePrefix matches the indentation and bullet or emphasis markers allowed before a
// label at the start of a line.
const linePrefix = `(?im)^[ \t]*[-*#_]*[ \t]*`

// compileSectionPatterns builds, per field, the numbered heading, the markdown
// heading line, the labeled line, and one keyword pattern per keyword group, in
// that order. Labels and keywords only count at the start of a line.
func compileSectionPatterns(specs []sectionSpec) map[types.ProfileField][]*regexp.Regexp {
	patterns := make(map[types.ProfileField][]*regexp.Regexp, len(specs))
	for _, spec := range specs {
		list := []*regexp.Regexp{
			regexp.MustCompile(`(?i)\d+\.[ \t]*[*#_]*[ \t]*` + spec.label + `[*_]*[ \t]*:?[*_]*`),
			regexp.MustCompile(`(?im)^[ \t]*#{1,6}[ \t]*(?:\d+\.[ \t]*)?[*_]*` + spec.label + `[*_]*[ \t]*:?[*_]*[ \t]*$`),
			regexp.MustCompile(linePrefix + spec.label + `[*_]*[ \t]*:`),
		}
		for _, kw := range spec.keywords {
			list = append(list, regexp.MustCompile(linePrefix+`(?:`+kw+`)[*_]*[ \t]*:`))
		}
		patterns[spec.field] = list
	}
	return patterns
}

// compileSectionBoundary matches a line that starts a new section: a numbered item,
// a markdown heading, or a known section label or keyword followed by a colon.
func compileSectionBoundary(specs []sectionSpec) *regexp.Regexp {
	labels := make([]string, 0, len(specs)*2)
	for _, spec := range specs {
		labels = append(labels, spec.label)
		labels = append(labels, spec.keywords...)
	}
	return regexp.MustCompile(`(?im)^[ \t]*(?:\d+\.[ \t]|#{1,6}[ \t]|[*_]*(?:` +
		strings.Join(labels, "|") + `)[*_]*[ \t]*:)`)
}

// SectionExtractors returns the ordered extractors for one profile field.
func SectionExtractors(field types.ProfileField) []Extractor {
	patterns := sectionPatterns[field]
	extractors := make([]Extractor, 0, len(patterns))
	for _, re := range patterns {
		extractors = append(extractors, sectionExtractor(re))
	}
	return extractors
}

// ParseCompanyProfile converts a research response into a CompanyProfile.
// Labeled sections are tried first; when none is found the text is split into
// paragraphs that fill the fields in declaration order. It never fails.
func ParseCompanyProfile(text string) types.CompanyProfile {
	text = normalizeNewlines(text)

	var profile types.CompanyProfile
	for _, field := range types.ProfileFields {
		if value, ok := FirstMatch(text, SectionExtractors(field)...); ok {
			profile.Set(field, value)
		}
	}

	if profile.IsEmpty() {
		profile = positionalProfile(text)
	}
	return profile
}

// sectionExtractor returns the body that follows a heading match, ending before the
// next section boundary on a later line.
func sectionExtractor(heading *regexp.Regexp) Extractor {
	return func(text string) (string, bool) {
		loc := heading.FindStringIndex(text)
		if loc == nil {
			return "", false
		}
		body := sectionBody(text[loc[1]:])
		if body == "" {
			return "", false
		}
		return body, true
	}
}

// sectionBody cuts rest at the first boundary line after its first line.
func sectionBody(rest string) string {
	firstBreak := strings.IndexByte(rest, '\n')
	if firstBreak >= 0 {
		if loc := sectionBoundary.FindStringIndex(rest[firstBreak:]); loc != nil {
			rest = rest[:firstBreak+loc[0]]
		}
	}
	return strings.Trim(rest, sectionEdgeChars)
}

// positionalProfile assigns paragraphs of at least MinParagraphLength characters to
// the profile fields in order. Extra paragraphs are dropped.
func positionalProfile(text string) types.CompanyProfile {
	var profile types.CompanyProfile

	fields := types.ProfileFields
	next := 0
	for _, paragraph := range paragraphBreak.Split(text, -1) {
		if next >= len(fields) {
			break
		}
		paragraph = strings.TrimSpace(paragraph)
		if utf8.RuneCountInString(paragraph) < MinParagraphLength {
			continue
		}
		profile.Set(fields[next], paragraph)
		next++
	}
	return profile
}
