package parsing

import (
	"regexp"
	"strings"
)

// companyNamePart matches one capitalised word of a company name.
const companyNamePart = `[A-Z][A-Za-z0-9&.'\-]*`

// companyName matches one or more capitalised words separated by single spaces.
const companyName = `(` + companyNamePart + `(?: ` + companyNamePart + `)*)`

// Company name patterns are case-sensitive on the name itself, since capitalisation
// is what separates a name from the surrounding sentence.
var companyNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:at|At|AT) ` + companyName),
	regexp.MustCompile(`(?i:about) ` + companyName + `[ \t]*:`),
	regexp.MustCompile(companyName + ` (?i:is hiring)`),
	regexp.MustCompile(`\b(?i:join) ` + companyName),
	regexp.MustCompile(`(?m)^[ \t]*` + companyName + `[ \t]+[-–—|][ \t]`),
	regexp.MustCompile(companyName + ` (?i:seeks|is looking for)`),
}

// companyNameStopWords are capitalised words that start sentences rather than names.
var companyNameStopWords = map[string]bool{
	"Our": true, "The": true, "We": true, "Us": true, "You": true, "This": true, "A": true, "An": true,
}

// CompanyNameExtractors returns the company-name cascade in priority order:
// "at <Name>", "About <Name>:", "<Name> is hiring", "Join <Name>",
// "<Name> - ..." at a line start, "<Name> seeks".
func CompanyNameExtractors() []Extractor {
	extractors := make([]Extractor, 0, len(companyNamePatterns))
	for _, re := range companyNamePatterns {
		extractors = append(extractors, companyNameExtractor(re))
	}
	return extractors
}

// ExtractCompanyName guesses the hiring company from a job description.
// It returns "" when no pattern yields a plausible name.
func ExtractCompanyName(jobDescription string) string {
	name, _ := FirstMatch(normalizeNewlines(jobDescription), CompanyNameExtractors()...)
	return name
}

// companyNameExtractor checks every match of re, rejecting captures that begin with a
// stop word, and returns the first acceptable name.
func companyNameExtractor(re *regexp.Regexp) Extractor {
	return func(text string) (string, bool) {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			name := strings.TrimRight(strings.TrimSpace(m[1]), ".-")
			if name == "" {
				continue
			}
			first := strings.Fields(name)[0]
			if companyNameStopWords[first] {
				continue
			}
			return name, true
		}
		return "", false
	}
}
