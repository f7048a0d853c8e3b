package analysis

import (
	"strings"

	"github.com/jonathan/jobflow/internal/prompts"
)

// unknownCompany stands in for the company name when none could be extracted.
const unknownCompany = "the hiring company"

// noExternalSources is interpolated when research found nothing.
const noExternalSources = "(none available)"

// BuildMatchPrompt interpolates the resume and job description into the match template.
// It is deterministic: the same inputs always produce the same prompt.
func BuildMatchPrompt(resume, jobDescription string) string {
	return prompts.Format(prompts.MustGet(prompts.AnalysisFile, prompts.MatchResumeKey), map[string]string{
		"Resume":         resume,
		"JobDescription": jobDescription,
	})
}

// BuildResearchPrompt interpolates a company, its job description and any external
// research corpus into the company research template.
func BuildResearchPrompt(company, jobDescription, corpus string) string {
	if strings.TrimSpace(company) == "" {
		company = unknownCompany
	}
	if strings.TrimSpace(corpus) == "" {
		corpus = noExternalSources
	}
	return prompts.Format(prompts.MustGet(prompts.ResearchFile, prompts.ResearchCompany), map[string]string{
		"Company":        company,
		"JobDescription": jobDescription,
		"Sources":        corpus,
	})
}
