package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobflow/internal/analysis"
	"github.com/jonathan/jobflow/internal/ingestion"
	"github.com/jonathan/jobflow/internal/observability"
	"github.com/jonathan/jobflow/internal/schemas"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a resume against a job description",
	Long: `Score a resume (PDF, DOCX or text) against a job description given as a file
or a posting URL, and print the match score, justification and suggestions as JSON.`,
	RunE: runAnalyze,
}

var (
	analyzeResume string
	analyzeJob    string
	analyzeJobURL string
	analyzeFormat string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeResume, "resume", "r", "", "Path to the resume (pdf, docx or txt)")
	analyzeCmd.Flags().StringVar(&analyzeJob, "job", "", "Path to a file containing the job description")
	analyzeCmd.Flags().StringVar(&analyzeJobURL, "job-url", "", "URL of the job posting to scrape")

	addFormatFlag(analyzeCmd, &analyzeFormat)

	_ = analyzeCmd.MarkFlagRequired("resume")
	analyzeCmd.MarkFlagsMutuallyExclusive("job", "job-url")
	analyzeCmd.MarkFlagsOneRequired("job", "job-url")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	if err := checkFormat(analyzeFormat); err != nil {
		return err
	}
	resume, _, err := ingestion.IngestFromFile(analyzeResume)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}
	job, err := readJobFile(analyzeJob)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), appConfig, appLogger)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.Analyze(cmd.Context(), analysis.AnalyzeInput{
		ResumeText:     resume,
		JobDescription: job,
		JobURL:         analyzeJobURL,
	})
	if err != nil {
		return err
	}
	if analyzeFormat == formatText {
		observability.NewPrinter(cmd.OutOrStdout()).PrintMatchResult(result)
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), schemas.MatchResult, result)
}
