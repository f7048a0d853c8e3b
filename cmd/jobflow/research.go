package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/jobflow/internal/observability"
	"github.com/jonathan/jobflow/internal/schemas"
	"github.com/jonathan/jobflow/internal/server"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Build a company profile from a job description",
	Long: `Extract the hiring company from a job description, optionally gather public
pages about it, and print the seven-section company profile as JSON.`,
	RunE: runResearch,
}

var (
	researchJob    string
	researchJobURL string
	researchFormat string
)

func init() {
	researchCmd.Flags().StringVar(&researchJob, "job", "", "Path to a file containing the job description")
	researchCmd.Flags().StringVar(&researchJobURL, "job-url", "", "URL of the job posting to scrape")

	addFormatFlag(researchCmd, &researchFormat)

	researchCmd.MarkFlagsMutuallyExclusive("job", "job-url")
	researchCmd.MarkFlagsOneRequired("job", "job-url")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, _ []string) error {
	if err := checkFormat(researchFormat); err != nil {
		return err
	}
	job, err := readJobFile(researchJob)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), appConfig, appLogger)
	if err != nil {
		return err
	}
	defer a.Close()

	if researchJobURL != "" {
		scraped, err := a.service.ScrapeJob(cmd.Context(), researchJobURL)
		if err != nil {
			return err
		}
		job = scraped.Text
	}

	report, err := a.service.ResearchCompany(cmd.Context(), job)
	if err != nil {
		return err
	}
	if researchFormat == formatText {
		observability.NewPrinter(cmd.OutOrStdout()).PrintCompanyProfile(report.Company, report.Profile, report.Sources)
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), schemas.CompanyProfile, server.ResearchCompanyResponse{
		CompanyProfile: report.Profile,
		Company:        report.Company,
		Sources:        report.Sources,
	})
}
