package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch a job posting and print its cleaned text",
	Long: `Fetch a job posting, extract the description with platform-aware selectors,
fall back to a headless browser for script-rendered pages, and print the text.`,
	RunE: runScrape,
}

var (
	scrapeURL  string
	scrapeJSON bool
)

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeURL, "url", "u", "", "URL of the job posting")
	scrapeCmd.Flags().BoolVar(&scrapeJSON, "json", false, "Print the text with its metadata as JSON")

	_ = scrapeCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, _ []string) error {
	result, err := newScraper(appConfig, appLogger).Scrape(cmd.Context(), scrapeURL)
	if err != nil {
		return err
	}

	if scrapeJSON {
		return writeJSON(cmd.OutOrStdout(), "", result)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Text)
	return err
}
