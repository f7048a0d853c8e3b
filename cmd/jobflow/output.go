package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobflow/internal/ingestion"
	"github.com/jonathan/jobflow/internal/schemas"
)

// Output formats accepted by --format.
const (
	formatJSON = "json"
	formatText = "text"
)

// addFormatFlag registers --format on cmd.
func addFormatFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "format", "f", formatJSON, "Output format: json or text")
}

// checkFormat rejects unknown --format values before any work is done.
func checkFormat(format string) error {
	switch format {
	case formatJSON, formatText:
		return nil
	default:
		return fmt.Errorf("unknown output format %q: use json or text", format)
	}
}

// writeJSON prints v as indented JSON. When schema is set the document is
// checked against it first so the CLI never prints a malformed payload.
func writeJSON(w io.Writer, schema string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if schema != "" {
		if err := schemas.Validate(schema, data); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// readJobFile loads a job description from a text, PDF or DOCX file.
func readJobFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	text, _, err := ingestion.IngestFromFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read job description: %w", err)
	}
	return text, nil
}
