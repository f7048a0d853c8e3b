package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	innerWhitespace = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	excessiveBlanks = regexp.MustCompile(`\n{3,}`)
)

// CleanText cleans and normalizes text content while preserving structure:
// line endings become LF, runs of spaces collapse, headings and bullets keep their
// markers, blank-line runs shrink to one blank line, and the result is trimmed.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\x00", "")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := strings.Join(lines, "\n")
	result = excessiveBlanks.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine trims a single line and collapses inner spacing. Indentation is kept
// except in front of markdown headings.
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}

	content := innerWhitespace.ReplaceAllString(trimmed, " ")
	if strings.HasPrefix(trimmed, "#") {
		return content
	}

	if indent := len(line) - len(trimmed); indent > 0 {
		return strings.Repeat(" ", indent) + content
	}
	return content
}

// IngestFromFile reads a resume or job description from disk. PDF and DOCX files
// are converted to text; anything else must be plain text.
func IngestFromFile(path string) (string, FileType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", fmt.Errorf("file not found: %w", err)
		}
		return "", "", fmt.Errorf("failed to read file: %w", err)
	}

	fileType, err := DetectFileType(data, filepath.Base(path))
	if err != nil {
		return "", "", err
	}

	text, err := ExtractResumeText(data, fileType)
	if err != nil {
		return "", fileType, err
	}
	return text, fileType, nil
}
