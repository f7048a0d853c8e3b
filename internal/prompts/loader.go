// Package prompts provides a loader for externalized LLM prompt templates.
// Prompts are stored as JSON files and embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// Prompt files and keys used by the analysis service.
const (
	AnalysisFile     = "analysis.json"
	MatchResumeKey   = "match-resume"
	ResearchFile     = "research.json"
	ResearchCompany  = "research-company"
	placeholderStart = "{{."
	placeholderEnd   = "}}"
)

var (
	cache   = make(map[string]map[string]string)
	cacheMu sync.RWMutex
)

// Get retrieves a prompt by filename and key.
func Get(filename, key string) (string, error) {
	prompts, err := loadFile(filename)
	if err != nil {
		return "", err
	}

	prompt, exists := prompts[key]
	if !exists {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return prompt, nil
}

// MustGet retrieves a prompt by filename and key, panicking if not found.
// The templates are embedded, so a failure here is a build defect.
func MustGet(filename, key string) string {
	prompt, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return prompt
}

// Format replaces {{.Key}} placeholders with values from data.
// Placeholders without a value are left untouched. Substituted values are not
// scanned again, so resume or job text containing "{{." cannot inject a placeholder.
func Format(template string, data map[string]string) string {
	var sb strings.Builder
	sb.Grow(len(template))

	rest := template
	for {
		start := strings.Index(rest, placeholderStart)
		if start < 0 {
			sb.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], placeholderEnd)
		if end < 0 {
			sb.WriteString(rest)
			break
		}
		end += start

		key := rest[start+len(placeholderStart) : end]
		sb.WriteString(rest[:start])
		if value, ok := data[key]; ok {
			sb.WriteString(value)
		} else {
			sb.WriteString(rest[start : end+len(placeholderEnd)])
		}
		rest = rest[end+len(placeholderEnd):]
	}
	return sb.String()
}

// Placeholders lists the distinct placeholder keys in template, in order of first use.
func Placeholders(template string) []string {
	var keys []string
	seen := make(map[string]bool)

	rest := template
	for {
		start := strings.Index(rest, placeholderStart)
		if start < 0 {
			return keys
		}
		end := strings.Index(rest[start:], placeholderEnd)
		if end < 0 {
			return keys
		}
		key := rest[start+len(placeholderStart) : start+end]
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		rest = rest[start+end+len(placeholderEnd):]
	}
}

func loadFile(filename string) (map[string]string, error) {
	cacheMu.RLock()
	if prompts, exists := cache[filename]; exists {
		cacheMu.RUnlock()
		return prompts, nil
	}
	cacheMu.RUnlock()

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	var prompts map[string]string
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	cacheMu.Lock()
	cache[filename] = prompts
	cacheMu.Unlock()

	return prompts, nil
}
