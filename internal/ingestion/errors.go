package ingestion

import "errors"

var (
	// ErrInvalidURL is returned when URL is malformed
	ErrInvalidURL = errors.New("invalid URL")
	// ErrHTTPRequestFailed is returned when HTTP request fails
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrContentExtractionFailed is returned when no usable text could be extracted from a page
	ErrContentExtractionFailed = errors.New("content extraction failed")
	// ErrUnsupportedFileType is returned for uploads that are not PDF, DOCX or plain text
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrEmptyDocument is returned when a document is empty or yields no text
	ErrEmptyDocument = errors.New("document contains no text")
	// ErrDocumentUnreadable is returned when a PDF or DOCX cannot be parsed
	ErrDocumentUnreadable = errors.New("document could not be read")
)
