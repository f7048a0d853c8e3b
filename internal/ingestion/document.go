package ingestion

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// FileType is a supported resume document format.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
	FileTypeText FileType = "txt"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeZip  = "application/zip"
	mimeText = "text/plain"
)

// DetectFileType sniffs the content first and falls back to the filename
// extension when the content is ambiguous (a DOCX is also a zip archive).
func DetectFileType(data []byte, filename string) (FileType, error) {
	if len(data) == 0 {
		return "", ErrEmptyDocument
	}

	ext := strings.ToLower(filepath.Ext(filename))
	detected := mimetype.Detect(data)

	switch {
	case detected.Is(mimePDF):
		return FileTypePDF, nil
	case detected.Is(mimeDOCX):
		return FileTypeDOCX, nil
	case detected.Is(mimeZip) && ext == ".docx":
		return FileTypeDOCX, nil
	case detected.Is(mimeText):
		if ext == ".pdf" || ext == ".docx" {
			return "", fmt.Errorf("%w: %s content is not a valid %s", ErrUnsupportedFileType, detected.String(), ext)
		}
		return FileTypeText, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, detected.String())
}

// ExtractResumeText converts a document to cleaned text.
func ExtractResumeText(data []byte, fileType FileType) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyDocument
	}

	var (
		text string
		err  error
	)
	switch fileType {
	case FileTypePDF:
		text, err = ExtractPDF(data)
	case FileTypeDOCX:
		text, err = ExtractDOCX(data)
	case FileTypeText:
		text, err = extractPlainText(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, fileType)
	}
	if err != nil {
		return "", err
	}

	text = CleanText(text)
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// ExtractPDF returns the plain text of every page, one page per paragraph.
func ExtractPDF(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: pdf: %v", ErrDocumentUnreadable, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: pdf: %w", ErrDocumentUnreadable, err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: pdf page %d: %w", ErrDocumentUnreadable, i, err)
		}
		sb.WriteString(pageText)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br\s*/>|<w:cr\s*/>`)
	docxTab          = regexp.MustCompile(`<w:tab\s*/>`)
	xmlTag           = regexp.MustCompile(`<[^>]*>`)
)

// ExtractDOCX returns the body text of a Word document, one paragraph per line.
func ExtractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: docx: %w", ErrDocumentUnreadable, err)
	}
	defer func() { _ = doc.Close() }()

	return docxXMLToText(doc.Editable().GetContent()), nil
}

// docxXMLToText flattens WordprocessingML into plain text.
func docxXMLToText(content string) string {
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, "\t")
	content = xmlTag.ReplaceAllString(content, "")
	return html.UnescapeString(content)
}

func extractPlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: text is not valid UTF-8", ErrUnsupportedFileType)
	}
	return string(bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))), nil
}
