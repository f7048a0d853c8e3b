package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jonathan/jobflow/internal/analysis"
	"github.com/jonathan/jobflow/internal/ingestion"
	"github.com/jonathan/jobflow/internal/types"
)

// uploadField is the multipart field carrying a resume document.
const uploadField = "file"

// AnalyzeResumeRequest represents the request body for /analyze_resume
type AnalyzeResumeRequest struct {
	Resume         string `json:"resume" validate:"required,max=200000"`
	JobDescription string `json:"job_description,omitempty" validate:"required_without=JobURL,max=200000"`
	JobURL         string `json:"job_url,omitempty" validate:"omitempty,url,max=2048"`
}

// AnalyzeResumeFileForm holds the non-file fields of /analyze_resume_file
type AnalyzeResumeFileForm struct {
	JobDescription string `form:"job_description" validate:"required_without=JobURL,max=200000"`
	JobURL         string `form:"job_url" validate:"omitempty,url,max=2048"`
}

// URLRequest represents the request body for /scrape_job and /scrape_and_research
type URLRequest struct {
	URL string `json:"url" validate:"required,url,max=2048"`
}

// ResearchCompanyRequest represents the request body for /research_company
type ResearchCompanyRequest struct {
	JobDescription string `json:"job_description" validate:"required,max=200000"`
}

// UploadResumeResponse represents the response for /upload_resume
type UploadResumeResponse struct {
	ResumeText string             `json:"resume_text"`
	FileType   ingestion.FileType `json:"file_type"`
	Characters int                `json:"characters"`
}

// ScrapeJobResponse represents the response for /scrape_job
type ScrapeJobResponse struct {
	JobDescription string `json:"job_description"`
	URL            string `json:"url"`
	Platform       string `json:"platform,omitempty"`
	Company        string `json:"company_name,omitempty"`
	UsedBrowser    bool   `json:"used_browser"`
}

// ResearchCompanyResponse represents the response for /research_company. The
// profile sections sit at the top level of the object.
type ResearchCompanyResponse struct {
	types.CompanyProfile
	Company string                 `json:"company_name,omitempty"`
	Sources []types.ResearchSource `json:"sources,omitempty"`
}

func newScrapeJobResponse(res *ingestion.ScrapeResult) ScrapeJobResponse {
	return ScrapeJobResponse{
		JobDescription: res.Text,
		URL:            res.URL,
		Platform:       res.Platform,
		Company:        res.Company,
		UsedBrowser:    res.UsedBrowser,
	}
}

func newResearchCompanyResponse(report *analysis.CompanyReport) ResearchCompanyResponse {
	return ResearchCompanyResponse{
		CompanyProfile: report.Profile,
		Company:        report.Company,
		Sources:        report.Sources,
	}
}

// handleAnalyzeResume scores typed resume text against a job description or URL
func (s *Server) handleAnalyzeResume(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeResumeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), analysis.AnalyzeInput{
		ResumeText:     req.Resume,
		JobDescription: req.JobDescription,
		JobURL:         req.JobURL,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleAnalyzeResumeFile scores an uploaded resume document
func (s *Server) handleAnalyzeResumeFile(w http.ResponseWriter, r *http.Request) {
	resume, _, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	form := AnalyzeResumeFileForm{
		JobDescription: r.FormValue("job_description"),
		JobURL:         r.FormValue("job_url"),
	}
	if err := s.validator.Struct(form); err != nil {
		s.writeError(w, r, newValidationError(err))
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), analysis.AnalyzeInput{
		ResumeText:     resume,
		JobDescription: form.JobDescription,
		JobURL:         form.JobURL,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleUploadResume extracts text from an uploaded resume document
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	text, fileType, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, UploadResumeResponse{
		ResumeText: text,
		FileType:   fileType,
		Characters: utf8.RuneCountInString(text),
	})
}

// handleScrapeJob returns the cleaned text of a job posting
func (s *Server) handleScrapeJob(w http.ResponseWriter, r *http.Request) {
	var req URLRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.analyzer.ScrapeJob(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newScrapeJobResponse(res))
}

// handleResearchCompany builds a company profile from a job description
func (s *Server) handleResearchCompany(w http.ResponseWriter, r *http.Request) {
	var req ResearchCompanyRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := s.analyzer.ResearchCompany(r.Context(), req.JobDescription)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newResearchCompanyResponse(report))
}

// handleScrapeAndResearch scrapes a posting and profiles its company
func (s *Server) handleScrapeAndResearch(w http.ResponseWriter, r *http.Request) {
	var req URLRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.analyzer.ScrapeAndResearch(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleScrapeAndResearchStream runs scrape and research as a Server-Sent Events
// stream: a "job" event, a "company" event, then "complete" or "error".
func (s *Server) handleScrapeAndResearchStream(w http.ResponseWriter, r *http.Request) {
	var req URLRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	ctx := r.Context()

	scraped, err := s.analyzer.ScrapeJob(ctx, req.URL)
	if err != nil {
		sse.WriteError(s.describeError(r, err))
		return
	}
	if err := sse.WriteEvent(EventJob, newScrapeJobResponse(scraped)); err != nil {
		s.logger.Debug("client went away during stream", zap.Error(err))
		return
	}

	report, err := s.analyzer.ResearchCompany(ctx, scraped.Text)
	if err != nil {
		sse.WriteError(s.describeError(r, err))
		return
	}
	if err := sse.WriteEvent(EventCompany, newResearchCompanyResponse(report)); err != nil {
		s.logger.Debug("client went away during stream", zap.Error(err))
		return
	}
	sse.WriteComplete()
}

// decodeJSON decodes and validates a JSON request body into dst.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := s.limitBody(w, r); err != nil {
		return err
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if err := s.validator.Struct(dst); err != nil {
		return newValidationError(err)
	}
	return nil
}

// readUpload reads the multipart resume document and returns its cleaned text.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, ingestion.FileType, error) {
	if err := s.limitBody(w, r); err != nil {
		return "", "", err
	}
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return "", "", err
		}
		return "", "", &ErrValidation{Field: uploadField, Message: "multipart form data is required"}
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", "", &ErrValidation{Field: uploadField, Message: "is required"}
		}
		return "", "", fmt.Errorf("read upload: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", "", fmt.Errorf("read upload: %w", err)
	}

	fileType, err := ingestion.DetectFileType(data, header.Filename)
	if err != nil {
		return "", "", err
	}
	text, err := ingestion.ExtractResumeText(data, fileType)
	if err != nil {
		return "", "", err
	}

	s.logger.Debug("resume uploaded",
		zap.String("filename", header.Filename),
		zap.String("file_type", string(fileType)),
		zap.Int("bytes", len(data)),
		zap.Int("chars", utf8.RuneCountInString(text)))
	return text, fileType, nil
}

// limitBody rejects bodies that declare more than maxUploadBytes and caps the rest.
func (s *Server) limitBody(w http.ResponseWriter, r *http.Request) error {
	if r.ContentLength > s.maxUploadBytes {
		return &http.MaxBytesError{Limit: s.maxUploadBytes}
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	return nil
}
