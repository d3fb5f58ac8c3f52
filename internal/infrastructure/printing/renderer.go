package printing

import (
	"bytes"
	"context"
	"time"

	"github.com/gcs/crm/internal/domain/printing"
	"github.com/gcs/crm/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	HTML    string
	Page    printing.PageSetup
	Title   string        // document title when HTML is a fragment
	Timeout time.Duration // overrides the renderer default
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// PDFRenderer renders HTML documents to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeRendererDisabled = "RENDERER_DISABLED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// DisabledRenderer fails every render, so callers always serve the HTML fallback
type DisabledRenderer struct{}

// Render always returns a RENDERER_DISABLED error
func (DisabledRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	return nil, NewRenderError(ErrCodeRendererDisabled, "PDF rendering is disabled", nil)
}

// Close does nothing
func (DisabledRenderer) Close() error { return nil }

// NewRenderer returns a chromedp renderer, or a DisabledRenderer when printing is off
func NewRenderer(cfg config.PrintingConfig, logger *zap.Logger) (PDFRenderer, error) {
	if !cfg.Enabled {
		logger.Info("PDF rendering disabled, invoice PDFs fall back to HTML")
		return DisabledRenderer{}, nil
	}
	return NewChromedpRenderer(&ChromedpConfig{
		DefaultTimeout: cfg.Timeout,
		RemoteURL:      cfg.RemoteURL,
		ExecPath:       cfg.ChromePath,
		NoSandbox:      true,
		Logger:         logger,
	})
}

// estimatePageCount counts page objects in the PDF body
func estimatePageCount(pdfData []byte) int {
	count := bytes.Count(pdfData, []byte("/Type /Page")) - bytes.Count(pdfData, []byte("/Type /Pages"))
	return max(count, 1)
}

var (
	_ PDFRenderer = DisabledRenderer{}
	_ PDFRenderer = (*ChromedpRenderer)(nil)
)
