package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

const invoiceTemplateName = "proforma_invoice.html"

// TemplateEngine renders invoice documents with html/template
type TemplateEngine struct {
	tmpl        *template.Template
	companyName string
	now         func() time.Time
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithCompanyName sets the issuer name printed in the document header
func WithCompanyName(name string) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.companyName = name
	}
}

// WithClock replaces the clock used for the generation timestamp
func WithClock(now func() time.Time) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.now = now
	}
}

// NewTemplateEngine parses the embedded invoice template
func NewTemplateEngine(opts ...TemplateEngineOption) (*TemplateEngine, error) {
	e := &TemplateEngine{
		companyName: "GCS",
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	tmpl, err := template.New(invoiceTemplateName).Funcs(FuncMap()).ParseFS(templateFS, "templates/"+invoiceTemplateName)
	if err != nil {
		return nil, fmt.Errorf("failed to parse invoice template: %w", err)
	}
	e.tmpl = tmpl
	return e, nil
}

// RenderInvoice renders the invoice as a complete HTML document
func (e *TemplateEngine) RenderInvoice(doc *InvoiceDocument) (string, error) {
	if doc == nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "invoice document is nil", nil)
	}
	if doc.CompanyName == "" {
		doc.CompanyName = e.companyName
	}
	if doc.GeneratedAt.IsZero() {
		doc.GeneratedAt = e.now()
	}

	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, doc); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute invoice template", err)
	}
	return buf.String(), nil
}

// FuncMap returns the template helpers available to invoice templates
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatMoney":    formatMoney,
		"formatQuantity": formatQuantity,
		"formatPercent":  formatPercent,
		"formatDateTime": formatDateTime,
		"title":          titleCase,
		"upper":          strings.ToUpper,
		"lower":          strings.ToLower,
		"inc":            func(i int) int { return i + 1 },
		"default":        defaultString,
	}
}

// formatMoney formats an amount with thousand separators and two decimals.
// Example: 1234.5 -> "1,234.50"
func formatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	intPart, decPart, _ := strings.Cut(d.StringFixed(2), ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteRune(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + "." + decPart
}

// formatQuantity drops trailing zeros: 2.000 -> "2", 1.50 -> "1.5"
func formatQuantity(d decimal.Decimal) string {
	return d.String()
}

// formatPercent renders a tax rate given in percent: 16 -> "16%"
func formatPercent(d decimal.Decimal) string {
	return d.String() + "%"
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func defaultString(def, val string) string {
	if strings.TrimSpace(val) == "" {
		return def
	}
	return val
}
