package printing

import (
	"context"
	"testing"

	"github.com/gcs/crm/internal/domain/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChromedpRenderer_Defaults(t *testing.T) {
	r, err := NewChromedpRenderer(nil)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, defaultChromeTimeout, r.config.DefaultTimeout)
	assert.Equal(t, defaultScale, r.config.Scale)
	assert.NotNil(t, r.allocCtx)
}

func TestChromedpRenderer_RejectsInvalidRequests(t *testing.T) {
	r, err := NewChromedpRenderer(&ChromedpConfig{})
	require.NoError(t, err)
	defer r.Close()

	tests := []struct {
		name string
		req  *RenderRequest
		code string
	}{
		{name: "nil request", req: nil, code: ErrCodeInvalidHTML},
		{name: "blank html", req: &RenderRequest{HTML: "  ", Page: printing.DefaultPageSetup()}, code: ErrCodeInvalidHTML},
		{name: "bad paper", req: &RenderRequest{HTML: "<p>x</p>", Page: printing.PageSetup{PaperSize: "B5"}}, code: ErrCodeInvalidPaperSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Render(context.Background(), tt.req)
			var renderErr *RenderError
			require.ErrorAs(t, err, &renderErr)
			assert.Equal(t, tt.code, renderErr.Code)
		})
	}
}

func TestBuildPrintParams(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{Scale: 1.0}}

	params := r.buildPrintParams(printing.DefaultPageSetup())
	assert.InDelta(t, mmToInches(210), params.paperWidth, 0.001)
	assert.InDelta(t, mmToInches(297), params.paperHeight, 0.001)
	assert.InDelta(t, mmToInches(15), params.marginTop, 0.001)
	assert.False(t, params.landscape)

	setup, err := printing.NewPageSetup("LETTER", true)
	require.NoError(t, err)
	params = r.buildPrintParams(setup)
	assert.InDelta(t, 8.5, params.paperWidth, 0.05)
	assert.InDelta(t, 11, params.paperHeight, 0.05)
	assert.True(t, params.landscape)
}

func TestBuildCompleteHTML(t *testing.T) {
	full := "<!DOCTYPE html><html><body>x</body></html>"
	assert.Equal(t, full, buildCompleteHTML(&RenderRequest{HTML: full}))

	wrapped := buildCompleteHTML(&RenderRequest{HTML: "<p>x</p>", Title: "A & B"})
	assert.Contains(t, wrapped, "<title>A &amp; B</title>")
	assert.Contains(t, wrapped, "<body><p>x</p></body>")
}
