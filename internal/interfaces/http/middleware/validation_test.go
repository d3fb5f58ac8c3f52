package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gcs/crm/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invoiceForm struct {
	ClientID string `json:"client_id" form:"client_id" binding:"required,uuid"`
	Status   string `json:"status" form:"status" binding:"omitempty,invoice_status"`
	TaxRate  string `json:"tax_rate" form:"tax_rate" binding:"omitempty,decimal_string"`
	Issued   string `json:"date_issued" form:"date_issued" binding:"omitempty,datetime=2006-01-02"`
}

func TestSetupValidator(t *testing.T) {
	require.NoError(t, SetupValidator())
	require.NoError(t, SetupValidator())
}

func TestCustomRules(t *testing.T) {
	require.NoError(t, SetupValidator())

	tests := []struct {
		name       string
		form       invoiceForm
		wantFields []string
	}{
		{"valid", invoiceForm{ClientID: "2b6c5cd6-7f0e-4d1f-9c51-7d0f3a1e8a11", Status: "Sent", TaxRate: "16.5", Issued: "2025-03-14"}, nil},
		{"blank optional fields", invoiceForm{ClientID: "2b6c5cd6-7f0e-4d1f-9c51-7d0f3a1e8a11"}, nil},
		{"bad status", invoiceForm{ClientID: "2b6c5cd6-7f0e-4d1f-9c51-7d0f3a1e8a11", Status: "Paid"}, []string{"status"}},
		{"bad tax rate", invoiceForm{ClientID: "2b6c5cd6-7f0e-4d1f-9c51-7d0f3a1e8a11", TaxRate: "16%"}, []string{"tax_rate"}},
		{"exponent tax rate", invoiceForm{ClientID: "2b6c5cd6-7f0e-4d1f-9c51-7d0f3a1e8a11", TaxRate: "1e9"}, []string{"tax_rate"}},
		{"huge exponent tax rate", invoiceForm{ClientID: "2b6c5cd6-7f0e-4d1f-9c51-7d0f3a1e8a11", TaxRate: "1e100000"}, []string{"tax_rate"}},
		{"over-scale tax rate", invoiceForm{ClientID: "2b6c5cd6-7f0e-4d1f-9c51-7d0f3a1e8a11", TaxRate: "16.12345"}, []string{"tax_rate"}},
		{"bad date", invoiceForm{ClientID: "2b6c5cd6-7f0e-4d1f-9c51-7d0f3a1e8a11", Issued: "14/03/2025"}, []string{"date_issued"}},
		{"missing client", invoiceForm{}, []string{"client_id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(tt.form)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var fields []string
			for _, d := range ValidationDetails(err) {
				fields = append(fields, d.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestValidationMessages(t *testing.T) {
	require.NoError(t, SetupValidator())

	err := binding.Validator.ValidateStruct(invoiceForm{ClientID: "nope", Status: "Paid", TaxRate: "x"})
	require.Error(t, err)

	messages := map[string]string{}
	for _, d := range ValidationDetails(err) {
		messages[d.Field] = d.Message
	}
	assert.Equal(t, "Invalid UUID format", messages["client_id"])
	assert.Equal(t, "Must be one of: Draft, Sent, Accepted, Rejected, Expired", messages["status"])
	assert.Equal(t, "Must be a decimal number with at most 14 integer digits and 4 decimal places", messages["tax_rate"])
}

func TestValidationDetails_NonFieldError(t *testing.T) {
	details := ValidationDetails(errors.New("unexpected EOF"))
	require.Len(t, details, 1)
	assert.Equal(t, "body", details[0].Field)
}

func TestFormatValidationErrors_FormBinding(t *testing.T) {
	gin.SetMode(gin.TestMode)
	require.NoError(t, SetupValidator())

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var form invoiceForm
		if err := c.ShouldBind(&form); err != nil {
			c.JSON(http.StatusBadRequest, FormatValidationErrors(err, "req-1"))
			return
		}
		c.Status(http.StatusOK)
	})

	body := url.Values{"client_id": {"2b6c5cd6-7f0e-4d1f-9c51-7d0f3a1e8a11"}, "status": {"Unknown"}}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeValidation)
	assert.Contains(t, w.Body.String(), `"field":"status"`)
	assert.Contains(t, w.Body.String(), `"request_id":"req-1"`)
}
