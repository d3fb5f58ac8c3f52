package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/gcs/crm/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func swaggerRouter(cfg config.SwaggerConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})
	return router
}

func requestFrom(router *gin.Engine, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestSwaggerProtection(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.SwaggerConfig
		remote string
		want   int
	}{
		{"disabled", config.SwaggerConfig{Enabled: false}, "127.0.0.1:1234", http.StatusNotFound},
		{"no restrictions", config.SwaggerConfig{Enabled: true}, "203.0.113.7:1234", http.StatusOK},
		{"single ip allowed", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.5"}}, "10.0.0.5:1234", http.StatusOK},
		{"single ip denied", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.5"}}, "10.0.0.6:1234", http.StatusForbidden},
		{"cidr allowed", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.0.0/16"}}, "192.168.44.2:1234", http.StatusOK},
		{"cidr denied", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.0.0/16"}}, "172.16.0.1:1234", http.StatusForbidden},
		{"garbage entries deny all", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"not-an-ip"}}, "127.0.0.1:1234", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, requestFrom(swaggerRouter(tt.cfg), tt.remote))
		})
	}
}

func TestIsIPAllowed(t *testing.T) {
	prefixes := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("::1/128"),
	}

	assert.True(t, isIPAllowed("10.1.2.3", prefixes))
	assert.True(t, isIPAllowed("::1", prefixes))
	assert.True(t, isIPAllowed("::ffff:10.1.2.3", prefixes))
	assert.False(t, isIPAllowed("11.0.0.1", prefixes))
	assert.False(t, isIPAllowed("", prefixes))
}
