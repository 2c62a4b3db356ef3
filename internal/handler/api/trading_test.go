package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantdesk/internal/domain/models"
	xhttp "quantdesk/pkg/http"
)

func bindStartRequest(t *testing.T, body string) *models.StartTradingRequest {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/trading/start", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	out := &models.StartTradingRequest{}
	verr := xhttp.ReadAndValidateRequest(c, out)
	require.Nil(t, verr)
	return out
}

func TestStartTradingRequestKeepsExplicitUseMLFalse(t *testing.T) {
	req := bindStartRequest(t, `{"use_ml": false, "use_algo": true, "symbols": ["BTC/USDT"]}`)

	require.NotNil(t, req.UseML)
	assert.False(t, *req.UseML, "explicit false must survive binding and defaults")
	assert.False(t, req.UseML == nil || *req.UseML, "algo-only session must resolve with ML off")
}

func TestStartTradingRequestDefaultsUseMLWhenOmitted(t *testing.T) {
	req := bindStartRequest(t, `{"symbols": ["BTC/USDT"]}`)

	assert.Nil(t, req.UseML)
	assert.True(t, req.UseML == nil || *req.UseML, "omitted field resolves to ML on")
	assert.Equal(t, 60, req.Interval, "interval default still applies")
}
