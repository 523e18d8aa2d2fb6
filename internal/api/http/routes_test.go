package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apihttp "github.com/nortvale/matchcore/internal/api/http"
	"github.com/nortvale/matchcore/internal/auth"
	"github.com/nortvale/matchcore/internal/config"
	"github.com/nortvale/matchcore/internal/eventbus"
	"github.com/nortvale/matchcore/internal/positions"
	"github.com/nortvale/matchcore/internal/registry"
)

const testJWTSecret = "test-secret"

// tokenFor issues a bearer token for userID signed with the test router's
// secret, so a test can rest an order from a second account.
func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: testJWTSecret, TokenDuration: time.Hour})
	token, err := jwtService.GenerateToken(userID, userID, "trader")
	require.NoError(t, err)
	return token
}

func newTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	reg := registry.New([]string{"BTCUSD"}, 100, logger)
	posStore := positions.New(logger)
	bus := eventbus.New(16)

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = testJWTSecret
	cfg.Auth.TokenDuration = 60
	cfg.Auth.Issuer = "matchcore-test"
	authService := auth.NewService(auth.ServiceParams{Logger: logger, Config: cfg})

	handlers := apihttp.NewHandlers(reg, posStore, bus, nil, nil, nil, logger)
	router := apihttp.NewRouter(handlers, authService, 1000, logger)

	loginBody, err := json.Marshal(auth.LoginRequest{Username: "trader", Password: "trader123"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(loginBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var loginResp auth.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	return router, loginResp.Token
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitOrderRequiresAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	body, _ := json.Marshal(apihttp.SubmitOrderRequest{Side: "buy", Type: "limit", Price: 100, Quantity: 1})
	req := httptest.NewRequest(http.MethodPost, "/symbols/BTCUSD/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitOrderAndMatch(t *testing.T) {
	router, token := newTestRouter(t)
	authed := func(req *http.Request) *http.Request {
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	sellBody, _ := json.Marshal(apihttp.SubmitOrderRequest{Side: "sell", Type: "limit", Price: 100, Quantity: 5})
	sellReq := authed(httptest.NewRequest(http.MethodPost, "/symbols/BTCUSD/orders", bytes.NewReader(sellBody)))
	// The maker is a second account, so the trader's buy is not netted
	// against its own sell leg in the position store.
	sellReq.Header.Set("Authorization", "Bearer "+tokenFor(t, "maker-001"))
	sellRec := httptest.NewRecorder()
	router.ServeHTTP(sellRec, sellReq)
	require.Equal(t, http.StatusCreated, sellRec.Code)

	buyBody, _ := json.Marshal(apihttp.SubmitOrderRequest{Side: "buy", Type: "limit", Price: 100, Quantity: 3})
	buyReq := authed(httptest.NewRequest(http.MethodPost, "/symbols/BTCUSD/orders", bytes.NewReader(buyBody)))
	buyRec := httptest.NewRecorder()
	router.ServeHTTP(buyRec, buyReq)
	require.Equal(t, http.StatusCreated, buyRec.Code)

	var buyResp apihttp.SubmitOrderResponse
	require.NoError(t, json.Unmarshal(buyRec.Body.Bytes(), &buyResp))
	require.Len(t, buyResp.Trades, 1)
	assert.EqualValues(t, 3, buyResp.Trades[0].Quantity)
	assert.Equal(t, "Filled", buyResp.Order.Status)

	depthReq := authed(httptest.NewRequest(http.MethodGet, "/symbols/BTCUSD/depth", nil))
	depthRec := httptest.NewRecorder()
	router.ServeHTTP(depthRec, depthReq)
	require.Equal(t, http.StatusOK, depthRec.Code)

	var depth apihttp.DepthResponse
	require.NoError(t, json.Unmarshal(depthRec.Body.Bytes(), &depth))
	require.Len(t, depth.Asks, 1)
	assert.EqualValues(t, 2, depth.Asks[0].Quantity)

	posReq := authed(httptest.NewRequest(http.MethodGet, "/positions", nil))
	posRec := httptest.NewRecorder()
	router.ServeHTTP(posRec, posReq)
	require.Equal(t, http.StatusOK, posRec.Code)

	var positionsResp []apihttp.PositionResponse
	require.NoError(t, json.Unmarshal(posRec.Body.Bytes(), &positionsResp))
	require.Len(t, positionsResp, 1)
	assert.EqualValues(t, 3, positionsResp[0].Quantity)
}

func TestSubmitOrderNormalizesSymbolForPositions(t *testing.T) {
	router, token := newTestRouter(t)
	authed := func(req *http.Request) *http.Request {
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	sellBody, _ := json.Marshal(apihttp.SubmitOrderRequest{Side: "sell", Type: "limit", Price: 100, Quantity: 5})
	sellReq := authed(httptest.NewRequest(http.MethodPost, "/symbols/btcusd/orders", bytes.NewReader(sellBody)))
	// The maker is a second account, so the trader's buy is not netted
	// against its own sell leg in the position store.
	sellReq.Header.Set("Authorization", "Bearer "+tokenFor(t, "maker-001"))
	sellRec := httptest.NewRecorder()
	router.ServeHTTP(sellRec, sellReq)
	require.Equal(t, http.StatusCreated, sellRec.Code)

	buyBody, _ := json.Marshal(apihttp.SubmitOrderRequest{Side: "buy", Type: "limit", Price: 100, Quantity: 3})
	buyReq := authed(httptest.NewRequest(http.MethodPost, "/symbols/btcusd/orders", bytes.NewReader(buyBody)))
	buyRec := httptest.NewRecorder()
	router.ServeHTTP(buyRec, buyReq)
	require.Equal(t, http.StatusCreated, buyRec.Code)

	posReq := authed(httptest.NewRequest(http.MethodGet, "/positions?symbol=BTCUSD", nil))
	posRec := httptest.NewRecorder()
	router.ServeHTTP(posRec, posReq)
	require.Equal(t, http.StatusOK, posRec.Code)

	var positionsResp []apihttp.PositionResponse
	require.NoError(t, json.Unmarshal(posRec.Body.Bytes(), &positionsResp))
	require.Len(t, positionsResp, 1)
	assert.Equal(t, "BTCUSD", positionsResp[0].Symbol)
	assert.EqualValues(t, 3, positionsResp[0].Quantity)
}

func TestSubmitOrderAllowsZeroPriceLimit(t *testing.T) {
	router, token := newTestRouter(t)
	body, _ := json.Marshal(apihttp.SubmitOrderRequest{Side: "sell", Type: "limit", Price: 0, Quantity: 1})
	req := httptest.NewRequest(http.MethodPost, "/symbols/BTCUSD/orders", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestUnknownSymbolReturns404(t *testing.T) {
	router, token := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/symbols/NOPE/depth", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
