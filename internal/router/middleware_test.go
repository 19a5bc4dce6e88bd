package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	if w2.Header().Get(requestIDHeader) == "" {
		t.Fatalf("generated request id should not be empty")
	}
}

func setupAuthMiddlewareTest(t *testing.T) (repository.AccountRepository, *models.Account, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:middleware_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Account{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	account := &models.Account{
		Address:      "0x0000000000000000000000000000000000000001",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Role:         "customer",
		Status:       "active",
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	return repository.NewAccountRepository(db), account, db
}

func signTestToken(t *testing.T, secret string, accountID uint, tokenVersion uint64, issuedAt time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"account_id":    accountID,
		"address":       "0x0000000000000000000000000000000000000001",
		"role":          "customer",
		"token_version": tokenVersion,
		"iat":           issuedAt.Unix(),
		"nbf":           issuedAt.Unix(),
		"exp":           issuedAt.Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return token
}

func performAuthRequest(t *testing.T, repo repository.AccountRepository, authorization string) *respEnvelope {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddleware("middleware-test-secret", repo))
	r.GET("/me", func(c *gin.Context) {
		accountID, _ := c.Get(accountIDContextKey)
		role, _ := c.Get(accountRoleContextKey)
		c.JSON(http.StatusOK, gin.H{"status_code": 0, "account_id": accountID, "role": role})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("http status want 200 got %d", w.Code)
	}
	var resp respEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return &resp
}

type respEnvelope struct {
	StatusCode int     `json:"status_code"`
	AccountID  float64 `json:"account_id"`
	Role       string  `json:"role"`
}

func TestJWTAuthMiddleware(t *testing.T) {
	repo, account, db := setupAuthMiddlewareTest(t)
	secret := "middleware-test-secret"

	token := signTestToken(t, secret, account.ID, 0, time.Now())
	resp := performAuthRequest(t, repo, "Bearer "+token)
	if resp.StatusCode != 0 {
		t.Fatalf("valid token should pass, got status_code %d", resp.StatusCode)
	}
	if uint(resp.AccountID) != account.ID || resp.Role != "customer" {
		t.Fatalf("unexpected auth context: %+v", resp)
	}

	// 缺认证头 / 格式错误 / 签名不符
	if resp := performAuthRequest(t, repo, ""); resp.StatusCode != 401 {
		t.Fatalf("missing header want 401 got %d", resp.StatusCode)
	}
	if resp := performAuthRequest(t, repo, token); resp.StatusCode != 401 {
		t.Fatalf("missing Bearer prefix want 401 got %d", resp.StatusCode)
	}
	forged := signTestToken(t, "other-secret", account.ID, 0, time.Now())
	if resp := performAuthRequest(t, repo, "Bearer "+forged); resp.StatusCode != 401 {
		t.Fatalf("forged token want 401 got %d", resp.StatusCode)
	}

	// Token 版本失配
	stale := signTestToken(t, secret, account.ID, 5, time.Now())
	if resp := performAuthRequest(t, repo, "Bearer "+stale); resp.StatusCode != 401 {
		t.Fatalf("stale token version want 401 got %d", resp.StatusCode)
	}

	// 停用账户
	if err := db.Model(&models.Account{}).Where("id = ?", account.ID).Update("status", "suspended").Error; err != nil {
		t.Fatalf("suspend account failed: %v", err)
	}
	if resp := performAuthRequest(t, repo, "Bearer "+token); resp.StatusCode != 401 {
		t.Fatalf("suspended account want 401 got %d", resp.StatusCode)
	}
}

func TestJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(JWTAuthMiddleware("", nil))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("status_code want 401 got %d", resp.StatusCode)
	}
}

func TestIsIssuedAfterInvalidBefore(t *testing.T) {
	now := time.Now()
	if !isIssuedAfterInvalidBefore(jwt.NewNumericDate(now), nil) {
		t.Fatalf("no invalid-before means always valid")
	}
	past := now.Add(-time.Hour)
	if isIssuedAfterInvalidBefore(jwt.NewNumericDate(past), &now) {
		t.Fatalf("token issued before cutoff must be invalid")
	}
	if !isIssuedAfterInvalidBefore(jwt.NewNumericDate(now), &past) {
		t.Fatalf("token issued after cutoff must be valid")
	}
	if isIssuedAfterInvalidBefore(nil, &now) {
		t.Fatalf("missing issued-at with cutoff must be invalid")
	}
	if !isIssuedAfterInvalidBeforeUnix(jwt.NewNumericDate(now), 0) {
		t.Fatalf("zero cutoff means always valid")
	}
	if isIssuedAfterInvalidBeforeUnix(jwt.NewNumericDate(past), now.Unix()) {
		t.Fatalf("unix cutoff should reject older token")
	}
}

func TestIsActiveAccountStatus(t *testing.T) {
	if !isActiveAccountStatus("active") || !isActiveAccountStatus(" Active ") {
		t.Fatalf("active variants should pass")
	}
	if isActiveAccountStatus("suspended") || isActiveAccountStatus("") {
		t.Fatalf("non-active statuses must fail")
	}
}
