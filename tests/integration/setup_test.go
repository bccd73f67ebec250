package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"finresolve/internal/cache"
	"finresolve/internal/handlers"
	"finresolve/internal/logger"
	"finresolve/internal/middleware"
	"finresolve/internal/models"
	"finresolve/internal/services"
	"finresolve/internal/store"
	syncpkg "finresolve/internal/sync"
	"finresolve/internal/validator"
)

const testFeedKey = "integration-feed-key"

// syncWindow is kept short so tests can wait out the debounce.
const syncWindow = 15 * time.Millisecond

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB       *gorm.DB
	Registry *syncpkg.Registry
	Router   *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Profile{},
		&models.SpendingEntry{},
		&models.SpendingSummary{},
		&models.SavingsGoal{},
		&models.Budget{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	profileStore := store.NewGormStore(db)
	profileCache, err := cache.NewSQLiteCache(":memory:")
	if err != nil {
		t.Fatalf("failed to open profile cache: %v", err)
	}
	registry := syncpkg.NewRegistry(profileStore, profileCache, syncWindow)
	t.Cleanup(registry.Close)

	// Services
	userService := services.NewUserService(db)
	budgetService := services.NewBudgetService(db)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	profileHandler := handlers.NewProfileHandler(registry)
	spendingHandler := handlers.NewSpendingHandler(registry, userService)
	goalHandler := handlers.NewGoalHandler(registry)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService, registry)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Statement feed webhook
	feed := v1.Group("/feed")
	feed.Use(middleware.FeedAuthMiddleware(testFeedKey))
	feed.POST("/statements", spendingHandler.ImportFeed)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/auth/me", authHandler.Me)

	profile := protected.Group("/profile")
	profile.GET("", profileHandler.GetProfile)
	profile.PUT("/income", profileHandler.UpdateIncome)
	profile.PUT("/name", profileHandler.UpdateName)
	profile.POST("/onboarding/complete", profileHandler.CompleteOnboarding)
	profile.POST("/reset", profileHandler.ResetProfile)

	spending := protected.Group("/spending")
	spending.POST("", spendingHandler.AddSpending)
	spending.GET("", spendingHandler.ListSpending)
	spending.POST("/import", spendingHandler.ImportStatement)
	spending.POST("/summaries", spendingHandler.AddSummary)
	spending.PUT("/summaries", spendingHandler.ReplaceSummaries)

	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.PATCH("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/progress", budgetHandler.GetBudgetProgress)

	return &testApp{DB: db, Registry: registry, Router: router}
}

// settle waits long enough for a debounced profile write to reach the store.
func settle() {
	time.Sleep(8 * syncWindow)
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// multipartRequest posts a multipart form with optional fields and a CSV file.
func (app *testApp) multipartRequest(path, token, apiKey string, fields map[string]string, fileContents string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	if fileContents != "" {
		fw, _ := w.CreateFormFile("file", "statement.csv")
		_, _ = io.Copy(fw, strings.NewReader(fileContents))
	}
	_ = w.Close()

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// decimalFromString parses a decimal literal, failing the test on bad input.
func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}
