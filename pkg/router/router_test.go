package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lumen-chat/backend/internal/models"
	"lumen-chat/backend/pkg/config"
	"lumen-chat/backend/pkg/di"
	"lumen-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupRouter(t *testing.T, ollamaURL string) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Thread{}, &models.Message{}))

	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.Security.RateLimit = 1000
	cfg.Security.RateLimitBurst = 1000
	cfg.Ollama.BaseURL = ollamaURL
	cfg.Ollama.Timeout = 5 * time.Second

	log := logger.New(logger.Config{Level: "error"})
	container := di.New(db, cfg, log)
	return New(container)
}

func doJSON(t *testing.T, r *Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestHealthEndpoint(t *testing.T) {
	r := setupRouter(t, "http://localhost:0")

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	r := setupRouter(t, "http://localhost:0")

	w := doJSON(t, r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestThreadLifecycleOverHTTP(t *testing.T) {
	r := setupRouter(t, "http://localhost:0")

	w := doJSON(t, r, http.MethodPost, "/api/v1/threads", gin.H{
		"title":         "project notes",
		"system_prompt": "be brief",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Thread
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)

	w = doJSON(t, r, http.MethodGet, "/api/v1/threads", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "project notes")

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/v1/threads/%d/title", created.ID), gin.H{"title": "renamed"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/threads/%d/archive", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/threads", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "renamed")

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/threads/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCreateThreadValidation(t *testing.T) {
	r := setupRouter(t, "http://localhost:0")

	w := doJSON(t, r, http.MethodPost, "/api/v1/threads", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestThreadMessagesUnknownThread(t *testing.T) {
	r := setupRouter(t, "http://localhost:0")

	w := doJSON(t, r, http.MethodGet, "/api/v1/threads/424242/messages", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "THREAD_NOT_FOUND", errorCode(t, w))
}

func TestThreadMessagesBadID(t *testing.T) {
	r := setupRouter(t, "http://localhost:0")

	w := doJSON(t, r, http.MethodGet, "/api/v1/threads/abc/messages", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestSendMessageEndToEnd(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/api/chat", req.URL.Path)
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Write([]byte(`{"message":{"role":"assistant","content":"hello from the model"},"done":false}` + "\n"))
		w.Write([]byte(`{"message":{"role":"assistant","content":""},"done":true}` + "\n"))
	}))
	defer backend.Close()

	r := setupRouter(t, backend.URL)

	w := doJSON(t, r, http.MethodPost, "/api/v1/threads", gin.H{"title": "chat"})
	require.Equal(t, http.StatusCreated, w.Code)
	var thread models.Thread
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &thread))

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/threads/%d/messages", thread.ID), gin.H{
		"content": "hi",
		"model":   "llama3.2",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var reply models.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Equal(t, models.RoleAssistant, reply.Role)
	assert.Equal(t, "hello from the model", reply.Content)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/threads/%d/messages", thread.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"hi"`)
	assert.Contains(t, w.Body.String(), "hello from the model")
}

func TestModelsEndpoint(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/api/tags", req.URL.Path)
		json.NewEncoder(w).Encode(gin.H{"models": []gin.H{{"name": "llama3.2:latest"}}})
	}))
	defer backend.Close()

	r := setupRouter(t, backend.URL)

	w := doJSON(t, r, http.MethodGet, "/api/v1/models", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "llama3.2:latest")
}
