package server_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	googleauth "medreport-backend/internal/auth"
	"medreport-backend/internal/extract/extracttest"
	"medreport-backend/internal/health"
	"medreport-backend/internal/llm"
	"medreport-backend/internal/llm/ollama"
	"medreport-backend/internal/reports"
	"medreport-backend/internal/shared/auth"
	"medreport-backend/internal/shared/config"
	"medreport-backend/internal/shared/server"
	"medreport-backend/internal/users"
)

// fakeOllama scripts the analysis backend: a classify verdict for chat calls
// whose prompt carries the classification question, an extraction record for
// the rest, and a catalog for health probes.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"models": []map[string]string{{"name": "mistral:latest"}},
			})
		case "/api/chat":
			var req struct {
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			content := `{
				"patient": {"nom": "Jean Dupont", "age": 45, "sexe": "M"},
				"diagnostic": ["grippe"],
				"symptomes": ["fievre"],
				"traitements": ["paracetamol"],
				"examens": [],
				"resume_medical": "Syndrome grippal sans gravite.",
				"medecin": "Dr Martin",
				"date_consultation": "2025-01-15",
				"observations": ""
			}`
			for _, m := range req.Messages {
				if strings.Contains(m.Content, "is_medical_report") {
					content = `{"is_medical_report": true, "confidence": 95, "reason": "clinical content"}`
					break
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"message": map[string]string{"role": "assistant", "content": content},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func newApp(t *testing.T, ollamaURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Env:             "test",
		CORSAllowOrigin: []string{"http://localhost:5173"},
	}
	codec, err := auth.NewCodec("e2e-secret", time.Hour, 24*time.Hour, cfg.Env)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	llmClient, err := ollama.NewClient(ollamaURL, "mistral", 5*time.Second, llm.RetryPolicy{MaxAttempts: 1})
	if err != nil {
		t.Fatalf("ollama client: %v", err)
	}

	userSvc := users.NewService(users.NewMemoryRepo(), codec)
	reportSvc := reports.NewService(
		reports.NewMemoryRepo(),
		&reports.Classifier{LLM: llmClient},
		&reports.Extractor{LLM: llmClient},
	)

	return server.NewRouter(server.RouterDeps{
		Config:         cfg,
		Codec:          codec,
		UsersHandler:   users.NewHandler(userSvc),
		ReportsHandler: reports.NewHandler(reportSvc),
		GoogleAuth:     googleauth.NewGoogleService("", "", "", "", userSvc),
		Health:         health.NewService(nil, llmClient),
	})
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestFullPipelineRoundTrip(t *testing.T) {
	backend := fakeOllama(t)
	defer backend.Close()
	router := newApp(t, backend.URL)

	reg := postJSON(t, router, "/api/v1/auth/register", map[string]string{
		"name":     "Jean Dupont",
		"email":    "jean@example.com",
		"password": "Str0ng!pass",
	})
	if reg.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", reg.Code, reg.Body.String())
	}

	login := postJSON(t, router, "/api/v1/auth/login", map[string]string{
		"email":    "jean@example.com",
		"password": "Str0ng!pass",
	})
	if login.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", login.Code, login.Body.String())
	}
	var session struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(login.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatalf("missing tokens in %s", login.Body.String())
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "consultation.pdf")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write(extracttest.BuildPDF(t, []string{"Compte rendu de consultation de Jean Dupont, grippe"})); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	upload := httptest.NewRequest(http.MethodPost, "/api/v1/reports", &body)
	upload.Header.Set("Content-Type", writer.FormDataContentType())
	upload.Header.Set("Authorization", "Bearer "+session.AccessToken)
	uploadRec := httptest.NewRecorder()
	router.ServeHTTP(uploadRec, upload)
	if uploadRec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d: %s", uploadRec.Code, uploadRec.Body.String())
	}
	var created struct {
		DocumentID string `json:"document_id"`
	}
	if err := json.Unmarshal(uploadRec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode upload: %v", err)
	}

	fetch := httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+created.DocumentID, nil)
	fetch.Header.Set("Authorization", "Bearer "+session.AccessToken)
	fetchRec := httptest.NewRecorder()
	router.ServeHTTP(fetchRec, fetch)
	if fetchRec.Code != http.StatusOK {
		t.Fatalf("fetch: expected 200, got %d: %s", fetchRec.Code, fetchRec.Body.String())
	}
	var fetched struct {
		Report struct {
			Data struct {
				Patient struct {
					Nom string `json:"nom"`
					Age string `json:"age"`
				} `json:"patient"`
				Diagnostic []string `json:"diagnostic"`
			} `json:"extracted_data"`
		} `json:"report"`
	}
	if err := json.Unmarshal(fetchRec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode fetch: %v", err)
	}
	if fetched.Report.Data.Patient.Nom != "Jean Dupont" {
		t.Fatalf("unexpected patient %q", fetched.Report.Data.Patient.Nom)
	}
	if fetched.Report.Data.Patient.Age != "45" {
		t.Fatalf("numeric age must come back as a string, got %q", fetched.Report.Data.Patient.Age)
	}
	if len(fetched.Report.Data.Diagnostic) != 1 || fetched.Report.Data.Diagnostic[0] != "grippe" {
		t.Fatalf("unexpected diagnostic %v", fetched.Report.Data.Diagnostic)
	}
}

func TestRefreshFlow(t *testing.T) {
	backend := fakeOllama(t)
	defer backend.Close()
	router := newApp(t, backend.URL)

	if rec := postJSON(t, router, "/api/v1/auth/register", map[string]string{
		"name":     "Jean",
		"email":    "jean@example.com",
		"password": "Str0ng!pass",
	}); rec.Code != http.StatusCreated {
		t.Fatalf("register: %d: %s", rec.Code, rec.Body.String())
	}
	login := postJSON(t, router, "/api/v1/auth/login", map[string]string{
		"email":    "jean@example.com",
		"password": "Str0ng!pass",
	})
	var session struct {
		RefreshToken string `json:"refresh_token"`
		AccessToken  string `json:"access_token"`
	}
	if err := json.Unmarshal(login.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	refresh := postJSON(t, router, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": session.RefreshToken,
	})
	if refresh.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d: %s", refresh.Code, refresh.Body.String())
	}
	var refreshed struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(refresh.Body.Bytes(), &refreshed); err != nil {
		t.Fatalf("decode refresh: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Fatalf("missing access token in %s", refresh.Body.String())
	}

	// An access token must not be usable as a refresh token.
	badRefresh := postJSON(t, router, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": session.AccessToken,
	})
	if badRefresh.Code != http.StatusUnauthorized {
		t.Fatalf("access-as-refresh: expected 401, got %d", badRefresh.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	backend := fakeOllama(t)
	router := newApp(t, backend.URL)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var status struct {
		OK       bool `json:"ok"`
		Database struct {
			OK bool `json:"ok"`
		} `json:"database"`
		Analysis struct {
			OK bool `json:"ok"`
		} `json:"analysis"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if !status.OK || !status.Database.OK || !status.Analysis.OK {
		t.Fatalf("expected healthy status, got %s", rec.Body.String())
	}

	// Backend gone: health degrades but the endpoint still answers.
	backend.Close()
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded health: expected 503, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	backend := fakeOllama(t)
	defer backend.Close()
	router := newApp(t, backend.URL)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rec.Code)
	}
}
