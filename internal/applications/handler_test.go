package applications_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"fellowship-backend/internal/applications"
	"fellowship-backend/internal/auth"
	"fellowship-backend/internal/documents"
	"fellowship-backend/internal/mailer"
	"fellowship-backend/internal/otp"
	sharedauth "fellowship-backend/internal/shared/auth"
	"fellowship-backend/internal/shared/config"
	"fellowship-backend/internal/shared/server"
	"fellowship-backend/internal/shared/storage/object/local"
	"fellowship-backend/internal/users"
)

func newTestRouter(t *testing.T) (*gin.Engine, *applications.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := local.New(t.TempDir())
	appSvc := applications.NewService(
		applications.NewMemoryRepo(),
		documents.NewMemoryRepo(),
		store,
		mailer.LogMailer{},
		"http://localhost:3000",
	)
	userSvc := users.NewService(users.NewMemoryRepo())
	authSvc := auth.NewService(userSvc, otp.NewManager(), mailer.LogMailer{}, 5*time.Minute)

	return server.NewRouter(server.RouterDeps{
		Config:              config.Config{Env: "dev", CORSAllowOrigin: []string{"http://localhost:3000"}},
		AuthHandler:         auth.NewHandler(authSvc, false),
		ApplicationsHandler: applications.NewHandler(appSvc),
		UsersHandler:        users.NewHandler(userSvc),
	}), appSvc
}

func adminToken(t *testing.T, role string) string {
	t.Helper()
	token, err := sharedauth.SignJWT(sharedauth.Claims{
		Sub:   "admin-1",
		Email: "admin@example.com",
		Name:  "Ada Admin",
		Role:  role,
	})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/v1/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestSubmitApplicationPublicly(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/applications", "", map[string]any{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     "ada@example.com",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["status"] != "pending" {
		t.Fatalf("expected pending status, got %v", body["status"])
	}
	if body["id"] == "" || body["id"] == nil {
		t.Fatalf("expected generated id")
	}
}

func TestSubmitApplicationValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/applications", "", map[string]any{
		"firstName": "Ada",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing email, got %d", w.Code)
	}
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/admin/applications", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	userToken, err := sharedauth.SignJWT(sharedauth.Claims{Sub: "u-1", Role: "user"})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	w = doJSON(t, r, http.MethodGet, "/api/v1/admin/applications", userToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user role, got %d", w.Code)
	}
}

func TestAdminStatusFlow(t *testing.T) {
	r, svc := newTestRouter(t)
	token := adminToken(t, "admin")

	app, err := svc.Submit(context.Background(), applications.SubmitInput{
		FirstName: "Ada",
		Email:     "ada@example.com",
	}, "", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	w := doJSON(t, r, http.MethodPatch, "/api/v1/admin/applications/"+app.ID+"/status", token, map[string]any{
		"status": "approved",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["status"] != "approved" {
		t.Fatalf("expected approved, got %v", body["status"])
	}

	// Rejecting without a reason fails validation.
	w = doJSON(t, r, http.MethodPatch, "/api/v1/admin/applications/"+app.ID+"/status", token, map[string]any{
		"status": "rejected",
	})
	if w.Code != http.StatusConflict && w.Code != http.StatusBadRequest {
		t.Fatalf("expected 4xx, got %d", w.Code)
	}
}

func TestDocumentUploadFlow(t *testing.T) {
	r, svc := newTestRouter(t)
	token := adminToken(t, "admin")

	app, err := svc.Submit(context.Background(), applications.SubmitInput{
		FirstName: "Ada",
		Email:     "ada@example.com",
	}, "", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), app.ID, applications.StatusApproved, "", ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	upload := func(docType string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		if err := mw.WriteField("type", docType); err != nil {
			t.Fatalf("write field: %v", err)
		}
		fw, err := mw.CreateFormFile("file", docType+".pdf")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte("%PDF-1.4 test")); err != nil {
			t.Fatalf("write file: %v", err)
		}
		if err := mw.Close(); err != nil {
			t.Fatalf("close writer: %v", err)
		}

		req := httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+app.ID+"/documents", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := upload("identityDocument")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["allRequiredSubmitted"] != false {
		t.Fatalf("one upload should not complete the set: %v", body)
	}

	w = upload("passport")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", w.Code)
	}

	// Finalizing while incomplete fails.
	w = doJSON(t, r, http.MethodPost, "/api/v1/applications/"+app.ID+"/submit-documents", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for incomplete set, got %d: %s", w.Code, w.Body.String())
	}

	for _, docType := range []string{"degreeCertifications", "referenceOne", "referenceTwo", "fullProjectProposal"} {
		w = upload(docType)
		if w.Code != http.StatusOK {
			t.Fatalf("upload %s: got %d", docType, w.Code)
		}
	}

	// The public view reflects completion.
	w = doJSON(t, r, http.MethodGet, "/api/v1/applications/"+app.ID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body = decodeBody(t, w)
	if body["status"] != "received" || body["allRequiredSubmitted"] != true {
		t.Fatalf("expected received/complete, got %v", body)
	}

	// Admin detail view includes merged document URLs.
	w = doJSON(t, r, http.MethodGet, "/api/v1/admin/applications/"+app.ID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "identityDocument") {
		t.Fatalf("admin view missing document slots: %s", w.Body.String())
	}
}

func TestDocumentURLIsDownloadable(t *testing.T) {
	r, svc := newTestRouter(t)

	app, err := svc.Submit(context.Background(), applications.SubmitInput{
		FirstName: "Ada",
		Email:     "ada@example.com",
	}, "", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), app.ID, applications.StatusApproved, "", ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	content := "%PDF-1.4 proof of identity"
	result, err := svc.UploadDocument(context.Background(), app.ID, "identityDocument",
		"id.pdf", strings.NewReader(content))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(result.URL, "/api/v1/files/") {
		t.Fatalf("expected a files URL, got %q", result.URL)
	}

	req := httptest.NewRequest(http.MethodGet, result.URL, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 downloading %q, got %d", result.URL, w.Code)
	}
	if w.Body.String() != content {
		t.Fatalf("downloaded bytes differ: %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", ct)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/files/cv/missing.pdf", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a missing file, got %d", w.Code)
	}
}

func TestFundingInfoFlowOverHTTP(t *testing.T) {
	r, svc := newTestRouter(t)
	token := adminToken(t, "admin")

	app, err := svc.Submit(context.Background(), applications.SubmitInput{
		FirstName: "Ada",
		Email:     "ada@example.com",
	}, "", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Before the admin asks, the public form is gated.
	w := doJSON(t, r, http.MethodGet, "/api/v1/applications/"+app.ID+"/funding-info", "", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 before request, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/admin/applications/"+app.ID+"/request-funding-info", token, map[string]any{
		"customMessage": "Please add your budget breakdown.",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/applications/"+app.ID+"/funding-info", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after request, got %d: %s", w.Code, w.Body.String())
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, value := range map[string]string{
		"estimatedBudget":    "25000 EUR",
		"fundingSources":     "Regional health grant",
		"fundingSecured":     "secured",
		"sustainabilityPlan": "Ministry takes over after year one",
	} {
		if err := mw.WriteField(field, value); err != nil {
			t.Fatalf("write field %s: %v", field, err)
		}
	}
	fw, err := mw.CreateFormFile("fundingProof", "grant-letter.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("%PDF-1.4 grant letter")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+app.ID+"/funding-info", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	body := decodeBody(t, resp)
	if body["fundingInfoSubmitted"] != true {
		t.Fatalf("expected fundingInfoSubmitted=true, got %v", body)
	}

	// Once submitted the form closes and a second admin request is rejected.
	w = doJSON(t, r, http.MethodGet, "/api/v1/applications/"+app.ID+"/funding-info", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 after submission, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/api/v1/admin/applications/"+app.ID+"/request-funding-info", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 re-requesting, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminFilterValuesEndpoint(t *testing.T) {
	r, svc := newTestRouter(t)
	token := adminToken(t, "admin")

	if _, err := svc.Submit(context.Background(), applications.SubmitInput{
		FirstName:          "Ada",
		Email:              "ada@example.com",
		Nationality:        "Kenyan",
		CountryOfResidence: "Kenya",
		ProjectArea:        "Public Health",
	}, "", nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	w := doJSON(t, r, http.MethodGet, "/api/v1/admin/applications/filters", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	countries, ok := body["countries"].([]any)
	if !ok || len(countries) != 1 || countries[0] != "Kenya" {
		t.Fatalf("unexpected countries: %v", body["countries"])
	}
	if _, ok := body["projectAreas"]; !ok {
		t.Fatalf("expected projectAreas in response: %v", body)
	}
}

func TestSuperAdminUserRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	adminTok := adminToken(t, "admin")
	w := doJSON(t, r, http.MethodGet, "/api/v1/admin/users", adminTok, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("admin must not manage users, got %d", w.Code)
	}

	superTok := adminToken(t, "super_admin")
	w = doJSON(t, r, http.MethodPost, "/api/v1/admin/users", superTok, map[string]any{
		"email":    "new@example.com",
		"name":     "New Admin",
		"password": "password-123",
		"role":     "admin",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/admin/users", superTok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "new@example.com") {
		t.Fatalf("expected created user in list: %s", w.Body.String())
	}
}

func TestLoginFlowOverHTTP(t *testing.T) {
	r, _ := newTestRouter(t)

	// Unknown account yields a generic 401.
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "nobody@example.com",
		"password": "whatever-123",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/otp/verify", "", map[string]any{
		"email": "nobody@example.com",
		"otp":   "123456",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown OTP, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not found or expired") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}
