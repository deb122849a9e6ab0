package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/teachers-admin/internal/models"
	"github.com/noah-isme/teachers-admin/internal/service"
	"github.com/noah-isme/teachers-admin/pkg/config"
)

func useUpstream(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:         srv.URL,
			UsersPath:       "user/",
			FilesPath:       "api/v1/files",
			AuthPath:        "auth",
			DepartmentsPath: "department",
			PositionsPath:   "lavozim",
			Timeout:         2 * time.Second,
		},
		Uploads: config.UploadConfig{MaxSizeBytes: service.DefaultUploadLimit},
		JWT:     config.JWTConfig{Secret: "test-secret"},
	}
	built, err := newCLIApp(cfg, zap.NewNop())
	require.NoError(t, err)
	app = built
	t.Cleanup(func() { app = nil })
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestListPrintsCardsAndRange(t *testing.T) {
	var gotQuery string
	useUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/search":
			gotQuery = r.URL.RawQuery
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"data": models.TeacherPage{Page: 1, Size: 10, TotalPage: 2, TotalElements: 12, Body: []models.Teacher{
					{ID: 11, Name: "Ali Valiyev", Lavozim: "Dotsent", DepartmentName: "Fizika"},
				}},
			})
		default:
			_, _ = io.WriteString(w, `[]`)
		}
	})

	out, _, err := execute(t, "list", "--search", "ali", "--page", "2", "--size", "10")
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "name=ali")
	assert.Contains(t, gotQuery, "page=1")
	assert.Contains(t, out, "[11] Ali Valiyev")
	assert.Contains(t, out, "11-12 / 12 ta")
}

func TestCreateUploadsAttachmentsBeforeCreating(t *testing.T) {
	var order []string
	var payload models.TeacherCreateInput
	useUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		order = append(order, r.URL.Path)
		switch r.URL.Path {
		case "/department":
			_, _ = io.WriteString(w, `[{"id":1,"name":"Fizika"}]`)
		case "/lavozim":
			_, _ = io.WriteString(w, `[{"id":3,"name":"Dotsent"}]`)
		case "/api/v1/files/pdf":
			_, _ = io.WriteString(w, `{"data":"http://files/cv.pdf"}`)
		case "/auth/saveUser":
			_ = json.NewDecoder(r.Body).Decode(&payload)
			_, _ = io.WriteString(w, `{"success":true,"data":{"id":5,"name":"Ali Valiyev"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	dir := t.TempDir()
	pdf := filepath.Join(dir, "cv.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), 0o600))

	out, stderr, err := execute(t, "create",
		"--full-name", "Ali Valiyev", "--email", "ali@example.uz", "--phone", "+998901234567",
		"--age", "40", "--gender", "female", "--password", "secret1",
		"--department", "1", "--position", "3", "--pdf", pdf,
	)
	require.NoError(t, err, stderr)
	assert.Equal(t, []string{"/department", "/lavozim", "/api/v1/files/pdf", "/auth/saveUser"}, order)
	assert.False(t, payload.Gender)
	assert.Equal(t, []string{"http://files/cv.pdf"}, payload.PDFURLs)
	assert.Contains(t, out, "created teacher 5")
	assert.Contains(t, stderr, service.MsgCreateSucceeded)
}

func TestCreateSkipsRejectedDocument(t *testing.T) {
	var order []string
	var payload models.TeacherCreateInput
	useUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		order = append(order, r.URL.Path)
		switch r.URL.Path {
		case "/department":
			_, _ = io.WriteString(w, `[{"id":1,"name":"Fizika"}]`)
		case "/lavozim":
			_, _ = io.WriteString(w, `[{"id":3,"name":"Dotsent"}]`)
		case "/api/v1/files/pdf":
			_, _ = io.WriteString(w, `{"data":"http://files/cv.pdf"}`)
		case "/auth/saveUser":
			_ = json.NewDecoder(r.Body).Decode(&payload)
			_, _ = io.WriteString(w, "User saved")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("plain notes"), 0o600))
	pdf := filepath.Join(dir, "cv.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), 0o600))
	createPDFs = nil

	out, stderr, err := execute(t, "create",
		"--full-name", "Nodira Karimova", "--email", "n@example.uz", "--phone", "+998901234567",
		"--age", "31", "--gender", "female", "--password", "secret1",
		"--department", "1", "--position", "3", "--pdf", notes, "--pdf", pdf,
	)
	require.NoError(t, err, stderr)
	assert.Equal(t, []string{"/department", "/lavozim", "/api/v1/files/pdf", "/auth/saveUser"}, order)
	assert.Equal(t, []string{"http://files/cv.pdf"}, payload.PDFURLs)
	assert.Contains(t, stderr, service.MsgPDFTypeRejected)
	assert.Contains(t, stderr, service.MsgCreateSucceeded)
	assert.Contains(t, out, "created teacher Nodira Karimova")
}

func TestTokenIssuesVerifiableToken(t *testing.T) {
	useUpstream(t, func(w http.ResponseWriter, r *http.Request) {})

	out, _, err := execute(t, "token", "--user", "u-1", "--role", "SUPERADMIN")
	require.NoError(t, err)

	claims, err := app.auth.ValidateToken(string(bytes.TrimSpace([]byte(out))))
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, claims.Role)
	assert.Equal(t, "u-1", claims.UserID)
}
