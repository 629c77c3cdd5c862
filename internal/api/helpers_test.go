package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"thinkink-backend/internal/ai"
	"thinkink-backend/internal/auth"
	"thinkink-backend/internal/database"
	"thinkink-backend/internal/speech"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func createDB(t *testing.T, create ...any) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.GetMigrator(db).Migrate())

	for _, c := range create {
		require.NoError(t, db.Create(c).Error)
	}

	return db
}

func testUser() database.User {
	return database.User{
		Id:           uuid.New(),
		FirebaseUid:  "firebase-uid-" + uuid.NewString()[:8],
		Email:        uuid.NewString()[:8] + "@example.com",
		DisplayName:  "Student",
		Provider:     "google.com",
		CreationTime: time.Now().UTC(),
		LastLogin:    time.Now().UTC(),
	}
}

// authedRouter mounts the given routes behind a middleware that injects user
// directly, standing in for the Firebase token check.
func authedRouter(user database.User, register func(chi.Router)) chi.Router {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.ContextWithUser(req.Context(), user)))
		})
	})
	register(r)
	return r
}

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

type fakeOcr struct {
	text string
	err  error
}

func (f *fakeOcr) ExtractText(ctx context.Context, filename string, image []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeTranscriber struct {
	result speech.Result
	err    error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, filename string, data []byte) (speech.Result, error) {
	if f.err != nil {
		return speech.Result{}, f.err
	}
	return f.result, nil
}

type fakeSynthesizer struct {
	audio  []byte
	err    error
	spoken []string
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	f.spoken = append(f.spoken, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.audio, nil
}

func (f *fakeLLM) Generate(ctx context.Context, systemPrompt, userPrompt string, params ai.GenParams) (string, error) {
	f.prompts = append(f.prompts, userPrompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func loadParams(t *testing.T) *ai.ParamSet {
	params, err := ai.LoadParams("")
	require.NoError(t, err)
	return params
}

func postJSON(t *testing.T, router http.Handler, path string, payload any) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func getJSON(t *testing.T, router http.Handler, path string, dest any) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if dest != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// uploadFile posts a multipart form with a single "file" part. An explicit
// part content type matters because several endpoints check it.
func uploadFile(t *testing.T, router http.Handler, path, filename, contentType string, contents []byte, fields map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	if contentType != "" {
		partHeader.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(partHeader)
	require.NoError(t, err)
	_, err = part.Write(contents)
	require.NoError(t, err)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
