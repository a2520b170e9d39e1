package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/deepcheck/internal/logging"
	"github.com/dmitrijs2005/deepcheck/internal/server/auth"
	"github.com/dmitrijs2005/deepcheck/internal/server/cache"
	"github.com/dmitrijs2005/deepcheck/internal/server/classifier"
	"github.com/dmitrijs2005/deepcheck/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/deepcheck/internal/server/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memStore struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *memStore) Store(_ context.Context, key, _ string, _ []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "http://objects.local/analyses/" + key, nil
}

type stubScorer struct {
	score float64
	ready bool
}

func (s *stubScorer) Classify(context.Context, classifier.Tensor) (float64, error) {
	return s.score, nil
}
func (s *stubScorer) Ready() bool { return s.ready }

type testAPI struct {
	h      http.Handler
	store  *memStore
	scorer *stubScorer
}

func newTestAPI(t *testing.T, opts Options) *testAPI {
	t.Helper()

	rm := repomanager.NewInMemoryRepositoryManager()
	tokens, err := auth.NewTokenService("test-secret", "HS256", 30*time.Minute)
	require.NoError(t, err)

	log := logging.NewNop()
	store := &memStore{}
	scorer := &stubScorer{score: 0.2, ready: true}

	users := services.NewUserService(nil, rm, auth.NewPasswordHasher(bcrypt.MinCost), tokens, log)
	analysis := services.NewAnalysisService(nil, rm, classifier.NewPreprocessor(), scorer, store, cache.Nop{}, log)
	history := services.NewHistoryService(nil, rm, cache.Nop{}, log)

	if opts.MaxUploadBytes == 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	opts.GinMode = "test"

	h := NewRouter(Deps{
		Users:    users,
		Analysis: analysis,
		History:  history,
		Ready:    scorer.Ready,
		Log:      log,
	}, opts)

	return &testAPI{h: h, store: store, scorer: scorer}
}

func (a *testAPI) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) register(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return a.do(t, req)
}

func (a *testAPI) login(t *testing.T, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(t, req)
}

func (a *testAPI) token(t *testing.T, email, password string) string {
	t.Helper()
	require.Equal(t, http.StatusCreated, a.register(t, email, password).Code)
	rec := a.login(t, email, password)
	require.Equal(t, http.StatusOK, rec.Code)
	var tr tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tr))
	return tr.AccessToken
}

func (a *testAPI) analyze(t *testing.T, token, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze-image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.do(t, req)
}

func (a *testAPI) history(t *testing.T, token, query string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/history"+query, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.do(t, req)
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x * 8), B: uint8(y * 8), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var er ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er), rec.Body.String())
	return er.Detail
}
