package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/deepcheck/internal/dbx"
	"github.com/dmitrijs2005/deepcheck/internal/logging"
	"github.com/dmitrijs2005/deepcheck/internal/server/auth"
	"github.com/dmitrijs2005/deepcheck/internal/server/classifier"
	"github.com/dmitrijs2005/deepcheck/internal/server/models"
	"github.com/dmitrijs2005/deepcheck/internal/server/repositories/analyses"
	"github.com/dmitrijs2005/deepcheck/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/deepcheck/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- collaborators ---

type fakeStore struct {
	mu           sync.Mutex
	calls        int
	keys         []string
	contentTypes []string
	err          error
}

func (f *fakeStore) Store(_ context.Context, key, contentType string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	f.contentTypes = append(f.contentTypes, contentType)
	return "http://objects.local/analyses/" + key, nil
}

type fakeScorer struct {
	mu    sync.Mutex
	calls int
	score float64
	err   error
	ready bool
}

func (f *fakeScorer) Classify(context.Context, classifier.Tensor) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.score, f.err
}

func (f *fakeScorer) Ready() bool { return f.ready }

type countingPreprocessor struct {
	calls int
	inner Preprocessor
}

func (p *countingPreprocessor) Preprocess(data []byte) (classifier.Tensor, string, error) {
	p.calls++
	return p.inner.Preprocess(data)
}

type fakeCache struct {
	mu          sync.Mutex
	pages       map[string][]*models.AnalysisRecord
	versions    map[string]int64
	gets        int
	sets        int
	invalidated []string
	err         error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		pages:    make(map[string][]*models.AnalysisRecord),
		versions: make(map[string]int64),
	}
}

func pageID(userID string, limit int) string {
	return fmt.Sprintf("%s/%d", userID, limit)
}

func (c *fakeCache) Get(_ context.Context, userID string, limit int) ([]*models.AnalysisRecord, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.err != nil {
		return nil, 0, false, c.err
	}
	recs, ok := c.pages[pageID(userID, limit)]
	return recs, c.versions[userID], ok, nil
}

func (c *fakeCache) Set(_ context.Context, userID string, limit int, version int64, recs []*models.AnalysisRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.err != nil {
		return c.err
	}
	if c.versions[userID] != version {
		return nil
	}
	c.pages[pageID(userID, limit)] = recs
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, userID)
	c.versions[userID]++
	for k := range c.pages {
		if strings.HasPrefix(k, userID+"/") {
			delete(c.pages, k)
		}
	}
	return c.err
}

// failingAnalyses wraps the in-memory repository and can be told to fail.
type failingAnalyses struct {
	analyses.Repository
	createCalls int
	createErr   error
	listErr     error
	// afterList, when set, runs once between the read and the return.
	afterList func()
}

func (f *failingAnalyses) Create(ctx context.Context, rec *models.AnalysisRecord) (*models.AnalysisRecord, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.Repository.Create(ctx, rec)
}

func (f *failingAnalyses) ListByUser(ctx context.Context, userID string, limit int) ([]*models.AnalysisRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	recs, err := f.Repository.ListByUser(ctx, userID, limit)
	if hook := f.afterList; hook != nil {
		f.afterList = nil
		hook()
	}
	return recs, err
}

// failingUsers wraps the in-memory repository and can be told to fail.
type failingUsers struct {
	users.Repository
	getErr    error
	createErr error
}

func (f *failingUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Repository.GetUserByEmail(ctx, email)
}

func (f *failingUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.Repository.Create(ctx, u)
}

type fakeRepoManager struct {
	users    *failingUsers
	analyses *failingAnalyses
}

func newFakeRepoManager() *fakeRepoManager {
	mem := repomanager.NewInMemoryRepositoryManager()
	return &fakeRepoManager{
		users:    &failingUsers{Repository: mem.Users(nil)},
		analyses: &failingAnalyses{Repository: mem.Analyses(nil)},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *fakeRepoManager) Analyses(dbx.DBTX) analyses.Repository        { return m.analyses }

var errBoom = errors.New("boom")

// --- helpers ---

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newUserService(t *testing.T, rm *fakeRepoManager) *UserService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret", "HS256", 30*time.Minute)
	require.NoError(t, err)
	return NewUserService(nil, rm, auth.NewPasswordHasher(bcrypt.MinCost), tokens, logging.NewNop())
}
