package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tkellogg/storymode/internal/domain"
	"github.com/tkellogg/storymode/internal/services"
	"github.com/tkellogg/storymode/internal/storage"
	"github.com/tkellogg/storymode/internal/web"
)

// ---------- engine / request helpers ----------

// newEngine returns a fresh Gin engine with the embedded templates loaded,
// since most handlers render HTML fragments.
func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(web.Templates())
	return r
}

// postForm performs a form-encoded POST/PUT against the engine.
func postForm(r *gin.Engine, method, path string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	return w
}

func doGet(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

// ---------- real DB + store for integration-style tests ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&domain.Story{}, &domain.Chapter{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newHandlerStore(t *testing.T) *storage.Store {
	t.Helper()
	return storage.NewStore(t.TempDir())
}

// ---------- flexible service stubs ----------

type stubStorySvc struct {
	create      func(context.Context, string, int, int) (*domain.Story, error)
	get         func(context.Context, string) (*domain.Story, error)
	listRecent  func(context.Context) ([]domain.Story, error)
	updateTitle func(context.Context, string, string) (*domain.Story, error)
	del         func(context.Context, string) error
}

func (s stubStorySvc) Create(ctx context.Context, prompt string, nc, wc int) (*domain.Story, error) {
	if s.create != nil {
		return s.create(ctx, prompt, nc, wc)
	}
	return &domain.Story{ID: "s1", Prompt: prompt, NumChapters: nc, WordsPerChapter: wc}, nil
}

func (s stubStorySvc) Get(ctx context.Context, id string) (*domain.Story, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return &domain.Story{ID: id, Title: "stub"}, nil
}

func (s stubStorySvc) ListRecent(ctx context.Context) ([]domain.Story, error) {
	if s.listRecent != nil {
		return s.listRecent(ctx)
	}
	return nil, nil
}

func (s stubStorySvc) UpdateTitle(ctx context.Context, id, title string) (*domain.Story, error) {
	if s.updateTitle != nil {
		return s.updateTitle(ctx, id, title)
	}
	return &domain.Story{ID: id, Title: title}, nil
}

func (s stubStorySvc) Delete(ctx context.Context, id string) error {
	if s.del != nil {
		return s.del(ctx, id)
	}
	return nil
}

type stubChapterSvc struct {
	generate func(context.Context, string, int) (string, error)
	get      func(context.Context, string, int) (*services.ChapterContent, error)
	list     func(context.Context, string) (*services.ChapterListing, error)
}

func (s stubChapterSvc) Generate(ctx context.Context, storyID string, n int) (string, error) {
	if s.generate != nil {
		return s.generate(ctx, storyID, n)
	}
	return "**Chapter**", nil
}

func (s stubChapterSvc) Get(ctx context.Context, storyID string, n int) (*services.ChapterContent, error) {
	if s.get != nil {
		return s.get(ctx, storyID, n)
	}
	return &services.ChapterContent{Number: n, Text: "text"}, nil
}

func (s stubChapterSvc) List(ctx context.Context, storyID string) (*services.ChapterListing, error) {
	if s.list != nil {
		return s.list(ctx, storyID)
	}
	return &services.ChapterListing{Story: &domain.Story{ID: storyID, NumChapters: 1}}, nil
}

type stubAudioSvc struct {
	generate func(context.Context, string, int) error
	clip     func(context.Context, string, int) ([]byte, error)
}

func (s stubAudioSvc) GenerateChapterAudio(ctx context.Context, storyID string, n int) error {
	if s.generate != nil {
		return s.generate(ctx, storyID, n)
	}
	return nil
}

func (s stubAudioSvc) ChapterAudio(ctx context.Context, storyID string, n int) ([]byte, error) {
	if s.clip != nil {
		return s.clip(ctx, storyID, n)
	}
	return []byte("mp3"), nil
}

type stubAudiobookSvc struct {
	assemble func(context.Context, string) ([]byte, error)
	book     func(context.Context, string) ([]byte, error)
	has      bool
}

func (s stubAudiobookSvc) Assemble(ctx context.Context, storyID string) ([]byte, error) {
	if s.assemble != nil {
		return s.assemble(ctx, storyID)
	}
	return []byte("book"), nil
}

func (s stubAudiobookSvc) Audiobook(ctx context.Context, storyID string) ([]byte, error) {
	if s.book != nil {
		return s.book(ctx, storyID)
	}
	return []byte("book"), nil
}

func (s stubAudiobookSvc) Has(ctx context.Context, storyID string) bool { return s.has }

type stubPipelineSvc struct {
	generateAll func(context.Context, string) (*services.GenerateAllResult, error)
}

func (s stubPipelineSvc) GenerateAll(ctx context.Context, storyID string) (*services.GenerateAllResult, error) {
	if s.generateAll != nil {
		return s.generateAll(ctx, storyID)
	}
	return &services.GenerateAllResult{}, nil
}

// newStubHandlers wires Handlers entirely from stubs; individual tests
// override the fields they care about.
func newStubHandlers(story stubStorySvc, chapter stubChapterSvc, audio stubAudioSvc, book stubAudiobookSvc, pipe stubPipelineSvc) *Handlers {
	return New(story, chapter, audio, book, pipe)
}
