package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	dbpkg "docqa/db"
	"docqa/models"
	"docqa/rag"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder counts calls so tests can assert the embedding service was
// never reached on a rejected upload.
type stubEmbedder struct {
	calls int
	err   error
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.calls++
	return []float32{1, 2, 3}, nil
}

// memIndex keeps points per document ref in memory.
type memIndex struct {
	points    map[string][]rag.Chunk
	upsertErr error
}

func newMemIndex() *memIndex {
	return &memIndex{points: map[string][]rag.Chunk{}}
}

func (m *memIndex) Upsert(_ context.Context, ref string, chunks []rag.Chunk, _ [][]float32) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.points[ref] = chunks
	return nil
}

func (m *memIndex) Search(_ context.Context, _ []float32, limit int) ([]rag.SearchResult, error) {
	refs := make([]string, 0, len(m.points))
	for ref := range m.points {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	var results []rag.SearchResult
	for _, ref := range refs {
		for _, chunk := range m.points[ref] {
			results = append(results, rag.SearchResult{
				DocumentRef: ref,
				Ordinal:     chunk.Ordinal,
				Text:        chunk.Text,
				Score:       1,
			})
		}
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *memIndex) DeleteByDocument(_ context.Context, ref string) error {
	delete(m.points, ref)
	return nil
}

// echoCompleter answers with its own prompt, so assertions can look for the
// retrieved context inside the answer.
type echoCompleter struct {
	calls int
}

func (e *echoCompleter) Complete(_ context.Context, _ string, input string) (string, error) {
	e.calls++
	return input, nil
}

type docsEnv struct {
	router    *gin.Engine
	db        *gorm.DB
	embedder  *stubEmbedder
	index     *memIndex
	completer *echoCompleter
}

func setupDocsRouter(t *testing.T) *docsEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	// one connection only, each new conn would get its own in-memory db
	db.DB().SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Document{}).Error)

	env := &docsEnv{
		db:        db,
		embedder:  &stubEmbedder{},
		index:     newMemIndex(),
		completer: &echoCompleter{},
	}
	service := rag.NewService(env.embedder, env.completer, env.index)

	r := gin.New()
	r.Use(dbpkg.SetDBtoContext(db))
	r.Use(rag.SetServiceToContext(service))
	r.POST("/upload", Upload)
	r.GET("/query", Query)
	r.GET("/documents", GetDocuments)
	r.GET("/documents/:id", GetDocumentByID)
	r.PUT("/documents/:id", UpdateDocument)
	r.DELETE("/documents/:id", DeleteDocument)
	env.router = r
	return env
}

func uploadFile(t *testing.T, r *gin.Engine, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUpload(t *testing.T) {
	t.Run("txt upload stores vectors then the metadata row", func(t *testing.T) {
		env := setupDocsRouter(t)
		w := uploadFile(t, env.router, "notes.txt", []byte("Paris is the capital of France."))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "notes.txt")

		var doc models.Document
		require.NoError(t, env.db.First(&doc).Error)
		assert.Equal(t, "notes.txt", doc.Filename)
		assert.Equal(t, "txt", doc.FileType)
		assert.NotEmpty(t, doc.IndexRef)
		assert.Contains(t, doc.Content, "Paris")
		assert.Contains(t, env.index.points, doc.IndexRef)
	})

	t.Run("unsupported extension is rejected before any external call", func(t *testing.T) {
		env := setupDocsRouter(t)
		w := uploadFile(t, env.router, "slides.pptx", []byte("whatever"))
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
		assert.Zero(t, env.embedder.calls)
		assert.Empty(t, env.index.points)

		var count int
		env.db.Model(&models.Document{}).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("index failure leaves no metadata row", func(t *testing.T) {
		env := setupDocsRouter(t)
		env.index.upsertErr = errors.New("connection refused")
		w := uploadFile(t, env.router, "notes.txt", []byte("some content"))
		assert.Equal(t, http.StatusBadGateway, w.Code)

		var count int
		env.db.Model(&models.Document{}).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("missing file field", func(t *testing.T) {
		env := setupDocsRouter(t)
		req := httptest.NewRequest(http.MethodPost, "/upload", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestQueryEndpoint(t *testing.T) {
	t.Run("upload then query answers from the document", func(t *testing.T) {
		env := setupDocsRouter(t)
		w := uploadFile(t, env.router, "notes.txt", []byte("Paris is the capital of France."))
		require.Equal(t, http.StatusOK, w.Code)

		req := httptest.NewRequest(http.MethodGet, "/query?q=What%20is%20the%20capital%20of%20France%3F", nil)
		resp := httptest.NewRecorder()
		env.router.ServeHTTP(resp, req)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		var out QueryResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
		assert.Contains(t, out.Answer, "Paris")
	})

	t.Run("empty index gives the fixed response and skips the model", func(t *testing.T) {
		env := setupDocsRouter(t)
		req := httptest.NewRequest(http.MethodGet, "/query?q=anything", nil)
		resp := httptest.NewRecorder()
		env.router.ServeHTTP(resp, req)
		require.Equal(t, http.StatusOK, resp.Code)

		var out QueryResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
		assert.Equal(t, rag.NoInformationAnswer, out.Answer)
		assert.Zero(t, env.completer.calls)
	})

	t.Run("missing q", func(t *testing.T) {
		env := setupDocsRouter(t)
		req := httptest.NewRequest(http.MethodGet, "/query", nil)
		resp := httptest.NewRecorder()
		env.router.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("invalid k", func(t *testing.T) {
		env := setupDocsRouter(t)
		req := httptest.NewRequest(http.MethodGet, "/query?q=x&k=zero", nil)
		resp := httptest.NewRecorder()
		env.router.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestDocumentCRUD(t *testing.T) {
	t.Run("listing truncates the preview", func(t *testing.T) {
		env := setupDocsRouter(t)
		long := make([]byte, 600)
		for i := range long {
			long[i] = 'a'
		}
		require.Equal(t, http.StatusOK, uploadFile(t, env.router, "big.txt", long).Code)

		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		resp := httptest.NewRecorder()
		env.router.ServeHTTP(resp, req)
		require.Equal(t, http.StatusOK, resp.Code)

		var out []map[string]any
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
		require.Len(t, out, 1)
		preview, _ := out[0]["content_preview"].(string)
		assert.Len(t, preview, 200)
	})

	t.Run("get by id and not found", func(t *testing.T) {
		env := setupDocsRouter(t)
		require.Equal(t, http.StatusOK, uploadFile(t, env.router, "notes.txt", []byte("text")).Code)

		req := httptest.NewRequest(http.MethodGet, "/documents/1", nil)
		resp := httptest.NewRecorder()
		env.router.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusOK, resp.Code)

		req = httptest.NewRequest(http.MethodGet, "/documents/99", nil)
		resp = httptest.NewRecorder()
		env.router.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("update with only filename leaves content and vectors alone", func(t *testing.T) {
		env := setupDocsRouter(t)
		require.Equal(t, http.StatusOK, uploadFile(t, env.router, "old.txt", []byte("original content")).Code)

		var before models.Document
		require.NoError(t, env.db.First(&before).Error)

		w := doJSON(env.router, http.MethodPut, "/documents/1", gin.H{"filename": "new.txt"}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var after models.Document
		require.NoError(t, env.db.First(&after).Error)
		assert.Equal(t, "new.txt", after.Filename)
		assert.Equal(t, before.Content, after.Content)
		assert.Equal(t, before.IndexRef, after.IndexRef)
		assert.Equal(t, env.index.points[before.IndexRef][0].Text, "original content")
	})

	t.Run("update with content re-indexes under the same ref", func(t *testing.T) {
		env := setupDocsRouter(t)
		require.Equal(t, http.StatusOK, uploadFile(t, env.router, "doc.txt", []byte("original content")).Code)

		var doc models.Document
		require.NoError(t, env.db.First(&doc).Error)

		w := doJSON(env.router, http.MethodPut, "/documents/1", gin.H{"content": "replacement content"}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		require.NoError(t, env.db.First(&doc).Error)
		assert.Contains(t, doc.Content, "replacement")
		require.Contains(t, env.index.points, doc.IndexRef)
		assert.Equal(t, "replacement content", env.index.points[doc.IndexRef][0].Text)
	})

	t.Run("update of a missing document", func(t *testing.T) {
		env := setupDocsRouter(t)
		w := doJSON(env.router, http.MethodPut, "/documents/42", gin.H{"filename": "x"}, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete retracts vectors and removes the row", func(t *testing.T) {
		env := setupDocsRouter(t)
		require.Equal(t, http.StatusOK, uploadFile(t, env.router, "gone.txt", []byte("content")).Code)

		var doc models.Document
		require.NoError(t, env.db.First(&doc).Error)

		req := httptest.NewRequest(http.MethodDelete, "/documents/1", nil)
		resp := httptest.NewRecorder()
		env.router.ServeHTTP(resp, req)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "gone.txt")

		assert.NotContains(t, env.index.points, doc.IndexRef)
		var count int
		env.db.Model(&models.Document{}).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("delete of a missing document", func(t *testing.T) {
		env := setupDocsRouter(t)
		req := httptest.NewRequest(http.MethodDelete, "/documents/42", nil)
		resp := httptest.NewRecorder()
		env.router.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}
