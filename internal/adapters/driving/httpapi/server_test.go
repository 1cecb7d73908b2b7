package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

type testAPI struct {
	docs   *mockDocuments
	ingest *mockIngestion
	ask    *mockAsk
	skills *mockSkills
	router *gin.Engine
}

func newTestAPI(t *testing.T, cfg Config) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	api := &testAPI{
		docs:   &mockDocuments{},
		ingest: &mockIngestion{},
		ask:    &mockAsk{answer: &domain.Answer{Text: "ok"}},
		skills: &mockSkills{},
	}
	router, err := NewRouter(&Ports{
		Documents: api.docs,
		Ingestion: api.ingest,
		Ask:       api.ask,
		Skills:    api.skills,
	}, cfg)
	require.NoError(t, err)
	api.router = router
	return api
}

func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestNewRouter_RequiresPorts(t *testing.T) {
	_, err := NewRouter(&Ports{}, Config{})
	require.ErrorIs(t, err, ErrMissingPorts)
}

func TestMCPMount(t *testing.T) {
	api := newTestAPI(t, Config{})
	rec := api.do(http.MethodPost, "/mcp", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	mounted, err := NewRouter(&Ports{
		Documents: api.docs,
		Ingestion: api.ingest,
		Ask:       api.ask,
		Skills:    api.skills,
	}, Config{MCP: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	mounted.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t, Config{})

	rec := api.do(http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestUpload_JSON(t *testing.T) {
	api := newTestAPI(t, Config{})

	rec := api.do(http.MethodPost, "/api/upload", UploadRequest{
		Title: "Guide", Category: "training", Content: "hello",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "doc-1", body["id"])
	assert.Equal(t, "uploaded", body["status"])
	assert.Equal(t, domain.CategoryTraining, api.docs.added.Category)
}

func TestUpload_DefaultCategoryAndValidation(t *testing.T) {
	api := newTestAPI(t, Config{})

	rec := api.do(http.MethodPost, "/api/upload", UploadRequest{Title: "x"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, domain.CategoryKnowledge, api.docs.added.Category)

	rec = api.do(http.MethodPost, "/api/upload", UploadRequest{Title: "x", Category: "gossip"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decode[ErrorEnvelope](t, rec).Error.Code)

	rec = api.do(http.MethodPost, "/api/upload", UploadRequest{Category: "knowledge"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/upload", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_Multipart(t *testing.T) {
	api := newTestAPI(t, Config{})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "about-us.md")
	require.NoError(t, err)
	_, err = part.Write([]byte("# About\nWe build things."))
	require.NoError(t, err)
	require.NoError(t, w.WriteField("category", "reference"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "about-us", api.docs.added.Title)
	assert.Equal(t, "# About\nWe build things.", api.docs.added.Content)
	assert.Equal(t, domain.CategoryReference, api.docs.added.Category)
}

func TestUpload_MultipartWithImporter(t *testing.T) {
	api := newTestAPI(t, Config{})
	importer := &mockImporter{}
	router, err := NewRouter(&Ports{
		Documents: api.docs,
		Ingestion: api.ingest,
		Ask:       api.ask,
		Skills:    api.skills,
		Importer:  importer,
	}, Config{})
	require.NoError(t, err)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "handbook.html")
	require.NoError(t, err)
	_, err = part.Write([]byte("<p>Be kind.</p>"))
	require.NoError(t, err)
	require.NoError(t, w.WriteField("title", "Handbook"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "doc-9", decode[map[string]string](t, rec)["id"])
	assert.Equal(t, "handbook.html", importer.file.Filename)
	assert.Equal(t, "<p>Be kind.</p>", string(importer.file.Content))
	assert.Equal(t, "Handbook", importer.meta.Title)
	assert.Equal(t, domain.CategoryKnowledge, importer.meta.Category)
	assert.Nil(t, api.docs.added)
}

func TestUpload_MultipartUnsupportedFormat(t *testing.T) {
	api := newTestAPI(t, Config{})
	router, err := NewRouter(&Ports{
		Documents: api.docs,
		Ingestion: api.ingest,
		Ask:       api.ask,
		Skills:    api.skills,
		Importer:  &mockImporter{err: domain.ErrUnsupportedFormat},
	}, Config{})
	require.NoError(t, err)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "logo.png")
	require.NoError(t, err)
	_, err = part.Write([]byte{0x89, 0x50})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decode[ErrorEnvelope](t, rec).Error.Code)
}

func TestUpload_MultipartTooLarge(t *testing.T) {
	api := newTestAPI(t, Config{MaxUploadBytes: 64})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "big.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte(strings.Repeat("x", 1024)))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, api.docs.added)
}

func TestTrain(t *testing.T) {
	api := newTestAPI(t, Config{})

	rec := api.do(http.MethodPost, "/api/train", TrainRequest{DocumentIDs: []string{"a", "b"}})

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "job-1", decode[map[string]string](t, rec)["trainingId"])
	assert.Equal(t, []string{"a", "b"}, api.ingest.submitted)
}

func TestTrain_All(t *testing.T) {
	api := newTestAPI(t, Config{})
	api.docs.documents = []domain.Document{{ID: "x"}, {ID: "y"}}

	rec := api.do(http.MethodPost, "/api/train", TrainRequest{All: true})

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"x", "y"}, api.ingest.submitted)
}

func TestTrain_Busy(t *testing.T) {
	api := newTestAPI(t, Config{})
	api.ingest.err = fmt.Errorf("job j: %w", domain.ErrBusy)

	rec := api.do(http.MethodPost, "/api/train", TrainRequest{DocumentIDs: []string{"a"}})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "busy", decode[ErrorEnvelope](t, rec).Error.Code)
}

func TestTrainStatus(t *testing.T) {
	api := newTestAPI(t, Config{})
	api.ingest.job = &domain.IngestionJob{
		ID: "job-1", State: domain.JobCompleted, Progress: 100, Processed: 2, Total: 2,
		Message: "indexed 2 of 2 documents", Success: true,
	}

	rec := api.do(http.MethodGet, "/api/train/job-1/status", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[TrainStatus](t, rec)
	assert.True(t, status.Completed)
	assert.True(t, status.Success)
	assert.Equal(t, 100, status.Progress)
	assert.Equal(t, domain.JobCompleted, status.State)
	assert.Equal(t, "indexed 2 of 2 documents", status.Message)
}

func TestTrainStatus_NotFound(t *testing.T) {
	api := newTestAPI(t, Config{})
	api.ingest.err = domain.ErrNotFound

	rec := api.do(http.MethodGet, "/api/train/nope/status", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocuments(t *testing.T) {
	api := newTestAPI(t, Config{})
	api.docs.documents = []domain.Document{{ID: "d1", Title: "Guide", Content: "secret body"}}
	api.docs.document = &domain.Document{ID: "d1", Title: "Guide", Content: "body"}

	rec := api.do(http.MethodGet, "/api/documents?category=Knowledge&status=indexed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.CategoryKnowledge, api.docs.filter.Category)
	assert.Equal(t, domain.StatusIndexed, api.docs.filter.Status)
	assert.NotContains(t, rec.Body.String(), "secret body")

	rec = api.do(http.MethodGet, "/api/documents/d1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body", decode[domain.Document](t, rec).Content)

	rec = api.do(http.MethodDelete, "/api/documents/d1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "d1", api.docs.deleted)
}

func TestDeleteDocument_Conflict(t *testing.T) {
	api := newTestAPI(t, Config{})
	api.docs.err = fmt.Errorf("document d1 is being indexed: %w", domain.ErrConflict)

	rec := api.do(http.MethodDelete, "/api/documents/d1", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decode[ErrorEnvelope](t, rec).Error.Code)
}

func TestAsk(t *testing.T) {
	api := newTestAPI(t, Config{})
	api.ask.answer = &domain.Answer{
		Text:       "Friday.",
		Sources:    []domain.SourceRef{{DocumentID: "d2", ChunkID: "d2#0", Title: "Events", Score: 0.8}},
		Confidence: 0.3,
	}

	rec := api.do(http.MethodPost, "/api/ask", AskRequest{Question: "When?"})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[AskResponse](t, rec)
	assert.Equal(t, "Friday.", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "d2", resp.Sources[0].DocumentID)
	assert.InDelta(t, 0.3, resp.Confidence, 1e-9)
	assert.False(t, resp.NoKnowledge)
	assert.False(t, resp.LowConfidence)
}

func TestAsk_LowConfidence(t *testing.T) {
	api := newTestAPI(t, Config{})
	api.ask.answer = &domain.Answer{
		Text:          domain.LowConfidenceAnswer,
		Sources:       []domain.SourceRef{{DocumentID: "d2", ChunkID: "d2#0", Title: "Events", Score: 0.3}},
		Confidence:    0.2,
		LowConfidence: true,
	}

	rec := api.do(http.MethodPost, "/api/ask", AskRequest{Question: "When?"})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[AskResponse](t, rec)
	assert.True(t, resp.LowConfidence)
	assert.Equal(t, domain.LowConfidenceAnswer, resp.Answer)
	assert.Len(t, resp.Sources, 1)
	assert.Contains(t, rec.Body.String(), `"lowConfidence":true`)
}

func TestAsk_NoKnowledge(t *testing.T) {
	api := newTestAPI(t, Config{})
	api.ask.err = domain.ErrNoKnowledge

	rec := api.do(http.MethodPost, "/api/ask", AskRequest{Question: "When?"})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[AskResponse](t, rec)
	assert.True(t, resp.NoKnowledge)
	assert.Equal(t, domain.NoKnowledgeAnswer, resp.Answer)
	assert.Contains(t, rec.Body.String(), `"noKnowledge":true`)
}

func TestAsk_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrModelUnavailable, http.StatusServiceUnavailable, "model_unavailable"},
		{fmt.Errorf("%w: deadline", domain.ErrGenerationTimeout), http.StatusGatewayTimeout, "generation_timeout"},
		{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
		{domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, "embedding_unavailable"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			api := newTestAPI(t, Config{})
			api.ask.err = tt.err

			rec := api.do(http.MethodPost, "/api/ask", AskRequest{Question: "q"})

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[ErrorEnvelope](t, rec).Error.Code)
		})
	}
}

func TestAsk_RateLimited(t *testing.T) {
	api := newTestAPI(t, Config{AskPerMinute: 1, AskBurst: 2})

	for i := 0; i < 2; i++ {
		rec := api.do(http.MethodPost, "/api/ask", AskRequest{Question: "q"})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := api.do(http.MethodPost, "/api/ask", AskRequest{Question: "q"})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decode[ErrorEnvelope](t, rec).Error.Code)
	assert.Equal(t, 2, api.ask.calls)

	// Other routes are not limited.
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", nil).Code)
}

func TestFind(t *testing.T) {
	api := newTestAPI(t, Config{})
	api.skills.matches = []domain.SkillMatch{{Member: domain.Member{ID: "1", Name: "Alice"}, Score: 2}}

	rec := api.do(http.MethodGet, "/api/find?skills=rust,go&available=true&limit=5", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rust,go", api.skills.query)
	assert.Equal(t, domain.FindOptions{AvailableOnly: true, Limit: 5}, api.skills.opts)
	assert.Contains(t, rec.Body.String(), `"Alice"`)
	assert.NotContains(t, rec.Body.String(), "knownSkills")
}

func TestFind_NoMatchListsSkills(t *testing.T) {
	api := newTestAPI(t, Config{})
	api.skills.skills = []string{"go", "rust"}

	rec := api.do(http.MethodGet, "/api/find?skills=cobol", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.EqualValues(t, 0, body["count"])
	assert.Equal(t, []any{"go", "rust"}, body["knownSkills"])
}

func TestFind_BadParams(t *testing.T) {
	api := newTestAPI(t, Config{})

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/find?skills=go&available=maybe", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/find?skills=go&limit=-1", nil).Code)
}

func TestCORS(t *testing.T) {
	api := newTestAPI(t, Config{AllowOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
