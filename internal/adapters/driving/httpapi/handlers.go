package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

type handlers struct {
	ports     *Ports
	maxUpload int64
}

// UploadRequest is the JSON body of POST /api/upload.
type UploadRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Content     string `json:"content"`
}

// TrainRequest is the body of POST /api/train.
type TrainRequest struct {
	DocumentIDs []string `json:"documentIds"`
	// All trains every uploaded document when DocumentIDs is empty.
	All bool `json:"all"`
}

// TrainStatus is the body of GET /api/train/:id/status.
type TrainStatus struct {
	ID        string                   `json:"id"`
	State     domain.JobState          `json:"state"`
	Progress  int                      `json:"progress"`
	Processed int                      `json:"processed"`
	Total     int                      `json:"total"`
	Message   string                   `json:"message"`
	Completed bool                     `json:"completed"`
	Success   bool                     `json:"success"`
	Failures  []domain.DocumentFailure `json:"failures,omitempty"`
}

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the body returned by POST /api/ask.
type AskResponse struct {
	Answer      string             `json:"answer"`
	Sources     []domain.SourceRef `json:"sources"`
	Confidence    float64            `json:"confidence"`
	NoKnowledge   bool               `json:"noKnowledge,omitempty"`
	LowConfidence bool               `json:"lowConfidence,omitempty"`
}

func (h *handlers) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// POST /api/upload
func (h *handlers) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	var doc *domain.Document
	var err error
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		doc, err = h.uploadFile(c)
	} else {
		var in domain.NewDocument
		if in, err = readJSONUpload(c); err == nil {
			doc, err = h.ports.Documents.Add(c.Request.Context(), in)
		}
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": doc.ID, "status": doc.Status})
}

func readJSONUpload(c *gin.Context) (domain.NewDocument, error) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return domain.NewDocument{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	category, err := parseCategory(req.Category)
	if err != nil {
		return domain.NewDocument{}, err
	}
	return domain.NewDocument{
		Title:       req.Title,
		Description: req.Description,
		Category:    category,
		Content:     req.Content,
	}, nil
}

// uploadFile stores a multipart "file" field. With an importer the file is
// normalised by format; otherwise its bytes are taken as plain text.
func (h *handlers) uploadFile(c *gin.Context) (*domain.Document, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: file is required", domain.ErrInvalidInput)
	}
	if header.Size > h.maxUpload {
		return nil, fmt.Errorf("%w: file too large", domain.ErrInvalidInput)
	}
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	category, err := parseCategory(c.PostForm("category"))
	if err != nil {
		return nil, err
	}
	in := domain.NewDocument{
		Title:       strings.TrimSpace(c.PostForm("title")),
		Description: c.PostForm("description"),
		Category:    category,
	}

	if h.ports.Importer != nil {
		file := domain.RawFile{
			Filename: header.Filename,
			MIMEType: header.Header.Get("Content-Type"),
			Content:  data,
		}
		return h.ports.Importer.Import(c.Request.Context(), file, in)
	}

	if in.Title == "" {
		in.Title = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}
	in.Content = string(data)
	return h.ports.Documents.Add(c.Request.Context(), in)
}

func parseCategory(s string) (domain.Category, error) {
	if strings.TrimSpace(s) == "" {
		return domain.CategoryKnowledge, nil
	}
	return domain.ParseCategory(s)
}

// POST /api/train
func (h *handlers) train(c *gin.Context) {
	var req TrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	ids := req.DocumentIDs
	if len(ids) == 0 && req.All {
		docs, err := h.ports.Documents.List(c.Request.Context(), domain.DocumentFilter{})
		if err != nil {
			respondError(c, err)
			return
		}
		for i := range docs {
			ids = append(ids, docs[i].ID)
		}
	}

	jobID, err := h.ports.Ingestion.Submit(c.Request.Context(), ids)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"trainingId": jobID})
}

// GET /api/train/:id/status
func (h *handlers) trainStatus(c *gin.Context) {
	job, err := h.ports.Ingestion.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, TrainStatus{
		ID:        job.ID,
		State:     job.State,
		Progress:  job.Progress,
		Processed: job.Processed,
		Total:     job.Total,
		Message:   job.Message,
		Completed: job.Completed(),
		Success:   job.Success,
		Failures:  job.Failures,
	})
}

// GET /api/documents
func (h *handlers) listDocuments(c *gin.Context) {
	filter := domain.DocumentFilter{
		Category: domain.Category(strings.ToLower(c.Query("category"))),
		Status:   domain.DocumentStatus(strings.ToLower(c.Query("status"))),
	}
	docs, err := h.ports.Documents.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	for i := range docs {
		docs[i].Content = ""
	}
	respondOK(c, gin.H{"documents": docs, "count": len(docs)})
}

// GET /api/documents/:id
func (h *handlers) getDocument(c *gin.Context) {
	doc, err := h.ports.Documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, doc)
}

// DELETE /api/documents/:id
func (h *handlers) deleteDocument(c *gin.Context) {
	if err := h.ports.Documents.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/ask
func (h *handlers) ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	answer, err := h.ports.Ask.Ask(c.Request.Context(), req.Question)
	if errors.Is(err, domain.ErrNoKnowledge) {
		respondOK(c, AskResponse{Answer: domain.NoKnowledgeAnswer, Sources: []domain.SourceRef{}, NoKnowledge: true})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, AskResponse{
		Answer:        answer.Text,
		Sources:       answer.Sources,
		Confidence:    answer.Confidence,
		LowConfidence: answer.LowConfidence,
	})
}

// GET /api/find?skills=rust,go
func (h *handlers) find(c *gin.Context) {
	opts := domain.FindOptions{}
	if v := c.Query("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			respondError(c, fmt.Errorf("%w: available must be a boolean", domain.ErrInvalidInput))
			return
		}
		opts.AvailableOnly = available
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			respondError(c, fmt.Errorf("%w: limit must be a non-negative integer", domain.ErrInvalidInput))
			return
		}
		opts.Limit = limit
	}

	matches, err := h.ports.Skills.Find(c.Request.Context(), c.Query("skills"), opts)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{"members": matches, "count": len(matches)}
	if len(matches) == 0 {
		known, err := h.ports.Skills.Skills(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		body["knownSkills"] = known
	}
	respondOK(c, body)
}
