package controllers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	dbpkg "docqa/db"
	"docqa/models"
	"docqa/rag"
	"docqa/tools"

	"github.com/gin-gonic/gin"
)

const previewChunkLen = 300
const previewListLen = 200

type DocumentUpdateRequest struct {
	Filename string `json:"filename" form:"filename"`
	Content  string `json:"content" form:"content"`
}

type QueryResponse struct {
	Answer string `json:"answer"`
}

func respondRAGError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rag.ErrUnsupportedFormat):
		RespondError(c, err.Error(), http.StatusUnsupportedMediaType)
	case errors.Is(err, rag.ErrIndexUnavailable), errors.Is(err, rag.ErrSynthesisUnavailable):
		RespondError(c, err.Error(), http.StatusBadGateway)
	default:
		RespondError(c, err.Error(), http.StatusInternalServerError)
	}
}

// POST /api/upload
//
// Chunks, embeds and upserts before touching the database, so a failed index
// write never leaves a Document row behind.
func Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		RespondError(c, "file is required", http.StatusBadRequest)
		return
	}

	file, err := header.Open()
	if err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	// Extension check comes first; nothing is embedded for unsupported files.
	text, fileType, err := rag.ExtractText(header.Filename, data)
	if err != nil {
		respondRAGError(c, err)
		return
	}

	service := rag.ServiceInstance(c)
	if service == nil {
		RespondError(c, "rag service not set in context", http.StatusInternalServerError)
		return
	}
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db not set in context", http.StatusInternalServerError)
		return
	}

	ref := header.Filename + "_" + tools.RandomString(8)
	chunks, err := service.StoreDocument(c.Request.Context(), ref, text)
	if err != nil {
		respondRAGError(c, err)
		return
	}

	doc := models.Document{
		Filename: header.Filename,
		FileType: fileType,
		Content:  rag.BuildPreview(chunks, previewChunkLen),
		IndexRef: ref,
	}
	if err := db.Create(&doc).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{"message": "Document '" + doc.Filename + "' stored successfully."})
}

// GET /api/query?q=...&k=4
func Query(c *gin.Context) {
	question := c.Query("q")
	if question == "" {
		RespondError(c, "q is required", http.StatusBadRequest)
		return
	}

	k := 0
	if raw := c.Query("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			RespondError(c, "k is invalid", http.StatusBadRequest)
			return
		}
		k = n
	}

	service := rag.ServiceInstance(c)
	if service == nil {
		RespondError(c, "rag service not set in context", http.StatusInternalServerError)
		return
	}

	answer, err := service.Query(c.Request.Context(), question, k)
	if err != nil {
		respondRAGError(c, err)
		return
	}
	RespondSuccess(c, QueryResponse{Answer: answer})
}

// GET /api/documents
func GetDocuments(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db not set in context", http.StatusInternalServerError)
		return
	}
	var docs []models.Document
	if err := db.Order("id asc").Find(&docs).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	out := make([]gin.H, 0, len(docs))
	for _, d := range docs {
		out = append(out, gin.H{
			"id":              d.ID,
			"filename":        d.Filename,
			"file_type":       d.FileType,
			"content_preview": d.Preview(previewListLen),
		})
	}
	RespondSuccess(c, out)
}

// GET /api/documents/:id
func GetDocumentByID(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db not set in context", http.StatusInternalServerError)
		return
	}
	var doc models.Document
	if err := db.First(&doc, id).Error; err != nil {
		RespondError(c, "document not found", http.StatusNotFound)
		return
	}
	RespondSuccess(c, gin.H{"document": doc})
}

// PUT /api/documents/:id
//
// Absent fields are left unchanged. A new content re-indexes the document's
// vectors under the same ref before the row is saved.
func UpdateDocument(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}

	var body DocumentUpdateRequest
	if err := c.Bind(&body); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db not set in context", http.StatusInternalServerError)
		return
	}

	var doc models.Document
	if err := db.First(&doc, id).Error; err != nil {
		RespondError(c, "document not found", http.StatusNotFound)
		return
	}

	if body.Filename != "" {
		doc.Filename = body.Filename
	}
	if body.Content != "" {
		service := rag.ServiceInstance(c)
		if service == nil {
			RespondError(c, "rag service not set in context", http.StatusInternalServerError)
			return
		}
		chunks, err := service.ReplaceDocument(c.Request.Context(), doc.IndexRef, body.Content)
		if err != nil {
			respondRAGError(c, err)
			return
		}
		doc.Content = rag.BuildPreview(chunks, previewChunkLen)
	}

	if err := db.Save(&doc).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"message": "Document '" + doc.Filename + "' updated successfully."})
}

// DELETE /api/documents/:id
//
// Retracts the document's vectors before removing the row. Retraction is best
// effort: a dead index must not make delete fail forever.
func DeleteDocument(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db not set in context", http.StatusInternalServerError)
		return
	}

	var doc models.Document
	if err := db.First(&doc, id).Error; err != nil {
		RespondError(c, "document not found", http.StatusNotFound)
		return
	}

	if service := rag.ServiceInstance(c); service != nil && doc.IndexRef != "" {
		if err := service.RemoveDocument(c.Request.Context(), doc.IndexRef); err != nil {
			log.Printf("failed to retract vectors for document %d (%s): %v", doc.ID, doc.IndexRef, err)
		}
	}

	if err := db.Delete(&models.Document{}, "id = ?", doc.ID).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"message": "Document '" + doc.Filename + "' deleted successfully."})
}
