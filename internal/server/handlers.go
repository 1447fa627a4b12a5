package server

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/aimentor/internal/chat"
	"github.com/abhisek/aimentor/internal/command"
	"github.com/abhisek/aimentor/internal/edu"
	"github.com/abhisek/aimentor/internal/llm"
	"github.com/abhisek/aimentor/internal/logger"
	"github.com/abhisek/aimentor/internal/store"
)

// ChatService runs dialogue turns.
type ChatService interface {
	SendMessageWithImage(ctx context.Context, studentID int64, text string, img *llm.Image) (*chat.Reply, error)
}

// EduService reads students and course material.
type EduService interface {
	GetStudent(ctx context.Context, id int64) (*store.Student, error)
	CreateGuestStudent(ctx context.Context) (*store.Student, error)
	DownloadTopicContent(ctx context.Context, contentType string, topicID int64) (*edu.Download, error)
	DownloadBlockContent(ctx context.Context, blockID int64) (*edu.Download, error)
}

// SchemaManager creates and drops the relational schema.
type SchemaManager interface {
	Migrate(ctx context.Context) error
	Drop(ctx context.Context) error
}

type ChatHandler struct {
	svc ChatService
	log *logger.Logger
}

func NewChatHandler(svc ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, log: log}
}

type imagePayload struct {
	MediaType string `json:"media_type"`
	Data      string `json:"data" binding:"required"`
}

type sendMessageRequest struct {
	StudentID int64         `json:"student_id" binding:"required"`
	Text      string        `json:"text" binding:"required"`
	Image     *imagePayload `json:"image"`
}

type sendMessageResponse struct {
	UserMessage string            `json:"user_message"`
	Commands    []command.Command `json:"commands"`
	Results     []command.Result  `json:"results,omitempty"`
}

// SendMessage handles POST /chat/message/send.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	var img *llm.Image
	if req.Image != nil {
		img = &llm.Image{MediaType: req.Image.MediaType, Data: req.Image.Data}
	}

	reply, err := h.svc.SendMessageWithImage(c.Request.Context(), req.StudentID, req.Text, img)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, sendMessageResponse{
		UserMessage: reply.UserMessage,
		Commands:    reply.Commands,
		Results:     reply.Results,
	})
}

type EduHandler struct {
	svc EduService
	log *logger.Logger
}

func NewEduHandler(svc EduService, log *logger.Logger) *EduHandler {
	return &EduHandler{svc: svc, log: log}
}

// GetStudent handles GET /edu/student/:student_id.
func (h *EduHandler) GetStudent(c *gin.Context) {
	id, ok := pathID(c, "student_id")
	if !ok {
		return
	}
	st, err := h.svc.GetStudent(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, st)
}

// CreateStudent handles POST /edu/student.
func (h *EduHandler) CreateStudent(c *gin.Context) {
	st, err := h.svc.CreateGuestStudent(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// DownloadTopicContent handles GET /edu/topic/download/:edu_content_type/:topic_id.
func (h *EduHandler) DownloadTopicContent(c *gin.Context) {
	id, ok := pathID(c, "topic_id")
	if !ok {
		return
	}
	d, err := h.svc.DownloadTopicContent(c.Request.Context(), c.Param("edu_content_type"), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	sendFile(c, d)
}

// DownloadBlockContent handles GET /edu/block/download/:block_id.
func (h *EduHandler) DownloadBlockContent(c *gin.Context) {
	id, ok := pathID(c, "block_id")
	if !ok {
		return
	}
	d, err := h.svc.DownloadBlockContent(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	sendFile(c, d)
}

func sendFile(c *gin.Context, d *edu.Download) {
	if d.Name != "" {
		c.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": d.Name}))
	}
	c.Data(http.StatusOK, d.ContentType, d.Data)
}

type AdminHandler struct {
	schema SchemaManager
	log    *logger.Logger
}

func NewAdminHandler(schema SchemaManager, log *logger.Logger) *AdminHandler {
	return &AdminHandler{schema: schema, log: log}
}

// CreateTables handles GET /table/create.
func (h *AdminHandler) CreateTables(c *gin.Context) {
	if err := h.schema.Migrate(c.Request.Context()); err != nil {
		respondServiceError(c, err)
		return
	}
	h.log.Info("tables created")
	RespondOK(c, gin.H{"status": "created"})
}

// DropTables handles GET /table/drop.
func (h *AdminHandler) DropTables(c *gin.Context) {
	if err := h.schema.Drop(c.Request.Context()); err != nil {
		respondServiceError(c, err)
		return
	}
	h.log.Warn("tables dropped")
	RespondOK(c, gin.H{"status": "dropped"})
}

func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// pathID parses a positive integer path parameter, responding 400 when it
// is not one.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err == nil && id <= 0 {
		err = errors.New("must be positive")
	}
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid %s %q: %w", name, c.Param(name), err))
		return 0, false
	}
	return id, true
}
