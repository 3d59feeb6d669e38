package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"worry_solver/internal/config"
	"worry_solver/internal/domain"
	"worry_solver/internal/http/dto"
	"worry_solver/internal/http/resp"
	"worry_solver/internal/model"
	"worry_solver/internal/queue"
	"worry_solver/internal/service/worry"
	"worry_solver/internal/sse"
)

const defaultHeartbeat = 15 * time.Second

type Handler struct {
	cfg *config.Config
	svc *worry.Service
	hub *sse.Hub
	log *zap.Logger
	pub queue.Publisher
}

func NewHandler(cfg *config.Config, svc *worry.Service, hub *sse.Hub, logger *zap.Logger, publisher queue.Publisher) *Handler {
	return &Handler{cfg: cfg, svc: svc, hub: hub, log: logger, pub: publisher}
}

func (h *Handler) SubmitWorry(c *gin.Context) {
	var req dto.SubmitWorryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "invalid json"})
		return
	}
	record, err := h.svc.Submit(c.Request.Context(), worry.Submission{
		UserID:            req.UserID,
		ConfessionText:    req.ConfessionText,
		SelectedTags:      req.SelectedTags,
		PrivacyOption:     req.PrivacyOption,
		EmailNotification: req.EmailNotification,
		Email:             req.Email,
	})
	if err != nil {
		h.writeError(c, err, "failed to submit worry")
		return
	}
	c.JSON(http.StatusCreated, dto.SubmitWorryResponse{AccessCode: record.AccessCode, Record: record})
}

func (h *Handler) CurrentCode(c *gin.Context) {
	code, err := h.svc.CurrentCode(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Code: resp.CodeNotFound, Message: "no current access code"})
		return
	}
	c.JSON(http.StatusOK, dto.CurrentCodeResponse{AccessCode: code})
}

func (h *Handler) GetWorry(c *gin.Context) {
	record, err := h.svc.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.writeError(c, err, "failed to load worry")
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) HeadWorry(c *gin.Context) {
	if !h.svc.Exists(c.Request.Context(), c.Param("code")) {
		c.Status(http.StatusNotFound)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) AddReply(c *gin.Context) {
	var req dto.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "invalid json"})
		return
	}
	event, err := h.svc.AddReply(c.Request.Context(), c.Param("code"), worry.ReplyInput{
		ReplyText:   req.ReplyText,
		ReplierName: req.ReplierName,
	}, worry.SourceHTTP)
	if err != nil {
		h.writeError(c, err, "failed to add reply")
		return
	}
	c.JSON(http.StatusCreated, event)
}

// PublishReply queues the reply on RabbitMQ; the consumer appends it.
func (h *Handler) PublishReply(c *gin.Context) {
	var req dto.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "invalid json"})
		return
	}
	code := domain.NormalizeAccessCode(c.Param("code"))
	if !domain.IsValidAccessCode(code) {
		h.writeError(c, domain.ErrInvalidAccessCode, "")
		return
	}
	if !h.svc.Exists(c.Request.Context(), code) {
		h.writeError(c, domain.ErrRecordNotFound, "")
		return
	}
	if strings.TrimSpace(req.ReplyText) == "" {
		h.writeError(c, domain.ErrEmptyReply, "")
		return
	}

	payload, err := json.Marshal(map[string]string{
		"accessCode":  code,
		"replyText":   req.ReplyText,
		"replierName": req.ReplierName,
	})
	if err != nil {
		h.log.Error("publish payload marshal failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "failed to publish reply"})
		return
	}

	prefix := h.cfg.RabbitReplyPrefix
	if prefix == "" {
		prefix = "reply"
	}
	if err := h.pub.Publish(c.Request.Context(), payload, prefix+"."+code); err != nil {
		h.log.Error("publish reply failed", zap.String("access_code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "failed to publish reply"})
		return
	}

	c.JSON(http.StatusAccepted, dto.StatusResponse{Code: resp.CodeQueued, Message: "queued"})
}

func (h *Handler) Reset(c *gin.Context) {
	if err := h.svc.Reset(c.Request.Context()); err != nil {
		h.writeError(c, err, "failed to clear records")
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Code: resp.CodeOK, Message: "cleared"})
}

// SSE replays the replies already stored for the code, then streams new ones.
func (h *Handler) SSE(c *gin.Context) {
	code := domain.NormalizeAccessCode(c.Param("code"))
	if !domain.IsValidAccessCode(code) {
		h.writeError(c, domain.ErrInvalidAccessCode, "")
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.log.Error("streaming unsupported", zap.String("access_code", code))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "streaming unsupported"})
		return
	}

	// Register before reading so no reply falls between replay and live.
	client := &sse.Client{
		AccessCode: code,
		Ch:         make(chan model.ReplyEvent, 16),
	}
	if !h.hub.Register(client) {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "shutting down"})
		return
	}
	defer h.hub.Unregister(client)

	record, err := h.svc.Peek(c.Request.Context(), code)
	if err != nil {
		h.writeError(c, err, "failed to load worry")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	for i, reply := range record.Replies {
		event := model.ReplyEvent{AccessCode: code, Index: i, Reply: reply}
		if err := writeReply(c.Writer, event); err != nil {
			h.log.Error("write stored reply failed", zap.String("access_code", code), zap.Error(err))
			return
		}
	}
	flusher.Flush()
	replayed := len(record.Replies)

	interval := h.cfg.SSEHeartbeat
	if interval <= 0 {
		interval = defaultHeartbeat
	}
	heartbeat := time.NewTicker(interval)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(c.Writer, ": ping\n\n"); err != nil {
				h.log.Error("heartbeat write failed", zap.String("access_code", code), zap.Error(err))
				return
			}
			flusher.Flush()
		case event, ok := <-client.Ch:
			if !ok {
				return
			}
			if event.Index < replayed {
				continue
			}
			if err := writeReply(c.Writer, event); err != nil {
				h.log.Error("write reply failed", zap.String("access_code", code), zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidAccessCode):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeInvalidCode, Message: "access code must look like XXXX-XXXX-XXXX"})
	case errors.Is(err, domain.ErrEmptyConfession):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "confessionText is required"})
	case errors.Is(err, domain.ErrInvalidPrivacyOption):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "privacyOption must be one of: public, private, anonymous"})
	case errors.Is(err, domain.ErrEmptyReply):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "replyText is required"})
	case errors.Is(err, domain.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Code: resp.CodeNotFound, Message: "worry not found"})
	case errors.Is(err, domain.ErrResetDisabled):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Code: resp.CodeForbidden, Message: "reset is disabled"})
	case errors.Is(err, domain.ErrCodeSpaceExhausted):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Code: resp.CodeCodeExhausted, Message: "could not allocate an access code"})
	case errors.Is(err, domain.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Code: resp.CodeStoreFailure, Message: "record store unavailable"})
	default:
		h.log.Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: fallback})
	}
}

func writeReply(w http.ResponseWriter, event model.ReplyEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	// id is the reply's position in the record so clients can dedupe.
	_, err = fmt.Fprintf(w, "id: %d\nevent: reply\ndata: %s\n\n", event.Index, payload)
	return err
}
