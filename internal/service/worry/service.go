package worry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"worry_solver/internal/config"
	"worry_solver/internal/domain"
	"worry_solver/internal/metrics"
	"worry_solver/internal/model"
	"worry_solver/internal/queue"
	"worry_solver/internal/sse"
)

const (
	SourceHTTP  = "http"
	SourceQueue = "queue"

	anonymousReplier = "Anonymous"
)

type RecordStore interface {
	Store(ctx context.Context, code string, record model.Record) bool
	Retrieve(ctx context.Context, code string) (model.Record, bool)
	Exists(ctx context.Context, code string) bool
	Update(ctx context.Context, code string, fn func(record *model.Record) bool) (model.Record, bool)
	ClearAll(ctx context.Context) bool
	SetCurrentCode(ctx context.Context, code string) bool
	CurrentCode(ctx context.Context) (string, bool)
}

type CodeGenerator interface {
	Generate(ctx context.Context) (string, error)
}

type Submission struct {
	UserID            string
	ConfessionText    string
	SelectedTags      []string
	PrivacyOption     string
	EmailNotification bool
	Email             string
}

type ReplyInput struct {
	ReplyText   string
	ReplierName string
}

type Service struct {
	cfg     *config.Config
	store   RecordStore
	codes   CodeGenerator
	hub     *sse.Hub
	pub     queue.Publisher
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

func NewService(cfg *config.Config, store RecordStore, codes CodeGenerator, hub *sse.Hub, publisher queue.Publisher, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		cfg:     cfg,
		store:   store,
		codes:   codes,
		hub:     hub,
		pub:     publisher,
		metrics: m,
		log:     logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Submit(ctx context.Context, in Submission) (model.Record, error) {
	text := strings.TrimSpace(in.ConfessionText)
	if text == "" {
		return model.Record{}, domain.ErrEmptyConfession
	}
	if !domain.IsValidPrivacyOption(in.PrivacyOption) {
		return model.Record{}, domain.ErrInvalidPrivacyOption
	}

	code, err := s.codes.Generate(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrCodeSpaceExhausted) {
			s.metrics.CodeExhaustions.Inc()
		}
		s.log.Error("generate access code failed", zap.Error(err))
		return model.Record{}, fmt.Errorf("generate access code: %w", err)
	}

	userID := in.UserID
	if userID == "" {
		userID = uuid.NewString()
	}
	record := model.Record{
		UserID:            userID,
		AccessCode:        code,
		ConfessionText:    text,
		SelectedTags:      cleanTags(in.SelectedTags),
		PrivacyOption:     in.PrivacyOption,
		EmailNotification: in.EmailNotification,
		Email:             strings.TrimSpace(in.Email),
		Timestamp:         model.FormatTimestamp(s.now()),
		Replies:           []model.Reply{},
	}
	if !s.store.Store(ctx, code, record) {
		s.metrics.StoreFailures.WithLabelValues("store").Inc()
		return model.Record{}, domain.ErrStoreUnavailable
	}
	if !s.store.SetCurrentCode(ctx, code) {
		s.metrics.StoreFailures.WithLabelValues("set_current_code").Inc()
		s.log.Warn("current access code not saved", zap.String("access_code", code))
	}
	s.metrics.Submissions.Inc()
	s.publishSubmitted(ctx, record)
	return record, nil
}

// Lookup returns the record and counts the view. The count is a
// read-then-write under the medium's update lock: safe within one process,
// not across processes sharing a file directory.
func (s *Service) Lookup(ctx context.Context, code string) (model.Record, error) {
	code = domain.NormalizeAccessCode(code)
	if !domain.IsValidAccessCode(code) {
		s.metrics.Lookups.WithLabelValues("invalid").Inc()
		return model.Record{}, domain.ErrInvalidAccessCode
	}
	record, ok := s.store.Update(ctx, code, func(record *model.Record) bool {
		record.Views++
		return true
	})
	if !ok {
		// The write may have failed on a record that is still readable.
		record, ok = s.store.Retrieve(ctx, code)
		if !ok {
			s.metrics.Lookups.WithLabelValues("not_found").Inc()
			return model.Record{}, domain.ErrRecordNotFound
		}
		s.metrics.StoreFailures.WithLabelValues("count_view").Inc()
		s.log.Warn("view not counted", zap.String("access_code", code))
	}
	s.metrics.Lookups.WithLabelValues("found").Inc()
	return record, nil
}

// Peek returns the record without counting a view.
func (s *Service) Peek(ctx context.Context, code string) (model.Record, error) {
	code = domain.NormalizeAccessCode(code)
	if !domain.IsValidAccessCode(code) {
		return model.Record{}, domain.ErrInvalidAccessCode
	}
	record, ok := s.store.Retrieve(ctx, code)
	if !ok {
		return model.Record{}, domain.ErrRecordNotFound
	}
	return record, nil
}

func (s *Service) Exists(ctx context.Context, code string) bool {
	return s.store.Exists(ctx, domain.NormalizeAccessCode(code))
}

func (s *Service) AddReply(ctx context.Context, code string, in ReplyInput, source string) (model.ReplyEvent, error) {
	code = domain.NormalizeAccessCode(code)
	if !domain.IsValidAccessCode(code) {
		return model.ReplyEvent{}, domain.ErrInvalidAccessCode
	}
	text := strings.TrimSpace(in.ReplyText)
	if text == "" {
		return model.ReplyEvent{}, domain.ErrEmptyReply
	}
	name := strings.TrimSpace(in.ReplierName)
	if name == "" {
		name = anonymousReplier
	}
	reply := model.Reply{
		ReplyText:   text,
		ReplierName: name,
		ReplyTime:   model.FormatTimestamp(s.now()),
	}

	record, ok := s.store.Update(ctx, code, func(record *model.Record) bool {
		record.Replies = append(record.Replies, reply)
		return true
	})
	if !ok {
		if s.store.Exists(ctx, code) {
			s.metrics.StoreFailures.WithLabelValues("add_reply").Inc()
			return model.ReplyEvent{}, domain.ErrStoreUnavailable
		}
		return model.ReplyEvent{}, domain.ErrRecordNotFound
	}
	event := model.ReplyEvent{
		AccessCode: code,
		Index:      len(record.Replies) - 1,
		Reply:      reply,
	}
	s.metrics.Replies.WithLabelValues(source).Inc()
	if !s.hub.Broadcast(event) {
		s.log.Debug("reply event not broadcast", zap.String("access_code", code))
	}
	return event, nil
}

func (s *Service) CurrentCode(ctx context.Context) (string, error) {
	code, ok := s.store.CurrentCode(ctx)
	if !ok {
		return "", domain.ErrRecordNotFound
	}
	return code, nil
}

func (s *Service) Reset(ctx context.Context) error {
	if !s.cfg.ResetEnabled {
		return domain.ErrResetDisabled
	}
	if !s.store.ClearAll(ctx) {
		s.metrics.StoreFailures.WithLabelValues("clear_all").Inc()
		return domain.ErrStoreUnavailable
	}
	s.log.Warn("record store cleared")
	return nil
}

func (s *Service) publishSubmitted(ctx context.Context, record model.Record) {
	payload, err := json.Marshal(model.SubmissionEvent{
		AccessCode:   record.AccessCode,
		SelectedTags: record.SelectedTags,
		Timestamp:    record.Timestamp,
	})
	if err != nil {
		s.log.Error("submission event marshal failed", zap.Error(err))
		return
	}
	if err := s.pub.Publish(ctx, payload, s.cfg.RabbitSubmittedKey); err != nil {
		s.log.Warn("publish submission event failed", zap.String("access_code", record.AccessCode), zap.Error(err))
	}
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
