package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kilo/kilo_backend/config"
	"github.com/kilo/kilo_backend/models"
	"github.com/kilo/kilo_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const ExtractionHandlerName = "ai_extraction"

var ErrMalformedEvent = errors.New("malformed extraction event")

// ExtractionEvent is pushed by the AI extraction service when a document
// changes processing state.
type ExtractionEvent struct {
	DocumentID      string          `json:"document_id" validate:"required,max=36"`
	Status          models.AiStatus `json:"status" validate:"required,oneof=processing success failed"`
	AiData          json.RawMessage `json:"ai_data"`
	ConfidenceScore *float64        `json:"confidence_score" validate:"omitempty,gte=0,lte=1"`
	ErrorMessage    string          `json:"error_message"`
	ProcessedAt     *time.Time      `json:"processed_at"`
}

// Validate checks the struct tags, and that a success carries a JSON object.
func (e ExtractionEvent) Validate() error {
	if err := utils.ValidateStruct(e); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, utils.ProcessValidationErrors(err))
	}
	if e.Status == models.AiStatusSuccess {
		raw := bytes.TrimSpace(e.AiData)
		if len(raw) == 0 || raw[0] != '{' {
			return fmt.Errorf("%w: ai_data must be a JSON object on success", ErrMalformedEvent)
		}
	}
	return nil
}

func (e ExtractionEvent) outcome() models.ExtractionOutcome {
	out := models.ExtractionOutcome{
		Status:       e.Status,
		AiData:       e.AiData,
		Confidence:   e.ConfidenceScore,
		ErrorMessage: e.ErrorMessage,
	}
	if e.ProcessedAt != nil {
		out.ProcessedAt = e.ProcessedAt.UTC()
	}
	return out
}

// IsPermanent reports errors that redelivery cannot fix. Push handlers ack them.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrMalformedEvent) ||
		errors.Is(err, utils.ErrorRecordNotFound) ||
		errors.Is(err, models.ErrInvalidAiTransition)
}

// ExtractionApplier records the AI status of a document together with its
// extracted activity entry.
type ExtractionApplier interface {
	ApplyExtraction(ctx context.Context, id string, out models.ExtractionOutcome) (*models.Document, bool, error)
}

type ExtractionProcessor struct {
	Idempotency IdempotencyGuard
	Extractions ExtractionApplier
	Validator   *DocumentValidator
	Logger      *logrus.Logger
}

// ProcessExtractionEvent handles one delivery against MySQL.
func ProcessExtractionEvent(ctx context.Context, db *gorm.DB, logger *logrus.Logger, validator *DocumentValidator, messageID string, evt ExtractionEvent) error {
	p := &ExtractionProcessor{
		Idempotency: GormIdempotency{DB: db},
		Extractions: models.NewGormValidationStore(db),
		Validator:   validator,
		Logger:      logger,
	}
	return p.Process(ctx, messageID, evt)
}

// Process applies the status change once per message id and, when the
// extraction succeeded, validates the document.
func (p *ExtractionProcessor) Process(ctx context.Context, messageID string, evt ExtractionEvent) error {
	if err := evt.Validate(); err != nil {
		return err
	}
	if messageID == "" {
		return fmt.Errorf("%w: message id is required", ErrMalformedEvent)
	}
	ctx = utils.WithoutParticipantScope(ctx)

	skip, err := p.Idempotency.Begin(ctx, ExtractionHandlerName, messageID, evt.DocumentID)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	err = p.apply(ctx, evt)
	if err != nil {
		if markErr := p.Idempotency.Failed(ctx, ExtractionHandlerName, messageID, err); markErr != nil {
			config.LogError(p.logger(), moduleName, "Process", "mark idempotency failed", messageID, markErr)
		}
		return err
	}
	return p.Idempotency.Succeeded(ctx, ExtractionHandlerName, messageID)
}

func (p *ExtractionProcessor) apply(ctx context.Context, evt ExtractionEvent) error {
	doc, changed, err := p.Extractions.ApplyExtraction(ctx, evt.DocumentID, evt.outcome())
	if err != nil {
		return err
	}
	// A redelivered success still validates when the earlier run never stored a result.
	if doc.AiStatus != models.AiStatusSuccess || p.Validator == nil {
		return nil
	}
	if !changed && len(bytes.TrimSpace(doc.ValidationResult)) > 0 {
		return nil
	}
	_, err = p.Validator.ValidateDocument(ctx, doc.ID, "")
	return err
}

func (p *ExtractionProcessor) logger() *logrus.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return config.GetLogger()
}
