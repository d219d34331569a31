package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/kilo/kilo_backend/config"
	"github.com/kilo/kilo_backend/models"
	"github.com/kilo/kilo_backend/reconcile"
	"github.com/kilo/kilo_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	moduleName     = "workflow"
	publishTimeout = 10 * time.Second
)

var ErrNoExtraction = errors.New("document has no successful ai extraction")

var tracer trace.Tracer = otel.Tracer("github.com/kilo/kilo_backend/workflow")

// ValidationStore is everything a validation run reads and writes.
type ValidationStore interface {
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	SaveValidationResult(ctx context.Context, id string, res reconcile.ValidationResult) error
	RecordActivity(ctx context.Context, entry *models.ActivityLog) error
	Notify(ctx context.Context, n *models.Notification) error
}

// EventPublisher announces a fresh validation result to other services.
type EventPublisher interface {
	PublishValidationEvent(ctx context.Context, evt config.ValidationEvent) (string, error)
}

// PubSubPublisher publishes through the shared Pub/Sub client.
type PubSubPublisher struct{}

func (PubSubPublisher) PublishValidationEvent(ctx context.Context, evt config.ValidationEvent) (string, error) {
	return config.PublishValidationEvent(ctx, evt)
}

type DocumentValidator struct {
	Store     ValidationStore
	Engine    *reconcile.Engine
	Publisher EventPublisher
	Logger    *logrus.Logger
	Now       func() time.Time
}

// NewDocumentValidator wires the validator with env thresholds.
func NewDocumentValidator(store ValidationStore, publisher EventPublisher, logger *logrus.Logger) *DocumentValidator {
	return &DocumentValidator{
		Store:     store,
		Engine:    reconcile.NewEngine(config.ReconcileThresholds()),
		Publisher: publisher,
		Logger:    logger,
	}
}

// ValidationOutcome is a finished run. Persisted is false when the
// write-back failed; Result is still authoritative for the caller.
type ValidationOutcome struct {
	Document  *models.Document
	Order     *models.Order
	Result    reconcile.ValidationResult
	Persisted bool
}

func (v *DocumentValidator) logger() *logrus.Logger {
	if v.Logger != nil {
		return v.Logger
	}
	return config.GetLogger()
}

func (v *DocumentValidator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now().UTC()
}

// Validate reconciles a document against its order and returns the result.
func (v *DocumentValidator) Validate(ctx context.Context, documentID string) (*reconcile.ValidationResult, error) {
	out, err := v.ValidateDocument(ctx, documentID, "")
	if err != nil {
		return nil, err
	}
	return &out.Result, nil
}

// ValidateDocument runs the engine for one document. actorID is the user who
// triggered the run, or "" for automatic runs. Write-back, activity,
// notification and event publishing are best-effort.
func (v *DocumentValidator) ValidateDocument(ctx context.Context, documentID string, actorID string) (*ValidationOutcome, error) {
	ctx, span := tracer.Start(ctx, "DocumentValidator.ValidateDocument",
		trace.WithAttributes(attribute.String("document.id", documentID)))
	defer span.End()

	logger := v.logger()

	doc, err := v.Store.GetDocument(ctx, documentID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !doc.HasExtraction() {
		return nil, ErrNoExtraction
	}
	order, err := v.Store.GetOrder(ctx, doc.OrderId)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res := v.Reconcile(doc, order)
	span.SetAttributes(
		attribute.Float64("validation.match_percentage", res.MatchPercentage),
		attribute.String("validation.disposition", string(res.Disposition)),
	)

	out := &ValidationOutcome{Document: doc, Order: order, Result: res}
	previous := doc.MatchPercentage

	if err := v.Store.SaveValidationResult(ctx, documentID, res); err != nil {
		config.LogError(logger, moduleName, "ValidateDocument", "save validation result", documentID, err)
	} else {
		out.Persisted = true
		pct := res.MatchPercentage
		doc.MatchPercentage = &pct
		if b, err := res.JSON(); err == nil {
			doc.ValidationResult = b
		}
	}

	v.recordActivity(ctx, actorID, doc, previous, res)
	v.notify(ctx, order, doc, res)
	v.publish(ctx, order, doc, res)

	logger.WithFields(logrus.Fields{
		"module":           moduleName,
		"document_id":      documentID,
		"order_id":         order.ID,
		"match_percentage": res.MatchPercentage,
		"disposition":      res.Disposition,
		"persisted":        out.Persisted,
	}).Info("document validated")
	return out, nil
}

// Reconcile runs the engine on the stored extraction without side effects.
// An unreadable payload degrades to "no validation data".
func (v *DocumentValidator) Reconcile(doc *models.Document, order *models.Order) reconcile.ValidationResult {
	payload, err := doc.Payload()
	if err != nil {
		config.LogError(v.logger(), moduleName, "Reconcile", "decode ai_data", doc.ID, err)
		payload = map[string]any{}
	}
	return v.Engine.Validate(order.ReconcileValues(), payload)
}

func (v *DocumentValidator) recordActivity(ctx context.Context, actorID string, doc *models.Document, previous *float64, res reconcile.ValidationResult) {
	oldValue := map[string]any{"match_percentage": previous}
	newValue := map[string]any{
		"match_percentage":  res.MatchPercentage,
		"checks_considered": res.ChecksConsidered,
		"checks_matched":    res.ChecksMatched,
		"disposition":       res.Disposition,
	}
	entry, err := models.NewActivityLog(actorID, models.ActivityActionValidated, "document", doc.ID, oldValue, newValue)
	if err == nil {
		err = v.Store.RecordActivity(ctx, entry)
	}
	if err != nil {
		config.LogError(v.logger(), moduleName, "recordActivity", "record validation activity", doc.ID, err)
	}
}

func (v *DocumentValidator) notify(ctx context.Context, order *models.Order, doc *models.Document, res reconcile.ValidationResult) {
	if order.ImporterId == "" {
		return
	}
	n := models.NewValidationNotification(order, doc, res)
	if err := v.Store.Notify(ctx, &n); err != nil {
		config.LogError(v.logger(), moduleName, "notify", "create validation notification", doc.ID, err)
	}
}

func (v *DocumentValidator) publish(ctx context.Context, order *models.Order, doc *models.Document, res reconcile.ValidationResult) {
	if v.Publisher == nil {
		return
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	_, err := v.Publisher.PublishValidationEvent(ctx, config.ValidationEvent{
		DocumentID:      doc.ID,
		OrderID:         order.ID,
		MatchPercentage: res.MatchPercentage,
		Disposition:     string(res.Disposition),
		ValidatedAt:     v.now(),
		CorrelationId:   correlationId,
	})
	if err != nil && !errors.Is(err, config.ErrPublishingDisabled) {
		v.logger().WithFields(logrus.Fields{
			"module":      moduleName,
			"document_id": doc.ID,
			"error":       err.Error(),
		}).Warn("failed to publish validation event")
	}
}
