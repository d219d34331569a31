package workflow

import (
	"context"
	"io"
	"sync"

	"github.com/kilo/kilo_backend/config"
	"github.com/kilo/kilo_backend/models"
	"github.com/kilo/kilo_backend/reconcile"
	"github.com/kilo/kilo_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// NOTE: These tests are DB-free. MySQL-backed behaviour (row locks, unique
// keys) needs an environment with a real database.

type fakeStore struct {
	mu            sync.Mutex
	docs          map[string]*models.Document
	orders        map[string]*models.Order
	saveErr       error
	saved         map[string]reconcile.ValidationResult
	activities    []*models.ActivityLog
	notifications []*models.Notification
	applied       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:   map[string]*models.Document{},
		orders: map[string]*models.Order{},
		saved:  map[string]reconcile.ValidationResult{},
	}
}

func (s *fakeStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *fakeStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *fakeStore) SaveValidationResult(ctx context.Context, id string, res reconcile.ValidationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved[id] = res
	b, _ := res.JSON()
	pct := res.MatchPercentage
	s.docs[id].ValidationResult = datatypes.JSON(b)
	s.docs[id].MatchPercentage = &pct
	return nil
}

func (s *fakeStore) RecordActivity(ctx context.Context, entry *models.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append(s.activities, entry)
	return nil
}

func (s *fakeStore) Notify(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *fakeStore) ApplyExtraction(ctx context.Context, id string, out models.ExtractionOutcome) (*models.Document, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, false, utils.ErrorRecordNotFound
	}
	noop, err := models.NextAiStatus(d.AiStatus, out.Status)
	if err != nil {
		return nil, false, err
	}
	if !noop {
		entry, err := models.NewActivityLog("", models.ActivityActionExtracted, "document", id,
			map[string]any{"ai_status": d.AiStatus}, map[string]any{"ai_status": out.Status})
		if err != nil {
			return nil, false, err
		}
		s.activities = append(s.activities, entry)
		d.AiStatus = out.Status
		if out.Status == models.AiStatusSuccess {
			d.AiData = datatypes.JSON(out.AiData)
		}
		s.applied++
	}
	cp := *d
	return &cp, !noop, nil
}

type fakeIdempotency struct {
	mu   sync.Mutex
	keys map[string]models.IdempotencyStatus
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{keys: map[string]models.IdempotencyStatus{}}
}

func (f *fakeIdempotency) Begin(ctx context.Context, handlerName, messageId, documentId string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := handlerName + "|" + messageId
	switch f.keys[key] {
	case models.IdempotencyStatusSucceeded:
		return true, nil
	case models.IdempotencyStatusStarted:
		return false, ErrIdempotencyInProgress
	}
	f.keys[key] = models.IdempotencyStatusStarted
	return false, nil
}

func (f *fakeIdempotency) Succeeded(ctx context.Context, handlerName, messageId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[handlerName+"|"+messageId] = models.IdempotencyStatusSucceeded
	return nil
}

func (f *fakeIdempotency) Failed(ctx context.Context, handlerName, messageId string, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[handlerName+"|"+messageId] = models.IdempotencyStatusFailed
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []config.ValidationEvent
	err    error
}

func (p *fakePublisher) PublishValidationEvent(ctx context.Context, evt config.ValidationEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, evt)
	return "msg-1", nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// seedKiwi stores the order/document pair used across the workflow tests.
func seedKiwi(s *fakeStore, aiStatus models.AiStatus, aiData string) {
	qty := int64(2000)
	s.orders["order-1"] = &models.Order{
		ID:            "order-1",
		ProductName:   "Kiwi",
		TotalQuantity: &qty,
		TotalAmount:   decimal.NewNullDecimal(decimal.NewFromInt(5000)),
		ImporterId:    "importer-1",
	}
	s.docs["doc-1"] = &models.Document{
		ID:       "doc-1",
		OrderId:  "order-1",
		FileName: "invoice.pdf",
		AiStatus: aiStatus,
		AiData:   datatypes.JSON(aiData),
	}
}

func newTestValidator(s *fakeStore, pub EventPublisher) *DocumentValidator {
	return &DocumentValidator{
		Store:     s,
		Engine:    reconcile.NewEngine(reconcile.DefaultThresholds()),
		Publisher: pub,
		Logger:    quietLogger(),
	}
}

const kiwiAiData = `{"total_amount": 5050, "product_name": "Kiwi Premium", "total_quantity": 2000, "invoice_number": "INV-001"}`
