package models

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kilo/kilo_backend/config"
	"github.com/kilo/kilo_backend/reconcile"
	"github.com/kilo/kilo_backend/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidAiTransition    = errors.New("invalid ai status transition")
	ErrDocumentAlreadyDecided = errors.New("document already approved or rejected")
	ErrRejectReasonRequired   = errors.New("reject reason is required")
)

type Document struct {
	ID                 string           `gorm:"primaryKey;size:36" json:"id"`
	OrderId            string           `gorm:"size:36;not null;index" json:"order_id"`
	Category           DocumentCategory `gorm:"size:40;not null" json:"category"`
	FileName           string           `gorm:"size:255" json:"file_name"`
	FileUrl            string           `gorm:"type:text" json:"file_url"`
	FileSizeBytes      *int64           `json:"file_size_bytes"`
	MimeType           string           `gorm:"size:100" json:"mime_type"`
	AiStatus           AiStatus         `gorm:"size:20;not null;default:pending;index" json:"ai_status"`
	AiData             datatypes.JSON   `json:"ai_data"`
	AiConfidenceScore  *float64         `json:"ai_confidence_score"`
	AiProcessedAt      *time.Time       `json:"ai_processed_at"`
	AiErrorMessage     *string          `gorm:"type:text" json:"ai_error_message"`
	ApprovalStatus     ApprovalStatus   `gorm:"size:20;not null;default:pending" json:"approval_status"`
	ValidationResult   datatypes.JSON   `json:"validation_result"`
	MatchPercentage    *float64         `json:"match_percentage"`
	ApprovedBy         *string          `gorm:"size:36" json:"approved_by"`
	ApprovedAt         *time.Time       `json:"approved_at"`
	RejectedReason     *string          `gorm:"type:text" json:"rejected_reason"`
	UploaderId         string           `gorm:"size:36" json:"uploader_id"`
	Version            int              `gorm:"not null;default:1" json:"version"`
	ReplacesDocumentId *string          `gorm:"size:36" json:"replaces_document_id"`
	Notes              string           `gorm:"type:text" json:"notes"`
	CreatedAt          time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Document) TableName() string { return "documents" }

// HasExtraction reports whether the AI step finished and left a payload.
func (d *Document) HasExtraction() bool {
	if d.AiStatus != AiStatusSuccess {
		return false
	}
	raw := bytes.TrimSpace(d.AiData)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// Payload decodes ai_data.
func (d *Document) Payload() (map[string]any, error) {
	return reconcile.DecodePayload(d.AiData)
}

// StoredValidation decodes validation_result. ok is false when the document
// was never validated.
func (d *Document) StoredValidation() (res reconcile.ValidationResult, ok bool, err error) {
	raw := bytes.TrimSpace(d.ValidationResult)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return res, false, nil
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return res, false, fmt.Errorf("decode validation_result: %w", err)
	}
	return res, true, nil
}

func GetDocument(ctx context.Context, id string) (*Document, error) {
	return getDocument(config.GetDB().WithContext(ctx), id)
}

func getDocument(db *gorm.DB, id string) (*Document, error) {
	var doc Document
	if err := db.Where("id = ?", id).Take(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func ListOrderDocuments(ctx context.Context, orderId string) ([]Document, error) {
	var docs []Document
	err := config.GetDB().WithContext(ctx).
		Where("order_id = ?", orderId).
		Order("created_at ASC, id ASC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// SaveValidationResult overwrites the stored result and percentage together.
func SaveValidationResult(ctx context.Context, db *gorm.DB, id string, res reconcile.ValidationResult) error {
	b, err := res.JSON()
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Model(&Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"match_percentage":  res.MatchPercentage,
			"validation_result": datatypes.JSON(b),
		}).Error
}

// NextAiStatus checks an ai_status move. Re-delivering the current status is
// a no-op; a failed extraction may be retried.
func NextAiStatus(from, to AiStatus) (noop bool, err error) {
	if !to.IsValid() {
		return false, fmt.Errorf("%w: unknown status %q", ErrInvalidAiTransition, to)
	}
	if from == "" {
		from = AiStatusPending
	}
	if from == to {
		return true, nil
	}
	switch from {
	case AiStatusPending:
		if to == AiStatusProcessing || to == AiStatusSuccess || to == AiStatusFailed {
			return false, nil
		}
	case AiStatusProcessing:
		if to == AiStatusSuccess || to == AiStatusFailed {
			return false, nil
		}
	case AiStatusFailed:
		if to == AiStatusProcessing || to == AiStatusSuccess {
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: %s -> %s", ErrInvalidAiTransition, from, to)
}

// ExtractionOutcome is what the AI service reported for one document.
type ExtractionOutcome struct {
	Status       AiStatus
	AiData       []byte
	Confidence   *float64
	ErrorMessage string
	ProcessedAt  time.Time
}

// ApplyExtraction moves ai_status under a row lock and records the extracted
// activity in the same transaction. changed is false when the same status was
// already recorded.
func ApplyExtraction(ctx context.Context, db *gorm.DB, id string, out ExtractionOutcome) (doc *Document, changed bool, err error) {
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Document
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}
		noop, err := NextAiStatus(current.AiStatus, out.Status)
		if err != nil {
			return err
		}
		if noop {
			doc = &current
			return nil
		}

		updates := map[string]interface{}{"ai_status": out.Status}
		switch out.Status {
		case AiStatusSuccess:
			processedAt := out.ProcessedAt
			if processedAt.IsZero() {
				processedAt = time.Now().UTC()
			}
			updates["ai_data"] = datatypes.JSON(out.AiData)
			updates["ai_confidence_score"] = out.Confidence
			updates["ai_processed_at"] = processedAt
			updates["ai_error_message"] = nil
		case AiStatusFailed:
			msg := strings.TrimSpace(out.ErrorMessage)
			if msg == "" {
				msg = "extraction failed"
			}
			updates["ai_error_message"] = msg
		}
		if err := tx.Model(&Document{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		entry, err := NewActivityLog("", ActivityActionExtracted, "document", id,
			map[string]any{"ai_status": current.AiStatus},
			map[string]any{"ai_status": out.Status},
		)
		if err != nil {
			return err
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		updated, err := getDocument(tx, id)
		if err != nil {
			return err
		}
		doc, changed = updated, true
		return nil
	})
	return doc, changed, err
}

// ApproveDocument records the human approval and its activity entry.
func ApproveDocument(ctx context.Context, db *gorm.DB, id string, userId string) (*Document, error) {
	return decideDocument(ctx, db, id, userId, ApprovalStatusApproved, "")
}

// RejectDocument records the human rejection. reason must not be blank.
func RejectDocument(ctx context.Context, db *gorm.DB, id string, userId string, reason string) (*Document, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrRejectReasonRequired
	}
	return decideDocument(ctx, db, id, userId, ApprovalStatusRejected, reason)
}

func decideDocument(ctx context.Context, db *gorm.DB, id, userId string, status ApprovalStatus, reason string) (*Document, error) {
	var doc *Document
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Document
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}
		if current.ApprovalStatus.Decided() {
			return ErrDocumentAlreadyDecided
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"approval_status": status,
			"approved_by":     userId,
			"approved_at":     now,
		}
		if status == ApprovalStatusRejected {
			updates["rejected_reason"] = reason
		}
		if err := tx.Model(&Document{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		action := ActivityActionApproved
		if status == ApprovalStatusRejected {
			action = ActivityActionRejected
		}
		entry, err := NewActivityLog(userId, action, "document", id,
			map[string]any{"approval_status": current.ApprovalStatus},
			map[string]any{"approval_status": status, "rejected_reason": reason},
		)
		if err != nil {
			return err
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		updated, err := getDocument(tx, id)
		if err != nil {
			return err
		}
		doc = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
