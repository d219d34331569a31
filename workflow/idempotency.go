package workflow

import (
	"context"
	"errors"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/kilo/kilo_backend/models"
	"gorm.io/gorm"
)

var ErrIdempotencyInProgress = errors.New("idempotency in progress")

// staleAfter is how long a STARTED key blocks redelivery before it is taken over.
const staleAfter = 5 * time.Minute

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// BeginIdempotency inserts STARTED. If SUCCEEDED exists, returns (true, nil) meaning "skip safely".
func BeginIdempotency(tx *gorm.DB, handlerName, messageId, documentId string) (skip bool, err error) {
	key := models.IdempotencyKey{
		HandlerName: handlerName,
		MessageId:   messageId,
		DocumentId:  documentId,
		Status:      models.IdempotencyStatusStarted,
	}
	if err := tx.Create(&key).Error; err == nil {
		return false, nil
	} else if !isDuplicateKeyErr(err) {
		return false, err
	}

	var existing models.IdempotencyKey
	if err := tx.Where("handler_name = ? AND message_id = ?", handlerName, messageId).
		First(&existing).Error; err != nil {
		return false, err
	}

	switch existing.Status {
	case models.IdempotencyStatusSucceeded:
		return true, nil
	case models.IdempotencyStatusStarted:
		// Another worker is on it; let Pub/Sub redeliver later unless it went stale.
		if time.Since(existing.UpdatedAt) < staleAfter {
			return false, ErrIdempotencyInProgress
		}
	}
	return false, tx.Model(&models.IdempotencyKey{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{"status": models.IdempotencyStatusStarted, "last_error": nil}).Error
}

func MarkIdempotencySucceeded(tx *gorm.DB, handlerName, messageId string) error {
	return tx.Model(&models.IdempotencyKey{}).
		Where("handler_name = ? AND message_id = ?", handlerName, messageId).
		Updates(map[string]interface{}{"status": models.IdempotencyStatusSucceeded, "last_error": nil}).Error
}

func MarkIdempotencyFailed(tx *gorm.DB, handlerName, messageId string, err error) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return tx.Model(&models.IdempotencyKey{}).
		Where("handler_name = ? AND message_id = ?", handlerName, messageId).
		Updates(map[string]interface{}{"status": models.IdempotencyStatusFailed, "last_error": &msg}).Error
}

// IdempotencyGuard is the dedupe contract the extraction processor needs.
type IdempotencyGuard interface {
	Begin(ctx context.Context, handlerName, messageId, documentId string) (skip bool, err error)
	Succeeded(ctx context.Context, handlerName, messageId string) error
	Failed(ctx context.Context, handlerName, messageId string, err error) error
}

// GormIdempotency stores keys in idempotency_keys.
type GormIdempotency struct {
	DB *gorm.DB
}

func (g GormIdempotency) Begin(ctx context.Context, handlerName, messageId, documentId string) (bool, error) {
	return BeginIdempotency(g.DB.WithContext(ctx), handlerName, messageId, documentId)
}

func (g GormIdempotency) Succeeded(ctx context.Context, handlerName, messageId string) error {
	return MarkIdempotencySucceeded(g.DB.WithContext(ctx), handlerName, messageId)
}

func (g GormIdempotency) Failed(ctx context.Context, handlerName, messageId string, err error) error {
	return MarkIdempotencyFailed(g.DB.WithContext(ctx), handlerName, messageId, err)
}
