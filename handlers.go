package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/kilo/kilo_backend/config"
	"github.com/kilo/kilo_backend/models"
	"github.com/kilo/kilo_backend/models/reports"
	"github.com/kilo/kilo_backend/reconcile"
	"github.com/kilo/kilo_backend/utils"
	"github.com/kilo/kilo_backend/workflow"
	"github.com/sirupsen/logrus"
)

const (
	handlerModule   = "server"
	documentLockTTL = 30 * time.Second
)

var errNotValidated = errors.New("document has not been validated")

// validationResponse is the body of the validate and validation routes.
type validationResponse struct {
	DocumentID       string                     `json:"document_id"`
	OrderID          string                     `json:"order_id"`
	ApprovalStatus   models.ApprovalStatus      `json:"approval_status"`
	Result           reconcile.ValidationResult `json:"validation_result"`
	DispositionLabel string                     `json:"disposition_label"`
	Persisted        bool                       `json:"persisted"`
}

// cachedValidation keeps the order parties next to the response so a cache
// hit can be authorized without a database read. UpdatedAt is the document
// version the response was built from.
type cachedValidation struct {
	Parties   map[string]string  `json:"parties"`
	UpdatedAt time.Time          `json:"updated_at"`
	Response  validationResponse `json:"response"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

func validationCacheKey(documentId string) string {
	return "Validation:" + documentId
}

func newValidationResponse(doc *models.Document, res reconcile.ValidationResult, persisted bool) validationResponse {
	if res.Verdicts == nil {
		res.Verdicts = []reconcile.FieldVerdict{}
	}
	return validationResponse{
		DocumentID:       doc.ID,
		OrderID:          doc.OrderId,
		ApprovalStatus:   doc.ApprovalStatus,
		Result:           res,
		DispositionLabel: res.Disposition.Label(),
		Persisted:        persisted,
	}
}

// orderParties maps each participant column to its user id on order.
func orderParties(order *models.Order) map[string]string {
	parties := map[string]string{
		"importer_id": order.ImporterId,
		"supplier_id": order.SupplierId,
	}
	if order.BrokerId != nil {
		parties["broker_id"] = *order.BrokerId
	}
	return parties
}

// callerIsParty reports whether the caller in ctx may see an order with the
// given parties. Unscoped callers see everything.
func callerIsParty(ctx context.Context, parties map[string]string) bool {
	column, userID, ok := config.ParticipantScope(ctx)
	if !ok {
		return true
	}
	return parties[column] != "" && parties[column] == userID
}

func newCachedValidation(doc *models.Document, order *models.Order, resp validationResponse) cachedValidation {
	return cachedValidation{Parties: orderParties(order), UpdatedAt: doc.UpdatedAt, Response: resp}
}

// keepNewerValidation reports whether a stored entry was built from a later
// document version than entry.
func keepNewerValidation(entry cachedValidation) func(current []byte) bool {
	return func(current []byte) bool {
		var stored cachedValidation
		if err := json.Unmarshal(current, &stored); err != nil {
			return false
		}
		return stored.UpdatedAt.After(entry.UpdatedAt)
	}
}

// cacheValidation stores entry unless a newer document version is cached.
func cacheValidation(ctx context.Context, logger *logrus.Logger, funcName string, entry cachedValidation) {
	ttl := config.ValidationCacheTTL()
	if ttl <= 0 {
		return
	}
	cacheKey := validationCacheKey(entry.Response.DocumentID)
	if err := config.SetRedisObjectUnless(ctx, cacheKey, entry, ttl, keepNewerValidation(entry)); err != nil {
		config.LogError(logger, handlerModule, funcName, "SetRedisObjectUnless", cacheKey, err)
	}
}

// refreshValidationCache rebuilds the cached validation from the committed
// document after a write. Writers overwrite rather than delete, so a reader
// that loaded the previous version cannot put it back.
func refreshValidationCache(ctx context.Context, logger *logrus.Logger, funcName string, documentId string) {
	if config.ValidationCacheTTL() <= 0 {
		return
	}
	cacheKey := validationCacheKey(documentId)
	doc, order, err := loadDocument(utils.WithoutParticipantScope(ctx), documentId)
	var (
		res reconcile.ValidationResult
		ok  bool
	)
	if err == nil {
		res, ok, err = doc.StoredValidation()
	}
	if err != nil || !ok {
		if err != nil {
			config.LogError(logger, handlerModule, funcName, "reload validation", documentId, err)
		}
		if err := config.RemoveRedisKey(ctx, cacheKey); err != nil {
			config.LogError(logger, handlerModule, funcName, "RemoveRedisKey", cacheKey, err)
		}
		return
	}
	cacheValidation(ctx, logger, funcName, newCachedValidation(doc, order, newValidationResponse(doc, res, true)))
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound), errors.Is(err, errNotValidated):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, utils.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrNoExtraction), errors.Is(err, models.ErrDocumentAlreadyDecided):
		return http.StatusConflict
	case errors.Is(err, models.ErrRejectReasonRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, funcName string, data any, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		config.LogError(config.GetLogger(), handlerModule, funcName, c.Request.URL.Path, data, err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// loadDocument fetches a document and its order. The order read is scoped
// to the caller, so a document on someone else's order is not found.
func loadDocument(ctx context.Context, id string) (*models.Document, *models.Order, error) {
	doc, err := models.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	order, err := models.GetOrder(ctx, doc.OrderId)
	if err != nil {
		return nil, nil, err
	}
	return doc, order, nil
}

func newValidator(logger *logrus.Logger) *workflow.DocumentValidator {
	return workflow.NewDocumentValidator(models.NewGormValidationStore(config.GetDB()), workflow.PubSubPublisher{}, logger)
}

// obtainDocumentLock takes the per-document redis lock. The lock only keeps
// concurrent re-runs apart; a nil lock means continue without it.
func obtainDocumentLock(ctx context.Context, logger *logrus.Logger, documentId string) *redislock.Lock {
	locker := config.GetRedisLock()
	if locker == nil {
		logger.WithFields(logrus.Fields{
			"field":       "validateDocumentHandler",
			"document_id": documentId,
		}).Warn("redis lock not ready; proceeding without redis lock")
		return nil
	}
	lock, err := locker.Obtain(ctx, fmt.Sprintf("lock:document:%s", documentId), documentLockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		logger.WithFields(logrus.Fields{
			"field":       "validateDocumentHandler",
			"document_id": documentId,
		}).Warn("could not obtain redis lock; proceeding without redis lock")
		return nil
	} else if err != nil {
		logger.WithFields(logrus.Fields{
			"field":       "validateDocumentHandler",
			"document_id": documentId,
		}).Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
		return nil
	}
	return lock
}

func validateDocumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		ctx := c.Request.Context()
		documentId := c.Param("id")

		lock := obtainDocumentLock(ctx, logger, documentId)
		defer func() {
			if lock == nil {
				return
			}
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.WithFields(logrus.Fields{
					"field":       "validateDocumentHandler",
					"document_id": documentId,
				}).Warn("failed to release redis lock: " + err.Error())
			}
		}()

		userId, _ := utils.GetUserIdFromContext(ctx)
		out, err := newValidator(logger).ValidateDocument(ctx, documentId, userId)
		if err != nil {
			abortWithError(c, "validateDocumentHandler", documentId, err)
			return
		}

		refreshValidationCache(ctx, logger, "validateDocumentHandler", documentId)
		c.JSON(http.StatusOK, newValidationResponse(out.Document, out.Result, out.Persisted))
	}
}

func getValidationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		ctx := c.Request.Context()
		documentId := c.Param("id")
		cacheKey := validationCacheKey(documentId)

		var cached cachedValidation
		found, err := config.GetRedisObject(ctx, cacheKey, &cached)
		if err != nil {
			config.LogError(logger, handlerModule, "getValidationHandler", "GetRedisObject", cacheKey, err)
		}
		if found && callerIsParty(ctx, cached.Parties) {
			c.JSON(http.StatusOK, cached.Response)
			return
		}

		doc, order, err := loadDocument(ctx, documentId)
		if err != nil {
			abortWithError(c, "getValidationHandler", documentId, err)
			return
		}
		res, ok, err := doc.StoredValidation()
		if err != nil {
			abortWithError(c, "getValidationHandler", documentId, err)
			return
		}
		if !ok {
			abortWithError(c, "getValidationHandler", documentId, errNotValidated)
			return
		}

		resp := newValidationResponse(doc, res, true)
		cacheValidation(ctx, logger, "getValidationHandler", newCachedValidation(doc, order, resp))
		c.JSON(http.StatusOK, resp)
	}
}

func checklistHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		ctx := c.Request.Context()
		documentId := c.Param("id")

		doc, _, err := loadDocument(ctx, documentId)
		if err != nil {
			abortWithError(c, "checklistHandler", documentId, err)
			return
		}
		payload, err := doc.Payload()
		if err != nil {
			config.LogError(logger, handlerModule, "checklistHandler", "decode ai_data", documentId, err)
			payload = map[string]any{}
		}

		found, missing := reconcile.DocumentTypesFromPayload(payload)
		summary := reconcile.Summarize(payload)
		c.JSON(http.StatusOK, gin.H{
			"document_id":   doc.ID,
			"ai_status":     doc.AiStatus,
			"checklist":     reconcile.CheckDocumentTypes(found, missing),
			"summary":       summary,
			"display_total": summary.DisplayTotal(),
		})
	}
}

func approveDocumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		documentId := c.Param("id")

		if _, _, err := loadDocument(ctx, documentId); err != nil {
			abortWithError(c, "approveDocumentHandler", documentId, err)
			return
		}
		userId, _ := utils.GetUserIdFromContext(ctx)
		doc, err := models.ApproveDocument(ctx, config.GetDB(), documentId, userId)
		if err != nil {
			abortWithError(c, "approveDocumentHandler", documentId, err)
			return
		}
		refreshValidationCache(ctx, config.GetLogger(), "approveDocumentHandler", documentId)
		c.JSON(http.StatusOK, gin.H{"document": doc})
	}
}

func rejectDocumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		documentId := c.Param("id")

		var req rejectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := utils.ValidateStruct(req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		if _, _, err := loadDocument(ctx, documentId); err != nil {
			abortWithError(c, "rejectDocumentHandler", documentId, err)
			return
		}
		userId, _ := utils.GetUserIdFromContext(ctx)
		doc, err := models.RejectDocument(ctx, config.GetDB(), documentId, userId, req.Reason)
		if err != nil {
			abortWithError(c, "rejectDocumentHandler", documentId, err)
			return
		}
		refreshValidationCache(ctx, config.GetLogger(), "rejectDocumentHandler", documentId)
		c.JSON(http.StatusOK, gin.H{"document": doc})
	}
}

func validationReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		orderId := c.Param("id")

		order, err := models.GetOrder(ctx, orderId)
		if err != nil {
			abortWithError(c, "validationReportHandler", orderId, err)
			return
		}
		docs, err := models.ListOrderDocuments(ctx, order.ID)
		if err != nil {
			abortWithError(c, "validationReportHandler", orderId, err)
			return
		}

		var buf bytes.Buffer
		if err := reports.WriteValidationReport(&buf, order, docs); err != nil {
			abortWithError(c, "validationReportHandler", orderId, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reports.ReportFilename(order)))
		c.Data(http.StatusOK, reports.ContentTypeXLSX, buf.Bytes())
	}
}
