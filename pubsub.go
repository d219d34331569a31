package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kilo/kilo_backend/config"
	"github.com/kilo/kilo_backend/utils"
	"github.com/kilo/kilo_backend/workflow"
	"github.com/sirupsen/logrus"
)

// PubSubMessage is the Pub/Sub push envelope.
type PubSubMessage struct {
	Message struct {
		Data       []byte            `json:"data,omitempty"`
		ID         string            `json:"id"`
		Attributes map[string]string `json:"attributes,omitempty"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// decodeExtractionPush unwraps a push body into the message id and the
// extraction event it carries. Every error wraps workflow.ErrMalformedEvent.
func decodeExtractionPush(body []byte) (string, workflow.ExtractionEvent, error) {
	var msg PubSubMessage
	var evt workflow.ExtractionEvent

	// byte slice unmarshalling handles base64 decoding.
	if err := json.Unmarshal(body, &msg); err != nil {
		return "", evt, fmt.Errorf("%w: envelope: %v", workflow.ErrMalformedEvent, err)
	}
	if err := json.Unmarshal(msg.Message.Data, &evt); err != nil {
		return msg.Message.ID, evt, fmt.Errorf("%w: data: %v", workflow.ErrMalformedEvent, err)
	}
	if msg.Message.ID == "" {
		return "", evt, fmt.Errorf("%w: message id is required", workflow.ErrMalformedEvent)
	}
	if err := evt.Validate(); err != nil {
		return msg.Message.ID, evt, err
	}
	return msg.Message.ID, evt, nil
}

// extractionPubSubHandler receives AI extraction results. A 2xx acks the
// message; a 500 asks Pub/Sub to redeliver.
func extractionPubSubHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, handlerModule, "extractionPubSubHandler", "io.ReadAll", nil, err)
			// ack/drop to avoid infinite retries
			c.Status(http.StatusNoContent)
			return
		}

		messageID, evt, err := decodeExtractionPush(body)
		if err != nil {
			config.LogError(logger, handlerModule, "extractionPubSubHandler", "decode push message", string(body), err)
			c.Status(http.StatusNoContent)
			return
		}

		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), messageID)
		err = workflow.ProcessExtractionEvent(ctx, config.GetDB(), logger, newValidator(logger), messageID, evt)
		if err != nil {
			fields := logrus.Fields{
				"field":       "extractionPubSubHandler",
				"document_id": evt.DocumentID,
				"status":      evt.Status,
				"message_id":  messageID,
			}
			if workflow.IsPermanent(err) {
				logger.WithFields(fields).Warn("dropping extraction event: " + err.Error())
				c.Status(http.StatusNoContent)
				return
			}
			if errors.Is(err, workflow.ErrIdempotencyInProgress) {
				logger.WithFields(fields).Warn("extraction event already in progress; asking for redelivery")
			} else {
				logger.WithFields(fields).Error("extraction processing failed: " + err.Error())
			}
			c.Status(http.StatusInternalServerError)
			return
		}

		refreshValidationCache(ctx, logger, "extractionPubSubHandler", evt.DocumentID)
		c.Status(http.StatusNoContent)
	}
}
