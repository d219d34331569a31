package config

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

// ValidationEvent is published whenever a document's validation result is
// (re)computed.
type ValidationEvent struct {
	DocumentID      string    `json:"document_id"`
	OrderID         string    `json:"order_id"`
	MatchPercentage float64   `json:"match_percentage"`
	Disposition     string    `json:"disposition"`
	ValidatedAt     time.Time `json:"validated_at"`
	CorrelationId   string    `json:"correlation_id,omitempty"`
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex

	ErrPublishingDisabled = errors.New("pubsub publishing disabled")
)

func init() {
	// Load env from .env
	godotenv.Load()
}

func getPubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	// Cloud Run often sets this.
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	return os.Getenv("GCP_PROJECT")
}

// GetPubSubClient returns a Pub/Sub client, initializing with retries if needed.
// It uses Application Default Credentials unless PUBSUB_CREDENTIALS_JSON is provided.
func GetPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	if pubsubClient != nil {
		c := pubsubClient
		pubsubClientMu.Unlock()
		return c, nil
	}
	pubsubClientMu.Unlock()

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON")

	var attempt int
	for {
		attempt++

		var (
			c   *pubsub.Client
			err error
		)
		if credJSON != "" {
			c, err = pubsub.NewClient(ctx, projectID, option.WithCredentialsJSON([]byte(credJSON)))
		} else {
			c, err = pubsub.NewClient(ctx, projectID)
		}
		if err == nil {
			pubsubClientMu.Lock()
			if pubsubClient == nil {
				pubsubClient = c
			} else {
				// Another goroutine won the race; close ours.
				_ = c.Close()
			}
			c2 := pubsubClient
			pubsubClientMu.Unlock()

			log.Printf("pubsub client ready (project_id=%s attempt=%d)", projectID, attempt)
			return c2, nil
		}
		if attempt >= 5 || ctx.Err() != nil {
			return nil, err
		}

		sleep := retryBackoff(attempt)
		log.Printf("failed to init pubsub client (project_id=%s attempt=%d): %v; retrying in %s", projectID, attempt, err, sleep)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// PublishValidationEvent publishes to PUBSUB_VALIDATION_TOPIC and returns the
// server-assigned message id. When the topic is not configured it returns
// ErrPublishingDisabled.
func PublishValidationEvent(ctx context.Context, evt ValidationEvent) (string, error) {
	topicName := os.Getenv("PUBSUB_VALIDATION_TOPIC")
	if topicName == "" {
		return "", ErrPublishingDisabled
	}

	client, err := GetPubSubClient(ctx)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return "", err
	}
	result := client.Topic(topicName).Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"document_id": evt.DocumentID,
			"disposition": evt.Disposition,
		},
	})
	return result.Get(ctx)
}
