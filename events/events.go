package events

import (
	"context"
	"encoding/json"
	"time"

	aws_pkg "github.com/yashrajoria/affiliate-storefront/pkg/aws"
	"github.com/yashrajoria/affiliate-storefront/models"

	"go.uber.org/zap"
)

type Type string

const (
	ProductCreated      Type = "product.created"
	ProductUpdated      Type = "product.updated"
	ProductDeleted      Type = "product.deleted"
	ProductMediaRemoved Type = "product.media_removed"
	KitCreated          Type = "kit.created"
	KitUpdated          Type = "kit.updated"
	KitDeleted          Type = "kit.deleted"
)

// CatalogEvent announces a change to a product or kit.
type CatalogEvent struct {
	Type Type      `json:"type"`
	ID   models.ID `json:"id"`
	At   time.Time `json:"at"`
}

// Publisher delivers catalog events. Delivery is best effort: Publish only
// logs failures and never reports them to the caller.
type Publisher interface {
	Publish(ctx context.Context, eventType Type, id models.ID)
}

// SNSPublisher publishes catalog events as JSON messages on one SNS topic.
type SNSPublisher struct {
	client   aws_pkg.SNSPublisher
	topicArn string
	logger   *zap.Logger
	now      func() time.Time
}

func NewSNSPublisher(client aws_pkg.SNSPublisher, topicArn string, logger *zap.Logger) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn, logger: logger, now: time.Now}
}

func (p *SNSPublisher) Publish(ctx context.Context, eventType Type, id models.ID) {
	if p.client == nil || p.topicArn == "" {
		p.logger.Debug("SNS topic not configured, skipping catalog event", zap.String("event_type", string(eventType)))
		return
	}

	body, err := json.Marshal(CatalogEvent{Type: eventType, ID: id, At: p.now().UTC()})
	if err != nil {
		p.logger.Error("Failed to marshal catalog event", zap.Error(err))
		return
	}
	if err := p.client.Publish(ctx, p.topicArn, body, map[string]string{"event_type": string(eventType)}); err != nil {
		p.logger.Error("Failed to publish catalog event",
			zap.String("event_type", string(eventType)),
			zap.String("id", id.String()),
			zap.Error(err),
		)
		return
	}
	p.logger.Info("Published catalog event",
		zap.String("event_type", string(eventType)),
		zap.String("id", id.String()),
	)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Type, models.ID) {}
