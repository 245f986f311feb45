package services

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	aws_pkg "readify/pkg/aws"
)

// EventPublisher publishes shop events. Failures are logged, never returned to callers.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, event interface{})
}

type SNSEventPublisher struct {
	sns      aws_pkg.SNSPublisher
	topicArn string
	logger   *zap.Logger
}

func NewSNSEventPublisher(sns aws_pkg.SNSPublisher, topicArn string, logger *zap.Logger) *SNSEventPublisher {
	return &SNSEventPublisher{sns: sns, topicArn: topicArn, logger: logger}
}

func (p *SNSEventPublisher) Publish(ctx context.Context, eventType string, event interface{}) {
	if p.sns == nil || p.topicArn == "" {
		p.logger.Warn("SNS topic not configured, skipping event", zap.String("event_type", eventType))
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.String("event_type", eventType), zap.Error(err))
		return
	}

	if err := p.sns.Publish(ctx, p.topicArn, eventType, body); err != nil {
		p.logger.Error("Failed to publish event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	p.logger.Debug("Published event", zap.String("event_type", eventType))
}
