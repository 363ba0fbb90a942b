package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"game-gen-ai-api/internal/domain/service"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	stream Stream
	maxLen int64
}

var _ service.ActivityEventPublisher = (*Producer)(nil)

// NewProducer 创建消息生产者；stream 为空时使用 StreamActivityGenerated
func NewProducer(client *redis.Client, stream Stream, maxLen int64) *Producer {
	if stream == "" {
		stream = StreamActivityGenerated
	}
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &Producer{client: client, stream: stream, maxLen: maxLen}
}

// Publish 发布消息，返回流中的消息 ID
func (p *Producer) Publish(ctx context.Context, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(p.stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(p.stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type": msg.Type,
			"data": string(data),
		},
	}).Result()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishActivityGenerated 发布活动生成事件
func (p *Producer) PublishActivityGenerated(ctx context.Context, evt *service.ActivityGeneratedEvent) error {
	at := evt.GeneratedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	msg, err := NewMessage(evt.ActivityID, MessageTypeActivityGenerated, evt, at)
	if err != nil {
		return err
	}
	msg.SetMetadata("activity_type", evt.Type)
	msg.SetMetadata("stored", strconv.FormatBool(evt.Stored))

	_, err = p.Publish(ctx, msg)
	return err
}
