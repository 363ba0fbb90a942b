// Package messaging 通过 Redis Stream 发布领域事件
package messaging

import (
	"encoding/json"
	"time"
)

// Message 消息信封
type Message struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewMessage 创建新消息
func NewMessage(id, msgType string, payload any, at time.Time) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		ID:        id,
		Type:      msgType,
		Payload:   payloadBytes,
		CreatedAt: at,
	}, nil
}

// SetMetadata 设置元数据
func (m *Message) SetMetadata(key, value string) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = value
}

// UnmarshalPayload 解析消息载荷
func (m *Message) UnmarshalPayload(v any) error {
	return json.Unmarshal(m.Payload, v)
}

// Stream 流名称
type Stream string

// StreamActivityGenerated 默认的活动生成事件流
const StreamActivityGenerated Stream = "stream:activity:generated"

// MessageTypeActivityGenerated 活动生成事件类型
const MessageTypeActivityGenerated = "activity.generated"
