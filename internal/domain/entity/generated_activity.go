package entity

import (
	"encoding/json"
	"time"
)

// GeneratedActivity 已通过校验并落库的活动
type GeneratedActivity struct {
	ID           string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ActivityID   string          `json:"activity_id" gorm:"type:varchar(32);uniqueIndex;not null"`
	Type         ActivityType    `json:"type" gorm:"type:varchar(32);index;not null"`
	Category     Category        `json:"category" gorm:"type:varchar(64);index"`
	Title        string          `json:"title" gorm:"type:varchar(255);not null"`
	Prompt       string          `json:"prompt,omitempty" gorm:"type:text"`
	Strategy     string          `json:"strategy" gorm:"type:varchar(32)"`
	WarningCount int             `json:"warning_count" gorm:"not null;default:0"`
	Payload      json.RawMessage `json:"payload" gorm:"type:jsonb;not null"`
	CreatedAt    time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (GeneratedActivity) TableName() string {
	return "generated_activities"
}

// NewGeneratedActivity 由校验后的活动构造存储记录
func NewGeneratedActivity(act *Activity, prompt, strategy string, warnings int) (*GeneratedActivity, error) {
	payload, err := json.Marshal(act)
	if err != nil {
		return nil, err
	}
	return &GeneratedActivity{
		ActivityID:   act.ID,
		Type:         act.Type,
		Category:     act.Category,
		Title:        act.Title,
		Prompt:       prompt,
		Strategy:     strategy,
		WarningCount: warnings,
		Payload:      payload,
	}, nil
}
