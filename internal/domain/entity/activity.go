// Package entity 定义领域实体
package entity

import (
	"encoding/json"
)

// ActivityType 活动类型，同时作为 content 的判别字段
type ActivityType string

const (
	TypeQuiz             ActivityType = "quiz"
	TypeDragDrop         ActivityType = "drag-drop"
	TypeMemoryMatch      ActivityType = "memory-match"
	TypeSorting          ActivityType = "sorting"
	TypeMatching         ActivityType = "matching"
	TypeStorySequence    ActivityType = "story-sequence"
	TypeFillBlank        ActivityType = "fill-blank"
	TypeCardFlip         ActivityType = "card-flip"
	TypeWordPuzzle       ActivityType = "word-puzzle"
	TypePuzzleAssembly   ActivityType = "puzzle-assembly"
	TypeAnxietyAdventure ActivityType = "anxiety-adventure"
)

// ActivityTypes 全部已知类型，按提示词中的顺序
var ActivityTypes = []ActivityType{
	TypeQuiz, TypeDragDrop, TypeMemoryMatch, TypeSorting, TypeMatching, TypeStorySequence,
	TypeFillBlank, TypeCardFlip, TypeWordPuzzle, TypePuzzleAssembly, TypeAnxietyAdventure,
}

// Known 是否为已知类型
func (t ActivityType) Known() bool {
	for _, k := range ActivityTypes {
		if t == k {
			return true
		}
	}
	return false
}

// Difficulty 难度
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Category 心理健康主题分类
type Category string

const (
	CategoryMentalWellness        Category = "mental-wellness"
	CategoryCopingSkills          Category = "coping-skills"
	CategoryEmotionalIntelligence Category = "emotional-intelligence"
	CategoryMindfulness           Category = "mindfulness"
	CategoryAnxietyManagement     Category = "anxiety-management"
	CategoryDepressionSupport     Category = "depression-support"
	CategoryStressReduction       Category = "stress-reduction"
	CategorySelfCare              Category = "self-care"
	CategoryCognitiveBehavioral   Category = "cognitive-behavioral"
	CategoryInterpersonalSkills   Category = "interpersonal-skills"
)

// DefaultVersion 缺省的 schema 版本
const DefaultVersion = "1.0"

// GameConfig 玩法配置
type GameConfig struct {
	MaxAttempts    *int `json:"maxAttempts,omitempty" validate:"omitempty,min=1,max=5"`
	TimeLimit      *int `json:"timeLimit,omitempty" validate:"omitempty,min=300,max=1800"`
	ShowProgress   bool `json:"showProgress"`
	AllowRetry     bool `json:"allowRetry"`
	ShuffleOptions bool `json:"shuffleOptions"`
	ShowHints      bool `json:"showHints"`
	AutoNext       bool `json:"autoNext"`
}

// DefaultGameConfig 缺省字段的默认值
func DefaultGameConfig() GameConfig {
	return GameConfig{
		ShowProgress:   true,
		AllowRetry:     true,
		ShuffleOptions: true,
		ShowHints:      true,
	}
}

// ScoringConfig 计分配置，数值在进入类型化之前已被钳制到策略区间
type ScoringConfig struct {
	MaxScore           int `json:"maxScore" validate:"min=50,max=200"`
	PointsPerCorrect   int `json:"pointsPerCorrect" validate:"min=5,max=25"`
	PointsPerIncorrect int `json:"pointsPerIncorrect" validate:"min=-10,max=0"`
	BonusForSpeed      int `json:"bonusForSpeed" validate:"min=0,max=15"`
	BonusForStreak     int `json:"bonusForStreak" validate:"min=0,max=20"`
}

// UIConfig 界面配置
type UIConfig struct {
	Theme      string `json:"theme" validate:"oneof=default colorful minimal dark"`
	Layout     string `json:"layout" validate:"oneof=grid list carousel scattered"`
	Animations bool   `json:"animations"`
	Sounds     bool   `json:"sounds"`
	Particles  bool   `json:"particles"`
}

// DefaultUIConfig 缺省字段的默认值
func DefaultUIConfig() UIConfig {
	return UIConfig{
		Theme:      "default",
		Layout:     "grid",
		Animations: true,
		Particles:  true,
	}
}

// Activity 经过校验的互动活动（游戏）
type Activity struct {
	ID            string        `json:"id" validate:"activity_id"`
	Title         string        `json:"title" validate:"max=60"`
	Description   string        `json:"description"`
	Type          ActivityType  `json:"type"`
	Difficulty    Difficulty    `json:"difficulty" validate:"oneof=easy medium hard"`
	Category      Category      `json:"category" validate:"oneof=mental-wellness coping-skills emotional-intelligence mindfulness anxiety-management depression-support stress-reduction self-care cognitive-behavioral interpersonal-skills"`
	EstimatedTime int           `json:"estimatedTime" validate:"min=5,max=30"`
	Theme         string        `json:"theme,omitempty"`
	Config        GameConfig    `json:"config"`
	Content       Content       `json:"content"`
	Scoring       ScoringConfig `json:"scoring"`
	UI            UIConfig      `json:"ui"`
	GeneratedAt   string        `json:"generatedAt" validate:"required"`
	Version       string        `json:"version" validate:"required"`
}

// NewActivity 创建带默认配置的空活动，供解码覆盖
func NewActivity() *Activity {
	return &Activity{
		Config: DefaultGameConfig(),
		UI:     DefaultUIConfig(),
	}
}

// Content 活动内容：序列化时原样输出 Raw，Variant 为按类型解码后的结构
type Content struct {
	Raw     json.RawMessage `json:"-"`
	Variant ContentVariant  `json:"-"`
}

// MarshalJSON 原样输出内容
func (c Content) MarshalJSON() ([]byte, error) {
	if len(c.Raw) == 0 {
		return []byte("{}"), nil
	}
	return c.Raw, nil
}

// UnmarshalJSON 只保存原文，类型化由内容校验器完成
func (c *Content) UnmarshalJSON(data []byte) error {
	c.Raw = append(json.RawMessage(nil), data...)
	return nil
}
