package entity

import (
	"encoding/json"
	"fmt"
)

// ContentVariant 十一种内容结构加上 UnknownContent 组成的封闭集合
type ContentVariant interface {
	ActivityType() ActivityType
}

// Answer 正确答案，可以是单个字符串或字符串列表
type Answer []string

// UnmarshalJSON 接受字符串或字符串数组
func (a *Answer) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*a = Answer{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("answer must be a string or an array of strings")
	}
	*a = many
	return nil
}

// MarshalJSON 单个答案输出为字符串
func (a Answer) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

// QuizQuestion 测验题
type QuizQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Type          string   `json:"type" validate:"omitempty,oneof=multiple-choice true-false fill-blank"`
	Options       []string `json:"options"`
	CorrectAnswer Answer   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Image         string   `json:"image,omitempty"`
	Hint          string   `json:"hint,omitempty"`
}

type QuizContent struct {
	Questions []QuizQuestion `json:"questions" validate:"dive"`
}

func (*QuizContent) ActivityType() ActivityType { return TypeQuiz }

// DragDropItem 可拖拽条目
type DragDropItem struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	Image       string `json:"image,omitempty"`
	CorrectZone string `json:"correctZone"`
	Category    string `json:"category,omitempty"`
	Explanation string `json:"explanation"`
}

// DropZone 放置区域
type DropZone struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Accepts  []string `json:"accepts"`
	MaxItems *int     `json:"maxItems,omitempty" validate:"omitempty,min=1"`
	Image    string   `json:"image,omitempty"`
}

type DragDropContent struct {
	Items        []DragDropItem `json:"items" validate:"dive"`
	DropZones    []DropZone     `json:"dropZones" validate:"dive"`
	Instructions string         `json:"instructions"`
}

func (*DragDropContent) ActivityType() ActivityType { return TypeDragDrop }

// MemoryPair 记忆配对卡
type MemoryPair struct {
	ID          string `json:"id"`
	Content1    string `json:"content1"`
	Content2    string `json:"content2"`
	Technique   string `json:"technique,omitempty"`
	Situation   string `json:"situation,omitempty"`
	Image1      string `json:"image1,omitempty"`
	Image2      string `json:"image2,omitempty"`
	Category    string `json:"category,omitempty"`
	Explanation string `json:"explanation"`
}

type MemoryMatchContent struct {
	Pairs    []MemoryPair `json:"pairs" validate:"dive"`
	GridSize string       `json:"gridSize,omitempty" validate:"omitempty,oneof=4x4 6x6 8x8"`
}

func (*MemoryMatchContent) ActivityType() ActivityType { return TypeMemoryMatch }

// SortingItem 待分类条目
type SortingItem struct {
	ID              string `json:"id"`
	Content         string `json:"content"`
	Image           string `json:"image,omitempty"`
	CorrectCategory string `json:"correctCategory"`
	Difficulty      *int   `json:"difficulty,omitempty" validate:"omitempty,min=1,max=5"`
}

// SortingCategory 分类桶
type SortingCategory struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color,omitempty" validate:"omitempty,oneof=blue green red purple orange"`
}

type SortingContent struct {
	Items        []SortingItem     `json:"items" validate:"dive"`
	Categories   []SortingCategory `json:"categories" validate:"dive"`
	Instructions string            `json:"instructions"`
}

func (*SortingContent) ActivityType() ActivityType { return TypeSorting }

// MatchingPair 左右连线
type MatchingPair struct {
	ID          string `json:"id"`
	Left        string `json:"left"`
	Right       string `json:"right"`
	Explanation string `json:"explanation"`
}

type MatchingContent struct {
	Pairs        []MatchingPair `json:"pairs" validate:"dive"`
	Instructions string         `json:"instructions"`
}

func (*MatchingContent) ActivityType() ActivityType { return TypeMatching }

// StoryEvent 故事排序中的事件
type StoryEvent struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	Image       string `json:"image,omitempty"`
	Order       int    `json:"order" validate:"min=0"`
	Description string `json:"description"`
	Explanation string `json:"explanation"`
}

type StorySequenceContent struct {
	Events []StoryEvent `json:"events" validate:"dive"`
	Title  string       `json:"title"`
	Theme  string       `json:"theme"`
}

func (*StorySequenceContent) ActivityType() ActivityType { return TypeStorySequence }

// FillBlank 填空位
type FillBlank struct {
	ID            string   `json:"id"`
	Position      int      `json:"position" validate:"min=0"`
	CorrectAnswer string   `json:"correctAnswer"`
	Options       []string `json:"options"`
	Hint          string   `json:"hint"`
}

// Passage 填空段落
type Passage struct {
	ID     string      `json:"id"`
	Text   string      `json:"text"`
	Blanks []FillBlank `json:"blanks" validate:"dive"`
}

type FillBlankContent struct {
	Passages []Passage `json:"passages" validate:"dive"`
}

func (*FillBlankContent) ActivityType() ActivityType { return TypeFillBlank }

// FlipCard 翻转卡片
type FlipCard struct {
	ID         string `json:"id"`
	Front      string `json:"front"`
	Back       string `json:"back"`
	FrontImage string `json:"frontImage,omitempty"`
	BackImage  string `json:"backImage,omitempty"`
	Category   string `json:"category,omitempty"`
}

type CardFlipContent struct {
	Cards        []FlipCard `json:"cards" validate:"dive"`
	Instructions string     `json:"instructions"`
}

func (*CardFlipContent) ActivityType() ActivityType { return TypeCardFlip }

// WordPuzzleWord 填字词条
type WordPuzzleWord struct {
	Word      string `json:"word"`
	Hint      string `json:"hint"`
	Direction string `json:"direction" validate:"omitempty,oneof=horizontal vertical"`
	StartRow  int    `json:"startRow" validate:"min=0,max=14"`
	StartCol  int    `json:"startCol" validate:"min=0,max=14"`
}

type WordPuzzleContent struct {
	Words    []WordPuzzleWord `json:"words" validate:"dive"`
	GridSize int              `json:"gridSize" validate:"omitempty,min=10,max=20"`
	Theme    string           `json:"theme"`
}

func (*WordPuzzleContent) ActivityType() ActivityType { return TypeWordPuzzle }

// PuzzlePiece 拼图块
type PuzzlePiece struct {
	ID              string         `json:"id"`
	Image           string         `json:"image"`
	CorrectPosition map[string]int `json:"correctPosition"`
}

type PuzzleAssemblyContent struct {
	Pieces      []PuzzlePiece `json:"pieces" validate:"dive"`
	TargetImage string        `json:"targetImage"`
	GridSize    int           `json:"gridSize" validate:"omitempty,min=4,max=16"`
}

func (*PuzzleAssemblyContent) ActivityType() ActivityType { return TypePuzzleAssembly }

// AnxietyChoice 场景中的选项
type AnxietyChoice struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	Outcome       string `json:"outcome" validate:"omitempty,oneof=positive negative neutral"`
	AnxietyChange int    `json:"anxietyChange" validate:"min=-5,max=3"`
	Points        int    `json:"points" validate:"min=0,max=25"`
	Explanation   string `json:"explanation"`
	NextScenario  string `json:"nextScenario,omitempty"`
}

// AnxietyScenario 焦虑冒险的一个场景
type AnxietyScenario struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	AnxietyLevel int             `json:"anxietyLevel" validate:"omitempty,min=1,max=10"`
	Choices      []AnxietyChoice `json:"choices" validate:"dive"`
	Tips         []string        `json:"tips"`
}

type AnxietyAdventureContent struct {
	StartID   string                     `json:"startId"`
	Scenarios map[string]AnxietyScenario `json:"scenarios" validate:"dive"`
}

func (*AnxietyAdventureContent) ActivityType() ActivityType { return TypeAnxietyAdventure }

// UnknownContent 无法识别的类型，仅保留原始类型名
type UnknownContent struct {
	Type string
}

func (u *UnknownContent) ActivityType() ActivityType { return ActivityType(u.Type) }
