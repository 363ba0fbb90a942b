package activity

import (
	"encoding/json"
	"strconv"

	"game-gen-ai-api/internal/workflow/node"
)

// ScoreRange 计分字段的策略区间（闭区间）
type ScoreRange struct {
	Field string
	Min   int
	Max   int
}

// ScoringRanges 五个计分字段的区间
var ScoringRanges = []ScoreRange{
	{Field: "pointsPerCorrect", Min: 5, Max: 25},
	{Field: "maxScore", Min: 50, Max: 200},
	{Field: "pointsPerIncorrect", Min: -10, Max: 0},
	{Field: "bonusForSpeed", Min: 0, Max: 15},
	{Field: "bonusForStreak", Min: 0, Max: 20},
}

// ClampEvent 一次钳制
type ClampEvent struct {
	Field string
	From  string
	To    int
}

// ClampScoring 把越界的数值饱和到区间端点，区间内的值不变。
// 只处理数值节点，其它类型留给类型化阶段拒绝。
func ClampScoring(scoring *node.Node) []ClampEvent {
	var events []ClampEvent
	for _, r := range ScoringRanges {
		n, ok := scoring.Get(r.Field)
		if !ok {
			continue
		}
		v, ok := n.Float()
		if !ok {
			continue
		}
		to := r.Min
		switch {
		case v < float64(r.Min):
		case v > float64(r.Max):
			to = r.Max
		default:
			continue
		}
		events = append(events, ClampEvent{Field: r.Field, From: n.Number.String(), To: to})
		scoring.Set(r.Field, node.NewNumber(json.Number(strconv.Itoa(to))))
	}
	return events
}
