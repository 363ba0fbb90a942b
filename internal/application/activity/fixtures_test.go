package activity

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"game-gen-ai-api/internal/domain/entity"
	"game-gen-ai-api/pkg/logger"
)

var fixedNow = time.Date(2024, 12, 3, 10, 30, 0, 0, time.UTC)

const baseDocJSON = `{
  "id": "game-20241203-1234",
  "title": "Stress Management Quiz for Teens",
  "description": "Learn effective stress management techniques",
  "type": "quiz",
  "difficulty": "medium",
  "category": "stress-reduction",
  "estimatedTime": 15,
  "config": {"maxAttempts": 3, "timeLimit": 900},
  "content": {
    "questions": [
      {"id": "q1", "question": "What is the first step in managing stress?", "type": "multiple-choice",
       "options": ["Ignore it", "Identify the source"], "correctAnswer": "Identify the source",
       "explanation": "Knowing the trigger comes first."}
    ]
  },
  "scoring": {"maxScore": 100, "pointsPerCorrect": 10, "pointsPerIncorrect": -2, "bonusForSpeed": 5, "bonusForStreak": 10},
  "ui": {"theme": "colorful", "layout": "list"},
  "generatedAt": "2024-12-03T09:00:00Z",
  "version": "1.0"
}`

// validContent 每种类型一份不会产生警告的最小内容
var validContent = map[entity.ActivityType]string{
	entity.TypeQuiz: `{"questions":[{"id":"q1","question":"Q?","type":"true-false","options":["True","False"],"correctAnswer":"True","explanation":"e"}]}`,
	entity.TypeDragDrop: `{"items":[{"id":"i1","content":"c","correctZone":"z1","explanation":"e"}],
		"dropZones":[{"id":"z1","label":"Helpful","accepts":["i1"]}],"instructions":"Drag each item"}`,
	entity.TypeMemoryMatch: `{"pairs":[{"id":"p1","content1":"Deep breathing","content2":"Calms the body","explanation":"e"}],"gridSize":"4x4"}`,
	entity.TypeSorting: `{"items":[{"id":"s1","content":"Journaling","correctCategory":"c1","difficulty":2}],
		"categories":[{"id":"c1","name":"Healthy","description":"d","color":"green"}],"instructions":"Sort them"}`,
	entity.TypeMatching:      `{"pairs":[{"id":"m1","left":"Stress","right":"Pressure","explanation":"e"}],"instructions":"Match"}`,
	entity.TypeStorySequence: `{"events":[{"id":"e1","content":"Wake up anxious","order":1,"description":"d","explanation":"x"}],"title":"A day","theme":"school"}`,
	entity.TypeFillBlank: `{"passages":[{"id":"p1","text":"I feel ___","blanks":[{"id":"b1","position":0,"correctAnswer":"calm","options":["calm","angry"],"hint":"h"}]}]}`,
	entity.TypeCardFlip:   `{"cards":[{"id":"c1","front":"Grounding","back":"5-4-3-2-1"}],"instructions":"Flip"}`,
	entity.TypeWordPuzzle: `{"words":[{"word":"CALM","hint":"relaxed","direction":"horizontal","startRow":0,"startCol":3}],"gridSize":12,"theme":"feelings"}`,
	entity.TypePuzzleAssembly: `{"pieces":[{"id":"p1","image":"p1.png","correctPosition":{"row":0,"col":0}}],"targetImage":"calm.png","gridSize":4}`,
	entity.TypeAnxietyAdventure: `{"startId":"s1","scenarios":{"s1":{"id":"s1","title":"Presentation","description":"d","anxietyLevel":6,
		"choices":[{"id":"c1","text":"Breathe","outcome":"positive","anxietyChange":-2,"points":10,"explanation":"e","nextScenario":"s2"}],"tips":["Slow down"]},
		"s2":{"id":"s2","title":"After","description":"d","anxietyLevel":2,"choices":[],"tips":[]}}}`,
}

func baseDoc(t *testing.T) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(baseDocJSON), &doc))
	return doc
}

func rawJSON(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func render(t *testing.T, doc map[string]any) string {
	t.Helper()
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(b)
}

func newTestProcessor(opts ...Option) *Processor {
	base := []Option{WithLogger(logger.Discard()), WithClock(func() time.Time { return fixedNow })}
	return NewProcessor(append(base, opts...)...)
}

func warningFields(ws []*Diagnostic) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Field)
	}
	return out
}

func jsonInt(v int) json.Number {
	return json.Number(strconv.Itoa(v))
}
