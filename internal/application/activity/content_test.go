package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game-gen-ai-api/internal/domain/entity"
	"game-gen-ai-api/internal/workflow/node"
	"game-gen-ai-api/pkg/logger"
)

func validateContentJSON(t *testing.T, typ entity.ActivityType, content string) (entity.ContentVariant, []*Diagnostic) {
	t.Helper()
	n, perr := node.ParseNode(content)
	require.Nil(t, perr)
	return NewValidator(WithLogger(logger.Discard())).validateContent(typ, n)
}

func TestValidateContentAllTypes(t *testing.T) {
	require.Len(t, validContent, len(entity.ActivityTypes))
	for _, typ := range entity.ActivityTypes {
		t.Run(string(typ), func(t *testing.T) {
			variant, warnings := validateContentJSON(t, typ, validContent[typ])
			assert.Empty(t, warningFields(warnings))
			require.NotNil(t, variant)
			assert.Equal(t, typ, variant.ActivityType())
		})
	}
}

func TestValidateContentMissingKeys(t *testing.T) {
	cases := []struct {
		typ    entity.ActivityType
		fields []string
	}{
		{typ: entity.TypeQuiz, fields: []string{"content.questions"}},
		{typ: entity.TypeDragDrop, fields: []string{"content.items", "content.dropZones", "content.instructions"}},
		{typ: entity.TypeMemoryMatch, fields: []string{"content.pairs"}},
		{typ: entity.TypeSorting, fields: []string{"content.items", "content.categories", "content.instructions"}},
		{typ: entity.TypeMatching, fields: []string{"content.pairs", "content.instructions"}},
		{typ: entity.TypeStorySequence, fields: []string{"content.events", "content.title", "content.theme"}},
		{typ: entity.TypeFillBlank, fields: []string{"content.passages"}},
		{typ: entity.TypeCardFlip, fields: []string{"content.cards", "content.instructions"}},
		{typ: entity.TypeWordPuzzle, fields: []string{"content.words", "content.gridSize", "content.theme"}},
		{typ: entity.TypePuzzleAssembly, fields: []string{"content.pieces", "content.targetImage", "content.gridSize"}},
		{typ: entity.TypeAnxietyAdventure, fields: []string{"content.startId", "content.scenarios"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.typ), func(t *testing.T) {
			variant, warnings := validateContentJSON(t, tc.typ, `{}`)
			assert.Equal(t, tc.fields, warningFields(warnings))
			for _, w := range warnings {
				assert.Equal(t, StageContentVariant, w.Stage)
			}
			assert.NotNil(t, variant)
		})
	}
}

func TestValidateContentQuizItems(t *testing.T) {
	_, warnings := validateContentJSON(t, entity.TypeQuiz,
		`{"questions":[{"id":"q1","question":"Q?","type":"multiple-choice","options":["a"],"correctAnswer":"a"}, "oops"]}`)
	assert.Equal(t, []string{"content.questions[0].explanation", "content.questions[1]"}, warningFields(warnings)[:2])
}

func TestValidateContentEmptyLists(t *testing.T) {
	_, warnings := validateContentJSON(t, entity.TypeQuiz, `{"questions":[]}`)
	assert.Equal(t, []string{"content.questions"}, warningFields(warnings))

	_, warnings = validateContentJSON(t, entity.TypeMemoryMatch, `{"pairs":{}}`)
	require.NotEmpty(t, warnings)
	assert.Equal(t, "content.pairs", warnings[0].Field)
}

func TestValidateContentTypedConstraints(t *testing.T) {
	cases := []struct {
		name    string
		typ     entity.ActivityType
		content string
		field   string
	}{
		{
			name:    "quiz question type",
			typ:     entity.TypeQuiz,
			content: `{"questions":[{"id":"q1","question":"Q","type":"essay","options":[],"correctAnswer":"a","explanation":"e"}]}`,
			field:   "content.questions[0].type",
		},
		{
			name:    "sorting color",
			typ:     entity.TypeSorting,
			content: `{"items":[],"categories":[{"id":"c1","name":"n","description":"d","color":"pink"}],"instructions":"x"}`,
			field:   "content.categories[0].color",
		},
		{
			name:    "memory grid",
			typ:     entity.TypeMemoryMatch,
			content: `{"pairs":[{"id":"p1","content1":"a","content2":"b","explanation":"e"}],"gridSize":"5x5"}`,
			field:   "content.gridSize",
		},
		{
			name:    "word puzzle start row",
			typ:     entity.TypeWordPuzzle,
			content: `{"words":[{"word":"w","hint":"h","direction":"horizontal","startRow":15,"startCol":0}],"gridSize":12,"theme":"t"}`,
			field:   "content.words[0].startRow",
		},
		{
			name:    "word puzzle grid",
			typ:     entity.TypeWordPuzzle,
			content: `{"words":[],"gridSize":25,"theme":"t"}`,
			field:   "content.gridSize",
		},
		{
			name:    "puzzle grid",
			typ:     entity.TypePuzzleAssembly,
			content: `{"pieces":[],"targetImage":"t.png","gridSize":2}`,
			field:   "content.gridSize",
		},
		{
			name: "anxiety change",
			typ:  entity.TypeAnxietyAdventure,
			content: `{"startId":"s1","scenarios":{"s1":{"id":"s1","title":"t","description":"d","anxietyLevel":3,
				"choices":[{"id":"c1","text":"t","outcome":"positive","anxietyChange":7,"points":5,"explanation":"e"}],"tips":[]}}}`,
			field: "content.scenarios[s1].choices[0].anxietyChange",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			variant, warnings := validateContentJSON(t, tc.typ, tc.content)
			assert.NotNil(t, variant)
			assert.Contains(t, warningFields(warnings), tc.field)
		})
	}
}

func TestValidateContentDecodeFailure(t *testing.T) {
	variant, warnings := validateContentJSON(t, entity.TypeWordPuzzle, `{"words":"calm","gridSize":12,"theme":"t"}`)
	assert.Nil(t, variant)
	require.Len(t, warnings, 1)
	assert.Equal(t, "content.words", warnings[0].Field)
}

func TestValidateContentScenarioChoices(t *testing.T) {
	_, warnings := validateContentJSON(t, entity.TypeAnxietyAdventure,
		`{"startId":"s1","scenarios":{"s1":{"id":"s1","title":"t","description":"d","tips":[]}}}`)
	assert.Contains(t, warningFields(warnings), "content.scenarios.s1.choices")
}

func TestValidateContentUnknownType(t *testing.T) {
	variant, warnings := validateContentJSON(t, entity.ActivityType("crossword"), `{"grid":[]}`)
	require.IsType(t, &entity.UnknownContent{}, variant)
	assert.Equal(t, entity.ActivityType("crossword"), variant.ActivityType())
	require.Len(t, warnings, 1)
	assert.Equal(t, "type", warnings[0].Field)
	assert.Contains(t, warnings[0].Message, "crossword")
}
