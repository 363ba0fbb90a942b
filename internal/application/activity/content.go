package activity

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"game-gen-ai-api/internal/domain/entity"
	"game-gen-ai-api/internal/workflow/node"
)

// contentRule 某一类型内容的键检查：必填键、必须非空的列表、列表元素的必填键
type contentRule struct {
	required []string
	nonEmpty []string
	itemKeys map[string][]string
	extra    func(content *node.Node) []contentIssue
}

type contentIssue struct {
	field   string
	message string
	node    *node.Node
}

var (
	quizRule = contentRule{
		required: []string{"questions"},
		nonEmpty: []string{"questions"},
		itemKeys: map[string][]string{
			"questions": {"id", "question", "type", "options", "correctAnswer", "explanation"},
		},
	}
	dragDropRule       = contentRule{required: []string{"items", "dropZones", "instructions"}}
	memoryMatchRule    = contentRule{required: []string{"pairs"}, nonEmpty: []string{"pairs"}}
	sortingRule        = contentRule{required: []string{"items", "categories", "instructions"}}
	matchingRule       = contentRule{required: []string{"pairs", "instructions"}}
	storySequenceRule  = contentRule{required: []string{"events", "title", "theme"}}
	fillBlankRule      = contentRule{required: []string{"passages"}}
	cardFlipRule       = contentRule{required: []string{"cards", "instructions"}}
	wordPuzzleRule     = contentRule{required: []string{"words", "gridSize", "theme"}}
	puzzleAssemblyRule = contentRule{required: []string{"pieces", "targetImage", "gridSize"}}
	anxietyRule        = contentRule{required: []string{"startId", "scenarios"}, extra: checkScenarioChoices}
)

// validateContent 按判别字段分派到对应类型的校验。
// 所有问题都作为 content_variant 警告返回；类型解码失败时 variant 为 nil。
func (v *Validator) validateContent(t entity.ActivityType, content *node.Node) (entity.ContentVariant, []*Diagnostic) {
	var (
		variant entity.ContentVariant
		rule    contentRule
	)
	switch t {
	case entity.TypeQuiz:
		variant, rule = &entity.QuizContent{}, quizRule
	case entity.TypeDragDrop:
		variant, rule = &entity.DragDropContent{}, dragDropRule
	case entity.TypeMemoryMatch:
		variant, rule = &entity.MemoryMatchContent{}, memoryMatchRule
	case entity.TypeSorting:
		variant, rule = &entity.SortingContent{}, sortingRule
	case entity.TypeMatching:
		variant, rule = &entity.MatchingContent{}, matchingRule
	case entity.TypeStorySequence:
		variant, rule = &entity.StorySequenceContent{}, storySequenceRule
	case entity.TypeFillBlank:
		variant, rule = &entity.FillBlankContent{}, fillBlankRule
	case entity.TypeCardFlip:
		variant, rule = &entity.CardFlipContent{}, cardFlipRule
	case entity.TypeWordPuzzle:
		variant, rule = &entity.WordPuzzleContent{}, wordPuzzleRule
	case entity.TypePuzzleAssembly:
		variant, rule = &entity.PuzzleAssemblyContent{}, puzzleAssemblyRule
	case entity.TypeAnxietyAdventure:
		variant, rule = &entity.AnxietyAdventureContent{}, anxietyRule
	default:
		w := v.contentWarning("type", fmt.Sprintf("unknown activity type %q, content left unvalidated", t), content)
		return &entity.UnknownContent{Type: string(t)}, []*Diagnostic{w}
	}

	var warnings []*Diagnostic
	for _, issue := range rule.check(t, content) {
		warnings = append(warnings, v.contentWarning(issue.field, issue.message, issue.node))
	}

	if err := decodeNode(content, variant); err != nil {
		field, msg := describeDecodeError(err)
		warnings = append(warnings, v.contentWarning(fieldPath("content", field), msg, content))
		return nil, warnings
	}
	if err := v.validate.Struct(variant); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				field, msg := describeFieldError(fe, "content")
				warnings = append(warnings, v.contentWarning(field, msg, content))
			}
		} else {
			warnings = append(warnings, v.contentWarning("content", err.Error(), content))
		}
	}
	return variant, warnings
}

func (r contentRule) check(t entity.ActivityType, content *node.Node) []contentIssue {
	var issues []contentIssue
	for _, key := range r.required {
		if !content.Has(key) {
			issues = append(issues, contentIssue{
				field:   fieldPath("content", key),
				message: fmt.Sprintf("%s content missing field %s", t, key),
				node:    content,
			})
		}
	}
	for _, key := range r.nonEmpty {
		n, ok := content.Get(key)
		if !ok {
			continue
		}
		if !n.IsSequence() || n.Len() == 0 {
			issues = append(issues, contentIssue{
				field:   fieldPath("content", key),
				message: fmt.Sprintf("%s content field %s must be a non-empty list", t, key),
				node:    n,
			})
		}
	}
	for list, keys := range r.itemKeys {
		n, ok := content.Get(list)
		if !ok || !n.IsSequence() {
			continue
		}
		for i, item := range n.Items {
			path := indexPath(fieldPath("content", list), i)
			if !item.IsMapping() {
				issues = append(issues, contentIssue{field: path, message: fmt.Sprintf("%s must be an object", path), node: item})
				continue
			}
			for _, key := range keys {
				if !item.Has(key) {
					issues = append(issues, contentIssue{
						field:   fieldPath(path, key),
						message: fmt.Sprintf("%s missing field %s", path, key),
						node:    item,
					})
				}
			}
		}
	}
	if r.extra != nil {
		issues = append(issues, r.extra(content)...)
	}
	return issues
}

// checkScenarioChoices 每个场景都必须带有 choices 列表
func checkScenarioChoices(content *node.Node) []contentIssue {
	scenarios, ok := content.Get("scenarios")
	if !ok {
		return nil
	}
	if !scenarios.IsMapping() {
		return []contentIssue{{
			field:   "content.scenarios",
			message: "content.scenarios must be an object keyed by scenario id",
			node:    scenarios,
		}}
	}
	var issues []contentIssue
	for _, key := range scenarios.Keys() {
		sc, _ := scenarios.Get(key)
		path := fieldPath("content.scenarios", key)
		choices, ok := sc.Get("choices")
		if !ok || !choices.IsSequence() {
			issues = append(issues, contentIssue{
				field:   fieldPath(path, "choices"),
				message: fmt.Sprintf("scenario %s must have a choices list", key),
				node:    sc,
			})
		}
	}
	return issues
}
