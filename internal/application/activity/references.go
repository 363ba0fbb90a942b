package activity

import (
	"fmt"
	"sort"

	"game-gen-ai-api/internal/domain/entity"
)

type referenceIssue struct {
	field   string
	message string
}

// checkReferences 检查内容内部的 id 引用是否指向存在的条目
func checkReferences(variant entity.ContentVariant) []referenceIssue {
	var issues []referenceIssue
	switch c := variant.(type) {
	case *entity.DragDropContent:
		items := make(map[string]struct{}, len(c.Items))
		for _, it := range c.Items {
			items[it.ID] = struct{}{}
		}
		zones := make(map[string]struct{}, len(c.DropZones))
		for _, z := range c.DropZones {
			zones[z.ID] = struct{}{}
		}
		for i, z := range c.DropZones {
			for _, id := range z.Accepts {
				if _, ok := items[id]; !ok {
					issues = append(issues, referenceIssue{
						field:   fmt.Sprintf("content.dropZones[%d].accepts", i),
						message: fmt.Sprintf("drop zone %s accepts unknown item %s", z.ID, id),
					})
				}
			}
		}
		for i, it := range c.Items {
			if _, ok := zones[it.CorrectZone]; !ok {
				issues = append(issues, referenceIssue{
					field:   fmt.Sprintf("content.items[%d].correctZone", i),
					message: fmt.Sprintf("item %s points to unknown drop zone %s", it.ID, it.CorrectZone),
				})
			}
		}
	case *entity.SortingContent:
		cats := make(map[string]struct{}, len(c.Categories))
		for _, cat := range c.Categories {
			cats[cat.ID] = struct{}{}
		}
		for i, it := range c.Items {
			if _, ok := cats[it.CorrectCategory]; !ok {
				issues = append(issues, referenceIssue{
					field:   fmt.Sprintf("content.items[%d].correctCategory", i),
					message: fmt.Sprintf("item %s points to unknown category %s", it.ID, it.CorrectCategory),
				})
			}
		}
	case *entity.AnxietyAdventureContent:
		if _, ok := c.Scenarios[c.StartID]; !ok {
			issues = append(issues, referenceIssue{
				field:   "content.startId",
				message: fmt.Sprintf("start scenario %s does not exist", c.StartID),
			})
		}
		keys := make([]string, 0, len(c.Scenarios))
		for key := range c.Scenarios {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			sc := c.Scenarios[key]
			for i, ch := range sc.Choices {
				if ch.NextScenario == "" {
					continue
				}
				if _, ok := c.Scenarios[ch.NextScenario]; !ok {
					issues = append(issues, referenceIssue{
						field:   fmt.Sprintf("content.scenarios.%s.choices[%d].nextScenario", key, i),
						message: fmt.Sprintf("choice %s leads to unknown scenario %s", ch.ID, ch.NextScenario),
					})
				}
			}
		}
	}
	return issues
}
