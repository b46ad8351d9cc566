package aiclient

import (
	"fmt"
	"strings"

	"github.com/michael-borck/feed-forward-sub000/internal/model"
)

// BuildPrompt 构造评审提示词：量规类目（名称/权重/描述）+ 学生草稿
// 要求模型输出严格 JSON，便于 parse.go 解析
func BuildPrompt(categories []model.RubricCategory, content string) string {
	var b strings.Builder

	b.WriteString("You are an experienced writing instructor. Evaluate the student draft below against the rubric and respond with feedback a student can act on.\n\n")
	b.WriteString("Rubric categories:\n")
	for _, c := range categories {
		b.WriteString(fmt.Sprintf("- id: %s | name: %s | weight: %.0f%%", c.CategoryID, c.Name, c.Weight))
		if c.Description != "" {
			b.WriteString(" | " + c.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nRespond with a single JSON object and nothing else, in exactly this shape:\n")
	b.WriteString(`{
  "scores": [{"category_id": "<rubric category id>", "score": <0-100>, "confidence": <0-1, optional>}],
  "strengths": [{"category_id": "<rubric category id or null>", "text": "<what works well>"}],
  "improvements": [{"category_id": "<rubric category id or null>", "text": "<specific suggestion>"}],
  "general": "<overall comment>"
}`)
	b.WriteString("\nEvery rubric category must appear exactly once in \"scores\".\n")

	b.WriteString("\nStudent draft:\n")
	b.WriteString("---\n")
	b.WriteString(content)
	b.WriteString("\n---\n")

	return b.String()
}
