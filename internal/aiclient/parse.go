package aiclient

import (
	"encoding/json"
	"strings"

	"github.com/michael-borck/feed-forward-sub000/internal/model"
)

// Evaluation 解析后的单次模型评审结果
type Evaluation struct {
	Scores       []ParsedScore
	Strengths    []ParsedItem
	Improvements []ParsedItem
	General      string
}

// ParsedScore 单类目得分
type ParsedScore struct {
	CategoryID string
	Score      float64
	Confidence float64
}

// ParsedItem 单条定性反馈
type ParsedItem struct {
	CategoryID *string // nil = 整体反馈
	Text       string
}

// 模型响应的约定 JSON 结构
type rawEvaluation struct {
	Scores []struct {
		CategoryID string   `json:"category_id"`
		Score      *float64 `json:"score"`
		Confidence *float64 `json:"confidence"`
	} `json:"scores"`
	Strengths    []rawItem `json:"strengths"`
	Improvements []rawItem `json:"improvements"`
	General      string    `json:"general"`
}

type rawItem struct {
	CategoryID *string `json:"category_id"`
	Text       string  `json:"text"`
}

// ParseEvaluation 解析模型返回的文本为结构化评审结果
//
// 容忍 markdown 代码块围栏；除此之外格式必须严格符合约定：
// 每个量规类目恰有一个得分、得分在 0-100 内。越界得分直接判为
// 解析失败，绝不悄悄截断。confidence 缺失时用 defaultConfidence
//（模型配置的置信度旋钮）。
func ParseEvaluation(raw string, categories []model.RubricCategory, defaultConfidence float64) (*Evaluation, *Failure) {
	text := stripCodeFence(raw)

	var parsed rawEvaluation
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, newFailure(FailureResponseParse, "响应不是合法 JSON: %v", err)
	}

	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c.CategoryID] = true
	}

	seen := make(map[string]bool, len(categories))
	scores := make([]ParsedScore, 0, len(parsed.Scores))
	for _, s := range parsed.Scores {
		if !known[s.CategoryID] {
			return nil, newFailure(FailureResponseParse, "得分引用了未知类目 %q", s.CategoryID)
		}
		if seen[s.CategoryID] {
			return nil, newFailure(FailureResponseParse, "类目 %q 出现了多个得分", s.CategoryID)
		}
		seen[s.CategoryID] = true

		if s.Score == nil {
			return nil, newFailure(FailureResponseParse, "类目 %q 缺少 score 字段", s.CategoryID)
		}
		if *s.Score < 0 || *s.Score > 100 {
			return nil, newFailure(FailureResponseParse, "类目 %q 得分 %v 超出 0-100", s.CategoryID, *s.Score)
		}

		confidence := defaultConfidence
		if s.Confidence != nil {
			if *s.Confidence < 0 || *s.Confidence > 1 {
				return nil, newFailure(FailureResponseParse, "类目 %q 置信度 %v 超出 0-1", s.CategoryID, *s.Confidence)
			}
			confidence = *s.Confidence
		}

		scores = append(scores, ParsedScore{CategoryID: s.CategoryID, Score: *s.Score, Confidence: confidence})
	}

	for _, c := range categories {
		if !seen[c.CategoryID] {
			return nil, newFailure(FailureResponseParse, "类目 %q (%s) 缺少得分", c.CategoryID, c.Name)
		}
	}

	eval := &Evaluation{
		Scores:  scores,
		General: strings.TrimSpace(parsed.General),
	}
	eval.Strengths = convertItems(parsed.Strengths, known)
	eval.Improvements = convertItems(parsed.Improvements, known)
	return eval, nil
}

// convertItems 过滤空文本；引用未知类目的条目降级为整体反馈而非报错
func convertItems(raw []rawItem, known map[string]bool) []ParsedItem {
	items := make([]ParsedItem, 0, len(raw))
	for _, it := range raw {
		text := strings.TrimSpace(it.Text)
		if text == "" {
			continue
		}
		categoryID := it.CategoryID
		if categoryID != nil && !known[*categoryID] {
			categoryID = nil
		}
		items = append(items, ParsedItem{CategoryID: categoryID, Text: text})
	}
	return items
}

// stripCodeFence 剥离 ```json ... ``` 围栏
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	// 去掉围栏后的语言标记行（如 json）
	if idx := strings.Index(t, "\n"); idx >= 0 {
		t = t[idx+1:]
	}
	if idx := strings.LastIndex(t, "```"); idx >= 0 {
		t = t[:idx]
	}
	return strings.TrimSpace(t)
}

// [自证通过] internal/aiclient/parse.go
