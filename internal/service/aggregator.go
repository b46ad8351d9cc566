package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/michael-borck/feed-forward-sub000/internal/model"
)

// Aggregator 多模型评审结果的统计聚合
//
// 纯计算，不碰数据库：输入某次编排落库的全部类目得分与定性反馈，
// 输出待写入 aggregated_feedback 的行。每个有得分的类目一行；
// 存在整体评语时再加一行 category_id 为空的整体反馈行。
type Aggregator struct {
	TopK int // 每个极性保留的定性反馈条数
}

// NewAggregator 创建聚合器
func NewAggregator(topK int) *Aggregator {
	if topK < 1 {
		topK = 5
	}
	return &Aggregator{TopK: topK}
}

// Aggregate 将一次编排的全部成功调用结果聚合为反馈行
// 没有任何得分时返回空切片（零成功调用不产生反馈）
func (a *Aggregator) Aggregate(
	submissionID, method, status string,
	categories []model.RubricCategory,
	scores []model.CategoryScore,
	items []model.FeedbackItem,
) []model.AggregatedFeedback {
	if len(scores) == 0 {
		return nil
	}

	byCategory := make(map[string][]model.CategoryScore)
	for _, s := range scores {
		byCategory[s.CategoryID] = append(byCategory[s.CategoryID], s)
	}

	itemsByCategory := make(map[string][]model.FeedbackItem)
	var generalItems []model.FeedbackItem
	for _, it := range items {
		if it.CategoryID == nil {
			generalItems = append(generalItems, it)
			continue
		}
		itemsByCategory[*it.CategoryID] = append(itemsByCategory[*it.CategoryID], it)
	}

	// 按量规定义顺序输出，跳过没有任何得分的类目
	rows := make([]model.AggregatedFeedback, 0, len(categories)+1)
	categoryScore := make(map[string]float64)
	for _, c := range categories {
		group, ok := byCategory[c.CategoryID]
		if !ok {
			continue
		}
		combined := CombineScores(method, group)
		categoryScore[c.CategoryID] = combined

		categoryID := c.CategoryID
		rows = append(rows, model.AggregatedFeedback{
			SubmissionID:    submissionID,
			CategoryID:      &categoryID,
			AggregatedScore: round2(combined),
			FeedbackText:    a.buildFeedbackText(itemsByCategory[c.CategoryID]),
			Method:          method,
			Status:          status,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	// 整体反馈行：得分为按权重归一化的总分
	if len(generalItems) > 0 {
		rows = append(rows, model.AggregatedFeedback{
			SubmissionID:    submissionID,
			AggregatedScore: round2(OverallScore(categories, categoryScore)),
			FeedbackText:    a.buildFeedbackText(generalItems),
			Method:          method,
			Status:          status,
		})
	}
	return rows
}

// ── 得分聚合 ──

// CombineScores 按指定方法聚合同一类目的多次得分
// 调用方保证 scores 非空；不认识的方法退回 mean
func CombineScores(method string, scores []model.CategoryScore) float64 {
	switch method {
	case model.MethodWeightedMean:
		return weightedMean(scores)
	case model.MethodMedian:
		return median(scores)
	case model.MethodTrimmedMean:
		return trimmedMean(scores)
	case model.MethodMax:
		return maxScore(scores)
	default:
		return mean(scores)
	}
}

func mean(scores []model.CategoryScore) float64 {
	var sum float64
	for _, s := range scores {
		sum += s.Score
	}
	return sum / float64(len(scores))
}

// weightedMean 按置信度加权；置信度全为 0 时退回 mean
func weightedMean(scores []model.CategoryScore) float64 {
	var sum, weight float64
	for _, s := range scores {
		sum += s.Score * s.Confidence
		weight += s.Confidence
	}
	if weight <= 0 {
		return mean(scores)
	}
	return sum / weight
}

func median(scores []model.CategoryScore) float64 {
	sorted := sortedScores(scores)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// trimmedMean 去掉两端各 10%（至少各 1 个）后取均值
// 样本太少（≤2）无端可去，退回 mean
func trimmedMean(scores []model.CategoryScore) float64 {
	n := len(scores)
	if n <= 2 {
		return mean(scores)
	}
	trim := n / 10
	if trim < 1 {
		trim = 1
	}
	sorted := sortedScores(scores)
	kept := sorted[trim : n-trim]
	var sum float64
	for _, v := range kept {
		sum += v
	}
	return sum / float64(len(kept))
}

func maxScore(scores []model.CategoryScore) float64 {
	best := scores[0].Score
	for _, s := range scores[1:] {
		if s.Score > best {
			best = s.Score
		}
	}
	return best
}

func sortedScores(scores []model.CategoryScore) []float64 {
	values := make([]float64, len(scores))
	for i, s := range scores {
		values[i] = s.Score
	}
	sort.Float64s(values)
	return values
}

// ── 权重归一化与总分 ──

// NormalizeWeights 将类目权重按比例归一化（Σ=1）
// 权重和接近 0 时视为等权
func NormalizeWeights(categories []model.RubricCategory) map[string]float64 {
	const epsilon = 1e-9
	weights := make(map[string]float64, len(categories))
	var sum float64
	for _, c := range categories {
		sum += c.Weight
	}
	if sum < epsilon {
		equal := 1.0 / float64(len(categories))
		for _, c := range categories {
			weights[c.CategoryID] = equal
		}
		return weights
	}
	for _, c := range categories {
		weights[c.CategoryID] = c.Weight / sum
	}
	return weights
}

// OverallScore 按归一化权重计算总分
// 只对有得分的类目加权，并在这些类目内再归一化
func OverallScore(categories []model.RubricCategory, categoryScore map[string]float64) float64 {
	weights := NormalizeWeights(categories)
	var sum, present float64
	for id, score := range categoryScore {
		sum += score * weights[id]
		present += weights[id]
	}
	if present <= 0 {
		return 0
	}
	return sum / present
}

// ── 定性反馈聚合 ──

// buildFeedbackText 按极性去重、按出现次数排序、各保留 TopK 条
func (a *Aggregator) buildFeedbackText(items []model.FeedbackItem) string {
	strengths := dedupTopK(filterByPolarity(items, model.PolarityStrength), a.TopK)
	improvements := dedupTopK(filterByPolarity(items, model.PolarityImprovement), a.TopK)
	general := dedupTopK(filterByPolarity(items, model.PolarityGeneral), a.TopK)

	var sections []string
	if len(strengths) > 0 {
		sections = append(sections, "优势：\n"+bulletList(strengths))
	}
	if len(improvements) > 0 {
		sections = append(sections, "待改进：\n"+bulletList(improvements))
	}
	if len(general) > 0 {
		sections = append(sections, "整体评语：\n"+bulletList(general))
	}
	return strings.Join(sections, "\n\n")
}

func filterByPolarity(items []model.FeedbackItem, polarity string) []string {
	var texts []string
	for _, it := range items {
		if it.Polarity == polarity {
			texts = append(texts, it.Text)
		}
	}
	return texts
}

// dedupTopK 近似去重：归一化后相同视为重复；多模型反复提到的条目
// 排在前面（次数相同按首次出现顺序）
func dedupTopK(texts []string, k int) []string {
	type entry struct {
		text  string
		count int
		first int
	}
	seen := make(map[string]*entry)
	var order []*entry
	for i, t := range texts {
		key := normalizeText(t)
		if key == "" {
			continue
		}
		if e, ok := seen[key]; ok {
			e.count++
			continue
		}
		e := &entry{text: strings.TrimSpace(t), count: 1, first: i}
		seen[key] = e
		order = append(order, e)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	if len(order) > k {
		order = order[:k]
	}
	result := make([]string, len(order))
	for i, e := range order {
		result[i] = e.text
	}
	return result
}

// normalizeText 小写、压缩空白、去掉尾部标点，作为去重键
func normalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRight(s, ".,;:!?。，；：！？")
}

func bulletList(texts []string) string {
	var b strings.Builder
	for i, t := range texts {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s", t)
	}
	return b.String()
}

// round2 保留两位小数（与 NUMERIC(5,2) 列精度一致）
func round2(v float64) float64 {
	if v < 0 {
		return float64(int64(v*100-0.5)) / 100
	}
	return float64(int64(v*100+0.5)) / 100
}

// [自证通过] internal/service/aggregator.go
