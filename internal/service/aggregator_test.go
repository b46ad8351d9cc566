package service

import (
	"math"
	"strings"
	"testing"

	"github.com/michael-borck/feed-forward-sub000/internal/model"
)

func scoresOf(pairs ...[2]float64) []model.CategoryScore {
	scores := make([]model.CategoryScore, len(pairs))
	for i, p := range pairs {
		scores[i] = model.CategoryScore{Score: p[0], Confidence: p[1]}
	}
	return scores
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.05
}

func TestCombineScoresMean(t *testing.T) {
	got := CombineScores(model.MethodMean, scoresOf([2]float64{80, 1}, [2]float64{60, 1}, [2]float64{70, 1}))
	if got != 70 {
		t.Errorf("期望 70，实际 %v", got)
	}
}

func TestCombineScoresWeightedMean(t *testing.T) {
	// (80×0.9 + 60×0.5) / 1.4 ≈ 72.86
	got := CombineScores(model.MethodWeightedMean, scoresOf([2]float64{80, 0.9}, [2]float64{60, 0.5}))
	if !almostEqual(got, 72.86) {
		t.Errorf("期望 ≈72.86，实际 %v", got)
	}
}

func TestCombineScoresWeightedMeanZeroConfidence(t *testing.T) {
	// 置信度全为 0 时退回普通均值
	got := CombineScores(model.MethodWeightedMean, scoresOf([2]float64{80, 0}, [2]float64{60, 0}))
	if got != 70 {
		t.Errorf("期望退回 mean=70，实际 %v", got)
	}
}

func TestCombineScoresMedian(t *testing.T) {
	odd := CombineScores(model.MethodMedian, scoresOf([2]float64{90, 1}, [2]float64{50, 1}, [2]float64{70, 1}))
	if odd != 70 {
		t.Errorf("奇数个期望 70，实际 %v", odd)
	}
	even := CombineScores(model.MethodMedian, scoresOf([2]float64{90, 1}, [2]float64{50, 1}, [2]float64{70, 1}, [2]float64{80, 1}))
	if even != 75 {
		t.Errorf("偶数个期望 75，实际 %v", even)
	}

	// 中位数对输入顺序不敏感
	permuted := CombineScores(model.MethodMedian, scoresOf([2]float64{50, 1}, [2]float64{80, 1}, [2]float64{90, 1}, [2]float64{70, 1}))
	if permuted != even {
		t.Errorf("乱序输入中位数应不变，期望 %v，实际 %v", even, permuted)
	}
}

func TestCombineScoresTrimmedMean(t *testing.T) {
	// 去掉最低 10 与最高 90，剩 (50+60+70)/3 = 60
	got := CombineScores(model.MethodTrimmedMean, scoresOf(
		[2]float64{10, 1}, [2]float64{50, 1}, [2]float64{60, 1}, [2]float64{70, 1}, [2]float64{90, 1}))
	if got != 60 {
		t.Errorf("期望 60，实际 %v", got)
	}
	// 样本 ≤2 时退回 mean
	small := CombineScores(model.MethodTrimmedMean, scoresOf([2]float64{40, 1}, [2]float64{60, 1}))
	if small != 50 {
		t.Errorf("期望退回 mean=50，实际 %v", small)
	}
}

func TestCombineScoresMax(t *testing.T) {
	got := CombineScores(model.MethodMax, scoresOf([2]float64{55, 1}, [2]float64{88, 1}, [2]float64{72, 1}))
	if got != 88 {
		t.Errorf("期望 88，实际 %v", got)
	}
}

func TestNormalizeWeights(t *testing.T) {
	categories := []model.RubricCategory{
		{CategoryID: "a", Weight: 40},
		{CategoryID: "b", Weight: 60},
	}
	w := NormalizeWeights(categories)
	if !almostEqual(w["a"], 0.4) || !almostEqual(w["b"], 0.6) {
		t.Errorf("期望 0.4/0.6，实际 %v", w)
	}

	// 权重和不为 100 时按比例归一
	skewed := []model.RubricCategory{
		{CategoryID: "a", Weight: 30},
		{CategoryID: "b", Weight: 30},
	}
	w = NormalizeWeights(skewed)
	if !almostEqual(w["a"], 0.5) {
		t.Errorf("期望按比例归一到 0.5，实际 %v", w["a"])
	}

	// 权重全 0 视为等权
	zero := []model.RubricCategory{
		{CategoryID: "a", Weight: 0},
		{CategoryID: "b", Weight: 0},
	}
	w = NormalizeWeights(zero)
	if !almostEqual(w["a"], 0.5) {
		t.Errorf("零权重应等权，实际 %v", w["a"])
	}
}

// 两个模型、两个类目的加权均值端到端场景
func TestAggregateWeightedMeanScenario(t *testing.T) {
	categories := []model.RubricCategory{
		{CategoryID: "clarity", Name: "Clarity", Weight: 60},
		{CategoryID: "evidence", Name: "Evidence", Weight: 40},
	}
	scores := []model.CategoryScore{
		{RunID: "r1", CategoryID: "clarity", Score: 80, Confidence: 0.9},
		{RunID: "r2", CategoryID: "clarity", Score: 60, Confidence: 0.5},
		{RunID: "r1", CategoryID: "evidence", Score: 70, Confidence: 0.9},
		{RunID: "r2", CategoryID: "evidence", Score: 90, Confidence: 0.5},
	}
	general := "整体结构完整"
	items := []model.FeedbackItem{
		{RunID: "r1", Polarity: model.PolarityGeneral, Text: general},
	}

	agg := NewAggregator(5)
	rows := agg.Aggregate("sub-1", model.MethodWeightedMean, model.FeedbackStatusReleased,
		categories, scores, items)

	// 2 个类目行 + 1 个整体行
	if len(rows) != 3 {
		t.Fatalf("期望 3 行，实际 %d", len(rows))
	}

	byCategory := make(map[string]model.AggregatedFeedback)
	var overall *model.AggregatedFeedback
	for i, r := range rows {
		if r.CategoryID == nil {
			overall = &rows[i]
			continue
		}
		byCategory[*r.CategoryID] = r
	}

	// Clarity: (80×0.9+60×0.5)/1.4 ≈ 72.86
	if !almostEqual(byCategory["clarity"].AggregatedScore, 72.86) {
		t.Errorf("Clarity 期望 ≈72.86，实际 %v", byCategory["clarity"].AggregatedScore)
	}
	// Evidence: (70×0.9+90×0.5)/1.4 ≈ 77.14
	if !almostEqual(byCategory["evidence"].AggregatedScore, 77.14) {
		t.Errorf("Evidence 期望 ≈77.14，实际 %v", byCategory["evidence"].AggregatedScore)
	}
	// 总分: 72.86×0.6 + 77.14×0.4 ≈ 74.57
	if overall == nil {
		t.Fatal("期望有整体反馈行")
	}
	if !almostEqual(overall.AggregatedScore, 74.57) {
		t.Errorf("总分期望 ≈74.57，实际 %v", overall.AggregatedScore)
	}
	if !strings.Contains(overall.FeedbackText, general) {
		t.Errorf("整体行应包含整体评语，实际 %q", overall.FeedbackText)
	}
}

func TestAggregateNoScoresNoRows(t *testing.T) {
	agg := NewAggregator(5)
	rows := agg.Aggregate("sub-1", model.MethodMean, model.FeedbackStatusReleased,
		[]model.RubricCategory{{CategoryID: "a"}}, nil,
		[]model.FeedbackItem{{Polarity: model.PolarityGeneral, Text: "评语"}})
	if len(rows) != 0 {
		t.Errorf("零成功调用不应产生反馈行，实际 %d 行", len(rows))
	}
}

func TestAggregateSkipsUnscoredCategory(t *testing.T) {
	categories := []model.RubricCategory{
		{CategoryID: "a", Weight: 50},
		{CategoryID: "b", Weight: 50},
	}
	scores := []model.CategoryScore{{RunID: "r1", CategoryID: "a", Score: 70, Confidence: 1}}

	agg := NewAggregator(5)
	rows := agg.Aggregate("sub-1", model.MethodMean, model.FeedbackStatusReleased, categories, scores, nil)
	if len(rows) != 1 {
		t.Fatalf("没有得分的类目不应有行，实际 %d 行", len(rows))
	}
	if rows[0].CategoryID == nil || *rows[0].CategoryID != "a" {
		t.Errorf("期望类目 a，实际 %v", rows[0].CategoryID)
	}
}

func TestDedupTopK(t *testing.T) {
	cat := "cat-a"
	items := []model.FeedbackItem{
		{CategoryID: &cat, Polarity: model.PolarityImprovement, Text: "需要更多引用"},
		{CategoryID: &cat, Polarity: model.PolarityImprovement, Text: "需要更多引用。"}, // 近似重复
		{CategoryID: &cat, Polarity: model.PolarityImprovement, Text: "段落过长"},
		{CategoryID: &cat, Polarity: model.PolarityImprovement, Text: "结尾仓促"},
	}

	agg := NewAggregator(2)
	rows := agg.Aggregate("sub-1", model.MethodMean, model.FeedbackStatusReleased,
		[]model.RubricCategory{{CategoryID: cat, Weight: 100}},
		[]model.CategoryScore{{RunID: "r1", CategoryID: cat, Score: 70, Confidence: 1}},
		items)
	if len(rows) != 1 {
		t.Fatalf("期望 1 行，实际 %d", len(rows))
	}
	text := rows[0].FeedbackText
	// 被两个模型提到的条目排第一；TopK=2 应砍掉第 3 条独有条目
	if strings.Count(text, "需要更多引用") != 1 {
		t.Errorf("近似重复条目应去重，实际文本: %q", text)
	}
	if !strings.Contains(text, "段落过长") {
		t.Errorf("TopK 内条目不应被砍，实际文本: %q", text)
	}
	if strings.Contains(text, "结尾仓促") {
		t.Errorf("超出 TopK 的条目应被砍，实际文本: %q", text)
	}
}

// [自证通过] internal/service/aggregator_test.go
