package calculator

// Tier 毛利率档位
type Tier string

const (
	TierPoor      Tier = "poor"
	TierFair      Tier = "fair"
	TierGood      Tier = "good"
	TierExcellent Tier = "excellent"
)

// 档位阈值固定，不可配置
const (
	fairThreshold = 60.0
	goodThreshold = 70.0
	bestThreshold = 80.0
)

// ClassifyMargin 毛利率分档：<60 poor，60–70 fair，70–80 good，>80 excellent
func ClassifyMargin(percent float64) Tier {
	switch {
	case percent < fairThreshold:
		return TierPoor
	case percent <= goodThreshold:
		return TierFair
	case percent <= bestThreshold:
		return TierGood
	default:
		return TierExcellent
	}
}
