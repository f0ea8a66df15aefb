package networth

import (
	"fmt"
	"math"
)

// prDataPoints は台湾家計純資産分布のデータ点。
// 各点は(PR値, 純資産の万元単位の閾値)。最終点は高資産入力を扱うための極値。
var prDataPoints = [][2]float64{
	{0, 0},
	{10, 143},     // 第1十分位数 (D1)
	{25, 400},     // 約第1四分位数 (Q1)
	{50, 894},     // 中央値 (D5)
	{75, 1800},    // 約第3四分位数 (Q3)
	{90, 3391},    // 第9十分位数 (D9)
	{97.5, 5000},  // 高資産客層の参考閾値
	{100, 100000}, // 極値（10億元）
}

// CalculatePRValue は純資産（元）から台湾家計純資産百分位（PR値）を計算する。
// 入力を万元単位に換算し、分布データ点の間を線形補間して2桁に丸める。
// 下限以下は0、上限以上は100。純粋関数で入力に対し単調。
// 例: 8,940,000元 = 894万元は中央値のデータ点にちょうど一致しPR 50.00。
func CalculatePRValue(netWorth float64) float64 {
	netWorthInTenThousands := netWorth / 10000

	if netWorthInTenThousands <= prDataPoints[0][1] {
		return 0
	}
	if netWorthInTenThousands >= prDataPoints[len(prDataPoints)-1][1] {
		return 100
	}

	for i := 1; i < len(prDataPoints); i++ {
		pr1, nw1 := prDataPoints[i-1][0], prDataPoints[i-1][1]
		pr2, nw2 := prDataPoints[i][0], prDataPoints[i][1]

		if netWorthInTenThousands >= nw1 && netWorthInTenThousands < nw2 {
			pr := pr1 + (netWorthInTenThousands-nw1)*(pr2-pr1)/(nw2-nw1)
			return math.Round(pr*100) / 100
		}
	}

	return 100
}

// incomePercentiles は年収入の十分位数閾値（元）と対応する百分位。
var incomePercentiles = []struct {
	threshold  float64
	percentile int
}{
	{316000, 5},
	{368000, 15},
	{413000, 25},
	{465000, 35},
	{525000, 45},
	{601000, 55},
	{720000, 65},
	{917000, 75},
	{1279000, 85},
}

// CalculateIncomePercentile は年収入の百分位の説明文を返す。
// 負値やNaNには空文字列を返す。最上位バケットを超える収入は95%。
func CalculateIncomePercentile(income float64) string {
	if math.IsNaN(income) || income < 0 {
		return ""
	}

	for _, p := range incomePercentiles {
		if income <= p.threshold {
			return fmt.Sprintf("您的年收入贏過%d%%的人", p.percentile)
		}
	}
	return "您的年收入贏過95%的人"
}

// 財富階層の閾値（新台幣元）。
const (
	rankThresholdGraduate = 150_000_000
	rankThresholdWinner   = 30_000_000
	rankThresholdVIP      = 3_000_000
	rankThresholdSalaried = 300_000
)

// RankTier は純資産から財富階層の称号を判定する。
func RankTier(netWorth float64) string {
	switch {
	case netWorth >= rankThresholdGraduate:
		return "地球OL．財富畢業證書"
	case netWorth >= rankThresholdWinner:
		return "人生勝利組S級玩家卡"
	case netWorth >= rankThresholdVIP:
		return "準富豪VIP登錄證"
	case netWorth >= rankThresholdSalaried:
		return "尊爵不凡．小資族認證"
	default:
		return "新手村榮譽村民證"
	}
}
