// Package spotvalue scores how desirable it is to spend a team in a given
// week of a survivor pool. The score is a weighted sum of win probability,
// home/rest edges, power-rating and DVOA gaps, injuries, holiday penalties,
// and a future-scarcity lookahead, clipped to [0,1] after every component.
package spotvalue

// WinCurve selects how projected_win_prob maps into the win component.
type WinCurve int

const (
	// WinCurveLogistic is the canonical curve: logistic centered at 0.5.
	WinCurveLogistic WinCurve = iota
	// WinCurveLinear is the older variant: prob scaled straight by WWin.
	WinCurveLinear
)

// Config carries every tunable weight, cap, and threshold. It is passed into
// the pipeline at construction and never mutated; historical script variants
// differ only in these values.
type Config struct {
	// core components
	WWin         float64
	WinSteepness float64 // logistic k
	WinCurve     WinCurve
	WHome        float64
	WRest        float64
	RestMinDays  float64 // rest band rescaled from [min,max] to [0,WRest]
	RestMaxDays  float64
	WRating      float64
	RatingWidth  float64 // tanh half-saturation, power-rating points
	WInjury      float64
	InjuryCap    float64

	// live DVOA level + trend
	WDVOALevel      float64
	LevelCap        float64 // decimal gap clip
	WDVOATrend      float64
	TrendScalePP    float64 // pp per 1.0 trend unit
	MaxTrendBonus   float64
	TrendBandBump   map[string]float64 // band label → nudge
	EarlyTrendWeek  int                // weeks before this dampen the trend term
	EarlyTrendScale float64
	DampenAt        float64 // win prob at which DVOA matters less
	DampenScale     float64

	// holiday penalties (strategic nudge, not a probability signal)
	ThanksgivingPenalty float64
	BlackFridayPenalty  float64
	ChristmasPenalty    float64
	HolidayComboExtra   float64
	HolidayHoldoutSoft  float64 // 0 = highlight only, no score effect

	// future scarcity / now-or-never
	WScarcityTotal   float64
	ScarcityNormBand float64 // opportunity delta that saturates the signal
	FutureGoodThresh float64 // a "good" future week
	FutureDepthMax   float64 // good-week count that zeroes the depth signal
	DeltaWeight      float64 // delta vs depth mix (depth gets 1-DeltaWeight)
	NowNeverMargin   float64
	NowNeverBonus    float64
	NowNeverBand     float64 // gap over margin that maxes the bonus

	// bucketing
	HiThresh        float64
	MedThresh       float64
	DemoteEarlyHigh bool // weeks 1..EarlyWeekCutoff never bucket High
	EarlyWeekCutoff int
}

// Default returns the locked v1.0 tuning.
func Default() Config {
	return Config{
		WWin:         0.42,
		WinSteepness: 6.0,
		WinCurve:     WinCurveLogistic,
		WHome:        0.12,
		WRest:        0.10,
		RestMinDays:  4,
		RestMaxDays:  10,
		WRating:      0.12,
		RatingWidth:  8.0,
		WInjury:      0.06,
		InjuryCap:    0.10,

		WDVOALevel:      0.18,
		LevelCap:        0.20,
		WDVOATrend:      0.06,
		TrendScalePP:    10.0,
		MaxTrendBonus:   0.03,
		TrendBandBump:   map[string]float64{"Up": 0.015, "Down": -0.012},
		EarlyTrendWeek:  5,
		EarlyTrendScale: 0.4,
		DampenAt:        0.70,
		DampenScale:     0.5,

		ThanksgivingPenalty: -0.12,
		BlackFridayPenalty:  -0.08,
		ChristmasPenalty:    -0.12,
		HolidayComboExtra:   -0.05,
		HolidayHoldoutSoft:  0.0,

		WScarcityTotal:   0.12,
		ScarcityNormBand: 0.30,
		FutureGoodThresh: 0.55,
		FutureDepthMax:   4,
		DeltaWeight:      0.60,
		NowNeverMargin:   0.05,
		NowNeverBonus:    0.025,
		NowNeverBand:     0.10,

		HiThresh:        0.51,
		MedThresh:       0.41,
		DemoteEarlyHigh: true,
		EarlyWeekCutoff: 6,
	}
}
