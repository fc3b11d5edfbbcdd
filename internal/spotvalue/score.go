package spotvalue

import (
	"math"

	"github.com/nflpicks/survivor-tools/internal/roadmap"
)

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// orZero maps a missing optional signal to a neutral contribution.
func orZero(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return x
}

func orDefault(x, def float64) float64 {
	if math.IsNaN(x) {
		return def
	}
	return x
}

// add folds a component contribution into the running score, keeping the
// accumulated total inside [0,1] after every step.
func add(r *roadmap.Row, contrib float64) {
	r.SpotValueScore = clip(r.SpotValueScore+contrib, 0, 1)
}

/* ---------- component scorers, applied in a fixed order ---------- */

func winComponent(r *roadmap.Row, cfg Config) float64 {
	wp := clip(orDefault(r.ProjWinProb, 0.5), 0, 1)
	switch cfg.WinCurve {
	case WinCurveLinear:
		return cfg.WWin * wp
	default:
		return cfg.WWin * (1.0 / (1.0 + math.Exp(-cfg.WinSteepness*(wp-0.5))))
	}
}

func scoreBase(rows []roadmap.Row, cfg Config) {
	for i := range rows {
		r := &rows[i]
		r.SvWin = winComponent(r, cfg)
		r.SvHome = 0
		if r.HomeOrAway == "Home" {
			r.SvHome = cfg.WHome
		}
		band := cfg.RestMaxDays - cfg.RestMinDays
		rest := clip(orZero(r.RestDays), cfg.RestMinDays, cfg.RestMaxDays)
		r.SvRest = (rest - cfg.RestMinDays) / band * cfg.WRest
		r.SpotValueScore = clip(r.SvWin+r.SvHome+r.SvRest, 0, 1)
	}
}

func scoreRating(rows []roadmap.Row, cfg Config) {
	for i := range rows {
		r := &rows[i]
		r.SvRating = cfg.WRating * math.Tanh(orZero(r.RatingGap)/cfg.RatingWidth)
		add(r, r.SvRating)
	}
}

func scoreDVOA(rows []roadmap.Row, cfg Config) {
	for i := range rows {
		r := &rows[i]

		level := clip(orZero(r.DVOAGapDec), -cfg.LevelCap, cfg.LevelCap)
		r.SvDVOALevel = cfg.WDVOALevel * level

		trendNorm := clip(orZero(r.Trend3PP)/cfg.TrendScalePP, -1, 1)
		trend := clip(cfg.WDVOATrend*trendNorm, -cfg.MaxTrendBonus, cfg.MaxTrendBonus)
		if r.Week > 0 && r.Week < cfg.EarlyTrendWeek {
			trend *= cfg.EarlyTrendScale // trend is noise this early
		}
		r.SvDVOATrend = trend

		r.SvDVOABand = cfg.TrendBandBump[r.TrendBand]

		r.SvDVOA = r.SvDVOALevel + r.SvDVOATrend + r.SvDVOABand
		// DVOA matters less when the matchup is already lopsided
		if !math.IsNaN(r.ProjWinProb) && r.ProjWinProb >= cfg.DampenAt {
			r.SvDVOA *= cfg.DampenScale
		}
		add(r, r.SvDVOA)
	}
}

func scoreInjury(rows []roadmap.Row, cfg Config) {
	for i := range rows {
		r := &rows[i]
		r.SvInjury = cfg.WInjury * clip(orZero(r.InjuryAdj), -cfg.InjuryCap, cfg.InjuryCap)
		add(r, r.SvInjury)
	}
}

// scoreHoliday penalizes holiday-anchored weeks. Fixed-date games are worth
// saving, so spending those teams early costs score.
func scoreHoliday(rows []roadmap.Row, cfg Config) {
	for i := range rows {
		r := &rows[i]
		pen := 0.0
		if r.IsThanksgiving {
			pen += cfg.ThanksgivingPenalty
		}
		if r.IsBlackFriday {
			pen += cfg.BlackFridayPenalty
		}
		if r.IsChristmas {
			pen += cfg.ChristmasPenalty
		}
		tgWindow := r.IsThanksgiving || r.IsBlackFriday
		if (tgWindow && r.IsChristmas) || (r.PlaysBothTGXmas && (tgWindow || r.IsChristmas)) {
			pen += cfg.HolidayComboExtra
		}
		r.SvHoliday = pen
		add(r, r.SvHoliday)
	}
}

// highlightHolidays marks each team's first fixed-date game and flags the
// weeks before it as "save for the holiday". Guidance columns only unless
// HolidayHoldoutSoft is nonzero.
func highlightHolidays(rows []roadmap.Row, cfg Config) {
	anchor := make(map[string]int)
	for i := range rows {
		r := &rows[i]
		r.HolidayAny = r.IsThanksgiving || r.IsBlackFriday || r.IsChristmas
		if r.HolidayAny {
			if w, ok := anchor[r.Team]; !ok || r.Week < w {
				anchor[r.Team] = r.Week
			}
		}
	}
	for i := range rows {
		r := &rows[i]
		r.HolidayAnchorWeek = anchor[r.Team]
		r.SuggestSaveHoliday = r.HolidayAnchorWeek > 0 && r.Week < r.HolidayAnchorWeek
		if cfg.HolidayHoldoutSoft != 0 && r.SuggestSaveHoliday {
			add(r, cfg.HolidayHoldoutSoft)
		}
	}
}

/* ---------- bucketing ---------- */

func bucket(rows []roadmap.Row, cfg Config) {
	for i := range rows {
		r := &rows[i]
		switch {
		case r.SpotValueScore >= cfg.HiThresh:
			if cfg.DemoteEarlyHigh && r.Week >= 1 && r.Week <= cfg.EarlyWeekCutoff {
				// early-season confidence is less reliable
				r.SpotValue = "Medium"
			} else {
				r.SpotValue = "High"
			}
		case r.SpotValueScore >= cfg.MedThresh:
			r.SpotValue = "Medium"
		default:
			r.SpotValue = "Low"
		}
	}
}

// Apply runs the full pipeline over a roadmap table in place: duplicate-key
// validation, the component scorers in their fixed order, the per-team
// scarcity lookahead, holiday highlights, bucketing, and a final audit that
// no row escaped without a finite score.
func Apply(t *roadmap.Table, cfg Config) error {
	if err := t.CheckDuplicates(); err != nil {
		return err
	}
	scoreBase(t.Rows, cfg)
	scoreRating(t.Rows, cfg)
	scoreDVOA(t.Rows, cfg)
	scoreInjury(t.Rows, cfg)
	scoreHoliday(t.Rows, cfg)
	scoreScarcity(t.Rows, cfg)
	highlightHolidays(t.Rows, cfg)
	bucket(t.Rows, cfg)
	return t.AuditScores()
}
