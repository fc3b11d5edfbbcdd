package roadmap

import "math"

// Row is one (team, week) line of the survivor roadmap. Optional numeric
// signals use NaN for "missing"; the scorer turns missing into a neutral
// contribution, never an error.
type Row struct {
	Week       int
	Date       string
	Time       string
	Team       string
	Opponent   string
	HomeOrAway string // "Home", "Away", or "" (BYE rows)

	ProjWinProb float64
	RestDays    float64
	RatingGap   float64
	InjuryAdj   float64

	// live DVOA features (see internal/dvoa)
	TeamTotDVOA float64 // percentage points
	OppTotDVOA  float64
	DVOAGapPP   float64
	DVOAGapDec  float64
	Trend3PP    float64
	TrendBand   string // Up / Flat / Down / Unknown

	IsThanksgiving  bool
	IsBlackFriday   bool
	IsChristmas     bool
	PlaysBothTGXmas bool

	// component contributions, written by the scorer
	SvWin       float64
	SvHome      float64
	SvRest      float64
	SvRating    float64
	SvDVOALevel float64
	SvDVOATrend float64
	SvDVOABand  float64
	SvDVOA      float64
	SvInjury    float64
	SvHoliday   float64

	// scarcity outputs
	MaxFutureProb    float64
	OpportunityDelta float64
	SvScarcityRaw    float64
	SvScarcity       float64
	NowOrNever       bool
	SvNowOrNever     float64

	// holiday highlights (planner guidance, no score effect by default)
	HolidayAny         bool
	HolidayAnchorWeek  int // 0 = team has no holiday game
	SuggestSaveHoliday bool

	SpotValueScore float64
	SpotValue      string // Low / Medium / High

	// columns we don't model, preserved verbatim through load/score/save
	Extra map[string]string
}

// Key identifies a row uniquely within a season.
type Key struct {
	Week     int
	Team     string
	Opponent string
}

func (r *Row) Key() Key { return Key{Week: r.Week, Team: r.Team, Opponent: r.Opponent} }

// IsBye reports whether this is a synthetic no-game row.
func (r *Row) IsBye() bool { return r.Opponent == "" || r.Opponent == "BYE" }

func nan() float64 { return math.NaN() }

// NewRow returns a Row with every optional signal marked missing.
func NewRow() Row {
	return Row{
		ProjWinProb:    nan(),
		RestDays:       nan(),
		RatingGap:      nan(),
		InjuryAdj:      nan(),
		TeamTotDVOA:    nan(),
		OppTotDVOA:     nan(),
		DVOAGapPP:      nan(),
		DVOAGapDec:     nan(),
		Trend3PP:       nan(),
		MaxFutureProb:  nan(),
		SpotValueScore: nan(),
	}
}
