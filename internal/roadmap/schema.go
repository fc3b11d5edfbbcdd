package roadmap

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/nflpicks/survivor-tools/internal/teams"
)

// Canonical column names and their ordered source aliases. Resolution happens
// once at load; everything downstream sees canonical names only.
var columnAliases = map[string][]string{
	"week":               {"week", "wk"},
	"date":               {"date", "date_sch", "gamedate"},
	"time":               {"time"},
	"team":               {"team"},
	"opponent":           {"opponent", "opponent_team", "opp"},
	"home_or_away":       {"home_or_away", "home_away", "homeaway"},
	"projected_win_prob": {"projected_win_prob", "implied_win_prob", "implied_wp", "proj_wp", "win_prob"},
	"rest_days":          {"rest_days", "rest"},
	"rating_gap":         {"rating_gap", "power_gap"},
	"injury_adjustment":  {"injury_adjustment", "injury_adj"},
	"team_tot_dvoa_pp":   {"team_tot_dvoa_pp", "team_tot_dvoa", "team_total_dvoa", "team_dvoa"},
	"opp_tot_dvoa_pp":    {"opp_tot_dvoa_pp", "opp_tot_dvoa", "opp_total_dvoa", "opp_dvoa"},
	"dvoa_gap_pp":        {"dvoa_gap_pp", "dvoa_gap"},
	"dvoa_gap_dec":       {"dvoa_gap_dec"},
	"trend3_pp":          {"trend3_pp"},
	"trend_band":         {"trend_band"},
	"is_thanksgiving":    {"is_thanksgiving"},
	"is_black_friday":    {"is_black_friday"},
	"is_christmas":       {"is_christmas"},
	"plays_both_tg_xmas": {"plays_both_tg_xmas"},
	"spot_value_score":   {"spot_value_score"},
	"spot_value":         {"spot_value"},

	// scorer outputs; recognized so re-runs overwrite instead of duplicating
	"sv_win": {"sv_win"}, "sv_home": {"sv_home"}, "sv_rest": {"sv_rest"},
	"sv_rating": {"sv_rating"}, "sv_dvoa_level": {"sv_dvoa_level"},
	"sv_dvoa_trend": {"sv_dvoa_trend"}, "sv_dvoa_band": {"sv_dvoa_band"},
	"sv_dvoa": {"sv_dvoa"}, "sv_injury": {"sv_injury"}, "sv_holiday": {"sv_holiday"},
	"max_future_prob": {"max_future_prob"}, "opportunity_delta": {"opportunity_delta"},
	"sv_scarcity_raw": {"sv_scarcity_raw"}, "sv_scarcity": {"sv_scarcity"},
	"is_now_or_never": {"is_now_or_never"},
	"sv_now_or_never": {"sv_now_or_never"}, "holiday_any": {"holiday_any"},
	"holiday_anchor_week": {"holiday_anchor_week"}, "is_holiday_team": {"is_holiday_team"},
	"suggest_save_for_holiday": {"suggest_save_for_holiday"},
}

// EssentialColumns must exist in the source file before scoring; all other
// signals degrade to a neutral contribution when absent.
var EssentialColumns = []string{
	"week", "team", "opponent", "home_or_away", "rest_days", "projected_win_prob",
}

// Table is a roadmap loaded into memory: ordered rows plus bookkeeping about
// which canonical columns the source actually carried.
type Table struct {
	Rows []Row

	present   map[string]bool
	extraCols []string
}

// Has reports whether the source file carried the canonical column (under any
// of its aliases).
func (t *Table) Has(canonical string) bool { return t.present[canonical] }

// ExtraColumns lists passthrough columns, in source order.
func (t *Table) ExtraColumns() []string { return t.extraCols }

// AddExtraColumn registers a passthrough column so it is emitted on write.
// Adding an already-known column is a no-op.
func (t *Table) AddExtraColumn(name string) {
	for _, c := range t.extraCols {
		if c == name {
			return
		}
	}
	t.extraCols = append(t.extraCols, name)
}

// RequireEssential returns a fatal configuration error when any identifying
// input column is entirely absent. We never fabricate identity columns.
func (t *Table) RequireEssential() error {
	var missing []string
	for _, c := range EssentialColumns {
		if !t.present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("roadmap missing essential columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// CheckDuplicates reports rows sharing a (week, team, opponent) key. Duplicate
// keys are a data-quality defect in the upstream roadmap build.
func (t *Table) CheckDuplicates() error {
	seen := make(map[Key]int, len(t.Rows))
	var dups []string
	for _, r := range t.Rows {
		k := r.Key()
		seen[k]++
		if seen[k] == 2 {
			dups = append(dups, fmt.Sprintf("week %d %s vs %s", k.Week, k.Team, k.Opponent))
		}
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		return fmt.Errorf("duplicate roadmap keys: %s", strings.Join(dups, "; "))
	}
	return nil
}

// AuditScores fails when any row finished scoring without a finite score.
// A NaN here means a pipeline bug, not bad input, so it blocks the write.
func (t *Table) AuditScores() error {
	var bad []string
	for _, r := range t.Rows {
		if math.IsNaN(r.SpotValueScore) || math.IsInf(r.SpotValueScore, 0) {
			bad = append(bad, fmt.Sprintf("week %d %s vs %s", r.Week, r.Team, r.Opponent))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%d rows left without a spot_value_score: %s", len(bad), strings.Join(bad, "; "))
	}
	return nil
}

/* ---------- cell coercion ---------- */

func parseFloatCell(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func parseIntCell(s string, def int) int {
	f := parseFloatCell(s)
	if math.IsNaN(f) {
		return def
	}
	return int(f)
}

var trueSet = map[string]struct{}{
	"1": {}, "true": {}, "t": {}, "yes": {}, "y": {},
}

func parseBoolCell(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return false
	}
	if _, ok := trueSet[s]; ok {
		return true
	}
	// numeric truthiness ("1.0")
	if f := parseFloatCell(s); !math.IsNaN(f) {
		return f != 0
	}
	return false
}

func normHomeOrAway(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "home", "h":
		return "Home"
	case "away", "a", "@":
		return "Away"
	}
	return ""
}

func normBucket(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return "High"
	case "medium", "med":
		return "Medium"
	case "low":
		return "Low"
	}
	return strings.TrimSpace(s)
}

func normTrendBand(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return "Up"
	case "down":
		return "Down"
	case "flat":
		return "Flat"
	case "":
		return ""
	}
	return "Unknown"
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// rowFromRecord builds a normalized Row from one CSV record using the
// resolved column indexes. Value-range violations are clamped, not rejected.
func rowFromRecord(rec []string, idx map[string]int) Row {
	get := func(canonical string) string {
		i, ok := idx[canonical]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	r := NewRow()
	r.Week = parseIntCell(get("week"), 0)
	r.Date = strings.TrimSpace(get("date"))
	r.Time = strings.TrimSpace(get("time"))
	r.Team = teams.Norm(get("team"))
	r.Opponent = teams.Norm(get("opponent"))
	r.HomeOrAway = normHomeOrAway(get("home_or_away"))

	if p := parseFloatCell(get("projected_win_prob")); !math.IsNaN(p) {
		r.ProjWinProb = clamp(p, 0, 1)
	}
	if d := parseFloatCell(get("rest_days")); !math.IsNaN(d) {
		if d < 0 {
			d = 0
		}
		r.RestDays = d
	} else {
		r.RestDays = 6 // unknown rest reads as a normal week
	}
	r.RatingGap = parseFloatCell(get("rating_gap"))
	r.InjuryAdj = parseFloatCell(get("injury_adjustment"))

	r.TeamTotDVOA = parseFloatCell(get("team_tot_dvoa_pp"))
	r.OppTotDVOA = parseFloatCell(get("opp_tot_dvoa_pp"))
	r.DVOAGapPP = parseFloatCell(get("dvoa_gap_pp"))
	r.DVOAGapDec = parseFloatCell(get("dvoa_gap_dec"))
	if math.IsNaN(r.DVOAGapDec) && !math.IsNaN(r.DVOAGapPP) {
		r.DVOAGapDec = r.DVOAGapPP / 100.0
	}
	r.Trend3PP = parseFloatCell(get("trend3_pp"))
	r.TrendBand = normTrendBand(get("trend_band"))

	r.IsThanksgiving = parseBoolCell(get("is_thanksgiving"))
	r.IsBlackFriday = parseBoolCell(get("is_black_friday"))
	r.IsChristmas = parseBoolCell(get("is_christmas"))
	r.PlaysBothTGXmas = parseBoolCell(get("plays_both_tg_xmas"))

	// scorer outputs survive a round trip; a rescore overwrites them anyway
	setF := func(dst *float64, canonical string) {
		if v := parseFloatCell(get(canonical)); !math.IsNaN(v) {
			*dst = v
		}
	}
	setF(&r.SvWin, "sv_win")
	setF(&r.SvHome, "sv_home")
	setF(&r.SvRest, "sv_rest")
	setF(&r.SvRating, "sv_rating")
	setF(&r.SvDVOALevel, "sv_dvoa_level")
	setF(&r.SvDVOATrend, "sv_dvoa_trend")
	setF(&r.SvDVOABand, "sv_dvoa_band")
	setF(&r.SvDVOA, "sv_dvoa")
	setF(&r.SvInjury, "sv_injury")
	setF(&r.SvHoliday, "sv_holiday")
	setF(&r.MaxFutureProb, "max_future_prob")
	setF(&r.OpportunityDelta, "opportunity_delta")
	setF(&r.SvScarcityRaw, "sv_scarcity_raw")
	setF(&r.SvScarcity, "sv_scarcity")
	setF(&r.SvNowOrNever, "sv_now_or_never")
	setF(&r.SpotValueScore, "spot_value_score")
	r.NowOrNever = parseBoolCell(get("is_now_or_never"))
	r.HolidayAny = parseBoolCell(get("holiday_any"))
	r.HolidayAnchorWeek = parseIntCell(get("holiday_anchor_week"), 0)
	r.SuggestSaveHoliday = parseBoolCell(get("suggest_save_for_holiday"))
	r.SpotValue = normBucket(get("spot_value"))

	return r
}

// resolveColumns maps canonical names to source column indexes using the
// ordered alias lists. First alias present wins; later ones are ignored (and
// flow through as extra columns).
func resolveColumns(header []string) (idx map[string]int, extras []string, extraIdx map[string]int) {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = strings.ToLower(strings.TrimSpace(h))
	}
	idx = make(map[string]int, len(columnAliases))
	claimed := make(map[int]bool, len(header))
	for canonical, aliases := range columnAliases {
		for _, a := range aliases {
			for i, h := range norm {
				if h == a && !claimed[i] {
					idx[canonical] = i
					claimed[i] = true
					break
				}
			}
			if _, ok := idx[canonical]; ok {
				break
			}
		}
	}
	extraIdx = make(map[string]int)
	for i := range header {
		h := norm[i]
		if !claimed[i] && h != "" {
			if _, dup := extraIdx[h]; dup {
				continue // keep first occurrence of a duplicated header
			}
			extras = append(extras, h)
			extraIdx[h] = i
		}
	}
	return idx, extras, extraIdx
}
