package roadmap

import (
	"math"
	"strings"
	"testing"
)

func loadString(t *testing.T, csv string) *Table {
	t.Helper()
	tbl, err := read(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return tbl
}

func TestAliasResolutionPrecedence(t *testing.T) {
	// power_gap only resolves when rating_gap is absent
	tbl := loadString(t, `week,team,opponent,home_or_away,rest_days,projected_win_prob,power_gap
5,KC,LV,Home,7,0.8,3.5
`)
	if !tbl.Has("rating_gap") {
		t.Fatal("power_gap should resolve to rating_gap")
	}
	if got := tbl.Rows[0].RatingGap; got != 3.5 {
		t.Errorf("RatingGap = %v, want 3.5", got)
	}

	// both present: rating_gap wins, power_gap flows through as an extra
	tbl = loadString(t, `week,team,opponent,home_or_away,rest_days,rating_gap,power_gap,projected_win_prob
5,KC,LV,Home,7,2.0,9.9,0.8
`)
	if got := tbl.Rows[0].RatingGap; got != 2.0 {
		t.Errorf("RatingGap = %v, want 2.0 (rating_gap preferred)", got)
	}
	if got := tbl.Rows[0].Extra["power_gap"]; got != "9.9" {
		t.Errorf("power_gap extra = %q, want 9.9", got)
	}
}

func TestWinProbAliases(t *testing.T) {
	for _, alias := range []string{"implied_win_prob", "implied_wp", "proj_wp", "win_prob"} {
		csv := "week,team,opponent,home_or_away,rest_days," + alias + "\n5,KC,LV,Home,7,0.73\n"
		tbl := loadString(t, csv)
		if !tbl.Has("projected_win_prob") {
			t.Errorf("%s: projected_win_prob not resolved", alias)
		}
		if got := tbl.Rows[0].ProjWinProb; got != 0.73 {
			t.Errorf("%s: ProjWinProb = %v, want 0.73", alias, got)
		}
	}
}

func TestCoercionAndClamping(t *testing.T) {
	tbl := loadString(t, `week,team,opponent,home_or_away,rest_days,projected_win_prob,injury_adjustment
5,kc,lv,HOME,-3,1.4,garbage
6,KC,LV,away,,0.6,-0.02
`)
	r := tbl.Rows[0]
	if r.Team != "KC" || r.Opponent != "LV" {
		t.Errorf("team/opponent = %q/%q, want KC/LV", r.Team, r.Opponent)
	}
	if r.HomeOrAway != "Home" {
		t.Errorf("HomeOrAway = %q, want Home", r.HomeOrAway)
	}
	if r.ProjWinProb != 1.0 {
		t.Errorf("ProjWinProb = %v, want clamp to 1.0", r.ProjWinProb)
	}
	if r.RestDays != 0 {
		t.Errorf("RestDays = %v, want negative clamped to 0", r.RestDays)
	}
	if !math.IsNaN(r.InjuryAdj) {
		t.Errorf("InjuryAdj = %v, want NaN for unparseable cell", r.InjuryAdj)
	}

	r2 := tbl.Rows[1]
	if r2.HomeOrAway != "Away" {
		t.Errorf("HomeOrAway = %q, want Away", r2.HomeOrAway)
	}
	if r2.RestDays != 6 {
		t.Errorf("RestDays = %v, want default 6 when blank", r2.RestDays)
	}
}

func TestDVOAGapDecFallsBackToPP(t *testing.T) {
	tbl := loadString(t, `week,team,opponent,home_or_away,rest_days,projected_win_prob,dvoa_gap
5,KC,LV,Home,7,0.8,12.5
`)
	if got := tbl.Rows[0].DVOAGapDec; math.Abs(got-0.125) > 1e-12 {
		t.Errorf("DVOAGapDec = %v, want 0.125 (pp/100)", got)
	}
}

func TestRequireEssential(t *testing.T) {
	tbl := loadString(t, `week,team,home_or_away,rest_days,projected_win_prob
5,KC,Home,7,0.8
`)
	err := tbl.RequireEssential()
	if err == nil {
		t.Fatal("expected error for missing opponent column")
	}
	if !strings.Contains(err.Error(), "opponent") {
		t.Errorf("error %q should name the missing column", err)
	}

	tbl = loadString(t, `week,team,opponent,home_or_away,rest_days,projected_win_prob
5,KC,LV,Home,7,0.8
`)
	if err := tbl.RequireEssential(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckDuplicates(t *testing.T) {
	tbl := loadString(t, `week,team,opponent,home_or_away,rest_days,projected_win_prob
5,KC,LV,Home,7,0.8
5,KC,LV,Home,7,0.8
6,KC,JAX,Away,6,0.7
`)
	err := tbl.CheckDuplicates()
	if err == nil {
		t.Fatal("expected duplicate-key error")
	}
	if !strings.Contains(err.Error(), "week 5 KC vs LV") {
		t.Errorf("error %q should report the offending key", err)
	}
}

func TestAuditScores(t *testing.T) {
	tbl := loadString(t, `week,team,opponent,home_or_away,rest_days,projected_win_prob
5,KC,LV,Home,7,0.8
`)
	if err := tbl.AuditScores(); err == nil {
		t.Fatal("unscored rows must fail the audit")
	}
	tbl.Rows[0].SpotValueScore = 0.5
	if err := tbl.AuditScores(); err != nil {
		t.Fatalf("unexpected audit error: %v", err)
	}
}

func TestParseWeeks(t *testing.T) {
	cases := []struct {
		in      string
		want    []int
		wantNil bool
		wantErr bool
	}{
		{in: "all", wantNil: true},
		{in: "", wantNil: true},
		{in: "5", want: []int{5}},
		{in: "1,3,5", want: []int{1, 3, 5}},
		{in: "2-4", want: []int{2, 3, 4}},
		{in: "1,3-5,9", want: []int{1, 3, 4, 5, 9}},
		{in: "5,5,5", want: []int{5}},
		{in: "x", wantErr: true},
		{in: "4-2", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseWeeks(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseWeeks(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseWeeks(%q): %v", tc.in, err)
			continue
		}
		if tc.wantNil {
			if got != nil {
				t.Errorf("ParseWeeks(%q) = %v, want nil", tc.in, got)
			}
			continue
		}
		if len(got) != len(tc.want) {
			t.Errorf("ParseWeeks(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("ParseWeeks(%q) = %v, want %v", tc.in, got, tc.want)
				break
			}
		}
	}
}

func TestMergeWeeksLeavesOtherWeeksAlone(t *testing.T) {
	base := loadString(t, `week,team,opponent,home_or_away,rest_days,projected_win_prob,spot_value_score,spot_value,notes
4,KC,LAC,Home,6,0.7,0.55,Medium,keep me
5,KC,LV,Home,7,0.8,0.2,Low,old note
`)
	scored := loadString(t, `week,team,opponent,home_or_away,rest_days,projected_win_prob,spot_value_score,spot_value,notes
4,KC,LAC,Home,6,0.7,0.99,High,rescored
5,KC,LV,Home,7,0.8,0.88,High,rescored
`)
	MergeWeeks(base, scored, []int{5})

	if got := base.Rows[0].SpotValueScore; got != 0.55 {
		t.Errorf("week 4 score = %v, want untouched 0.55", got)
	}
	if got := base.Rows[0].Extra["notes"]; got != "keep me" {
		t.Errorf("week 4 notes = %q, want untouched", got)
	}
	if got := base.Rows[1].SpotValueScore; got != 0.88 {
		t.Errorf("week 5 score = %v, want 0.88 from scored table", got)
	}
	if got := base.Rows[1].SpotValue; got != "High" {
		t.Errorf("week 5 bucket = %q, want High", got)
	}
}

func TestLoadPreservesScoredColumns(t *testing.T) {
	tbl := loadString(t, `week,team,opponent,home_or_away,rest_days,projected_win_prob,sv_win,sv_dvoa,sv_holiday,max_future_prob,opportunity_delta,sv_scarcity_raw,sv_scarcity,is_now_or_never,sv_now_or_never,holiday_any,holiday_anchor_week,suggest_save_for_holiday,spot_value_score,spot_value
4,KC,LAC,Home,6,0.7,0.31,0.05,-0.12,0.82,0.25,0.4,0.048,1,0.01,1,13,1,0.55,medium
5,KC,LV,Home,7,0.8,0.35,,,,,,,,,,,,,
`)
	r := tbl.Rows[0]
	if r.SvWin != 0.31 || r.SvDVOA != 0.05 || r.SvHoliday != -0.12 {
		t.Errorf("components = %v/%v/%v, want 0.31/0.05/-0.12", r.SvWin, r.SvDVOA, r.SvHoliday)
	}
	if r.MaxFutureProb != 0.82 || r.OpportunityDelta != 0.25 || r.SvScarcityRaw != 0.4 || r.SvScarcity != 0.048 {
		t.Errorf("scarcity = %v/%v/%v/%v, want 0.82/0.25/0.4/0.048",
			r.MaxFutureProb, r.OpportunityDelta, r.SvScarcityRaw, r.SvScarcity)
	}
	if !r.NowOrNever || r.SvNowOrNever != 0.01 {
		t.Errorf("now-or-never = %v/%v, want true/0.01", r.NowOrNever, r.SvNowOrNever)
	}
	if !r.HolidayAny || r.HolidayAnchorWeek != 13 || !r.SuggestSaveHoliday {
		t.Errorf("holiday highlights = %v/%d/%v, want true/13/true", r.HolidayAny, r.HolidayAnchorWeek, r.SuggestSaveHoliday)
	}
	if r.SpotValueScore != 0.55 || r.SpotValue != "Medium" {
		t.Errorf("score/bucket = %v/%q, want 0.55/Medium (case folded)", r.SpotValueScore, r.SpotValue)
	}

	// blank derived cells stay at their unscored defaults
	r2 := tbl.Rows[1]
	if !math.IsNaN(r2.SpotValueScore) || r2.SpotValue != "" {
		t.Errorf("unscored row got score %v bucket %q", r2.SpotValueScore, r2.SpotValue)
	}
	if !math.IsNaN(r2.MaxFutureProb) || r2.SvScarcity != 0 {
		t.Errorf("unscored scarcity = %v/%v", r2.MaxFutureProb, r2.SvScarcity)
	}
	if r2.NowOrNever || r2.HolidayAnchorWeek != 0 {
		t.Errorf("unscored flags = %v/%d", r2.NowOrNever, r2.HolidayAnchorWeek)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	tbl := loadString(t, `week,team,opponent,home_or_away,rest_days,projected_win_prob,notes
5,KC,LV,Home,7,0.8,hold for later
`)
	tbl.Rows[0].SpotValueScore = 0.625
	tbl.Rows[0].SpotValue = "High"

	var sb strings.Builder
	if err := tbl.Write(&sb); err != nil {
		t.Fatalf("write: %v", err)
	}
	again, err := read(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("reread: %v", err)
	}
	r := again.Rows[0]
	if r.Week != 5 || r.Team != "KC" || r.Opponent != "LV" {
		t.Errorf("key = %d/%s/%s, want 5/KC/LV", r.Week, r.Team, r.Opponent)
	}
	if r.SpotValueScore != 0.625 || r.SpotValue != "High" {
		t.Errorf("score/bucket = %v/%q, want 0.625/High", r.SpotValueScore, r.SpotValue)
	}
	if got := r.Extra["notes"]; got != "hold for later" {
		t.Errorf("notes = %q, want preserved", got)
	}
}
