package spotvalue

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nflpicks/survivor-tools/internal/roadmap"
)

func applyRows(t *testing.T, cfg Config, rows ...roadmap.Row) []roadmap.Row {
	t.Helper()
	tbl := roadmap.New(rows)
	require.NoError(t, Apply(tbl, cfg))
	return tbl.Rows
}

func TestMaxFutureProbIsStrictlyForward(t *testing.T) {
	cfg := Default()
	rows := applyRows(t, cfg,
		row("KC", 1, 0.70, "", 6),
		row("KC", 2, 0.55, "", 6),
		row("KC", 3, 0.90, "", 6),
		row("KC", 4, 0.60, "", 6),
	)
	assert.InDelta(t, 0.90, rows[0].MaxFutureProb, 1e-12)
	assert.InDelta(t, 0.90, rows[1].MaxFutureProb, 1e-12)
	assert.InDelta(t, 0.60, rows[2].MaxFutureProb, 1e-12, "own week must not count")
	assert.InDelta(t, 0.0, rows[3].MaxFutureProb, 1e-12, "last week has no future")
}

// A team's final week falls through to max_future_prob = 0, so the
// opportunity delta equals the raw win probability. This pins the source
// behavior; see the open question on the evaluator.
func TestLastWeekCollapsesToRawProbability(t *testing.T) {
	cfg := Default()
	rows := applyRows(t, cfg,
		row("SEA", 16, 0.40, "", 6),
		row("SEA", 17, 0.24, "", 6),
	)
	last := rows[1]
	assert.Zero(t, last.MaxFutureProb)
	// delta = 0.24 → 0.24/0.30 = 0.8; no good future weeks → depth signal 1
	want := cfg.DeltaWeight*0.8 + (1-cfg.DeltaWeight)*1.0
	assert.InDelta(t, want, last.SvScarcityRaw, 1e-9)
	assert.InDelta(t, cfg.WScarcityTotal*want, last.SvScarcity, 1e-9)
}

func TestOpportunityDeltaIsTheBareDeltaSignal(t *testing.T) {
	cfg := Default()
	rows := applyRows(t, cfg,
		row("SEA", 16, 0.40, "", 6),
		row("SEA", 17, 0.24, "", 6),
	)
	last := rows[1]
	// 0.24 over a 0.30 band, before depth mixes in
	assert.InDelta(t, 0.8, last.OpportunityDelta, 1e-9)
	assert.Greater(t, math.Abs(last.OpportunityDelta-last.SvScarcityRaw), 1e-9,
		"depth contribution must not leak into the delta column")

	// a week that is worse than its future has no opportunity to lose
	early := applyRows(t, cfg,
		row("NE", 5, 0.45, "", 6),
		row("NE", 9, 0.70, "", 6),
	)
	assert.Zero(t, early[0].OpportunityDelta)
}

func TestScarcityMonotonicity(t *testing.T) {
	cfg := Default()
	// Team A: week 5 strictly better than everything after it.
	a := applyRows(t, cfg,
		row("GB", 5, 0.75, "", 6),
		row("GB", 9, 0.60, "", 6),
	)
	// Team B: identical week 5, but a later week is just as good.
	b := applyRows(t, cfg,
		row("MIN", 5, 0.75, "", 6),
		row("MIN", 9, 0.75, "", 6),
	)
	assert.GreaterOrEqual(t, a[0].SvScarcity, b[0].SvScarcity)
	assert.Greater(t, a[0].SvScarcity+a[0].SvNowOrNever, b[0].SvScarcity+b[0].SvNowOrNever)
}

func TestNowOrNeverMarginAndBonus(t *testing.T) {
	cfg := Default()

	// 0.70 vs best future 0.68: inside the margin, no flag
	rows := applyRows(t, cfg,
		row("PHI", 5, 0.70, "", 6),
		row("PHI", 9, 0.68, "", 6),
	)
	assert.False(t, rows[0].NowOrNever)
	assert.Zero(t, rows[0].SvNowOrNever)

	// 0.80 vs best future 0.60: over the margin by 0.15 → bonus at full band
	rows = applyRows(t, cfg,
		row("SF", 5, 0.80, "", 6),
		row("SF", 9, 0.60, "", 6),
	)
	assert.True(t, rows[0].NowOrNever)
	gapOver := 0.80 - 0.60 - cfg.NowNeverMargin
	want := cfg.NowNeverBonus * clip(gapOver/cfg.NowNeverBand, 0, 1)
	assert.InDelta(t, want, rows[0].SvNowOrNever, 1e-9)
}

func TestFutureDepthRaisesScarcity(t *testing.T) {
	cfg := Default()
	// Shallow: only one good week remains after week 5.
	shallow := applyRows(t, cfg,
		row("LAC", 5, 0.60, "", 6),
		row("LAC", 9, 0.58, "", 6),
		row("LAC", 13, 0.40, "", 6),
	)
	// Deep: three good weeks remain after week 5.
	deep := applyRows(t, cfg,
		row("DEN", 5, 0.60, "", 6),
		row("DEN", 9, 0.58, "", 6),
		row("DEN", 13, 0.58, "", 6),
		row("DEN", 17, 0.58, "", 6),
	)
	assert.Greater(t, shallow[0].SvScarcity, deep[0].SvScarcity)
}

func TestScarcityWritesBackWithoutReordering(t *testing.T) {
	cfg := Default()
	// interleaved teams, weeks deliberately out of order within the file
	rows := applyRows(t, cfg,
		row("KC", 9, 0.60, "", 6),
		row("NYJ", 5, 0.50, "", 6),
		row("KC", 5, 0.80, "", 6),
		row("NYJ", 9, 0.55, "", 6),
	)
	assert.Equal(t, "KC", rows[0].Team)
	assert.Equal(t, 9, rows[0].Week)
	assert.Equal(t, "NYJ", rows[1].Team)
	assert.Equal(t, 5, rows[1].Week)
	// KC week 5 sees week 9 as its future despite file order
	assert.InDelta(t, 0.60, rows[2].MaxFutureProb, 1e-12)
	assert.InDelta(t, 0.0, rows[0].MaxFutureProb, 1e-12)
}
