package spotvalue

import (
	"sort"

	"github.com/nflpicks/survivor-tools/internal/roadmap"
)

// partitionByTeam groups row indexes by team, each group ordered by week
// ascending. Keeping indexes instead of copies lets the evaluator write its
// outputs straight back into the original row positions.
func partitionByTeam(rows []roadmap.Row) map[string][]int {
	groups := make(map[string][]int)
	for i := range rows {
		groups[rows[i].Team] = append(groups[rows[i].Team], i)
	}
	for _, idxs := range groups {
		sort.SliceStable(idxs, func(a, b int) bool {
			return rows[idxs[a]].Week < rows[idxs[b]].Week
		})
	}
	return groups
}

// scoreScarcity rewards weeks that are a team's best remaining opportunity.
// For each week it compares the win probability against the best strictly
// future week (max_future_prob) and against how many good future weeks are
// left, then mixes the two signals. The bare normalized delta is kept as
// opportunity_delta alongside the mixed sv_scarcity_raw.
//
// A team's last week has no future, so max_future_prob is 0 there and the
// opportunity delta collapses to the raw win probability. That matches the
// source tool's behavior and is pinned by tests; whether it should instead be
// suppressed is an open product question.
func scoreScarcity(rows []roadmap.Row, cfg Config) {
	for _, idxs := range partitionByTeam(rows) {
		n := len(idxs)

		// reverse cummax of win prob, shifted one week forward
		maxFuture := make([]float64, n)
		goodAfter := make([]int, n)
		run, good := 0.0, 0
		for j := n - 1; j >= 0; j-- {
			maxFuture[j] = run
			goodAfter[j] = good
			p := orZero(rows[idxs[j]].ProjWinProb)
			if p > run {
				run = p
			}
			if p >= cfg.FutureGoodThresh {
				good++
			}
		}

		for j, i := range idxs {
			r := &rows[i]
			p := orZero(r.ProjWinProb)
			r.MaxFutureProb = maxFuture[j]

			delta := p - maxFuture[j]
			if delta < 0 {
				delta = 0
			}
			deltaSignal := clip(delta/cfg.ScarcityNormBand, 0, 1)
			r.OpportunityDelta = deltaSignal

			// fewer good future weeks → more reason to spend the team now
			depthSignal := 1 - clip(float64(goodAfter[j])/cfg.FutureDepthMax, 0, 1)

			r.SvScarcityRaw = cfg.DeltaWeight*deltaSignal + (1-cfg.DeltaWeight)*depthSignal
			r.SvScarcity = cfg.WScarcityTotal * r.SvScarcityRaw

			r.NowOrNever = p >= maxFuture[j]+cfg.NowNeverMargin
			gapOver := p - maxFuture[j] - cfg.NowNeverMargin
			if gapOver < 0 {
				gapOver = 0
			}
			r.SvNowOrNever = cfg.NowNeverBonus * clip(gapOver/cfg.NowNeverBand, 0, 1)

			add(r, r.SvScarcity+r.SvNowOrNever)
		}
	}
}
