package odds

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/nflpicks/survivor-tools/internal/roadmap"
)

// GameKey joins two abbreviations order-free so a game matches from either
// team's perspective.
func GameKey(a, b string) string {
	pair := []string{strings.ToUpper(a), strings.ToUpper(b)}
	sort.Strings(pair)
	return pair[0] + "|" + pair[1]
}

// MergeWinProbs overwrites projected_win_prob on each matched roadmap row
// with the consensus implied probability, and stashes the current lines in
// passthrough columns. Bye rows and unmatched games are left alone. Returns
// the number of rows updated.
func MergeWinProbs(t *roadmap.Table, games []GameOdds) int {
	byKey := make(map[string]GameOdds, len(games))
	for _, g := range games {
		byKey[GameKey(g.Home, g.Away)] = g
	}
	for _, col := range []string{"current_moneyline", "current_spread", "current_total"} {
		t.AddExtraColumn(col)
	}

	updated := 0
	for i := range t.Rows {
		r := &t.Rows[i]
		if r.IsBye() {
			continue
		}
		g, ok := byKey[GameKey(r.Team, r.Opponent)]
		if !ok {
			continue
		}
		isHome := strings.EqualFold(r.Team, g.Home)

		wp := g.WinAway
		ml := g.MLAway
		sp := g.SpreadAway
		if isHome {
			wp, ml, sp = g.WinHome, g.MLHome, g.SpreadHome
		}
		if !math.IsNaN(wp) {
			r.ProjWinProb = math.Min(math.Max(wp, 0), 1)
			updated++
		}
		setExtra(r, "current_moneyline", fmtOdds(ml, 0))
		setExtra(r, "current_spread", fmtOdds(sp, 1))
		setExtra(r, "current_total", fmtOdds(g.Total, 1))
	}
	return updated
}

func setExtra(r *roadmap.Row, key, val string) {
	if val == "" {
		return
	}
	if r.Extra == nil {
		r.Extra = map[string]string{}
	}
	r.Extra[key] = val
}

func fmtOdds(v float64, prec int) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}
