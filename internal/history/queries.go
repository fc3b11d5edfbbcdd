package history

import (
	"fmt"
	"strings"
)

// Archive tables are partitioned by season; columns mirror the roadmap CSV.

// BuildSeasonSelect pulls every scored row for one season, week ordered.
func BuildSeasonSelect(table string, season int) string {
	return fmt.Sprintf(`SELECT week, team, opponent, home_or_away,
  projected_win_prob, rest_days, rating_gap, injury_adj,
  dvoa_gap_pp, trend_3w_pp,
  sv_win, sv_home, sv_rest, sv_rating, sv_dvoa, sv_injury, sv_holiday,
  sv_scarcity, max_future_prob, now_or_never,
  spot_value_score, spot_value
FROM %s
WHERE season = %d
ORDER BY week, team`, table, season)
}

// BuildPickOutcomes joins the pick log against final results for hit-rate
// reporting.
func BuildPickOutcomes(picksTable, resultsTable string, season int) string {
	return fmt.Sprintf(`SELECT p.entry, p.week, p.team, p.spot_value, r.winner,
  CASE WHEN p.team = r.winner THEN 1 ELSE 0 END AS survived
FROM %s p
JOIN %s r
  ON r.season = p.season AND r.week = p.week
  AND (r.home = p.team OR r.away = p.team)
WHERE p.season = %d
ORDER BY p.entry, p.week`, picksTable, resultsTable, season)
}

// BuildBucketHitRates aggregates survival rate per bucket across seasons.
func BuildBucketHitRates(table string, seasons []int) string {
	parts := make([]string, len(seasons))
	for i, s := range seasons {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return fmt.Sprintf(`SELECT spot_value, COUNT(*) AS n,
  AVG(CASE WHEN won = true THEN 1.0 ELSE 0.0 END) AS hit_rate
FROM %s
WHERE season IN (%s)
GROUP BY spot_value
ORDER BY hit_rate DESC`, table, strings.Join(parts, ", "))
}
