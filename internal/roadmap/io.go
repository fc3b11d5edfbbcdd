package roadmap

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// front-of-file column order; extras are appended after, in source order
var outputOrder = []string{
	"week", "date", "time", "team", "opponent", "home_or_away",
	"rest_days", "projected_win_prob", "rating_gap", "injury_adjustment",
	"team_tot_dvoa_pp", "opp_tot_dvoa_pp", "dvoa_gap_pp", "dvoa_gap_dec",
	"trend3_pp", "trend_band",
	"is_thanksgiving", "is_black_friday", "is_christmas", "plays_both_tg_xmas",
	"sv_win", "sv_home", "sv_rest", "sv_rating",
	"sv_dvoa_level", "sv_dvoa_trend", "sv_dvoa_band", "sv_dvoa",
	"sv_injury", "sv_holiday",
	"max_future_prob", "opportunity_delta", "sv_scarcity_raw", "sv_scarcity",
	"is_now_or_never", "sv_now_or_never",
	"holiday_any", "holiday_anchor_week", "is_holiday_team", "suggest_save_for_holiday",
	"spot_value_score", "spot_value",
}

// Load reads a roadmap CSV, resolves column aliases, and normalizes every
// cell. Unparseable numeric cells become missing, never an error; a missing
// file is a fatal configuration error for the caller to surface.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roadmap %s: %w", path, err)
	}
	defer f.Close()
	return read(f)
}

func read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read roadmap header: %w", err)
	}
	idx, extras, extraIdx := resolveColumns(header)

	t := &Table{
		present:   make(map[string]bool, len(idx)),
		extraCols: extras,
	}
	for canonical := range idx {
		t.present[canonical] = true
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read roadmap row: %w", err)
		}
		row := rowFromRecord(rec, idx)
		if len(extras) > 0 {
			row.Extra = make(map[string]string, len(extras))
			for _, name := range extras {
				if i := extraIdx[name]; i < len(rec) {
					row.Extra[name] = rec[i]
				}
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

/* ---------- cell formatting ---------- */

func fmtFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fmtRounded(v float64, places int) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', places, 64)
}

func fmtBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (r *Row) cell(col string) string {
	switch col {
	case "week":
		return strconv.Itoa(r.Week)
	case "date":
		return r.Date
	case "time":
		return r.Time
	case "team":
		return r.Team
	case "opponent":
		return r.Opponent
	case "home_or_away":
		return r.HomeOrAway
	case "rest_days":
		return fmtFloat(r.RestDays)
	case "projected_win_prob":
		return fmtFloat(r.ProjWinProb)
	case "rating_gap":
		return fmtFloat(r.RatingGap)
	case "injury_adjustment":
		return fmtFloat(r.InjuryAdj)
	case "team_tot_dvoa_pp":
		return fmtFloat(r.TeamTotDVOA)
	case "opp_tot_dvoa_pp":
		return fmtFloat(r.OppTotDVOA)
	case "dvoa_gap_pp":
		return fmtFloat(r.DVOAGapPP)
	case "dvoa_gap_dec":
		return fmtFloat(r.DVOAGapDec)
	case "trend3_pp":
		return fmtFloat(r.Trend3PP)
	case "trend_band":
		return r.TrendBand
	case "is_thanksgiving":
		return fmtBool(r.IsThanksgiving)
	case "is_black_friday":
		return fmtBool(r.IsBlackFriday)
	case "is_christmas":
		return fmtBool(r.IsChristmas)
	case "plays_both_tg_xmas":
		return fmtBool(r.PlaysBothTGXmas)
	case "sv_win":
		return fmtRounded(r.SvWin, 6)
	case "sv_home":
		return fmtRounded(r.SvHome, 6)
	case "sv_rest":
		return fmtRounded(r.SvRest, 6)
	case "sv_rating":
		return fmtRounded(r.SvRating, 6)
	case "sv_dvoa_level":
		return fmtRounded(r.SvDVOALevel, 6)
	case "sv_dvoa_trend":
		return fmtRounded(r.SvDVOATrend, 6)
	case "sv_dvoa_band":
		return fmtRounded(r.SvDVOABand, 6)
	case "sv_dvoa":
		return fmtRounded(r.SvDVOA, 6)
	case "sv_injury":
		return fmtRounded(r.SvInjury, 6)
	case "sv_holiday":
		return fmtRounded(r.SvHoliday, 6)
	case "max_future_prob":
		return fmtFloat(r.MaxFutureProb)
	case "opportunity_delta":
		return fmtRounded(r.OpportunityDelta, 6)
	case "sv_scarcity_raw":
		return fmtRounded(r.SvScarcityRaw, 6)
	case "sv_scarcity":
		return fmtRounded(r.SvScarcity, 6)
	case "is_now_or_never":
		return fmtBool(r.NowOrNever)
	case "sv_now_or_never":
		return fmtRounded(r.SvNowOrNever, 6)
	case "holiday_any":
		return fmtBool(r.HolidayAny)
	case "holiday_anchor_week":
		if r.HolidayAnchorWeek == 0 {
			return ""
		}
		return strconv.Itoa(r.HolidayAnchorWeek)
	case "is_holiday_team":
		return fmtBool(r.HolidayAnchorWeek > 0)
	case "suggest_save_for_holiday":
		return fmtBool(r.SuggestSaveHoliday)
	case "spot_value_score":
		return fmtRounded(r.SpotValueScore, 6)
	case "spot_value":
		return r.SpotValue
	}
	return ""
}

// Write emits the table with canonical columns first and passthrough columns
// after, preserving row order.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append(append([]string{}, outputOrder...), t.extraCols...)
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(header))
	for i := range t.Rows {
		r := &t.Rows[i]
		for j, col := range outputOrder {
			rec[j] = r.cell(col)
		}
		for j, col := range t.extraCols {
			rec[len(outputOrder)+j] = r.Extra[col]
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveAtomic writes the table to a temp file in the target directory and
// renames it into place, so a crash never leaves a half-written roadmap.
func (t *Table) SaveAtomic(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if err := t.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Snapshot copies the current file (if any) into a sibling _snapshots dir
// with a timestamped name, e.g. roadmap_prewrite_20250829_141503.csv.
// Returns the snapshot path, or "" when there was nothing to snapshot.
func Snapshot(path, suffix string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	defer src.Close()

	dir := filepath.Join(filepath.Dir(path), "_snapshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" {
		ext = ".csv"
	}
	name := fmt.Sprintf("%s_%s_%s%s", stem, suffix, time.Now().Format("20060102_150405"), ext)
	dstPath := filepath.Join(dir, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dstPath)
		return "", err
	}
	return dstPath, nil
}
