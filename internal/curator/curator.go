// Package curator archives scored roadmaps as partitioned parquet on S3 so
// past seasons stay queryable from Athena.
package curator

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	parquet "github.com/parquet-go/parquet-go"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nflpicks/survivor-tools/internal/roadmap"
)

type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Uploader struct {
	Client S3API
	Bucket string
}

func (u *Uploader) put(ctx context.Context, key string, body []byte) error {
	_, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	return err
}

func nowStamp() string { return time.Now().UTC().Format("20060102T150405Z") }

// ArchiveRow is the parquet shape of one scored roadmap row. Optional
// fields are nil when the CSV carried a blank.
type ArchiveRow struct {
	Season     string   `parquet:"season"`
	Week       string   `parquet:"week"`
	Team       string   `parquet:"team"`
	Opponent   string   `parquet:"opponent"`
	HomeOrAway *string  `parquet:"home_or_away,optional"`
	WinProb    *float64 `parquet:"projected_win_prob,optional"`
	RestDays   *float64 `parquet:"rest_days,optional"`
	RatingGap  *float64 `parquet:"rating_gap,optional"`
	DVOAGapPP  *float64 `parquet:"dvoa_gap_pp,optional"`
	Trend3PP   *float64 `parquet:"trend_3w_pp,optional"`
	Scarcity   *float64 `parquet:"sv_scarcity,optional"`
	MaxFuture  *float64 `parquet:"max_future_prob,optional"`
	NowOrNever bool     `parquet:"now_or_never"`
	Score      *float64 `parquet:"spot_value_score,optional"`
	Bucket     *string  `parquet:"spot_value,optional"`
}

func floatPtr(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toArchiveRow(season string, r roadmap.Row) ArchiveRow {
	return ArchiveRow{
		Season:     season,
		Week:       fmt.Sprintf("%02d", r.Week),
		Team:       r.Team,
		Opponent:   r.Opponent,
		HomeOrAway: strPtr(r.HomeOrAway),
		WinProb:    floatPtr(r.ProjWinProb),
		RestDays:   floatPtr(r.RestDays),
		RatingGap:  floatPtr(r.RatingGap),
		DVOAGapPP:  floatPtr(r.DVOAGapPP),
		Trend3PP:   floatPtr(r.Trend3PP),
		Scarcity:   floatPtr(r.SvScarcity),
		MaxFuture:  floatPtr(r.MaxFutureProb),
		NowOrNever: r.NowOrNever,
		Score:      floatPtr(r.SpotValueScore),
		Bucket:     strPtr(r.SpotValue),
	}
}

func writeParquetAndUpload(ctx context.Context, rows []ArchiveRow, key string, schema *parquet.Schema, up *Uploader) error {
	if len(rows) == 0 {
		return nil
	}
	tmp := filepath.Join(os.TempDir(), "parq-"+nowStamp()+"-"+filepath.Base(key))
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := parquet.NewWriter(f, schema, parquet.Compression(&parquet.Snappy))
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			_ = w.Close()
			_ = f.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	b, err := os.ReadFile(tmp)
	if err != nil {
		return err
	}
	if err := up.put(ctx, key, b); err != nil {
		return err
	}
	_ = os.Remove(tmp)
	return nil
}

// ArchiveRoadmap writes one parquet object per week under
// prefix/roadmap/season=YYYY/week=NN/. Returns rows written.
func ArchiveRoadmap(ctx context.Context, up *Uploader, prefix, season string, t *roadmap.Table) (int, error) {
	buckets := map[string][]ArchiveRow{}
	for _, r := range t.Rows {
		if r.Team == "" || r.Week < 1 {
			continue
		}
		ar := toArchiveRow(season, r)
		buckets[ar.Week] = append(buckets[ar.Week], ar)
	}

	weeks := make([]string, 0, len(buckets))
	for w := range buckets {
		weeks = append(weeks, w)
	}
	sort.Strings(weeks)

	schema := parquet.SchemaOf(new(ArchiveRow))
	total := 0
	for _, week := range weeks {
		part := buckets[week]
		key := fmt.Sprintf("%s/roadmap/season=%s/week=%s/part-%s.parquet", prefix, season, week, nowStamp())
		if err := writeParquetAndUpload(ctx, part, key, schema, up); err != nil {
			return total, fmt.Errorf("week %s: %w", week, err)
		}
		total += len(part)
	}
	return total, nil
}
