// snapshot-curator archives a scored roadmap to S3 as season/week
// partitioned parquet so Athena can query past seasons.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nflpicks/survivor-tools/internal/curator"
	"github.com/nflpicks/survivor-tools/internal/roadmap"
)

type Event struct {
	RoadmapPath string `json:"roadmap_path"`
	Season      string `json:"season"`
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func curate(ctx context.Context, roadmapPath, season string) (int, error) {
	bucket := getenv("ARCHIVE_BUCKET", "")
	if bucket == "" {
		return 0, errors.New("ARCHIVE_BUCKET is required")
	}
	prefix := strings.Trim(getenv("ARCHIVE_PREFIX", "survivor"), "/")

	t, err := roadmap.Load(roadmapPath)
	if err != nil {
		return 0, err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return 0, err
	}
	up := &curator.Uploader{Client: s3.NewFromConfig(awsCfg), Bucket: bucket}
	return curator.ArchiveRoadmap(ctx, up, prefix, season, t)
}

func handler(ctx context.Context, e Event) (any, error) {
	season := e.Season
	if season == "" {
		season = getenv("SEASON", time.Now().Format("2006"))
	}
	path := e.RoadmapPath
	if path == "" {
		path = getenv("ROADMAP_PATH", "survivor_roadmap.csv")
	}
	n, err := curate(ctx, path, season)
	if err != nil {
		return nil, err
	}
	return map[string]any{"ok": true, "season": season, "rows": n}, nil
}

func main() {
	// deployed as a Lambda; runs locally when flags are given
	if os.Getenv("_LAMBDA_SERVER_PORT") == "" && len(os.Args) > 1 {
		var (
			roadmapPath = flag.String("roadmap", "survivor_roadmap.csv", "scored roadmap CSV")
			season      = flag.String("season", time.Now().Format("2006"), "season partition")
		)
		flag.Parse()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		n, err := curate(ctx, *roadmapPath, *season)
		if err != nil {
			log.Fatalf("curate: %v", err)
		}
		out, _ := json.Marshal(map[string]any{"ok": true, "season": *season, "rows": n})
		log.Printf("OK %s", out)
		return
	}
	lambda.Start(handler)
}
