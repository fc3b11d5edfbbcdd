// history-export pulls a past season's scored rows out of the Athena
// archive into a local CSV for the backtester.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nflpicks/survivor-tools/internal/history"
)

func main() {
	var (
		season    = flag.Int("season", time.Now().Year()-1, "season to export")
		table     = flag.String("table", "roadmap_archive", "Athena table")
		database  = flag.String("database", "survivor", "Athena database")
		workgroup = flag.String("workgroup", "primary", "Athena workgroup")
		outputS3  = flag.String("output-s3", "", "s3://bucket/prefix/ for query results (required)")
		outPath   = flag.String("out", "", "local CSV destination (default history_<season>.csv)")
	)
	flag.Parse()
	if *outputS3 == "" {
		log.Fatalf("-output-s3 is required")
	}
	dest := *outPath
	if dest == "" {
		dest = fmt.Sprintf("history_%d.csv", *season)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}

	runner := &history.Runner{
		Client:    athena.NewFromConfig(cfg),
		Workgroup: *workgroup,
		Database:  *database,
		OutputS3:  *outputS3,
		Logger:    log.Default(),
	}

	qid, rows, err := runner.ExportSeason(ctx, *table, *season)
	if err != nil {
		log.Fatalf("export: %v", err)
	}
	log.Printf("exported %d rows from %s", rows, *table)

	url := history.ResultURL(*outputS3, qid)
	written, err := history.DownloadResult(ctx, s3.NewFromConfig(cfg), url, dest)
	if err != nil {
		log.Fatalf("download result: %v", err)
	}
	log.Printf("OK wrote %d bytes to %s", written, dest)
}
