// odds-snapshot is the deployed entrypoint: pull current lines and append
// today's consensus snapshot to DynamoDB on a schedule.
package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/nflpicks/survivor-tools/internal/odds"
	"github.com/nflpicks/survivor-tools/internal/store"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustenv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing env %s", k)
	}
	return v
}

func handler(ctx context.Context) error {
	table := mustenv("ODDS_TABLE_NAME")
	season, _ := strconv.Atoi(getenv("SEASON", strconv.Itoa(time.Now().Year())))
	regions := getenv("ODDS_REGIONS", "us")

	key, err := odds.ResolveAPIKey(ctx)
	if err != nil {
		return err
	}
	games, err := odds.NewClient(key).FetchSeason(ctx, season, regions)
	if err != nil {
		return err
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}
	ddbc := ddb.NewFromConfig(cfg)

	snapshotDate := time.Now().UTC().Format("2006-01-02")
	if err := store.PutOddsSnapshot(ctx, ddbc, table, snapshotDate, games); err != nil {
		return err
	}
	log.Printf("OK snapshot %s: %d games into %s", snapshotDate, len(games), table)
	return nil
}

func main() {
	lambda.Start(handler)
}
