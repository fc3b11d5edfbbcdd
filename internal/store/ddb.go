// Package store persists odds snapshots and the survivor pick log in
// DynamoDB.
package store

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/nflpicks/survivor-tools/internal/odds"
)

type DynamoDBAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

func numAttr(v float64, prec int) types.AttributeValue {
	if math.IsNaN(v) {
		return &types.AttributeValueMemberNULL{Value: true}
	}
	return &types.AttributeValueMemberN{Value: strconv.FormatFloat(v, 'f', prec, 64)}
}

// PutOddsSnapshot writes one consensus line per game under today's snapshot.
// PK=SnapshotDate (YYYY-MM-DD), SK=GameKey (AWAY|HOME sorted).
func PutOddsSnapshot(ctx context.Context, ddb DynamoDBAPI, table, snapshotDate string, games []odds.GameOdds) error {
	if len(games) == 0 {
		return nil
	}
	const maxBatch = 25
	now := strconv.FormatInt(time.Now().Unix(), 10)

	for i := 0; i < len(games); i += maxBatch {
		end := i + maxBatch
		if end > len(games) {
			end = len(games)
		}

		reqs := make([]types.WriteRequest, 0, end-i)
		for _, g := range games[i:end] {
			if g.Home == "" || g.Away == "" {
				continue
			}
			item := map[string]types.AttributeValue{
				"SnapshotDate": &types.AttributeValueMemberS{Value: snapshotDate}, // PK
				"GameKey":      &types.AttributeValueMemberS{Value: odds.GameKey(g.Home, g.Away)},
				"EventID":      &types.AttributeValueMemberS{Value: g.EventID},
				"CommenceTime": &types.AttributeValueMemberS{Value: g.CommenceTime},
				"Home":         &types.AttributeValueMemberS{Value: g.Home},
				"Away":         &types.AttributeValueMemberS{Value: g.Away},
				"SpreadHome":   numAttr(g.SpreadHome, 1),
				"Total":        numAttr(g.Total, 1),
				"MLHome":       numAttr(g.MLHome, 0),
				"MLAway":       numAttr(g.MLAway, 0),
				"WinHome":      numAttr(g.WinHome, 4),
				"WinAway":      numAttr(g.WinAway, 4),
				"BooksH2H":     &types.AttributeValueMemberN{Value: strconv.Itoa(g.BooksH2H)},
				"UpdatedAt":    &types.AttributeValueMemberN{Value: now},
			}
			reqs = append(reqs, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}
		if len(reqs) == 0 {
			continue
		}
		if err := batchWriteWithRetry(ctx, ddb, table, reqs); err != nil {
			return fmt.Errorf("batch write odds snapshot: %w", err)
		}
	}
	return nil
}

func batchWriteWithRetry(ctx context.Context, ddb DynamoDBAPI, table string, reqs []types.WriteRequest) error {
	input := &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{table: reqs},
	}
	const maxAttempts = 6
	backoff := 120 * time.Millisecond

	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := ddb.BatchWriteItem(ctx, input)
		if err != nil {
			return err
		}
		if len(out.UnprocessedItems) == 0 {
			return nil
		}
		input.RequestItems = out.UnprocessedItems
		time.Sleep(backoff)
		if backoff < 2*time.Second {
			backoff += 120 * time.Millisecond
		}
	}
	return fmt.Errorf("unprocessed items remained after retries for table %s", table)
}

// MarkGameResult records the straight-up winner on a snapshot item once the
// game is final. The condition keeps us from minting items for games we
// never snapshotted.
func MarkGameResult(ctx context.Context, ddb DynamoDBAPI, table, snapshotDate, gameKey, winner string) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	_, err := ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			"SnapshotDate": &types.AttributeValueMemberS{Value: snapshotDate},
			"GameKey":      &types.AttributeValueMemberS{Value: gameKey},
		},
		UpdateExpression:    aws.String("SET Winner=:w, UpdatedAt=:now"),
		ConditionExpression: aws.String("attribute_exists(SnapshotDate) AND attribute_exists(GameKey)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":w":   &types.AttributeValueMemberS{Value: winner},
			":now": &types.AttributeValueMemberN{Value: now},
		},
	})
	return err
}
