package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Pick is one survivor entry's selection for a week.
// Result is "pending", "win", or "loss".
type Pick struct {
	Entry     string
	Season    string
	Week      int
	Team      string
	Opponent  string
	SpotValue float64
	Result    string
}

func pickPK(entry, season string) string { return entry + "#" + season }
func pickSK(week int) string             { return fmt.Sprintf("W%02d", week) }

// PutPicks records picks, one item per (entry, season, week). Re-putting a
// week overwrites the earlier selection.
func PutPicks(ctx context.Context, ddb DynamoDBAPI, table string, picks []Pick) error {
	if len(picks) == 0 {
		return nil
	}
	const maxBatch = 25
	now := strconv.FormatInt(time.Now().Unix(), 10)

	for i := 0; i < len(picks); i += maxBatch {
		end := i + maxBatch
		if end > len(picks) {
			end = len(picks)
		}

		reqs := make([]types.WriteRequest, 0, end-i)
		for _, p := range picks[i:end] {
			if p.Entry == "" || p.Season == "" || p.Team == "" || p.Week < 1 {
				continue
			}
			result := p.Result
			if result == "" {
				result = "pending"
			}
			item := map[string]types.AttributeValue{
				"EntrySeason": &types.AttributeValueMemberS{Value: pickPK(p.Entry, p.Season)}, // PK
				"WeekKey":     &types.AttributeValueMemberS{Value: pickSK(p.Week)},            // SK
				"Entry":       &types.AttributeValueMemberS{Value: p.Entry},
				"Season":      &types.AttributeValueMemberS{Value: p.Season},
				"Week":        &types.AttributeValueMemberN{Value: strconv.Itoa(p.Week)},
				"Team":        &types.AttributeValueMemberS{Value: p.Team},
				"Opponent":    &types.AttributeValueMemberS{Value: p.Opponent},
				"SpotValue":   numAttr(p.SpotValue, 4),
				"Result":      &types.AttributeValueMemberS{Value: result},
				"UpdatedAt":   &types.AttributeValueMemberN{Value: now},
			}
			reqs = append(reqs, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}
		if len(reqs) == 0 {
			continue
		}
		if err := batchWriteWithRetry(ctx, ddb, table, reqs); err != nil {
			return fmt.Errorf("batch write picks: %w", err)
		}
	}
	return nil
}

// RecordResult settles a week's pick. Fails when the pick was never logged.
func RecordResult(ctx context.Context, ddb DynamoDBAPI, table, entry, season string, week int, result string) error {
	result = strings.ToLower(strings.TrimSpace(result))
	if result != "win" && result != "loss" {
		return fmt.Errorf("result must be win or loss, got %q", result)
	}
	now := strconv.FormatInt(time.Now().Unix(), 10)
	_, err := ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			"EntrySeason": &types.AttributeValueMemberS{Value: pickPK(entry, season)},
			"WeekKey":     &types.AttributeValueMemberS{Value: pickSK(week)},
		},
		UpdateExpression:    aws.String("SET #r=:r, UpdatedAt=:now"),
		ConditionExpression: aws.String("attribute_exists(EntrySeason) AND attribute_exists(WeekKey)"),
		ExpressionAttributeNames: map[string]string{
			"#r": "Result",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":r":   &types.AttributeValueMemberS{Value: result},
			":now": &types.AttributeValueMemberN{Value: now},
		},
	})
	return err
}

// ListPicks returns an entry's season picks in week order.
func ListPicks(ctx context.Context, ddb DynamoDBAPI, table, entry, season string) ([]Pick, error) {
	out, err := ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(table),
		KeyConditionExpression: aws.String("EntrySeason = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pickPK(entry, season)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query picks: %w", err)
	}

	picks := make([]Pick, 0, len(out.Items))
	for _, item := range out.Items {
		p := Pick{Entry: entry, Season: season}
		if v, ok := item["Week"].(*types.AttributeValueMemberN); ok {
			p.Week, _ = strconv.Atoi(v.Value)
		}
		if v, ok := item["Team"].(*types.AttributeValueMemberS); ok {
			p.Team = v.Value
		}
		if v, ok := item["Opponent"].(*types.AttributeValueMemberS); ok {
			p.Opponent = v.Value
		}
		if v, ok := item["Result"].(*types.AttributeValueMemberS); ok {
			p.Result = v.Value
		}
		if v, ok := item["SpotValue"].(*types.AttributeValueMemberN); ok {
			p.SpotValue, _ = strconv.ParseFloat(v.Value, 64)
		}
		picks = append(picks, p)
	}
	sort.Slice(picks, func(i, j int) bool { return picks[i].Week < picks[j].Week })
	return picks, nil
}

// UsedTeams reports which teams an entry has already burned this season.
func UsedTeams(ctx context.Context, ddb DynamoDBAPI, table, entry, season string) (map[string]bool, error) {
	picks, err := ListPicks(ctx, ddb, table, entry, season)
	if err != nil {
		return nil, err
	}
	used := make(map[string]bool, len(picks))
	for _, p := range picks {
		used[p.Team] = true
	}
	return used, nil
}
