// Package history exports past scored roadmaps from the Athena-backed
// archive into local CSVs for backtesting.
package history

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
)

type AthenaAPI interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

type Runner struct {
	Client    AthenaAPI
	Workgroup string
	Database  string
	OutputS3  string // s3://bucket/prefix/
	Logger    *log.Logger
	PollEvery time.Duration
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}

// Run starts sql and blocks until Athena reports a terminal state, returning
// the query id whose result object holds the rows.
func (r *Runner) Run(ctx context.Context, sql string) (string, error) {
	out, err := r.Client.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString: &sql,
		QueryExecutionContext: &types.QueryExecutionContext{
			Database: &r.Database,
		},
		ResultConfiguration: &types.ResultConfiguration{
			OutputLocation: &r.OutputS3,
		},
		WorkGroup: &r.Workgroup,
	})
	if err != nil {
		return "", fmt.Errorf("start query: %w", err)
	}
	qid := *out.QueryExecutionId
	r.logf("history: query %s running", qid)
	if err := r.wait(ctx, qid); err != nil {
		return "", err
	}
	return qid, nil
}

func (r *Runner) wait(ctx context.Context, qid string) error {
	interval := r.PollEvery
	if interval <= 0 {
		interval = 1 * time.Second
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		out, err := r.Client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: &qid,
		})
		if err != nil {
			return fmt.Errorf("poll query %s: %w", qid, err)
		}
		status := out.QueryExecution.Status
		switch status.State {
		case types.QueryExecutionStateSucceeded:
			r.logf("history: query %s done%s", qid, runStats(out.QueryExecution.Statistics))
			return nil
		case types.QueryExecutionStateFailed, types.QueryExecutionStateCancelled:
			reason := "no reason given"
			if status.StateChangeReason != nil {
				reason = *status.StateChangeReason
			}
			return fmt.Errorf("query %s %s: %s", qid, strings.ToLower(string(status.State)), reason)
		}
	}
}

func runStats(s *types.QueryExecutionStatistics) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	if s.EngineExecutionTimeInMillis != nil {
		fmt.Fprintf(&b, " in %.1fs", float64(*s.EngineExecutionTimeInMillis)/1000.0)
	}
	if s.DataScannedInBytes != nil {
		fmt.Fprintf(&b, ", %.1f MB scanned", float64(*s.DataScannedInBytes)/(1024.0*1024.0))
	}
	return b.String()
}

// ExportSeason checks the archive actually holds the season, then runs the
// full select. The returned query id names the result CSV under OutputS3.
func (r *Runner) ExportSeason(ctx context.Context, table string, season int) (string, int64, error) {
	rows, err := r.seasonRowCount(ctx, table, season)
	if err != nil {
		return "", 0, err
	}
	if rows == 0 {
		return "", 0, fmt.Errorf("%s holds no rows for season %d", table, season)
	}
	r.logf("history: exporting %d rows for season %d", rows, season)

	qid, err := r.Run(ctx, BuildSeasonSelect(table, season))
	if err != nil {
		return "", rows, err
	}
	return qid, rows, nil
}

func (r *Runner) seasonRowCount(ctx context.Context, table string, season int) (int64, error) {
	qid, err := r.Run(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE season = %d", table, season))
	if err != nil {
		return 0, err
	}
	res, err := r.Client.GetQueryResults(ctx, &athena.GetQueryResultsInput{
		QueryExecutionId: &qid,
	})
	if err != nil {
		return 0, fmt.Errorf("fetch count for query %s: %w", qid, err)
	}
	// first row is the header echo
	rows := res.ResultSet.Rows
	if len(rows) < 2 || len(rows[1].Data) < 1 || rows[1].Data[0].VarCharValue == nil {
		return 0, fmt.Errorf("count query %s returned no data row", qid)
	}
	n, err := strconv.ParseInt(*rows[1].Data[0].VarCharValue, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("count query %s: %w", qid, err)
	}
	return n, nil
}
