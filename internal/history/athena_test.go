package history

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeAthena struct {
	started    []string // every sql handed to StartQueryExecution
	polls      int
	pollsUntil int // polls before SUCCEEDED
	failWith   string
	countValue string
}

func (f *fakeAthena) StartQueryExecution(ctx context.Context, in *athena.StartQueryExecutionInput, _ ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error) {
	f.started = append(f.started, *in.QueryString)
	qid := "qid-" + strings.Repeat("x", len(f.started))
	return &athena.StartQueryExecutionOutput{QueryExecutionId: aws.String(qid)}, nil
}

func (f *fakeAthena) GetQueryExecution(ctx context.Context, in *athena.GetQueryExecutionInput, _ ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error) {
	f.polls++
	state := types.QueryExecutionStateRunning
	var reason *string
	if f.failWith != "" {
		state = types.QueryExecutionStateFailed
		reason = aws.String(f.failWith)
	} else if f.polls > f.pollsUntil {
		state = types.QueryExecutionStateSucceeded
	}
	return &athena.GetQueryExecutionOutput{
		QueryExecution: &types.QueryExecution{
			QueryExecutionId: in.QueryExecutionId,
			Status:           &types.QueryExecutionStatus{State: state, StateChangeReason: reason},
		},
	}, nil
}

func (f *fakeAthena) GetQueryResults(ctx context.Context, in *athena.GetQueryResultsInput, _ ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error) {
	return &athena.GetQueryResultsOutput{
		ResultSet: &types.ResultSet{
			Rows: []types.Row{
				{Data: []types.Datum{{VarCharValue: aws.String("_col0")}}},
				{Data: []types.Datum{{VarCharValue: aws.String(f.countValue)}}},
			},
		},
	}, nil
}

func newRunner(fa *fakeAthena) *Runner {
	return &Runner{
		Client:    fa,
		Workgroup: "primary",
		Database:  "survivor",
		OutputS3:  "s3://results-bucket/exports/",
		PollEvery: time.Millisecond,
	}
}

func TestRunPollsToSuccess(t *testing.T) {
	fa := &fakeAthena{pollsUntil: 2}
	qid, err := newRunner(fa).Run(context.Background(), "SELECT 1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if qid == "" {
		t.Error("expected a query id")
	}
	if fa.polls < 3 {
		t.Errorf("expected at least 3 polls, got %d", fa.polls)
	}
}

func TestRunSurfacesFailureReason(t *testing.T) {
	fa := &fakeAthena{failWith: "SYNTAX_ERROR: line 1"}
	_, err := newRunner(fa).Run(context.Background(), "SELEC")
	if err == nil || !strings.Contains(err.Error(), "SYNTAX_ERROR") {
		t.Fatalf("expected failure reason in error, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed") {
		t.Errorf("error should name the terminal state: %v", err)
	}
}

func TestExportSeason(t *testing.T) {
	fa := &fakeAthena{countValue: "544"}
	qid, rows, err := newRunner(fa).ExportSeason(context.Background(), "roadmap_archive", 2024)
	if err != nil {
		t.Fatalf("ExportSeason: %v", err)
	}
	if rows != 544 {
		t.Errorf("rows: got %d", rows)
	}
	if qid == "" {
		t.Error("expected the export query id")
	}
	if len(fa.started) != 2 {
		t.Fatalf("expected count + select, got %d queries", len(fa.started))
	}
	if !strings.Contains(fa.started[0], "COUNT(*)") || !strings.Contains(fa.started[0], "season = 2024") {
		t.Errorf("count sql: %q", fa.started[0])
	}
	if !strings.Contains(fa.started[1], "spot_value_score") {
		t.Errorf("select sql: %q", fa.started[1])
	}
}

func TestExportSeasonRefusesEmptyArchive(t *testing.T) {
	fa := &fakeAthena{countValue: "0"}
	_, _, err := newRunner(fa).ExportSeason(context.Background(), "roadmap_archive", 2019)
	if err == nil || !strings.Contains(err.Error(), "no rows for season 2019") {
		t.Fatalf("expected empty-season error, got %v", err)
	}
	if len(fa.started) != 1 {
		t.Errorf("select should not run on an empty season, got %d queries", len(fa.started))
	}
}

func TestBuildSeasonSelect(t *testing.T) {
	sql := BuildSeasonSelect("roadmap_archive", 2024)
	for _, want := range []string{"FROM roadmap_archive", "season = 2024", "spot_value_score", "ORDER BY week, team"} {
		if !strings.Contains(sql, want) {
			t.Errorf("missing %q in:\n%s", want, sql)
		}
	}
}

func TestSplitS3URL(t *testing.T) {
	b, k, err := splitS3URL("s3://bucket/exports/qid-1.csv")
	if err != nil || b != "bucket" || k != "exports/qid-1.csv" {
		t.Fatalf("got %q %q %v", b, k, err)
	}
	if _, _, err := splitS3URL("https://example.com/x"); err == nil {
		t.Error("expected error for non-s3 url")
	}
	if _, _, err := splitS3URL("s3://bucket-only"); err == nil {
		t.Error("expected error for missing key")
	}
}

type fakeS3 struct{ body string }

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestDownloadResult(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.csv")
	n, err := DownloadResult(context.Background(), &fakeS3{body: "week,team\n5,KC\n"}, "s3://b/exports/qid-1.csv", dest)
	if err != nil {
		t.Fatalf("DownloadResult: %v", err)
	}
	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if int64(len(b)) != n || !strings.HasPrefix(string(b), "week,team") {
		t.Errorf("content: %q (%d bytes)", b, n)
	}
}

func TestResultURL(t *testing.T) {
	if got := ResultURL("s3://b/exports/", "qid-1"); got != "s3://b/exports/qid-1.csv" {
		t.Errorf("got %q", got)
	}
}
