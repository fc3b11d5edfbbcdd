package history

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// splitS3URL breaks s3://bucket/key into its parts.
func splitS3URL(u string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(u, "s3://")
	if trimmed == u {
		return "", "", fmt.Errorf("not an s3 url: %s", u)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed s3 url: %s", u)
	}
	return parts[0], parts[1], nil
}

// DownloadResult copies an Athena result object to a local file. Athena
// names the object <query-id>.csv under the runner's output location.
func DownloadResult(ctx context.Context, cl S3API, s3url, dest string) (int64, error) {
	bucket, key, err := splitS3URL(s3url)
	if err != nil {
		return 0, err
	}
	out, err := cl.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}
	defer f.Close()

	n, err := io.Copy(f, out.Body)
	if err != nil {
		return n, fmt.Errorf("copy result: %w", err)
	}
	return n, nil
}

// ResultURL is where Athena dropped the CSV for a finished query.
func ResultURL(outputS3, queryID string) string {
	return strings.TrimSuffix(outputS3, "/") + "/" + queryID + ".csv"
}
