package storage

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "lake"

func newFakeS3(t *testing.T) (*S3Backend, *s3.Client) {
	t.Helper()

	backend := s3mem.New()
	require.NoError(t, backend.CreateBucket(testBucket))
	ts := httptest.NewServer(gofakes3.New(backend).Server())
	t.Cleanup(ts.Close)

	b, err := NewS3Backend(context.Background(), S3Options{
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Region:          "us-east-1",
		Endpoint:        ts.URL,
		PathStyle:       true,
	})
	require.NoError(t, err)
	return b, b.client
}

func putObject(t *testing.T, client *s3.Client, key string) {
	t.Helper()
	_, err := client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(testBucket),
		Key:    aws.String(key),
		Body:   strings.NewReader("x"),
	})
	require.NoError(t, err)
}

func TestS3Backend_ResetAndList(t *testing.T) {
	ctx := context.Background()
	b, client := newFakeS3(t)

	putObject(t, client, "out/songs/year=2001/artist_id=ARX/data_0.parquet")
	putObject(t, client, "out/songs/year=0/artist_id=ARY/data_0.parquet")
	putObject(t, client, "out/songs_v2/keep.parquet")
	putObject(t, client, "out/artists/data_0.parquet")

	listed, err := b.List(ctx, "s3://lake/out/songs")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"s3://lake/out/songs/year=2001/artist_id=ARX/data_0.parquet",
		"s3://lake/out/songs/year=0/artist_id=ARY/data_0.parquet",
	}, listed)

	require.NoError(t, b.Reset(ctx, "s3://lake/out/songs"))

	listed, err = b.List(ctx, "s3://lake/out/songs")
	require.NoError(t, err)
	assert.Empty(t, listed)

	kept, err := b.List(ctx, "s3://lake/out")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"s3://lake/out/songs_v2/keep.parquet",
		"s3://lake/out/artists/data_0.parquet",
	}, kept)
}

func TestS3Backend_ResetBatches(t *testing.T) {
	ctx := context.Background()
	b, client := newFakeS3(t)

	for i := 0; i < maxDeleteBatch+5; i++ {
		putObject(t, client, fmt.Sprintf("out/time/part-%04d.parquet", i))
	}

	require.NoError(t, b.Reset(ctx, "s3://lake/out/time"))

	listed, err := b.List(ctx, "s3://lake/out/time")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestS3Backend_ResetEmptyPrefix(t *testing.T) {
	b, _ := newFakeS3(t)
	assert.NoError(t, b.Reset(context.Background(), "s3://lake/nothing/here"))
}

func TestS3Backend_ResetMissingBucket(t *testing.T) {
	b, _ := newFakeS3(t)
	assert.Error(t, b.Reset(context.Background(), "s3://no-such-bucket/out"))
}

func TestResolver_UsesInstalledS3(t *testing.T) {
	b, _ := newFakeS3(t)
	r := NewResolver(Options{}, nil).WithS3(b)

	got, err := r.For(context.Background(), "s3://lake/out")
	require.NoError(t, err)
	assert.Same(t, b, got)
}
