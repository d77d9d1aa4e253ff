package backup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/cyphervault/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	snap models.VaultSnapshot
	err  error
}

func (f fakeSource) Snapshot() (models.VaultSnapshot, error) { return f.snap, f.err }

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func snapshot() models.VaultSnapshot {
	return models.VaultSnapshot{
		AccountID: "neo",
		CreatedAt: time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC),
		Records: []models.StoredRecord{
			{ID: "r1", Site: "example.com", LoginName: "neo@x", Secret: []byte{1, 2}, Nonce: []byte{3}},
		},
	}
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "vaults/neo/20261019T083000Z.json", ObjectName(snapshot()))

	s := snapshot()
	s.AccountID = "a/b"
	assert.Equal(t, "vaults/a%2Fb/20261019T083000Z.json", ObjectName(s))
}

func TestExport_ToFile(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(fakeSource{snap: snapshot()}, NewFileSink(dir))

	loc, err := e.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vaults", "neo", "20261019T083000Z.json"), loc)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)

	var got models.VaultSnapshot
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, snapshot(), got)
}

func TestExport_ToS3(t *testing.T) {
	p := &fakePutter{}
	e := NewExporter(fakeSource{snap: snapshot()}, NewS3Sink(p, "backups"))

	loc, err := e.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s3://backups/vaults/neo/20261019T083000Z.json", loc)

	require.NotNil(t, p.in)
	assert.Equal(t, "backups", aws.ToString(p.in.Bucket))
	assert.Equal(t, "vaults/neo/20261019T083000Z.json", aws.ToString(p.in.Key))
	assert.Equal(t, "application/json", aws.ToString(p.in.ContentType))
	assert.Contains(t, string(p.body), `"accountId": "neo"`)
}

func TestExport_Errors(t *testing.T) {
	locked := errors.New("locked")
	_, err := NewExporter(fakeSource{err: locked}, NewS3Sink(&fakePutter{}, "b")).Export(context.Background())
	require.ErrorIs(t, err, locked)

	denied := errors.New("access denied")
	_, err = NewExporter(fakeSource{snap: snapshot()}, NewS3Sink(&fakePutter{err: denied}, "b")).Export(context.Background())
	require.ErrorIs(t, err, denied)
}

func TestFileSink_DirIsAFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := NewFileSink(path).Write(context.Background(), "a.json", []byte("{}"))
	require.Error(t, err)
}

func TestNewS3Client_CustomEndpoint(t *testing.T) {
	c, err := NewS3Client(context.Background(), S3Config{
		Region:       "us-east-1",
		BaseEndpoint: "http://127.0.0.1:9000",
		AccessKey:    "minio",
		SecretKey:    "minio123",
	})
	require.NoError(t, err)

	opts := c.Options()
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "us-east-1", opts.Region)
}

func TestNewS3Client_ConfigError(t *testing.T) {
	old := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = old })
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no profile")
	}

	_, err := NewS3Client(context.Background(), S3Config{Region: "us-east-1"})
	require.ErrorContains(t, err, "load aws config")
}
