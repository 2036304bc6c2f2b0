package archive

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), Options{Region: "us-east-1"})
	require.Error(t, err)
}

func TestNewS3_AppliesOptions(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-central-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "minioadmin", creds.AccessKeyID)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	a, err := NewS3(context.Background(), Options{
		Bucket:    "twos",
		Region:    "eu-central-1",
		Endpoint:  "http://127.0.0.1:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Prefix:    "chunks",
	})
	require.NoError(t, err)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "chunks/r1/twos_data_0.json", a.Key("r1", "twos_data_0.json"))
}

func TestNewS3_LoadConfigError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	_, err := NewS3(context.Background(), Options{Bucket: "b"})
	require.Error(t, err)
}

func TestPut_UsesDailyKey(t *testing.T) {
	origPut := putObject
	origNow := now
	t.Cleanup(func() {
		putObject = origPut
		now = origNow
	})
	now = func() time.Time { return time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC) }

	var got *s3.PutObjectInput
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		got = in
		return nil
	}

	a := &S3Archiver{bucket: "twos", prefix: "chunks"}
	require.NoError(t, a.Put(context.Background(), "twos_data_1.json", []byte(`{}`)))

	require.NotNil(t, got)
	assert.Equal(t, "twos", aws.ToString(got.Bucket))
	assert.Equal(t, "chunks/2024-03-09/twos_data_1.json", aws.ToString(got.Key))
	assert.Equal(t, "application/json", aws.ToString(got.ContentType))

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		return errors.New("denied")
	}
	err := a.Put(context.Background(), "twos_data_2.json", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "twos_data_2.json")
}

func TestPut_AgainstFakeS3(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, body = r.Method, r.URL.Path, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a, err := NewS3(context.Background(), Options{
		Bucket:    "twos",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "k",
		SecretKey: "s",
	})
	require.NoError(t, err)

	require.NoError(t, a.Put(context.Background(), "twos_data_0.json", []byte(`{"entries":[]}`)))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Contains(t, path, "/twos/")
	assert.Contains(t, path, "twos_data_0.json")
	assert.Contains(t, body, `{"entries":[]}`)
}
