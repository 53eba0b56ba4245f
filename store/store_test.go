package store_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"github.com/stevemurr/farm-records/store"
)

// runResourceTests runs a common test suite against any Resource implementation.
func runResourceTests(t *testing.T, r store.Resource) {
	t.Helper()
	ctx := context.Background()

	t.Run("Read missing", func(t *testing.T) {
		_, err := r.Read(ctx)
		require.ErrorIs(t, err, store.ErrNotExist)
	})

	t.Run("Write and Read", func(t *testing.T) {
		require.NoError(t, r.Write(ctx, []byte(`{"crops":[]}`)))
		got, err := r.Read(ctx)
		require.NoError(t, err)
		require.JSONEq(t, `{"crops":[]}`, string(got))
	})

	t.Run("Write overwrites", func(t *testing.T) {
		require.NoError(t, r.Write(ctx, []byte(`{"crops":[{"id":"1"}]}`)))
		got, err := r.Read(ctx)
		require.NoError(t, err)
		require.JSONEq(t, `{"crops":[{"id":"1"}]}`, string(got))
	})

	t.Run("String", func(t *testing.T) {
		require.NotEmpty(t, r.String())
	})
}

func TestMemoryResource(t *testing.T) {
	runResourceTests(t, store.NewMemoryResource())
}

func TestFileResource(t *testing.T) {
	dir := t.TempDir()
	r, err := store.NewFileResource(filepath.Join(dir, "nested"), "")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "nested", store.DefaultFileName), r.Path())
	runResourceTests(t, r)

	// The atomic write leaves no temp files behind.
	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestSqliteResource(t *testing.T) {
	r, err := store.NewSqliteResource(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer r.Close()
	runResourceTests(t, r)
}

// fakeS3 keeps objects in a map and answers like the real client.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Bucket+"/"+*in.Key] = b
	return &s3.PutObjectOutput{}, nil
}

func TestS3Resource(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	r := store.NewS3ResourceWithClient(fake, "farm-bucket", "")
	require.Equal(t, "s3://farm-bucket/"+store.DefaultS3Key, r.String())
	runResourceTests(t, r)
	require.Contains(t, fake.objects, "farm-bucket/"+store.DefaultS3Key)
}

func TestS3ResourceReadError(t *testing.T) {
	r := store.NewS3ResourceWithClient(failingS3{}, "b", "k")
	_, err := r.Read(context.Background())
	require.Error(t, err)
	require.False(t, errors.Is(err, store.ErrNotExist))
}

type failingS3 struct{}

func (failingS3) GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return nil, errors.New("connection reset")
}

func (failingS3) PutObject(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return nil, errors.New("connection reset")
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	for _, backend := range []string{"json", "sqlite", "memory", ""} {
		t.Run(backend, func(t *testing.T) {
			r, err := store.Open(ctx, store.Config{Backend: backend, DataDir: filepath.Join(dir, backend)})
			require.NoError(t, err)
			if c, ok := r.(io.Closer); ok {
				defer c.Close()
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := store.Open(ctx, store.Config{Backend: "redis", DataDir: dir})
		require.ErrorIs(t, err, store.ErrUnknownBackend)
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		_, err := store.Open(ctx, store.Config{Backend: "postgres"})
		require.Error(t, err)
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		_, err := store.Open(ctx, store.Config{Backend: "s3"})
		require.Error(t, err)
	})
}
