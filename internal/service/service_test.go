// File: internal/service/service_test.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"

	"s3client/internal/config"
	"s3client/internal/provider/factory"
	"s3client/internal/provider/registry"
	"s3client/internal/transfer"
	"s3client/pkg/storage"
	"s3client/pkg/storage/storagetest"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var providerSeq atomic.Int64

// Registers a uniquely named provider backed by an in-memory store
func newMemoryProvider(t *testing.T, opts ...storagetest.Option) (string, *storagetest.Store) {
	t.Helper()
	name := fmt.Sprintf("memory%d", providerSeq.Add(1))
	store := storagetest.New(opts...)
	registry.RegisterProvider(name, registry.ProviderRegistration{
		ConfigCheck: func(*config.Config) bool { return true },
		Initializer: func(context.Context, *config.Config, *slog.Logger) (storage.ObjectStore, error) {
			return store, nil
		},
	})
	t.Cleanup(func() { registry.UnregisterProvider(name) })
	return name, store
}

func newBrokenProvider(t *testing.T) string {
	t.Helper()
	name := fmt.Sprintf("broken%d", providerSeq.Add(1))
	registry.RegisterProvider(name, registry.ProviderRegistration{
		ConfigCheck: func(*config.Config) bool { return true },
		Initializer: func(context.Context, *config.Config, *slog.Logger) (storage.ObjectStore, error) {
			return nil, errors.New("no credentials")
		},
	})
	t.Cleanup(func() { registry.UnregisterProvider(name) })
	return name
}

func newTestFactory() *factory.Factory {
	return factory.NewFactory(&config.Config{}, slog.New(slog.DiscardHandler))
}

func TestListAllBucketsSkipsFailingProviders(t *testing.T) {
	t.Parallel()

	first, firstStore := newMemoryProvider(t)
	second, secondStore := newMemoryProvider(t)
	broken := newBrokenProvider(t)
	require.NoError(t, firstStore.CreateBucket(context.Background(), "zeta", ""))
	require.NoError(t, firstStore.CreateBucket(context.Background(), "alpha", ""))
	require.NoError(t, secondStore.CreateBucket(context.Background(), "beta", ""))

	svc := NewStorageService(newTestFactory(), slog.New(slog.DiscardHandler))
	buckets, err := svc.ListAllBuckets(context.Background(), []string{first, second, broken})
	require.NoError(t, err)

	names := make([]string, len(buckets))
	for i, b := range buckets {
		names[i] = b.Name
	}
	assert.ElementsMatch(t, []string{"alpha", "beta", "zeta"}, names)
	assert.True(t, firstStore.Closed())

	_, err = svc.ListAllBuckets(context.Background(), []string{broken})
	require.ErrorContains(t, err, "no credentials")

	buckets, err = svc.ListAllBuckets(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, buckets)
}

func TestDescribeBucket(t *testing.T) {
	t.Parallel()

	name, store := newMemoryProvider(t)
	require.NoError(t, store.CreateBucket(context.Background(), "site", "eu-west-1"))
	store.SetVersioning("site", storage.VersioningSuspended)

	svc := NewStorageService(newTestFactory(), slog.New(slog.DiscardHandler))

	details, err := svc.DescribeBucket(context.Background(), "site", name)
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", details.Location)
	assert.Equal(t, storage.VersioningSuspended, details.Versioning)
	assert.Empty(t, details.Policy, "a missing policy is not an error")

	policy := `{"Version":"2012-10-17","Statement":[]}`
	require.NoError(t, svc.SetBucketPolicy(context.Background(), "site", name, policy))
	details, err = svc.DescribeBucket(context.Background(), "site", name)
	require.NoError(t, err)
	assert.Equal(t, policy, details.Policy)

	_, err = svc.DescribeBucket(context.Background(), "ghost", name)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// Adds usage reporting to the in-memory store
type usageStore struct {
	*storagetest.Store
	usage int64
	err   error
}

func (u *usageStore) BucketUsage(context.Context, string) (int64, error) {
	return u.usage, u.err
}

func TestDescribeBucketIncludesUsage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		store     *usageStore
		wantUsage *int64
	}{
		{"reported", &usageStore{Store: storagetest.New(), usage: 4096}, ptr(int64(4096))},
		{"no metrics yet", &usageStore{Store: storagetest.New(), err: fmt.Errorf("%w: no samples", storage.ErrNotFound)}, nil},
		{"monitoring unavailable", &usageStore{Store: storagetest.New(), err: errors.New("permission denied")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			name := fmt.Sprintf("usage%d", providerSeq.Add(1))
			registry.RegisterProvider(name, registry.ProviderRegistration{
				ConfigCheck: func(*config.Config) bool { return true },
				Initializer: func(context.Context, *config.Config, *slog.Logger) (storage.ObjectStore, error) {
					return tt.store, nil
				},
			})
			t.Cleanup(func() { registry.UnregisterProvider(name) })
			require.NoError(t, tt.store.CreateBucket(context.Background(), "media", ""))

			svc := NewStorageService(newTestFactory(), slog.New(slog.DiscardHandler))
			details, err := svc.DescribeBucket(context.Background(), "media", name)
			require.NoError(t, err, "usage failures never fail describe")
			assert.Equal(t, tt.wantUsage, details.UsageBytes)
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestSetBucketPolicyRejectsInvalidJSON(t *testing.T) {
	t.Parallel()

	name, store := newMemoryProvider(t)
	require.NoError(t, store.CreateBucket(context.Background(), "data", ""))

	svc := NewStorageService(newTestFactory(), slog.New(slog.DiscardHandler))
	require.Error(t, svc.SetBucketPolicy(context.Background(), "data", name, "{broken"))

	_, err := svc.GetBucketPolicy(context.Background(), "data", name)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestConfigureWebsiteDefaults(t *testing.T) {
	t.Parallel()

	name, store := newMemoryProvider(t)
	require.NoError(t, store.CreateBucket(context.Background(), "site", ""))

	svc := NewStorageService(newTestFactory(), slog.New(slog.DiscardHandler))
	applied, err := svc.ConfigureWebsite(context.Background(), "site", name, storage.WebsiteConfig{ErrorDocument: "404.html"})
	require.NoError(t, err)
	assert.Equal(t, storage.WebsiteConfig{IndexDocument: "index.html", ErrorDocument: "404.html"}, applied)

	stored, ok := store.Website("site")
	require.True(t, ok)
	assert.Equal(t, applied, stored)
}

func TestCreateAndDeleteBucket(t *testing.T) {
	t.Parallel()

	name, store := newMemoryProvider(t)
	svc := NewStorageService(newTestFactory(), slog.New(slog.DiscardHandler))

	require.NoError(t, svc.CreateBucket(context.Background(), "fresh", name, "us-east-2"))
	status, err := svc.GetBucketVersioning(context.Background(), "fresh", name)
	require.NoError(t, err)
	assert.Equal(t, storage.VersioningDisabled, status)

	store.Seed("fresh", "file.txt", []byte("x"))
	require.Error(t, svc.DeleteBucket(context.Background(), "fresh", name), "non-empty buckets cannot be deleted")

	objects := NewObjectService(newTestFactory(), transfer.NewEngine(), nil, slog.New(slog.DiscardHandler))
	_, err = objects.EmptyBucket(context.Background(), "fresh", name, "")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteBucket(context.Background(), "fresh", name))
}

func TestUnknownProvider(t *testing.T) {
	t.Parallel()

	svc := NewStorageService(newTestFactory(), slog.New(slog.DiscardHandler))
	err := svc.CreateBucket(context.Background(), "b", "does-not-exist", "")
	require.ErrorContains(t, err, "unsupported provider")
}

func TestObjectServiceDirectoryRoundTrip(t *testing.T) {
	t.Parallel()

	name, store := newMemoryProvider(t, storagetest.WithPageSize(2))
	require.NoError(t, store.CreateBucket(context.Background(), "backup", ""))

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/home/docs/a.txt", []byte("alpha"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/home/docs/sub/b.txt", []byte("beta"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/home/docs/sub/c.txt", []byte("gamma"), 0o644))

	engine := transfer.NewEngine(transfer.WithFs(fs), transfer.WithConcurrency(2))
	svc := NewObjectService(newTestFactory(), engine, nil, slog.New(slog.DiscardHandler))

	up, err := svc.UploadDirectory(context.Background(), name, "/home/docs", "backup", "docs")
	require.NoError(t, err)
	assert.True(t, up.OK())
	assert.Equal(t, []string{"docs/a.txt", "docs/sub/b.txt", "docs/sub/c.txt"}, up.Succeeded)

	objects, err := svc.ListObjects(context.Background(), "backup", name, "docs/sub/")
	require.NoError(t, err)
	assert.Len(t, objects, 2)

	down, err := svc.DownloadDirectory(context.Background(), name, "backup", "docs", "/restore")
	require.NoError(t, err)
	assert.True(t, down.OK())

	data, err := afero.ReadFile(fs, "/restore/sub/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "gamma", string(data))

	report, err := svc.EmptyBucket(context.Background(), "backup", name, "docs/sub")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Deleted)
	assert.Equal(t, []string{"docs/a.txt"}, store.Keys("backup"))
}

func TestEmptyBucketMatchesPrefixAsFolder(t *testing.T) {
	t.Parallel()

	name, store := newMemoryProvider(t)
	store.Seed("media", "photos/a.jpg", []byte("a"))
	store.Seed("media", "photos/2024/b.jpg", []byte("b"))
	store.Seed("media", "photos-backup/a.jpg", []byte("a"))
	store.Seed("media", "photos.txt", []byte("c"))

	svc := NewObjectService(newTestFactory(), transfer.NewEngine(), nil, slog.New(slog.DiscardHandler))
	report, err := svc.EmptyBucket(context.Background(), "media", name, "photos")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Deleted)
	assert.Equal(t, []string{"photos-backup/a.jpg", "photos.txt"}, store.Keys("media"))
}

func TestObjectServiceSingleObjectOperations(t *testing.T) {
	t.Parallel()

	name, store := newMemoryProvider(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tmp/report.csv", []byte("a,b\n1,2\n"), 0o644))
	require.NoError(t, store.CreateBucket(context.Background(), "data", ""))

	svc := NewObjectService(newTestFactory(), transfer.NewEngine(transfer.WithFs(fs)), nil, slog.New(slog.DiscardHandler))

	require.NoError(t, svc.UploadFile(context.Background(), name, "/tmp/report.csv", "data", "reports/q1.csv"))

	obj, err := svc.DescribeObject(context.Background(), "data", "reports/q1.csv", name)
	require.NoError(t, err)
	assert.Equal(t, int64(8), obj.Size)

	require.NoError(t, svc.DownloadFile(context.Background(), name, "data", "reports/q1.csv", "/out/q1.csv"))
	data, err := afero.ReadFile(fs, "/out/q1.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))

	link, err := svc.Presign(context.Background(), "data", "reports/q1.csv", name, 600)
	require.NoError(t, err)
	assert.Contains(t, link.URL, "X-Amz-Expires=600")

	_, err = svc.Presign(context.Background(), "data", "reports/q1.csv", name, 0)
	require.ErrorIs(t, err, storage.ErrInvalidTTL)

	require.NoError(t, svc.DeleteObject(context.Background(), "data", "reports/q1.csv", name))
	_, err = svc.DescribeObject(context.Background(), "data", "reports/q1.csv", name)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.ErrorIs(t, svc.DeleteObject(context.Background(), "data", "/absolute", name), storage.ErrInvalidKey)
}
