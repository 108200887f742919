// File: internal/transfer/upload_test.go
package transfer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"s3client/internal/transfer"
	"s3client/pkg/storage"
	"s3client/pkg/storage/storagetest"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadTreeCollectsPerFileFailures(t *testing.T) {
	t.Parallel()

	base := afero.NewMemMapFs()
	root := filepath.Join("/", "work", "site")
	locked := filepath.Join(root, "private", "secret.txt")
	writeFiles(t, base, map[string]string{
		filepath.Join(root, "index.html"):       "<html></html>",
		filepath.Join(root, "css", "style.css"): "body {}",
		locked:                                  "nope",
	})
	fs := denyOpenFs{Fs: base, denied: map[string]bool{locked: true}}

	store := storagetest.New()
	require.NoError(t, store.CreateBucket(context.Background(), "bucket", ""))

	engine := transfer.NewEngine(transfer.WithFs(fs), transfer.WithConcurrency(2))
	report, err := engine.UploadTree(context.Background(), store, root, "bucket", "site", nil)
	require.NoError(t, err, "per-file failures must not abort the operation")

	assert.Equal(t, transfer.StatusCompleted, report.Status)
	assert.Equal(t, []string{"site/css/style.css", "site/index.html"}, report.Succeeded)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, locked, report.Failed[0].Path)
	assert.Equal(t, "site/private/secret.txt", report.Failed[0].Key)
	require.ErrorIs(t, report.Failed[0].Err, storage.ErrTransferFailed)
	require.ErrorIs(t, report.Failed[0].Err, os.ErrPermission)

	data, ok := store.Data("bucket", "site/index.html")
	require.True(t, ok)
	assert.Equal(t, "<html></html>", string(data))
	assert.Equal(t, int64(len("<html></html>")+len("body {}")), report.Bytes)
}

func TestUploadTreeReportsMonotonicProgress(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	big := make([]byte, 256*1024)
	for i := range big {
		big[i] = byte(i)
	}
	require.NoError(t, fs.MkdirAll("/src/nested", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/src/big.bin", big, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/src/nested/small.txt", []byte("small"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/src/empty", nil, 0o644))

	store := storagetest.New()
	require.NoError(t, store.CreateBucket(context.Background(), "bucket", ""))

	sink := &recordingSink{}
	engine := transfer.NewEngine(transfer.WithFs(fs))
	report, err := engine.UploadTree(context.Background(), store, "/src", "bucket", "", sink)
	require.NoError(t, err)
	require.True(t, report.OK())
	assert.Len(t, report.Succeeded, 3)

	for key, events := range sink.byKey() {
		require.NotEmpty(t, events, key)
		last := events[len(events)-1]
		assert.True(t, last.complete, "%s: completion must be the final callback", key)
		assert.NoError(t, last.err)

		prev := -1.0
		completions := 0
		for _, ev := range events {
			if ev.complete {
				completions++
				continue
			}
			assert.GreaterOrEqual(t, ev.percent, prev, "%s: progress went backwards", key)
			prev = ev.percent
		}
		assert.Equal(t, 1, completions, key)
		assert.Equal(t, 100.0, prev, "%s: final progress", key)
	}
}

func TestUploadTreeRejectsMissingRoot(t *testing.T) {
	t.Parallel()

	engine := transfer.NewEngine(transfer.WithFs(afero.NewMemMapFs()))
	_, err := engine.UploadTree(context.Background(), storagetest.New(), "/does/not/exist", "bucket", "p", nil)
	require.Error(t, err)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/file.txt", []byte("x"), 0o644))
	_, err = transfer.NewEngine(transfer.WithFs(fs)).UploadTree(context.Background(), storagetest.New(), "/file.txt", "bucket", "p", nil)
	require.Error(t, err)
}

func TestUploadTreeDoesNotFollowSymlinks(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "real.txt"), []byte("real"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "leak.txt"), []byte("leak"), 0o644))
	if err := os.Symlink(outside, filepath.Join(root, "link-dir")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(root, filepath.Join(root, "cycle")))
	require.NoError(t, os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")))

	store := storagetest.New()
	require.NoError(t, store.CreateBucket(context.Background(), "bucket", ""))

	report, err := transfer.NewEngine().UploadTree(context.Background(), store, root, "bucket", "root", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"root/real.txt"}, report.Succeeded)
	assert.Empty(t, report.Failed)
	assert.Equal(t, []string{"root/real.txt"}, store.Keys("bucket"))
}

func TestUploadTreeResolvesSymlinkedRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "real")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(target, "sub", "b.txt"), []byte("b"), 0o644))
	link := filepath.Join(dir, "link")
	if err := os.Symlink("real", link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	chained := filepath.Join(dir, "chained")
	require.NoError(t, os.Symlink(link, chained))

	for _, root := range []string{link, link + "/", chained} {
		store := storagetest.New()
		require.NoError(t, store.CreateBucket(context.Background(), "bucket", ""))

		report, err := transfer.NewEngine().UploadTree(context.Background(), store, root, "bucket", "p", nil)
		require.NoError(t, err, root)
		assert.Equal(t, transfer.StatusCompleted, report.Status)
		assert.ElementsMatch(t, []string{"p/a.txt", "p/sub/b.txt"}, report.Succeeded, root)
		assert.ElementsMatch(t, []string{"p/a.txt", "p/sub/b.txt"}, store.Keys("bucket"), root)
	}
}

func TestUploadTreeRejectsDanglingSymlinkRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	link := filepath.Join(dir, "gone")
	if err := os.Symlink(filepath.Join(dir, "missing"), link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	store := storagetest.New()
	require.NoError(t, store.CreateBucket(context.Background(), "bucket", ""))

	_, err := transfer.NewEngine().UploadTree(context.Background(), store, link, "bucket", "p", nil)
	assert.Error(t, err)
}

func TestUploadFileDetectsContentType(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/doc.json", []byte(`{"hello": "world"}`), 0o644))

	store := storagetest.New()
	require.NoError(t, store.CreateBucket(context.Background(), "bucket", ""))

	engine := transfer.NewEngine(transfer.WithFs(fs))
	require.NoError(t, engine.UploadFile(context.Background(), store, "/doc.json", "bucket", "docs/doc.json", nil))

	obj, err := store.StatObject(context.Background(), "bucket", "docs/doc.json")
	require.NoError(t, err)
	assert.Contains(t, obj.ContentType, "application/json")
	assert.Equal(t, int64(18), obj.Size)
}

func TestUploadFileWrapsStoreFailure(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a.txt", []byte("a"), 0o644))

	cause := errors.New("access denied")
	store := storagetest.New()
	require.NoError(t, store.CreateBucket(context.Background(), "bucket", ""))
	store.FailPut = func(_, _ string) error { return cause }

	sink := &recordingSink{}
	err := transfer.NewEngine(transfer.WithFs(fs)).UploadFile(context.Background(), store, "/a.txt", "bucket", "a.txt", sink)
	require.ErrorIs(t, err, storage.ErrTransferFailed)
	require.ErrorIs(t, err, cause)

	events := sink.byKey()["a.txt"]
	require.NotEmpty(t, events)
	assert.True(t, events[len(events)-1].complete)
	assert.Error(t, events[len(events)-1].err)
}

func TestUploadFileValidatesKey(t *testing.T) {
	t.Parallel()

	engine := transfer.NewEngine(transfer.WithFs(afero.NewMemMapFs()))
	err := engine.UploadFile(context.Background(), storagetest.New(), "/a.txt", "bucket", "/absolute", nil)
	require.ErrorIs(t, err, storage.ErrInvalidKey)

	err = engine.UploadFile(context.Background(), storagetest.New(), "/a.txt", "", "key", nil)
	require.ErrorIs(t, err, storage.ErrInvalidBucketName)
}

func TestUploadTreeCancelledBeforeStart(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/src/a": "a", "/src/b": "b"})

	store := storagetest.New()
	require.NoError(t, store.CreateBucket(context.Background(), "bucket", ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := transfer.NewEngine(transfer.WithFs(fs)).UploadTree(ctx, store, "/src", "bucket", "", nil)
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusCancelled, report.Status)
	assert.Empty(t, report.Succeeded)
	assert.Zero(t, store.PutCalls())
}
