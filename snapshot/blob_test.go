package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobBackends returns a fresh instance of every Blob implementation.
func blobBackends(t *testing.T) map[string]Blob {
	fileBlob, err := NewFileBlob(t.TempDir(), "bucket")
	require.NoError(t, err)

	sqliteBlob, err := NewSQLiteBlob(filepath.Join(t.TempDir(), "blobs.db"), "bucket")
	require.NoError(t, err)
	t.Cleanup(func() { sqliteBlob.Close() })

	return map[string]Blob{
		"memory": NewMemoryBlob(),
		"file":   fileBlob,
		"sqlite": sqliteBlob,
	}
}

// TestBlob_PutGet verifies data and metadata survive a put and get
func TestBlob_PutGet(t *testing.T) {
	for name, blob := range blobBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			opts := PutOptions{ContentType: "application/json", CacheControl: "public, max-age=300"}

			require.NoError(t, blob.Put(ctx, "obj.json", []byte(`{"a":1}`), opts))

			obj, err := blob.Get(ctx, "obj.json")
			require.NoError(t, err)
			assert.Equal(t, `{"a":1}`, string(obj.Data))
			assert.Equal(t, opts, obj.Options)
			assert.False(t, obj.UpdatedAt.IsZero())
		})
	}
}

// TestBlob_Overwrite verifies a second put replaces the first object
func TestBlob_Overwrite(t *testing.T) {
	for name, blob := range blobBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, blob.Put(ctx, "obj.json", []byte("old"), PutOptions{}))
			require.NoError(t, blob.Put(ctx, "obj.json", []byte("new"), PutOptions{}))

			obj, err := blob.Get(ctx, "obj.json")
			require.NoError(t, err)
			assert.Equal(t, "new", string(obj.Data))
		})
	}
}

// TestBlob_Missing verifies a missing key reports ErrNotFound
func TestBlob_Missing(t *testing.T) {
	for name, blob := range blobBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := blob.Get(context.Background(), "absent.json")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

// TestSQLiteBlob_BucketsAreSeparate verifies two buckets in one database do
// not see each other's objects
func TestSQLiteBlob_BucketsAreSeparate(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "shared.db")
	ctx := context.Background()

	first, err := NewSQLiteBlob(dsn, "first")
	require.NoError(t, err)
	defer first.Close()
	second, err := NewSQLiteBlob(dsn, "second")
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, first.Put(ctx, "k", []byte("v"), PutOptions{}))

	_, err = second.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestFileBlob_NoTempFilesLeft verifies atomic writes clean up after
// themselves
func TestFileBlob_NoTempFilesLeft(t *testing.T) {
	blob, err := NewFileBlob(t.TempDir(), "bucket")
	require.NoError(t, err)

	require.NoError(t, blob.Put(context.Background(), "obj.json", []byte("data"), PutOptions{}))

	entries, err := os.ReadDir(blob.Dir())
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"obj.json", "obj.json" + metaSuffix}, names)

	info, err := os.Stat(filepath.Join(blob.Dir(), "obj.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

// TestFileBlob_RejectsEscapingKeys verifies keys cannot leave the bucket
func TestFileBlob_RejectsEscapingKeys(t *testing.T) {
	blob, err := NewFileBlob(t.TempDir(), "bucket")
	require.NoError(t, err)

	for _, key := range []string{"", "..", "../x", "a/b", `a\b`, "x" + metaSuffix} {
		assert.Error(t, blob.Put(context.Background(), key, []byte("x"), PutOptions{}), "key %q", key)
	}

	_, err = NewFileBlob(t.TempDir(), "../escape")
	assert.Error(t, err)
}

// TestFileBlob_MissingSidecar verifies an object without metadata is still
// readable
func TestFileBlob_MissingSidecar(t *testing.T) {
	blob, err := NewFileBlob(t.TempDir(), "bucket")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(blob.Dir(), "bare.json"), []byte("{}"), 0o600))

	obj, err := blob.Get(context.Background(), "bare.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(obj.Data))
	assert.Equal(t, PutOptions{}, obj.Options)
}
