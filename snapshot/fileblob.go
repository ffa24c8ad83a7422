package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const metaSuffix = ".meta.json"

// FileBlob stores objects as files in one directory per bucket. Each object
// has a JSON sidecar holding its metadata.
type FileBlob struct {
	dir string
}

// fileMeta is the sidecar written next to every object.
type fileMeta struct {
	PutOptions
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewFileBlob creates a file-backed blob store for bucket under root.
func NewFileBlob(root, bucket string) (*FileBlob, error) {
	if err := validateKey(bucket); err != nil {
		return nil, fmt.Errorf("invalid bucket: %w", err)
	}

	dir := filepath.Join(root, bucket)

	// Create the bucket directory if it doesn't exist (0700: owner-only access)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create bucket directory: %w", err)
	}

	return &FileBlob{dir: dir}, nil
}

// Dir returns the directory holding the bucket.
func (f *FileBlob) Dir() string {
	return f.dir
}

// Put writes data under key. The file is written to a temporary name and
// renamed into place so a crash never leaves a partial object.
func (f *FileBlob) Put(ctx context.Context, key string, data []byte, opts PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}

	meta, err := json.MarshalIndent(fileMeta{PutOptions: opts, UpdatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := f.writeAtomic(key+metaSuffix, meta); err != nil {
		return err
	}
	return f.writeAtomic(key, data)
}

// Get reads the object under key. A missing or unreadable sidecar leaves the
// metadata empty.
func (f *FileBlob) Get(ctx context.Context, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(f.dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}

	obj := &Object{Data: data}

	if raw, err := os.ReadFile(filepath.Join(f.dir, key+metaSuffix)); err == nil {
		var meta fileMeta
		if json.Unmarshal(raw, &meta) == nil {
			obj.Options = meta.PutOptions
			obj.UpdatedAt = meta.UpdatedAt
		}
	}

	return obj, nil
}

func (f *FileBlob) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close object: %w", err)
	}

	// 0600: owner-only read/write
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(f.dir, name)); err != nil {
		return fmt.Errorf("failed to replace object: %w", err)
	}

	return nil
}

// validateKey rejects keys that would escape the bucket directory.
func validateKey(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.HasSuffix(key, metaSuffix) {
		return errors.New("invalid key: " + key)
	}
	return nil
}
