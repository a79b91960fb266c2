package safefs

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// FileInfo represents file/directory metadata
type FileInfo struct {
	Name        string
	Path        string
	Size        int64
	ModTime     time.Time
	IsDir       bool
	ContentType string
}

// FS wraps local filesystem primitives with per-path serialization and
// typed error translation. Every operation acquires the lock for its
// canonical target path before touching the filesystem and releases it on
// every exit path; see the package documentation for the two deliberate
// exceptions (Exists, EnsureDir).
//
// All methods are safe for concurrent use. Multiple FS values sharing one
// Registry coordinate with each other; FS values with separate registries
// do not.
type FS struct {
	root     string
	reg      *Registry
	cfg      *Config
	log      *Logger
	fileMode os.FileMode
	dirMode  os.FileMode
}

// New creates an FS rooted at cfg.RootPath, coordinating through reg.
// A nil cfg uses DefaultConfig; a nil reg gets a fresh private Registry
// (callers that need cross-component coordination should pass a shared one).
func New(cfg *Config, reg *Registry) (*FS, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if reg == nil {
		reg = NewRegistry()
	}

	root, err := filepath.Abs(cfg.RootPath)
	if err != nil {
		return nil, err
	}
	fileMode, _ := parseMode(cfg.FileMode, 0o644)
	dirMode, _ := parseMode(cfg.DirMode, 0o755)

	return &FS{
		root:     root,
		reg:      reg,
		cfg:      cfg,
		fileMode: fileMode,
		dirMode:  dirMode,
	}, nil
}

// WithLogger attaches a best-effort logging sink. Operation failures are
// reported to it; the sink never affects operation results.
func (fs *FS) WithLogger(log *Logger) *FS {
	fs.log = log
	return fs
}

// Registry returns the registry this FS coordinates through.
func (fs *FS) Registry() *Registry {
	return fs.reg
}

// resolve maps a caller-supplied path to the canonical on-disk path used
// both for I/O and as the lock key. Relative paths are taken under the
// configured root; absolute paths are used as given.
func (fs *FS) resolve(path string) string {
	if filepath.IsAbs(path) {
		return CanonicalPath(path)
	}
	return CanonicalPath(filepath.Join(fs.root, path))
}

// Read returns the entire content of the file at path.
func (fs *FS) Read(ctx context.Context, path string) ([]byte, error) {
	full := fs.resolve(path)

	key, err := fs.reg.Acquire(ctx, full)
	if err != nil {
		return nil, opError(OpRead, path, "", err)
	}
	defer fs.reg.Release(key)

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fs.fail(OpRead, path, "", normalize(err))
	}
	return data, nil
}

// ReadString reads the file at path as UTF-8 text.
func (fs *FS) ReadString(ctx context.Context, path string) (string, error) {
	data, err := fs.Read(ctx, path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write creates or truncates the file at path with the given content,
// creating parent directories as needed.
func (fs *FS) Write(ctx context.Context, path string, data []byte, options ...Option) error {
	opts := processOptions(options...)
	if err := fs.checkSize(int64(len(data))); err != nil {
		return fs.fail(OpWrite, path, "", err)
	}
	full := fs.resolve(path)

	key, err := fs.reg.Acquire(ctx, full)
	if err != nil {
		return opError(OpWrite, path, "", err)
	}
	defer fs.reg.Release(key)

	if err := fs.writeLocked(full, data, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, opts); err != nil {
		return fs.fail(OpWrite, path, "", normalize(err))
	}
	return nil
}

// WriteString writes UTF-8 text to the file at path.
func (fs *FS) WriteString(ctx context.Context, path, data string, options ...Option) error {
	return fs.Write(ctx, path, []byte(data), options...)
}

// Append appends content to the file at path, creating it if absent.
func (fs *FS) Append(ctx context.Context, path string, data []byte, options ...Option) error {
	opts := processOptions(options...)
	if err := fs.checkSize(int64(len(data))); err != nil {
		return fs.fail(OpAppend, path, "", err)
	}
	full := fs.resolve(path)

	key, err := fs.reg.Acquire(ctx, full)
	if err != nil {
		return opError(OpAppend, path, "", err)
	}
	defer fs.reg.Release(key)

	if err := fs.writeLocked(full, data, os.O_WRONLY|os.O_CREATE|os.O_APPEND, opts); err != nil {
		return fs.fail(OpAppend, path, "", normalize(err))
	}
	return nil
}

// AppendString appends UTF-8 text to the file at path.
func (fs *FS) AppendString(ctx context.Context, path, data string, options ...Option) error {
	return fs.Append(ctx, path, []byte(data), options...)
}

// writeLocked performs the actual write. Caller holds the path lock.
func (fs *FS) writeLocked(full string, data []byte, flag int, opts *Options) error {
	dirMode := fs.dirMode
	if opts.DirMode != 0 {
		dirMode = opts.DirMode
	}
	if err := os.MkdirAll(filepath.Dir(full), dirMode); err != nil {
		return err
	}

	fileMode := fs.fileMode
	if opts.FileMode != 0 {
		fileMode = opts.FileMode
	}
	f, err := os.OpenFile(full, flag, fileMode)
	if err != nil {
		return err
	}
	// A failing Close after a successful write still loses data, so it is
	// checked rather than deferred away.
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if opts.Sync {
		if err := f.Sync(); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

// Exists reports whether path refers to an existing file or directory.
// It deliberately bypasses the lock table: a non-exclusive probe need not
// serialize with in-flight operations. A probe failure (permission denied,
// I/O error) is reported as false; Exists never fails.
func (fs *FS) Exists(ctx context.Context, path string) bool {
	if ctx.Err() != nil {
		return false
	}
	_, err := os.Stat(fs.resolve(path))
	return err == nil
}

// EnsureDir creates the directory at path along with any missing parents.
// Like Exists it bypasses the lock table: directory creation is idempotent
// and safe to race since MkdirAll tolerates "already exists". As a
// consequence, Exists and EnsureDir do not observe the ordering guarantees
// of the locked operations on the same path.
func (fs *FS) EnsureDir(ctx context.Context, path string, options ...Option) error {
	if err := ctx.Err(); err != nil {
		return opError(OpDir, path, "", err)
	}
	opts := processOptions(options...)
	dirMode := fs.dirMode
	if opts.DirMode != 0 {
		dirMode = opts.DirMode
	}
	if err := os.MkdirAll(fs.resolve(path), dirMode); err != nil {
		return fs.fail(OpDir, path, "", normalize(err))
	}
	return nil
}

// Stat returns metadata for the file or directory at path.
func (fs *FS) Stat(ctx context.Context, path string, options ...Option) (*FileInfo, error) {
	opts := processOptions(options...)
	full := fs.resolve(path)

	key, err := fs.reg.Acquire(ctx, full)
	if err != nil {
		return nil, opError(OpStat, path, "", err)
	}
	defer fs.reg.Release(key)

	info, err := os.Stat(full)
	if err != nil {
		return nil, fs.fail(OpStat, path, "", normalize(err))
	}

	contentType := ""
	if !info.IsDir() && fs.cfg.DetectContentType && !opts.NoSniff {
		contentType = detectContentType(full)
	}

	return &FileInfo{
		Name:        filepath.Base(full),
		Path:        path,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		IsDir:       info.IsDir(),
		ContentType: contentType,
	}, nil
}

// Delete removes the file at path.
func (fs *FS) Delete(ctx context.Context, path string) error {
	full := fs.resolve(path)

	key, err := fs.reg.Acquire(ctx, full)
	if err != nil {
		return opError(OpDelete, path, "", err)
	}
	defer fs.reg.Release(key)

	if err := os.Remove(full); err != nil {
		return fs.fail(OpDelete, path, "", normalize(err))
	}
	return nil
}

// Copy duplicates the file at src to dst, creating parent directories and
// overwriting any existing destination.
//
// Both path locks are held for the duration. They are acquired in lexical
// order of the canonical paths, a single fixed global ordering, so
// concurrent Copy(a, b) and Copy(b, a) cannot deadlock.
func (fs *FS) Copy(ctx context.Context, src, dst string, options ...Option) error {
	opts := processOptions(options...)
	release, err := fs.acquirePair(ctx, src, dst, OpCopy)
	if err != nil {
		return err
	}
	defer release()

	srcFull, dstFull := fs.resolve(src), fs.resolve(dst)
	if srcFull == dstFull {
		// Opening the destination with O_TRUNC would destroy the source.
		return nil
	}
	if err := fs.copyLocked(srcFull, dstFull, opts); err != nil {
		return fs.fail(OpCopy, src, dst, normalize(err))
	}
	return nil
}

// Move renames src to dst, falling back to copy-plus-delete when the two
// paths are on different filesystems. Lock ordering matches Copy.
func (fs *FS) Move(ctx context.Context, src, dst string, options ...Option) error {
	opts := processOptions(options...)
	release, err := fs.acquirePair(ctx, src, dst, OpMove)
	if err != nil {
		return err
	}
	defer release()

	srcFull, dstFull := fs.resolve(src), fs.resolve(dst)

	dirMode := fs.dirMode
	if opts.DirMode != 0 {
		dirMode = opts.DirMode
	}
	if err := os.MkdirAll(filepath.Dir(dstFull), dirMode); err != nil {
		return fs.fail(OpMove, src, dst, normalize(err))
	}
	if err := os.Rename(srcFull, dstFull); err == nil {
		return nil
	} else if os.IsNotExist(err) {
		return fs.fail(OpMove, src, dst, ErrNotExist)
	}

	// Cross-device rename; both locks are already held, so use the
	// unlocked internals rather than Copy/Delete.
	if err := fs.copyLocked(srcFull, dstFull, opts); err != nil {
		return fs.fail(OpMove, src, dst, normalize(err))
	}
	if err := os.Remove(srcFull); err != nil {
		return fs.fail(OpMove, src, dst, normalize(err))
	}
	return nil
}

// acquirePair takes the locks for both paths in lexical canonical order
// and returns a function releasing both. A pair canonicalizing to one
// path is locked once.
func (fs *FS) acquirePair(ctx context.Context, src, dst string, op Op) (func(), error) {
	srcKey := fs.resolve(src)
	dstKey := fs.resolve(dst)

	first, second := srcKey, dstKey
	if second < first {
		first, second = second, first
	}

	if _, err := fs.reg.Acquire(ctx, first); err != nil {
		return nil, opError(op, src, dst, err)
	}
	if first == second {
		return func() { fs.reg.Release(first) }, nil
	}
	if _, err := fs.reg.Acquire(ctx, second); err != nil {
		fs.reg.Release(first)
		return nil, opError(op, src, dst, err)
	}
	return func() {
		fs.reg.Release(second)
		fs.reg.Release(first)
	}, nil
}

// copyLocked copies file contents and permission bits. Caller holds both
// path locks.
func (fs *FS) copyLocked(srcFull, dstFull string, opts *Options) error {
	srcFile, err := os.Open(srcFull)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}
	if srcInfo.IsDir() {
		return ErrIsDir
	}

	dirMode := fs.dirMode
	if opts.DirMode != 0 {
		dirMode = opts.DirMode
	}
	if err := os.MkdirAll(filepath.Dir(dstFull), dirMode); err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dstFull, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}
	if opts.Sync {
		if err := dstFile.Sync(); err != nil {
			dstFile.Close()
			return err
		}
	}
	return dstFile.Close()
}

// checkSize enforces the configured payload ceiling.
func (fs *FS) checkSize(n int64) error {
	if fs.cfg.MaxFileSize > 0 && n > fs.cfg.MaxFileSize {
		return fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, n, fs.cfg.MaxFileSize)
	}
	return nil
}

// fail wraps err with the operation tag and reports it to the logger.
func (fs *FS) fail(op Op, path, dst string, err error) error {
	werr := opError(op, path, dst, err)
	fs.log.Warn("file operation failed",
		"op", string(op), "path", path, "error", err.Error())
	return werr
}

// normalize maps well-known os errors onto the package sentinels so
// callers can use errors.Is without importing io/fs.
func normalize(err error) error {
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("%w: %v", ErrNotExist, err)
	default:
		return err
	}
}

// detectContentType sniffs the content type of the file at full, first by
// extension, then by reading the leading bytes. Returns "" when the file
// cannot be read.
func detectContentType(full string) string {
	if ext := filepath.Ext(full); ext != "" {
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
	}

	f, err := os.Open(full)
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return ""
	}
	return http.DetectContentType(buf[:n])
}
