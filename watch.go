package safefs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// Watch returns a ChangeToken that fires when a file matching pattern is
// created, modified, renamed, or removed under the FS root. The pattern is
// a glob relative to the root; "**" crosses directory boundaries
// ("logs/**/*.json").
//
// Like Exists, Watch bypasses the lock table: it is a probe, not an
// exclusive operation, and does not observe the ordering guarantees of the
// locked operations. The watcher goroutine exits when the token fires or
// ctx is canceled.
func (fs *FS) Watch(ctx context.Context, pattern string) (ChangeToken, error) {
	matcher, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, opError(OpWatch, pattern, "", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, opError(OpWatch, pattern, "", err)
	}

	// Watch the deepest literal directory prefix of the pattern.
	watchRoot := filepath.Join(fs.root, literalPrefix(pattern))
	if info, err := os.Stat(watchRoot); err != nil || !info.IsDir() {
		watchRoot = fs.root
	}
	if err := watcher.Add(watchRoot); err != nil {
		watcher.Close()
		return nil, opError(OpWatch, pattern, "", err)
	}

	// Recursive patterns need every existing subdirectory registered;
	// fsnotify does not descend on its own.
	if strings.Contains(pattern, "**") {
		filepath.Walk(watchRoot, func(p string, info os.FileInfo, err error) error {
			if err == nil && info.IsDir() {
				watcher.Add(p)
			}
			return nil
		})
	}

	token := NewCallbackChangeToken()

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				rel, err := filepath.Rel(fs.root, ev.Name)
				if err != nil {
					continue
				}
				rel = filepath.ToSlash(rel)
				if matcher.Match(rel) {
					token.Signal()
					return // single-use token
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return token, nil
}

// literalPrefix returns the directory part of pattern before the first
// glob metacharacter.
func literalPrefix(pattern string) string {
	idx := strings.IndexAny(pattern, "*?[{")
	if idx < 0 {
		return filepath.Dir(pattern)
	}
	if slash := strings.LastIndex(pattern[:idx], "/"); slash >= 0 {
		return pattern[:slash]
	}
	return "."
}
