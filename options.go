package safefs

import "os"

// Option represents a per-call configuration option
type Option func(*Options)

// Options contains all possible options for file operations
type Options struct {
	// FileMode overrides the configured permission bits for created files
	FileMode os.FileMode

	// DirMode overrides the configured permission bits for created directories
	DirMode os.FileMode

	// Indent overrides the configured JSON indent string. An empty string
	// with IndentSet produces compact output.
	Indent    string
	IndentSet bool

	// NoSniff disables content-type detection in Stat
	NoSniff bool

	// Sync flushes file contents to stable storage before returning
	Sync bool
}

// WithFileMode sets the permission bits for files created by the operation
func WithFileMode(mode os.FileMode) Option {
	return func(o *Options) {
		o.FileMode = mode
	}
}

// WithDirMode sets the permission bits for directories created by the operation
func WithDirMode(mode os.FileMode) Option {
	return func(o *Options) {
		o.DirMode = mode
	}
}

// WithIndent sets the JSON indent string for WriteJSON.
// Pass "" for compact output.
func WithIndent(indent string) Option {
	return func(o *Options) {
		o.Indent = indent
		o.IndentSet = true
	}
}

// WithNoSniff disables content-type detection during Stat
func WithNoSniff() Option {
	return func(o *Options) {
		o.NoSniff = true
	}
}

// WithSync makes Write/Append fsync before returning
func WithSync() Option {
	return func(o *Options) {
		o.Sync = true
	}
}

// processOptions processes the provided options
func processOptions(options ...Option) *Options {
	opts := &Options{}
	for _, option := range options {
		option(opts)
	}
	return opts
}
