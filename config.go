package safefs

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gobeaver/beaver-kit/config"
)

type Config struct {
	// Root directory for relative paths handed to operations
	RootPath string `env:"SAFEFS_ROOT_PATH,default:./storage"`

	// Log file appended to by the Logger collaborator
	LogPath string `env:"SAFEFS_LOG_PATH,default:./logs/safefs.log"`

	// Directory holding per-profile payloads
	ProfilePath string `env:"SAFEFS_PROFILE_PATH,default:./profiles"`

	// Minimum level for the Logger (DEBUG, INFO, WARN, ERROR)
	LogLevel string `env:"SAFEFS_LOG_LEVEL,default:INFO"`

	// Octal permission bits for created files and directories
	FileMode string `env:"SAFEFS_FILE_MODE,default:0644"`
	DirMode  string `env:"SAFEFS_DIR_MODE,default:0755"`

	// Indent string used by WriteJSON when no option overrides it
	JSONIndent string `env:"SAFEFS_JSON_INDENT,default:  "`

	// Payloads larger than this are rejected by Write/Append.
	// Zero disables the check.
	MaxFileSize int64 `env:"SAFEFS_MAX_FILE_SIZE,default:10485760"` // 10MB default

	// Sniff content types during Stat
	DetectContentType bool `env:"SAFEFS_DETECT_CONTENT_TYPE,default:true"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the built-in defaults without touching the
// environment. Useful for tests and embedded callers.
func DefaultConfig() *Config {
	return &Config{
		RootPath:          "./storage",
		LogPath:           "./logs/safefs.log",
		ProfilePath:       "./profiles",
		LogLevel:          "INFO",
		FileMode:          "0644",
		DirMode:           "0755",
		JSONIndent:        "  ",
		MaxFileSize:       10485760,
		DetectContentType: true,
	}
}

func validateConfig(cfg *Config) error {
	if cfg.RootPath == "" {
		return fmt.Errorf("root path must not be empty")
	}
	if _, err := parseMode(cfg.FileMode, 0o644); err != nil {
		return fmt.Errorf("invalid file mode %q: %w", cfg.FileMode, err)
	}
	if _, err := parseMode(cfg.DirMode, 0o755); err != nil {
		return fmt.Errorf("invalid dir mode %q: %w", cfg.DirMode, err)
	}
	if cfg.MaxFileSize < 0 {
		return fmt.Errorf("max file size must not be negative")
	}
	return nil
}

// parseMode converts an octal string like "0644" to an os.FileMode,
// falling back to def when the string is empty.
func parseMode(s string, def os.FileMode) (os.FileMode, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, err
	}
	return os.FileMode(n), nil
}
