package cli

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/m-mizutani/chronicle/pkg/repository"
	"github.com/m-mizutani/chronicle/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// config holds configuration values
type config struct {
	// Store location
	cursorDir    string
	workspaceDir string
	globalDB     string

	configFile string
	logLevel   string

	file *fileConfig
}

// fileConfig is the optional YAML config file. Command line flags take
// precedence over it.
type fileConfig struct {
	CursorDir    string `yaml:"cursor_dir"`
	WorkspaceDir string `yaml:"workspace_dir"`
	GlobalDB     string `yaml:"global_db"`
	LogLevel     string `yaml:"log_level"`

	Search struct {
		Limit         int  `yaml:"limit"`
		CaseSensitive bool `yaml:"case_sensitive"`
	} `yaml:"search"`

	Context struct {
		Radius int `yaml:"radius"`
	} `yaml:"context"`
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "cursor-dir",
			Usage:       "Cursor user data directory (default depends on OS)",
			Sources:     cli.EnvVars("CHRONICLE_CURSOR_DIR"),
			Destination: &cfg.cursorDir,
		},
		&cli.StringFlag{
			Name:        "workspace-dir",
			Usage:       "Workspace storage directory (default: <cursor-dir>/workspaceStorage)",
			Sources:     cli.EnvVars("CHRONICLE_WORKSPACE_DIR"),
			Destination: &cfg.workspaceDir,
		},
		&cli.StringFlag{
			Name:        "global-db",
			Usage:       "Global state database (default: <cursor-dir>/globalStorage/state.vscdb)",
			Sources:     cli.EnvVars("CHRONICLE_GLOBAL_DB"),
			Destination: &cfg.globalDB,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to YAML config file",
			Sources:     cli.EnvVars("CHRONICLE_CONFIG"),
			Destination: &cfg.configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Sources:     cli.EnvVars("CHRONICLE_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// loadFileConfig reads a YAML config file. An empty path yields an empty config.
func loadFileConfig(path string) (*fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return &fc, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("file", path))
	}
	if err := yaml.Unmarshal(content, &fc); err != nil {
		return nil, goerr.Wrap(err, "failed to parse YAML config", goerr.V("file", path))
	}
	return &fc, nil
}

// setup loads the config file, merges it under the flags and installs the
// logger on ctx
func (cfg *config) setup(ctx context.Context, c *cli.Command) (context.Context, error) {
	fc, err := loadFileConfig(cfg.configFile)
	if err != nil {
		return ctx, err
	}
	cfg.file = fc

	if cfg.cursorDir == "" {
		cfg.cursorDir = fc.CursorDir
	}
	if cfg.workspaceDir == "" {
		cfg.workspaceDir = fc.WorkspaceDir
	}
	if cfg.globalDB == "" {
		cfg.globalDB = fc.GlobalDB
	}
	if cfg.logLevel == "" {
		cfg.logLevel = fc.LogLevel
	}

	logger := logging.New(cfg.logLevel, c.Root().ErrWriter)
	logging.SetDefault(logger)
	return logging.With(ctx, logger), nil
}

// repositoryConfig resolves store paths. Explicit paths win over the ones
// derived from the cursor dir.
func (cfg *config) repositoryConfig() (repository.Config, error) {
	base := cfg.cursorDir
	if base == "" && (cfg.workspaceDir == "" || cfg.globalDB == "") {
		dir, err := defaultCursorDir()
		if err != nil {
			return repository.Config{}, err
		}
		base = dir
	}

	rc := repository.Config{
		WorkspaceDir: cfg.workspaceDir,
		GlobalDB:     cfg.globalDB,
	}
	if rc.WorkspaceDir == "" {
		rc.WorkspaceDir = filepath.Join(base, "workspaceStorage")
	}
	if rc.GlobalDB == "" {
		rc.GlobalDB = filepath.Join(base, "globalStorage", "state.vscdb")
	}
	return rc, nil
}

// newRepository creates a new repository instance
func (cfg *config) newRepository() (repository.Repository, error) {
	rc, err := cfg.repositoryConfig()
	if err != nil {
		return nil, err
	}
	return repository.NewSQLite(rc), nil
}

func defaultCursorDir() (string, error) {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Cursor", "User"), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", goerr.Wrap(err, "failed to find home directory, set --cursor-dir")
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Cursor", "User"), nil
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "Cursor", "User"), nil
	default:
		return filepath.Join(home, ".config", "Cursor", "User"), nil
	}
}
