package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/moasq/appcenter-postbuild/internal/config"
	"github.com/moasq/appcenter-postbuild/internal/patch"
	"github.com/moasq/appcenter-postbuild/internal/platform"
	"github.com/moasq/appcenter-postbuild/internal/secrets"
	"github.com/moasq/appcenter-postbuild/internal/terminal"
	"github.com/moasq/appcenter-postbuild/internal/xcode"
)

// Options locates the Unity project and overrides settings values.
type Options struct {
	// ProjectDir is the Unity project root. Relative SDK paths and the
	// default settings file resolve against it.
	ProjectDir     string
	SettingsPath   string
	SDKRoot        string
	ToolchainPath  string
	RestoreTimeout time.Duration
	// SecretsDir holds the file-based secret store fallback.
	SecretsDir string
	NoKeychain bool
}

// Service coordinates post-build runs for the CLI, watch mode and the
// MCP server.
type Service struct {
	opts  Options
	store secrets.SecretStore
}

// New creates a service. The secret store is probed once here.
func New(opts Options) *Service {
	if opts.ProjectDir == "" {
		opts.ProjectDir = "."
	}
	if opts.SecretsDir == "" {
		opts.SecretsDir = DefaultSecretsDir()
	}
	var store secrets.SecretStore
	if opts.NoKeychain {
		store = secrets.NewFileStore(opts.SecretsDir)
	} else {
		store = secrets.New(opts.SecretsDir)
	}
	return &Service{opts: opts, store: store}
}

// NewWithStore creates a service using store for secrets.
func NewWithStore(opts Options, store secrets.SecretStore) *Service {
	if opts.ProjectDir == "" {
		opts.ProjectDir = "."
	}
	return &Service{opts: opts, store: store}
}

// DefaultSecretsDir is ~/.config/appcenter-postbuild (or the OS equivalent).
func DefaultSecretsDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = home
	}
	return filepath.Join(dir, "appcenter-postbuild")
}

// Secrets returns the secret store.
func (s *Service) Secrets() secrets.SecretStore {
	return s.store
}

// SettingsPath returns the settings file the service reads.
func (s *Service) SettingsPath() string {
	if s.opts.SettingsPath != "" {
		return s.opts.SettingsPath
	}
	return config.FindSettings(s.opts.ProjectDir)
}

// Settings loads the settings file with flag overrides applied.
func (s *Service) Settings() (*config.Settings, error) {
	settings, err := config.Load(s.SettingsPath(), s.opts.SettingsPath != "")
	if err != nil {
		return nil, err
	}
	if s.opts.SDKRoot != "" {
		settings.SDKRoot = s.opts.SDKRoot
	}
	if s.opts.ToolchainPath != "" {
		settings.ToolchainPath = s.opts.ToolchainPath
	}
	if s.opts.RestoreTimeout > 0 {
		settings.RestoreTimeoutSecs = int(s.opts.RestoreTimeout / time.Second)
	}
	if settings.SDKRoot != "" && !filepath.IsAbs(settings.SDKRoot) {
		settings.SDKRoot = filepath.Join(s.opts.ProjectDir, settings.SDKRoot)
	}
	return settings, nil
}

// Flags resolves the feature flag snapshot for one run.
func (s *Service) Flags() (config.FeatureFlags, error) {
	settings, err := s.Settings()
	if err != nil {
		return config.FeatureFlags{}, err
	}
	return settings.Flags(s.store), nil
}

// Run patches one build output. Only settings errors are returned;
// patch step outcomes go to log. Subprocess output is copied to out.
func (s *Service) Run(ctx context.Context, target, outputPath string, log terminal.Logger, out io.Writer) error {
	flags, err := s.Flags()
	if err != nil {
		return err
	}
	build, err := platform.NewBuildOutput(target, outputPath)
	if err != nil {
		return err
	}
	if build.Target == platform.TargetOther {
		log.Info(fmt.Sprintf("No post-build steps for target %q", target))
		return nil
	}
	if info, err := os.Stat(build.OutputPath); err != nil {
		return fmt.Errorf("output path %s: %w", build.OutputPath, err)
	} else if build.Target != platform.TargetAndroid && !info.IsDir() {
		return fmt.Errorf("output path %s is not a directory", build.OutputPath)
	}

	Orchestrator(log, flags, out).Run(ctx, build, flags)
	return nil
}

// Orchestrator wires the default strategies with the process runners
// and the Xcode editors.
func Orchestrator(log terminal.Logger, flags config.FeatureFlags, out io.Writer) *platform.Orchestrator {
	restore := &patch.ProcessRunner{
		Launcher: flags.RestoreLauncher,
		Stdout:   out,
		Stderr:   out,
	}
	// Hook commands are run as configured, never through the restore launcher.
	hooks := &patch.ProcessRunner{Stdout: out, Stderr: out}
	ios := platform.IOSCollaborators{
		OpenProject:      xcode.ProjectOpener,
		OpenPlist:        xcode.PlistOpener,
		OpenCapabilities: xcode.CapabilitiesOpener,
	}
	return platform.NewDefault(log, restore, hooks, ios, nil)
}
