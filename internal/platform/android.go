package platform

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/moasq/appcenter-postbuild/internal/config"
	"github.com/moasq/appcenter-postbuild/internal/editors"
)

// Android delegates push setup to an external hook. Hook may be nil,
// in which case the command configured in FeatureFlags is used.
type Android struct {
	Hook   editors.AndroidHook
	Runner CommandRunner
}

// Apply runs the Android hook when push is enabled and the build
// produced an exported Gradle project.
func (a *Android) Apply(ctx context.Context, outputPath string, flags config.FeatureFlags, steps *Steps) {
	if !flags.PushEnabled() {
		return
	}
	if !flags.ExportAndroidProject {
		steps.Log().Warning("You need to export the Android project in order for Push to work.")
		return
	}
	if info, err := os.Stat(outputPath); err != nil || !info.IsDir() {
		steps.Log().Warning(fmt.Sprintf("Android output %s is not an exported project directory, skipping Push setup.", outputPath))
		return
	}

	hook := a.Hook
	if hook == nil {
		if flags.AndroidHookCommand == "" {
			steps.Log().Info("No Android post-build hook configured")
			return
		}
		hook = &CommandHook{Runner: a.Runner, Command: flags.AndroidHookCommand, Timeout: flags.RestoreTimeout}
	}

	steps.Do("Run Android post-build hook", func() error {
		return hook.OnPostBuild(ctx, outputPath)
	})
}

// CommandHook runs a configured command line with the project path
// appended as its last argument.
type CommandHook struct {
	Runner  CommandRunner
	Command string
	Timeout time.Duration
}

// OnPostBuild implements editors.AndroidHook.
func (h *CommandHook) OnPostBuild(ctx context.Context, projectPath string) error {
	fields := strings.Fields(h.Command)
	if len(fields) == 0 {
		return fmt.Errorf("empty android hook command")
	}
	if h.Runner == nil {
		return fmt.Errorf("android hook runner not configured")
	}
	args := append(fields[1:], projectPath)
	return h.Runner.Run(ctx, fields[0], args, h.Timeout)
}
