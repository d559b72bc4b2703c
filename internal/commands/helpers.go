package commands

import (
	"io"
	"os"
	"time"

	"github.com/moasq/appcenter-postbuild/internal/service"
	"github.com/moasq/appcenter-postbuild/internal/terminal"
)

// newService builds a service from the persistent flags.
func newService() *service.Service {
	return service.New(service.Options{
		ProjectDir:     projectFlag,
		SettingsPath:   settingsFlag,
		SDKRoot:        sdkRootFlag,
		ToolchainPath:  toolchainFlag,
		RestoreTimeout: time.Duration(timeoutFlag) * time.Second,
		SecretsDir:     secretsDirFlag,
		NoKeychain:     noKeychainFlag,
	})
}

// newLogger returns the log side channel selected by --json, and the
// writer subprocess output is copied to.
func newLogger(runID string) (terminal.Logger, io.Writer) {
	if jsonFlag {
		// Keep stdout machine-readable.
		return terminal.NewJSONLogger(os.Stdout, "run_id", runID), os.Stderr
	}
	return terminal.Stdout(), os.Stdout
}
