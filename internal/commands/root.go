package commands

import (
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:     "appcenter-postbuild",
	Short:   "Patch generated UWP, iOS and Android projects for the App Center SDK",
	Long:    "appcenter-postbuild runs after a Unity build and patches the generated native project in place: capabilities, push hooks, NuGet dependencies, Xcode build settings and entitlements. Every step is idempotent and a failing step never fails the build.",
	Version: Version,

	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Persistent flags shared by every command.
var (
	projectFlag    string
	settingsFlag   string
	sdkRootFlag    string
	toolchainFlag  string
	timeoutFlag    int
	secretsDirFlag string
	noKeychainFlag bool
	jsonFlag       bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&projectFlag, "project", "p", ".", "Unity project directory")
	pf.StringVar(&settingsFlag, "settings", "", "settings file (default: <project>/Assets/AppCenter/AppCenterSettings.yaml)")
	pf.StringVar(&sdkRootFlag, "sdk-root", "", "directory containing the AppCenter SDK assets (default: <project>/Assets)")
	pf.StringVar(&toolchainFlag, "toolchain", "", "host toolchain installation path, used to locate nuget.exe")
	pf.IntVar(&timeoutFlag, "timeout", 0, "restore timeout in seconds (default 600)")
	pf.StringVar(&secretsDirFlag, "secrets-dir", "", "directory for the file-based secret store")
	pf.BoolVar(&noKeychainFlag, "no-keychain", false, "store secrets in a file instead of the OS keychain")
	pf.BoolVar(&jsonFlag, "json", false, "emit JSON log lines")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(secretCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(mcpCmd)
}
