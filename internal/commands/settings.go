package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/moasq/appcenter-postbuild/internal/config"
	"github.com/moasq/appcenter-postbuild/internal/terminal"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the resolved feature flags",
	Long:  "Display the settings file in use and the feature flag snapshot a run would see, after .env, APPCENTER_* variables and command flags are applied.",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService()
		flags, err := svc.Flags()
		if err != nil {
			return err
		}

		mark := func(ok bool) string {
			if ok {
				return "yes"
			}
			return "no"
		}

		terminal.Header("App Center settings")
		terminal.Detail("File", svc.SettingsPath())
		terminal.Divider()
		terminal.Detail("Push", fmt.Sprintf("requested %s, installed %s", mark(flags.UsePush), mark(flags.PushAvailable)))
		terminal.Detail("Distribute", fmt.Sprintf("requested %s, installed %s", mark(flags.UseDistribute), mark(flags.DistributeAvailable)))
		terminal.Detail("iOS app secret", config.MaskSecret(flags.IOSAppSecret))
		terminal.Detail("Product", flags.ProductName)
		terminal.Detail("Tile short name", flags.TileShortName)
		terminal.Detail("Application ID", flags.ApplicationID)
		terminal.Detail("Scripting backend", string(flags.ScriptingBackend))
		terminal.Detail("UWP build type", string(flags.UIFramework))
		terminal.Detail("Export Android project", strconv.FormatBool(flags.ExportAndroidProject))
		terminal.Detail("SDK root", flags.SDKRoot)
		terminal.Detail("Toolchain", flags.ToolchainPath)
		terminal.Detail("Restore timeout", flags.RestoreTimeout.String())
		return nil
	},
}
