package commands

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/moasq/appcenter-postbuild/internal/terminal"
)

var runCmd = &cobra.Command{
	Use:   "run <target> <output-path>",
	Short: "Patch a completed build output",
	Long: `Patch the native project a build produced. target is uwp, ios or android;
any other target is accepted and ignored. Step failures are reported as
warnings or errors but never change the exit status.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := uuid.NewString()
		log, out := newLogger(runID)
		if !jsonFlag {
			terminal.Header("App Center post-build")
			terminal.Detail("Run", runID)
			terminal.Detail("Target", args[0])
			terminal.Detail("Output", args[1])
		}
		return newService().Run(cmd.Context(), args[0], args[1], log, out)
	},
}
