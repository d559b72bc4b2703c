package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moasq/appcenter-postbuild/internal/config"
	"github.com/moasq/appcenter-postbuild/internal/secrets"
	"github.com/moasq/appcenter-postbuild/internal/terminal"
)

var (
	productFlag string
	revealFlag  bool
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage app secrets kept outside the settings file",
	Long:  "App secrets are stored in the OS keychain (or a 0600 file with --no-keychain) and used when the settings file leaves ios_app_secret empty.",
}

var secretSetCmd = &cobra.Command{
	Use:   "set <platform> <secret>",
	Short: "Store an app secret",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService()
		key, err := secretKey(args[0])
		if err != nil {
			return err
		}
		if err := svc.Secrets().Set(key, args[1]); err != nil {
			return fmt.Errorf("failed to store secret: %w", err)
		}
		terminal.Success(fmt.Sprintf("Stored %s", key))
		return nil
	},
}

var secretGetCmd = &cobra.Command{
	Use:   "get <platform>",
	Short: "Show a stored app secret (masked unless --reveal)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := secretKey(args[0])
		if err != nil {
			return err
		}
		val, err := newService().Secrets().Get(key)
		if errors.Is(err, secrets.ErrNotFound) {
			terminal.Info(fmt.Sprintf("No secret stored for %s", key))
			return nil
		}
		if err != nil {
			return err
		}
		if !revealFlag {
			val = config.MaskSecret(val)
		}
		terminal.Detail(key, val)
		return nil
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:   "delete <platform>",
	Short: "Remove a stored app secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := secretKey(args[0])
		if err != nil {
			return err
		}
		if err := newService().Secrets().Delete(key); err != nil {
			return err
		}
		terminal.Success(fmt.Sprintf("Deleted %s", key))
		return nil
	},
}

// secretKey resolves the product name from --product or the settings file.
func secretKey(platform string) (string, error) {
	if platform != "ios" {
		return "", fmt.Errorf("unsupported platform %q (only ios secrets are used)", platform)
	}
	product := productFlag
	if product == "" {
		settings, err := newService().Settings()
		if err != nil {
			return "", err
		}
		product = settings.ProductName
	}
	if product == "" {
		return "", fmt.Errorf("product name unknown: pass --product or set product_name in the settings file")
	}
	return secrets.SecretKey(platform, product, secrets.FieldAppSecret), nil
}

func init() {
	secretCmd.PersistentFlags().StringVar(&productFlag, "product", "", "product name the secret belongs to (default: product_name from settings)")
	secretGetCmd.Flags().BoolVar(&revealFlag, "reveal", false, "print the secret in clear")

	secretCmd.AddCommand(secretSetCmd)
	secretCmd.AddCommand(secretGetCmd)
	secretCmd.AddCommand(secretDeleteCmd)
}
