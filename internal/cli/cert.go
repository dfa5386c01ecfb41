package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/simplemotion/m365-mcp/internal/certs"
)

var certCommonName string

var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Manage certificate-based authentication material",
}

var certGenerateCmd = &cobra.Command{
	Use:   "generate [profile]",
	Short: "Generate a self-signed certificate for app authentication",
	Long: `Generate a 2048-bit RSA certificate valid for two years. The private key
and thumbprint go to the secret store; the public certificate is written to
disk for upload to the app registration in the Azure portal.

Certificate credentials take priority over a client secret once present.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCertGenerate,
}

var certRemoveCmd = &cobra.Command{
	Use:   "remove [profile]",
	Short: "Remove a profile's certificate material",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCertRemove,
}

func init() {
	certGenerateCmd.Flags().StringVar(&certCommonName, "cn", "", "certificate common name (default m365-mcp-<profile>)")
	certCmd.AddCommand(certGenerateCmd)
	certCmd.AddCommand(certRemoveCmd)
	rootCmd.AddCommand(certCmd)
}

func certsDir() string {
	return filepath.Join(configDir, "certs")
}

func runCertGenerate(cmd *cobra.Command, args []string) error {
	code, err := profileArg(args)
	if err != nil {
		return err
	}

	cert, err := certs.Generate(secretStore, certsDir(), code, certCommonName)
	if err != nil {
		return err
	}

	cmd.Printf("%s generated certificate for profile %s\n", okStyle.Render("✓"), code)
	cmd.Printf("  thumbprint: %s\n", cert.Thumbprint)
	cmd.Printf("  expires:    %s\n", cert.NotAfter.Format("2006-01-02"))
	cmd.Printf("  upload %s to the app registration\n", cert.CerPath)
	return nil
}

func runCertRemove(cmd *cobra.Command, args []string) error {
	code, err := profileArg(args)
	if err != nil {
		return err
	}
	if err := certs.Remove(secretStore, certsDir(), code); err != nil {
		return err
	}
	cmd.Printf("removed certificate material for profile %s\n", code)
	return nil
}
