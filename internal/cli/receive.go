package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/emberwallet/ember/internal/output"
	emberr "github.com/emberwallet/ember/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// receiveNoQR suppresses the terminal QR code.
	receiveNoQR bool
)

// receiveCmd is the parent command for receiving funds.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Receive funds",
	Long:  `Show or register receiving endpoints: a Lightning address or an on-chain Bitcoin address.`,
}

// receiveLightningCmd shows or registers the Lightning address.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var receiveLightningCmd = &cobra.Command{
	Use:   "lightning [alias]",
	Short: "Show or register your Lightning address",
	Long: `Show the wallet's Lightning address, or register one by passing an
alias. Aliases are lowercased and stripped to letters and digits; they
must be at least 3 characters after cleanup.

If the alias is taken you get four alternative suggestions.

Examples:
  ember receive lightning
  ember receive lightning satoshi`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReceiveLightning,
}

// receiveBitcoinCmd shows an on-chain receive address.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var receiveBitcoinCmd = &cobra.Command{
	Use:   "bitcoin",
	Short: "Show an on-chain Bitcoin address",
	Long: `Show an on-chain Bitcoin receive address. The address is generated
once per session and reused on repeat calls.

Example:
  ember receive bitcoin`,
	Args: cobra.NoArgs,
	RunE: runReceiveBitcoin,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(receiveCmd)
	receiveCmd.AddCommand(receiveLightningCmd)
	receiveCmd.AddCommand(receiveBitcoinCmd)

	receiveCmd.PersistentFlags().BoolVar(&receiveNoQR, "no-qr", false, "do not render a QR code")
}

// receiveResponse is the JSON shape for receive endpoints.
type receiveResponse struct {
	Address     string   `json:"address"`
	Kind        string   `json:"kind"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func runReceiveLightning(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	w := cmd.OutOrStdout()

	if err := openSession(cmd, cc); err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, 30*time.Second)
	defer cancel()

	if len(args) == 0 {
		address, err := cc.Provisioner.LightningAddress(ctx)
		if err != nil {
			return err
		}
		if address == "" {
			outln(w, "No Lightning address registered yet.")
			outln(w, "Run 'ember receive lightning <alias>' to claim one.")
			return nil
		}
		return renderReceiveEndpoint(cmd, cc, address, "lightning")
	}

	reg, err := cc.Provisioner.RegisterAlias(ctx, args[0])
	if err != nil {
		if emberr.Is(err, emberr.ErrAliasTaken) && len(reg.Suggestions) > 0 {
			outln(w, "That alias is taken. Available alternatives:")
			for _, s := range reg.Suggestions {
				out(w, "  %s\n", s)
			}
		}
		return err
	}

	out(w, "Registered %s\n", reg.Alias)
	return renderReceiveEndpoint(cmd, cc, reg.Alias, "lightning")
}

func runReceiveBitcoin(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	if err := openSession(cmd, cc); err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, 30*time.Second)
	defer cancel()

	address, err := cc.Provisioner.OnchainAddress(ctx)
	if err != nil {
		return err
	}

	return renderReceiveEndpoint(cmd, cc, address, "bitcoin")
}

// renderReceiveEndpoint prints the address, with a QR code when the
// output is an interactive terminal.
func renderReceiveEndpoint(cmd *cobra.Command, cc *CommandContext, address, kind string) error {
	w := cmd.OutOrStdout()

	if cc.Fmt.IsJSON() {
		return writeJSON(w, receiveResponse{Address: address, Kind: kind})
	}

	outln(w, address)

	if !receiveNoQR && output.CanRenderQR(w) {
		outln(w)
		if err := output.RenderQR(w, address, output.DefaultQRConfig()); err != nil {
			cc.Log.Warn("rendering QR code: %v", err)
		}
	}

	return nil
}
