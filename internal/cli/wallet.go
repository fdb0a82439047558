package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberwallet/ember/internal/engine"
	emberr "github.com/emberwallet/ember/pkg/errors"
)

// out is a helper for CLI output that ignores write errors (standard pattern for CLI tools).
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func out(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func outln(w io.Writer, args ...interface{}) {
	fmt.Fprintln(w, args...)
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// createWords is the number of words for phrase generation.
	createWords int
	// importInput is the recovery phrase for wallet import.
	importInput string
	// logoutForget deletes the encrypted wallet file on logout.
	logoutForget bool
	// statusCheck performs an engine connectivity round-trip.
	statusCheck bool
)

// walletCmd is the parent command for wallet operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the wallet",
	Long:  `Create, import, inspect, and log out of the wallet.`,
}

// walletCreateCmd creates a new wallet.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new wallet",
	Long: `Create a new wallet with a BIP39 recovery phrase.

The phrase starts masked. You will be walked through a backup ceremony:
reveal the words, then prove you wrote them down by answering spot checks
on four random positions. The wallet is only saved after verification.

Example:
  ember wallet create
  ember wallet create --words 24`,
	Args: cobra.NoArgs,
	RunE: runWalletCreate,
}

// walletImportCmd restores a wallet from an existing recovery phrase.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a wallet from a recovery phrase",
	Long: `Import a wallet from an existing BIP39 recovery phrase.

Pasted input is normalized: numbered lists, bullets, commas, and extra
whitespace are stripped. Likely typos are reported with the closest
wordlist match before the phrase is rejected.

Examples:
  ember wallet import --phrase "abandon abandon ... about"
  ember wallet import  # Interactive mode`,
	Args: cobra.NoArgs,
	RunE: runWalletImport,
}

// walletStatusCmd shows wallet status.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show wallet status",
	Long: `Show whether a wallet exists, its network, and its fingerprint.

With --check, the wallet is unlocked and a connection to the engine is
attempted to verify the session end to end.

Example:
  ember wallet status
  ember wallet status --check
  ember wallet status -o json`,
	Args: cobra.NoArgs,
	RunE: runWalletStatus,
}

// walletLogoutCmd disconnects from the engine.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Disconnect from the wallet engine",
	Long: `Disconnect from the wallet engine. Local session state is always
cleared, even when the engine cannot be reached.

With --forget, the encrypted wallet file is also deleted. The wallet can
only be recovered from its phrase afterward.

Example:
  ember wallet logout
  ember wallet logout --forget`,
	Args: cobra.NoArgs,
	RunE: runWalletLogout,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletCreateCmd)
	walletCmd.AddCommand(walletImportCmd)
	walletCmd.AddCommand(walletStatusCmd)
	walletCmd.AddCommand(walletLogoutCmd)

	walletCreateCmd.Flags().IntVar(&createWords, "words", 12, "number of phrase words: 12 or 24")
	walletImportCmd.Flags().StringVar(&importInput, "phrase", "", "recovery phrase (interactive prompt if omitted)")
	walletLogoutCmd.Flags().BoolVar(&logoutForget, "forget", false, "also delete the encrypted wallet file")
	walletStatusCmd.Flags().BoolVar(&statusCheck, "check", false, "verify engine connectivity")
}

// openSession decrypts the stored phrase and connects the session manager.
// The decrypted phrase never leaves this function.
func openSession(cmd *cobra.Command, cc *CommandContext) error {
	if !cc.Store.Exists() {
		return emberr.WithSuggestion(
			emberr.ErrWalletNotFound,
			"run 'ember wallet create' or 'ember wallet import' first",
		)
	}

	password, err := promptPasswordFn("Wallet password: ")
	if err != nil {
		return err
	}
	defer zeroBytes(password)

	mnemonic, err := cc.Store.Load(password)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, 30*time.Second)
	defer cancel()

	return cc.Session.Init(ctx, engine.Credentials{
		Mnemonic: mnemonic,
		APIKey:   cc.Cfg.GetEngineAPIKey(),
		Network:  cc.Cfg.Network,
	})
}

// walletStatusResponse is the JSON shape for wallet status.
type walletStatusResponse struct {
	Exists      bool   `json:"exists"`
	Network     string `json:"network,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	Path        string `json:"path,omitempty"`
	Connected   *bool  `json:"connected,omitempty"`
}

func runWalletStatus(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	w := cmd.OutOrStdout()

	resp := walletStatusResponse{Exists: cc.Store.Exists()}
	if resp.Exists {
		meta, err := cc.Store.Metadata()
		if err != nil {
			return err
		}
		resp.Network = meta.Network
		resp.Fingerprint = meta.Fingerprint
		resp.CreatedAt = meta.CreatedAt.Format(time.RFC3339)
		resp.Path = cc.Store.Path()

		if statusCheck {
			connected := openSession(cmd, cc) == nil
			resp.Connected = &connected
		}
	}

	if cc.Fmt.IsJSON() {
		return writeJSON(w, resp)
	}

	if !resp.Exists {
		outln(w, "No wallet found.")
		outln(w, "Run 'ember wallet create' or 'ember wallet import' to get started.")
		return nil
	}

	outln(w, "Wallet:")
	out(w, "  Network:     %s\n", resp.Network)
	out(w, "  Fingerprint: %s\n", resp.Fingerprint)
	out(w, "  Created:     %s\n", resp.CreatedAt)
	out(w, "  File:        %s\n", resp.Path)
	if resp.Connected != nil {
		state := "failed"
		if *resp.Connected {
			state = "ok"
		}
		out(w, "  Engine:      %s\n", state)
	}

	return nil
}

func runWalletLogout(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	w := cmd.OutOrStdout()

	ctx, cancel := contextWithTimeout(cmd, 15*time.Second)
	defer cancel()

	// Local state is cleared no matter what the engine says.
	_ = cc.Session.Disconnect(ctx)

	if logoutForget {
		if cc.Store.Exists() && !promptConfirm("Delete the encrypted wallet file? This cannot be undone.") {
			outln(w, "Wallet file kept.")
			return nil
		}
		if err := cc.Store.Clear(); err != nil {
			return err
		}
		outln(w, "Logged out and wallet file deleted.")
		return nil
	}

	outln(w, "Logged out.")
	return nil
}
