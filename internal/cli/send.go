package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/emberwallet/ember/internal/output"
	"github.com/emberwallet/ember/internal/sendflow"
	emberr "github.com/emberwallet/ember/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// sendAmount is the payment amount in satoshis.
	sendAmount int64
	// sendYes skips the fee confirmation prompt.
	sendYes bool
)

// sendCmd sends a payment.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sendCmd = &cobra.Command{
	Use:   "send [destination]",
	Short: "Send a payment",
	Long: `Send a payment to a Lightning invoice, Lightning address, LNURL,
Spark address, or Bitcoin address. The destination type is detected
automatically.

Fees are quoted before anything moves; nothing is sent until you confirm.
Invoices that embed their own amount skip the amount prompt.

Examples:
  ember send lnbc500u1...
  ember send satoshi@emberwallet.dev --amount 21000
  ember send bc1qxy2k... --amount 50000 --yes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSend,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().Int64VarP(&sendAmount, "amount", "a", 0, "amount in satoshis (ignored when the invoice embeds one)")
	sendCmd.Flags().BoolVarP(&sendYes, "yes", "y", false, "skip the confirmation prompt")
}

// sendResponse is the JSON shape for a completed send.
type sendResponse struct {
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
	AmountSat int64  `json:"amountSat"`
	FeeSat    int64  `json:"feeSat"`
}

//nolint:gocognit // interactive flow walks every step of the state machine
func runSend(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	w := cmd.OutOrStdout()

	if err := openSession(cmd, cc); err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, 2*time.Minute)
	defer cancel()

	flow := sendflow.New(cc.Session)
	defer flow.Close()

	// Destination
	raw := ""
	if len(args) == 1 {
		raw = args[0]
	} else {
		line, err := promptLineFn("Destination: ")
		if err != nil {
			return err
		}
		raw = line
	}

	if err := flow.SetDestination(ctx, raw); err != nil {
		return err
	}

	dest := flow.Destination()
	out(w, "Sending to %s (%s)\n", dest.Truncated(), dest.Label())

	// Amount, unless the invoice embeds one
	if flow.Step() == sendflow.StepAmount {
		sats := sendAmount
		if sats == 0 {
			entered, err := promptAmountSats()
			if err != nil {
				return err
			}
			sats = entered
		}
		if err := flow.SetAmount(ctx, sats); err != nil {
			return err
		}
	} else if dest.HasAmount() {
		out(w, "Invoice amount: %s\n", output.FormatSats(dest.AmountSats()))
	}

	// Confirmation
	prepared, ok := flow.Prepared()
	if !ok {
		return emberr.Wrap(emberr.ErrFlowState, "payment was not prepared")
	}

	outln(w)
	out(w, "  Amount: %s\n", output.FormatSats(prepared.AmountSat))
	out(w, "  Fee:    %s\n", output.FormatSats(prepared.FeeSat))
	out(w, "  Total:  %s\n", output.FormatSats(prepared.TotalSat()))
	outln(w)

	if !sendYes && !promptConfirm("Send this payment?") {
		outln(w, "Canceled. Nothing was sent.")
		return nil
	}

	// Execution
	if err := flow.Execute(ctx); err != nil {
		return err
	}

	result, ok := flow.Result()
	if !ok || result.Err != nil {
		return emberr.Wrap(emberr.ErrSendFailed, "payment did not complete")
	}

	if cc.Fmt.IsJSON() {
		return writeJSON(w, sendResponse{
			PaymentID: result.Outcome.PaymentID,
			Status:    result.Outcome.Status,
			AmountSat: prepared.AmountSat,
			FeeSat:    prepared.FeeSat,
		})
	}

	out(w, "Payment sent: %s (%s)\n", result.Outcome.PaymentID, result.Outcome.Status)
	return nil
}
