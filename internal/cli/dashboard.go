package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberwallet/ember/internal/engine"
	"github.com/emberwallet/ember/internal/output"
	"github.com/emberwallet/ember/internal/session"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// dashboardWatch keeps the dashboard running with periodic refreshes.
	dashboardWatch bool
	// dashboardInterval overrides the configured refresh interval.
	dashboardInterval int
)

// dashboardCmd shows the wallet dashboard.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show balance and recent payments",
	Long: `Show the wallet balance and recent payment activity.

When the engine is partially unreachable, whatever data could be fetched
is shown alongside a warning instead of failing the whole view.

Examples:
  ember dashboard
  ember dashboard --watch
  ember dashboard --watch --interval 10`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(dashboardCmd)

	dashboardCmd.Flags().BoolVarP(&dashboardWatch, "watch", "w", false, "refresh continuously until interrupted")
	dashboardCmd.Flags().IntVar(&dashboardInterval, "interval", 0, "refresh interval in seconds (default from config)")
}

// dashboardResponse is the JSON shape for a dashboard snapshot.
type dashboardResponse struct {
	BalanceSat        int64          `json:"balanceSat"`
	PendingReceiveSat int64          `json:"pendingReceiveSat"`
	PendingSendSat    int64          `json:"pendingSendSat"`
	Payments          []paymentEntry `json:"payments"`
	Taken             string         `json:"taken"`
	Warning           string         `json:"warning,omitempty"`
}

type paymentEntry struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Status      string `json:"status"`
	AmountSat   int64  `json:"amountSat"`
	FeeSat      int64  `json:"feeSat,omitempty"`
	Timestamp   string `json:"timestamp"`
	Description string `json:"description,omitempty"`
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	if err := openSession(cmd, cc); err != nil {
		return err
	}

	if dashboardWatch {
		return runDashboardWatch(cmd, cc)
	}

	ctx, cancel := contextWithTimeout(cmd, 30*time.Second)
	defer cancel()

	snap, err := cc.Session.Refresh(ctx, cc.Cfg.Payments.PageSize)
	if err != nil {
		return err
	}

	return renderSnapshot(cmd, cc, snap)
}

// runDashboardWatch keeps refreshing until the user interrupts.
func runDashboardWatch(cmd *cobra.Command, cc *CommandContext) error {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	ctx, stop := signal.NotifyContext(base, os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := time.Duration(cc.Cfg.Refresh.IntervalSeconds) * time.Second
	if dashboardInterval > 0 {
		interval = time.Duration(dashboardInterval) * time.Second
	}

	err := cc.Session.RunRefresher(ctx, interval, cc.Cfg.Payments.PageSize, func(snap session.Snapshot) {
		_ = renderSnapshot(cmd, cc, snap)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// renderSnapshot writes one dashboard view in the active output format.
func renderSnapshot(cmd *cobra.Command, cc *CommandContext, snap session.Snapshot) error {
	recent := snap.Payments
	if n := cc.Cfg.Payments.RecentCount; n > 0 && len(recent) > n {
		recent = recent[:n]
	}

	if cc.Fmt.IsJSON() {
		resp := dashboardResponse{
			BalanceSat:        snap.Info.BalanceSat,
			PendingReceiveSat: snap.Info.PendingReceiveSat,
			PendingSendSat:    snap.Info.PendingSendSat,
			Payments:          make([]paymentEntry, 0, len(recent)),
			Taken:             snap.Taken.Format(time.RFC3339),
			Warning:           snap.Warning,
		}
		for _, p := range recent {
			resp.Payments = append(resp.Payments, paymentEntry{
				ID:          p.ID,
				Kind:        string(p.Kind),
				Status:      p.Status,
				AmountSat:   p.AmountSat,
				FeeSat:      p.FeeSat,
				Timestamp:   p.Timestamp.Format(time.RFC3339),
				Description: p.Description,
			})
		}
		return writeJSON(cmd.OutOrStdout(), resp)
	}

	renderSnapshotText(cmd, snap, recent)
	return nil
}

func renderSnapshotText(cmd *cobra.Command, snap session.Snapshot, recent []engine.Payment) {
	w := cmd.OutOrStdout()

	outln(w)
	out(w, "Balance: %s\n", output.FormatSats(snap.Info.BalanceSat))
	if snap.Info.PendingReceiveSat > 0 {
		out(w, "  Incoming: %s\n", output.FormatSats(snap.Info.PendingReceiveSat))
	}
	if snap.Info.PendingSendSat > 0 {
		out(w, "  Outgoing: %s\n", output.FormatSats(snap.Info.PendingSendSat))
	}
	if snap.Warning != "" {
		out(w, "Warning: %s\n", snap.Warning)
	}

	if len(recent) == 0 {
		outln(w)
		outln(w, "No payments yet.")
		return
	}

	outln(w)
	outln(w, "Recent payments:")
	for _, p := range recent {
		sign := "+"
		if p.Kind == engine.PaymentSend {
			sign = "-"
		}
		label := p.Description
		if label == "" {
			label = p.ID
		}
		out(w, "  %s  %s%s  %-9s  %s\n",
			p.Timestamp.Local().Format("Jan 02 15:04"),
			sign, output.FormatSats(p.AmountSat),
			p.Status, label)
	}
}
