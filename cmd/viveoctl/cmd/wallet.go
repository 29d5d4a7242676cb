package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"viveo/internal/session"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Inspect and top up the credit wallet",
}

var walletBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the current credit balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		bal, err := client.Balance(cmd.Context())
		if err != nil {
			return err
		}
		p := message.NewPrinter(language.English)
		cmd.Println(p.Sprintf("Balance: %d credits", bal.Credits))
		if bal.Plan != "" {
			cmd.Printf("Plan:    %s\n", bal.Plan)
		}
		return nil
	},
}

var (
	ledgerLimit  int
	ledgerOffset int
)

var walletLedgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show the credit ledger, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		wallet := session.NewWallet(session.WalletOptions{Backend: client})
		if _, err := wallet.Refresh(cmd.Context()); err != nil {
			return err
		}
		entries, total, err := wallet.LedgerPage(cmd.Context(), ledgerLimit, ledgerOffset)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			cmd.Println("The ledger is empty.")
			return nil
		}
		p := message.NewPrinter(language.English)
		for _, e := range entries {
			sign := ""
			if e.Amount > 0 {
				sign = "+"
			}
			cmd.Println(p.Sprintf("%s  %-18s %s%d  (balance %d)  %s",
				e.CreatedAt.Local().Format(time.RFC3339), e.Type, sign, e.Amount, e.BalanceAfter, e.Description))
		}
		cmd.Printf("\nShowing %d of %d entries (offset %d)\n", len(entries), total, ledgerOffset)

		if mismatch, err := wallet.Reconcile(cmd.Context()); err == nil && mismatch {
			balance, _ := wallet.Cached()
			cmd.Println(p.Sprintf("Note: balance was stale and has been re-synced to %d credits", balance))
		}
		return nil
	},
}

var (
	addAmount    int
	addPaymentID string
)

var walletAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add credits to the wallet",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		res, err := client.AddCredits(cmd.Context(), addAmount, addPaymentID)
		if err != nil {
			return err
		}
		p := message.NewPrinter(language.English)
		cmd.Println(p.Sprintf("Added %d credits; balance is now %d", res.Added, res.Credits))
		return nil
	},
}

func init() {
	walletLedgerCmd.Flags().IntVar(&ledgerLimit, "limit", 20, "number of entries per page")
	walletLedgerCmd.Flags().IntVar(&ledgerOffset, "offset", 0, "pagination offset")

	walletAddCmd.Flags().IntVar(&addAmount, "amount", 0, "number of credits to add (required)")
	walletAddCmd.Flags().StringVar(&addPaymentID, "payment-id", "", "external payment reference")
	_ = walletAddCmd.MarkFlagRequired("amount")

	walletCmd.AddCommand(walletBalanceCmd, walletLedgerCmd, walletAddCmd)
	rootCmd.AddCommand(walletCmd)
}
