package cmd

import (
	"context"
	"fmt"

	"broker-reconciliation-service/cmd/brokerrecon/config"
	"broker-reconciliation-service/internal/ingest"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load broker export files into the persisted ledgers",
	Long: `Ingest loads a CRM, payment gateway, or account list export into
the persisted ledgers. Rows already stored (by transaction or request
id) are skipped, so re-ingesting a file adds nothing.`,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.AddCommand(
		ingestFileCmd("rebates", "IB rebate export",
			func(ctx context.Context, p *ingest.Processor, path string) (int, error) {
				return p.Rebates(ctx, path)
			}),
		ingestFileCmd("crm-withdrawals", "CRM withdrawal export",
			func(ctx context.Context, p *ingest.Processor, path string) (int, error) {
				return p.CRMWithdrawals(ctx, path)
			}),
		ingestFileCmd("crm-deposits", "CRM deposit export",
			func(ctx context.Context, p *ingest.Processor, path string) (int, error) {
				return p.CRMDeposits(ctx, path)
			}),
		ingestFileCmd("payments", "payment gateway export",
			func(ctx context.Context, p *ingest.Processor, path string) (int, error) {
				return p.Payments(ctx, path)
			}),
		ingestAccountsCmd(),
	)
}

func ingestFileCmd(name, description string, run func(context.Context, *ingest.Processor, string) (int, error)) *cobra.Command {
	return &cobra.Command{
		Use:          name + " <file>",
		Short:        "Ingest a " + description,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.OpenStore(viper.GetString("database-dsn"))
			if err != nil {
				return err
			}

			added, err := run(cmd.Context(), ingest.NewProcessor(s), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%d rows added\n", added)
			return nil
		},
	}
}

func ingestAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "accounts <file>",
		Short:        "Ingest an account list export, replacing the stored list",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.OpenStore(viper.GetString("database-dsn"))
			if err != nil {
				return err
			}

			accounts, welcome, err := ingest.NewProcessor(s).Accounts(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%d accounts loaded, %d flagged as welcome bonus\n", accounts, welcome)
			return nil
		},
	}
}
