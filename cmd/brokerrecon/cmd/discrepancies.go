package cmd

import (
	"broker-reconciliation-service/cmd/brokerrecon/config"
	"broker-reconciliation-service/internal/matcher"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	discStartDate       string
	discEndDate         string
	discFormat          string
	discOutput          string
	discTimeTolerance   float64
	discAmountTolerance float64
)

var discrepanciesCmd = &cobra.Command{
	Use:   "discrepancies",
	Short: "Compare CRM deposits against payment gateway deposits",
	Long: `Discrepancies pairs the stored CRM deposits against the stored
payment gateway deposits and lists the unmatched entries of both
ledgers. Matched pairs must agree on account text, lie within the time
window, and differ by at most the amount tolerance.

Each discrepancy row carries the persisted row id, which the confirm
command accepts to resolve the discrepancy.

Examples:
  brokerrecon discrepancies
  brokerrecon discrepancies --start-date 2024-01-01 --end-date 2024-01-31
  brokerrecon discrepancies --time-tolerance 2 --amount-tolerance 0.5`,
	RunE:         runDiscrepancies,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(discrepanciesCmd)

	discrepanciesCmd.Flags().StringVar(&discStartDate, "start-date", "", "filter start date (YYYY-MM-DD)")
	discrepanciesCmd.Flags().StringVar(&discEndDate, "end-date", "", "filter end date (YYYY-MM-DD)")
	discrepanciesCmd.Flags().StringVarP(&discFormat, "output-format", "f", "console", "output format: console, csv")
	discrepanciesCmd.Flags().StringVarP(&discOutput, "output-file", "o", "", "output file path (default: stdout)")
	discrepanciesCmd.Flags().Float64Var(&discTimeTolerance, "time-tolerance", 0, "matching time window in hours (default 3.5)")
	discrepanciesCmd.Flags().Float64Var(&discAmountTolerance, "amount-tolerance", 0, "matching amount tolerance (default 1)")
}

func runDiscrepancies(cmd *cobra.Command, args []string) error {
	r, err := config.ParseDateRange(discStartDate, discEndDate)
	if err != nil {
		return err
	}

	s, err := config.OpenStore(viper.GetString("database-dsn"))
	if err != nil {
		return err
	}

	service, err := matcher.NewService(s, config.CreateMatcherConfig(discTimeTolerance, discAmountTolerance))
	if err != nil {
		return err
	}

	discrepancies, err := service.CompareCRMAndGatewayDeposits(cmd.Context(), r)
	if err != nil {
		return err
	}

	rep, err := config.CreateReporter(discFormat)
	if err != nil {
		return err
	}

	out, cleanup, err := openOutput(discOutput)
	if err != nil {
		return err
	}
	defer cleanup()

	return rep.WriteDiscrepancies(out, discrepancies)
}
