package cmd

import (
	"fmt"
	"os"

	"broker-reconciliation-service/cmd/brokerrecon/config"
	"broker-reconciliation-service/internal/report"
	"broker-reconciliation-service/internal/tabular"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	dealsFile     string
	exclusionFile string
	vipFile       string
	outputFormat  string
	outputFile    string
	startDate     string
	endDate       string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the trading report from a deals export",
	Long: `Report splits the deals export into A, B, and Multi books,
aggregates per account, computes the segment tables, and derives the
final calculations. The exclusion and VIP lists are headerless files
with one account identifier per line.

Examples:
  brokerrecon report --deals deals.csv
  brokerrecon report --deals deals.csv --exclusion excluded.txt --vip vip.txt
  brokerrecon report --deals deals.xlsx --start-date 2024-01-01 --end-date 2024-01-31 -f csv`,
	PreRunE:      validateReportFlags,
	RunE:         runReport,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&dealsFile, "deals", "d", "", "path to the deals export (required)")
	reportCmd.Flags().StringVarP(&exclusionFile, "exclusion", "e", "", "path to the exclusion list")
	reportCmd.Flags().StringVar(&vipFile, "vip", "", "path to the VIP list")
	reportCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, csv")
	reportCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	reportCmd.Flags().StringVar(&startDate, "start-date", "", "filter start date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&endDate, "end-date", "", "filter end date (YYYY-MM-DD)")

	viper.BindPFlag("deals", reportCmd.Flags().Lookup("deals"))
	viper.BindPFlag("output-format", reportCmd.Flags().Lookup("output-format"))
}

func validateReportFlags(cmd *cobra.Command, args []string) error {
	if dealsFile == "" {
		return fmt.Errorf("deals file is required")
	}
	if _, err := os.Stat(dealsFile); err != nil {
		return fmt.Errorf("deals file is not accessible: %w", err)
	}
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	opts := report.Options{}
	if startDate != "" || endDate != "" {
		r, err := config.ParseDateRange(startDate, endDate)
		if err != nil {
			return err
		}
		opts.StartDate = r.Start
		opts.EndDate = r.End
	}

	deals := tabular.ReadFile(dealsFile)
	var exclusion, vip []string
	if exclusionFile != "" {
		exclusion = tabular.ReadColumnList(exclusionFile)
	}
	if vipFile != "" {
		vip = tabular.ReadColumnList(vipFile)
	}

	result, err := report.Run(deals, exclusion, vip, opts)
	if err != nil {
		return err
	}

	r, err := config.CreateReporter(outputFormat)
	if err != nil {
		return err
	}

	out, cleanup, err := openOutput(outputFile)
	if err != nil {
		return err
	}
	defer cleanup()

	return r.WriteTradeReport(out, result)
}

// openOutput returns the output stream for a command, stdout when no
// file was requested.
func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
