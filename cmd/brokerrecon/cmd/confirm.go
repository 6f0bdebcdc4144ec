package cmd

import (
	"fmt"

	"broker-reconciliation-service/cmd/brokerrecon/config"
	"broker-reconciliation-service/internal/matcher"
	"broker-reconciliation-service/internal/models"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	confirmSource string
	confirmRowID  string
)

var confirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Resolve a discrepancy by deleting the underlying ledger row",
	Long: `Confirm removes the ledger row behind a reported discrepancy, so
the next comparison no longer lists it. The source and row id come
from the discrepancies output.

Examples:
  brokerrecon confirm --source CRM --row-id 4f7c1f4e-...
  brokerrecon confirm --source M2p --row-id 92ab0c7d-...`,
	PreRunE:      validateConfirmFlags,
	RunE:         runConfirm,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(confirmCmd)

	confirmCmd.Flags().StringVar(&confirmSource, "source", "", "discrepancy source ledger: CRM or M2p (required)")
	confirmCmd.Flags().StringVar(&confirmRowID, "row-id", "", "persisted row id from the discrepancies output (required)")
}

func validateConfirmFlags(cmd *cobra.Command, args []string) error {
	if confirmSource == "" {
		return fmt.Errorf("source is required")
	}
	if confirmRowID == "" {
		return fmt.Errorf("row-id is required")
	}
	return nil
}

func runConfirm(cmd *cobra.Command, args []string) error {
	s, err := config.OpenStore(viper.GetString("database-dsn"))
	if err != nil {
		return err
	}

	service, err := matcher.NewService(s, nil)
	if err != nil {
		return err
	}

	err = service.Confirm(cmd.Context(), models.Discrepancy{
		Source: confirmSource,
		RowID:  confirmRowID,
	})
	if err != nil {
		return err
	}

	fmt.Println("discrepancy confirmed")
	return nil
}
