package report

import (
	"context"
	"strconv"

	"broker-reconciliation-service/internal/models"
	"broker-reconciliation-service/internal/store"
	"broker-reconciliation-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// topChangeFragment selects CRM deposits routed through the TopChange
// aggregator by payment method substring.
const topChangeFragment = "topchange"

// AdvancedSummary computes the persisted-ledger metrics over the
// optional date range. Store failures on individual metrics degrade
// to zero values so a partially unavailable store still yields a
// report.
func AdvancedSummary(ctx context.Context, s store.Store, r store.Range) ([]models.MetricRow, error) {
	log := logger.WithComponent("report")

	count := func(kind models.EntryKind) int64 {
		n, err := s.CountEntries(ctx, kind, r)
		if err != nil {
			log.WithError(err).WithField("kind", kind).Warn("count failed, using zero")
			return 0
		}
		return n
	}
	sum := func(kind models.EntryKind) decimal.Decimal {
		v, err := s.SumAmount(ctx, kind, r)
		if err != nil {
			log.WithError(err).WithField("kind", kind).Warn("sum failed, using zero")
			return decimal.Zero
		}
		return v
	}
	sumFee := func(kind models.EntryKind) decimal.Decimal {
		v, err := s.SumTierFee(ctx, kind, r)
		if err != nil {
			log.WithError(err).WithField("kind", kind).Warn("tier fee sum failed, using zero")
			return decimal.Zero
		}
		return v
	}

	welcomeWithdrawals := decimal.Zero
	logins, err := s.WelcomeBonusLogins(ctx)
	if err != nil {
		log.WithError(err).Warn("welcome bonus login load failed, using zero")
	} else if len(logins) > 0 {
		welcomeWithdrawals, err = s.SumAmountForAccounts(ctx, models.KindCRMWithdrawal, logins, r)
		if err != nil {
			log.WithError(err).Warn("welcome bonus withdrawal sum failed, using zero")
			welcomeWithdrawals = decimal.Zero
		}
	}

	topChange, err := s.SumAmountByMethod(ctx, models.KindCRMDeposit, topChangeFragment, r)
	if err != nil {
		log.WithError(err).Warn("topchange sum failed, using zero")
		topChange = decimal.Zero
	}

	tierFeeDeposit := sumFee(models.KindM2pDeposit).Add(sumFee(models.KindSettlementDeposit))
	tierFeeWithdraw := sumFee(models.KindM2pWithdraw).Add(sumFee(models.KindSettlementWithdraw))

	rows := []models.MetricRow{
		{Metric: "Total Rebate", Value: strconv.FormatInt(count(models.KindRebate), 10)},
		{Metric: "M2p Deposit", Value: models.FormatValue(sum(models.KindM2pDeposit))},
		{Metric: "Settlement Deposit", Value: models.FormatValue(sum(models.KindSettlementDeposit))},
		{Metric: "M2p Withdrawal", Value: models.FormatValue(sum(models.KindM2pWithdraw))},
		{Metric: "Settlement Withdrawal", Value: models.FormatValue(sum(models.KindSettlementWithdraw))},
		{Metric: "CRM Deposit Total", Value: models.FormatValue(sum(models.KindCRMDeposit))},
		{Metric: "Tier Fee Deposit", Value: models.FormatValue(tierFeeDeposit)},
		{Metric: "Tier Fee Withdraw", Value: models.FormatValue(tierFeeWithdraw)},
		{Metric: "Welcome Bonus Withdrawals", Value: models.FormatValue(welcomeWithdrawals)},
		{Metric: "CRM TopChange Total", Value: models.FormatValue(topChange)},
		{Metric: "CRM Withdraw Total", Value: models.FormatValue(sum(models.KindCRMWithdrawal))},
	}
	return rows, nil
}
