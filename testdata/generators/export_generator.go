// Command export_generator writes sample broker export files for
// manual testing: a deals export, the three CRM exports, an account
// list, and a payment gateway export. The files share logins and
// request ids so ingestion, reporting, and reconciliation can all be
// exercised against the same dataset.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

var processingRules = []string{"Pipwise", "Retail B-book", "Multi"}

var groups = []string{
	`real\Standard`,
	`real\Pro`,
	`real\Chinese`,
	`BBOOK\Chinese`,
	`WELCOME\WELCOME BBOOK`,
}

var paymentMethods = []string{"bank wire", "TopChange", "crypto", "card"}

func main() {
	var (
		outputDir = flag.String("output-dir", "generated", "Output directory for the export files")
		deals     = flag.Int("deals", 500, "Number of deal rows")
		clients   = flag.Int("clients", 40, "Number of distinct logins")
		payments  = flag.Int("payments", 120, "Number of payment gateway rows")
		startDate = flag.String("start-date", "2024-01-01", "Start date (YYYY-MM-DD)")
		endDate   = flag.String("end-date", "2024-01-31", "End date (YYYY-MM-DD)")
		seed      = flag.Int64("seed", 42, "Random seed for reproducible generation")
	)
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}
	end, err := time.Parse("2006-01-02", *endDate)
	if err != nil {
		log.Fatalf("Invalid end date: %v", err)
	}
	if !end.After(start) {
		log.Fatalf("End date must be after start date")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	g := &generator{
		rng:     rand.New(rand.NewSource(*seed)),
		start:   start,
		span:    end.Sub(start),
		clients: *clients,
	}

	files := []struct {
		name  string
		write func(w *csv.Writer) error
	}{
		{"deals.csv", func(w *csv.Writer) error { return g.writeDeals(w, *deals) }},
		{"accounts.csv", g.writeAccounts},
		{"rebates.csv", func(w *csv.Writer) error { return g.writeRebates(w, *deals / 5) }},
		{"crm_deposits.csv", func(w *csv.Writer) error { return g.writeCRMDeposits(w, *payments) }},
		{"crm_withdrawals.csv", func(w *csv.Writer) error { return g.writeCRMWithdrawals(w, *payments / 2) }},
		{"payments.csv", func(w *csv.Writer) error { return g.writePayments(w, *payments) }},
	}
	for _, f := range files {
		path := filepath.Join(*outputDir, f.name)
		if err := writeCSVFile(path, f.write); err != nil {
			log.Fatalf("Failed to write %s: %v", path, err)
		}
		fmt.Printf("Wrote %s\n", path)
	}
	fmt.Printf("Date range: %s to %s, seed %d\n", *startDate, *endDate, *seed)
}

type generator struct {
	rng     *rand.Rand
	start   time.Time
	span    time.Duration
	clients int
}

func (g *generator) login(i int) string {
	return fmt.Sprintf("%d", 10001+i%g.clients)
}

func (g *generator) randomLogin() string {
	return g.login(g.rng.Intn(g.clients))
}

func (g *generator) randomTime() time.Time {
	return g.start.Add(time.Duration(g.rng.Int63n(int64(g.span))))
}

func (g *generator) amount(min, max float64) decimal.Decimal {
	return decimal.NewFromFloat(min + g.rng.Float64()*(max-min)).Round(2)
}

func (g *generator) writeDeals(w *csv.Writer, count int) error {
	// Column order matters: the enrichment step reads the deal id in
	// the first column, the raw profit at index 6 and the timestamp at
	// index 7.
	header := []string{
		"Deal", "Login", "Processing rule", "Notional volume in USD",
		"Trader profit", "Swaps", "Profit", "Date & Time (UTC)",
		"Commission", "TP broker profit", "Total broker profit", "Group",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		profit := g.amount(-500, 500)
		unit := "USD"
		if g.rng.Float64() < 0.2 {
			profit = profit.Mul(decimal.NewFromInt(100))
			unit = "USC"
		}
		row := []string{
			fmt.Sprintf("D%06d", i+1),
			g.randomLogin(),
			processingRules[g.rng.Intn(len(processingRules))],
			g.amount(1000, 200000).String(),
			g.amount(-300, 300).String(),
			g.amount(-20, 5).String(),
			profit.String() + " " + unit,
			g.randomTime().Format("02.01.2006 15:04:05"),
			g.amount(0, 15).String(),
			g.amount(-100, 100).String(),
			g.amount(-200, 200).String(),
			groups[g.rng.Intn(len(groups))],
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) writeAccounts(w *csv.Writer) error {
	if err := w.Write([]string{"Login", "Name", "Group"}); err != nil {
		return err
	}
	for i := 0; i < g.clients; i++ {
		row := []string{
			g.login(i),
			fmt.Sprintf("Client %02d", i+1),
			groups[g.rng.Intn(len(groups))],
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) writeRebates(w *csv.Writer, count int) error {
	if err := w.Write([]string{"Transaction ID", "Rebate Time", "Rebate"}); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		row := []string{
			fmt.Sprintf("RB%06d", i+1),
			g.randomTime().Format("2006-01-02 15:04:05"),
			g.amount(0.1, 25).String(),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) writeCRMDeposits(w *csv.Writer, count int) error {
	header := []string{"Request ID", "Request Time", "Trading Account", "Trading Amount", "Payment Method"}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		row := []string{
			fmt.Sprintf("DEP%06d", i+1),
			g.randomTime().Format("2006-01-02 15:04:05"),
			g.randomLogin(),
			g.amount(10, 5000).String(),
			paymentMethods[g.rng.Intn(len(paymentMethods))],
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) writeCRMWithdrawals(w *csv.Writer, count int) error {
	header := []string{"Request ID", "Review Time", "Trading Account", "Withdrawal Amount"}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		amount := g.amount(10, 2000).String()
		if g.rng.Float64() < 0.3 {
			amount = "USC " + g.amount(1000, 200000).Round(0).String()
		}
		row := []string{
			fmt.Sprintf("WD%06d", i+1),
			g.randomTime().Format("2006-01-02 15:04:05"),
			g.randomLogin(),
			amount,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) writePayments(w *csv.Writer, count int) error {
	header := []string{
		"TXID", "TYPE", "STATUS", "PAYMENTGATEWAYNAME",
		"FINALAMOUNT", "TIERFEE", "CREATED", "TRADINGACCOUNT",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	gateways := []string{"M2p", "Settlement Gateway", "Balance"}
	statuses := []string{"DONE", "DONE", "DONE", "PENDING", "FAILED"}
	types := []string{"DEPOSIT", "DEPOSIT", "WITHDRAW"}
	for i := 0; i < count; i++ {
		row := []string{
			fmt.Sprintf("TX%06d", i+1),
			types[g.rng.Intn(len(types))],
			statuses[g.rng.Intn(len(statuses))],
			gateways[g.rng.Intn(len(gateways))],
			g.amount(10, 5000).String(),
			g.amount(0, 10).String(),
			g.randomTime().Format("2006-01-02 15:04:05"),
			g.randomLogin(),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeCSVFile(path string, write func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := write(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
