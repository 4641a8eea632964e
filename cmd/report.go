package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"invoice-dashboard/internal/domain"
	"invoice-dashboard/internal/repository"
	"invoice-dashboard/internal/service"
	"invoice-dashboard/pkg/database/postgres"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print KPIs, aging buckets and top customers",
	Long: `Reads the portfolio once and prints the dashboard figures as of a
reference date. The cache is bypassed.`,
	Example: `  # Today's figures
  invoice-dashboard report

  # Month end close, top 10 customers, machine readable
  invoice-dashboard report --as-of 2024-06-30 --top 10 --format json`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	addReportFlags(reportCmd)
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().String("as-of", "", "Reference date (format: YYYY-MM-DD, default: today)")
	cmd.Flags().Int("top", 0, "Number of top customers (default: TOP_CUSTOMERS)")
	cmd.Flags().String("format", "text", "Output format: text or json")
}

// topCustomersFlag returns --top when it was given and fallback otherwise.
func topCustomersFlag(cmd *cobra.Command, fallback int) (int, error) {
	if !cmd.Flags().Changed("top") {
		return fallback, nil
	}
	top, err := cmd.Flags().GetInt("top")
	if err != nil {
		return 0, err
	}
	if top < 0 {
		return 0, fmt.Errorf("%w: --top must not be negative, got %d", domain.ErrInvalidArgument, top)
	}
	return top, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	asOf, _ := cmd.Flags().GetString("as-of")
	format, _ := cmd.Flags().GetString("format")

	top, err := topCustomersFlag(cmd, appCfg.TopCustomers)
	if err != nil {
		return err
	}

	ref := domain.DateOf(time.Now())
	if asOf != "" {
		parsed, err := domain.ParseDate(asOf)
		if err != nil {
			return err
		}
		ref = parsed
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("%w: unsupported format %q", domain.ErrInvalidArgument, format)
	}

	db, err := initPostgres(cmd.Context(), appCfg.Postgres)
	if err != nil {
		return err
	}
	defer postgres.Close(db)

	dashboard := service.NewDashboardService(
		repository.NewInvoiceRepository(db),
		repository.NewPaymentRepository(db),
		nil, nil, nil,
	).WithTopCustomers(top)

	snapshot, err := dashboard.Snapshot(cmd.Context(), ref)
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot)
	}
	return writeReport(cmd.OutOrStdout(), snapshot)
}

func writeReport(out io.Writer, d service.Dashboard) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Receivables as of %s\n\n", d.ReferenceDate)
	fmt.Fprintf(tw, "Total invoiced\t%s\n", d.KPIs.TotalInvoiced.StringFixed(2))
	fmt.Fprintf(tw, "Total received\t%s\n", d.KPIs.TotalReceived.StringFixed(2))
	fmt.Fprintf(tw, "Total outstanding\t%s\n", d.KPIs.TotalOutstanding.StringFixed(2))
	fmt.Fprintf(tw, "Overdue\t%.2f%% (%d of %d)\n", d.KPIs.PercentOverdue, d.KPIs.OverdueCount, d.KPIs.InvoiceCount)

	fmt.Fprintf(tw, "\nAging\tInvoices\tOutstanding\n")
	for _, b := range d.Aging {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", b.AgingBucket, b.InvoiceCount, b.Outstanding.StringFixed(2))
	}

	fmt.Fprintf(tw, "\nTop customers\t\tOutstanding\n")
	if len(d.TopCustomers) == 0 {
		fmt.Fprintf(tw, "%s\n", strings.Repeat("-", 3))
	}
	for i, c := range d.TopCustomers {
		fmt.Fprintf(tw, "%d. %s\t\t%s\n", i+1, c.CustomerName, c.TotalOutstanding.StringFixed(2))
	}
	return tw.Flush()
}
