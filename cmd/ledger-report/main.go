// Command ledger-report prints the dashboard summary of an expense CSV file,
// or with -watch follows the ledger events published by the tracker server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"tracker/internal/aggregate"
	"tracker/internal/amqp"
	"tracker/internal/cli"
	"tracker/internal/config"
	"tracker/internal/core"
	"tracker/internal/csvio"
	applog "tracker/internal/log"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	cli.LoadEnvFile()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ledger-report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "expenses.csv", "expense CSV file to summarize")
	budget := fs.String("budget", "", "monthly budget (default DEFAULT_BUDGET or 1000.00)")
	date := fs.String("date", "", "reference date YYYY-MM-DD for the utilization month (default today)")
	watch := fs.Bool("watch", false, "print ledger events from AMQP_URL instead of a report")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	logger := applog.New(applog.Config{Component: applog.ComponentReport, Output: stderr, Level: levelFromEnv()})

	if *watch {
		return watchEvents(logger, stdout)
	}

	b, err := resolveBudget(*budget)
	if err != nil {
		fmt.Fprintf(stderr, "ledger-report: %v\n", err)
		return exitUsage
	}
	ref := time.Now()
	if *date != "" {
		t, ok := core.ParseDate(*date).Time()
		if !ok {
			fmt.Fprintf(stderr, "ledger-report: invalid -date %q\n", *date)
			return exitUsage
		}
		ref = t
	}

	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintf(stderr, "ledger-report: %v\n", err)
		return exitError
	}
	defer f.Close()

	table, err := csvio.Decode(f)
	if err != nil {
		var se *core.SchemaError
		if errors.As(err, &se) {
			logger.Error("Import rejected", applog.FieldFile, *file, applog.FieldMissing, se.Missing)
		}
		fmt.Fprintf(stderr, "ledger-report: %s: %v\n", *file, err)
		return exitError
	}

	summary := aggregate.Summarize(table.Records, b, ref)
	if err := render(stdout, summary); err != nil {
		fmt.Fprintf(stderr, "ledger-report: %v\n", err)
		return exitError
	}
	return exitOK
}

func levelFromEnv() slog.Level {
	l, err := applog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func resolveBudget(flagValue string) (core.Money, error) {
	raw := flagValue
	if raw == "" {
		raw = os.Getenv("DEFAULT_BUDGET")
	}
	if raw == "" {
		return core.Money{Cents: core.DefaultBudgetCents}, nil
	}
	m, err := core.ParseMoney(raw)
	if err != nil {
		return core.Money{}, fmt.Errorf("invalid budget %q: %w", raw, err)
	}
	if err := m.Validate(); err != nil {
		return core.Money{}, fmt.Errorf("invalid budget %q: %w", raw, err)
	}
	return m, nil
}

func render(w io.Writer, s core.Summary) error {
	if s.Totals.Count == 0 {
		_, err := fmt.Fprintln(w, "No expense data available.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total spent:\t%s\n", s.Totals.Sum)
	fmt.Fprintf(tw, "Records:\t%d\n", s.Totals.Count)
	fmt.Fprintf(tw, "Categories:\t%d\n", s.Totals.Categories)

	u := s.Utilization
	fmt.Fprintf(tw, "Budget %04d-%02d:\t%s of %s (%.1f%%)\n", u.Year, u.Month, u.Spent, u.Budget, u.Ratio*100)

	fmt.Fprintln(tw, "\nCategory\tAmount")
	for _, c := range s.ByCategory {
		fmt.Fprintf(tw, "%s\t%s\n", c.Category, c.Amount)
	}

	fmt.Fprintln(tw, "\nDate\tAmount")
	for _, d := range s.OverTime {
		fmt.Fprintf(tw, "%s\t%s\n", d.Date.Format(time.DateOnly), d.Amount)
	}
	if s.Skipped > 0 {
		fmt.Fprintf(tw, "(%d record(s) with unparseable dates not shown)\n", s.Skipped)
	}
	return tw.Flush()
}

func watchEvents(logger *applog.Logger, stdout io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", applog.FieldError, err)
		return exitError
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required with -watch")
		return exitUsage
	}

	ctx, done := cli.GracefulShutdown(logger, 5*time.Second, nil)
	client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to connect to AMQP", applog.FieldError, err)
		return exitError
	}
	defer client.Close()

	err = client.ConsumeLedgerEvents(ctx, func(evt *amqp.LedgerEvent) error {
		_, err := fmt.Fprintf(stdout, "%s\t%s\t%s\trecords=%d\tbudget=%s\n",
			evt.Timestamp.Format(time.RFC3339), evt.SessionID, evt.Kind, evt.Records, core.Money{Cents: evt.BudgetCents})
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption stopped", applog.FieldError, err)
		return exitError
	}
	cli.WaitForShutdown(ctx, done)
	return exitOK
}
