package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/ministry/apps/shared"
	"github.com/trezcool/ministry/core"
	"github.com/trezcool/ministry/core/calendar"
	"github.com/trezcool/ministry/storage/database"
)

var (
	isTerminalFunc = term.IsTerminal // mockable
	nowFunc        = time.Now        // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	store      *database.Store
	svcs       *shared.Services
	mailSvc    core.EmailService
	recipients []mail.Address
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]                - run database migrations (up, down, status, ...)")
	fmt.Println("  syncstatus [-date YYYY-MM-DD]         - infer every publisher's status")
	fmt.Println("  aggregate -month YYYY-MM | -fy YEAR   - recompute the monthly aggregate(s)")
	fmt.Println("  audit [-date YYYY-MM-DD] [-notify]    - recompute the lookback window & report duplicates and orphans")
	fmt.Println("  attendance -month YYYY-MM             - recompute the attendance aggregate of a month")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	syncStatusCmd := flag.NewFlagSet("syncstatus", flag.ContinueOnError)
	syncStatusDate := syncStatusCmd.String("date", "", "The run date, YYYY-MM-DD. Defaults to today.")

	aggregateCmd := flag.NewFlagSet("aggregate", flag.ContinueOnError)
	aggregateMonth := aggregateCmd.String("month", "", "The month to recompute, YYYY-MM.")
	aggregateFY := aggregateCmd.Int("fy", 0, "The service year to recompute, eg. 2024 for 2023-09..2024-08.")

	auditCmd := flag.NewFlagSet("audit", flag.ContinueOnError)
	auditDate := auditCmd.String("date", "", "The run date, YYYY-MM-DD. Defaults to today.")
	auditNotify := auditCmd.Bool("notify", false, "Mail the summary to the report recipients.")

	attendanceCmd := flag.NewFlagSet("attendance", flag.ContinueOnError)
	attendanceMonth := attendanceCmd.String("month", "", "The month to recompute, YYYY-MM.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])

	case "syncstatus":
		if err := syncStatusCmd.Parse(args[2:]); err != nil {
			return err
		}
		runDate, err := parseRunDate(*syncStatusDate)
		if err != nil {
			return err
		}
		return cli.syncStatus(ctx, runDate)

	case "aggregate":
		if err := aggregateCmd.Parse(args[2:]); err != nil {
			return err
		}
		switch {
		case *aggregateMonth != "" && *aggregateFY == 0:
			month, err := parseMonth(*aggregateMonth)
			if err != nil {
				return err
			}
			return cli.aggregateMonth(ctx, month)
		case *aggregateMonth == "" && *aggregateFY > 0:
			return cli.aggregateServiceYear(ctx, *aggregateFY)
		}
		aggregateCmd.Usage()
		return errHelp

	case "audit":
		if err := auditCmd.Parse(args[2:]); err != nil {
			return err
		}
		runDate, err := parseRunDate(*auditDate)
		if err != nil {
			return err
		}
		return cli.audit(ctx, runDate, *auditNotify)

	case "attendance":
		if err := attendanceCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *attendanceMonth == "" {
			attendanceCmd.Usage()
			return errHelp
		}
		month, err := parseMonth(*attendanceMonth)
		if err != nil {
			return err
		}
		return cli.aggregateAttendance(ctx, month)

	default:
		cli.printUsage()
		return errHelp
	}
}

func parseRunDate(s string) (time.Time, error) {
	if s == "" {
		return nowFunc().UTC(), nil
	}
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, pkgerrors.Wrapf(err, "invalid date %q", s)
	}
	return d, nil
}

func parseMonth(s string) (calendar.Month, error) {
	month, err := calendar.ParseMonth(s)
	return month, pkgerrors.Wrapf(err, "invalid month %q", s)
}

// render prints rows as an aligned table on a terminal and v as JSON otherwise.
func (cli *commandLine) render(v interface{}, header string, rows [][]interface{}) error {
	if f, ok := cli.out.(*os.File); !ok || !isTerminalFunc(int(f.Fd())) {
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, header)
	for _, row := range rows {
		for i, col := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, col)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
