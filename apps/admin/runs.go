package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ministry/core/aggregate"
	"github.com/trezcool/ministry/core/audit"
	"github.com/trezcool/ministry/core/calendar"
)

func (cli *commandLine) syncStatus(ctx context.Context, runDate time.Time) error {
	summary, err := cli.svcs.Status.Run(ctx, runDate)
	if err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(summary.Changes))
	for _, c := range summary.Changes {
		rows = append(rows, []interface{}{c.PublisherID, c.Name, c.From, c.To})
	}
	header := fmt.Sprintf("ID\tNAME\tFROM\tTO\t(%d processed, %d skipped, %d updated)",
		summary.Processed, summary.Skipped, summary.Updated)
	return cli.render(summary, header, rows)
}

func (cli *commandLine) aggregateMonth(ctx context.Context, month calendar.Month) error {
	agg, err := cli.svcs.Aggregates.Aggregate(ctx, month)
	if err != nil {
		return err
	}
	return cli.renderAggregates(agg, []aggregate.MonthlyAggregate{agg})
}

func (cli *commandLine) aggregateServiceYear(ctx context.Context, fy int) error {
	aggs, err := cli.svcs.Aggregates.AggregateServiceYear(ctx, fy)
	if err != nil {
		return err
	}
	return cli.renderAggregates(aggs, aggs)
}

func (cli *commandLine) renderAggregates(v interface{}, aggs []aggregate.MonthlyAggregate) error {
	rows := make([][]interface{}, 0, len(aggs))
	for _, agg := range aggs {
		rows = append(rows, []interface{}{
			agg.Month,
			agg.Publishers.Reports, formatHours(agg.Publishers.Hours),
			agg.Auxiliary.Reports, formatHours(agg.Auxiliary.Hours),
			agg.Regular.Reports, formatHours(agg.Regular.Hours),
			agg.Totals().BibleStudies,
			agg.PotentialReporters,
		})
	}
	header := "MONTH\tPUB\tPUB HOURS\tAUX\tAUX HOURS\tREG\tREG HOURS\tSTUDIES\tPOTENTIAL"
	return cli.render(v, header, rows)
}

func (cli *commandLine) audit(ctx context.Context, runDate time.Time, notify bool) error {
	res, err := cli.svcs.Audit.Run(ctx, runDate)
	if err != nil {
		return err
	}

	if notify {
		if len(cli.recipients) == 0 {
			return errors.New("no report recipients configured")
		}
		msg, err := audit.NewEmailMessage(res, cli.recipients)
		if err != nil {
			return errors.Wrap(err, "preparing audit email")
		}
		cli.mailSvc.SendMessages(msg)
	}

	counts := res.Counts()
	rows := make([][]interface{}, 0, len(res.Duplicates)+len(res.Orphans))
	for _, d := range res.Duplicates {
		rows = append(rows, []interface{}{"duplicate", d.PublisherID, len(d.Months), len(d.DiscardedIDs)})
	}
	for _, o := range res.Orphans {
		rows = append(rows, []interface{}{"orphan", o.PublisherID, len(o.Months), len(o.Months)})
	}
	header := fmt.Sprintf("KIND\tPUBLISHER\tMONTHS\tDOCUMENTS\t(%s..%s: %d reports, %d months)",
		res.From, res.To, counts.Reports, counts.Months)
	return cli.render(res, header, rows)
}

func (cli *commandLine) aggregateAttendance(ctx context.Context, month calendar.Month) error {
	agg, err := cli.svcs.Attendance.AggregateMonth(ctx, month)
	if err != nil {
		return err
	}
	rows := [][]interface{}{
		{"midweek", agg.Midweek.Meetings, agg.Midweek.Attendees, agg.Midweek.Average},
		{"weekend", agg.Weekend.Meetings, agg.Weekend.Attendees, agg.Weekend.Average},
	}
	return cli.render(agg, fmt.Sprintf("%s\tMEETINGS\tATTENDEES\tAVERAGE", month), rows)
}
