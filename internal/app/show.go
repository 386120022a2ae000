package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
)

// Show prints the largest pairs by persisted reserve.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	repo, closeRepo, err := a.openRepository(ctx)
	if err != nil {
		return err
	}
	if repo == nil {
		return errors.New("database not configured; cannot show pairs")
	}
	if closeRepo != nil {
		defer closeRepo()
	}

	rows, err := repo.ListPairsByReserve(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "no pairs found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Pair\tToken0\tToken1\tReserve0\tReserve1\tReserve USD\tVolume USD\tTxs\tUpdated (UTC)")

	for _, row := range rows {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			row.Address,
			row.Token0,
			row.Token1,
			formatDecimal(row.Reserve0, 4),
			formatDecimal(row.Reserve1, 4),
			formatDecimal(row.ReserveUSD, 2),
			formatDecimal(row.VolumeUSD, 2),
			row.TxCount,
			row.UpdatedAt.UTC().Format(time.RFC3339),
		)
	}

	writer.Flush()
	return nil
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
