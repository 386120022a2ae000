package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"dexgraph/internal/storage"
)

// Export renders a pair's snapshot history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.Pair == "" {
		return errors.New("--pair must be provided")
	}
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	repo, closeRepo, err := a.openRepository(ctx)
	if err != nil {
		return err
	}
	if repo == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeRepo != nil {
		defer closeRepo()
	}

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-time.Duration(opts.MaxPoints) * a.Config.Flush.Interval)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	snapshots, err := repo.ListPairSnapshotsBetween(ctx, strings.ToLower(opts.Pair), from, to)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		a.Logger.Info().Msg("no snapshots found for export window")
		return nil
	}

	downsampled := downsampleSnapshots(snapshots, opts.MaxPoints)
	a.Logger.Info().Int("total", len(snapshots)).Int("exported", len(downsampled)).Msg("exporting snapshots")

	if opts.CSVPath != "" {
		if err := writeSnapshotsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeSnapshotsPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleSnapshots(snapshots []storage.PairSnapshot, max int) []storage.PairSnapshot {
	if max <= 0 || len(snapshots) <= max {
		return snapshots
	}

	result := make([]storage.PairSnapshot, 0, max)
	step := float64(len(snapshots)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(snapshots) {
			idx = len(snapshots) - 1
		}
		result = append(result, snapshots[idx])
	}
	return result
}

func writeSnapshotsCSV(path string, snapshots []storage.PairSnapshot) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"bucket_ts", "pair_address", "reserve0", "reserve1", "reserve_usd", "volume_usd", "tx_count"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, snap := range snapshots {
		record := []string{
			snap.Bucket.Format(time.RFC3339),
			snap.PairAddress,
			snap.Reserve0.String(),
			snap.Reserve1.String(),
			snap.ReserveUSD.String(),
			snap.VolumeUSD.String(),
			strconv.FormatInt(snap.TxCount, 10),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeSnapshotsPNG(path string, snapshots []storage.PairSnapshot) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(snapshots))
	reserveUSD := make([]float64, len(snapshots))
	volumeUSD := make([]float64, len(snapshots))

	for i, snap := range snapshots {
		x[i] = snap.Bucket
		reserveUSD[i] = snap.ReserveUSD.InexactFloat64()
		volumeUSD[i] = snap.VolumeUSD.InexactFloat64()
	}

	usdFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Liquidity (USD)",
			ValueFormatter: usdFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Cumulative volume (USD)",
			ValueFormatter: usdFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Reserve USD",
				XValues: x,
				YValues: reserveUSD,
			},
			chart.TimeSeries{
				Name:    "Volume USD",
				XValues: x,
				YValues: volumeUSD,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
