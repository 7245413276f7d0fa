package main

import (
	"context"
	"time"

	"ffxiv_damage/analysis"
	"ffxiv_damage/analysispool"
	"ffxiv_damage/fights"
	"ffxiv_damage/report"
	"ffxiv_damage/share"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	flagOutput string
	flagXLSX   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render the report for every enabled preset",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&flagOutput, "output", "o", report.DefaultOutput, "HTML output path")
	f.StringVar(&flagXLSX, "xlsx", "", "also export the tables to this XLSX file")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	presets, err := fights.Load(flagPresets)
	if err != nil {
		return err
	}

	enabled := presets.Enabled()
	if len(enabled) == 0 {
		return errors.Errorf("%s: no enabled fight", flagPresets)
	}

	b, err := newFightBuilder(cfg)
	if err != nil {
		return err
	}

	started := time.Now()
	sections := generate(cmd.Context(), b.Section, enabled, cfg.Workers)

	if err := report.WriteFile(flagOutput, report.NewPage(sections)); err != nil {
		return err
	}
	zap.L().Info("report written", zap.String("path", flagOutput), zap.Duration("took", time.Since(started)))

	if flagXLSX != "" {
		if err := report.WriteXLSX(flagXLSX, sections); err != nil {
			return err
		}
		zap.L().Info("xlsx written", zap.String("path", flagXLSX))
	}

	return nil
}

// generate processes fights concurrently and returns their sections in input order.
// A fight that fails becomes an error section.
func generate(ctx context.Context, process analysispool.Processor, list []*fights.Fight, workers int) []*report.Section {
	sections := make([]*report.Section, len(list))

	if workers < 1 {
		workers = 1
	}

	var eg errgroup.Group
	eg.SetLimit(workers)

	for i, f := range list {
		i, f := i, f

		eg.Go(func() error {
			log := zap.L().With(zap.String("fight", f.Name))

			s, err := process(ctx, f, func(s string) { log.Info(s) })
			if err != nil {
				share.CaptureError(err, zap.String("fight", f.Name), zap.String("report", f.ReportID))
				s = report.ErrorSection(f.Name, f.ReportID, f.FightID, err)
			} else {
				fields := []zap.Field{zap.Int("party", len(s.Party)), zap.Int("tank", len(s.Tank))}
				if min, max, ok := analysis.AmountRange(s.Party); ok {
					fields = append(fields, zap.Int64("party_min", min), zap.Int64("party_max", max))
				}
				log.Info("processed", fields...)
			}

			sections[i] = s
			return nil
		})
	}
	eg.Wait()

	return sections
}
