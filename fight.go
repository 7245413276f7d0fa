package main

import (
	"context"
	"path/filepath"

	"ffxiv_damage/analysis"
	"ffxiv_damage/cache"
	"ffxiv_damage/config"
	"ffxiv_damage/fflogs"
	"ffxiv_damage/fights"
	"ffxiv_damage/report"
	"ffxiv_damage/share"
)

// fightBuilder runs the fetch, classify and render steps for one preset.
type fightBuilder struct {
	client *fflogs.Client
}

func newFightBuilder(c *config.Config) (*fightBuilder, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	httpClient, err := share.NewHTTPClient(c.HTTPProxy, c.HTTPTimeout)
	if err != nil {
		return nil, err
	}

	cs, err := cache.NewStorage(filepath.Join(c.CacheDir, "fflogs"), c.CacheExpires, fflogs.Queries())
	if err != nil {
		return nil, err
	}

	opt := c.FFLogsOptions()
	opt.HTTPClient = httpClient
	opt.Cache = cs

	client, err := fflogs.New(opt)
	if err != nil {
		return nil, err
	}

	return &fightBuilder{
		client: client,
	}, nil
}

func (b *fightBuilder) Analyze(ctx context.Context, f *fights.Fight, progress func(s string)) (*analysis.IncomingDamage, error) {
	fd, err := b.client.FetchFight(ctx, f.ReportID, f.FightID, progress)
	if err != nil {
		return nil, err
	}

	return analysis.New(fd, f.AnalysisOptions())
}

func (b *fightBuilder) Section(ctx context.Context, f *fights.Fight, progress func(s string)) (*report.Section, error) {
	d, err := b.Analyze(ctx, f, progress)
	if err != nil {
		return nil, err
	}

	return report.NewSection(f.Name, d, f.SectionOptions())
}
