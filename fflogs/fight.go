package fflogs

import (
	"context"
	"fmt"
	"sort"

	"ffxiv_damage/cache"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	startingEventsLimit = 50
	eventsLimit         = 10000
)

// FetchFight downloads the fight summary and every DamageTaken event of one fight.
// progress may be nil.
func (c *Client) FetchFight(ctx context.Context, reportID string, fightID int, progress func(s string)) (*FightData, error) {
	if progress == nil {
		progress = func(string) {}
	}

	log := zap.L().With(zap.String("report", reportID), zap.Int("fight", fightID))
	log.Debug("fetch fight")
	progress("[1 / 2] Fetching fight summary...")

	summaryQuery := struct {
		ReportID string
		FightID  int
		Limit    int
	}{
		ReportID: reportID,
		FightID:  fightID,
		Limit:    startingEventsLimit,
	}

	var summary respFightSummary
	err := c.cachedCall(
		ctx,
		cache.Key("summary_%s_fid_%d", reportID, fightID),
		tmplFightSummary,
		&summaryQuery,
		&summary,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "report %s fight %d", reportID, fightID)
	}

	report := summary.ReportData.Report
	if report == nil {
		return nil, errors.Errorf("report %s not found", reportID)
	}

	fd := &FightData{
		ReportID:       reportID,
		FightID:        fightID,
		Title:          report.Title,
		Debuffs:        report.BuffTable.Data.Auras,
		StartingEvents: report.StartingEvent.Data,
	}

	found := false
	for _, fight := range report.Fights {
		if fight.ID == fightID {
			fd.Fight = fight
			found = true
			break
		}
	}
	if !found {
		return nil, errors.Errorf("fight %d not found in report %s", fightID, reportID)
	}

	pd := report.PlayerDetails.Data.PlayerDetails
	fd.Players = make([]PlayerDetail, 0, len(pd.Tanks)+len(pd.Healers)+len(pd.Dps))
	fd.Players = append(fd.Players, pd.Tanks...)
	fd.Players = append(fd.Players, pd.Healers...)
	fd.Players = append(fd.Players, pd.Dps...)

	////////////////////////////////////////////////////////////////////////////////////////////////////

	eventsQuery := struct {
		ReportID  string
		FightID   int
		StartTime int64
		EndTime   int64
		Limit     int
	}{
		ReportID:  reportID,
		FightID:   fightID,
		StartTime: fd.Fight.StartTime,
		EndTime:   fd.Fight.EndTime,
		Limit:     eventsLimit,
	}

	for page := 1; ; page++ {
		progress(fmt.Sprintf("[2 / 2] Fetching damage taken events... (page %d)", page))

		var resp respDamageTaken
		err := c.cachedCall(
			ctx,
			cache.Key("events_%s_fid_%d_st_%d_et_%d", reportID, fightID, eventsQuery.StartTime, eventsQuery.EndTime),
			tmplDamageTakenEvents,
			&eventsQuery,
			&resp,
		)
		if err != nil {
			return nil, errors.Wrapf(err, "report %s fight %d events page %d", reportID, fightID, page)
		}
		if resp.ReportData.Report == nil {
			return nil, errors.Errorf("report %s not found", reportID)
		}

		events := resp.ReportData.Report.Events
		fd.Events = append(fd.Events, events.Data...)

		if events.NextPageTimestamp == nil {
			break
		}
		if *events.NextPageTimestamp <= eventsQuery.StartTime {
			return nil, errors.Errorf(
				"report %s fight %d: next page timestamp %d does not advance past %d",
				reportID, fightID, *events.NextPageTimestamp, eventsQuery.StartTime,
			)
		}
		eventsQuery.StartTime = *events.NextPageTimestamp
	}

	sort.SliceStable(
		fd.Events,
		func(i, k int) bool {
			return fd.Events[i].Timestamp < fd.Events[k].Timestamp
		},
	)

	log.Debug("fetched fight", zap.Int("events", len(fd.Events)), zap.Int("players", len(fd.Players)))

	return fd, nil
}
