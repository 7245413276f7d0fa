package analysis

import (
	"sort"

	"ffxiv_damage/ffxiv"
	"ffxiv_damage/fflogs"

	"github.com/pkg/errors"
)

const (
	DefaultPartyDamageCeiling int64 = 300000
	DefaultTankDamageCeiling  int64 = 600000

	eventTypeDamage           = "damage"
	eventTypeLimitBreakUpdate = "limitbreakupdate"
)

var ErrNoEvents = errors.New("fight has no events to derive a start time from")

type Options struct {
	Categories ffxiv.Categories

	// Hits at or above a ceiling are dropped from the matching profile. Zero selects the default.
	PartyDamageCeiling int64
	TankDamageCeiling  int64
}

type Player struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Job  string `json:"job"`
	Tank bool   `json:"tank"`
}

// IncomingDamage is the classified damage taken by the party during one fight.
type IncomingDamage struct {
	ReportID    string `json:"report_id"`
	ReportTitle string `json:"report_title"`
	FightID     int    `json:"fight_id"`
	FightName   string `json:"fight_name"`
	Kill        bool   `json:"kill"`

	// milliseconds, in report time
	StartTimestamp int64   `json:"start_timestamp"`
	Duration       float64 `json:"duration"`

	Players    []Player `json:"players"`
	TankIDs    []int    `json:"tank_ids"`
	NonTankIDs []int    `json:"non_tank_ids"`
	VulnIDs    []int    `json:"vuln_ids"`

	Events []DamageEvent `json:"events"`

	partyCeiling int64
	tankCeiling  int64
	playerNames  map[int]string
}

func New(fd *fflogs.FightData, opt Options) (*IncomingDamage, error) {
	if opt.PartyDamageCeiling <= 0 {
		opt.PartyDamageCeiling = DefaultPartyDamageCeiling
	}
	if opt.TankDamageCeiling <= 0 {
		opt.TankDamageCeiling = DefaultTankDamageCeiling
	}

	start, err := startTimestamp(fd)
	if err != nil {
		return nil, errors.Wrapf(err, "report %s fight %d", fd.ReportID, fd.FightID)
	}

	d := &IncomingDamage{
		ReportID:       fd.ReportID,
		ReportTitle:    fd.Title,
		FightID:        fd.FightID,
		FightName:      fd.Fight.Name,
		Kill:           fd.Fight.Kill != nil && *fd.Fight.Kill,
		StartTimestamp: start,
		Duration:       float64(fd.Fight.EndTime-start) / 1000,

		partyCeiling: opt.PartyDamageCeiling,
		tankCeiling:  opt.TankDamageCeiling,
	}

	d.Players, d.playerNames = partyTable(fd.Players)
	d.TankIDs, d.NonTankIDs = roleIDs(d.Players)
	d.VulnIDs = vulnIDs(fd.Debuffs)
	d.Events = damageEvents(fd.Events, start, d.TankIDs, d.VulnIDs, opt.Categories)

	return d, nil
}

// startTimestamp is the first limit break gauge update, which is written when the pull starts.
// When it is missing the first damage taken event is used instead.
func startTimestamp(fd *fflogs.FightData) (int64, error) {
	for _, event := range fd.StartingEvents {
		if event.Type == eventTypeLimitBreakUpdate {
			return event.Timestamp, nil
		}
	}

	if len(fd.Events) > 0 {
		return fd.Events[0].Timestamp, nil
	}

	return 0, ErrNoEvents
}

func partyTable(details []fflogs.PlayerDetail) ([]Player, map[int]string) {
	players := make([]Player, 0, len(details))
	names := make(map[int]string, len(details))

	for _, detail := range details {
		job := detail.Icon
		if job == "" {
			job = detail.Type
		}

		players = append(players, Player{
			ID:   detail.ID,
			Name: detail.Name,
			Job:  job,
			Tank: ffxiv.IsTank(job),
		})
		names[detail.ID] = detail.Name
	}

	sort.SliceStable(players, func(i, j int) bool {
		return ffxiv.JobRank(players[i].Job) < ffxiv.JobRank(players[j].Job)
	})

	return players, names
}

func roleIDs(players []Player) (tankIDs []int, nonTankIDs []int) {
	tankIDs = make([]int, 0, 2)
	nonTankIDs = make([]int, 0, len(players))

	for _, player := range players {
		if player.Tank {
			tankIDs = append(tankIDs, player.ID)
		} else {
			nonTankIDs = append(nonTankIDs, player.ID)
		}
	}
	return
}

func vulnIDs(debuffs []fflogs.Aura) []int {
	ids := make([]int, 0, 1)
	for _, aura := range debuffs {
		if ffxiv.IsVulnerabilityUp(aura.Name) {
			ids = append(ids, aura.GUID)
		}
	}
	return ids
}

func (d *IncomingDamage) PlayerName(id int) string {
	return d.playerNames[id]
}
