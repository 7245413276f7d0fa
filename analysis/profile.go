package analysis

import (
	"sort"
)

// ProfileRow is one cast of a party-wide ability.
type ProfileRow struct {
	ElapsedSeconds    float64 `json:"elapsed_seconds"`
	FormattedTime     string  `json:"formatted_time"`
	AbilityName       string  `json:"ability_name"`
	AbilityID         int     `json:"ability_id"`
	UnmitigatedAmount int64   `json:"unmitigated_amount"`
	Description       string  `json:"description"`
	DamageType        string  `json:"damage_type"`
	DamageTypeID      int     `json:"damage_type_id"`
	Category          string  `json:"damage_category"`
	Hits              int     `json:"hits"`
}

// TankHit is a single tank-targeted hit.
type TankHit struct {
	ElapsedSeconds    float64 `json:"elapsed_seconds"`
	FormattedTime     string  `json:"formatted_time"`
	AbilityName       string  `json:"ability_name"`
	AbilityID         int     `json:"ability_id"`
	UnmitigatedAmount int64   `json:"unmitigated_amount"`
	TargetID          int     `json:"target_id"`
	TargetName        string  `json:"target_name"`
	Description       string  `json:"description"`
	DamageType        string  `json:"damage_type"`
	DamageTypeID      int     `json:"damage_type_id"`
	IsVulnDamage      bool    `json:"is_vuln_damage"`
}

// PartyProfile merges the damage taken by non-tank players into one row per cast.
// Tank damage, vulnerability stacks and hits without an unmitigated amount are left out.
func (d *IncomingDamage) PartyProfile(filterUncategorized bool) []ProfileRow {
	selected := make([]*DamageEvent, 0, len(d.Events))
	for i := range d.Events {
		event := &d.Events[i]

		if event.IsTank || event.IsTankDamage || event.IsVulnDamage {
			continue
		}
		if event.UnmitigatedAmount == nil || *event.UnmitigatedAmount >= d.partyCeiling {
			continue
		}
		if filterUncategorized && !event.Categorized() {
			continue
		}

		selected = append(selected, event)
	}

	return aggregate(selected)
}

func aggregate(events []*DamageEvent) []ProfileRow {
	type group struct {
		first       *DamageEvent
		elapsed     []float64
		unmitigated []float64
	}

	groups := make(map[groupKey]*group, len(events))
	order := make([]*group, 0, len(events))

	for _, event := range events {
		g, ok := groups[event.groupKey]
		if !ok {
			g = &group{
				first: event,
			}
			groups[event.groupKey] = g
			order = append(order, g)
		}

		g.elapsed = append(g.elapsed, event.ElapsedSeconds)
		g.unmitigated = append(g.unmitigated, float64(*event.UnmitigatedAmount))
	}

	rows := make([]ProfileRow, 0, len(order))
	for _, g := range order {
		elapsed := Median(g.elapsed)

		rows = append(rows, ProfileRow{
			ElapsedSeconds:    elapsed,
			FormattedTime:     FormatElapsed(elapsed),
			AbilityName:       g.first.AbilityName,
			AbilityID:         g.first.AbilityID,
			UnmitigatedAmount: int64(Median(g.unmitigated)),
			Description:       g.first.Description,
			DamageType:        g.first.DamageType,
			DamageTypeID:      g.first.DamageTypeID,
			Category:          g.first.Category,
			Hits:              len(g.elapsed),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ElapsedSeconds < rows[j].ElapsedSeconds
	})

	return rows
}

// TankProfile lists every hit taken by a tank from an ability flagged as tank damage.
func (d *IncomingDamage) TankProfile(filterVulns bool) []TankHit {
	hits := make([]TankHit, 0, 64)

	for i := range d.Events {
		event := &d.Events[i]

		if !event.IsTank || !event.IsTankDamage {
			continue
		}
		if event.UnmitigatedAmount == nil || *event.UnmitigatedAmount >= d.tankCeiling {
			continue
		}
		if filterVulns && event.IsVulnDamage {
			continue
		}

		hits = append(hits, TankHit{
			ElapsedSeconds:    event.ElapsedSeconds,
			FormattedTime:     event.FormattedTime,
			AbilityName:       event.AbilityName,
			AbilityID:         event.AbilityID,
			UnmitigatedAmount: *event.UnmitigatedAmount,
			TargetID:          event.TargetID,
			TargetName:        d.PlayerName(event.TargetID),
			Description:       event.Description,
			DamageType:        event.DamageType,
			DamageTypeID:      event.DamageTypeID,
			IsVulnDamage:      event.IsVulnDamage,
		})
	}

	return hits
}
