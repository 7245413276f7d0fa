package analysis

import (
	"strconv"
	"strings"

	"ffxiv_damage/ffxiv"
	"ffxiv_damage/fflogs"
)

// DamageEvent is one damage taken event with its classification.
type DamageEvent struct {
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	FormattedTime  string  `json:"formatted_time"`

	PacketID          *int64 `json:"packet_id"`
	HitType           int    `json:"hit_type"`
	Amount            int64  `json:"amount"`
	UnmitigatedAmount *int64 `json:"unmitigated_amount"`
	TargetID          int    `json:"target_id"`
	Buffs             []int  `json:"buffs"`

	AbilityName  string `json:"ability_name"`
	AbilityID    int    `json:"ability_id"`
	DamageTypeID int    `json:"damage_type_id"`
	DamageType   string `json:"damage_type"`

	IsTank       bool `json:"is_tank"`
	IsVulnDamage bool `json:"is_vuln_damage"`

	// empty when the ability has no entry in the category table
	Category     string `json:"damage_category"`
	IsTankDamage bool   `json:"is_tank_damage"`
	Description  string `json:"description"`

	groupKey groupKey
}

func (e *DamageEvent) Categorized() bool {
	return e.Category != ""
}

// groupKey merges the hits of one cast: a party-wide ability lands on every player in a
// single packet, anything else is merged by exact time.
type groupKey struct {
	byPacket bool
	packetID int64
	elapsed  float64
}

func damageEvents(
	raw []fflogs.Event,
	start int64,
	tankIDs []int,
	vulnIDs []int,
	categories ffxiv.Categories,
) []DamageEvent {
	tanks := make(map[int]struct{}, len(tankIDs))
	for _, id := range tankIDs {
		tanks[id] = struct{}{}
	}
	vulns := make(map[int]struct{}, len(vulnIDs))
	for _, id := range vulnIDs {
		vulns[id] = struct{}{}
	}

	events := make([]DamageEvent, 0, len(raw))
	for _, event := range raw {
		if event.Type != eventTypeDamage {
			continue
		}

		elapsed := float64(event.Timestamp-start) / 1000

		de := DamageEvent{
			ElapsedSeconds:    elapsed,
			FormattedTime:     FormatElapsed(elapsed),
			PacketID:          event.PacketID,
			HitType:           event.HitType,
			Amount:            event.Amount,
			UnmitigatedAmount: event.UnmitigatedAmount,
			TargetID:          event.TargetID,
			Buffs:             ParseBuffs(event.Buffs),
		}

		if event.Ability != nil {
			de.AbilityName = event.Ability.Name
			de.AbilityID = event.Ability.GUID
			de.DamageTypeID = event.Ability.Type
		}
		de.DamageType = ffxiv.DamageType(de.DamageTypeID)

		_, de.IsTank = tanks[event.TargetID]
		for _, buff := range de.Buffs {
			if _, ok := vulns[buff]; ok {
				de.IsVulnDamage = true
				break
			}
		}

		if cat, ok := categories[de.AbilityID]; ok {
			de.Category = cat.Category
			de.IsTankDamage = cat.IsTankDamage
			de.Description = cat.Description
			if de.AbilityName == "" {
				de.AbilityName = cat.AbilityName
			}
		}

		if de.Category == ffxiv.CategoryParty && de.PacketID != nil {
			de.groupKey = groupKey{byPacket: true, packetID: *de.PacketID}
		} else {
			de.groupKey = groupKey{elapsed: elapsed}
		}

		events = append(events, de)
	}

	return events
}

// ParseBuffs reads the dotted buff list of an event ("1001203.1000049.").
// Entries that are not numbers are skipped.
func ParseBuffs(s string) []int {
	s = strings.TrimRight(s, ".")
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ".")
	buffs := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		buffs = append(buffs, id)
	}
	return buffs
}
