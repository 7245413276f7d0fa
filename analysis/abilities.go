package analysis

import (
	"sort"
)

type AbilityInfo struct {
	AbilityName  string `json:"ability_name"`
	AbilityID    int    `json:"ability_id"`
	DamageTypeID int    `json:"damage_type_id"`
	DamageType   string `json:"damage_type"`
	Category     string `json:"damage_category"`
	IsTankDamage bool   `json:"is_tank_damage"`
	Description  string `json:"description"`
	Hits         int    `json:"hits"`
	TankHits     int    `json:"tank_hits"`
}

// Abilities lists every distinct damaging ability seen in the fight, ordered by id.
func (d *IncomingDamage) Abilities() []AbilityInfo {
	type abilityKey struct {
		name   string
		id     int
		typeID int
	}

	index := make(map[abilityKey]int, 64)
	abilities := make([]AbilityInfo, 0, 64)

	for i := range d.Events {
		event := &d.Events[i]

		key := abilityKey{event.AbilityName, event.AbilityID, event.DamageTypeID}
		idx, ok := index[key]
		if !ok {
			idx = len(abilities)
			index[key] = idx
			abilities = append(abilities, AbilityInfo{
				AbilityName:  event.AbilityName,
				AbilityID:    event.AbilityID,
				DamageTypeID: event.DamageTypeID,
				DamageType:   event.DamageType,
				Category:     event.Category,
				IsTankDamage: event.IsTankDamage,
				Description:  event.Description,
			})
		}

		abilities[idx].Hits++
		if event.IsTank {
			abilities[idx].TankHits++
		}
	}

	sort.SliceStable(abilities, func(i, j int) bool {
		if abilities[i].AbilityID != abilities[j].AbilityID {
			return abilities[i].AbilityID < abilities[j].AbilityID
		}
		return abilities[i].AbilityName < abilities[j].AbilityName
	})

	return abilities
}
