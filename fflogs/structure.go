package fflogs

type Fight struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	EncounterID int    `json:"encounterID"`
	Difficulty  *int   `json:"difficulty"`
	Kill        *bool  `json:"kill"`
	StartTime   int64  `json:"startTime"`
	EndTime     int64  `json:"endTime"`
}

// Duration in milliseconds.
func (f *Fight) Duration() int64 {
	return f.EndTime - f.StartTime
}

type PlayerDetail struct {
	Name   string `json:"name"`
	ID     int    `json:"id"`
	GUID   int64  `json:"guid"`
	Type   string `json:"type"`
	Server string `json:"server"`
	Icon   string `json:"icon"`
}

type PlayerDetails struct {
	Tanks   []PlayerDetail `json:"tanks"`
	Healers []PlayerDetail `json:"healers"`
	Dps     []PlayerDetail `json:"dps"`
}

type Aura struct {
	Name        string `json:"name"`
	GUID        int    `json:"guid"`
	Type        int    `json:"type"`
	AbilityIcon string `json:"abilityIcon"`
	TotalUptime int64  `json:"totalUptime"`
	TotalUses   int    `json:"totalUses"`
}

type Ability struct {
	Name        string `json:"name"`
	GUID        int    `json:"guid"`
	Type        int    `json:"type"`
	AbilityIcon string `json:"abilityIcon"`
}

// Event is one DamageTaken event as returned with useAbilityIDs: false.
type Event struct {
	Timestamp         int64    `json:"timestamp"`
	Type              string   `json:"type"`
	SourceID          int      `json:"sourceID"`
	TargetID          int      `json:"targetID"`
	PacketID          *int64   `json:"packetID"`
	HitType           int      `json:"hitType"`
	Amount            int64    `json:"amount"`
	UnmitigatedAmount *int64   `json:"unmitigatedAmount"`
	Absorbed          int64    `json:"absorbed"`
	Multiplier        *float64 `json:"multiplier"`
	Buffs             string   `json:"buffs"`
	Ability           *Ability `json:"ability"`
}

// StartingEvent keeps only the fields shared by every event type.
type StartingEvent struct {
	Timestamp int64  `json:"timestamp"`
	Type      string `json:"type"`
}

// FightData is everything fetched for one fight.
type FightData struct {
	ReportID string `json:"report_id"`
	FightID  int    `json:"fight_id"`
	Title    string `json:"title"`

	Fight   Fight          `json:"fight"`
	Players []PlayerDetail `json:"players"`
	Debuffs []Aura         `json:"debuffs"`

	StartingEvents []StartingEvent `json:"starting_events"`
	Events         []Event         `json:"events"`
}

////////////////////////////////////////////////////////////////////////////////////////////////////

type respFightSummary struct {
	ReportData struct {
		Report *struct {
			Title         string  `json:"title"`
			Fights        []Fight `json:"fights"`
			PlayerDetails struct {
				Data struct {
					PlayerDetails PlayerDetails `json:"playerDetails"`
				} `json:"data"`
			} `json:"playerDetails"`
			BuffTable struct {
				Data struct {
					Auras []Aura `json:"auras"`
				} `json:"data"`
			} `json:"buffTable"`
			StartingEvent struct {
				Data []StartingEvent `json:"data"`
			} `json:"startingEvent"`
		} `json:"report"`
	} `json:"reportData"`
}

type respDamageTaken struct {
	ReportData struct {
		Report *struct {
			Events struct {
				Data              []Event `json:"data"`
				NextPageTimestamp *int64  `json:"nextPageTimestamp"`
			} `json:"events"`
		} `json:"report"`
	} `json:"reportData"`
}
