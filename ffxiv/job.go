package ffxiv

import "strings"

var (
	JobOrder = map[string]int{
		"Paladin":    11,
		"Warrior":    12,
		"DarkKnight": 13,
		"Gunbreaker": 14,

		"WhiteMage":   20,
		"Scholar":     21,
		"Astrologian": 22,
		"Sage":        23,

		"Monk":    31,
		"Dragoon": 32,
		"Ninja":   33,
		"Samurai": 34,
		"Reaper":  35,
		"Viper":   36,

		"Bard":      40,
		"Machinist": 41,
		"Dancer":    42,

		"BlackMage":   50,
		"Summoner":    51,
		"RedMage":     52,
		"Pictomancer": 53,
	}

	tankJobs = map[string]bool{
		"DarkKnight": true,
		"Gunbreaker": true,
		"Warrior":    true,
		"Paladin":    true,
	}
)

// JobRank orders jobs by role as FFLogs lists them. Unknown jobs sort last.
func JobRank(job string) int {
	if idx := strings.IndexByte(job, '-'); idx >= 0 {
		job = job[:idx]
	}
	if rank, ok := JobOrder[job]; ok {
		return rank
	}
	return 99
}

// IsTank reports whether job (an FFLogs icon or type such as "Paladin") is a tank job.
// Icons with a specialization suffix ("Paladin-Paladin") are matched on the job part.
func IsTank(job string) bool {
	if idx := strings.IndexByte(job, '-'); idx >= 0 {
		job = job[:idx]
	}
	return tankJobs[job]
}
