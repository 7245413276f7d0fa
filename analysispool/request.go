package analysispool

import (
	"strings"

	"ffxiv_damage/cache"
	"ffxiv_damage/fights"
)

// Request is the first message a client sends after "ready".
// ReportID and FightID are optional and point the preset at another log of the same encounter.
type Request struct {
	Preset    string `json:"preset"`
	ReportID  string `json:"report_id"`
	FightID   int    `json:"fight_id"`
	Recaptcha string `json:"recaptcha"`
}

func (p *Pool) resolve(req *Request) (*fights.Fight, bool) {
	req.Preset = strings.TrimSpace(req.Preset)
	req.ReportID = strings.TrimSpace(req.ReportID)

	preset, ok := p.presets.Get(req.Preset)
	if !ok {
		return nil, false
	}

	switch {
	case req.ReportID == "" && req.FightID == 0:
		return preset, true
	case !fights.ValidReportID(req.ReportID):
	case req.FightID <= 0:
	case req.FightID > 1000:
	default:
		return preset.WithLog(req.ReportID, req.FightID), true
	}

	return nil, false
}

func sectionKey(f *fights.Fight) uint64 {
	return cache.Key("section_%s_%s_fid_%d", f.Name, f.ReportID, f.FightID)
}
