package fights

import (
	"io"
	"os"
	"path/filepath"
	"regexp"

	"ffxiv_damage/analysis"
	"ffxiv_damage/ffxiv"
	"ffxiv_damage/report"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var regReportID = regexp.MustCompile(`^[A-Za-z0-9]{16}$`)

func ValidReportID(reportID string) bool {
	return regReportID.MatchString(reportID)
}

// Fight is one preset entry: the log to fetch and how to classify its damage.
type Fight struct {
	Name     string `yaml:"name"`
	ReportID string `yaml:"report_id"`
	FightID  int    `yaml:"fight_id"`

	// path of the category CSV, relative to the presets file
	CategoriesPath string `yaml:"categories"`

	PartyDamageCeiling  int64 `yaml:"party_damage_ceiling,omitempty"`
	TankDamageCeiling   int64 `yaml:"tank_damage_ceiling,omitempty"`
	FilterUncategorized *bool `yaml:"filter_uncategorized,omitempty"`
	FilterTankVulns     bool  `yaml:"filter_tank_vulns,omitempty"`
	ColorTankByTarget   bool  `yaml:"color_tank_by_target,omitempty"`

	Disabled bool `yaml:"disabled,omitempty"`

	categories ffxiv.Categories
}

func (f *Fight) Categories() ffxiv.Categories {
	return f.categories
}

// Uncategorized rows are dropped from the party profile unless the preset says otherwise.
func (f *Fight) DropUncategorized() bool {
	return f.FilterUncategorized == nil || *f.FilterUncategorized
}

func (f *Fight) SectionOptions() report.SectionOptions {
	return report.SectionOptions{
		DropUncategorized: f.DropUncategorized(),
		FilterTankVulns:   f.FilterTankVulns,
		ColorTankByTarget: f.ColorTankByTarget,
	}
}

func (f *Fight) AnalysisOptions() analysis.Options {
	return analysis.Options{
		Categories:         f.categories,
		PartyDamageCeiling: f.PartyDamageCeiling,
		TankDamageCeiling:  f.TankDamageCeiling,
	}
}

// WithLog copies the preset for another log of the same encounter.
func (f *Fight) WithLog(reportID string, fightID int) *Fight {
	nf := *f
	nf.ReportID = reportID
	nf.FightID = fightID
	return &nf
}

type Presets struct {
	Fights []*Fight `yaml:"fights"`

	byName map[string]*Fight
}

func Load(path string) (*Presets, error) {
	fs, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer fs.Close()

	p, err := Read(fs, filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return p, nil
}

// Read decodes a presets document and loads the category table of every enabled fight.
// Category paths are resolved against baseDir.
func Read(r io.Reader, baseDir string) (*Presets, error) {
	var p Presets

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && err != io.EOF {
		return nil, errors.WithStack(err)
	}

	p.byName = make(map[string]*Fight, len(p.Fights))
	loaded := make(map[string]ffxiv.Categories)

	for i, f := range p.Fights {
		if f == nil {
			return nil, errors.Errorf("fights[%d]: empty entry", i)
		}
		if f.Name == "" {
			return nil, errors.Errorf("fights[%d]: name is required", i)
		}
		if _, ok := p.byName[f.Name]; ok {
			return nil, errors.Errorf("fights[%d]: duplicated name %q", i, f.Name)
		}
		p.byName[f.Name] = f

		if f.Disabled {
			continue
		}

		if !ValidReportID(f.ReportID) {
			return nil, errors.Errorf("%s: invalid report_id %q", f.Name, f.ReportID)
		}
		if f.FightID <= 0 {
			return nil, errors.Errorf("%s: invalid fight_id %d", f.Name, f.FightID)
		}
		if f.PartyDamageCeiling < 0 || f.TankDamageCeiling < 0 {
			return nil, errors.Errorf("%s: damage ceilings must not be negative", f.Name)
		}

		if f.CategoriesPath == "" {
			f.categories = ffxiv.Categories{}
			continue
		}

		path := f.CategoriesPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}

		c, ok := loaded[path]
		if !ok {
			var err error
			c, err = ffxiv.LoadCategoriesFile(path)
			if err != nil {
				return nil, errors.Wrap(err, f.Name)
			}
			loaded[path] = c
		}
		f.categories = c
	}

	return &p, nil
}

func (p *Presets) Get(name string) (*Fight, bool) {
	f, ok := p.byName[name]
	if !ok || f.Disabled {
		return nil, false
	}
	return f, true
}

// Enabled returns the fights to render, in file order.
func (p *Presets) Enabled() []*Fight {
	l := make([]*Fight, 0, len(p.Fights))
	for _, f := range p.Fights {
		if !f.Disabled {
			l = append(l, f)
		}
	}
	return l
}
