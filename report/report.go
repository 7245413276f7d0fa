package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ffxiv_damage/analysis"
	"ffxiv_damage/share"

	"github.com/pkg/errors"
)

const (
	PageTitle = "FFXIV Incoming Damage Timeline"

	DefaultOutput = "docs/index.html"
)

//go:embed resources/*.tmpl.htm
var resourceFS embed.FS

var (
	tmplPage = template.Must(
		template.New("page.tmpl.htm").
			Funcs(template.FuncMap(share.TemplateFuncMap)).
			ParseFS(resourceFS, "resources/*.tmpl.htm"),
	)

	tmplBufferPool = sync.Pool{
		New: func() interface{} {
			b := new(bytes.Buffer)
			b.Grow(256 * 1024)

			return b
		},
	}
)

// Section is the rendered result of one fight. Err is set when the fight could not be processed.
type Section struct {
	Name     string
	Anchor   string
	ReportID string
	FightID  int

	Damage *analysis.IncomingDamage
	Party  []analysis.ProfileRow
	Tank   []analysis.TankHit

	PartyChart template.HTML
	TankChart  template.HTML

	Err error
}

type SectionOptions struct {
	DropUncategorized bool
	FilterTankVulns   bool
	ColorTankByTarget bool
}

func NewSection(name string, d *analysis.IncomingDamage, opt SectionOptions) (*Section, error) {
	s := &Section{
		Name:     name,
		Anchor:   anchor(name),
		ReportID: d.ReportID,
		FightID:  d.FightID,
		Damage:   d,
		Party:    d.PartyProfile(opt.DropUncategorized),
		Tank:     d.TankProfile(opt.FilterTankVulns),
	}

	partySVG, err := PartyChart(fmt.Sprintf("%s Party damage", name), s.Party)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	tankSVG, err := TankChart(fmt.Sprintf("%s tank damage", name), s.Tank, opt.ColorTankByTarget)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}

	s.PartyChart = template.HTML(partySVG)
	s.TankChart = template.HTML(tankSVG)

	return s, nil
}

func ErrorSection(name string, reportID string, fightID int, err error) *Section {
	return &Section{
		Name:     name,
		Anchor:   anchor(name),
		ReportID: reportID,
		FightID:  fightID,
		Err:      err,
	}
}

func (s *Section) Failed() bool {
	return s.Err != nil
}

func (s *Section) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

func (s *Section) LogURL() string {
	return fmt.Sprintf("https://www.fflogs.com/reports/%s#fight=%d", s.ReportID, s.FightID)
}

func anchor(name string) string {
	var sb strings.Builder
	sb.WriteString("fight-")
	for _, r := range strings.ToLower(name) {
		switch {
		case 'a' <= r && r <= 'z', '0' <= r && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// Templates is the page layout, used to invalidate cached sections.
func Templates() fs.FS {
	return resourceFS
}

type Page struct {
	Title       string
	GeneratedAt time.Time
	Sections    []*Section
}

func NewPage(sections []*Section) *Page {
	return &Page{
		Title:       PageTitle,
		GeneratedAt: time.Now().UTC(),
		Sections:    sections,
	}
}

func Render(w io.Writer, page *Page) error {
	return execute(w, "page.tmpl.htm", page)
}

// RenderSection renders a single fight section, as embedded by the page.
func RenderSection(w io.Writer, s *Section) error {
	return execute(w, "section", s)
}

func execute(w io.Writer, name string, data interface{}) error {
	buf := tmplBufferPool.Get().(*bytes.Buffer)
	defer tmplBufferPool.Put(buf)
	buf.Reset()

	if err := tmplPage.ExecuteTemplate(buf, name, data); err != nil {
		return errors.WithStack(err)
	}

	_, err := buf.WriteTo(w)
	return errors.WithStack(err)
}

// WriteFile renders the page to path, creating its directory.
func WriteFile(path string, page *Page) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WithStack(err)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	if err := Render(f, page); err != nil {
		return err
	}
	return errors.WithStack(f.Close())
}
