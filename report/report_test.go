package report

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"ffxiv_damage/analysis"
	"ffxiv_damage/ffxiv"
	"ffxiv_damage/fflogs"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func i64(v int64) *int64 { return &v }

func testDamage(t *testing.T) *analysis.IncomingDamage {
	t.Helper()

	raidwide := &fflogs.Ability{Name: "Raidwide", GUID: 100, Type: 1024}
	buster := &fflogs.Ability{Name: "Tankbuster", GUID: 200, Type: 128}

	fd := &fflogs.FightData{
		ReportID: "HFK9wckdY1jCMZ27",
		FightID:  41,
		Title:    "Test <Report>",
		Fight:    fflogs.Fight{ID: 41, Name: "Boss", StartTime: 0, EndTime: 90000},
		Players: []fflogs.PlayerDetail{
			{ID: 1, Name: "Tank A", Icon: "Gunbreaker"},
			{ID: 3, Name: "Healer", Icon: "Sage"},
		},
		StartingEvents: []fflogs.StartingEvent{{Timestamp: 0, Type: "limitbreakupdate"}},
		Events: []fflogs.Event{
			{Timestamp: 10000, Type: "damage", TargetID: 3, PacketID: i64(1), UnmitigatedAmount: i64(123456), Ability: raidwide},
			{Timestamp: 15500, Type: "damage", TargetID: 1, UnmitigatedAmount: i64(350000), Ability: buster},
		},
	}

	d, err := analysis.New(fd, analysis.Options{
		Categories: ffxiv.Categories{
			100: {AbilityID: 100, Category: ffxiv.CategoryParty, Description: "Raid-wide"},
			200: {AbilityID: 200, Category: "tank", IsTankDamage: true, Description: "Buster"},
		},
	})
	require.NoError(t, err)
	return d
}

func testSections(t *testing.T) []*Section {
	t.Helper()

	ok, err := NewSection("M9N", testDamage(t), SectionOptions{DropUncategorized: true})
	require.NoError(t, err)

	failed := ErrorSection("M10N", "r6VFC3gRb4WzaDmw", 65, errors.New("report r6VFC3gRb4WzaDmw not found"))

	return []*Section{ok, failed}
}

func TestNewSection(t *testing.T) {
	s := testSections(t)[0]

	assert.Equal(t, "fight-m9n", s.Anchor)
	assert.False(t, s.Failed())
	require.Len(t, s.Party, 1)
	require.Len(t, s.Tank, 1)
	assert.Equal(t, "Tank A", s.Tank[0].TargetName)
	assert.Contains(t, string(s.PartyChart), "<svg")
	assert.Contains(t, string(s.PartyChart), "M9N Party damage")
	assert.Contains(t, string(s.TankChart), "M9N tank damage")
	assert.Equal(t, "https://www.fflogs.com/reports/HFK9wckdY1jCMZ27#fight=41", s.LogURL())
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, NewPage(testSections(t))))

	html := buf.String()
	for _, want := range []string{
		PageTitle,
		"Quick Navigation",
		`href="#fight-m9n"`,
		`href="#fight-m10n"`,
		`id="fight-m9n"`,
		"Party Damage Timeline",
		"Party Damage Chart",
		"Tank Damage Chart",
		"00:10.000",
		"123,456",
		"350,000",
		"Raid-wide",
		"Test &lt;Report&gt;",
		"alert-danger",
		"report r6VFC3gRb4WzaDmw not found",
		"Generated with FFLogs API data",
	} {
		assert.Contains(t, html, want)
	}
	assert.Equal(t, 2, strings.Count(html, "<svg"))
}

func TestRenderSection(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSection(&buf, testSections(t)[1]))

	html := buf.String()
	assert.True(t, strings.HasPrefix(html, `<section id="fight-m10n"`))
	assert.Contains(t, html, "Failed to process M10N")
	assert.NotContains(t, html, "Quick Navigation")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs", "index.html")
	require.NoError(t, WriteFile(path, NewPage(testSections(t))))
	assert.FileExists(t, path)
}

func TestCharts(t *testing.T) {
	svg, err := PartyChart("empty", nil)
	require.NoError(t, err)
	assert.Empty(t, svg)

	hits := []analysis.TankHit{
		{ElapsedSeconds: 10, FormattedTime: "00:10.000", UnmitigatedAmount: 100, TargetID: 1, DamageType: ffxiv.DamageTypePhysical},
		{ElapsedSeconds: 20, FormattedTime: "00:20.000", UnmitigatedAmount: 200, TargetID: 2, DamageType: ffxiv.DamageTypePhysical},
	}
	svg, err = TankChart("tanks", hits, true)
	require.NoError(t, err)
	assert.Contains(t, svg, "<svg")

	assert.Contains(t, svg, "tanks")

	min, max := timelineRange([]stem{{elapsed: 30}, {elapsed: 2}, {elapsed: 90}})
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 95.0, max)
	min, max = timelineRange([]stem{{elapsed: 60}})
	assert.Equal(t, 55.0, min)
	assert.Equal(t, 65.0, max)

	assert.Equal(t, "01:05", axisLabel("01:05.250"))
	assert.Equal(t, colorMagical, damageTypeColor(ffxiv.DamageTypeMagical))
	assert.Equal(t, colorUnknown, damageTypeColor(ffxiv.DamageTypeUnknown))
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "damage.xlsx")
	require.NoError(t, WriteXLSX(path, testSections(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"M9N Party", "M9N Tank"}, f.GetSheetList())

	rows, err := f.GetRows("M9N Party")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Time", rows[0][0])
	assert.Equal(t, "00:10.000", rows[1][0])
	assert.Equal(t, "Raidwide", rows[1][2])

	rows, err = f.GetRows("M9N Tank")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Tank A", rows[1][4])

	err = WriteXLSX(filepath.Join(t.TempDir(), "none.xlsx"), testSections(t)[1:])
	assert.Error(t, err)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "A-B (x) Party", sheetName("A/B [x]", " Party"))
	assert.Len(t, sheetName(strings.Repeat("a", 40), " Party"), maxSheetName)
}
