package report

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

var (
	partyHeader = []interface{}{"Time", "Elapsed (s)", "Ability", "Ability ID", "Unmitigated", "Damage Type", "Category", "Hits", "Description"}
	tankHeader  = []interface{}{"Time", "Elapsed (s)", "Ability", "Ability ID", "Target", "Unmitigated", "Damage Type", "Vulnerability", "Description"}

	sheetNameReplacer = strings.NewReplacer(
		"[", "(", "]", ")",
		":", "-", "*", "-", "?", "-", "/", "-", "\\", "-",
	)
)

func sheetName(name string, suffix string) string {
	name = sheetNameReplacer.Replace(name)
	if len(name)+len(suffix) > maxSheetName {
		name = name[:maxSheetName-len(suffix)]
	}
	return name + suffix
}

// WriteXLSX exports the party and tank tables of every successful section, two sheets per fight.
func WriteXLSX(path string, sections []*Section) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WithStack(err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.WithStack(err)
	}

	written := 0
	for _, s := range sections {
		if s.Failed() {
			continue
		}

		party := sheetName(s.Name, " Party")
		if _, err := f.NewSheet(party); err != nil {
			return errors.WithStack(err)
		}
		if err := f.SetSheetRow(party, "A1", &partyHeader); err != nil {
			return errors.WithStack(err)
		}
		for i, row := range s.Party {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			values := []interface{}{
				row.FormattedTime, row.ElapsedSeconds, row.AbilityName, row.AbilityID,
				row.UnmitigatedAmount, row.DamageType, row.Category, row.Hits, row.Description,
			}
			if err := f.SetSheetRow(party, cell, &values); err != nil {
				return errors.WithStack(err)
			}
		}

		tank := sheetName(s.Name, " Tank")
		if _, err := f.NewSheet(tank); err != nil {
			return errors.WithStack(err)
		}
		if err := f.SetSheetRow(tank, "A1", &tankHeader); err != nil {
			return errors.WithStack(err)
		}
		for i, hit := range s.Tank {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			values := []interface{}{
				hit.FormattedTime, hit.ElapsedSeconds, hit.AbilityName, hit.AbilityID,
				hit.TargetName, hit.UnmitigatedAmount, hit.DamageType, hit.IsVulnDamage, hit.Description,
			}
			if err := f.SetSheetRow(tank, cell, &values); err != nil {
				return errors.WithStack(err)
			}
		}

		for _, sheet := range []string{party, tank} {
			if err := f.SetCellStyle(sheet, "A1", "I1", headerStyle); err != nil {
				return errors.WithStack(err)
			}
			if err := f.SetColWidth(sheet, "C", "C", 28); err != nil {
				return errors.WithStack(err)
			}
			if err := f.SetColWidth(sheet, "I", "I", 40); err != nil {
				return errors.WithStack(err)
			}
		}

		written++
	}

	if written == 0 {
		return errors.New("no fight to export")
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return errors.WithStack(err)
	}
	f.SetActiveSheet(0)

	return errors.WithStack(f.SaveAs(path))
}
