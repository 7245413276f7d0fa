package ffxiv

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dimchansky/utfbom"
	"github.com/pkg/errors"
)

const CategoryParty = "party"

// Category is the hand-maintained classification of one boss ability.
type Category struct {
	AbilityID    int    `json:"ability_id" yaml:"ability_id"`
	AbilityName  string `json:"ability_name" yaml:"ability_name"`
	Category     string `json:"damage_category" yaml:"damage_category"`
	IsTankDamage bool   `json:"is_tank_damage" yaml:"is_tank_damage"`
	Description  string `json:"description" yaml:"description"`
}

type Categories map[int]Category

var CategoryHeader = []string{"ability_id", "ability_name", "damage_category", "is_tank_damage", "description"}

func LoadCategoriesFile(path string) (Categories, error) {
	fs, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer fs.Close()

	c, err := ReadCategories(fs)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return c, nil
}

// ReadCategories parses category rows in CategoryHeader order.
// The header line is optional and lines starting with '#' are ignored.
// A row holding only an id and a category is the short form: not tank damage, no name, no description.
func ReadCategories(r io.Reader) (Categories, error) {
	sr, _ := utfbom.Skip(r)

	cr := csv.NewReader(sr)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	c := make(Categories)
	for {
		d, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WithStack(err)
		}

		if len(d) == 0 || strings.TrimSpace(d[0]) == "" || d[0] == CategoryHeader[0] {
			continue
		}

		line, _ := cr.FieldPos(0)

		id, err := strconv.Atoi(strings.TrimSpace(d[0]))
		if err != nil {
			return nil, errors.Errorf("line %d: invalid ability id %q", line, d[0])
		}
		if _, ok := c[id]; ok {
			return nil, errors.Errorf("line %d: duplicated ability id %d", line, id)
		}

		var cat Category
		cat.AbilityID = id

		switch len(d) {
		case 2:
			cat.Category = strings.TrimSpace(d[1])
		case 5:
			cat.AbilityName = strings.TrimSpace(d[1])
			cat.Category = strings.TrimSpace(d[2])
			if v := strings.TrimSpace(d[3]); v != "" {
				cat.IsTankDamage, err = strconv.ParseBool(v)
				if err != nil {
					return nil, errors.Errorf("line %d: invalid is_tank_damage %q", line, d[3])
				}
			}
			cat.Description = strings.TrimSpace(d[4])
		default:
			return nil, errors.Errorf("line %d: expected 2 or %d fields, got %d", line, len(CategoryHeader), len(d))
		}

		if cat.Category == "" {
			return nil, errors.Errorf("line %d: ability %d has no damage category", line, id)
		}

		c[id] = cat
	}

	return c, nil
}
