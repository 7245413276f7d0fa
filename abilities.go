package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"ffxiv_damage/analysis"
	"ffxiv_damage/ffxiv"
	"ffxiv_damage/fights"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var flagAbilitiesPreset string

var abilitiesCmd = &cobra.Command{
	Use:   "abilities <report id> <fight id>",
	Short: "Print the damaging abilities of a fight as category rows",
	Long: `Prints every ability that damaged the party in the category CSV layout.
Abilities without a category are commented out; fill damage_category and remove the leading '#'.`,
	Args: cobra.ExactArgs(2),
	RunE: runAbilities,
}

func init() {
	abilitiesCmd.Flags().StringVar(&flagAbilitiesPreset, "preset", "", "classify with the categories of this preset")
}

func runAbilities(cmd *cobra.Command, args []string) error {
	reportID := args[0]
	if !fights.ValidReportID(reportID) {
		return errors.Errorf("invalid report id %q", reportID)
	}
	fightID, err := strconv.Atoi(args[1])
	if err != nil || fightID <= 0 {
		return errors.Errorf("invalid fight id %q", args[1])
	}

	f := &fights.Fight{Name: "abilities"}
	if flagAbilitiesPreset != "" {
		presets, err := fights.Load(flagPresets)
		if err != nil {
			return err
		}
		preset, ok := presets.Get(flagAbilitiesPreset)
		if !ok {
			return errors.Errorf("unknown preset %q", flagAbilitiesPreset)
		}
		f = preset
	}
	f = f.WithLog(reportID, fightID)

	b, err := newFightBuilder(cfg)
	if err != nil {
		return err
	}

	d, err := b.Analyze(cmd.Context(), f, func(s string) { fmt.Fprintln(cmd.ErrOrStderr(), s) })
	if err != nil {
		return err
	}

	return writeAbilities(cmd.OutOrStdout(), d.Abilities())
}

func writeAbilities(w io.Writer, abilities []analysis.AbilityInfo) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ffxiv.CategoryHeader); err != nil {
		return errors.WithStack(err)
	}

	for _, a := range abilities {
		id := strconv.Itoa(a.AbilityID)
		description := a.Description
		if a.Category == "" {
			id = "#" + id
			description = fmt.Sprintf("%s, %d hits, %d on tanks", a.DamageType, a.Hits, a.TankHits)
		}

		err := cw.Write([]string{
			id,
			a.AbilityName,
			a.Category,
			strconv.FormatBool(a.IsTankDamage),
			description,
		})
		if err != nil {
			return errors.WithStack(err)
		}
	}

	cw.Flush()
	return errors.WithStack(cw.Error())
}
