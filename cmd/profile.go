// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/Thermoquad/hubctl/pkg/hubconfig"
	"github.com/Thermoquad/hubctl/pkg/lpf2"
	"github.com/spf13/cobra"
)

var profileList bool

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Print the hub model table in YAML",
	Long: `Print the port table, sensor decoders and telemetry layout used for the hub
selected with --hub, or the one loaded from --profile.

The output is a complete profile file. Save it, edit the ports or devices,
and pass it back with --profile to drive hubs that differ from the built-in
tables.

Use --list to show the built-in hub families.`,
	RunE: runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().BoolVar(&profileList, "list", false, "List built-in hub families")
}

func runProfile(cmd *cobra.Command, args []string) error {
	if profileList {
		for _, f := range []lpf2.Family{lpf2.FamilyMoveHub, lpf2.FamilyHub, lpf2.FamilyRemote, lpf2.FamilyDuploTrain} {
			p, err := lpf2.ProfileForFamily(f)
			if err != nil {
				return err
			}
			fmt.Printf("%-8s %s (%d ports)\n", f, p.Name, len(p.Ports))
		}
		return nil
	}

	profile, err := loadProfile()
	if err != nil {
		return err
	}
	return hubconfig.Dump(os.Stdout, profile)
}
