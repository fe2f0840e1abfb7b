// Copyright © 2025 Jake Rogers <code@supportoss.org>
package cmd

import (
	"fmt"

	"github.com/JakeTRogers/importBuddy/loader"
	"github.com/spf13/cobra"
)

// defaultPackage is the Python binding package of the Zinc toolkit.
const defaultPackage = "opencmiss.zinc"

// submodulesAll is the canonical set of Zinc binding submodules, in the order
// they are reported.
var submodulesAll = []string{
	"context",
	"differentialoperator",
	"element",
	"field",
	"fieldcache",
	"fieldmodule",
	"graphics",
	"material",
	"node",
	"optimisation",
	"region",
	"scene",
	"scenecoordinatesystem",
	"scenefilter",
	"sceneviewer",
	"sceneviewerinput",
	"selection",
	"spectrum",
	"status",
	"stream",
	"tessellation",
	"timekeeper",
	"timenotifier",
	"timesequence",
}

// listSubmodules returns the canonical names, qualified with pkg when pkg is set.
func listSubmodules(pkg string) []string {
	out := make([]string, len(submodulesAll))
	for i, name := range submodulesAll {
		if pkg == "" {
			out[i] = name
		} else {
			out[i] = loader.Qualify(pkg, name)
		}
	}
	return out
}

// NewListCmd creates and returns a new list command.
// Each call returns a fresh instance for test isolation.
func NewListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the submodules checked by default",
		Long: `List the canonical Zinc submodule names that importBuddy checks when no --name flag is given.

Examples:
  $ importBuddy list
  $ importBuddy list --qualified --package opencmiss.zinc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			qualified, _ := cmd.Flags().GetBool("qualified")
			pkg := ""
			if qualified {
				pkg, _ = cmd.Flags().GetString("package")
			}
			for _, name := range listSubmodules(pkg) {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	listCmd.Flags().BoolP("qualified", "q", false, "prefix each name with the parent package")
	listCmd.Flags().StringP("package", "p", defaultPackage, "parent package used with --qualified")

	return listCmd
}
