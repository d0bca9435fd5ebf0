package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/psantana5/clusterlambda/internal/catalog"
	"github.com/psantana5/clusterlambda/internal/manifest"
	"github.com/spf13/cobra"
)

type manifestReport struct {
	Archive    string   `json:"archive" yaml:"archive"`
	References []string `json:"references" yaml:"references"`
	Resolved   []string `json:"resolved" yaml:"resolved"`
}

// manifestCmd represents the manifest command
var manifestCmd = &cobra.Command{
	Use:   "manifest <archive>",
	Short: "Show the Class-Path references of an archive",
	Long:  `Read META-INF/MANIFEST.MF from an archive and print its Class-Path references with the locations they resolve to.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runManifest,
}

func init() {
	rootCmd.AddCommand(manifestCmd)
}

func runManifest(cmd *cobra.Command, args []string) error {
	archive := args[0]

	m, err := manifest.ReadArchive(archive)
	if errors.Is(err, manifest.ErrNoManifest) {
		fmt.Printf("%s has no manifest\n", archive)
		return nil
	}
	if err != nil {
		return err
	}

	entry, err := catalog.NewEntry("manifest", archive)
	if err != nil {
		return err
	}
	expanded, err := manifest.NewExpander(newLogger()).Expand(entry)
	if err != nil {
		return err
	}

	report := manifestReport{Archive: entry.Location, References: m.References()}
	for _, e := range expanded {
		if e.Derived() {
			report.Resolved = append(report.Resolved, e.Location)
		}
	}

	if done, err := printStructured(report); done {
		return err
	}

	if len(report.References) == 0 {
		fmt.Printf("%s declares no Class-Path references\n", archive)
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Reference", "Resolved")
	for i, ref := range report.References {
		resolved := ""
		if i < len(report.Resolved) {
			resolved = report.Resolved[i]
		}
		table.Append(ref, resolved)
	}
	table.Render()
	return nil
}
