package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/psantana5/clusterlambda/pkg/continuation"
	"github.com/spf13/cobra"
)

type inspectReport struct {
	Path      string    `json:"path" yaml:"path"`
	Kind      string    `json:"kind" yaml:"kind"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	GoVersion string    `json:"go_version" yaml:"go_version"`
	Value     string    `json:"value,omitempty" yaml:"value,omitempty"`
	Error     string    `json:"decode_error,omitempty" yaml:"decode_error,omitempty"`
}

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <artifact>",
	Short: "Decode a continuation artifact",
	Long: `Print the header of a continuation artifact and, when its variant is
known to this binary, the captured state.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]

	header, err := continuation.ReadHeader(path)
	if err != nil {
		return err
	}

	report := inspectReport{
		Path:      path,
		Kind:      header.Kind,
		CreatedAt: header.CreatedAt,
		GoVersion: header.GoVersion,
	}
	if artifact, err := continuation.Load(path); err != nil {
		report.Error = err.Error()
	} else {
		report.Value = fmt.Sprintf("%+v", artifact.Fn)
	}

	if done, err := printStructured(report); done {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")
	table.Append("Path", report.Path)
	table.Append("Kind", report.Kind)
	table.Append("Created At", report.CreatedAt.Format(time.RFC3339))
	table.Append("Go Version", report.GoVersion)
	if report.Value != "" {
		table.Append("Value", report.Value)
	}
	if report.Error != "" {
		table.Append("Decode Error", report.Error)
	}
	table.Render()
	return nil
}
