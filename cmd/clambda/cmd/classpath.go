package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/psantana5/clusterlambda/internal/catalog"
	"github.com/psantana5/clusterlambda/internal/classpath"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	searchPath string
	loaderID   string
)

type classpathEntry struct {
	Path   string `json:"path" yaml:"path"`
	Origin string `json:"origin,omitempty" yaml:"origin,omitempty"`
}

type classpathReport struct {
	Loader     string           `json:"loader" yaml:"loader"`
	Entries    []classpathEntry `json:"entries" yaml:"entries"`
	Incomplete string           `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
}

// classpathCmd represents the classpath command
var classpathCmd = &cobra.Command{
	Use:   "classpath",
	Short: "Print the artifacts that would be shipped",
	Long: `Scan the process, expand archive manifests and print the ordered list of
artifacts a continuation submitted from this context would ship.`,
	RunE: runClasspath,
}

func init() {
	rootCmd.AddCommand(classpathCmd)
	addContextFlags(classpathCmd)
}

// addContextFlags adds the flags that select the execution context
func addContextFlags(c *cobra.Command) {
	c.Flags().StringVar(&searchPath, "search-path", "", "application search path, list-separated; dir/* expands to its archives (default $CLAMBDA_SEARCH_PATH)")
	c.Flags().StringVar(&loaderID, "loader", "", "loader identity to ship (default: this binary)")
}

func executionContext() catalog.ExecutionContext {
	sp := searchPath
	if sp == "" {
		sp = viper.GetString("search_path")
	}
	ctx := catalog.CurrentContext(catalog.SplitSearchPath(sp))
	if loaderID != "" {
		ctx.LoaderIdentity = loaderID
	}
	return ctx
}

func runClasspath(cmd *cobra.Command, args []string) error {
	execCtx := executionContext()
	res, err := classpath.NewAssembler(newLogger()).AssembleDetailed(execCtx)
	if err != nil {
		return err
	}

	report := classpathReport{Loader: execCtx.LoaderIdentity}
	for i, p := range res.Paths {
		report.Entries = append(report.Entries, classpathEntry{Path: p, Origin: res.Entries[i].Origin})
	}
	if res.Incomplete != nil {
		report.Incomplete = res.Incomplete.Error()
	}

	if done, err := printStructured(report); done {
		return err
	}

	if len(report.Entries) == 0 {
		fmt.Printf("No artifacts found for loader %s\n", report.Loader)
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Path", "Declared By")
	for i, e := range report.Entries {
		table.Append(fmt.Sprintf("%d", i+1), e.Path, e.Origin)
	}
	table.Render()

	if report.Incomplete != "" {
		fmt.Printf("\nWarning: %s\n", report.Incomplete)
	}
	return nil
}
