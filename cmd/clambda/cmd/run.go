package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/psantana5/clusterlambda/internal/demo"
	"github.com/psantana5/clusterlambda/internal/metrics"
	"github.com/psantana5/clusterlambda/internal/tracing"
	"github.com/psantana5/clusterlambda/pkg/continuation"
	"github.com/psantana5/clusterlambda/pkg/lambda"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	dryRun       bool
	printMetrics bool
	artifactDir  string
	entryPoint   string
	otlpEndpoint string

	answerValue  int
	greetSpanish bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a demo continuation on the cluster",
	Long: `Package one of the built-in continuations with the artifacts of this
process and submit it to the job service.`,
}

var runAnswerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Print a fixed value remotely",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runContinuation(demo.Answer{Value: answerValue})
	},
}

var runSumCmd = &cobra.Command{
	Use:   "sum <n>...",
	Short: "Print the sum of the given integers remotely",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		values := make([]int, 0, len(args))
		for _, a := range args {
			v, err := strconv.Atoi(a)
			if err != nil {
				return fmt.Errorf("invalid integer %q", a)
			}
			values = append(values, v)
		}
		return runContinuation(demo.Sum{Values: values})
	},
}

var runGreetCmd = &cobra.Command{
	Use:   "greet <name>",
	Short: "Print a greeting remotely",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var greeter demo.Greeter = demo.English{Punctuation: "!"}
		if greetSpanish {
			greeter = demo.Spanish{}
		}
		return runContinuation(demo.Greet{Name: args[0], Greeter: greeter})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.AddCommand(runAnswerCmd)
	runCmd.AddCommand(runSumCmd)
	runCmd.AddCommand(runGreetCmd)

	for _, c := range []*cobra.Command{runAnswerCmd, runSumCmd, runGreetCmd} {
		addContextFlags(c)
	}

	runCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "print the job description without submitting it")
	runCmd.PersistentFlags().BoolVar(&printMetrics, "print-metrics", false, "print run metrics in Prometheus text format")
	runCmd.PersistentFlags().StringVar(&artifactDir, "artifact-dir", "", "directory for continuation artifacts (default: system temp dir)")
	runCmd.PersistentFlags().StringVar(&entryPoint, "entry-point", lambda.EntryPointID, "remote entry point")
	runCmd.PersistentFlags().StringVar(&otlpEndpoint, "otlp-endpoint", "", "OTLP/HTTP collector host:port; tracing is off when empty")

	runAnswerCmd.Flags().IntVar(&answerValue, "value", 42, "value to print")
	runGreetCmd.Flags().BoolVar(&greetSpanish, "spanish", false, "greet in Spanish")
}

func runContinuation(fn continuation.Fn) error {
	ctx := context.Background()
	logger := newLogger()

	endpoint := otlpEndpoint
	if endpoint == "" {
		endpoint = viper.GetString("otlp_endpoint")
	}
	tp, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  "clambda",
		Environment:  "cli",
		OTLPEndpoint: endpoint,
		Enabled:      endpoint != "",
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tp.Shutdown(shutdownCtx)
	}()

	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		return err
	}

	dir := artifactDir
	if dir == "" {
		dir = viper.GetString("artifact_dir")
	}
	execCtx := executionContext()
	opts := lambda.Options{
		Context:     &execCtx,
		EntryPoint:  entryPoint,
		ArtifactDir: dir,
		Logger:      logger,
		Metrics:     recorder,
	}

	if dryRun {
		job, err := lambda.NewRunner(opts).Prepare(ctx, fn)
		if err != nil {
			return err
		}
		if done, err := printStructured(job); done {
			return err
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("#", "Artifact")
		for i, p := range job.ArtifactPaths {
			table.Append(strconv.Itoa(i+1), p)
		}
		table.Render()
		fmt.Printf("\nEntry point: %s\n", job.EntryPoint)
		return dumpMetrics(registry)
	}

	submitter, err := newSubmitter()
	if err != nil {
		return err
	}
	opts.Submitter = submitter

	receipt, runErr := lambda.NewRunner(opts).RunOnCluster(ctx, fn)
	if runErr != nil {
		if err := dumpMetrics(registry); err != nil {
			logger.Warn("Failed to print metrics: " + err.Error())
		}
		return runErr
	}

	if done, err := printStructured(receipt); done {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")
	table.Append("Job ID", receipt.ID)
	table.Append("Status", string(receipt.Status))
	table.Append("Entry Point", receipt.EntryPoint)
	table.Append("Artifacts", strconv.Itoa(receipt.Artifacts))
	table.Append("Created At", receipt.CreatedAt.Format(time.RFC3339))
	table.Render()
	fmt.Printf("\nJob submitted successfully! Job %s\n", receipt.ID)

	return dumpMetrics(registry)
}

func dumpMetrics(registry *prometheus.Registry) error {
	if !printMetrics {
		return nil
	}
	fmt.Println()
	return metrics.WriteText(os.Stdout, registry)
}
