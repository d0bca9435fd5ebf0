package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/psantana5/clusterlambda/internal/logging"
	"github.com/psantana5/clusterlambda/pkg/submit"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var (
	serviceURL   string
	outputFormat string
	cfgFile      string
	apiKey       string
	logLevel     string
	logJSON      bool
	caCert       string
	clientCert   string
	clientKey    string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "clambda",
	Short: "Run Go continuations on a cluster",
	Long: `clambda packages a continuation together with the artifacts its code was
loaded from and submits it to a cluster job service.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.clambda/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serviceURL, "service", "", "job service URL (default from config or http://localhost:8088)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "job service API key")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log in JSON format")
	rootCmd.PersistentFlags().StringVar(&caCert, "ca-cert", "", "CA certificate used to verify the job service")
	rootCmd.PersistentFlags().StringVar(&clientCert, "client-cert", "", "client certificate for mTLS")
	rootCmd.PersistentFlags().StringVar(&clientKey, "client-key", "", "client key for mTLS")
}

// initConfig reads in .env, the config file and ENV variables if set
func initConfig() {
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".clambda"))
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("clambda")
	viper.AutomaticEnv()
	viper.BindEnv("service_url", "CLAMBDA_SERVICE_URL")
	viper.BindEnv("api_key", "CLAMBDA_API_KEY")

	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", cfgFile, err)
		os.Exit(1)
	}

	// Flags win over config and environment
	if serviceURL == "" {
		serviceURL = viper.GetString("service_url")
	}
	if apiKey == "" {
		apiKey = viper.GetString("api_key")
	}
	if caCert == "" {
		caCert = viper.GetString("ca_cert")
	}
	if clientCert == "" {
		clientCert = viper.GetString("client_cert")
	}
	if clientKey == "" {
		clientKey = viper.GetString("client_key")
	}
	if serviceURL == "" {
		serviceURL = "http://localhost:8088"
	}
}

// GetServiceURL returns the configured service URL with trailing slashes removed
func GetServiceURL() string {
	return strings.TrimRight(serviceURL, "/")
}

func newLogger() *logging.Logger {
	return logging.NewLogger(logging.ParseLevel(logLevel), logJSON)
}

func newSubmitter() (*submit.Client, error) {
	return submit.NewClient(submit.Config{
		ServiceURL:     GetServiceURL(),
		APIKey:         apiKey,
		CACertFile:     caCert,
		ClientCertFile: clientCert,
		ClientKeyFile:  clientKey,
	})
}

// printStructured writes v as JSON or YAML and reports whether it did; table
// output is left to the caller.
func printStructured(v interface{}) (bool, error) {
	switch outputFormat {
	case "json":
		output, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return true, nil
	case "yaml":
		output, err := yaml.Marshal(v)
		if err != nil {
			return true, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		fmt.Print(string(output))
		return true, nil
	case "table", "":
		return false, nil
	default:
		return true, fmt.Errorf("unknown output format %q", outputFormat)
	}
}
