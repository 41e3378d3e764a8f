package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mark3labs/swaggerclient/internal/config"
)

// Execute runs the swaggerclient CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swaggerclient",
		Short: "Call any operation of a Swagger 2.0 described API",
		Long: "swaggerclient loads a Swagger/OpenAPI document and invokes its operations by path and method " +
			"or by operationId, routing a flat set of values into the path, query string and JSON body.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.SetFlagErrorFunc(flagUsageError)

	pf := cmd.PersistentFlags()
	pf.StringP("config", "c", "", "Config file path (YAML, JSON or TOML)")
	pf.String("env-file", "", "Env file with PREFIX_KEY=value lines (default .env when present)")
	pf.String("env-prefix", config.DefaultEnvPrefix, "Prefix of environment variables, e.g. UISP reads UISP_HOST")
	pf.BoolP("verbose", "v", false, "Enable verbose logging output")

	pf.String("host", "", "API host including scheme, e.g. https://api.example.net")
	pf.String("base-uri", "", "Base path appended to the host")
	pf.String("spec", "", "Path or URL to the Swagger/OpenAPI document")
	pf.String("auth-method", "", "Authentication method (token|basicauth)")
	pf.String("token", "", "API token for token auth")
	pf.String("token-header", "", "Header carrying the token (default x-auth-token)")
	pf.String("username", "", "Username for basic auth")
	pf.String("password", "", "Password for basic auth")
	pf.Duration("timeout", 0, "Request timeout (default 10s)")
	pf.String("ca-cert", "", "CA certificate file used to verify the server")
	pf.Bool("insecure", false, "Skip TLS certificate verification")

	for _, sub := range []*cobra.Command{newCallCmd(), newListCmd(), newInitCmd()} {
		sub.SetFlagErrorFunc(flagUsageError)
		cmd.AddCommand(sub)
	}

	return cmd
}

// flagUsageError converts cobra flag errors (like unknown flags) into usage
// errors that also show the command's help text.
func flagUsageError(c *cobra.Command, err error) error {
	return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
}

// configFlags maps persistent flags onto configuration keys.
var configFlags = []struct {
	flag string
	key  string
}{
	{"host", "host"},
	{"base-uri", "base_uri"},
	{"spec", "spec_source"},
	{"auth-method", "auth_method"},
	{"token", "token"},
	{"token-header", "token_header_name"},
	{"username", "username"},
	{"password", "password"},
	{"timeout", "timeout"},
	{"ca-cert", "tls.ca_cert"},
	{"insecure", "tls.insecure"},
}

// loadConfig merges defaults, config file, env file, environment and the
// flags the user actually set.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	var opts []config.Option

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if configPath = strings.TrimSpace(configPath); configPath != "" {
		opts = append(opts, config.WithConfigFile(configPath))
	}
	envFile, err := flags.GetString("env-file")
	if err != nil {
		return nil, err
	}
	if envFile = strings.TrimSpace(envFile); envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	prefix, err := flags.GetString("env-prefix")
	if err != nil {
		return nil, err
	}
	opts = append(opts, config.WithEnvPrefix(prefix))

	for _, cf := range configFlags {
		f := flags.Lookup(cf.flag)
		if f == nil || !f.Changed {
			continue
		}
		opts = append(opts, config.WithOverride(cf.key, f.Value.String()))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, newUsageError(err.Error())
	}
	return cfg, nil
}

func newLogger(verbose bool, w io.Writer) hclog.Logger {
	level := hclog.Warn
	if verbose {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "swaggerclient",
		Level:  level,
		Output: w,
	})
}
