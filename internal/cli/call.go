package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/swaggerclient/internal/config"
	"github.com/mark3labs/swaggerclient/pkg/swagger"
)

// CallConfig captures all inputs of the call command after merging
// defaults, config file values, environment and CLI overrides.
type CallConfig struct {
	Client      *config.Config
	Path        string
	Method      string
	OperationID string
	Data        map[string]any
	Headers     map[string]string
	Output      string
	Fail        bool
	Verbose     bool

	Out    io.Writer
	Logger hclog.Logger
}

var callRunner = runCall

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call",
		Short: "Invoke one API operation and print the normalized result",
		Long: "Invoke one API operation, chosen by --path and --method or by --operation-id. " +
			"Values given with --data and --data-json fill path placeholders, declared query parameters " +
			"and cf_ prefixed keys go to the query string, and everything else becomes the JSON body.",
		Example: strings.TrimSpace(`  swaggerclient call --path /devices --data type=olt
  swaggerclient --env-prefix UISP call --path '/devices/{id}' --data id=42
  swaggerclient call --operation-id createDevice --data-json '{"name":"router-1"}' --output yaml`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveCallConfig(cmd)
			if err != nil {
				return err
			}
			return callRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("path", "", "Templated operation path as declared in the document, e.g. /devices/{id}")
	flags.String("method", "", "HTTP method of the operation (default GET)")
	flags.String("operation-id", "", "Select the operation by operationId instead of --path/--method")
	flags.StringArrayP("data", "d", nil, "Input value as key=value (repeatable)")
	flags.String("data-json", "", "Input values as one JSON object; --data entries override its keys")
	flags.StringArrayP("header", "H", nil, "Extra request header as key=value (repeatable)")
	flags.StringP("output", "o", "json", "Output format (json|yaml)")
	flags.Bool("fail", false, "Exit non-zero when the response status is not 2xx")

	return cmd
}

func resolveCallConfig(cmd *cobra.Command) (*CallConfig, error) {
	flags := cmd.Flags()
	clientCfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return nil, err
	}
	cfg := &CallConfig{
		Client:  clientCfg,
		Output:  "json",
		Verbose: verbose,
		Out:     cmd.OutOrStdout(),
		Logger:  newLogger(verbose, cmd.ErrOrStderr()),
	}
	if err := applyCallFlags(flags, cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyCallFlags(flags *pflag.FlagSet, cfg *CallConfig) error {
	var err error
	if cfg.Path, err = flags.GetString("path"); err != nil {
		return err
	}
	if cfg.Method, err = flags.GetString("method"); err != nil {
		return err
	}
	if cfg.OperationID, err = flags.GetString("operation-id"); err != nil {
		return err
	}
	if flags.Changed("output") {
		if cfg.Output, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	if cfg.Fail, err = flags.GetBool("fail"); err != nil {
		return err
	}

	rawJSON, err := flags.GetString("data-json")
	if err != nil {
		return err
	}
	pairs, err := flags.GetStringArray("data")
	if err != nil {
		return err
	}
	if cfg.Data, err = parseData(rawJSON, pairs); err != nil {
		return err
	}

	headerPairs, err := flags.GetStringArray("header")
	if err != nil {
		return err
	}
	cfg.Headers = make(map[string]string, len(headerPairs))
	for _, pair := range headerPairs {
		k, v, err := splitPair(pair, "--header")
		if err != nil {
			return err
		}
		cfg.Headers[k] = v
	}
	return nil
}

// parseData merges a JSON object with key=value pairs; pairs win.
func parseData(rawJSON string, pairs []string) (map[string]any, error) {
	data := map[string]any{}
	if strings.TrimSpace(rawJSON) != "" {
		dec := json.NewDecoder(strings.NewReader(rawJSON))
		dec.UseNumber()
		if err := dec.Decode(&data); err != nil {
			return nil, newUsageError(fmt.Sprintf("call: --data-json must be a JSON object: %v", err))
		}
		if data == nil {
			data = map[string]any{}
		}
	}
	for _, pair := range pairs {
		k, v, err := splitPair(pair, "--data")
		if err != nil {
			return nil, err
		}
		data[k] = v
	}
	return data, nil
}

func splitPair(pair, flag string) (string, string, error) {
	k, v, ok := strings.Cut(pair, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return "", "", newUsageError(fmt.Sprintf("call: %s expects key=value, got %q", flag, pair))
	}
	return k, v, nil
}

func (c *CallConfig) normalize() {
	c.Path = strings.TrimSpace(c.Path)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	c.OperationID = strings.TrimSpace(c.OperationID)
	c.Output = strings.ToLower(strings.TrimSpace(c.Output))
}

func (c *CallConfig) validate() error {
	switch {
	case c.Path == "" && c.OperationID == "":
		return newUsageError("call: one of --path or --operation-id is required")
	case c.Path != "" && c.OperationID != "":
		return newUsageError("call: --path and --operation-id are mutually exclusive")
	case c.OperationID != "" && c.Method != "":
		return newUsageError("call: --method cannot be combined with --operation-id")
	}
	switch c.Output {
	case "json", "yaml":
	default:
		return newUsageError(fmt.Sprintf("call: unsupported --output %q (allowed: json, yaml)", c.Output))
	}
	return nil
}

func runCall(ctx context.Context, cfg *CallConfig) error {
	client, err := swagger.NewFromConfig(ctx, cfg.Client, swagger.WithLogger(cfg.Logger))
	if err != nil {
		return friendlyError(err, cfg.Client.EnvPrefix)
	}

	var opts []swagger.CallOption
	for k, v := range cfg.Headers {
		opts = append(opts, swagger.WithHeader(k, v))
	}

	var res *swagger.Result
	if cfg.OperationID != "" {
		res, err = client.InvokeByOperationID(ctx, cfg.OperationID, cfg.Data, opts...)
	} else {
		res, err = client.Invoke(ctx, cfg.Path, cfg.Method, cfg.Data, opts...)
	}
	if err != nil {
		return friendlyError(err, cfg.Client.EnvPrefix)
	}

	if err := writeResult(cfg.Out, res, cfg.Output); err != nil {
		return err
	}

	switch {
	case res.TransportFailed():
		return fmt.Errorf("call: request failed before a response arrived: %s", res.StatusMessage)
	case cfg.Fail && !res.OK():
		return fmt.Errorf("call: server answered %d %s", res.Status, res.StatusMessage)
	}
	return nil
}

func writeResult(w io.Writer, res *swagger.Result, format string) error {
	switch format {
	case "yaml":
		out := *res
		out.Body = yamlNumbers(res.Body)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&out); err != nil {
			return fmt.Errorf("call: encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("call: encode json: %w", err)
		}
		return nil
	}
}

// yamlNumbers turns json.Number values into int64 or float64 so YAML prints
// them as numbers. Integers beyond int64 stay as their decimal text.
func yamlNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if strings.ContainsAny(t.String(), ".eE") {
			if f, err := t.Float64(); err == nil {
				return f
			}
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = yamlNumbers(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = yamlNumbers(e)
		}
		return out
	}
	return v
}
