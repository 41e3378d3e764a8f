package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ryanuber/columnize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/swaggerclient/internal/spec"
)

// ListConfig captures the inputs of the list command.
type ListConfig struct {
	Source       string
	IncludeTags  []string
	ExcludeTags  []string
	Methods      []string
	PathPatterns []string
	Output       string
	EnvPrefix    string

	Out io.Writer
}

var listRunner = runList

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the operations declared by the document",
		Example: strings.TrimSpace(`  swaggerclient list --spec ./uisp.json
  swaggerclient list --include-tags devices --methods get,post --output json`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveListConfig(cmd)
			if err != nil {
				return err
			}
			return listRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringSlice("include-tags", nil, "Only list operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Skip operations with these tags")
	flags.StringSlice("methods", nil, "Only list these HTTP methods")
	flags.StringSlice("path-pattern", nil, "Only list paths matching these regular expressions")
	flags.StringP("output", "o", "table", "Output format (table|json|yaml)")

	return cmd
}

func resolveListConfig(cmd *cobra.Command) (*ListConfig, error) {
	flags := cmd.Flags()
	clientCfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	cfg := &ListConfig{
		Source:    clientCfg.SpecSource,
		Output:    "table",
		EnvPrefix: clientCfg.EnvPrefix,
		Out:       cmd.OutOrStdout(),
	}
	if err := applyListFlags(flags, cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyListFlags(flags *pflag.FlagSet, cfg *ListConfig) error {
	var err error
	if cfg.IncludeTags, err = flags.GetStringSlice("include-tags"); err != nil {
		return err
	}
	if cfg.ExcludeTags, err = flags.GetStringSlice("exclude-tags"); err != nil {
		return err
	}
	if cfg.Methods, err = flags.GetStringSlice("methods"); err != nil {
		return err
	}
	if cfg.PathPatterns, err = flags.GetStringSlice("path-pattern"); err != nil {
		return err
	}
	if flags.Changed("output") {
		if cfg.Output, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	return nil
}

func (c *ListConfig) normalize() {
	c.Source = strings.TrimSpace(c.Source)
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
	c.Methods = sanitizeTags(c.Methods)
	c.Output = strings.ToLower(strings.TrimSpace(c.Output))
}

func (c *ListConfig) validate() error {
	if c.Source == "" {
		return newUsageError("list: --spec is required (set via flag, config file or environment)")
	}
	if overlap := intersect(c.IncludeTags, c.ExcludeTags); len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("list: include/exclude tags overlap: %s", strings.Join(overlap, ", ")))
	}
	switch c.Output {
	case "table", "json", "yaml":
	default:
		return newUsageError(fmt.Sprintf("list: unsupported --output %q (allowed: table, json, yaml)", c.Output))
	}
	return nil
}

// listedOperation is the serialized form of one listed operation.
type listedOperation struct {
	Method      string   `json:"method" yaml:"method"`
	Path        string   `json:"path" yaml:"path"`
	OperationID string   `json:"operation_id,omitempty" yaml:"operation_id,omitempty"`
	Summary     string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Deprecated  bool     `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
}

func runList(ctx context.Context, cfg *ListConfig) error {
	doc, err := spec.Load(ctx, cfg.Source)
	if err != nil {
		return friendlyError(err, cfg.EnvPrefix)
	}

	ops := spec.ListOperations(doc,
		spec.WithIncludeTags(cfg.IncludeTags),
		spec.WithExcludeTags(cfg.ExcludeTags),
		spec.WithMethods(cfg.Methods),
		spec.WithPathPatterns(cfg.PathPatterns),
	)
	listed := make([]listedOperation, 0, len(ops))
	for _, op := range ops {
		listed = append(listed, listedOperation{
			Method:      strings.ToUpper(string(op.Method)),
			Path:        op.Path,
			OperationID: op.OperationID,
			Summary:     op.Summary,
			Tags:        op.Tags,
			Deprecated:  op.Deprecated,
		})
	}

	switch cfg.Output {
	case "json":
		enc := json.NewEncoder(cfg.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(listed)
	case "yaml":
		enc := yaml.NewEncoder(cfg.Out)
		enc.SetIndent(2)
		if err := enc.Encode(listed); err != nil {
			return err
		}
		return enc.Close()
	}

	rows := make([]string, 0, len(listed)+1)
	rows = append(rows, "Method|Path|Operation ID|Tags|Summary")
	for _, op := range listed {
		summary := op.Summary
		if op.Deprecated {
			summary = strings.TrimSpace("(deprecated) " + summary)
		}
		rows = append(rows, fmt.Sprintf("%s|%s|%s|%s|%s",
			op.Method, op.Path, op.OperationID, strings.Join(op.Tags, ","), strings.ReplaceAll(summary, "|", "/")))
	}
	_, err = fmt.Fprintln(cfg.Out, formatList(rows))
	return err
}

func formatList(in []string) string {
	columnConf := columnize.DefaultConfig()
	columnConf.Empty = "<none>"
	return columnize.Format(in, columnConf)
}

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}
