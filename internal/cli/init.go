package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const defaultInitPath = "swaggerclient.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool

	Out io.Writer
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample swaggerclient configuration file",
		Long:  "Scaffold a commented swaggerclient configuration file that documents every setting and its environment variable.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			return initRunner(cmd.Context(), &InitConfig{
				OutputPath: out,
				Force:      force,
				Out:        cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().String("out", defaultInitPath, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	_ = ctx

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultInitPath
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o600); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	fmt.Fprintf(cfg.Out, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML documents every setting. The file holds credentials, so
// it is written with owner-only permissions.
const sampleConfigYAML = `# swaggerclient configuration (YAML)
# Precedence: defaults < this file < .env file < environment < flags.
# Every key can also be set as <PREFIX>_<KEY> in the environment, e.g.
# SWAGGER_HOST or, with --env-prefix UISP, UISP_HOST.

# Scheme and host of the API server. When omitted, the document's
# schemes/host/basePath are used.
# host: https://api.example.net

# Path appended to host for every request.
# base_uri: /nms/api/v2.1

# Path or URL to the Swagger/OpenAPI document (SWAGGER_SPEC_SOURCE or SWAGGER_FILE).
# spec_source: ./swagger.json

# Authentication: token or basicauth.
# auth_method: token
# token: change-me
# token_header_name: x-auth-token
# username: admin
# password: change-me

# Whole-request timeout.
# timeout: 10s
# user_agent: swaggerclient/1.0

# tls:
#   ca_cert: /etc/ssl/certs/internal-ca.pem
#   ca_path: /etc/ssl/certs
#   insecure: false

# Undeclared input keys with these prefixes go to the query string.
# free_form_prefixes: [cf_]
`
