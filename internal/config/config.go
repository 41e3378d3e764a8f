// Package config loads client settings from defaults, a config file, a .env
// file, the process environment and explicit overrides, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-envparse"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
)

const (
	// DefaultEnvPrefix names environment variables SWAGGER_HOST, SWAGGER_TOKEN
	// and so on.
	DefaultEnvPrefix = "SWAGGER"

	DefaultTokenHeader = "x-auth-token"
	DefaultTimeout     = 10 * time.Second
	DefaultUserAgent   = "swaggerclient/1.0"

	AuthToken = "token"
	AuthBasic = "basicauth"
)

// Config is the full client configuration.
type Config struct {
	// Host is the scheme and authority of the API server, e.g. https://api.example.net.
	Host string `mapstructure:"host" yaml:"host" json:"host"`

	// BaseURI is appended to Host to form the base of every request path.
	BaseURI string `mapstructure:"base_uri" yaml:"base_uri" json:"base_uri"`

	// SpecSource is a file path or http(s) URL of the Swagger document.
	SpecSource string `mapstructure:"spec_source" yaml:"spec_source" json:"spec_source"`

	// AuthMethod is "token" or "basicauth".
	AuthMethod      string `mapstructure:"auth_method" yaml:"auth_method" json:"auth_method"`
	Token           string `mapstructure:"token" yaml:"token" json:"token"`
	TokenHeaderName string `mapstructure:"token_header_name" yaml:"token_header_name" json:"token_header_name"`
	Username        string `mapstructure:"username" yaml:"username" json:"username"`
	Password        string `mapstructure:"password" yaml:"password" json:"password"`

	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent" json:"user_agent"`

	TLS TLSConfig `mapstructure:"tls" yaml:"tls" json:"tls"`

	// FreeFormPrefixes routes undeclared keys with these prefixes to the
	// query string.
	FreeFormPrefixes []string `mapstructure:"free_form_prefixes" yaml:"free_form_prefixes" json:"free_form_prefixes"`

	// EnvPrefix is the environment variable prefix Load read, e.g. "UISP".
	EnvPrefix string `mapstructure:"-" yaml:"-" json:"-"`
}

type TLSConfig struct {
	CACert   string `mapstructure:"ca_cert" yaml:"ca_cert" json:"ca_cert"`
	CAPath   string `mapstructure:"ca_path" yaml:"ca_path" json:"ca_path"`
	Insecure bool   `mapstructure:"insecure" yaml:"insecure" json:"insecure"`
}

// Keys lists every configuration key in dotted form.
var Keys = []string{
	"host",
	"base_uri",
	"spec_source",
	"auth_method",
	"token",
	"token_header_name",
	"username",
	"password",
	"timeout",
	"user_agent",
	"tls.ca_cert",
	"tls.ca_path",
	"tls.insecure",
	"free_form_prefixes",
}

// envAliases are extra variable names accepted for a key, after the
// canonical one.
var envAliases = map[string][]string{
	"spec_source": {"FILE"},
}

// configFileNames is searched in the working directory when no config file
// is given.
var configFileNames = []string{
	"swaggerclient.yaml",
	"swaggerclient.yml",
	"swaggerclient.json",
	".swaggerclient.yaml",
}

// DefaultEnvFile is read when present and no env file is given.
const DefaultEnvFile = ".env"

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		AuthMethod:       AuthToken,
		TokenHeaderName:  DefaultTokenHeader,
		Timeout:          DefaultTimeout,
		UserAgent:        DefaultUserAgent,
		FreeFormPrefixes: []string{"cf_"},
		EnvPrefix:        DefaultEnvPrefix,
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("host", "")
	v.SetDefault("base_uri", "")
	v.SetDefault("spec_source", "")
	v.SetDefault("auth_method", d.AuthMethod)
	v.SetDefault("token", "")
	v.SetDefault("token_header_name", d.TokenHeaderName)
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("tls.ca_cert", "")
	v.SetDefault("tls.ca_path", "")
	v.SetDefault("tls.insecure", false)
	v.SetDefault("free_form_prefixes", d.FreeFormPrefixes)
}

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	configFile string
	envFile    string
	envPrefix  string
	overrides  map[string]any
}

// WithConfigFile reads path instead of searching the working directory. A
// missing file is an error.
func WithConfigFile(path string) Option { return func(o *loadOptions) { o.configFile = path } }

// WithEnvFile reads path instead of DefaultEnvFile. A missing file is an
// error.
func WithEnvFile(path string) Option { return func(o *loadOptions) { o.envFile = path } }

func WithEnvPrefix(prefix string) Option { return func(o *loadOptions) { o.envPrefix = prefix } }

// WithOverride sets key above every other source.
func WithOverride(key string, value any) Option {
	return func(o *loadOptions) { o.overrides[key] = value }
}

// Load resolves the configuration. It does not validate it.
func Load(opts ...Option) (*Config, error) {
	o := &loadOptions{envPrefix: DefaultEnvPrefix, overrides: map[string]any{}}
	for _, opt := range opts {
		opt(o)
	}
	prefix := strings.ToUpper(strings.TrimSpace(o.envPrefix))
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	v := viper.New()
	setDefaults(v)

	configPath := o.configFile
	if configPath == "" {
		configPath = findConfigFile(".")
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	for _, key := range Keys {
		if err := v.BindEnv(append([]string{key}, EnvNames(prefix, key)...)...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	dotenv, err := readEnvFile(o.envFile)
	if err != nil {
		return nil, err
	}
	applyEnvFile(v, prefix, dotenv)

	for key, value := range o.overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.EnvPrefix = prefix
	cfg.normalize()
	return &cfg, nil
}

// EnvNames returns the environment variable names consulted for key, in
// order: PREFIX_KEY first, then any aliases.
func EnvNames(prefix, key string) []string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	names := []string{prefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
	for _, alias := range envAliases[key] {
		names = append(names, prefix+"_"+alias)
	}
	return names
}

func findConfigFile(dir string) string {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	f, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open env file %s: %w", path, err)
	}
	defer f.Close()

	vars, err := envparse.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse env file %s: %w", path, err)
	}
	return vars, nil
}

// applyEnvFile copies .env entries for known keys into v, unless the
// process environment already defines one of the key's names.
func applyEnvFile(v *viper.Viper, prefix string, vars map[string]string) {
	if len(vars) == 0 {
		return
	}
	for _, key := range Keys {
		names := EnvNames(prefix, key)
		if inProcessEnv(names) {
			continue
		}
		for _, name := range names {
			if val, ok := vars[name]; ok {
				v.Set(key, val)
				break
			}
		}
	}
}

func inProcessEnv(names []string) bool {
	for _, name := range names {
		if _, ok := os.LookupEnv(name); ok {
			return true
		}
	}
	return false
}

func (c *Config) normalize() {
	c.Host = strings.TrimSpace(c.Host)
	c.BaseURI = strings.TrimSpace(c.BaseURI)
	c.SpecSource = strings.TrimSpace(c.SpecSource)
	c.AuthMethod = strings.ToLower(strings.TrimSpace(c.AuthMethod))
	if c.AuthMethod == "" {
		c.AuthMethod = AuthToken
	}
	c.TokenHeaderName = strings.TrimSpace(c.TokenHeaderName)
	if c.TokenHeaderName == "" {
		c.TokenHeaderName = DefaultTokenHeader
	}
	prefixes := c.FreeFormPrefixes[:0:0]
	for _, p := range c.FreeFormPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	c.FreeFormPrefixes = prefixes
}

// BaseURL joins Host and BaseURI. It returns "" when Host is unset.
func (c *Config) BaseURL() string {
	if c.Host == "" {
		return ""
	}
	if c.BaseURI == "" {
		return c.Host
	}
	return strings.TrimRight(c.Host, "/") + "/" + strings.TrimLeft(c.BaseURI, "/")
}

// Validate reports every problem at once as a *ConfigurationError.
func (c *Config) Validate() error {
	var mErr multierror.Error
	mErr.ErrorFormat = listFormat

	if c.SpecSource == "" {
		_ = multierror.Append(&mErr, errors.New("spec_source is required"))
	}

	switch c.AuthMethod {
	case AuthToken, "":
		if c.Token == "" {
			_ = multierror.Append(&mErr, errors.New("token is required for token auth"))
		}
	case AuthBasic:
		if c.Username == "" {
			_ = multierror.Append(&mErr, errors.New("username is required for basicauth"))
		}
	default:
		_ = multierror.Append(&mErr, fmt.Errorf("unsupported auth_method %q, must be one of: %s, %s", c.AuthMethod, AuthToken, AuthBasic))
	}

	if c.Host != "" {
		u, err := url.Parse(c.Host)
		switch {
		case err != nil:
			_ = multierror.Append(&mErr, fmt.Errorf("host %q is not a valid URL: %v", c.Host, err))
		case u.Scheme != "http" && u.Scheme != "https":
			_ = multierror.Append(&mErr, fmt.Errorf("host %q must start with http:// or https://", c.Host))
		case u.Host == "":
			_ = multierror.Append(&mErr, fmt.Errorf("host %q has no hostname", c.Host))
		}
	}

	switch {
	case c.Timeout < 0:
		_ = multierror.Append(&mErr, errors.New("timeout must be non-negative"))
	case c.Timeout > 0 && c.Timeout < time.Millisecond:
		_ = multierror.Append(&mErr, fmt.Errorf("timeout %s is below 1ms; use a unit such as 10s", c.Timeout))
	}

	if mErr.ErrorOrNil() != nil {
		return &ConfigurationError{errs: &mErr}
	}
	return nil
}
