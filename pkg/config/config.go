// Package config resolves metacheck settings from a config file, the
// environment and command-line flags.
//
// Sources are merged in increasing precedence: built-in defaults, then the
// config file, then METACHECK_* environment variables, then explicit
// overrides (flags). The file format follows the extension: ".toml" is read
// with BurntSushi/toml, ".yaml" and ".yml" with yaml.v3.
//
// Example metacheck.toml:
//
//	pitfalls_output = "out/pitfalls"
//	analysis_output = "out/analysis_results.json"
//	workers = 4
//	rules = ["P001", "W002"]
//	probe_timeout = "5s"
//
//	[store]
//	kind = "sqlite"
//	dsn = "metacheck.db"
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/metacheck/pkg/errors"
	"github.com/matzehuels/metacheck/pkg/pipeline"
	"github.com/matzehuels/metacheck/pkg/store"
)

// DefaultPaths are tried in order when the Loader has no explicit path.
var DefaultPaths = []string{"metacheck.toml", "metacheck.yaml", "metacheck.yml"}

// Cache backends for liveness results.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
)

const (
	DefaultProbeTimeout  = 10 * time.Second
	DefaultProbeAttempts = 1
	DefaultCacheTTL      = 24 * time.Hour
	DefaultAddr          = ":8080"
)

const (
	envPitfallsOutput = "METACHECK_PITFALLS_OUTPUT"
	envAnalysisOutput = "METACHECK_ANALYSIS_OUTPUT"
	envWorkers        = "METACHECK_WORKERS"
	envRules          = "METACHECK_RULES"
	envNoNetwork      = "METACHECK_NO_NETWORK"
	envNoCache        = "METACHECK_NO_CACHE"
	envStore          = "METACHECK_STORE"
	envStoreDSN       = "METACHECK_STORE_DSN"
	envCache          = "METACHECK_CACHE"
	envRedisURL       = "METACHECK_REDIS_URL"
	envProbeTimeout   = "METACHECK_PROBE_TIMEOUT"
	envProbeAttempts  = "METACHECK_PROBE_ATTEMPTS"
	envCacheTTL       = "METACHECK_CACHE_TTL"
	envAddr           = "METACHECK_ADDR"
)

// Config is the fully merged configuration.
type Config struct {
	PitfallsDir    string
	AnalysisOutput string
	Workers        int
	Rules          []string
	NoNetwork      bool
	NoCache        bool

	Store    store.Kind
	StoreDSN string

	Cache    string
	RedisURL string
	CacheTTL time.Duration

	ProbeTimeout  time.Duration
	ProbeAttempts int

	Addr string

	// Path is the config file that was read, or empty.
	Path string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		PitfallsDir:    store.DefaultPitfallsDir,
		AnalysisOutput: store.DefaultSummaryPath,
		Workers:        pipeline.DefaultWorkers,
		Store:          store.KindFile,
		Cache:          CacheFile,
		CacheTTL:       DefaultCacheTTL,
		ProbeTimeout:   DefaultProbeTimeout,
		ProbeAttempts:  DefaultProbeAttempts,
		Addr:           DefaultAddr,
	}
}

// Overrides holds values from one source. Zero strings and nil pointers
// leave the setting unchanged.
type Overrides struct {
	PitfallsDir    string
	AnalysisOutput string
	Workers        *int
	Rules          []string
	NoNetwork      *bool
	NoCache        *bool
	Store          string
	StoreDSN       string
	Cache          string
	RedisURL       string
	CacheTTL       *time.Duration
	ProbeTimeout   *time.Duration
	ProbeAttempts  *int
	Addr           string
}

// Loader merges configuration from a file, the environment, and flags.
type Loader struct {
	// Path is the config file. When empty, DefaultPaths are tried and a
	// missing file is not an error.
	Path string
}

// Load resolves the configuration. The result is validated.
func (l Loader) Load(flags Overrides) (Config, error) {
	cfg := Default()

	path, err := l.resolvePath()
	if err != nil {
		return cfg, err
	}
	if path != "" {
		fileOv, err := LoadFile(path)
		if err != nil {
			return cfg, err
		}
		cfg.apply(fileOv)
		cfg.Path = path
	}

	envOv, err := FromEnv()
	if err != nil {
		return cfg, err
	}
	cfg.apply(envOv)
	cfg.apply(flags)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (l Loader) resolvePath() (string, error) {
	if l.Path != "" {
		if !fileExists(l.Path) {
			return "", errors.New(errors.ErrCodeFileNotFound, "config file %s not found", l.Path)
		}
		return l.Path, nil
	}
	for _, p := range DefaultPaths {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if err := pipeline.ValidateWorkers(c.Workers); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "workers")
	}
	for _, code := range c.Rules {
		if err := errors.ValidateRuleCode(code); err != nil {
			return err
		}
	}
	if c.PitfallsDir == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "pitfalls output directory cannot be empty")
	}
	if c.AnalysisOutput == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "analysis output path cannot be empty")
	}

	kind, err := store.ParseKind(string(c.Store))
	if err != nil {
		return err
	}
	if kind != store.KindFile && c.StoreDSN == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "store %s requires a DSN", kind)
	}

	switch c.Cache {
	case CacheFile:
	case CacheRedis:
		if c.RedisURL == "" && !c.NoCache {
			return errors.New(errors.ErrCodeInvalidConfig, "redis cache requires a URL")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (expected %s or %s)", c.Cache, CacheFile, CacheRedis)
	}
	if c.CacheTTL <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache TTL must be positive, got %s", c.CacheTTL)
	}

	if c.ProbeTimeout <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "probe timeout must be positive, got %s", c.ProbeTimeout)
	}
	if c.ProbeAttempts < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "probe attempts must be at least 1, got %d", c.ProbeAttempts)
	}
	return nil
}

// PipelineOptions returns the run options of the configuration.
func (c Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Workers:   c.Workers,
		Rules:     append([]string(nil), c.Rules...),
		NoNetwork: c.NoNetwork,
	}
}

// StoreOptions returns the store options of the configuration.
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Kind:        c.Store,
		DSN:         c.StoreDSN,
		PitfallsDir: c.PitfallsDir,
		SummaryPath: c.AnalysisOutput,
	}
}

func (c *Config) apply(src Overrides) {
	if src.PitfallsDir != "" {
		c.PitfallsDir = src.PitfallsDir
	}
	if src.AnalysisOutput != "" {
		c.AnalysisOutput = src.AnalysisOutput
	}
	if src.Workers != nil {
		c.Workers = *src.Workers
	}
	if len(src.Rules) > 0 {
		c.Rules = normalizeRules(src.Rules)
	}
	if src.NoNetwork != nil {
		c.NoNetwork = *src.NoNetwork
	}
	if src.NoCache != nil {
		c.NoCache = *src.NoCache
	}
	if src.Store != "" {
		c.Store = store.Kind(strings.ToLower(src.Store))
	}
	if src.StoreDSN != "" {
		c.StoreDSN = src.StoreDSN
	}
	if src.Cache != "" {
		c.Cache = strings.ToLower(src.Cache)
	}
	if src.RedisURL != "" {
		c.RedisURL = src.RedisURL
	}
	if src.CacheTTL != nil {
		c.CacheTTL = *src.CacheTTL
	}
	if src.ProbeTimeout != nil {
		c.ProbeTimeout = *src.ProbeTimeout
	}
	if src.ProbeAttempts != nil {
		c.ProbeAttempts = *src.ProbeAttempts
	}
	if src.Addr != "" {
		c.Addr = src.Addr
	}
}

// fileConfig is the on-disk shape shared by the TOML and YAML formats.
type fileConfig struct {
	PitfallsOutput string   `toml:"pitfalls_output" yaml:"pitfalls_output"`
	AnalysisOutput string   `toml:"analysis_output" yaml:"analysis_output"`
	Workers        *int     `toml:"workers" yaml:"workers"`
	Rules          []string `toml:"rules" yaml:"rules"`
	NoNetwork      *bool    `toml:"no_network" yaml:"no_network"`
	NoCache        *bool    `toml:"no_cache" yaml:"no_cache"`
	ProbeTimeout   string   `toml:"probe_timeout" yaml:"probe_timeout"`
	ProbeAttempts  *int     `toml:"probe_attempts" yaml:"probe_attempts"`
	Addr           string   `toml:"addr" yaml:"addr"`

	Store struct {
		Kind string `toml:"kind" yaml:"kind"`
		DSN  string `toml:"dsn" yaml:"dsn"`
	} `toml:"store" yaml:"store"`

	Cache struct {
		Backend  string `toml:"backend" yaml:"backend"`
		RedisURL string `toml:"redis_url" yaml:"redis_url"`
		TTL      string `toml:"ttl" yaml:"ttl"`
	} `toml:"cache" yaml:"cache"`
}

// LoadFile reads the overrides of one config file.
func LoadFile(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Overrides{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
		}
		return Overrides{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	var raw fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return Overrides{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Overrides{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	default:
		return Overrides{}, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (use .toml, .yaml or .yml)", ext)
	}

	ov := Overrides{
		PitfallsDir:    raw.PitfallsOutput,
		AnalysisOutput: raw.AnalysisOutput,
		Workers:        raw.Workers,
		Rules:          raw.Rules,
		NoNetwork:      raw.NoNetwork,
		NoCache:        raw.NoCache,
		ProbeAttempts:  raw.ProbeAttempts,
		Addr:           raw.Addr,
		Store:          raw.Store.Kind,
		StoreDSN:       raw.Store.DSN,
		Cache:          raw.Cache.Backend,
		RedisURL:       raw.Cache.RedisURL,
	}
	if ov.ProbeTimeout, err = parseDuration("probe_timeout", raw.ProbeTimeout); err != nil {
		return Overrides{}, err
	}
	if ov.CacheTTL, err = parseDuration("cache.ttl", raw.Cache.TTL); err != nil {
		return Overrides{}, err
	}
	return ov, nil
}

// FromEnv reads the METACHECK_* environment variables.
func FromEnv() (Overrides, error) {
	ov := Overrides{
		PitfallsDir:    os.Getenv(envPitfallsOutput),
		AnalysisOutput: os.Getenv(envAnalysisOutput),
		Store:          os.Getenv(envStore),
		StoreDSN:       os.Getenv(envStoreDSN),
		Cache:          os.Getenv(envCache),
		RedisURL:       os.Getenv(envRedisURL),
		Addr:           os.Getenv(envAddr),
	}
	if v := os.Getenv(envRules); v != "" {
		ov.Rules = SplitList(v)
	}

	var err error
	if ov.Workers, err = envInt(envWorkers); err != nil {
		return Overrides{}, err
	}
	if ov.ProbeAttempts, err = envInt(envProbeAttempts); err != nil {
		return Overrides{}, err
	}
	if ov.NoNetwork, err = envBool(envNoNetwork); err != nil {
		return Overrides{}, err
	}
	if ov.NoCache, err = envBool(envNoCache); err != nil {
		return Overrides{}, err
	}
	if ov.ProbeTimeout, err = parseDuration(envProbeTimeout, os.Getenv(envProbeTimeout)); err != nil {
		return Overrides{}, err
	}
	if ov.CacheTTL, err = parseDuration(envCacheTTL, os.Getenv(envCacheTTL)); err != nil {
		return Overrides{}, err
	}
	return ov, nil
}

// SplitList splits comma, space or newline separated input.
func SplitList(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\r' || r == '\t'
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func normalizeRules(codes []string) []string {
	var out []string
	for _, c := range codes {
		for _, part := range SplitList(c) {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}

func envInt(key string) (*int, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s must be an integer", key)
	}
	return &n, nil
}

func envBool(key string) (*bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s must be a boolean", key)
	}
	return &b, nil
}

func parseDuration(name, v string) (*time.Duration, error) {
	if v == "" {
		return nil, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s must be a duration such as 10s", name)
	}
	return &d, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
