// Package config loads the application configuration and the package
// registry.
//
// The application config is a TOML file (schemahub.toml by default):
//
//	repos_dir = "repos"
//	data_dir  = "data"
//	registry  = "repertoires.yml"
//	schedule  = "@every 1h"
//
//	[catalog]
//	backend = "file"          # file | mongo
//	path    = "catalog.json"
//
//	[cache]
//	backend = "file"          # file | redis | bolt | none
//	path    = "errors-cache.json"
//
//	[artifacts]
//	backend = "file"          # file | s3
//
//	[notify]
//	backend = "log"           # log | smtp
//
// Secrets are never required in the file: SCHEMAHUB_SMTP_PASSWORD,
// SCHEMAHUB_S3_SECRET_KEY, SCHEMAHUB_REDIS_PASSWORD, SCHEMAHUB_MONGO_URI and
// SCHEMAHUB_GIT_TOKEN override the corresponding settings.
//
// The registry is a YAML mapping of package id to its git URL, owner contact
// and schema kind; see [LoadRegistry].
package config

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"

	"github.com/matzehuels/schemahub/pkg/errors"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "schemahub.toml"

// Backend names.
const (
	BackendFile  = "file"
	BackendMongo = "mongo"
	BackendRedis = "redis"
	BackendBolt  = "bolt"
	BackendNone  = "none"
	BackendS3    = "s3"
	BackendLog   = "log"
	BackendSMTP  = "smtp"
)

// Environment variables overriding secrets.
const (
	EnvSMTPPassword  = "SCHEMAHUB_SMTP_PASSWORD"
	EnvS3SecretKey   = "SCHEMAHUB_S3_SECRET_KEY"
	EnvRedisPassword = "SCHEMAHUB_REDIS_PASSWORD"
	EnvMongoURI      = "SCHEMAHUB_MONGO_URI"
	EnvGitToken      = "SCHEMAHUB_GIT_TOKEN"
)

// Config is the application configuration.
type Config struct {
	ReposDir string `toml:"repos_dir"`
	DataDir  string `toml:"data_dir"`
	Registry string `toml:"registry"`
	Schedule string `toml:"schedule"`

	Git       GitConfig      `toml:"git"`
	Catalog   CatalogConfig  `toml:"catalog"`
	Cache     CacheConfig    `toml:"cache"`
	Artifacts ArtifactConfig `toml:"artifacts"`
	Notify    NotifyConfig   `toml:"notify"`
}

// GitConfig holds credentials for https remotes.
type GitConfig struct {
	Username string `toml:"username"`
	Token    string `toml:"token"`
}

type CatalogConfig struct {
	Backend    string   `toml:"backend"`
	Path       string   `toml:"path"`
	MongoURI   string   `toml:"mongo_uri"`
	Database   string   `toml:"database"`
	Collection string   `toml:"collection"`
	Timeout    Duration `toml:"timeout"`
}

type CacheConfig struct {
	Backend       string `toml:"backend"`
	Path          string `toml:"path"`
	RedisAddr     string `toml:"redis_addr"`
	RedisUsername string `toml:"redis_username"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisKey      string `toml:"redis_key"`
}

type ArtifactConfig struct {
	Backend   string `toml:"backend"`
	Endpoint  string `toml:"endpoint"`
	Bucket    string `toml:"bucket"`
	Prefix    string `toml:"prefix"`
	Region    string `toml:"region"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

type NotifyConfig struct {
	Backend  string   `toml:"backend"`
	Host     string   `toml:"host"`
	Port     int      `toml:"port"`
	Username string   `toml:"username"`
	Password string   `toml:"password"`
	From     string   `toml:"from"`
	TLS      string   `toml:"tls"`
	Timeout  Duration `toml:"timeout"`
}

// Duration is a time.Duration read from a TOML string such as "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// Load reads the TOML file at path, applies defaults and environment
// overrides, and validates the result. Relative paths in the file are
// resolved against the file's directory.
func Load(path string) (*Config, error) {
	c := &Config{}
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "config %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	c.SetDefaults()
	c.resolve(filepath.Dir(path))
	c.ApplyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadOrDefault loads path. A missing file at the default location yields
// the defaults; a missing explicit path is an error.
func LoadOrDefault(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	c, err := Load(path)
	if err != nil && !explicit && errors.Is(err, errors.ErrCodeNotFound) {
		c = Default()
		c.ApplyEnv()
		return c, c.Validate()
	}
	return c, err
}

// SetDefaults fills every empty setting.
func (c *Config) SetDefaults() {
	setDefault(&c.ReposDir, "repos")
	setDefault(&c.DataDir, "data")
	setDefault(&c.Registry, "repertoires.yml")

	setDefault(&c.Catalog.Backend, BackendFile)
	setDefault(&c.Catalog.Path, "catalog.json")
	setDefault(&c.Catalog.Database, "schemahub")
	setDefault(&c.Catalog.Collection, "catalog")
	if c.Catalog.Timeout.Duration == 0 {
		c.Catalog.Timeout.Duration = 10 * time.Second
	}

	setDefault(&c.Cache.Backend, BackendFile)
	switch c.Cache.Backend {
	case BackendBolt:
		setDefault(&c.Cache.Path, "errors-cache.db")
	default:
		setDefault(&c.Cache.Path, "errors-cache.json")
	}
	setDefault(&c.Cache.RedisAddr, "localhost:6379")

	setDefault(&c.Artifacts.Backend, BackendFile)
	setDefault(&c.Artifacts.Bucket, "schemahub")

	setDefault(&c.Notify.Backend, BackendLog)
	setDefault(&c.Notify.TLS, "mandatory")
	if c.Notify.Port == 0 {
		c.Notify.Port = 587
	}
	if c.Notify.Timeout.Duration == 0 {
		c.Notify.Timeout.Duration = 30 * time.Second
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// ApplyEnv overrides secrets from the environment.
func (c *Config) ApplyEnv() {
	envOverride(&c.Notify.Password, EnvSMTPPassword)
	envOverride(&c.Artifacts.SecretKey, EnvS3SecretKey)
	envOverride(&c.Cache.RedisPassword, EnvRedisPassword)
	envOverride(&c.Catalog.MongoURI, EnvMongoURI)
	envOverride(&c.Git.Token, EnvGitToken)
}

func envOverride(field *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*field = v
	}
}

func (c *Config) resolve(base string) {
	for _, p := range []*string{&c.ReposDir, &c.DataDir, &c.Registry, &c.Catalog.Path, &c.Cache.Path} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// Validate checks backend names and the settings each backend requires.
func (c *Config) Validate() error {
	check := func(section, value string, allowed ...string) error {
		if !slices.Contains(allowed, value) {
			return errors.New(errors.ErrCodeInvalidConfig, "[%s] backend %q (must be one of: %v)", section, value, allowed)
		}
		return nil
	}
	if err := check("catalog", c.Catalog.Backend, BackendFile, BackendMongo); err != nil {
		return err
	}
	if err := check("cache", c.Cache.Backend, BackendFile, BackendRedis, BackendBolt, BackendNone); err != nil {
		return err
	}
	if err := check("artifacts", c.Artifacts.Backend, BackendFile, BackendS3); err != nil {
		return err
	}
	if err := check("notify", c.Notify.Backend, BackendLog, BackendSMTP); err != nil {
		return err
	}

	if c.Catalog.Backend == BackendMongo && c.Catalog.MongoURI == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "[catalog] mongo backend requires mongo_uri or %s", EnvMongoURI)
	}
	if c.Artifacts.Backend == BackendS3 && c.Artifacts.Endpoint == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "[artifacts] s3 backend requires endpoint")
	}
	if c.Notify.Backend == BackendSMTP {
		if c.Notify.Host == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "[notify] smtp backend requires host")
		}
		if err := errors.ValidateEmail(c.Notify.From); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[notify] from")
		}
		if !slices.Contains([]string{"mandatory", "opportunistic", "none"}, c.Notify.TLS) {
			return errors.New(errors.ErrCodeInvalidConfig, "[notify] tls %q (must be mandatory, opportunistic or none)", c.Notify.TLS)
		}
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "schedule %q", c.Schedule)
		}
	}
	if c.ReposDir == "" || c.DataDir == "" || c.Registry == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "repos_dir, data_dir and registry must be set")
	}
	return nil
}
