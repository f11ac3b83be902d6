package sdk

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gear6io/chnative/compress"
	"github.com/gear6io/chnative/pkg/errors"
)

// Config is the YAML form of Options. Durations use Go notation.
type Config struct {
	Addr     []string `yaml:"addr"`
	Database string   `yaml:"database"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`

	Compression string `yaml:"compression"`

	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	OpenStrategy    string        `yaml:"open_strategy"`

	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	Settings map[string]interface{} `yaml:"settings"`
}

// ErrBadConfig marks configuration file failures.
var ErrBadConfig = errors.MustNewCode("sdk.bad_config")

// LoadConfig reads a YAML configuration file into Options.
func LoadConfig(path string) (*Options, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrBadConfig, err, "read %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrapf(ErrBadConfig, err, "parse %s", path)
	}
	return cfg.Options()
}

// Options converts the YAML form into driver options.
func (cfg *Config) Options() (*Options, error) {
	opt := &Options{
		Addr: cfg.Addr,
		Auth: Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		Settings:        make(Settings),
	}
	if cfg.Compression != "" {
		method, err := compress.ParseMethod(cfg.Compression)
		if err != nil {
			return nil, err
		}
		opt.Compression = &Compression{Method: method}
	}
	switch cfg.OpenStrategy {
	case "", "in_order":
		opt.ConnOpenStrategy = ConnOpenInOrder
	case "round_robin":
		opt.ConnOpenStrategy = ConnOpenRoundRobin
	default:
		return nil, errors.Newf(ErrBadConfig, "unknown open_strategy %q", cfg.OpenStrategy)
	}
	for name, value := range cfg.Settings {
		opt.Settings.Set(name, value)
		if err := CheckSetting(name, opt.Settings.GetString(name)); err != nil {
			return nil, err
		}
	}
	return opt.SetDefaults(), nil
}
