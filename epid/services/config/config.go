/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"bytes"
	"io"
	"strings"
	"time"

	math "github.com/IBM/mathlib"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const EnvPrefix = "EPID"

const (
	MemoryStorage   = "memory"
	SQLiteStorage   = "sqlite"
	PostgresStorage = "postgres"
)

type Config struct {
	Curve   string  `mapstructure:"curve"   yaml:"curve"`
	Hash    string  `mapstructure:"hash"    yaml:"hash"`
	Logging Logging `mapstructure:"logging" yaml:"logging"`
	Storage Storage `mapstructure:"storage" yaml:"storage"`
	Issuer  Issuer  `mapstructure:"issuer"  yaml:"issuer"`
	Metrics Metrics `mapstructure:"metrics" yaml:"metrics"`
}

type Logging struct {
	Spec   string `mapstructure:"spec"   yaml:"spec"`
	Format string `mapstructure:"format" yaml:"format"`
}

type Storage struct {
	Type            string `mapstructure:"type"            yaml:"type"`
	DataSource      string `mapstructure:"datasource"      yaml:"datasource"`
	TablePrefix     string `mapstructure:"tableprefix"     yaml:"tableprefix"`
	MaxOpenConns    int    `mapstructure:"maxopenconns"    yaml:"maxopenconns"`
	SkipCreateTable bool   `mapstructure:"skipcreatetable" yaml:"skipcreatetable"`
}

type Issuer struct {
	// NonceTTL bounds the time between handing out a nonce and using it. Zero disables expiry.
	NonceTTL time.Duration `mapstructure:"noncettl" yaml:"noncettl"`
	// Workers is the size of the pool serving batch issuance.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// MarshalYAML writes the ttl in its textual form, e.g. 10m0s.
func (i Issuer) MarshalYAML() (interface{}, error) {
	return struct {
		NonceTTL string `yaml:"noncettl"`
		Workers  int    `yaml:"workers"`
	}{NonceTTL: i.NonceTTL.String(), Workers: i.Workers}, nil
}

type Metrics struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Default returns the configuration used when no file or environment override is given.
func Default() *Config {
	curve, _ := emath.CurveIDToString(emath.DefaultCurve)
	return &Config{
		Curve: curve,
		Hash:  emath.DefaultHashAlg.String(),
		Logging: Logging{
			Spec:   "info",
			Format: "%{color}%{time:2006-01-02 15:04:05.000 MST} [%{module}] %{shortfunc} -> %{level:.4s} %{id:03x}%{color:reset} %{message}",
		},
		Storage: Storage{
			Type:        MemoryStorage,
			TablePrefix: "epid",
		},
		Issuer: Issuer{
			NonceTTL: 10 * time.Minute,
			Workers:  4,
		},
	}
}

// Load reads the defaults, then merges the file at path (if not empty) and
// the EPID_* environment variables, e.g. EPID_STORAGE_TYPE.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	raw, err := yaml.Marshal(Default())
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal default config")
	}
	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return nil, errors.Wrap(err, "failed to read default config")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file [%s]", path)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	c, err := decode(v.AllSettings())
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func decode(settings map[string]any) (*Config, error) {
	c := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           c,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create config decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	return c, nil
}

// Validate checks the values that cannot be checked by decoding alone.
func (c *Config) Validate() error {
	if _, err := c.CurveID(); err != nil {
		return err
	}
	if _, err := c.HashAlg(); err != nil {
		return err
	}
	switch c.Storage.Type {
	case MemoryStorage:
	case SQLiteStorage, PostgresStorage:
		if c.Storage.DataSource == "" {
			return errors.Errorf("storage [%s] requires a datasource", c.Storage.Type)
		}
	default:
		return errors.Errorf("unknown storage type [%s]", c.Storage.Type)
	}
	if c.Issuer.NonceTTL < 0 {
		return errors.Errorf("nonce ttl must not be negative, got [%s]", c.Issuer.NonceTTL)
	}
	if c.Issuer.Workers <= 0 {
		return errors.Errorf("issuer workers must be positive, got [%d]", c.Issuer.Workers)
	}
	return nil
}

func (c *Config) CurveID() (math.CurveID, error) {
	return emath.StringToCurveID(c.Curve)
}

func (c *Config) HashAlg() (emath.HashAlg, error) {
	return emath.ParseHashAlg(c.Hash)
}

// WriteDefault writes the default configuration as YAML.
func WriteDefault(w io.Writer) error {
	raw, err := yaml.Marshal(Default())
	if err != nil {
		return errors.Wrap(err, "failed to marshal default config")
	}
	_, err = w.Write(raw)
	return err
}
