// Copyright 2026 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config reads the collector configuration: the API key and named
// NFT projects, in YAML or TOML.
package config

import (
	"bytes"
	"encoding"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/nftseed/alchemy/collection"
	"golang.org/x/exp/slices"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Sample is a minimal configuration, printed when the config file is missing.
const Sample = `alchemy:
  api_key: "YourSecretAlchemyKey"
projects:
  - name: azuki
    address: "0xed5af388653567af2f388e6224dc7c4b3241c544"
`

// Format of the config file.
type Format string

// Values of Format.
const (
	YAML = Format("yaml")
	TOML = Format("toml")
)

// FormatOf determines the config format from the file extension.
func FormatOf(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	}
	return "", errors.Reason("unsupported config file extension: '%s'", fileName)
}

// Alchemy API settings.
type Alchemy struct {
	APIKey string `yaml:"api_key" toml:"api_key"`
}

// Project is a named NFT collection.
type Project struct {
	Name    string `yaml:"name" toml:"name"`
	Address string `yaml:"address" toml:"address"` // contract address
}

// Seconds is a duration written as an integer or a fractional number of
// seconds, e.g. 30 or 0.1.
type Seconds float64

var _ encoding.TextUnmarshaler = new(Seconds)

// UnmarshalText accepts the literal of any YAML or TOML number.
func (s *Seconds) UnmarshalText(text []byte) error {
	str := strings.ReplaceAll(strings.TrimSpace(string(text)), "_", "")
	v, err := strconv.ParseFloat(str, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.Reason("expected a number of seconds, got '%s'", string(text))
	}
	*s = Seconds(v)
	return nil
}

// Duration converts s to time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(float64(s) * float64(time.Second))
}

// Collect holds the optional collection settings.
type Collect struct {
	OnInvalid     collection.Policy `yaml:"on_invalid" toml:"on_invalid"`         // default: abort
	MaxPages      *int              `yaml:"max_pages" toml:"max_pages"`           // default: 10000; 0 = unlimited
	BackoffFactor Seconds           `yaml:"backoff_factor" toml:"backoff_factor"` // default: 0.1
	Timeout       Seconds           `yaml:"timeout" toml:"timeout"`               // per request; default: 30
}

// Backoff is BackoffFactor as time.Duration.
func (c *Collect) Backoff() time.Duration {
	return c.BackoffFactor.Duration()
}

// RequestTimeout is Timeout as time.Duration.
func (c *Collect) RequestTimeout() time.Duration {
	return c.Timeout.Duration()
}

// Config of the collector.
type Config struct {
	Alchemy  Alchemy   `yaml:"alchemy" toml:"alchemy"`
	Projects []Project `yaml:"projects" toml:"projects"`
	Collect  Collect   `yaml:"collect" toml:"collect"`
}

// Project finds the project by its exact name, or returns nil.
func (c *Config) Project(name string) *Project {
	for i := range c.Projects {
		if c.Projects[i].Name == name {
			return &c.Projects[i]
		}
	}
	return nil
}

// setDefaults and validate the config.
func (c *Config) setDefaults() error {
	if c.Alchemy.APIKey == "" {
		return errors.Reason("missing required alchemy.api_key")
	}
	names := make(map[string]struct{})
	for i, p := range c.Projects {
		if p.Name == "" {
			return errors.Reason("project #%d has no name", i+1)
		}
		if p.Address == "" {
			return errors.Reason("project '%s' has no address", p.Name)
		}
		if _, ok := names[p.Name]; ok {
			return errors.Reason("duplicate project name '%s'", p.Name)
		}
		names[p.Name] = struct{}{}
	}
	if c.Collect.OnInvalid == "" {
		c.Collect.OnInvalid = collection.Abort
	}
	if !slices.Contains(collection.Policies(), c.Collect.OnInvalid) {
		return errors.Reason("collect.on_invalid must be one of %v, got '%s'",
			collection.Policies(), c.Collect.OnInvalid)
	}
	if c.Collect.MaxPages == nil {
		n := collection.DefaultMaxPages
		c.Collect.MaxPages = &n
	}
	if *c.Collect.MaxPages < 0 {
		return errors.Reason("collect.max_pages = %d must be >= 0", *c.Collect.MaxPages)
	}
	if c.Collect.BackoffFactor < 0 || c.Collect.Timeout < 0 {
		return errors.Reason("collect.backoff_factor and collect.timeout must be >= 0")
	}
	if c.Collect.BackoffFactor == 0 {
		c.Collect.BackoffFactor = 0.1
	}
	if c.Collect.Timeout == 0 {
		c.Collect.Timeout = 30
	}
	return nil
}

// Parse the config data in the given format. Unknown fields are errors.
func Parse(data []byte, format Format) (*Config, error) {
	var c Config
	switch format {
	case YAML:
		d := yaml.NewDecoder(bytes.NewReader(data))
		d.KnownFields(true)
		if err := d.Decode(&c); err != nil {
			if err == io.EOF {
				return nil, errors.Reason("config is empty")
			}
			return nil, errors.Annotate(err, "failed to parse YAML")
		}
	case TOML:
		d := toml.NewDecoder(bytes.NewReader(data))
		d.DisallowUnknownFields()
		if err := d.Decode(&c); err != nil {
			return nil, errors.Annotate(err, "failed to parse TOML")
		}
	default:
		return nil, errors.Reason("unsupported config format '%s'", format)
	}
	if err := c.setDefaults(); err != nil {
		return nil, errors.Annotate(err, "invalid config")
	}
	return &c, nil
}

// Load reads the config file. The format is determined by the file extension.
func Load(fileName string) (*Config, error) {
	format, err := FormatOf(fileName)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Annotate(err,
				"config file '%s' does not exist.\nPlease create config file containing:\n%s",
				fileName, Sample)
		}
		return nil, errors.Annotate(err, "failed to read config file '%s'", fileName)
	}
	c, err := Parse(data, format)
	if err != nil {
		return nil, errors.Annotate(err, "failed to load '%s'", fileName)
	}
	return c, nil
}
