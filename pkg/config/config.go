// Copyright 2023 LiveKit, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

var (
	ErrKeysMissing       = errors.New("livekit url, api_key and api_secret must be set")
	ErrStorageIncomplete = errors.New("s3 access_key, secret, bucket and region must be set")
)

type Config struct {
	Port          uint32   `yaml:"port,omitempty"`
	BindAddresses []string `yaml:"bind_addresses,omitempty"`

	LiveKit LiveKitConfig `yaml:"livekit,omitempty"`
	S3      S3Config      `yaml:"s3,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`

	Development bool `yaml:"development,omitempty"`
}

// LiveKitConfig points at the deployment that owns rooms, participants
// and egress. The gateway only holds its API keypair.
type LiveKitConfig struct {
	URL       string `yaml:"url,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	APISecret string `yaml:"api_secret,omitempty"`
}

// S3Config is the object storage target recordings are written to.
type S3Config struct {
	AccessKey      string `yaml:"access_key,omitempty"`
	Secret         string `yaml:"secret,omitempty"`
	Region         string `yaml:"region,omitempty"`
	Bucket         string `yaml:"bucket,omitempty"`
	Endpoint       string `yaml:"endpoint,omitempty"`
	ForcePathStyle bool   `yaml:"force_path_style,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
	JSON  bool   `yaml:"json,omitempty"`
}

func NewConfig(confString string, c *cli.Context) (*Config, error) {
	conf := &Config{
		Port: 3001,
	}
	if confString != "" {
		if err := yaml.Unmarshal([]byte(confString), conf); err != nil {
			return nil, errors.Wrap(err, "could not parse config")
		}
	}

	if c != nil {
		if err := conf.updateFromCLI(c); err != nil {
			return nil, err
		}
	}

	return conf, nil
}

func (conf *Config) updateFromCLI(c *cli.Context) error {
	if c.IsSet("url") {
		conf.LiveKit.URL = c.String("url")
	}
	if c.IsSet("api-key") {
		conf.LiveKit.APIKey = c.String("api-key")
	}
	if c.IsSet("api-secret") {
		conf.LiveKit.APISecret = c.String("api-secret")
	}
	if c.IsSet("s3-access-key") {
		conf.S3.AccessKey = c.String("s3-access-key")
	}
	if c.IsSet("s3-secret") {
		conf.S3.Secret = c.String("s3-secret")
	}
	if c.IsSet("s3-region") {
		conf.S3.Region = c.String("s3-region")
	}
	if c.IsSet("s3-bucket") {
		conf.S3.Bucket = c.String("s3-bucket")
	}
	if c.IsSet("s3-endpoint") {
		conf.S3.Endpoint = c.String("s3-endpoint")
	}
	if c.IsSet("s3-force-path-style") {
		conf.S3.ForcePathStyle = c.Bool("s3-force-path-style")
	}
	if c.IsSet("dev") {
		conf.Development = c.Bool("dev")
	}
	return nil
}

// HasLiveKit reports whether the platform connection is fully configured.
func (c *LiveKitConfig) HasLiveKit() bool {
	return c.URL != "" && c.APIKey != "" && c.APISecret != ""
}

// HasStorage reports whether the recording output target is fully configured.
func (c *S3Config) HasStorage() bool {
	return c.AccessKey != "" && c.Secret != "" && c.Bucket != "" && c.Region != ""
}

// Validate is called once at startup; handlers re-check per request so a
// partially configured gateway can still serve token endpoints.
func (conf *Config) Validate() error {
	if !conf.LiveKit.HasLiveKit() {
		return ErrKeysMissing
	}
	return nil
}
