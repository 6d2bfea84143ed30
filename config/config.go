// Copyright 2023 The occi-os Authors
//
//    Licensed under the Apache License, Version 2.0 (the "License"); you may
//    not use this file except in compliance with the License. You may obtain
//    a copy of the License at
//
//         http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
//    WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
//    License for the specific language governing permissions and limitations
//    under the License.

package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

const (
	// DefaultConfigFilePath is the default path on disk to the occi-os
	// configuration file.
	DefaultConfigFilePath = "/etc/occi-os/config.toml"

	// DefaultPasswordLength is the length of generated admin passwords
	// when password_length is not set.
	DefaultPasswordLength = 12

	// DefaultResizeTimeout is how long we wait for an instance to
	// reach the resized state before giving up.
	DefaultResizeTimeout = 15 * time.Second
)

// NewConfig returns a new Config
func NewConfig(cfgFile string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(cfgFile, &config); err != nil {
		return nil, errors.Wrap(err, "decoding toml")
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}
	return &config, nil
}

type Config struct {
	Default Default `toml:"default,omitempty" json:"default,omitempty"`
	Nova    Nova    `toml:"nova,omitempty" json:"nova,omitempty"`
	// LogFile is the location of the log file.
	LogFile string `toml:"log_file,omitempty" json:"log-file,omitempty"`
}

// Validate validates the config
func (c *Config) Validate() error {
	if err := c.Default.Validate(); err != nil {
		return errors.Wrap(err, "validating default section")
	}
	if err := c.Nova.Validate(); err != nil {
		return errors.Wrap(err, "validating nova section")
	}
	return nil
}

// Default holds the knobs of the glue layer itself.
type Default struct {
	// PasswordLength is the length of the randomly generated admin
	// password of new instances.
	PasswordLength int `toml:"password_length" json:"password-length"`
	// VNCEnabled gates the remote console operation. When false, the
	// console operation reports no console rather than an error.
	VNCEnabled bool `toml:"vnc_enabled" json:"vnc-enabled"`
	// ReclaimInstanceInterval mirrors the provider's deferred delete
	// setting, in seconds. When positive, deleting an instance uses
	// the provider's soft delete and reclamation happens later.
	ReclaimInstanceInterval int `toml:"reclaim_instance_interval" json:"reclaim-instance-interval"`
	// DefaultFlavor is the flavor used when a request carries no
	// resource template mixin.
	DefaultFlavor string `toml:"default_flavor" json:"default-flavor"`
	// ResizeTimeout is how many seconds to wait for a resize to reach
	// the resized state. Zero means DefaultResizeTimeout.
	ResizeTimeout int `toml:"resize_timeout" json:"resize-timeout"`
}

func (d *Default) Validate() error {
	if d.PasswordLength < 0 {
		return fmt.Errorf("invalid password_length: %d", d.PasswordLength)
	}
	if d.ReclaimInstanceInterval < 0 {
		return fmt.Errorf("invalid reclaim_instance_interval: %d", d.ReclaimInstanceInterval)
	}
	if d.ResizeTimeout < 0 {
		return fmt.Errorf("invalid resize_timeout: %d", d.ResizeTimeout)
	}
	if d.DefaultFlavor == "" {
		return fmt.Errorf("missing default_flavor")
	}
	return nil
}

// GetPasswordLength returns the configured password length or the
// default.
func (d *Default) GetPasswordLength() int {
	if d.PasswordLength == 0 {
		return DefaultPasswordLength
	}
	return d.PasswordLength
}

// GetResizeTimeout returns the configured resize deadline or the
// default.
func (d *Default) GetResizeTimeout() time.Duration {
	if d.ResizeTimeout == 0 {
		return DefaultResizeTimeout
	}
	return time.Duration(d.ResizeTimeout) * time.Second
}

// Nova holds connection information for the OpenStack deployment this
// glue layer fronts.
type Nova struct {
	// AuthURL is the keystone endpoint used for authentication.
	// example: https://keystone.example.com:5000/v3
	AuthURL string `toml:"auth_url" json:"auth-url"`
	// Username and Password are the service credentials used when the
	// caller identity does not carry its own token.
	Username string `toml:"username" json:"username"`
	Password string `toml:"password" json:"password"`
	// ProjectName is the project new instances are scoped to.
	ProjectName string `toml:"project_name" json:"project-name"`
	// DomainName is the keystone domain of the user and project.
	DomainName string `toml:"domain_name" json:"domain-name"`
	// Region selects the compute and volume endpoints from the
	// service catalog.
	Region string `toml:"region" json:"region"`
	// CACert is the path to a CA bundle used when talking to the
	// OpenStack endpoints. If empty, the system CA pool is used.
	CACert string `toml:"ca_cert" json:"ca-cert"`
}

func (n *Nova) Validate() error {
	if n.AuthURL == "" {
		return fmt.Errorf("missing auth_url")
	}
	parsed, err := url.ParseRequestURI(n.AuthURL)
	if err != nil {
		return errors.Wrap(err, "validating auth_url")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("auth_url must be http or https")
	}
	if n.Username == "" || n.Password == "" {
		return fmt.Errorf("username and password are mandatory")
	}
	if n.ProjectName == "" {
		return fmt.Errorf("missing project_name")
	}
	if n.DomainName == "" {
		return fmt.Errorf("missing domain_name")
	}
	return nil
}
