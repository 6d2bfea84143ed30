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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func getDefaultSectionConfig() Default {
	return Default{
		PasswordLength:          16,
		VNCEnabled:              true,
		ReclaimInstanceInterval: 0,
		DefaultFlavor:           "m1.small",
		ResizeTimeout:           30,
	}
}

func getDefaultNovaConfig() Nova {
	return Nova{
		AuthURL:     "https://keystone.example.com:5000/v3",
		Username:    "occi",
		Password:    "secret",
		ProjectName: "demo",
		DomainName:  "default",
		Region:      "RegionOne",
	}
}

func getDefaultConfig() Config {
	return Config{
		Default: getDefaultSectionConfig(),
		Nova:    getDefaultNovaConfig(),
	}
}

func TestConfig(t *testing.T) {
	cfg := getDefaultConfig()

	err := cfg.Validate()
	require.Nil(t, err)
}

func TestDefaultSectionMissingFlavor(t *testing.T) {
	cfg := getDefaultSectionConfig()
	cfg.DefaultFlavor = ""

	err := cfg.Validate()
	require.NotNil(t, err)
	require.EqualError(t, err, "missing default_flavor")
}

func TestDefaultSectionNegativePasswordLength(t *testing.T) {
	cfg := getDefaultSectionConfig()
	cfg.PasswordLength = -1

	err := cfg.Validate()
	require.NotNil(t, err)
	require.EqualError(t, err, "invalid password_length: -1")
}

func TestDefaultSectionFallbacks(t *testing.T) {
	cfg := Default{
		DefaultFlavor: "m1.small",
	}

	require.Equal(t, DefaultPasswordLength, cfg.GetPasswordLength())
	require.Equal(t, DefaultResizeTimeout, cfg.GetResizeTimeout())

	cfg.PasswordLength = 20
	cfg.ResizeTimeout = 60
	require.Equal(t, 20, cfg.GetPasswordLength())
	require.Equal(t, 60*time.Second, cfg.GetResizeTimeout())
}

func TestNovaMissingAuthURL(t *testing.T) {
	cfg := getDefaultNovaConfig()
	cfg.AuthURL = ""

	err := cfg.Validate()
	require.NotNil(t, err)
	require.EqualError(t, err, "missing auth_url")
}

func TestNovaInvalidAuthURLScheme(t *testing.T) {
	cfg := getDefaultNovaConfig()
	cfg.AuthURL = "ftp://whatever"

	err := cfg.Validate()
	require.NotNil(t, err)
	require.EqualError(t, err, "auth_url must be http or https")
}

func TestNovaMissingCredentials(t *testing.T) {
	cfg := getDefaultNovaConfig()
	cfg.Password = ""

	err := cfg.Validate()
	require.NotNil(t, err)
	require.EqualError(t, err, "username and password are mandatory")
}

func TestNovaMissingProject(t *testing.T) {
	cfg := getDefaultNovaConfig()
	cfg.ProjectName = ""

	err := cfg.Validate()
	require.NotNil(t, err)
	require.EqualError(t, err, "missing project_name")
}
