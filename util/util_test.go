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

package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratePasswordLength(t *testing.T) {
	for _, length := range []int{1, 12, 64} {
		password, err := GeneratePassword(length)
		require.Nil(t, err)
		require.Len(t, password, length)
	}
}

func TestGeneratePasswordCharset(t *testing.T) {
	password, err := GeneratePassword(256)
	require.Nil(t, err)
	for _, r := range password {
		require.True(t, strings.ContainsRune(alphanumeric, r), "unexpected rune %q", r)
	}
}

func TestGeneratePasswordIsRandom(t *testing.T) {
	first, err := GeneratePassword(32)
	require.Nil(t, err)
	second, err := GeneratePassword(32)
	require.Nil(t, err)
	require.NotEqual(t, first, second)
}
