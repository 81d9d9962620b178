// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshwork/meshwork/internal/config"
)

func TestNewServeCmd(t *testing.T) {
	cmd := NewServeCmd()

	assert.Equal(t, "serve", cmd.Use)
	assert.NotNil(t, cmd.RunE)
}

func TestNewServeCmd_Flags(t *testing.T) {
	cmd := NewServeCmd()

	tests := []struct {
		flag   string
		defVal string
	}{
		{"http_addr", config.DefaultHTTPAddr},
		{"metrics_addr", config.DefaultMetricsAddr},
		{"log_format", config.DefaultLogFormat},
		{"auto-migrate", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			flag := cmd.Flags().Lookup(tt.flag)
			require.NotNil(t, flag, "flag %s should exist", tt.flag)
			assert.Equal(t, tt.defVal, flag.DefValue)
		})
	}
}
