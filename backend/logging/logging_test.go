// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON_With_Component(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer

	logger := Component(New("debug", "json", &buf), "session")
	logger.Info().Str("connection_id", "c1").Msg("joined")

	var line map[string]any
	req.NoError(json.Unmarshal(buf.Bytes(), &line))
	req.Equal("session", line["component"])
	req.Equal("c1", line["connection_id"])
	req.Equal("joined", line["message"])
}

func TestNew_Unknown_Level_Is_Info(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer

	logger := New("chatty", "json", &buf)
	req.Equal(zerolog.InfoLevel, logger.GetLevel())

	logger.Debug().Msg("hidden")
	req.Zero(buf.Len())
}
