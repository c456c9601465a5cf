package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePairs(t *testing.T) {
	got := parsePairs("omniflix=https://api.omniflix.studio, backup=https://b.example.com")
	require.Equal(t, map[string]string{
		"omniflix": "https://api.omniflix.studio",
		"backup":   "https://b.example.com",
	}, got)

	require.Empty(t, parsePairs(""))
	require.Empty(t, parsePairs("novalue,=x,y="))
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	cfg.SlotLength = 0
	require.Error(t, cfg.Validate())

	cfg.SlotLength = 3600
	cfg.PlayoutBaseURL = ""
	require.Error(t, cfg.Validate())
}

func TestDatabaseURLEscapesPassword(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	cfg.DB.Password = "p@ss w0rd"
	require.Contains(t, cfg.DatabaseURL(), "p%40ss+w0rd")
}
