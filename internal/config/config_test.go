package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, 6, cfg.DailyQuestionCount)
	require.Equal(t, "ephemeral", cfg.EncryptionMode)
	require.Equal(t, 100000, cfg.KDFIterations)
}

func TestLoadRejectsUnknownEncryptionMode(t *testing.T) {
	t.Setenv("PAIRSYNC_ENCRYPTION_MODE", "rot13")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadHonorsOverrides(t *testing.T) {
	t.Setenv("PAIRSYNC_DAILY_QUESTION_COUNT", "9")
	t.Setenv("PAIRSYNC_ENCRYPTION_MODE", "passphrase")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9, cfg.DailyQuestionCount)
	require.Equal(t, "passphrase", cfg.EncryptionMode)
}
