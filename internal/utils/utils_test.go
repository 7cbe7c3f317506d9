package utils

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLogLevel(t *testing.T) {
	defer Log.SetLevel(logrus.InfoLevel)

	require.NoError(t, SetLogLevel("DEBUG"))
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
	require.NoError(t, SetLogLevel("warn"))
	assert.Equal(t, logrus.WarnLevel, Log.GetLevel())
	assert.Error(t, SetLogLevel("loud"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hawksbill-turtle", Slugify("Hawksbill  Turtle"))
	assert.Equal(t, "pandanus-tectorius", Slugify("Pandanus tectorius (Parkinson)"))
	assert.Equal(t, "", Slugify("  --  "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "mang…", Truncate("mangrove", 5))
	assert.Equal(t, "mangrove", Truncate("mangrove", 0))
}

func TestWithDBLock(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.sqlite")

	ran := false
	require.NoError(t, WithDBLock(dbPath, func() error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
	assert.FileExists(t, dbPath+lockFileSuffix)

	// Released: a second holder does not block.
	require.NoError(t, WithDBLock(dbPath, func() error { return nil }))
}
