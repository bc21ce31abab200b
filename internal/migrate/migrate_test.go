package migrate

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/peakflow/migrations"
)

func TestFiles_Ordered(t *testing.T) {
	files, err := Files()
	require.NoError(t, err)
	require.Len(t, files, 5)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	require.Equal(t, []string{
		"00001_users.sql",
		"00002_readings.sql",
		"00003_settings.sql",
		"00004_password_reset_codes.sql",
		"00005_attempt_limiter.sql",
	}, names)
}

func TestMigrations_HaveUpAndDown(t *testing.T) {
	err := fs.WalkDir(migrations.FS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := fs.ReadFile(migrations.FS, path)
		require.NoError(t, err)
		s := string(b)
		require.True(t, strings.Contains(s, "-- +goose Up"), path)
		require.True(t, strings.Contains(s, "-- +goose Down"), path)
		return nil
	})
	require.NoError(t, err)
}
