package migration

import (
	"io/fs"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecomply/backend/migrations"
)

var migrationName = regexp.MustCompile(`^(\d{6})_[a-z0-9_]+\.(up|down)\.sql$`)

func TestEmbeddedMigrations_ArePaired(t *testing.T) {
	names, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, name := range names {
		m := migrationName.FindStringSubmatch(name)
		require.NotNil(t, m, "unexpected migration file name %s", name)
		base := strings.TrimSuffix(strings.TrimSuffix(name, ".up.sql"), ".down.sql")
		if m[2] == "up" {
			ups[base] = true
		} else {
			downs[base] = true
		}
	}
	assert.Equal(t, ups, downs)
}

func TestEmbeddedMigrations_CreateBulkTables(t *testing.T) {
	names, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	sort.Strings(names)

	var schema strings.Builder
	for _, name := range names {
		data, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		schema.Write(data)
	}

	for _, table := range []string{
		"users", "orders", "entries", "comments", "entity_snapshots",
		"search_runs", "search_run_results", "bulk_process_logs", "bulk_change_records",
	} {
		assert.Contains(t, schema.String(), "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}
