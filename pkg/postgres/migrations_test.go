package postgres

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles_Sorted(t *testing.T) {
	files, err := migrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for i := 1; i < len(files); i++ {
		assert.Less(t, files[i-1], files[i])
	}
	for _, f := range files {
		assert.True(t, strings.HasSuffix(f, ".sql"))
	}
}

func TestMigrations_CreateAdmissionsTables(t *testing.T) {
	content, err := fs.ReadFile(migrationsFS, "migrations/001_create_admissions_schema.sql")
	require.NoError(t, err)

	schema := string(content)
	tables := []string{"application_record", "admission_result", "enrolled_applicant", "upload_history"}
	for _, table := range tables {
		t.Run(table, func(t *testing.T) {
			assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
		})
	}

	assert.Contains(t, schema, "UNIQUE (applicant_id, program_code, list_date)")
	assert.Contains(t, schema, "UNIQUE (program_code, calculation_date)")
	assert.Contains(t, schema, "ON DELETE CASCADE")
}
