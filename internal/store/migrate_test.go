// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authcore/pkg/errutil"
)

// mockMigrate implements migrateIface for testing.
type mockMigrate struct {
	upErr          error
	downErr        error
	stepsErr       error
	versionVal     uint
	versionErr     error
	dirty          bool
	forceErr       error
	closeSourceErr error
	closeDbErr     error
}

func (m *mockMigrate) Up() error                    { return m.upErr }
func (m *mockMigrate) Down() error                  { return m.downErr }
func (m *mockMigrate) Steps(_ int) error            { return m.stepsErr }
func (m *mockMigrate) Version() (uint, bool, error) { return m.versionVal, m.dirty, m.versionErr }
func (m *mockMigrate) Force(_ int) error            { return m.forceErr }
func (m *mockMigrate) Close() (error, error)        { return m.closeSourceErr, m.closeDbErr }

func TestNewMigrator_InvalidURL(t *testing.T) {
	_, err := NewMigrator("badscheme://localhost:5432/testdb")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
}

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@h:5432/db", "pgx5://u:p@h:5432/db"},
		{"postgresql://u:p@h/db?sslmode=disable", "pgx5://u:p@h/db?sslmode=disable"},
		{"pgx5://h/db", "pgx5://h/db"},
		{"mysql://h/db", "mysql://h/db"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, migrateURL(tt.in))
	}
}

func TestMigrator_UpDownSteps(t *testing.T) {
	boom := errors.New("database locked")
	tests := []struct {
		name    string
		mock    *mockMigrate
		run     func(*Migrator) error
		errCode string
	}{
		{"up", &mockMigrate{}, (*Migrator).Up, ""},
		{"up no change", &mockMigrate{upErr: migrate.ErrNoChange}, (*Migrator).Up, ""},
		{"up error", &mockMigrate{upErr: boom}, (*Migrator).Up, "MIGRATION_UP_FAILED"},
		{"down", &mockMigrate{}, (*Migrator).Down, ""},
		{"down no change", &mockMigrate{downErr: migrate.ErrNoChange}, (*Migrator).Down, ""},
		{"down error", &mockMigrate{downErr: boom}, (*Migrator).Down, "MIGRATION_DOWN_FAILED"},
		{"steps", &mockMigrate{}, func(m *Migrator) error { return m.Steps(2) }, ""},
		{"steps zero", &mockMigrate{stepsErr: migrate.ErrNoChange}, func(m *Migrator) error { return m.Steps(0) }, ""},
		{"steps error", &mockMigrate{stepsErr: boom}, func(m *Migrator) error { return m.Steps(-1) }, "MIGRATION_STEPS_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(&Migrator{m: tt.mock})
			if tt.errCode == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, boom)
			errutil.AssertErrorCode(t, err, tt.errCode)
		})
	}
}

func TestMigrator_Version(t *testing.T) {
	v, dirty, err := (&Migrator{m: &mockMigrate{versionVal: 2, dirty: true}}).Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
	assert.True(t, dirty)

	v, dirty, err = (&Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}).Version()
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.False(t, dirty)

	_, _, err = (&Migrator{m: &mockMigrate{versionErr: errors.New("no table")}}).Version()
	errutil.AssertErrorCode(t, err, "MIGRATION_VERSION_FAILED")
}

func TestMigrator_Force(t *testing.T) {
	require.NoError(t, (&Migrator{m: &mockMigrate{}}).Force(1))

	err := (&Migrator{m: &mockMigrate{}}).Force(-1)
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")

	err = (&Migrator{m: &mockMigrate{forceErr: errors.New("locked")}}).Force(3)
	errutil.AssertErrorCode(t, err, "MIGRATION_FORCE_FAILED")
	errutil.AssertErrorContext(t, err, "version", 3)
}

func TestMigrator_Close(t *testing.T) {
	srcErr := errors.New("source")
	dbErr := errors.New("database")

	require.NoError(t, (&Migrator{m: &mockMigrate{}}).Close())

	err := (&Migrator{m: &mockMigrate{closeSourceErr: srcErr}}).Close()
	errutil.AssertErrorContext(t, err, "component", "source")

	err = (&Migrator{m: &mockMigrate{closeDbErr: dbErr}}).Close()
	errutil.AssertErrorContext(t, err, "component", "database")

	err = (&Migrator{m: &mockMigrate{closeSourceErr: srcErr, closeDbErr: dbErr}}).Close()
	require.ErrorIs(t, err, srcErr)
	require.ErrorIs(t, err, dbErr)
	errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
}

func TestMigrator_Status(t *testing.T) {
	latest, err := LatestVersion()
	require.NoError(t, err)
	require.GreaterOrEqual(t, latest, uint(3))

	status, err := (&Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}).Status()
	require.NoError(t, err)
	assert.Empty(t, status.Applied)
	assert.Len(t, status.Pending, int(latest))

	status, err = (&Migrator{m: &mockMigrate{versionVal: 1}}).Status()
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, status.Applied)
	assert.NotContains(t, status.Pending, uint(1))
	assert.Contains(t, status.Pending, latest)

	status, err = (&Migrator{m: &mockMigrate{versionVal: latest}}).Status()
	require.NoError(t, err)
	assert.Empty(t, status.Pending)

	_, err = (&Migrator{m: &mockMigrate{versionErr: errors.New("gone")}}).Status()
	errutil.AssertErrorCode(t, err, "MIGRATION_VERSION_FAILED")
}

func TestMigrationName(t *testing.T) {
	name, err := MigrationName(1)
	require.NoError(t, err)
	assert.Equal(t, "000001_accounts", name)

	name, err = MigrationName(9999)
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestAllMigrationVersions_ReturnsCopy(t *testing.T) {
	first, err := allMigrationVersions()
	require.NoError(t, err)
	require.NotEmpty(t, first)
	first[0] = 999

	second, err := allMigrationVersions()
	require.NoError(t, err)
	assert.Equal(t, uint(1), second[0])
}

func TestParseVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_b.up.sql":   {},
		"m/000002_b.down.sql": {},
		"m/000001_a.up.sql":   {},
		"m/README.md":         {},
	}
	got, err := parseVersions(fsys, "m")
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, got)

	_, err = parseVersions(fstest.MapFS{"m/latest.up.sql": {}}, "m")
	errutil.AssertErrorCode(t, err, "MIGRATION_NAME_INVALID")
}
