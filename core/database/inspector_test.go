package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func TestGetTableColumns(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE test_docs (id TEXT PRIMARY KEY, body TEXT NOT NULL, is_deleted NUMERIC)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "test_docs")
	require.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]ColumnInfo)
	for _, col := range columns {
		colMap[col.Field] = col
	}

	assert.Equal(t, "text", colMap["id"].Type)
	assert.Equal(t, "PRI", colMap["id"].Key)
	assert.Equal(t, "NO", colMap["body"].Null)
	assert.Equal(t, "numeric", colMap["is_deleted"].Type)

	// PRAGMA table_info returns no rows for a missing table.
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestGetTableColumns_MySQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("Collection", "VARCHAR(64)", "NO", "PRI", nil, "").
		AddRow("ID", "VARCHAR(191)", "NO", "PRI", nil, "")
	mock.ExpectQuery("SHOW COLUMNS FROM `documents`").WillReturnRows(rows)

	columns, err := GetTableColumns(db, "documents")
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.Equal(t, "collection", columns[0].Field)
	assert.Equal(t, "varchar(64)", columns[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMissingColumns(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE audit_logs (id INTEGER PRIMARY KEY, action TEXT)").Error)

	missing, err := MissingColumns(db, "audit_logs", []string{"id", "action", "doc_id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"doc_id"}, missing)
}
