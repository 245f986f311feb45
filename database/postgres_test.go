package database

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestDropReplacedIndexes(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	for _, name := range replacedIndexes {
		mock.ExpectExec(regexp.QuoteMeta(`DROP INDEX IF EXISTS ` + name)).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, dropReplacedIndexes(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDropReplacedIndexes_StopsOnError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`DROP INDEX IF EXISTS ` + replacedIndexes[0])).
		WillReturnError(errors.New("permission denied"))

	err = dropReplacedIndexes(db)
	assert.ErrorContains(t, err, replacedIndexes[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}
