package services

import (
	"context"
	"errors"
	"testing"

	"hostly/internal/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestTransactionService_Execute(t *testing.T) {
	errWork := errors.New("work failed")

	tests := []struct {
		name       string
		expect     func(mock sqlmock.Sqlmock)
		fn         func(ctx context.Context, tx *gorm.DB) error
		wantErr    error
		wantErrMsg string
	}{
		{
			name: "commits on success",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit()
			},
			fn: func(ctx context.Context, tx *gorm.DB) error { return nil },
		},
		{
			name: "rolls back on error",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			fn:      func(ctx context.Context, tx *gorm.DB) error { return errWork },
			wantErr: errWork,
		},
		{
			name: "recovers from panic",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			fn:         func(ctx context.Context, tx *gorm.DB) error { panic("test panic") },
			wantErrMsg: "panic during transaction",
		},
		{
			name: "reports commit failure",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit().WillReturnError(errors.New("commit refused"))
			},
			fn:         func(ctx context.Context, tx *gorm.DB) error { return nil },
			wantErrMsg: "commit refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock := setupMockDB(t)
			tt.expect(mock)

			service := NewTransactionService(database.DB{SQL: gormDB})

			called := false
			err := service.Execute(context.Background(), func(ctx context.Context, tx *gorm.DB) error {
				called = true
				return tt.fn(ctx, tx)
			})

			assert.True(t, called)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
