package profilestore

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBackend_Key(t *testing.T) {
	b := NewRedisBackend(nil, testNamespace)
	assert.Equal(t, "credflow-478510:crediflow_customers:9876543210", b.Key("9876543210"))
}

func TestRedisBackend_GetMissing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	b := NewRedisBackend(db, testNamespace)

	mock.ExpectGet(b.Key("0000000000")).RedisNil()

	_, err := b.Get(context.Background(), "0000000000")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBackend_GetError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	b := NewRedisBackend(db, testNamespace)

	mock.ExpectGet(b.Key("9876543210")).SetErr(errors.New("READONLY"))

	_, err := b.Get(context.Background(), "9876543210")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDocumentNotFound)
	assert.Contains(t, err.Error(), "READONLY")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBackend_PingError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	b := NewRedisBackend(db, testNamespace)

	mock.ExpectPing().SetErr(errors.New("connection refused"))

	assert.Error(t, b.Ping(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
