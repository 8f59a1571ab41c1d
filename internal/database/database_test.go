package database

import (
	"context"
	"testing"
	"time"

	"hostly/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheConstants(t *testing.T) {
	assert.Equal(t, 0, GENERAL_CACHE_INDEX)
	assert.Equal(t, 1, SESSION_CACHE_INDEX)
	assert.Equal(t, 2, USER_CACHE_INDEX)
	assert.Equal(t, 3, EVENTS_CACHE_INDEX)
	assert.Equal(t, 4, CLIENT_API_CACHE_INDEX)
}

func TestCacheForIndex(t *testing.T) {
	tests := []struct {
		index    int
		wantName string
		wantOK   bool
	}{
		{GENERAL_CACHE_INDEX, "General", true},
		{SESSION_CACHE_INDEX, "Session", true},
		{USER_CACHE_INDEX, "User", true},
		{EVENTS_CACHE_INDEX, "Events", true},
		{CLIENT_API_CACHE_INDEX, "ClientAPI", true},
		{42, "", false},
	}

	for _, tt := range tests {
		_, name, ok := cacheForIndex(tt.index, Cache{})
		assert.Equal(t, tt.wantName, name)
		assert.Equal(t, tt.wantOK, ok)
	}
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.Config{
		DatabaseHost:     "db",
		DatabasePort:     5432,
		DatabaseUser:     "hostly",
		DatabasePassword: "secret",
		DatabaseName:     "hostly",
	})

	assert.Contains(t, dsn, "host=db")
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "dbname=hostly")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestDB_CloseWithoutConnections(t *testing.T) {
	db := &DB{}
	assert.NoError(t, db.Close())
}

func TestCacheBuilder_KeyComposition(t *testing.T) {
	id := uuid.New()

	assert.Equal(t, "properties:"+id.String(), NewCacheBuilder(nil, id).WithHash("properties").Key())
	assert.Equal(t, "plain", NewCacheBuilder(nil, "plain").WithHash("").Key())
	assert.Equal(
		t,
		"rates:USD:v1",
		NewCacheBuilder(nil, "USD").WithHashPattern("rates:%s:v1").Key(),
	)
}

func TestCacheBuilder_NilClientDegrades(t *testing.T) {
	var out map[string]string

	found, err := NewCacheBuilder(nil, "key").WithContext(context.Background()).Get(&out)
	assert.False(t, found)
	assert.ErrorIs(t, err, ErrCacheDisabled)

	err = NewCacheBuilder(nil, "key").WithStruct(map[string]string{"a": "b"}).Set()
	assert.ErrorIs(t, err, ErrCacheDisabled)

	assert.ErrorIs(t, NewCacheBuilder(nil, "key").Delete(), ErrCacheDisabled)

	_, err = NewCacheBuilder(nil, "key").GetSetMembers()
	assert.ErrorIs(t, err, ErrCacheDisabled)

	set := NewCacheBuilder(nil, "user").WithHash("properties_keys").WithMember("properties:user")
	assert.ErrorIs(t, set.SetSadd(), ErrCacheDisabled)
	assert.ErrorIs(t, set.RemoveSetMember(), ErrCacheDisabled)
}

func TestCacheBuilder_WithStructMarshalError(t *testing.T) {
	err := NewCacheBuilder(nil, "key").WithStruct(make(chan int)).Set()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheDisabled)
}

func TestCacheBuilder_TimeoutContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cb := NewCacheBuilder(nil, "key").WithContext(ctx).WithTimeout(time.Minute)
	timeoutCtx, timeoutCancel := cb.createTimeoutContext()
	defer timeoutCancel()

	deadline, ok := timeoutCtx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestLimiterStorage_NilClient(t *testing.T) {
	storage := NewLimiterStorage(nil)

	_, err := storage.Get("ip")
	assert.ErrorIs(t, err, ErrCacheDisabled)
	assert.NoError(t, storage.Set("", nil, time.Minute))
	assert.ErrorIs(t, storage.Reset(), ErrCacheDisabled)
	assert.NoError(t, storage.Close())
}
