package database

import (
	"context"
	"fmt"
	"time"

	"hostly/config"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/valkey-io/valkey-go"
)

// Valkey database indexes. Each index keeps one cache category apart.
const (
	// GENERAL_CACHE_INDEX (DB 0) - miscellaneous cache operations
	GENERAL_CACHE_INDEX = iota

	// SESSION_CACHE_INDEX (DB 1) - rate limiter state for public guest endpoints
	SESSION_CACHE_INDEX

	// USER_CACHE_INDEX (DB 2) - user profiles and per-user property lists
	USER_CACHE_INDEX

	// EVENTS_CACHE_INDEX (DB 3) - event bus pub/sub
	EVENTS_CACHE_INDEX

	// CLIENT_API_CACHE_INDEX (DB 4) - external API responses (currency rates)
	CLIENT_API_CACHE_INDEX
)

func newCacheClient(address string, port int, index int) (valkey.Client, error) {
	return valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%d", address, port)},
		SelectDB:    index,
	})
}

func (s *DB) initializeCacheDB(config config.Config) error {
	log := s.log.Function("initializeCacheDB")
	log.Info("initializing cache database")

	address := config.DatabaseCacheAddress
	port := config.DatabaseCachePort
	if address == "" || port == 0 {
		return log.Errorf("failed to initialize cache database", "address or port is empty")
	}

	var cacheDB Cache
	var err error

	if cacheDB.General, err = newCacheClient(address, port, GENERAL_CACHE_INDEX); err != nil {
		return log.Err("failed to create general valkey client", err)
	}
	if cacheDB.Session, err = newCacheClient(address, port, SESSION_CACHE_INDEX); err != nil {
		return log.Err("failed to create session valkey client", err)
	}
	if cacheDB.User, err = newCacheClient(address, port, USER_CACHE_INDEX); err != nil {
		return log.Err("failed to create user valkey client", err)
	}
	if cacheDB.Events, err = newCacheClient(address, port, EVENTS_CACHE_INDEX); err != nil {
		return log.Err("failed to create events valkey client", err)
	}
	if cacheDB.ClientAPI, err = newCacheClient(address, port, CLIENT_API_CACHE_INDEX); err != nil {
		return log.Err("failed to create client api valkey client", err)
	}

	s.Cache = cacheDB

	if config.DatabaseCacheReset != -1 {
		go clearCacheDB(config.DatabaseCacheReset, cacheDB)
	}

	return nil
}

func cacheForIndex(index int, cacheDB Cache) (CacheClient, string, bool) {
	switch index {
	case GENERAL_CACHE_INDEX:
		return cacheDB.General, "General", true
	case SESSION_CACHE_INDEX:
		return cacheDB.Session, "Session", true
	case USER_CACHE_INDEX:
		return cacheDB.User, "User", true
	case EVENTS_CACHE_INDEX:
		return cacheDB.Events, "Events", true
	case CLIENT_API_CACHE_INDEX:
		return cacheDB.ClientAPI, "ClientAPI", true
	default:
		return nil, "", false
	}
}

func clearCacheDB(index int, cacheDB Cache) {
	log := logger.New("database").File("cache.database").Function("clearCacheDB")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, dbName, ok := cacheForIndex(index, cacheDB)
	if !ok || client == nil {
		log.Warn("Invalid cache database index", "index", index)
		return
	}

	if err := client.Do(ctx, client.B().Flushdb().Build()).Error(); err != nil {
		log.Er("Failed to clear cache database", err, "index", index, "dbName", dbName)
		return
	}

	log.Info("Successfully cleared cache database", "index", index, "dbName", dbName)
}
