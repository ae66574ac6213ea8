// Package memredis provides an in-memory Redis server as a startable,
// test-aware resource. It needs neither Docker nor a network beyond
// loopback.
//
//	cache := memredis.New("cache")
//	declare.Shared(suiteType, "cache", func() *memredis.Resource { return cache })
//
//	// in a test
//	cache.Client().Set(ctx, "k", "v", 0)
//
// Every BeforeTest flushes the keyspace, so each scope that receives the
// signal starts from an empty server.
package memredis
