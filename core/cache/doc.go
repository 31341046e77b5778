// Package cache wires the optional Redis connection.
//
// Redis is used for two things: the replayable live log of sync sessions and the
// lock that serializes destructive operations. Both have in-process fallbacks, so an
// empty redis.addr runs the service on a single node without Redis.
package cache
