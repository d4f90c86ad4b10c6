// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a generic sharded LRU cache.
//
// [Sharded] spreads entries over 16 shards to reduce lock contention and
// evicts the least recently used entry of a shard once that shard is full.
// It is used to memoize pure, reproducible data such as per-stage bytecode
// reflections keyed by a content digest, where losing an entry to eviction
// only costs a recomputation.
//
//	c := cache.NewSharded[cache.Digest, *Module](64, cache.DigestHasher)
//	m, err := c.GetOrCompute(digest, func() (*Module, error) {
//	    return parse(words)
//	})
//
// # Thread Safety
//
// Sharded is safe for concurrent use and must not be copied after creation.
//
// Do not store values that own GPU resources: eviction drops entries without
// notifying anyone.
package cache
