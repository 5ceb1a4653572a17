package redis

import (
	"context"
	"fmt"
	"slices"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/hybridrag/internal/db"
)

// HSetAtomic writes all hashes in one MULTI/EXEC round-trip.
// Readers see either none of the items or all of them.
func (s *Store) HSetAtomic(ctx context.Context, items []db.HashSetItem) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, len(items)+2)
	cmds = append(cmds, s.b().Multi().Build())
	for _, item := range items {
		cmds = append(cmds, s.hset(item))
	}
	cmds = append(cmds, s.b().Exec().Build())

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results[:len(results)-1] {
		if err := res.Error(); err != nil {
			if i == 0 {
				return &db.Error{Op: db.OpExec, Err: err}
			}
			return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", items[i-1].Key, err)}
		}
	}

	replies, err := results[len(results)-1].ToArray()
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: err}
	}
	for i, r := range replies {
		if err := r.Error(); err != nil {
			return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", items[i].Key, err)}
		}
	}
	return nil
}

// hset builds one HSET with fields in name order.
func (s *Store) hset(item db.HashSetItem) rueidis.Completed {
	names := make([]string, 0, len(item.Fields))
	for k := range item.Fields {
		names = append(names, k)
	}
	slices.Sort(names)

	cmd := s.b().Hset().Key(item.Key).FieldValue()
	for _, k := range names {
		cmd = cmd.FieldValue(k, item.Fields[k])
	}
	return cmd.Build()
}

// ExistsMulti checks several keys in a single DoMulti round-trip.
func (s *Store) ExistsMulti(ctx context.Context, keys []string) ([]bool, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Exists().Key(key).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	out := make([]bool, len(results))
	for i, res := range results {
		n, err := res.AsInt64()
		if err != nil {
			return nil, &db.Error{Op: db.OpExists, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		out[i] = n > 0
	}
	return out, nil
}
