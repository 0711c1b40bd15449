package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/altura-advisory/retrieval/internal/db"
)

// HSetMulti stores multiple hashes in a single MULTI/EXEC transaction.
// DoMulti pipelines the whole batch on one connection, so either every
// hash is written or none is; a concurrent reader never observes a
// partially applied batch.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, len(items)+2)
	cmds = append(cmds, s.b().Multi().Build())
	for _, item := range items {
		cmd := s.b().Hset().Key(item.Key).FieldValue()
		for k, v := range item.Fields {
			cmd = cmd.FieldValue(k, v)
		}
		cmds = append(cmds, cmd.Build())
	}
	cmds = append(cmds, s.b().Exec().Build())

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			if i > 0 && i <= len(items) {
				err = fmt.Errorf("key %s: %w", items[i-1].Key, err)
			}
			return &db.Error{Op: db.OpHSet, Err: err}
		}
	}
	return nil
}

// Del deletes the given keys with one multi-key DEL.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	cmd := s.b().Del().Key(keys...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}
