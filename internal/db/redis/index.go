package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/hybridrag/internal/db"
)

// CreateIndex creates an FT index from the given definition.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("index definition: %w", err)
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(buildCreateArgs(def)...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// IndexExists checks index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	if _, err := s.indexInfo(ctx, name); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IndexDocCount returns num_docs from FT.INFO.
func (s *Store) IndexDocCount(ctx context.Context, name string) (int, error) {
	info, err := s.indexInfo(ctx, name)
	if err != nil {
		return 0, err
	}
	for i := 0; i+1 < len(info); i += 2 {
		key, err := info[i].ToString()
		if err != nil || key != "num_docs" {
			continue
		}
		n, err := info[i+1].AsInt64()
		if err != nil {
			// some versions report num_docs as a float string
			str, serr := info[i+1].ToString()
			if serr != nil {
				return 0, &db.Error{Op: db.OpIndexInfo, Err: err}
			}
			f, ferr := strconv.ParseFloat(str, 64)
			if ferr != nil {
				return 0, &db.Error{Op: db.OpIndexInfo, Err: ferr}
			}
			n = int64(f)
		}
		return int(n), nil
	}
	return 0, &db.Error{Op: db.OpIndexInfo, Err: fmt.Errorf("num_docs missing for %s", name)}
}

func (s *Store) indexInfo(ctx context.Context, name string) ([]rueidis.RedisMessage, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	info, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index") {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return info, nil
}

func buildCreateArgs(idx *db.IndexDefinition) []string {
	args := []string{idx.Name}

	storage := idx.StorageType
	if storage == "" {
		storage = db.StorageHash
	}
	args = append(args, "ON", string(storage))

	if len(idx.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		args = append(args, idx.Prefixes...)
	}

	args = append(args, "SCHEMA")
	for i := range idx.Fields {
		args = append(args, buildFieldArgs(&idx.Fields[i])...)
	}
	return args
}

func buildFieldArgs(f *db.IndexField) []string {
	args := []string{f.Name}
	if f.Alias != "" {
		args = append(args, "AS", f.Alias)
	}

	if f.Type != db.IndexFieldVector {
		return append(args, string(f.Type))
	}

	algo := f.VectorAlgo
	if algo == "" {
		algo = db.VectorFlat
	}
	distance := f.VectorDistance
	if distance == "" {
		distance = db.DistanceCosine
	}
	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(f.VectorDim),
		"DISTANCE_METRIC", string(distance),
	}
	args = append(args, "VECTOR", string(algo), strconv.Itoa(len(attrs)))
	return append(args, attrs...)
}
