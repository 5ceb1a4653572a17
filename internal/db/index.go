package db

import (
	"encoding/binary"
	"errors"
	"math"
)

// StorageType is the FT index storage backend.
type StorageType string

// Storage types.
const (
	StorageHash StorageType = "HASH"
	StorageJSON StorageType = "JSON"
)

// IndexFieldType is a schema field kind.
type IndexFieldType string

// Field types.
const (
	IndexFieldText   IndexFieldType = "TEXT"
	IndexFieldTag    IndexFieldType = "TAG"
	IndexFieldVector IndexFieldType = "VECTOR"
)

// VectorAlgorithm selects the vector index structure.
type VectorAlgorithm string

// Vector algorithms. FLAT is an exact scan.
const (
	VectorFlat VectorAlgorithm = "FLAT"
	VectorHNSW VectorAlgorithm = "HNSW"
)

// DistanceMetric is the vector distance function.
type DistanceMetric string

// Distance metrics.
const (
	DistanceCosine DistanceMetric = "COSINE"
	DistanceL2     DistanceMetric = "L2"
	DistanceIP     DistanceMetric = "IP"
)

// IndexField is one field of an FT schema.
type IndexField struct {
	Name           string
	Alias          string
	Type           IndexFieldType
	VectorAlgo     VectorAlgorithm
	VectorDim      int
	VectorDistance DistanceMetric
}

// IndexDefinition describes an FT.CREATE call.
type IndexDefinition struct {
	Name        string
	StorageType StorageType
	Prefixes    []string
	Fields      []IndexField
}

// Validate checks the definition before it is sent.
func (d *IndexDefinition) Validate() error {
	if d.Name == "" {
		return errors.New("index name is required")
	}
	if len(d.Fields) == 0 {
		return errors.New("at least one field is required")
	}
	for i := range d.Fields {
		f := &d.Fields[i]
		if f.Name == "" {
			return errors.New("field name is required")
		}
		if f.Type == IndexFieldVector && f.VectorDim <= 0 {
			return errors.New("vector DIM must be positive")
		}
	}
	return nil
}

// KNNQuery is a vector similarity query.
type KNNQuery struct {
	IndexName    string
	Field        string // vector field name or alias
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is a full-text query scored by BM25.
type TextQuery struct {
	IndexName    string
	Field        string
	Terms        []string // matched with OR semantics
	TopK         int
	ReturnFields []string
}

// SearchEntry is one FT.SEARCH hit.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// SearchResult is a parsed FT.SEARCH reply.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// EncodeVector lays a vector out as little-endian FLOAT32, the format of a VECTOR hash field.
func EncodeVector(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
