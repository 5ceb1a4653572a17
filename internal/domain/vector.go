package domain

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Vector is an embedding with the pgvector text encoding "[f1,f2,...]".
// Values are written in the shortest form that parses back to the same float32,
// so Encode/Parse round-trips bit-exactly.
type Vector []float32

// String encodes the vector in pgvector text form.
func (v Vector) String() string {
	buf := make([]byte, 0, 2+len(v)*12)
	buf = append(buf, '[')
	for i, f := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendFloat(buf, float64(f), 'g', -1, 32)
	}
	buf = append(buf, ']')
	return string(buf)
}

// ParseVector decodes pgvector text form. Whitespace and empty elements are ignored.
func ParseVector(s string) (Vector, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	parts := strings.Split(s, ",")
	v := make(Vector, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector element %q: %w", p, err)
		}
		v = append(v, float32(f))
	}
	return v, nil
}

// Validate rejects non-finite elements, which the store cannot encode.
func (v Vector) Validate() error {
	for i, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return fmt.Errorf("vector element %d is not finite", i)
		}
	}
	return nil
}

// Value implements driver.Valuer.
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v.String(), nil
}

// Scan implements sql.Scanner.
func (v *Vector) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		*v = nil
		return nil
	case string:
		return v.decode(s)
	case []byte:
		return v.decode(string(s))
	default:
		return fmt.Errorf("cannot scan %T into Vector", src)
	}
}

func (v *Vector) decode(s string) error {
	parsed, err := ParseVector(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
