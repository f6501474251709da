package entities

import (
	"database/sql/driver"
	"fmt"

	json "github.com/goccy/go-json"
)

// Metadata is an open-ended key/value bag stored as JSONB.
type Metadata map[string]interface{}

// Value implements driver.Valuer
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner
func (m *Metadata) Scan(src interface{}) error {
	data, ok, err := jsonBytes(src)
	if err != nil || !ok {
		*m = nil
		return err
	}
	out := Metadata{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to decode metadata: %w", err)
	}
	*m = out
	return nil
}

// PriceRange is the optional price filter captured with a search.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Value implements driver.Valuer
func (p *PriceRange) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner
func (p *PriceRange) Scan(src interface{}) error {
	data, ok, err := jsonBytes(src)
	if err != nil || !ok {
		return err
	}
	return json.Unmarshal(data, p)
}

// Int64List is a JSONB array of ids. A nil list is stored as [].
type Int64List []int64

// Value implements driver.Valuer
func (l Int64List) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int64(l))
}

// Scan implements sql.Scanner
func (l *Int64List) Scan(src interface{}) error {
	data, ok, err := jsonBytes(src)
	if err != nil {
		return err
	}
	if !ok {
		*l = Int64List{}
		return nil
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("failed to decode id list: %w", err)
	}
	*l = ids
	return nil
}

func jsonBytes(src interface{}) ([]byte, bool, error) {
	switch v := src.(type) {
	case nil:
		return nil, false, nil
	case []byte:
		return v, len(v) > 0, nil
	case string:
		return []byte(v), v != "", nil
	default:
		return nil, false, fmt.Errorf("unsupported JSONB source type %T", src)
	}
}
