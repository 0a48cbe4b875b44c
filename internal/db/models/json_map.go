package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
)

// JSONMap is a string-keyed map stored as a JSON blob.
// It carries opaque provider metadata and match details.
type JSONMap map[string]string

// GormDataType tells the schema parser which column type backs the map.
func (JSONMap) GormDataType() string {
	return "json"
}

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil //nolint:nilnil
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal json map")
	}

	return b, nil
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}

	var b []byte

	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.Errorf("unsupported json map column type %T", value)
	}

	if len(b) == 0 {
		*m = nil
		return nil
	}

	return errors.Wrap(json.Unmarshal(b, m), "failed to unmarshal json map")
}
