package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/identilink/identilink/internal/config"
)

func TestCreate(t *testing.T) {
	testCases := []struct {
		name     string
		cfg      config.Config
		expected string
	}{
		{
			name: "mysql",
			cfg: config.Config{DB: config.DB{
				GormEngine: "mysql",
				User:       "ident",
				Password:   "secret",
				Host:       "db.local",
				Port:       3306,
				Name:       "identilink",
				Extras:     "parseTime=true",
			}},
			expected: "ident:secret@tcp(db.local:3306)/identilink?parseTime=true",
		},
		{
			name: "postgres",
			cfg: config.Config{DB: config.DB{
				GormEngine: "postgres",
				User:       "ident",
				Password:   "secret",
				Host:       "db.local",
				Port:       5432,
				Name:       "identilink",
				Extras:     "sslmode=disable",
			}},
			expected: "host=db.local user=ident password=secret dbname=identilink port=5432 sslmode=disable",
		},
		{
			name:     "sqlite with path",
			cfg:      config.Config{DB: config.DB{GormEngine: "sqlite", Path: "/var/lib/identilink.db"}},
			expected: "/var/lib/identilink.db",
		},
		{
			name:     "sqlite without path falls back to memory",
			cfg:      config.Config{DB: config.DB{GormEngine: "sqlite"}},
			expected: ":memory:",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Create(&tc.cfg))
		})
	}
}
