package sqlbase

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationManager_LatestVersion(t *testing.T) {
	tests := []struct {
		name       string
		migrations map[int]string
		expected   int
	}{
		{"none", map[int]string{}, 0},
		{"single", map[int]string{1: "SELECT 1"}, 1},
		{"unordered", map[int]string{3: "", 1: "", 2: ""}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMigrationManager(slog.Default(), nil, tt.migrations)
			assert.Equal(t, tt.expected, m.LatestVersion())
		})
	}
}
