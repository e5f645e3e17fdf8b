package sizefmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		size int64
		want string
	}{
		{"zero", 0, "0 B"},
		{"one byte", 1, "1.0 B"},
		{"just below a kilobyte", 1023, "1023.0 B"},
		{"exactly one kilobyte", 1024, "1.0 KB"},
		{"one and a half kilobytes", 1536, "1.5 KB"},
		{"exactly one megabyte", 1024 * 1024, "1.0 MB"},
		{"sixteen megabytes", 16 * 1024 * 1024, "16.0 MB"},
		{"exactly one gigabyte", 1024 * 1024 * 1024, "1.0 GB"},
		{"beyond gigabytes stays in GB", 5 * 1024 * 1024 * 1024 * 1024, "5120.0 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.size))
		})
	}
}
