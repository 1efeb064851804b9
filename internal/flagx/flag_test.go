package flagx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate flag and value",
			args:    []string{"-a", "localhost:5001", "-x", "junk"},
			allowed: []string{"-a"},
			want:    []string{"-a", "localhost:5001"},
		},
		{
			name:    "equals form",
			args:    []string{"--addr=localhost:5001", "-d", "data"},
			allowed: []string{"--addr"},
			want:    []string{"--addr=localhost:5001"},
		},
		{
			name:    "flag without value followed by another flag",
			args:    []string{"-v", "-a", "x"},
			allowed: []string{"-v"},
			want:    []string{"-v"},
		},
		{
			name:    "nothing allowed",
			args:    []string{"-a", "x"},
			allowed: nil,
			want:    []string{},
		},
		{
			name:    "mixed forms",
			args:    []string{"-c=conf.json", "-a", "srv", "-c", "other.json"},
			allowed: []string{"-c"},
			want:    []string{"-c=conf.json", "-c", "other.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}
