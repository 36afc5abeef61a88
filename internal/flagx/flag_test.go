package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-u", "https://collector.example.org", "-x", "ignored"},
			allowed: []string{"-u"},
			want:    []string{"-u", "https://collector.example.org"},
		},
		{
			name:    "equals form",
			args:    []string{"--db=uplink.db", "-other=1"},
			allowed: []string{"--db"},
			want:    []string{"--db=uplink.db"},
		},
		{
			name:    "flag followed by another flag keeps no value",
			args:    []string{"-v", "-u", "addr"},
			allowed: []string{"-v"},
			want:    []string{"-v"},
		},
		{
			name:    "nothing allowed",
			args:    []string{"-a", "b"},
			allowed: nil,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"uplink", "-c", "conf.json", "-u", "addr"}
	assert.Equal(t, "conf.json", JsonConfigFlags())

	os.Args = []string{"uplink", "-config=other.json"}
	assert.Equal(t, "other.json", JsonConfigFlags())

	os.Args = []string{"uplink", "-u", "addr"}
	assert.Equal(t, "", JsonConfigFlags())
}
