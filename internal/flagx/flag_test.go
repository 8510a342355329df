package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	serverFlags := []string{"-store", "-redis", "-reset-at"}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "separate values",
			args: []string{"-store", "redis", "-redis", "127.0.0.1:6379"},
			want: []string{"-store", "redis", "-redis", "127.0.0.1:6379"},
		},
		{
			name: "equals form",
			args: []string{"-store=postgres", "-reset-at=00:00"},
			want: []string{"-store=postgres", "-reset-at=00:00"},
		},
		{
			name: "double dash is the same flag",
			args: []string{"--store", "s3", "--reset-at=03:30"},
			want: []string{"--store", "s3", "--reset-at=03:30"},
		},
		{
			name: "foreign flags and positionals dropped",
			args: []string{"-v", "-test.run", "TestX", "serve", "-store", "memory"},
			want: []string{"-store", "memory"},
		},
		{
			name: "missing value at the end",
			args: []string{"-store"},
			want: []string{"-store"},
		},
		{
			name: "next flag is not a value",
			args: []string{"-store", "-redis=host:6379"},
			want: []string{"-store", "-redis=host:6379"},
		},
		{
			name: "value starting with a dash needs equals",
			args: []string{"-reset-at=-01:00"},
			want: []string{"-reset-at=-01:00"},
		},
		{
			name: "stops at terminator",
			args: []string{"-store", "redis", "--", "-store", "memory"},
			want: []string{"-store", "redis"},
		},
		{
			name: "repeated flag kept in order",
			args: []string{"-store", "memory", "-store", "redis"},
			want: []string{"-store", "memory", "-store", "redis"},
		},
		{
			name: "empty",
			args: nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, serverFlags))
		})
	}
}

func TestConfigFile(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"-c", "/etc/minerledger.yaml"}, "/etc/minerledger.yaml"},
		{"long", []string{"-config", "ledger.json"}, "ledger.json"},
		{"double dash equals", []string{"--config=ledger.yml", "-store", "redis"}, "ledger.yml"},
		{"last wins", []string{"-c", "a.yaml", "-config", "b.yaml"}, "b.yaml"},
		{"absent", []string{"-store", "memory", "-k", "1e-12"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigFile(tt.args))
		})
	}
}
