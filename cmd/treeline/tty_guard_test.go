package main

import "testing"

func TestShouldSuppressTTYQueries(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		envRobot bool
		envTest  bool
		want     bool
	}{
		{name: "robot env", args: []string{"treeline"}, envRobot: true, want: true},
		{name: "test env", args: []string{"treeline"}, envTest: true, want: true},
		{name: "version flag", args: []string{"treeline", "-version"}, want: true},
		{name: "double dash help", args: []string{"treeline", "--help"}, want: true},
		{name: "stats flag", args: []string{"treeline", "-stats"}, want: true},
		{name: "sources flag", args: []string{"treeline", "-sources"}, want: true},
		{name: "export with value", args: []string{"treeline", "-export", "out.md"}, want: true},
		{name: "export with equals", args: []string{"treeline", "-export=out.md"}, want: true},
		{name: "plain tui", args: []string{"treeline"}, want: false},
		{name: "data flag", args: []string{"treeline", "-data", "x.jsonl"}, want: false},
		{name: "positional named stats", args: []string{"treeline", "stats"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shouldSuppressTTYQueries(tt.args, tt.envRobot, tt.envTest)
			if got != tt.want {
				t.Errorf("shouldSuppressTTYQueries(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}
