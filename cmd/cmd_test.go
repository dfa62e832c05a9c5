package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/codequiz/internal/skill"
	"github.com/abhisek/codequiz/internal/store"
)

func TestDescribeVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(devel)", "(devel) (development build)"},
		{"v1.2", "v1.2.0"},
		{"v1.2.3", "v1.2.3"},
		{"v2.0.0-rc.1", "v2.0.0-rc.1 (pre-release)"},
	}
	for _, tt := range tests {
		if got := describeVersion(tt.in); got != tt.want {
			t.Errorf("describeVersion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// run executes the root command with args against a temp database.
func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, "CODEQUIZ_") {
			t.Setenv(k, "")
		}
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--db", db, "--env-file", filepath.Join(t.TempDir(), "none.env"), "--log-level", "error"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSkillCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")

	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = skill.NewTracker(st.SkillRepo()).ApplyResult(context.Background(), "ana", "channels", true, 50)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := run(t, db, "skill", "show", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "channels")
	assert.Contains(t, out, "13")

	out, err = run(t, db, "leaderboard", "channels")
	require.NoError(t, err)
	assert.Contains(t, out, "ana")

	out, err = run(t, db, "skill", "reset", "ana", "channels")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset ana/channels to score 10 (best streak 1, 1 attempts kept)")

	out, err = run(t, db, "skill", "show", "ana", "channels")
	require.NoError(t, err)
	assert.Contains(t, out, "channels", "reset keeps the skill row")
	assert.Contains(t, out, "1/1")
}

func TestPlayOffline(t *testing.T) {
	db := filepath.Join(t.TempDir(), "play.db")
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}

	// First sample question: "[1 2 9]" is choice B.
	rootCmd.SetIn(strings.NewReader("B\n"))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	out, err := run(t, db, "play", "go", "--user", "ana", "--count", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "correct")
	assert.Contains(t, out, "score 13 (+3)")
	assert.Contains(t, out, "Session complete: 1/1 correct")

	out, err = run(t, db, "session", "list", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "ended")

	out, err = run(t, db, "llm", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "question-gen")

	out, err = run(t, db, "prune", "--older-than", "1ns")
	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 1 question(s)")
}
