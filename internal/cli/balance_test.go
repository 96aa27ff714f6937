package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "futbolito", cmd.Use)

	sub, _, err := cmd.Find([]string{"balance"})
	require.NoError(t, err)
	assert.Equal(t, "balance", sub.Name())

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestBalanceTextOutput(t *testing.T) {
	out, err := runCLI(t, "", "balance", filepath.Join("testdata", "roster.yaml"))
	require.NoError(t, err)

	newGoldie(t).Assert(t, "balance_text", []byte(out))
}

func TestBalanceJSONOutput(t *testing.T) {
	out, err := runCLI(t, "", "balance", "--format", "json", filepath.Join("testdata", "roster.json"))
	require.NoError(t, err)

	newGoldie(t).Assert(t, "balance_json", []byte(out))
}

func TestBalanceFormatsAgreeAcrossInputs(t *testing.T) {
	fromYAML, err := runCLI(t, "", "balance", "--format", "json", filepath.Join("testdata", "roster.yaml"))
	require.NoError(t, err)
	fromJSON, err := runCLI(t, "", "balance", "--format", "json", filepath.Join("testdata", "roster.json"))
	require.NoError(t, err)

	assert.JSONEq(t, fromJSON, fromYAML)
}

func TestBalanceFromStdin(t *testing.T) {
	stdin := "- name: Ana\n  level: 2\n  positions: [GK]\n- name: Beto\n  level: 2\n  positions: [GK]\n"
	out, err := runCLI(t, stdin, "balance", "-")
	require.NoError(t, err)

	want := "Equipo A  score 2\n" +
		"  1. Ana (2) GK\n" +
		"\n" +
		"Equipo B  score 2\n" +
		"  1. Beto (2) GK\n" +
		"\n" +
		"difference: 0\n"
	assert.Equal(t, want, out)
}

func TestBalanceErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantMsg  string
	}{
		{
			name:     "missing_file",
			args:     []string{"balance", filepath.Join("testdata", "nope.yaml")},
			wantCode: ExitCommandError,
			wantMsg:  "read roster",
		},
		{
			name:     "invalid_level",
			args:     []string{"balance", filepath.Join("testdata", "invalid_roster.yaml")},
			wantCode: ExitFailure,
			wantMsg:  "player 2: level must be 1, 2 or 3",
		},
		{
			name:     "bad_format",
			args:     []string{"balance", "--format", "xml", filepath.Join("testdata", "roster.yaml")},
			wantCode: ExitCommandError,
			wantMsg:  `invalid format "xml"`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := runCLI(t, "", test.args...)
			require.Error(t, err)
			assert.Equal(t, test.wantCode, GetExitCode(err))
			assert.Contains(t, err.Error(), test.wantMsg)
		})
	}
}

func TestBalanceRequiresOneArgument(t *testing.T) {
	_, err := runCLI(t, "", "balance")
	require.Error(t, err)
}
