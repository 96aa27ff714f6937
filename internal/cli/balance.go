// internal/cli/balance.go
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/codr1/futbolito/internal/api/balance"
	"github.com/codr1/futbolito/internal/balancer"
	"github.com/codr1/futbolito/internal/models"
)

// rosterFile accepts either a bare list of players or {players: [...]}.
type rosterFile struct {
	Players []models.RosterEntry `json:"players" yaml:"players"`
}

func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <roster.yaml|roster.json|->",
		Short: "Split a roster file into two teams",
		Long: `Read a roster of players and print two balanced teams.

Each player has a name, a level from 1 to 3 and up to two positions
(GK, DEF, MID, FWD). Files ending in .json are read as JSON, anything else
as YAML. Use - to read YAML from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBalance(rootOpts, args[0], cmd)
		},
	}
}

func runBalance(opts *RootOptions, path string, cmd *cobra.Command) error {
	data, err := readRoster(path, cmd.InOrStdin())
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "read roster", Err: err}
	}

	entries, err := parseRoster(data, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "parse roster", Err: err}
	}
	players, err := models.BuildRoster(entries)
	if err != nil {
		return &ExitError{Code: ExitFailure, Message: "invalid roster", Err: err}
	}

	result := balancer.Balance(players)

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(balance.NewResponse(result))
	}
	return writeText(out, result)
}

func readRoster(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func parseRoster(data []byte, isJSON bool) ([]models.RosterEntry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []models.RosterEntry{}, nil
	}

	if isJSON {
		if trimmed[0] == '[' {
			var entries []models.RosterEntry
			err := decodeStrictJSON(trimmed, &entries)
			return entries, err
		}
		var file rosterFile
		err := decodeStrictJSON(trimmed, &file)
		return file.Players, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(trimmed, &node); err != nil {
		return nil, err
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var entries []models.RosterEntry
		err := node.Decode(&entries)
		return entries, err
	}
	var file rosterFile
	err := node.Decode(&file)
	return file.Players, err
}

func decodeStrictJSON(data []byte, dst any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeText(w io.Writer, result balancer.Result) error {
	var buf bytes.Buffer
	for idx, team := range []balancer.Team{result.TeamA, result.TeamB} {
		if idx > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "%s  score %d\n", team.Name, team.Score)
		for slot, player := range team.Players {
			fmt.Fprintf(&buf, "  %d. %s (%d)", slot+1, player.Name, player.Level)
			if len(player.Positions) > 0 {
				fmt.Fprintf(&buf, " %s", strings.Join(models.PositionTags(player.Positions), "/"))
			}
			buf.WriteString("\n")
		}
	}
	fmt.Fprintf(&buf, "\ndifference: %d\n", result.Difference())
	for _, warning := range result.Warnings {
		fmt.Fprintf(&buf, "warning: %s\n", warning)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
