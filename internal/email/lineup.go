// internal/email/lineup.go
package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/futbolito/internal/matches"
	"github.com/codr1/futbolito/internal/models"
)

const lineupEmailTimeout = 5 * time.Second

// BuildLineupEmail renders the teams of a balanced match as plain text.
func BuildLineupEmail(lineup matches.Lineup) Message {
	var body strings.Builder

	fmt.Fprintf(&body, "%s\n", lineup.Match.Title)
	if lineup.Match.Location != "" {
		fmt.Fprintf(&body, "%s\n", lineup.Match.Location)
	}
	fmt.Fprintf(&body, "%s\n", lineup.Match.StartsAt.UTC().Format("Mon 02 Jan 2006 15:04 MST"))

	for _, team := range []matches.LineupTeam{lineup.TeamA, lineup.TeamB} {
		fmt.Fprintf(&body, "\n%s (%d)\n", team.Name, team.Score)
		for _, player := range team.Players {
			fmt.Fprintf(&body, "  - %s [%d]", player.Name, player.Level)
			if len(player.Positions) > 0 {
				fmt.Fprintf(&body, " %s", strings.Join(models.PositionTags(player.Positions), "/"))
			}
			body.WriteString("\n")
		}
	}

	fmt.Fprintf(&body, "\nDifference: %d\n", lineup.Difference())
	if len(lineup.Warnings) > 0 {
		body.WriteString("\nWarnings:\n")
		for _, warning := range lineup.Warnings {
			fmt.Fprintf(&body, "  ! %s\n", warning)
		}
	}

	return Message{
		Subject: fmt.Sprintf("Teams for %s", lineup.Match.Title),
		Body:    body.String(),
	}
}

// SendLineupEmail sends message asynchronously. The send outlives ctx's
// cancellation but is bounded by lineupEmailTimeout.
func SendLineupEmail(ctx context.Context, client EmailSender, recipient string, message Message) {
	recipient = strings.TrimSpace(recipient)
	if client == nil || recipient == "" {
		return
	}
	logger := log.Ctx(ctx).With().Str("recipient", recipient).Logger()

	go func() {
		sendCtx, cancel := newEmailContext(ctx, lineupEmailTimeout)
		defer cancel()
		if err := client.Send(sendCtx, recipient, message.Subject, message.Body); err != nil {
			logger.Error().Err(err).Msg("Failed to send lineup email")
			return
		}
		logger.Info().Msg("Lineup email sent")
	}()
}

// LineupNotifier emails each new lineup to the match organizer, falling back
// to a fixed address when the match has none.
type LineupNotifier struct {
	client   EmailSender
	fallback string
}

func NewLineupNotifier(client EmailSender, fallback string) *LineupNotifier {
	return &LineupNotifier{client: client, fallback: fallback}
}

func (n *LineupNotifier) NotifyLineup(ctx context.Context, lineup matches.Lineup) {
	if n == nil || n.client == nil {
		return
	}
	recipient := lineup.Match.OrganizerEmail
	if strings.TrimSpace(recipient) == "" {
		recipient = n.fallback
	}
	if strings.TrimSpace(recipient) == "" {
		log.Ctx(ctx).Debug().Int64("match_id", lineup.Match.ID).Msg("Lineup email skipped: no organizer address")
		return
	}
	SendLineupEmail(ctx, n.client, recipient, BuildLineupEmail(lineup))
}
