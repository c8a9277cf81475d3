package handhistory

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lox/pokertable/internal/fileutil"
	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/poker"
)

// ArchivedHand is the on-disk TOML form of a Record. Players are referred to
// as p1..pN in seat order; unshown hole cards are written as "??".
type ArchivedHand struct {
	Hand            string    `toml:"hand"`
	Table           string    `toml:"table"`
	HandNumber      int       `toml:"hand_number"`
	Variant         string    `toml:"variant"`
	Betting         string    `toml:"betting"`
	Mode            string    `toml:"mode"`
	Time            time.Time `toml:"time"`
	Blinds          []int     `toml:"blinds"`
	Ante            int       `toml:"ante,omitempty"`
	Dealer          int       `toml:"dealer"`
	Players         []string  `toml:"players"`
	Positions       []string  `toml:"positions"`
	HoleCards       []string  `toml:"hole_cards"`
	StartingStacks  []int     `toml:"starting_stacks"`
	FinishingStacks []int     `toml:"finishing_stacks"`
	Winnings        []int     `toml:"winnings"`
	Board           []string  `toml:"board,omitempty"`
	Actions         []string  `toml:"actions"`
}

// FormatAction renders a hand log entry for the archive. facing is the
// street's bet before the action; an all-in that does not exceed it is a
// call. Forced bets are reported by the blinds and ante fields instead, so
// ok is false for them.
func FormatAction(player int, a game.ActionRecord, facing int) (line string, ok bool) {
	p := fmt.Sprintf("p%d", player+1)
	switch a.Action {
	case string(game.ActionFold):
		line = p + " f"
	case string(game.ActionCheck), string(game.ActionCall):
		line = p + " cc"
	case string(game.ActionAllIn):
		if a.Amount <= facing {
			line = p + " cc"
		} else {
			line = fmt.Sprintf("%s cbr %d", p, a.Amount)
		}
	case string(game.ActionBet), string(game.ActionRaise):
		line = fmt.Sprintf("%s cbr %d", p, a.Amount)
	case game.LogDraw:
		line = strings.TrimSpace(p + " sd " + strings.Repeat("??", a.Discards))
	case game.LogPostAnte, game.LogPostSmallBlind, game.LogPostBigBlind:
		return "", false
	default:
		line = fmt.Sprintf("# %s %s %d", p, a.Action, a.Amount)
	}
	if a.Timeout {
		line += " # timeout"
	}
	return line, true
}

func cardString(cards []poker.Card) string {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(c.String())
	}
	return b.String()
}

// Archived converts a record to its archive form.
func (r *Record) Archived() *ArchivedHand {
	h := &ArchivedHand{
		Hand:       r.ID,
		Table:      r.TableID,
		HandNumber: r.HandNumber,
		Variant:    string(r.GameType),
		Betting:    string(r.BettingType),
		Mode:       string(r.Mode),
		Time:       r.Timestamp.UTC(),
		Blinds:     []int{r.Stakes.SmallBlind, r.Stakes.BigBlind},
		Ante:       r.Stakes.Ante,
		Actions:    []string{},
	}
	player := make(map[int]int, len(r.Players))
	for i, p := range r.Players {
		player[p.Seat] = i
		if p.Seat == r.DealerSeat {
			h.Dealer = i + 1
		}
		h.Players = append(h.Players, p.Name)
		h.Positions = append(h.Positions, p.Position)
		if len(p.Hand) > 0 {
			h.HoleCards = append(h.HoleCards, cardString(p.Hand))
		} else {
			h.HoleCards = append(h.HoleCards, "??")
		}
		h.StartingStacks = append(h.StartingStacks, p.StartChips)
		h.FinishingStacks = append(h.FinishingStacks, p.EndChips)
		won := 0
		for _, w := range r.Winners {
			if w.UID == p.UID {
				won = w.Amount
			}
		}
		h.Winnings = append(h.Winnings, won)
	}
	for _, c := range r.Community {
		h.Board = append(h.Board, c.String())
	}
	// Blinds are logged before the first street starts, so the bet only
	// resets when a street ends.
	facing, phase := 0, game.Phase("")
	for _, a := range r.Actions {
		if a.Phase != phase {
			if phase.InHand() {
				facing = 0
			}
			phase = a.Phase
		}
		if line, ok := FormatAction(player[a.Seat], a, facing); ok {
			h.Actions = append(h.Actions, line)
		}
		if a.Action != game.LogPostAnte && a.Amount > facing {
			facing = a.Amount
		}
	}
	return h
}

// Encode writes the record to w as TOML.
func Encode(w io.Writer, r *Record) error {
	if r == nil {
		return fmt.Errorf("handhistory: record is nil")
	}
	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(r.Archived())
}

// Archive writes records under a directory, one file per hand grouped by
// table.
type Archive struct {
	dir string
}

// NewArchive returns an archive rooted at dir.
func NewArchive(dir string) *Archive {
	return &Archive{dir: dir}
}

// Path is where the record is archived.
func (a *Archive) Path(r *Record) string {
	return filepath.Join(a.dir, r.TableID, fmt.Sprintf("%06d-%s.toml", r.HandNumber, r.ID))
}

// Write archives r atomically and returns its path.
func (a *Archive) Write(r *Record) (string, error) {
	path := a.Path(r)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}
	err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return Encode(w, r)
	})
	if err != nil {
		return "", fmt.Errorf("archive hand %d: %w", r.HandNumber, err)
	}
	return path, nil
}

// ReadArchived decodes an archived hand.
func ReadArchived(path string) (*ArchivedHand, error) {
	var h ArchivedHand
	if _, err := toml.DecodeFile(path, &h); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &h, nil
}
