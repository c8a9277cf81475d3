package gameid

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Table codes avoid 0/O and 1/I so they can be read out loud.
const tableAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const botAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// TableIDLength is the number of characters in a table code.
const TableIDLength = 6

// RandSource interface for dependency injection of randomness
type RandSource interface {
	Intn(n int) int
}

// Generator produces table codes and bot identities.
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a new generator with optional RandSource. A nil
// source draws from crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// TableID returns a new 6-character table code.
func TableID() string {
	return NewGenerator(nil).TableID()
}

// TableID returns a new 6-character table code.
func (g *Generator) TableID() string {
	return g.pick(tableAlphabet, TableIDLength)
}

// BotUID returns bot_<unix ms>_<9 random chars>.
func (g *Generator) BotUID(now time.Time) string {
	return "bot_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + g.pick(botAlphabet, 9)
}

// RecordID returns a random UUID for a hand history record.
func (g *Generator) RecordID() string {
	if g.randSource == nil {
		return uuid.NewString()
	}
	var b [16]byte
	for i := range b {
		b[i] = byte(g.intn(256))
	}
	id, err := uuid.NewRandomFromReader(bytes.NewReader(b[:]))
	if err != nil {
		panic("failed to generate record id: " + err.Error())
	}
	return id.String()
}

// IsBotUID reports whether uid has the bot identity shape.
func IsBotUID(uid string) bool {
	return strings.HasPrefix(uid, "bot_")
}

func (g *Generator) pick(alphabet string, n int) string {
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(alphabet[g.intn(len(alphabet))])
	}
	return b.String()
}

func (g *Generator) intn(n int) int {
	if g.randSource != nil {
		return g.randSource.Intn(n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}
	return int(v.Int64())
}

// ValidateTableID checks length and alphabet of a table code.
func ValidateTableID(id string) error {
	if len(id) != TableIDLength {
		return fmt.Errorf("table ID must be exactly %d characters, got %d", TableIDLength, len(id))
	}
	for i, char := range id {
		if !strings.ContainsRune(tableAlphabet, char) {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}
	return nil
}
