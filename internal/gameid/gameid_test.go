package gameid

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"
)

type seqSource struct{ r *rand.Rand }

func (s seqSource) Intn(n int) int { return s.r.IntN(n) }

func TestTableID(t *testing.T) {
	t.Parallel()
	id := TableID()
	if err := ValidateTableID(id); err != nil {
		t.Fatalf("generated ID %q failed validation: %v", id, err)
	}
	for _, bad := range []string{"0", "I", "O", "1"} {
		if strings.Contains(id, bad) {
			t.Errorf("table ID %q contains ambiguous %q", id, bad)
		}
	}
}

func TestTableIDDeterministicWithSource(t *testing.T) {
	t.Parallel()
	a := NewGenerator(seqSource{rand.New(rand.NewPCG(1, 2))}).TableID()
	b := NewGenerator(seqSource{rand.New(rand.NewPCG(1, 2))}).TableID()
	if a != b {
		t.Errorf("expected identical IDs from identical sources, got %s and %s", a, b)
	}
}

func TestValidateTableID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"ABC234", false},
		{"ABC23", true},
		{"ABC2340", true},
		{"abc234", true},
		{"ABCDE0", true},
	}
	for _, tt := range tests {
		err := ValidateTableID(tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateTableID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
		}
	}
}

func TestBotUID(t *testing.T) {
	t.Parallel()
	now := time.UnixMilli(1700000000123)
	uid := NewGenerator(nil).BotUID(now)
	if !strings.HasPrefix(uid, "bot_1700000000123_") {
		t.Fatalf("unexpected bot uid %q", uid)
	}
	if len(uid) != len("bot_1700000000123_")+9 {
		t.Errorf("unexpected suffix length in %q", uid)
	}
	if !IsBotUID(uid) || IsBotUID("alice") {
		t.Error("IsBotUID misclassified")
	}
}

func TestRecordID(t *testing.T) {
	t.Parallel()
	a := NewGenerator(seqSource{rand.New(rand.NewPCG(3, 4))}).RecordID()
	b := NewGenerator(seqSource{rand.New(rand.NewPCG(3, 4))}).RecordID()
	if a != b {
		t.Errorf("expected identical record IDs, got %s and %s", a, b)
	}
	if len(a) != 36 || a[14] != '4' {
		t.Errorf("record ID %q is not a v4 UUID", a)
	}
	if NewGenerator(nil).RecordID() == NewGenerator(nil).RecordID() {
		t.Error("random record IDs collided")
	}
}
