package ticket

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/model"
)

func testKey() []byte {
	k := make([]byte, KeySize)
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

func TestSealRoundTrip(t *testing.T) {
	s, err := NewSealer(testKey())
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	want := model.TicketPayload{
		TicketID:   uuid.New(),
		EventID:    42,
		CustomerID: 7,
		ZoneID:     3,
		ValidFrom:  time.Now().UTC().Truncate(time.Second),
		ValidUntil: time.Now().UTC().Add(time.Hour).Truncate(time.Second),
		MaxUsage:   1,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	sealed, err := s.Seal(want)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	got, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got.TicketID != want.TicketID || got.EventID != want.EventID || got.CustomerID != want.CustomerID {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	s, err := NewSealer(testKey())
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	sealed, err := s.Seal(model.TicketPayload{TicketID: uuid.New()})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	tampered := bytes.Clone(sealed)
	tampered[len(tampered)-1] ^= 0xFF
	if _, err := s.Open(tampered); err == nil {
		t.Fatalf("expected authentication failure on tampered ciphertext")
	}
}

func TestNewSealerRejectsWrongKeyLength(t *testing.T) {
	if _, err := NewSealer([]byte("too-short")); err == nil {
		t.Fatalf("expected error for a key shorter than %d bytes", KeySize)
	}
}
