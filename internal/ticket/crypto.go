// Package ticket implements digital ticket issuance and validation:
// authenticated-encryption sealed payloads, the six-step validation
// sequence (including the 1-minute replay-skew guard and the
// event-time window), and multi-entry check-in/check-out.
package ticket

import (
	"crypto/rand"
	"encoding/json"
	"errors"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/iliyamo/ticketing-core/internal/apperr"
	"github.com/iliyamo/ticketing-core/internal/model"
)

// KeySize is the secretbox key length; TICKET_ENCRYPTION_KEY must decode
// to exactly this many bytes.
const KeySize = 32

var ErrBadCiphertext = errors.New("ticket payload: ciphertext too short or forged")

// Sealer seals/opens TicketPayload values with NaCl secretbox, replacing
// the Python original's Fernet scheme (original_source/apps/tickets/
// validation.py _decrypt_qr_data), both are authenticated encryption
// with a single symmetric key; secretbox is the idiomatic Go equivalent.
type Sealer struct {
	key [KeySize]byte
}

// NewSealer validates the key length up front: a misconfigured
// TICKET_ENCRYPTION_KEY must fail at startup, never silently at the
// first ticket issuance.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, apperr.New(apperr.Internal, "TICKET_ENCRYPTION_KEY must be 32 bytes")
	}
	s := &Sealer{}
	copy(s.key[:], key)
	return s, nil
}

// Seal JSON-encodes and secretbox-seals a payload, returning nonce||ciphertext.
func (s *Sealer) Seal(p model.TicketPayload) ([]byte, error) {
	plain, err := json.Marshal(p)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "marshal ticket payload", err)
	}
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "generate nonce", err)
	}
	out := secretbox.Seal(nonce[:], plain, &nonce, &s.key)
	return out, nil
}

// Open verifies and decrypts a sealed payload.
func (s *Sealer) Open(sealed []byte) (model.TicketPayload, error) {
	if len(sealed) < 24 {
		return model.TicketPayload{}, apperr.Wrap(apperr.Validation, "malformed ticket payload", ErrBadCiphertext)
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, &s.key)
	if !ok {
		return model.TicketPayload{}, apperr.Wrap(apperr.Validation, "ticket payload authentication failed", ErrBadCiphertext)
	}
	var p model.TicketPayload
	if err := json.Unmarshal(plain, &p); err != nil {
		return model.TicketPayload{}, apperr.Wrap(apperr.Validation, "unmarshal ticket payload", err)
	}
	return p, nil
}
