// Package qr encodes parking tickets into encrypted QR codes for printed
// tickets and decodes scanned payloads back at the exit gate.
package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"ms-parking/internal/models"

	"github.com/skip2/go-qrcode"
)

var ErrInvalidPayload = errors.New("invalid ticket payload")

// Payload is what the printed code carries.
type Payload struct {
	TicketID  string    `json:"ticketId"`
	ZoneID    string    `json:"zoneId"`
	GateID    string    `json:"gateId"`
	CheckinAt time.Time `json:"checkinAt"`
}

type QRGenerator struct {
	secret []byte
}

func NewQRGenerator(secret string) *QRGenerator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &QRGenerator{secret: hashed[:]}
}

// EncryptPayload returns the base64url text embedded in the code.
func (q *QRGenerator) EncryptPayload(ticket models.Ticket) (string, error) {
	data, err := json.Marshal(Payload{
		TicketID:  ticket.ID,
		ZoneID:    ticket.ZoneID,
		GateID:    ticket.GateID,
		CheckinAt: ticket.CheckinAt,
	})
	if err != nil {
		return "", err
	}
	return encryptAES(data, q.secret)
}

// Encode renders the ticket as a 256px PNG.
func (q *QRGenerator) Encode(ticket models.Ticket) ([]byte, error) {
	encrypted, err := q.EncryptPayload(ticket)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

// Decrypt recovers the payload of a scanned code.
func (q *QRGenerator) Decrypt(encoded string) (*Payload, error) {
	data, err := decryptAES(encoded, q.secret)
	if err != nil {
		return nil, err
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.TicketID == "" {
		return nil, fmt.Errorf("%w: missing ticket id", ErrInvalidPayload)
	}
	return &p, nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

func decryptAES(encoded string, key []byte) ([]byte, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, fmt.Errorf("%w: too short", ErrInvalidPayload)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv := ciphertext[:aes.BlockSize]
	data := make([]byte, len(ciphertext)-aes.BlockSize)
	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(data, ciphertext[aes.BlockSize:])
	return data, nil
}
