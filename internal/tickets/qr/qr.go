package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"

	"ms-excursions/internal/models"

	"github.com/skip2/go-qrcode"
)

type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

// boardingPass is what the dispatcher's scanner decodes: enough to find
// the ticket without exposing pricing.
type boardingPass struct {
	TicketRef string `json:"ticket_ref"`
	PresaleID int64  `json:"presale_id"`
}

// GenerateEncryptedQR renders the ticket's boarding pass as an
// AES-encrypted QR image.
func (g *Generator) GenerateEncryptedQR(ticket models.Ticket) ([]byte, error) {
	pass := boardingPass{
		TicketRef: ticket.PublicRef,
		PresaleID: ticket.PresaleID,
	}
	data, err := json.Marshal(pass)
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, g.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
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
