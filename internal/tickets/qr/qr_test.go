package qr_test

import (
	"bytes"
	"testing"

	"ms-excursions/internal/models"
	"ms-excursions/internal/tickets/qr"
)

func TestGenerateEncryptedQR(t *testing.T) {
	gen := qr.NewGenerator("test-secret-key")

	ticket := models.Ticket{
		ID:        1,
		PresaleID: 10,
		Status:    models.TicketPaid,
		Price:     2500,
		PublicRef: "ref-1",
	}

	qrBytes, err := gen.GenerateEncryptedQR(ticket)
	if err != nil {
		t.Fatalf("Failed to generate QR code: %v", err)
	}
	if len(qrBytes) == 0 {
		t.Error("Generated QR code is empty")
	}

	// PNG magic bytes; the scanner app expects an image, not raw text.
	if !bytes.HasPrefix(qrBytes, []byte("\x89PNG")) {
		t.Error("Generated QR code is not a PNG image")
	}
}

func TestGenerateEncryptedQRDifferentTickets(t *testing.T) {
	gen := qr.NewGenerator("test-secret-key")

	ticket1 := models.Ticket{ID: 1, PresaleID: 10, PublicRef: "ref-1"}
	ticket2 := models.Ticket{ID: 2, PresaleID: 10, PublicRef: "ref-2"}

	qr1, err := gen.GenerateEncryptedQR(ticket1)
	if err != nil {
		t.Fatalf("Failed to generate QR code for ticket1: %v", err)
	}
	qr2, err := gen.GenerateEncryptedQR(ticket2)
	if err != nil {
		t.Fatalf("Failed to generate QR code for ticket2: %v", err)
	}

	if bytes.Equal(qr1, qr2) {
		t.Error("QR codes for different tickets should be different")
	}
}

func TestGenerateEncryptedQRRandomizedIV(t *testing.T) {
	gen := qr.NewGenerator("test-secret-key")
	ticket := models.Ticket{ID: 1, PresaleID: 10, PublicRef: "ref-1"}

	qr1, err := gen.GenerateEncryptedQR(ticket)
	if err != nil {
		t.Fatalf("Failed to generate first QR code: %v", err)
	}
	qr2, err := gen.GenerateEncryptedQR(ticket)
	if err != nil {
		t.Fatalf("Failed to generate second QR code: %v", err)
	}

	// The random IV makes every encoding unique even for the same ticket.
	if bytes.Equal(qr1, qr2) {
		t.Error("Repeated encodings of one ticket should differ")
	}
}

func TestGeneratorAcceptsAnySecretLength(t *testing.T) {
	// Secrets are hashed to a fixed key size, so any length works.
	for _, secret := range []string{"", "x", "a-much-longer-secret-than-a-block"} {
		gen := qr.NewGenerator(secret)
		if _, err := gen.GenerateEncryptedQR(models.Ticket{PublicRef: "ref"}); err != nil {
			t.Fatalf("secret %q: %v", secret, err)
		}
	}
}
