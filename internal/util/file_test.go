package util

import (
	"bytes"
	"testing"
)

func TestHasAllowedExtension(t *testing.T) {
	if !HasAllowedExtension("report.PDF", AllowedAnswerFileExtensions) {
		t.Fatalf("extension match must be case-insensitive")
	}
	if HasAllowedExtension("payload.exe", AllowedAnswerFileExtensions) {
		t.Fatalf("unlisted extension must be rejected")
	}
	if HasAllowedExtension("noextension", AllowedAnswerFileExtensions) {
		t.Fatalf("missing extension must be rejected")
	}
}

func TestValidateMimeTypeSniffsContent(t *testing.T) {
	png := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 24)...)
	mime, err := ValidateMimeType(bytes.NewReader(png), []string{MimeImage})
	if err != nil {
		t.Fatalf("png rejected: %v (%s)", err, mime)
	}

	if _, err := ValidateMimeType(bytes.NewReader([]byte("plain text")), []string{MimeVideo}); err == nil {
		t.Fatalf("text must not pass as video")
	}
}

func TestAdmissionErrorCodes(t *testing.T) {
	if err := NewTrialQuotaError(7); err.Code != CodeExceededTrialAttempts {
		t.Fatalf("trial quota code: got %d", err.Code)
	}
	retake := NewRetakeError(120)
	if retake.Code != CodeInvalidTimeInterval {
		t.Fatalf("retake code: got %d", retake.Code)
	}
	if retake.RemainingSeconds != 120 {
		t.Fatalf("remaining seconds: got %v", retake.RemainingSeconds)
	}
}
