package vault

import (
	"errors"
	"testing"
)

func TestSealOpen(t *testing.T) {
	key := []byte("thisis32byteslongsecretkey123456") // 32 bytes for AES-256
	plaintext := "6f1c2a52-5a7b-4c1e-9a55-0d3c1c0f7f7e"

	sealed, err := Seal(plaintext, key)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	if sealed == plaintext {
		t.Fatal("Sealed value should not be equal to plaintext")
	}

	opened, err := Open(sealed, key)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if opened != plaintext {
		t.Errorf("Expected %s, got %s", plaintext, opened)
	}
}

func TestSealIsRandomized(t *testing.T) {
	key := []byte("thisis32byteslongsecretkey123456")

	a, err := Seal("same", key)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	b, err := Seal("same", key)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if a == b {
		t.Error("Two seals of the same plaintext should differ")
	}
}

func TestOpenWithWrongKey(t *testing.T) {
	key1 := []byte("thisis32byteslongsecretkey123456")
	key2 := []byte("another32byteslongsecretkey65432")

	sealed, err := Seal("Secret message", key1)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	_, err = Open(sealed, key2)
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("Expected ErrOpen, got %v", err)
	}
}

func TestInvalidKeySize(t *testing.T) {
	invalidKey := []byte("shortkey")

	_, err := Seal("test", invalidKey)
	if err == nil {
		t.Fatal("Seal should fail with invalid key size")
	}

	_, err = Open("AAAAAAAAAAAAAAAAAAAAAAAA", invalidKey)
	if err == nil {
		t.Fatal("Open should fail with invalid key size")
	}
}

func TestOpenMalformed(t *testing.T) {
	key := []byte("thisis32byteslongsecretkey123456")
	if _, err := Open("not base64!", key); err == nil {
		t.Fatal("Open should fail with malformed input")
	}
	// AES-GCM nonce is 12 bytes; 4 bytes is too short.
	if _, err := Open("q83vEg", key); err == nil {
		t.Fatal("Open should fail with too short ciphertext")
	}
}

func TestNewKey(t *testing.T) {
	key, err := NewKey()
	if err != nil {
		t.Fatalf("NewKey failed: %v", err)
	}
	if len(key) != KeySize {
		t.Fatalf("Expected %d bytes, got %d", KeySize, len(key))
	}
	if _, err := Seal("x", key); err != nil {
		t.Errorf("Generated key should be usable: %v", err)
	}
}

func TestGenerateSelfSignedCert(t *testing.T) {
	cert, err := GenerateSelfSignedCert("admin.guardup.local", "10.0.0.5")
	if err != nil {
		t.Fatalf("Failed to generate self-signed cert: %v", err)
	}

	if len(cert.Certificate) == 0 {
		t.Fatal("Generated certificate is empty")
	}

	if cert.PrivateKey == nil {
		t.Fatal("Generated private key is nil")
	}

	if err := cert.Leaf.VerifyHostname("admin.guardup.local"); err != nil {
		t.Errorf("Expected DNS name in certificate: %v", err)
	}
	if err := cert.Leaf.VerifyHostname("10.0.0.5"); err != nil {
		t.Errorf("Expected IP address in certificate: %v", err)
	}
	if err := cert.Leaf.VerifyHostname("localhost"); err != nil {
		t.Errorf("Expected localhost in certificate: %v", err)
	}
}
