package utils

import (
	"encoding/base64"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	secrets := []string{"", "pat-token-1234", "a much longer personal access token value with spaces"}
	for _, secret := range secrets {
		ciphertext, err := Encrypt(secret)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", secret, err)
		}
		if ciphertext == secret && secret != "" {
			t.Fatalf("ciphertext equals plaintext for %q", secret)
		}
		plaintext, err := Decrypt(ciphertext)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if plaintext != secret {
			t.Fatalf("roundtrip mismatch: got %q want %q", plaintext, secret)
		}
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	a, err := Encrypt("same input")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encrypt("same input")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("expected distinct ciphertexts for repeated encryptions")
	}
}

func TestDecryptMalformedCiphertext(t *testing.T) {
	cases := []string{
		"not base64 at all!!!",
		base64.StdEncoding.EncodeToString([]byte("too short")),
		base64.StdEncoding.EncodeToString(make([]byte, 64)), // valid length, garbage bytes
	}
	for _, c := range cases {
		if _, err := Decrypt(c); err != ErrorMalformedCiphertext {
			t.Fatalf("Decrypt(%q): got err %v, want ErrorMalformedCiphertext", c, err)
		}
	}
}
