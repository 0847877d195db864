package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestAddressEncodeDecodeRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte{0x5A}, 20)
	addr, err := NewAddress(HNXZPrefix, raw)
	if err != nil {
		t.Fatalf("new address failed: %v", err)
	}
	encoded := addr.String()
	if !strings.HasPrefix(encoded, string(HNXZPrefix)+"1") {
		t.Fatalf("expected hnxz bech32 prefix, got %q", encoded)
	}
	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(decoded.Bytes(), raw) {
		t.Fatalf("round trip mismatch: %x != %x", decoded.Bytes(), raw)
	}
	if decoded.Prefix() != HNXZPrefix {
		t.Fatalf("unexpected prefix %q", decoded.Prefix())
	}
}

func TestNewAddressRejectsBadLength(t *testing.T) {
	if _, err := NewAddress(HNXZPrefix, []byte{0x01, 0x02}); err == nil {
		t.Fatalf("expected error for short payload")
	}
	if _, err := NewAddress(HNXZPrefix, bytes.Repeat([]byte{0x01}, 32)); err == nil {
		t.Fatalf("expected error for long payload")
	}
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	if _, err := DecodeAddress("not-bech32"); err == nil {
		t.Fatalf("expected error for malformed string")
	}
}

func TestKeyRoundTripDerivesSameAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if key.PubKey().Address().String() != restored.PubKey().Address().String() {
		t.Fatalf("restored key must derive the same address")
	}
}
