package primitives

import (
	"bytes"
	"testing"
)

func TestSymmetricRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		keyLen    int
		plaintext []byte
	}{
		{"empty", 16, []byte{}},
		{"short", 16, []byte("hello")},
		{"exact block", 32, bytes.Repeat([]byte{0x42}, 16)},
		{"multi block", 24, bytes.Repeat([]byte("ab"), 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := SecureRandom(tt.keyLen)
			iv := SecureRandom(16)

			ciphertext, err := SymmetricEncrypt(key, iv, tt.plaintext)
			if err != nil {
				t.Fatalf("SymmetricEncrypt() error = %v", err)
			}

			plaintext, err := SymmetricDecrypt(key, ciphertext)
			if err != nil {
				t.Fatalf("SymmetricDecrypt() error = %v", err)
			}

			if !bytes.Equal(plaintext, tt.plaintext) {
				t.Errorf("round trip = %q, want %q", plaintext, tt.plaintext)
			}
		})
	}
}

func TestSymmetricDecrypt_WrongKeyFails(t *testing.T) {
	key1 := SecureRandom(16)
	key2 := SecureRandom(16)
	iv := SecureRandom(16)

	ciphertext, err := SymmetricEncrypt(key1, iv, []byte("secret data"))
	if err != nil {
		t.Fatalf("SymmetricEncrypt() error = %v", err)
	}

	plaintext, err := SymmetricDecrypt(key2, ciphertext)
	if err == nil && bytes.Equal(plaintext, []byte("secret data")) {
		t.Error("SymmetricDecrypt() with wrong key unexpectedly recovered plaintext")
	}
}

func TestHMACVerify(t *testing.T) {
	key := SecureRandom(16)
	data := []byte("message")

	tag, err := HMAC(key, data)
	if err != nil {
		t.Fatalf("HMAC() error = %v", err)
	}

	if !HMACVerify(key, data, tag) {
		t.Error("HMACVerify() = false for a valid tag")
	}

	tampered := append([]byte(nil), tag...)
	tampered[0] ^= 0xFF
	if HMACVerify(key, data, tampered) {
		t.Error("HMACVerify() = true for a tampered tag")
	}

	if HMACVerify(key, []byte("different message"), tag) {
		t.Error("HMACVerify() = true for mismatched data")
	}
}

func TestHMAC_BadKeySize(t *testing.T) {
	if _, err := HMAC(SecureRandom(10), []byte("x")); err != ErrBadHMACKeySize {
		t.Errorf("HMAC() with bad key size error = %v, want %v", err, ErrBadHMACKeySize)
	}
}

func TestHashKDF_Deterministic(t *testing.T) {
	key := SecureRandom(16)

	k1, err := HashKDF(key, "purpose-a")
	if err != nil {
		t.Fatalf("HashKDF() error = %v", err)
	}
	k2, err := HashKDF(key, "purpose-a")
	if err != nil {
		t.Fatalf("HashKDF() error = %v", err)
	}
	k3, err := HashKDF(key, "purpose-b")
	if err != nil {
		t.Fatalf("HashKDF() error = %v", err)
	}

	if !bytes.Equal(k1, k2) {
		t.Error("HashKDF() not deterministic for the same purpose")
	}
	if bytes.Equal(k1, k3) {
		t.Error("HashKDF() produced the same key for two different purposes")
	}
	if len(k1) != len(key) {
		t.Errorf("HashKDF() len = %d, want %d", len(k1), len(key))
	}
}

func TestPasswordKDF_Deterministic(t *testing.T) {
	salt := SecureRandom(16)

	k1 := PasswordKDF("hunter2", salt, 32)
	k2 := PasswordKDF("hunter2", salt, 32)
	k3 := PasswordKDF("hunter3", salt, 32)

	if !bytes.Equal(k1, k2) {
		t.Error("PasswordKDF() not deterministic for the same password/salt")
	}
	if bytes.Equal(k1, k3) {
		t.Error("PasswordKDF() produced the same key for two different passwords")
	}
	if len(k1) != 32 {
		t.Errorf("PasswordKDF() len = %d, want 32", len(k1))
	}
}

func TestAsymmetricRoundTrip(t *testing.T) {
	pub, priv, err := AsymmetricKeyGen()
	if err != nil {
		t.Fatalf("AsymmetricKeyGen() error = %v", err)
	}

	plaintext := []byte("a short secret")
	ciphertext, err := AsymmetricEncrypt(pub, plaintext)
	if err != nil {
		t.Fatalf("AsymmetricEncrypt() error = %v", err)
	}

	decrypted, err := AsymmetricDecrypt(priv, ciphertext)
	if err != nil {
		t.Fatalf("AsymmetricDecrypt() error = %v", err)
	}

	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("round trip = %q, want %q", decrypted, plaintext)
	}
}

func TestSignatureVerify(t *testing.T) {
	pub, priv, err := SignatureKeyGen()
	if err != nil {
		t.Fatalf("SignatureKeyGen() error = %v", err)
	}

	data := []byte("sign me")
	sig, err := SignatureSign(priv, data)
	if err != nil {
		t.Fatalf("SignatureSign() error = %v", err)
	}

	if !SignatureVerify(pub, data, sig) {
		t.Error("SignatureVerify() = false for a valid signature")
	}

	if SignatureVerify(pub, []byte("different data"), sig) {
		t.Error("SignatureVerify() = true for mismatched data")
	}

	otherPub, _, err := SignatureKeyGen()
	if err != nil {
		t.Fatalf("SignatureKeyGen() error = %v", err)
	}
	if SignatureVerify(otherPub, data, sig) {
		t.Error("SignatureVerify() = true under the wrong public key")
	}
}

func TestPublicKeyMarshalRoundTrip(t *testing.T) {
	pub, priv, err := AsymmetricKeyGen()
	if err != nil {
		t.Fatalf("AsymmetricKeyGen() error = %v", err)
	}

	der, err := MarshalPublicKey(pub)
	if err != nil {
		t.Fatalf("MarshalPublicKey() error = %v", err)
	}
	recovered, err := UnmarshalPublicKey(der)
	if err != nil {
		t.Fatalf("UnmarshalPublicKey() error = %v", err)
	}
	if !recovered.Equal(pub) {
		t.Error("UnmarshalPublicKey() did not recover the original key")
	}

	privDER, err := MarshalPrivateKey(priv)
	if err != nil {
		t.Fatalf("MarshalPrivateKey() error = %v", err)
	}
	recoveredPriv, err := UnmarshalPrivateKey(privDER)
	if err != nil {
		t.Fatalf("UnmarshalPrivateKey() error = %v", err)
	}
	if !recoveredPriv.Equal(priv) {
		t.Error("UnmarshalPrivateKey() did not recover the original key")
	}
}

func TestSecureRandom_Length(t *testing.T) {
	b := SecureRandom(32)
	if len(b) != 32 {
		t.Errorf("SecureRandom() len = %d, want 32", len(b))
	}
}
