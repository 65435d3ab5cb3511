// Package primitives wraps the cryptographic building blocks vaultbox is
// built from: symmetric AEAD (AES-CBC + HMAC-SHA-512), RSA-OAEP asymmetric
// encryption, RSA-PSS signatures, hashing, HMAC, and the two key-derivation
// functions (HKDF for key-from-key, PBKDF2 for key-from-password).
//
// Every function here is a thin, opinionated wrapper around the standard
// library and golang.org/x/crypto; it does not invent new cryptography.
package primitives

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"crypto/x509"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// RSAKeyBits is the modulus size used for every asymmetric keypair vaultbox
// generates, matching the support library's RSA-2048 requirement.
const RSAKeyBits = 2048

// PBKDF2Iterations is the default PBKDF2 iteration count for PasswordKDF.
// Tests may construct a derivation with a lower count explicitly; production
// code should always use this constant.
const PBKDF2Iterations = 100_000

// HMACKeySize is the expected key size for HMAC, matching the support
// library's 128-bit requirement.
const HMACKeySize = 16

var (
	// ErrBadHMACKeySize is returned by HMAC / HMACVerify when the key is not
	// 16 bytes.
	ErrBadHMACKeySize = errors.New("primitives: HMAC key must be 16 bytes")
)

// SecureRandom returns n cryptographically random bytes.
func SecureRandom(n int) []byte {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		panic("primitives: failed to read secure random bytes: " + err.Error())
	}
	return b
}

// Hash returns the SHA-512 digest of data.
func Hash(data []byte) []byte {
	sum := sha512.Sum512(data)
	return sum[:]
}

// HMAC computes a SHA-512 HMAC of data under key. key must be 16 bytes.
func HMAC(key, data []byte) ([]byte, error) {
	if len(key) != HMACKeySize {
		return nil, ErrBadHMACKeySize
	}
	mac := hmac.New(sha512.New, key)
	mac.Write(data)
	return mac.Sum(nil), nil
}

// HMACVerify reports whether tag is the correct HMAC-SHA-512 of data under
// key, comparing in constant time.
func HMACVerify(key, data, tag []byte) bool {
	expected, err := HMAC(key, data)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(expected, tag) == 1
}

// HashKDF derives a new key of the same length as key, binding in purpose so
// that distinct purposes yield independent keys from the same input key.
func HashKDF(key []byte, purpose string) ([]byte, error) {
	reader := hkdf.New(sha512.New, key, nil, []byte(purpose))
	out := make([]byte, len(key))
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, fmt.Errorf("primitives: HashKDF: %w", err)
	}
	return out, nil
}

// PasswordKDF derives a keyLen-byte key from password and salt using
// PBKDF2-HMAC-SHA-256 with PBKDF2Iterations iterations.
func PasswordKDF(password string, salt []byte, keyLen int) []byte {
	return pbkdf2.Key([]byte(password), salt, PBKDF2Iterations, keyLen, sha256.New)
}

// SymmetricEncrypt encrypts plaintext with AES-CBC under key and iv,
// PKCS7-padding the plaintext and appending iv to the ciphertext. key must be
// 16, 24, or 32 bytes; iv must be 16 bytes.
func SymmetricEncrypt(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("primitives: SymmetricEncrypt: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("primitives: SymmetricEncrypt: iv must be %d bytes", aes.BlockSize)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return append(ciphertext, iv...), nil
}

// SymmetricDecrypt decrypts ciphertext produced by SymmetricEncrypt under
// key; the last 16 bytes of ciphertext are taken as the IV.
func SymmetricDecrypt(key, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("primitives: SymmetricDecrypt: %w", err)
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, errors.New("primitives: SymmetricDecrypt: ciphertext too short")
	}

	iv := ciphertext[len(ciphertext)-aes.BlockSize:]
	body := ciphertext[:len(ciphertext)-aes.BlockSize]
	if len(body) == 0 || len(body)%aes.BlockSize != 0 {
		return nil, errors.New("primitives: SymmetricDecrypt: malformed ciphertext body")
	}

	padded := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, body)

	return pkcs7Unpad(padded, aes.BlockSize)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("primitives: invalid padded data")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, errors.New("primitives: invalid PKCS7 padding")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, errors.New("primitives: invalid PKCS7 padding")
		}
	}
	return data[:len(data)-padLen], nil
}

// AsymmetricKeyGen generates an RSA-2048 keypair for OAEP encryption.
func AsymmetricKeyGen() (*rsa.PublicKey, *rsa.PrivateKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, RSAKeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("primitives: AsymmetricKeyGen: %w", err)
	}
	return &priv.PublicKey, priv, nil
}

// AsymmetricEncrypt encrypts plaintext under pub using RSA-OAEP-SHA512.
func AsymmetricEncrypt(pub *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	ciphertext, err := rsa.EncryptOAEP(sha512.New(), rand.Reader, pub, plaintext, nil)
	if err != nil {
		return nil, fmt.Errorf("primitives: AsymmetricEncrypt: %w", err)
	}
	return ciphertext, nil
}

// AsymmetricDecrypt decrypts ciphertext with priv using RSA-OAEP-SHA512.
func AsymmetricDecrypt(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	plaintext, err := rsa.DecryptOAEP(sha512.New(), rand.Reader, priv, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("primitives: AsymmetricDecrypt: %w", err)
	}
	return plaintext, nil
}

// SignatureKeyGen generates an RSA-2048 keypair for PSS signatures.
func SignatureKeyGen() (*rsa.PublicKey, *rsa.PrivateKey, error) {
	return AsymmetricKeyGen()
}

// SignatureSign signs data with priv using RSA-PSS-SHA512. data is hashed
// internally; callers pass the message, not a pre-computed digest.
func SignatureSign(priv *rsa.PrivateKey, data []byte) ([]byte, error) {
	digest := sha512.Sum512(data)
	sig, err := rsa.SignPSS(rand.Reader, priv, crypto.SHA512, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthAuto,
	})
	if err != nil {
		return nil, fmt.Errorf("primitives: SignatureSign: %w", err)
	}
	return sig, nil
}

// SignatureVerify reports whether sig is a valid RSA-PSS-SHA512 signature of
// data under pub.
func SignatureVerify(pub *rsa.PublicKey, data, sig []byte) bool {
	digest := sha512.Sum512(data)
	err := rsa.VerifyPSS(pub, crypto.SHA512, digest[:], sig, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthAuto,
	})
	return err == nil
}

// MarshalPublicKey encodes pub as a PKIX DER byte string, suitable for
// publishing to the keyserver.
func MarshalPublicKey(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("primitives: MarshalPublicKey: %w", err)
	}
	return der, nil
}

// UnmarshalPublicKey decodes a PKIX DER byte string produced by
// MarshalPublicKey.
func UnmarshalPublicKey(der []byte) (*rsa.PublicKey, error) {
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("primitives: UnmarshalPublicKey: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("primitives: UnmarshalPublicKey: not an RSA public key")
	}
	return rsaPub, nil
}

// MarshalPrivateKey encodes priv as a PKCS8 DER byte string.
func MarshalPrivateKey(priv *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("primitives: MarshalPrivateKey: %w", err)
	}
	return der, nil
}

// UnmarshalPrivateKey decodes a PKCS8 DER byte string produced by
// MarshalPrivateKey.
func UnmarshalPrivateKey(der []byte) (*rsa.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("primitives: UnmarshalPrivateKey: %w", err)
	}
	rsaPriv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("primitives: UnmarshalPrivateKey: not an RSA private key")
	}
	return rsaPriv, nil
}
