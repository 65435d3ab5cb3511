// Package identity implements the per-user key hierarchy and the two
// account operations built on it: registration and authentication.
//
// Nothing about an account is stored in the clear. Every secret a user
// owns hangs off a single PBKDF2-derived root key, so authentication is
// a pure function of (username, password): no lookup table, no password
// hash to verify, just a derivation that either opens the root record or
// doesn't.
package identity

import (
	"crypto/rsa"

	"github.com/brown-csci1660/vaultbox/internal/codec"
	"github.com/brown-csci1660/vaultbox/internal/dataserver"
	"github.com/brown-csci1660/vaultbox/internal/keyserver"
	"github.com/brown-csci1660/vaultbox/internal/memloc"
	"github.com/brown-csci1660/vaultbox/internal/primitives"
	"github.com/brown-csci1660/vaultbox/internal/vaulterrors"
)

// MasterKeySize is the size, in bytes, of a user's random master key M_U.
const MasterKeySize = 16

// saltSize is the size, in bytes, of the per-user PBKDF2 salt.
const saltSize = 16

// Key-derivation purpose labels for the per-user hierarchy.
const (
	purposeRootLoc      = "root-loc"
	purposeRootEnc      = "root-enc"
	purposeRootMac      = "root-mac"
	purposeNamespaceLoc = "namespace-loc"
	purposeNamespaceEnc = "namespace-enc"
	purposeNamespaceMac = "namespace-mac"
)

// Keyserver name suffixes: "{user}/enc" and "{user}/verify".
const (
	encKeySuffix    = "/enc"
	verifyKeySuffix = "/verify"
)

// rootRecord is the authenticated envelope contents stored at a user's
// deterministic root handle: the asymmetric private keys plus the random
// per-user master key M_U that roots every other per-user structure.
type rootRecord struct {
	SkEncDER  []byte `json:"sk_enc_der"`
	SkSignDER []byte `json:"sk_sign_der"`
	MasterKey []byte `json:"master_key"`
}

// User is the live, authenticated identity handle returned by CreateUser
// and AuthenticateUser. It holds no connection to the store: every
// subsequent operation re-derives keys and re-fetches records as needed.
type User struct {
	Username string

	SkEnc  *rsa.PrivateKey
	PkEnc  *rsa.PublicKey
	SkSign *rsa.PrivateKey

	// PkVerify is the caller's own verification public key, fetched from
	// the keyserver at authentication time for consistency with how the
	// caller fetches other users' verification keys.
	PkVerify *rsa.PublicKey

	// MasterKey is M_U, the root of every per-user structure (namespace,
	// share nodes this user creates) derived by HashKDF.
	MasterKey []byte
}

// keyHierarchy holds the password-derived root keys used only during
// CreateUser/AuthenticateUser to locate and open the root record.
type keyHierarchy struct {
	rootLocHandle memloc.Handle
	rootEncKey    []byte
	rootMacKey    []byte
}

func deriveKeyHierarchy(username, password string) (*keyHierarchy, error) {
	salt := primitives.Hash([]byte(username))[:saltSize]
	rootKey := primitives.PasswordKDF(password, salt, 16)

	locKey, err := primitives.HashKDF(rootKey, purposeRootLoc)
	if err != nil {
		return nil, err
	}
	encKey, err := primitives.HashKDF(rootKey, purposeRootEnc)
	if err != nil {
		return nil, err
	}
	macKey, err := primitives.HashKDF(rootKey, purposeRootMac)
	if err != nil {
		return nil, err
	}

	return &keyHierarchy{
		rootLocHandle: memloc.MakeFromBytes(locKey),
		rootEncKey:    encKey,
		rootMacKey:    macKey,
	}, nil
}

// NamespaceHandle returns the deterministic handle of u's namespace
// record, derived from M_U so that it is reproducible on every login
// without being stored anywhere else.
func NamespaceHandle(masterKey []byte) (memloc.Handle, error) {
	locKey, err := primitives.HashKDF(masterKey, purposeNamespaceLoc)
	if err != nil {
		return memloc.Handle{}, err
	}
	return memloc.MakeFromBytes(locKey), nil
}

// NamespaceKeys returns the symmetric encryption/MAC keys protecting u's
// namespace record.
func NamespaceKeys(masterKey []byte) (encKey, macKey []byte, err error) {
	encKey, err = primitives.HashKDF(masterKey, purposeNamespaceEnc)
	if err != nil {
		return nil, nil, err
	}
	macKey, err = primitives.HashKDF(masterKey, purposeNamespaceMac)
	if err != nil {
		return nil, nil, err
	}
	return encKey, macKey, nil
}

// EncKeyName returns the keyserver name a user's encryption public key is
// published under.
func EncKeyName(username string) string { return username + encKeySuffix }

// VerifyKeyName returns the keyserver name a user's verification public
// key is published under.
func VerifyKeyName(username string) string { return username + verifyKeySuffix }

// CreateUser registers a new account: it publishes public keys to the
// keyserver, derives the password-rooted key hierarchy, and writes the
// authenticated root record and an empty namespace record to the
// dataserver.
func CreateUser(store dataserver.Store, dir keyserver.Directory, username, password string) (*User, error) {
	if username == "" {
		return nil, vaulterrors.NewBadArgumentError("username must not be empty")
	}
	if password == "" {
		return nil, vaulterrors.NewBadArgumentError("password must not be empty")
	}

	if _, err := dir.Get(EncKeyName(username)); err == nil {
		return nil, vaulterrors.NewUserExistsError(username)
	}

	pkEnc, skEnc, err := primitives.AsymmetricKeyGen()
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("generating encryption keypair: %v", err)
	}
	pkVerify, skSign, err := primitives.SignatureKeyGen()
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("generating signing keypair: %v", err)
	}

	encDER, err := primitives.MarshalPublicKey(pkEnc)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("marshaling encryption key: %v", err)
	}
	verifyDER, err := primitives.MarshalPublicKey(pkVerify)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("marshaling verification key: %v", err)
	}

	// Keyserver writes are one-shot: a concurrent duplicate registration
	// fails here even if the existence check above raced.
	if err := dir.Set(EncKeyName(username), encDER); err != nil {
		return nil, vaulterrors.NewUserExistsError(username)
	}
	if err := dir.Set(VerifyKeyName(username), verifyDER); err != nil {
		return nil, vaulterrors.NewUserExistsError(username)
	}

	hier, err := deriveKeyHierarchy(username, password)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("deriving key hierarchy: %v", err)
	}

	masterKey := primitives.SecureRandom(MasterKeySize)

	skEncDER, err := primitives.MarshalPrivateKey(skEnc)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("marshaling encryption private key: %v", err)
	}
	skSignDER, err := primitives.MarshalPrivateKey(skSign)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("marshaling signing private key: %v", err)
	}

	record := rootRecord{SkEncDER: skEncDER, SkSignDER: skSignDER, MasterKey: masterKey}
	plaintext, err := codec.Marshal(record)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("marshaling root record: %v", err)
	}
	if err := dataserver.PutAuthenticated(store, hier.rootLocHandle, hier.rootEncKey, hier.rootMacKey, plaintext); err != nil {
		return nil, vaulterrors.NewIntegrityError("writing root record: %v", err)
	}

	nsHandle, err := NamespaceHandle(masterKey)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("deriving namespace handle: %v", err)
	}
	nsEncKey, nsMacKey, err := NamespaceKeys(masterKey)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("deriving namespace keys: %v", err)
	}
	emptyNamespace, err := codec.Marshal(map[string]any{})
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("marshaling empty namespace: %v", err)
	}
	if err := dataserver.PutAuthenticated(store, nsHandle, nsEncKey, nsMacKey, emptyNamespace); err != nil {
		return nil, vaulterrors.NewIntegrityError("writing namespace record: %v", err)
	}

	return &User{
		Username:  username,
		SkEnc:     skEnc,
		PkEnc:     pkEnc,
		SkSign:    skSign,
		PkVerify:  pkVerify,
		MasterKey: masterKey,
	}, nil
}

// AuthenticateUser re-derives the password-rooted key hierarchy, fetches
// and authenticates the root record, and decrypts the private keys and
// the master key. Any integrity failure or missing record is reported
// identically as ErrAuthFailed, so a caller cannot distinguish "wrong
// password" from "no such user".
func AuthenticateUser(store dataserver.Store, dir keyserver.Directory, username, password string) (*User, error) {
	if username == "" {
		return nil, vaulterrors.NewBadArgumentError("username must not be empty")
	}
	if password == "" {
		return nil, vaulterrors.NewBadArgumentError("password must not be empty")
	}

	hier, err := deriveKeyHierarchy(username, password)
	if err != nil {
		return nil, vaulterrors.NewAuthFailedError()
	}

	plaintext, err := dataserver.GetAuthenticated(store, hier.rootLocHandle, hier.rootEncKey, hier.rootMacKey)
	if err != nil {
		return nil, vaulterrors.NewAuthFailedError()
	}

	var record rootRecord
	if err := codec.Unmarshal(plaintext, &record); err != nil {
		return nil, vaulterrors.NewAuthFailedError()
	}

	skEnc, err := primitives.UnmarshalPrivateKey(record.SkEncDER)
	if err != nil {
		return nil, vaulterrors.NewAuthFailedError()
	}
	skSign, err := primitives.UnmarshalPrivateKey(record.SkSignDER)
	if err != nil {
		return nil, vaulterrors.NewAuthFailedError()
	}

	verifyDER, err := dir.Get(VerifyKeyName(username))
	if err != nil {
		return nil, vaulterrors.NewAuthFailedError()
	}
	pkVerify, err := primitives.UnmarshalPublicKey(verifyDER)
	if err != nil {
		return nil, vaulterrors.NewAuthFailedError()
	}

	return &User{
		Username:  username,
		SkEnc:     skEnc,
		PkEnc:     &skEnc.PublicKey,
		SkSign:    skSign,
		PkVerify:  pkVerify,
		MasterKey: record.MasterKey,
	}, nil
}

// LookupEncKey fetches username's encryption public key from the
// keyserver, returning vaulterrors.ErrUnknownUser if it has none.
func LookupEncKey(dir keyserver.Directory, username string) (*rsa.PublicKey, error) {
	der, err := dir.Get(EncKeyName(username))
	if err != nil {
		return nil, vaulterrors.NewUnknownUserError(username)
	}
	pub, err := primitives.UnmarshalPublicKey(der)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("malformed public key for %q: %v", username, err)
	}
	return pub, nil
}

// LookupVerifyKey fetches username's verification public key from the
// keyserver, returning vaulterrors.ErrUnknownUser if it has none.
func LookupVerifyKey(dir keyserver.Directory, username string) (*rsa.PublicKey, error) {
	der, err := dir.Get(VerifyKeyName(username))
	if err != nil {
		return nil, vaulterrors.NewUnknownUserError(username)
	}
	pub, err := primitives.UnmarshalPublicKey(der)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("malformed public key for %q: %v", username, err)
	}
	return pub, nil
}
