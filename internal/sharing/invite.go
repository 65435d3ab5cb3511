package sharing

import (
	"crypto/rsa"

	"github.com/brown-csci1660/vaultbox/internal/codec"
	"github.com/brown-csci1660/vaultbox/internal/dataserver"
	"github.com/brown-csci1660/vaultbox/internal/memloc"
	"github.com/brown-csci1660/vaultbox/internal/primitives"
	"github.com/brown-csci1660/vaultbox/internal/vaulterrors"
)

// inviteKeySize is the size of the one-shot symmetric key sealing an
// invite body.
const inviteKeySize = 16

// mailboxHandle computes the deterministic per-(sender, recipient,
// filename) invite mailbox handle: an HMAC of "sender:filename" under a
// key derived from the recipient's encryption public key. Both the
// sharer (who already
// fetched that key from the keyserver to encrypt the invite) and the
// recipient (who holds their own public key) can compute it. An
// adversary who also computes it can at worst destroy the mailbox slot;
// the invite's signature and hybrid encryption make any substitution
// detectable at receive time.
func mailboxHandle(recipientPkEncDER []byte, sender, filename string) memloc.Handle {
	key := primitives.Hash(recipientPkEncDER)[:16]
	tag, err := primitives.HMAC(key, []byte(sender+":"+filename))
	if err != nil {
		panic("sharing: mailboxHandle: " + err.Error())
	}
	return memloc.MakeFromBytes(tag)
}

// writeInvite signs payload with the sender's signing key, encrypts the
// signed blob hybrid-style to the recipient's encryption public key, and
// writes it at the recipient's mailbox handle for (sender, filename).
func writeInvite(store dataserver.Store, skSign *rsa.PrivateKey, recipientPkEnc *rsa.PublicKey, recipientPkEncDER []byte, payload *invitePayload) (memloc.Handle, error) {
	plaintext, err := codec.Marshal(payload)
	if err != nil {
		return memloc.Handle{}, vaulterrors.NewIntegrityError("marshaling invite: %v", err)
	}

	sig, err := primitives.SignatureSign(skSign, plaintext)
	if err != nil {
		return memloc.Handle{}, vaulterrors.NewIntegrityError("signing invite: %v", err)
	}

	signed := &signedInvite{Payload: plaintext, Signature: sig}
	signedBytes, err := codec.Marshal(signed)
	if err != nil {
		return memloc.Handle{}, vaulterrors.NewIntegrityError("marshaling signed invite: %v", err)
	}

	oneShotKey := primitives.SecureRandom(inviteKeySize)
	sealedKey, err := primitives.AsymmetricEncrypt(recipientPkEnc, oneShotKey)
	if err != nil {
		return memloc.Handle{}, vaulterrors.NewIntegrityError("sealing invite key: %v", err)
	}
	iv := primitives.SecureRandom(16)
	body, err := primitives.SymmetricEncrypt(oneShotKey, iv, signedBytes)
	if err != nil {
		return memloc.Handle{}, vaulterrors.NewIntegrityError("encrypting invite: %v", err)
	}

	envelope, err := codec.Marshal(&inviteEnvelope{SealedKey: sealedKey, Ciphertext: body})
	if err != nil {
		return memloc.Handle{}, vaulterrors.NewIntegrityError("marshaling invite envelope: %v", err)
	}

	handle := mailboxHandle(recipientPkEncDER, payload.Sender, payload.Filename)
	store.Set(handle, envelope)
	return handle, nil
}

// readInvite locates, decrypts, and verifies the invite at the caller's
// mailbox for (sender, filename), checking that the payload's recorded
// (sender, recipient, filename) match what the caller expects; this
// catches an adversary swapping one recipient's invite for another's.
func readInvite(store dataserver.Store, skEnc *rsa.PrivateKey, pkEncDER []byte, senderPkVerify *rsa.PublicKey, sender, recipient, filename string) (*invitePayload, memloc.Handle, error) {
	handle := mailboxHandle(pkEncDER, sender, filename)

	raw, err := store.Get(handle)
	if err != nil {
		return nil, memloc.Handle{}, vaulterrors.NewIntegrityError("no pending invite from %q for %q", sender, filename)
	}

	var envelope inviteEnvelope
	if err := codec.Unmarshal(raw, &envelope); err != nil {
		return nil, memloc.Handle{}, vaulterrors.NewIntegrityError("malformed invite envelope: %v", err)
	}

	oneShotKey, err := primitives.AsymmetricDecrypt(skEnc, envelope.SealedKey)
	if err != nil {
		return nil, memloc.Handle{}, vaulterrors.NewIntegrityError("unsealing invite key: %v", err)
	}
	if len(oneShotKey) != inviteKeySize {
		return nil, memloc.Handle{}, vaulterrors.NewIntegrityError("invite key has wrong size")
	}

	signedBytes, err := primitives.SymmetricDecrypt(oneShotKey, envelope.Ciphertext)
	if err != nil {
		return nil, memloc.Handle{}, vaulterrors.NewIntegrityError("decrypting invite: %v", err)
	}

	var signed signedInvite
	if err := codec.Unmarshal(signedBytes, &signed); err != nil {
		return nil, memloc.Handle{}, vaulterrors.NewIntegrityError("malformed invite: %v", err)
	}

	if !primitives.SignatureVerify(senderPkVerify, signed.Payload, signed.Signature) {
		return nil, memloc.Handle{}, vaulterrors.NewIntegrityError("invite signature verification failed")
	}

	var payload invitePayload
	if err := codec.Unmarshal(signed.Payload, &payload); err != nil {
		return nil, memloc.Handle{}, vaulterrors.NewIntegrityError("malformed invite payload: %v", err)
	}

	if payload.Sender != sender || payload.Recipient != recipient || payload.Filename != filename {
		return nil, memloc.Handle{}, vaulterrors.NewIntegrityError("invite does not match expected sender/recipient/filename")
	}

	return &payload, handle, nil
}
