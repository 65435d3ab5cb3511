package sharing

import (
	"github.com/brown-csci1660/vaultbox/internal/dataserver"
	"github.com/brown-csci1660/vaultbox/internal/identity"
	"github.com/brown-csci1660/vaultbox/internal/keyserver"
	"github.com/brown-csci1660/vaultbox/internal/memloc"
	"github.com/brown-csci1660/vaultbox/internal/primitives"
	"github.com/brown-csci1660/vaultbox/internal/vaulterrors"
	"github.com/brown-csci1660/vaultbox/internal/vaultfile"
)

// NewOwnerNode writes a fresh owner share node for a just-created file and
// returns the NamespaceEntry the caller should install for filename.
// Used by the upload path when the caller has no prior node for filename.
func NewOwnerNode(store dataserver.Store, headerHandle memloc.Handle, fileKey []byte) (*NamespaceEntry, error) {
	handle := memloc.Make()
	encKey := primitives.SecureRandom(dataserver.EnvelopeKeySize)
	macKey := primitives.SecureRandom(dataserver.EnvelopeKeySize)

	node := &ShareNode{
		Role:             RoleOwner,
		FileHeaderHandle: headerHandle,
		FileKey:          fileKey,
		Children:         []ChildRef{},
	}
	if err := PutShareNode(store, handle, encKey, macKey, node); err != nil {
		return nil, err
	}

	return &NamespaceEntry{ShareHandle: handle, EncKey: encKey, MacKey: macKey}, nil
}

// ShareFile grants recipient a capability to filename.
// The caller must already hold a share node for filename (owner or
// previously-received recipient); a user who was only invited but never
// called ReceiveFile has no such node and cannot share.
func ShareFile(store dataserver.Store, dir keyserver.Directory, user *identity.User, entry NamespaceEntry, filename, recipient string) error {
	if recipient == user.Username {
		return vaulterrors.NewBadArgumentError("cannot share %q with yourself", filename)
	}

	ownNode, err := GetShareNode(store, entry.ShareHandle, entry.EncKey, entry.MacKey)
	if err != nil {
		return err
	}

	recipientPkEnc, err := identity.LookupEncKey(dir, recipient)
	if err != nil {
		return err
	}
	recipientPkEncDER, err := primitives.MarshalPublicKey(recipientPkEnc)
	if err != nil {
		return vaulterrors.NewIntegrityError("marshaling recipient key: %v", err)
	}

	childHandle := memloc.Make()
	childEncKey := primitives.SecureRandom(dataserver.EnvelopeKeySize)
	childMacKey := primitives.SecureRandom(dataserver.EnvelopeKeySize)

	childNode := &ShareNode{
		Role:              RoleRecipient,
		FileHeaderHandle:  ownNode.FileHeaderHandle,
		FileKey:           ownNode.FileKey,
		ParentShareHandle: entry.ShareHandle,
		Children:          []ChildRef{},
	}
	if err := PutShareNode(store, childHandle, childEncKey, childMacKey, childNode); err != nil {
		return err
	}

	payload := &invitePayload{
		ChildShareHandle: childHandle,
		ChildEncKey:      childEncKey,
		ChildMacKey:      childMacKey,
		Sender:           user.Username,
		Recipient:        recipient,
		Filename:         filename,
	}
	inviteHandle, err := writeInvite(store, user.SkSign, recipientPkEnc, recipientPkEncDER, payload)
	if err != nil {
		return err
	}

	ownNode.Children = append(ownNode.Children, ChildRef{
		Recipient:    recipient,
		InviteHandle: inviteHandle,
		ShareHandle:  childHandle,
		EncKey:       childEncKey,
		MacKey:       childMacKey,
	})
	return PutShareNode(store, entry.ShareHandle, entry.EncKey, entry.MacKey, ownNode)
}

// ReceiveFile accepts a pending invite from sender for filename and
// returns the NamespaceEntry the caller should install.
// The share node behind the invite is fetched and authenticated before
// the entry is handed back, so a tampered node is detected at receive
// time rather than on the first download.
func ReceiveFile(store dataserver.Store, dir keyserver.Directory, user *identity.User, filename, sender string) (*NamespaceEntry, error) {
	pkEncDER, err := primitives.MarshalPublicKey(user.PkEnc)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("marshaling own key: %v", err)
	}

	senderPkVerify, err := identity.LookupVerifyKey(dir, sender)
	if err != nil {
		return nil, err
	}

	payload, inviteHandle, err := readInvite(store, user.SkEnc, pkEncDER, senderPkVerify, sender, user.Username, filename)
	if err != nil {
		return nil, err
	}

	entry := &NamespaceEntry{
		ShareHandle: payload.ChildShareHandle,
		EncKey:      payload.ChildEncKey,
		MacKey:      payload.ChildMacKey,
	}
	if _, err := GetShareNode(store, entry.ShareHandle, entry.EncKey, entry.MacKey); err != nil {
		return nil, err
	}

	store.Delete(inviteHandle)
	return entry, nil
}

// RevokeFile removes oldRecipient's direct access to filename and re-keys
// the file so that neither oldRecipient nor any of their descendants in
// the sharing tree can read or write it through their prior capabilities.
// The caller must own filename, and oldRecipient must be a direct child
// of the caller's share node.
func RevokeFile(store dataserver.Store, entry NamespaceEntry, username, filename, oldRecipient string) error {
	node, err := GetShareNode(store, entry.ShareHandle, entry.EncKey, entry.MacKey)
	if err != nil {
		return err
	}
	if node.Role != RoleOwner {
		return vaulterrors.NewNotOwnerError(filename)
	}

	revokedIdx := -1
	for i, c := range node.Children {
		if c.Recipient == oldRecipient {
			revokedIdx = i
			break
		}
	}
	if revokedIdx == -1 {
		return vaulterrors.NewNotSharedWithError(filename, oldRecipient)
	}

	newFileKey := vaultfile.NewFileKey()
	newHeaderHandle, err := vaultfile.Rekey(store, node.FileKey, node.FileHeaderHandle, newFileKey, username)
	if err != nil {
		return err
	}

	survivors := make([]ChildRef, 0, len(node.Children)-1)
	for i, c := range node.Children {
		if i == revokedIdx {
			continue
		}
		survivors = append(survivors, c)
	}

	// Rewrite every surviving descendant's capability in place. The node
	// handles stay what the descendants recorded in their namespaces; only
	// the (header handle, file key) inside change.
	for _, c := range survivors {
		if err := rekeySubtree(store, c, newHeaderHandle, newFileKey); err != nil {
			return err
		}
	}

	// The revoked subtree keeps only stale keys. Garbling the records is
	// a courtesy, not a security measure.
	garbleSubtree(store, node.Children[revokedIdx])

	node.FileHeaderHandle = newHeaderHandle
	node.FileKey = newFileKey
	node.Children = survivors
	return PutShareNode(store, entry.ShareHandle, entry.EncKey, entry.MacKey, node)
}

// rekeySubtree rewrites the share node at ref, and recursively every node
// below it, carrying the fresh file capability. The rewrite reuses each
// node's existing handle and envelope keys so namespace entries held by
// the subtree's users stay valid.
func rekeySubtree(store dataserver.Store, ref ChildRef, headerHandle memloc.Handle, fileKey []byte) error {
	child, err := GetShareNode(store, ref.ShareHandle, ref.EncKey, ref.MacKey)
	if err != nil {
		return err
	}
	child.FileHeaderHandle = headerHandle
	child.FileKey = fileKey
	if err := PutShareNode(store, ref.ShareHandle, ref.EncKey, ref.MacKey, child); err != nil {
		return err
	}
	for _, c := range child.Children {
		if err := rekeySubtree(store, c, headerHandle, fileKey); err != nil {
			return err
		}
	}
	return nil
}

// garbleSubtree overwrites the share node at ref and everything below it
// with random bytes, plus any lingering invite mailbox slot.
func garbleSubtree(store dataserver.Store, ref ChildRef) {
	if child, err := GetShareNode(store, ref.ShareHandle, ref.EncKey, ref.MacKey); err == nil {
		for _, c := range child.Children {
			garbleSubtree(store, c)
		}
	}
	dataserver.Garble(store, ref.ShareHandle)
	dataserver.Garble(store, ref.InviteHandle)
}
