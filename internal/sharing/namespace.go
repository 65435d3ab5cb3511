package sharing

import (
	"github.com/brown-csci1660/vaultbox/internal/codec"
	"github.com/brown-csci1660/vaultbox/internal/dataserver"
	"github.com/brown-csci1660/vaultbox/internal/identity"
	"github.com/brown-csci1660/vaultbox/internal/memloc"
	"github.com/brown-csci1660/vaultbox/internal/vaulterrors"
)

// LoadNamespace fetches and authenticates masterKey's owner's namespace
// record.
func LoadNamespace(store dataserver.Store, masterKey []byte) (*Namespace, error) {
	handle, err := identity.NamespaceHandle(masterKey)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("deriving namespace handle: %v", err)
	}
	encKey, macKey, err := identity.NamespaceKeys(masterKey)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("deriving namespace keys: %v", err)
	}

	plaintext, err := dataserver.GetAuthenticated(store, handle, encKey, macKey)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("reading namespace: %v", err)
	}

	var ns Namespace
	if err := codec.Unmarshal(plaintext, &ns); err != nil {
		return nil, vaulterrors.NewIntegrityError("malformed namespace: %v", err)
	}
	if ns.Files == nil {
		ns.Files = make(map[string]NamespaceEntry)
	}
	return &ns, nil
}

// SaveNamespace rewrites masterKey's owner's namespace record.
func SaveNamespace(store dataserver.Store, masterKey []byte, ns *Namespace) error {
	handle, err := identity.NamespaceHandle(masterKey)
	if err != nil {
		return vaulterrors.NewIntegrityError("deriving namespace handle: %v", err)
	}
	encKey, macKey, err := identity.NamespaceKeys(masterKey)
	if err != nil {
		return vaulterrors.NewIntegrityError("deriving namespace keys: %v", err)
	}

	plaintext, err := codec.Marshal(ns)
	if err != nil {
		return vaulterrors.NewIntegrityError("marshaling namespace: %v", err)
	}
	if err := dataserver.PutAuthenticated(store, handle, encKey, macKey, plaintext); err != nil {
		return vaulterrors.NewIntegrityError("writing namespace: %v", err)
	}
	return nil
}

// GetShareNode fetches and authenticates the share node at handle under
// the given envelope keys.
func GetShareNode(store dataserver.Store, handle memloc.Handle, encKey, macKey []byte) (*ShareNode, error) {
	plaintext, err := dataserver.GetAuthenticated(store, handle, encKey, macKey)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("reading share node: %v", err)
	}
	var node ShareNode
	if err := codec.Unmarshal(plaintext, &node); err != nil {
		return nil, vaulterrors.NewIntegrityError("malformed share node: %v", err)
	}
	return &node, nil
}

// PutShareNode writes node at handle under the given envelope keys.
func PutShareNode(store dataserver.Store, handle memloc.Handle, encKey, macKey []byte, node *ShareNode) error {
	plaintext, err := codec.Marshal(node)
	if err != nil {
		return vaulterrors.NewIntegrityError("marshaling share node: %v", err)
	}
	if err := dataserver.PutAuthenticated(store, handle, encKey, macKey, plaintext); err != nil {
		return vaulterrors.NewIntegrityError("writing share node: %v", err)
	}
	return nil
}

// ResolveEntry fetches and authenticates the share node behind a
// namespace entry and returns its file capability. The node's own copy of
// (FileHeaderHandle, FileKey) is authoritative: revocation rewrites the
// surviving subtree's copies in place, so a node whose copy is stale is
// exactly a node that has been revoked, and its holder fails at the
// header or chunk MAC.
func ResolveEntry(store dataserver.Store, entry NamespaceEntry) (node *ShareNode, headerHandle memloc.Handle, fileKey []byte, err error) {
	node, err = GetShareNode(store, entry.ShareHandle, entry.EncKey, entry.MacKey)
	if err != nil {
		return nil, memloc.Handle{}, nil, err
	}
	return node, node.FileHeaderHandle, node.FileKey, nil
}
