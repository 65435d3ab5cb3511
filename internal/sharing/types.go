// Package sharing implements the capability tree that lets a file owner
// delegate access transitively and revoke a whole subtree by re-keying
// the file, without ever contacting the revoked parties.
package sharing

import "github.com/brown-csci1660/vaultbox/internal/memloc"

// Share-node roles.
const (
	RoleOwner     = "owner"
	RoleRecipient = "recipient"
)

// ShareNode is a per-(user, filename) record linking a user's namespace
// entry to a file's cryptographic material and to its place in the
// sharing tree. Every node carries its own copy of the file capability
// (FileHeaderHandle, FileKey); revocation rewrites the surviving
// subtree's copies in place, walking down through each node's Children
// refs, so a node's holder never needs, and never gets, the capability
// to open any node above its own. A revoked node simply keeps a stale
// FileKey that no longer authenticates anything.
type ShareNode struct {
	Role string `json:"role"`

	FileHeaderHandle memloc.Handle `json:"file_header_handle"`
	FileKey          []byte        `json:"file_key"`

	// ParentShareHandle records the node's position in the tree. It is a
	// bare handle: no envelope keys travel with it, so it grants no read
	// access to the parent record.
	ParentShareHandle memloc.Handle `json:"parent_share_handle,omitempty"`

	Children []ChildRef `json:"children"`
}

// ChildRef is how a node remembers a direct child it created: the
// child's handle and envelope keys (so revocation can rewrite that exact
// child in place, and recurse into the child's own Children) and the
// invite handle the child was notified through (so revocation can garble
// the mailbox slot of a revoked child).
type ChildRef struct {
	Recipient    string        `json:"recipient"`
	InviteHandle memloc.Handle `json:"invite_handle"`
	ShareHandle  memloc.Handle `json:"share_handle"`
	EncKey       []byte        `json:"enc_key"`
	MacKey       []byte        `json:"mac_key"`
}

// NamespaceEntry is what a user's namespace record stores per filename:
// the handle of that user's own share node for the file, and the
// envelope keys needed to open it (themselves protected by the
// namespace's own MAC).
type NamespaceEntry struct {
	ShareHandle memloc.Handle `json:"share_handle"`
	EncKey      []byte        `json:"enc_key"`
	MacKey      []byte        `json:"mac_key"`
}

// Namespace is a user's filename -> share-node-capability map.
type Namespace struct {
	Files map[string]NamespaceEntry `json:"files"`
}

// invitePayload is the plaintext an invite's signature covers: the
// capability to install ChildShareHandle (opened with ChildEncKey/
// ChildMacKey) plus the (sender, recipient, filename) triple the
// recipient checks at receive time to detect a swapped invite.
type invitePayload struct {
	ChildShareHandle memloc.Handle `json:"child_share_handle"`
	ChildEncKey      []byte        `json:"child_enc_key"`
	ChildMacKey      []byte        `json:"child_mac_key"`
	Sender           string        `json:"sender"`
	Recipient        string        `json:"recipient"`
	Filename         string        `json:"filename"`
}

// signedInvite is the sender-authenticated invite body: the payload plus
// the sender's signature over it.
type signedInvite struct {
	Payload   []byte `json:"payload"`
	Signature []byte `json:"signature"`
}

// inviteEnvelope is what actually lands on the dataserver. RSA-OAEP can
// only seal a handful of bytes under a 2048-bit key, so the signed
// invite is encrypted hybrid-style: a fresh symmetric key sealed to the
// recipient's public key, and the signed body under that symmetric key.
type inviteEnvelope struct {
	SealedKey  []byte `json:"sealed_key"`
	Ciphertext []byte `json:"ciphertext"`
}
