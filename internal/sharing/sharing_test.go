package sharing

import (
	"bytes"
	"testing"

	dsmemory "github.com/brown-csci1660/vaultbox/internal/dataserver/memorystore"
	"github.com/brown-csci1660/vaultbox/internal/identity"
	ksmemory "github.com/brown-csci1660/vaultbox/internal/keyserver/memorystore"
	"github.com/brown-csci1660/vaultbox/internal/vaulterrors"
	"github.com/brown-csci1660/vaultbox/internal/vaultfile"
)

type fixture struct {
	store *dsmemory.Store
	dir   *ksmemory.Store
	users map[string]*identity.User
}

func newFixture(t *testing.T, usernames ...string) *fixture {
	t.Helper()
	f := &fixture{
		store: dsmemory.New(),
		dir:   ksmemory.New(),
		users: make(map[string]*identity.User),
	}
	for _, name := range usernames {
		u, err := identity.CreateUser(f.store, f.dir, name, "pw-"+name)
		if err != nil {
			t.Fatalf("CreateUser(%s): %v", name, err)
		}
		f.users[name] = u
	}
	return f
}

// uploadAs creates a fresh owned file for user and installs it in their
// namespace.
func (f *fixture) uploadAs(t *testing.T, username, filename string, data []byte) {
	t.Helper()
	u := f.users[username]

	fileKey := vaultfile.NewFileKey()
	header, err := vaultfile.CreateFile(f.store, fileKey, username, data)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	entry, err := NewOwnerNode(f.store, header, fileKey)
	if err != nil {
		t.Fatalf("NewOwnerNode: %v", err)
	}

	ns, err := LoadNamespace(f.store, u.MasterKey)
	if err != nil {
		t.Fatalf("LoadNamespace: %v", err)
	}
	ns.Files[filename] = *entry
	if err := SaveNamespace(f.store, u.MasterKey, ns); err != nil {
		t.Fatalf("SaveNamespace: %v", err)
	}
}

func (f *fixture) entryOf(t *testing.T, username, filename string) NamespaceEntry {
	t.Helper()
	ns, err := LoadNamespace(f.store, f.users[username].MasterKey)
	if err != nil {
		t.Fatalf("LoadNamespace(%s): %v", username, err)
	}
	entry, ok := ns.Files[filename]
	if !ok {
		t.Fatalf("%s has no entry for %s", username, filename)
	}
	return entry
}

// shareTo runs the full share+receive handshake from 'from' to 'to'.
func (f *fixture) shareTo(t *testing.T, from, to, filename string) {
	t.Helper()

	entry := f.entryOf(t, from, filename)
	if err := ShareFile(f.store, f.dir, f.users[from], entry, filename, to); err != nil {
		t.Fatalf("ShareFile(%s->%s): %v", from, to, err)
	}

	received, err := ReceiveFile(f.store, f.dir, f.users[to], filename, from)
	if err != nil {
		t.Fatalf("ReceiveFile(%s<-%s): %v", to, from, err)
	}

	ns, err := LoadNamespace(f.store, f.users[to].MasterKey)
	if err != nil {
		t.Fatalf("LoadNamespace: %v", err)
	}
	ns.Files[filename] = *received
	if err := SaveNamespace(f.store, f.users[to].MasterKey, ns); err != nil {
		t.Fatalf("SaveNamespace: %v", err)
	}
}

func (f *fixture) downloadAs(t *testing.T, username, filename string) ([]byte, error) {
	t.Helper()
	ns, err := LoadNamespace(f.store, f.users[username].MasterKey)
	if err != nil {
		return nil, err
	}
	entry, ok := ns.Files[filename]
	if !ok {
		return nil, vaulterrors.NewFileNotFoundError(filename)
	}
	_, header, fileKey, err := ResolveEntry(f.store, entry)
	if err != nil {
		return nil, err
	}
	return vaultfile.Download(f.store, fileKey, header)
}

func TestShareReceiveRoundTrip(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	f.uploadAs(t, "alice", "doc", []byte("payload"))
	f.shareTo(t, "alice", "bob", "doc")

	got, err := f.downloadAs(t, "bob", "doc")
	if err != nil {
		t.Fatalf("download as bob: %v", err)
	}
	if !bytes.Equal(got, []byte("payload")) {
		t.Errorf("bob sees %q, want %q", got, "payload")
	}
}

func TestSelfShareRejected(t *testing.T) {
	f := newFixture(t, "alice")
	f.uploadAs(t, "alice", "doc", []byte("x"))

	entry := f.entryOf(t, "alice", "doc")
	err := ShareFile(f.store, f.dir, f.users["alice"], entry, "doc", "alice")
	if !vaulterrors.Is(err, vaulterrors.ErrBadArgument) {
		t.Errorf("self-share: got %v, want ErrBadArgument", err)
	}
}

func TestShareToUnknownUser(t *testing.T) {
	f := newFixture(t, "alice")
	f.uploadAs(t, "alice", "doc", []byte("x"))

	entry := f.entryOf(t, "alice", "doc")
	err := ShareFile(f.store, f.dir, f.users["alice"], entry, "doc", "nobody")
	if !vaulterrors.Is(err, vaulterrors.ErrUnknownUser) {
		t.Errorf("unknown recipient: got %v, want ErrUnknownUser", err)
	}
}

func TestInviteConsumedOnReceive(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	f.uploadAs(t, "alice", "doc", []byte("x"))
	f.shareTo(t, "alice", "bob", "doc")

	// A second receive finds no pending invite.
	_, err := ReceiveFile(f.store, f.dir, f.users["bob"], "doc", "alice")
	if !vaulterrors.Is(err, vaulterrors.ErrIntegrity) {
		t.Errorf("re-receive: got %v, want ErrIntegrity", err)
	}
}

func TestInviteWrongSenderRejected(t *testing.T) {
	f := newFixture(t, "alice", "bob", "carol")
	f.uploadAs(t, "alice", "doc", []byte("x"))

	entry := f.entryOf(t, "alice", "doc")
	if err := ShareFile(f.store, f.dir, f.users["alice"], entry, "doc", "bob"); err != nil {
		t.Fatalf("ShareFile: %v", err)
	}

	// bob claims the invite came from carol: the mailbox for
	// (carol, doc) is empty, and even a copied envelope would fail
	// carol's signature.
	_, err := ReceiveFile(f.store, f.dir, f.users["bob"], "doc", "carol")
	if !vaulterrors.Is(err, vaulterrors.ErrIntegrity) {
		t.Errorf("wrong sender: got %v, want ErrIntegrity", err)
	}
}

func TestRevokeDirectChild(t *testing.T) {
	f := newFixture(t, "alice", "bob", "carol")
	f.uploadAs(t, "alice", "doc", []byte("secret"))
	f.shareTo(t, "alice", "bob", "doc")
	f.shareTo(t, "alice", "carol", "doc")

	entry := f.entryOf(t, "alice", "doc")
	if err := RevokeFile(f.store, entry, "alice", "doc", "bob"); err != nil {
		t.Fatalf("RevokeFile: %v", err)
	}

	if _, err := f.downloadAs(t, "bob", "doc"); err == nil {
		t.Error("bob can still read after revocation")
	}
	got, err := f.downloadAs(t, "carol", "doc")
	if err != nil {
		t.Fatalf("carol lost access: %v", err)
	}
	if !bytes.Equal(got, []byte("secret")) {
		t.Errorf("carol sees %q, want %q", got, "secret")
	}
	if got, err := f.downloadAs(t, "alice", "doc"); err != nil || !bytes.Equal(got, []byte("secret")) {
		t.Errorf("owner sees (%q, %v), want (%q, nil)", got, err, "secret")
	}
}

func TestRevokeCascadesToGrandchildren(t *testing.T) {
	f := newFixture(t, "alice", "bob", "carol", "dave")
	f.uploadAs(t, "alice", "doc", []byte("secret"))
	f.shareTo(t, "alice", "bob", "doc")
	f.shareTo(t, "bob", "carol", "doc")
	f.shareTo(t, "alice", "dave", "doc")

	entry := f.entryOf(t, "alice", "doc")
	if err := RevokeFile(f.store, entry, "alice", "doc", "bob"); err != nil {
		t.Fatalf("RevokeFile: %v", err)
	}

	if _, err := f.downloadAs(t, "bob", "doc"); err == nil {
		t.Error("bob can still read after revocation")
	}
	if _, err := f.downloadAs(t, "carol", "doc"); err == nil {
		t.Error("carol (grandchild through bob) can still read after revocation")
	}
	if _, err := f.downloadAs(t, "dave", "doc"); err != nil {
		t.Errorf("dave (sibling branch) lost access: %v", err)
	}
}

func TestRevokeSurvivingGrandchildKeepsAccess(t *testing.T) {
	f := newFixture(t, "alice", "bob", "carol", "dave")
	f.uploadAs(t, "alice", "doc", []byte("secret"))
	f.shareTo(t, "alice", "bob", "doc")
	f.shareTo(t, "alice", "carol", "doc")
	f.shareTo(t, "carol", "dave", "doc")

	entry := f.entryOf(t, "alice", "doc")
	if err := RevokeFile(f.store, entry, "alice", "doc", "bob"); err != nil {
		t.Fatalf("RevokeFile: %v", err)
	}

	// dave hangs off the surviving branch: the in-place subtree rewrite
	// must reach them.
	if _, err := f.downloadAs(t, "dave", "doc"); err != nil {
		t.Errorf("dave (grandchild of surviving carol) lost access: %v", err)
	}
}

func TestRevokeNonOwner(t *testing.T) {
	f := newFixture(t, "alice", "bob", "carol")
	f.uploadAs(t, "alice", "doc", []byte("x"))
	f.shareTo(t, "alice", "bob", "doc")
	f.shareTo(t, "bob", "carol", "doc")

	entry := f.entryOf(t, "bob", "doc")
	err := RevokeFile(f.store, entry, "bob", "doc", "carol")
	if !vaulterrors.Is(err, vaulterrors.ErrNotOwner) {
		t.Errorf("non-owner revoke: got %v, want ErrNotOwner", err)
	}
}

func TestRevokeNonDirectDescendant(t *testing.T) {
	f := newFixture(t, "alice", "bob", "carol")
	f.uploadAs(t, "alice", "doc", []byte("x"))
	f.shareTo(t, "alice", "bob", "doc")
	f.shareTo(t, "bob", "carol", "doc")

	entry := f.entryOf(t, "alice", "doc")
	err := RevokeFile(f.store, entry, "alice", "doc", "carol")
	if !vaulterrors.Is(err, vaulterrors.ErrNotSharedWith) {
		t.Errorf("non-direct revoke: got %v, want ErrNotSharedWith", err)
	}
}

func TestNamespacePersistence(t *testing.T) {
	f := newFixture(t, "alice")
	f.uploadAs(t, "alice", "one", []byte("1"))
	f.uploadAs(t, "alice", "two", []byte("2"))

	ns, err := LoadNamespace(f.store, f.users["alice"].MasterKey)
	if err != nil {
		t.Fatalf("LoadNamespace: %v", err)
	}
	if len(ns.Files) != 2 {
		t.Errorf("namespace has %d entries, want 2", len(ns.Files))
	}
}
