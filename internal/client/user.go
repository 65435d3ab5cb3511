package client

import (
	"context"

	"github.com/brown-csci1660/vaultbox/internal/identity"
	"github.com/brown-csci1660/vaultbox/internal/logger"
	"github.com/brown-csci1660/vaultbox/internal/memloc"
	"github.com/brown-csci1660/vaultbox/internal/sharing"
	"github.com/brown-csci1660/vaultbox/internal/vaulterrors"
	"github.com/brown-csci1660/vaultbox/internal/vaultfile"
)

// User is an authenticated session handle. It carries the caller's
// secrets in memory for the session; every operation re-fetches and
// re-verifies records from the stores, so a User holds no connection and
// never goes stale.
type User struct {
	client *Client
	id     *identity.User
}

// Username returns the account name this handle authenticates as.
func (u *User) Username() string {
	return u.id.Username
}

func (u *User) logContext(op, filename string) *logger.LogContext {
	return logger.NewLogContext(u.id.Username, op).WithFilename(filename)
}

// UploadFile stores data under filename. A first
// upload creates the file and its owner share node; an upload over an
// already-owned filename overwrites the contents in place, keeping the
// file key and header handle so existing shares stay valid. An upload
// over a received (shared) filename is refused: only the owner may
// overwrite.
func (u *User) UploadFile(ctx context.Context, filename string, data []byte) error {
	return u.client.run(ctx, u.logContext("upload_file", filename), func(ctx context.Context) error {
		ns, err := sharing.LoadNamespace(u.client.store, u.id.MasterKey)
		if err != nil {
			return err
		}

		if entry, ok := ns.Files[filename]; ok {
			node, headerHandle, fileKey, err := sharing.ResolveEntry(u.client.store, entry)
			if err != nil {
				return err
			}
			if node.Role != sharing.RoleOwner {
				return vaulterrors.NewNotOwnerError(filename)
			}
			u.client.metrics.RecordBytes("upload_file", "in", len(data))
			return vaultfile.Overwrite(u.client.store, fileKey, headerHandle, u.id.Username, data)
		}

		fileKey := vaultfile.NewFileKey()
		headerHandle, err := vaultfile.CreateFile(u.client.store, fileKey, u.id.Username, data)
		if err != nil {
			return err
		}
		entry, err := sharing.NewOwnerNode(u.client.store, headerHandle, fileKey)
		if err != nil {
			return err
		}

		ns.Files[filename] = *entry
		u.client.metrics.RecordBytes("upload_file", "in", len(data))
		return sharing.SaveNamespace(u.client.store, u.id.MasterKey, ns)
	})
}

// DownloadFile returns the current contents of filename.
func (u *User) DownloadFile(ctx context.Context, filename string) ([]byte, error) {
	var data []byte
	err := u.client.run(ctx, u.logContext("download_file", filename), func(ctx context.Context) error {
		_, headerHandle, fileKey, err := u.resolve(filename)
		if err != nil {
			return err
		}
		data, err = vaultfile.Download(u.client.store, fileKey, headerHandle)
		if err != nil {
			return err
		}
		u.client.metrics.RecordBytes("download_file", "out", len(data))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// AppendFile adds data to the end of filename without rewriting existing
// chunks. Any still-authorized holder of the file may append.
func (u *User) AppendFile(ctx context.Context, filename string, data []byte) error {
	return u.client.run(ctx, u.logContext("append_file", filename), func(ctx context.Context) error {
		_, headerHandle, fileKey, err := u.resolve(filename)
		if err != nil {
			return err
		}
		u.client.metrics.RecordBytes("append_file", "in", len(data))
		return vaultfile.Append(u.client.store, fileKey, headerHandle, data)
	})
}

// ShareFile grants recipient access to filename. The grant is pending
// until the recipient calls ReceiveFile.
func (u *User) ShareFile(ctx context.Context, filename, recipient string) error {
	return u.client.run(ctx, u.logContext("share_file", filename), func(ctx context.Context) error {
		if err := validate.Var(recipient, "required"); err != nil {
			return vaulterrors.NewBadArgumentError("recipient must not be empty")
		}

		ns, err := sharing.LoadNamespace(u.client.store, u.id.MasterKey)
		if err != nil {
			return err
		}
		entry, ok := ns.Files[filename]
		if !ok {
			return vaulterrors.NewFileNotFoundError(filename)
		}
		return sharing.ShareFile(u.client.store, u.client.dir, u.id, entry, filename, recipient)
	})
}

// ReceiveFile accepts a pending share of filename from sender and
// installs it in the caller's namespace.
func (u *User) ReceiveFile(ctx context.Context, filename, sender string) error {
	return u.client.run(ctx, u.logContext("receive_file", filename), func(ctx context.Context) error {
		if err := validate.Var(sender, "required"); err != nil {
			return vaulterrors.NewBadArgumentError("sender must not be empty")
		}

		ns, err := sharing.LoadNamespace(u.client.store, u.id.MasterKey)
		if err != nil {
			return err
		}
		if _, ok := ns.Files[filename]; ok {
			return vaulterrors.NewNameTakenError(filename)
		}

		entry, err := sharing.ReceiveFile(u.client.store, u.client.dir, u.id, filename, sender)
		if err != nil {
			return err
		}

		ns.Files[filename] = *entry
		return sharing.SaveNamespace(u.client.store, u.id.MasterKey, ns)
	})
}

// RevokeFile withdraws oldRecipient's access to filename, along with
// everyone oldRecipient shared it onward to. Only the file's owner may
// revoke, and only a direct recipient can be named.
func (u *User) RevokeFile(ctx context.Context, filename, oldRecipient string) error {
	return u.client.run(ctx, u.logContext("revoke_file", filename), func(ctx context.Context) error {
		if err := validate.Var(oldRecipient, "required"); err != nil {
			return vaulterrors.NewBadArgumentError("recipient must not be empty")
		}

		ns, err := sharing.LoadNamespace(u.client.store, u.id.MasterKey)
		if err != nil {
			return err
		}
		entry, ok := ns.Files[filename]
		if !ok {
			return vaulterrors.NewFileNotFoundError(filename)
		}
		return sharing.RevokeFile(u.client.store, entry, u.id.Username, filename, oldRecipient)
	})
}

// resolve looks filename up in the caller's namespace and authenticates
// the share node behind it.
func (u *User) resolve(filename string) (*sharing.ShareNode, memloc.Handle, []byte, error) {
	ns, err := sharing.LoadNamespace(u.client.store, u.id.MasterKey)
	if err != nil {
		return nil, memloc.Handle{}, nil, err
	}
	entry, ok := ns.Files[filename]
	if !ok {
		return nil, memloc.Handle{}, nil, vaulterrors.NewFileNotFoundError(filename)
	}
	return sharing.ResolveEntry(u.client.store, entry)
}
