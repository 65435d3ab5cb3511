// Package vaultfile implements the chunked, authenticated file objects
// vaultbox stores on the dataserver: a file header plus an append-only
// chain of data chunks, all encrypted and authenticated under a per-file
// symmetric key (the file key).
//
// Chunks form a singly-linked chain walked backwards from the tail, so an
// append writes one new chunk and rewrites the constant-size header,
// never an existing chunk. Append cost is proportional to the appended
// bytes, not the file.
package vaultfile

import (
	"github.com/brown-csci1660/vaultbox/internal/codec"
	"github.com/brown-csci1660/vaultbox/internal/dataserver"
	"github.com/brown-csci1660/vaultbox/internal/memloc"
	"github.com/brown-csci1660/vaultbox/internal/primitives"
	"github.com/brown-csci1660/vaultbox/internal/vaulterrors"
)

// FileKeySize is the size, in bytes, of a file key.
const FileKeySize = 16

// Key-derivation purpose labels. Chunk handles are randomly chosen, not
// derived, so there is no separate chunk-location key: the single
// file-mac key authenticates every chunk belonging to this file key.
const (
	purposeFileEnc   = "file-enc"
	purposeFileMac   = "file-mac"
	purposeHeaderEnc = "header-enc"
	purposeHeaderMac = "header-mac"
)

// Header is the file header record: the head and tail of the chunk chain,
// the chunk count, and the owner's username.
type Header struct {
	HeadChunk memloc.Handle `json:"head_chunk"`
	TailChunk memloc.Handle `json:"tail_chunk"`
	Count     int           `json:"count"`
	Owner     string        `json:"owner"`
}

// chunk is a single append's authenticated-envelope plaintext: the bytes
// appended, plus the handle of the chunk written immediately before it
// (zero if this is the first chunk).
type chunk struct {
	Data []byte       `json:"data"`
	Prev memloc.Handle `json:"prev"`
}

// NewFileKey returns a fresh random file key.
func NewFileKey() []byte {
	return primitives.SecureRandom(FileKeySize)
}

func subKeys(fileKey []byte) (fileEnc, fileMac, headerEnc, headerMac []byte, err error) {
	fileEnc, err = primitives.HashKDF(fileKey, purposeFileEnc)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	fileMac, err = primitives.HashKDF(fileKey, purposeFileMac)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	headerEnc, err = primitives.HashKDF(fileKey, purposeHeaderEnc)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	headerMac, err = primitives.HashKDF(fileKey, purposeHeaderMac)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return fileEnc, fileMac, headerEnc, headerMac, nil
}

// ReadHeader fetches and authenticates the header at headerHandle under
// fileKey.
func ReadHeader(store dataserver.Store, fileKey []byte, headerHandle memloc.Handle) (*Header, error) {
	_, _, headerEnc, headerMac, err := subKeys(fileKey)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("deriving header keys: %v", err)
	}

	plaintext, err := dataserver.GetAuthenticated(store, headerHandle, headerEnc, headerMac)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("reading file header: %v", err)
	}

	var header Header
	if err := codec.Unmarshal(plaintext, &header); err != nil {
		return nil, vaulterrors.NewIntegrityError("malformed file header: %v", err)
	}
	return &header, nil
}

func putHeader(store dataserver.Store, fileKey []byte, headerHandle memloc.Handle, header *Header) error {
	_, _, headerEnc, headerMac, err := subKeys(fileKey)
	if err != nil {
		return vaulterrors.NewIntegrityError("deriving header keys: %v", err)
	}
	plaintext, err := codec.Marshal(header)
	if err != nil {
		return vaulterrors.NewIntegrityError("marshaling file header: %v", err)
	}
	if err := dataserver.PutAuthenticated(store, headerHandle, headerEnc, headerMac, plaintext); err != nil {
		return vaulterrors.NewIntegrityError("writing file header: %v", err)
	}
	return nil
}

func putChunk(store dataserver.Store, fileKey []byte, handle memloc.Handle, c *chunk) error {
	fileEnc, fileMac, _, _, err := subKeys(fileKey)
	if err != nil {
		return vaulterrors.NewIntegrityError("deriving chunk keys: %v", err)
	}
	plaintext, err := codec.Marshal(c)
	if err != nil {
		return vaulterrors.NewIntegrityError("marshaling chunk: %v", err)
	}
	if err := dataserver.PutAuthenticated(store, handle, fileEnc, fileMac, plaintext); err != nil {
		return vaulterrors.NewIntegrityError("writing chunk: %v", err)
	}
	return nil
}

func getChunk(store dataserver.Store, fileKey []byte, handle memloc.Handle) (*chunk, error) {
	fileEnc, fileMac, _, _, err := subKeys(fileKey)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("deriving chunk keys: %v", err)
	}
	plaintext, err := dataserver.GetAuthenticated(store, handle, fileEnc, fileMac)
	if err != nil {
		return nil, vaulterrors.NewIntegrityError("reading chunk: %v", err)
	}
	var c chunk
	if err := codec.Unmarshal(plaintext, &c); err != nil {
		return nil, vaulterrors.NewIntegrityError("malformed chunk: %v", err)
	}
	return &c, nil
}

// writeChain writes chunks (one dataserver record per element, in order)
// under fileKey, chaining each one's Prev handle back to its predecessor,
// and writes the resulting header at targetHeaderHandle with owner as the
// recorded owner. Used by CreateFile, Overwrite, and Rekey, which differ
// only in which handle the header lands at and whether the chunk data
// comes from a caller's upload or from decrypting an existing file.
func writeChain(store dataserver.Store, fileKey []byte, targetHeaderHandle memloc.Handle, owner string, chunks [][]byte) error {
	var head, prev memloc.Handle
	hasPrev := false

	for i, data := range chunks {
		handle := memloc.Make()
		c := &chunk{Data: data}
		if hasPrev {
			c.Prev = prev
		}
		if err := putChunk(store, fileKey, handle, c); err != nil {
			return err
		}
		if i == 0 {
			head = handle
		}
		prev = handle
		hasPrev = true
	}

	header := &Header{HeadChunk: head, TailChunk: prev, Count: len(chunks), Owner: owner}
	return putHeader(store, fileKey, targetHeaderHandle, header)
}

// CreateFile writes a brand-new file (one chunk containing data) under
// fileKey at a freshly allocated header handle, and returns that handle.
func CreateFile(store dataserver.Store, fileKey []byte, owner string, data []byte) (memloc.Handle, error) {
	headerHandle := memloc.Make()
	if err := writeChain(store, fileKey, headerHandle, owner, [][]byte{data}); err != nil {
		return memloc.Handle{}, err
	}
	return headerHandle, nil
}

// Overwrite replaces the contents of the file at headerHandle with a
// single chunk containing data, keeping both fileKey and headerHandle
// unchanged so that existing sharing capabilities remain valid.
func Overwrite(store dataserver.Store, fileKey []byte, headerHandle memloc.Handle, owner string, data []byte) error {
	return writeChain(store, fileKey, headerHandle, owner, [][]byte{data})
}

// Append adds data as a new chunk at the end of the file at headerHandle,
// then rewrites the header in place. The header write is the commit
// point: a crash between the chunk write and the header write leaves an
// orphan chunk but never corrupts a reader, since readers only ever
// traverse from the header.
func Append(store dataserver.Store, fileKey []byte, headerHandle memloc.Handle, data []byte) error {
	header, err := ReadHeader(store, fileKey, headerHandle)
	if err != nil {
		return err
	}

	newHandle := memloc.Make()
	c := &chunk{Data: data, Prev: header.TailChunk}
	if err := putChunk(store, fileKey, newHandle, c); err != nil {
		return err
	}

	header.TailChunk = newHandle
	header.Count++
	return putHeader(store, fileKey, headerHandle, header)
}

// Download reads the header at headerHandle and walks the chunk chain
// backward from the tail, then returns the chunks' data concatenated in
// original append order.
func Download(store dataserver.Store, fileKey []byte, headerHandle memloc.Handle) ([]byte, error) {
	header, err := ReadHeader(store, fileKey, headerHandle)
	if err != nil {
		return nil, err
	}

	chunksReversed := make([][]byte, 0, header.Count)
	handle := header.TailChunk
	hasMore := header.Count > 0

	for hasMore {
		c, err := getChunk(store, fileKey, handle)
		if err != nil {
			return nil, err
		}
		chunksReversed = append(chunksReversed, c.Data)

		if handle == header.HeadChunk {
			break
		}
		handle = c.Prev
	}

	var out []byte
	for i := len(chunksReversed) - 1; i >= 0; i-- {
		out = append(out, chunksReversed[i]...)
	}
	return out, nil
}

// ReadAllChunks returns every chunk's plaintext data and the handle it was
// stored at, in append order, by walking the chain exactly as Download
// does. Used by the sharing layer to re-key a file during revocation.
func ReadAllChunks(store dataserver.Store, fileKey []byte, header *Header) (data [][]byte, handles []memloc.Handle, err error) {
	dataReversed := make([][]byte, 0, header.Count)
	handlesReversed := make([]memloc.Handle, 0, header.Count)
	handle := header.TailChunk
	hasMore := header.Count > 0

	for hasMore {
		c, err := getChunk(store, fileKey, handle)
		if err != nil {
			return nil, nil, err
		}
		dataReversed = append(dataReversed, c.Data)
		handlesReversed = append(handlesReversed, handle)

		if handle == header.HeadChunk {
			break
		}
		handle = c.Prev
	}

	data = make([][]byte, len(dataReversed))
	handles = make([]memloc.Handle, len(handlesReversed))
	for i, d := range dataReversed {
		data[len(dataReversed)-1-i] = d
		handles[len(handlesReversed)-1-i] = handlesReversed[i]
	}
	return data, handles, nil
}

// Rekey decrypts every chunk of the file at oldHeaderHandle under
// oldFileKey and re-encrypts them under newFileKey at fresh chunk
// handles, writing the new header at a fresh handle, then garbles the old
// header and chunk records. Returns the new header handle. Used by
// revocation.
func Rekey(store dataserver.Store, oldFileKey []byte, oldHeaderHandle memloc.Handle, newFileKey []byte, owner string) (memloc.Handle, error) {
	header, err := ReadHeader(store, oldFileKey, oldHeaderHandle)
	if err != nil {
		return memloc.Handle{}, err
	}
	chunks, oldHandles, err := ReadAllChunks(store, oldFileKey, header)
	if err != nil {
		return memloc.Handle{}, err
	}

	newHeaderHandle := memloc.Make()
	if err := writeChain(store, newFileKey, newHeaderHandle, owner, chunks); err != nil {
		return memloc.Handle{}, err
	}

	dataserver.Garble(store, oldHeaderHandle)
	for _, h := range oldHandles {
		dataserver.Garble(store, h)
	}

	return newHeaderHandle, nil
}
