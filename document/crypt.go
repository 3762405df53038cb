package document

import (
	"crypto/md5"
	"crypto/rc4"
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/pdfwala/pdfops"
)

// passwordPad completes passwords to 32 bytes (ISO 32000-1, 7.6.3.3).
var passwordPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

// securityHandler is the RC4 standard security handler of an encrypted
// document.
type securityHandler struct {
	objNum   int // the /Encrypt dictionary, stored in clear
	version  int // /V
	revision int // /R
	keyLen   int // bytes
	owner    []byte
	user     []byte
	perms    int32
	fileID   []byte
	key      []byte // set once a password is accepted
}

// loadSecurityHandler reads the /Encrypt entry of the trailer.
func (l *loader) loadSecurityHandler() (*securityHandler, error) {
	h := &securityHandler{version: 1, revision: 2, keyLen: 5}

	var dict Dict
	switch v := l.trailer["Encrypt"].(type) {
	case Dict:
		dict = v
	case Reference:
		h.objNum = v.Number
		obj, err := l.loadObject(v.Number)
		if err != nil {
			return nil, fmt.Errorf("resolving /Encrypt: %w", err)
		}
		dict, _ = obj.(Dict)
	}
	if dict == nil {
		return nil, fmt.Errorf("/Encrypt is not a dictionary")
	}
	if filter := dict.GetName("Filter"); filter != "Standard" {
		return nil, fmt.Errorf("unsupported security handler %q", filter)
	}

	for key, dst := range map[Name]*int{"V": &h.version, "R": &h.revision} {
		if v, ok := dict.GetInt(key); ok {
			*dst = int(v)
		}
	}
	if bits, ok := dict.GetInt("Length"); ok {
		h.keyLen = int(bits) / 8
	}
	if h.keyLen < 5 || h.keyLen > 16 {
		return nil, fmt.Errorf("invalid key length %d", h.keyLen*8)
	}
	if p, ok := dict.GetInt("P"); ok {
		h.perms = int32(p)
	}
	h.owner = dict.GetString("O")
	h.user = dict.GetString("U")
	if id := l.trailer.GetArray("ID"); len(id) > 0 {
		if s, ok := id[0].(String); ok {
			h.fileID = s.Value
		}
	}
	return h, nil
}

func encryptedError(format string, args ...any) error {
	return pdfops.NewError("Parse", pdfops.ErrCorruptDocument,
		fmt.Errorf("%w: %s", pdfops.ErrEncrypted, fmt.Sprintf(format, args...)))
}

// authenticate accepts password as either the user or the owner password
// and installs the file key on the loader.
func (l *loader) authenticate(password string) error {
	h, err := l.loadSecurityHandler()
	if err != nil {
		return encryptedError("%v", err)
	}
	if h.version > 2 {
		return encryptedError("unsupported encryption version V=%d", h.version)
	}

	for _, candidate := range [][]byte{[]byte(password), h.ownerToUser([]byte(password))} {
		if key := h.fileKey(candidate); h.acceptsKey(key) {
			h.key = key
			l.encrypt = h
			return nil
		}
	}
	return encryptedError("password required")
}

// fileKey derives the file encryption key from a user password.
func (h *securityHandler) fileKey(password []byte) []byte {
	var perms [4]byte
	binary.LittleEndian.PutUint32(perms[:], uint32(h.perms))

	sum := md5.New()
	for _, part := range [][]byte{pad(password), h.owner, perms[:], h.fileID} {
		sum.Write(part)
	}
	digest := sum.Sum(nil)

	if h.revision >= 3 {
		for range 50 {
			next := md5.Sum(digest[:h.keyLen])
			digest = next[:]
		}
	}
	return digest[:h.keyLen]
}

// acceptsKey compares the /U entry with the value key produces.
func (h *securityHandler) acceptsKey(key []byte) bool {
	if h.revision == 2 {
		if len(h.user) < 32 {
			return false
		}
		expected := rc4XOR(key, passwordPad)
		return subtle.ConstantTimeCompare(expected, h.user[:32]) == 1
	}

	if len(h.user) < 16 {
		return false
	}
	digest := md5.Sum(append(append([]byte{}, passwordPad...), h.fileID...))
	expected := digest[:]
	for i := 0; i <= 19; i++ {
		expected = rc4XOR(xorKey(key, byte(i)), expected)
	}
	return subtle.ConstantTimeCompare(expected, h.user[:16]) == 1
}

// ownerToUser decrypts the user password stored under the owner password.
func (h *securityHandler) ownerToUser(ownerPass []byte) []byte {
	digest := md5.Sum(pad(ownerPass))
	if h.revision >= 3 {
		for range 50 {
			digest = md5.Sum(digest[:])
		}
	}
	key := digest[:h.keyLen]

	if h.revision == 2 {
		return rc4XOR(key, h.owner)
	}
	user := h.owner
	for i := 19; i >= 0; i-- {
		user = rc4XOR(xorKey(key, byte(i)), user)
	}
	return user
}

// objectDecrypter returns a function decrypting one string or stream of
// object num in place. Every call starts a fresh key stream.
func (h *securityHandler) objectDecrypter(num, gen int) func([]byte) {
	salt := []byte{
		byte(num), byte(num >> 8), byte(num >> 16),
		byte(gen), byte(gen >> 8),
	}
	digest := md5.Sum(append(append([]byte{}, h.key...), salt...))
	objKey := digest[:min(len(h.key)+5, 16)]

	return func(data []byte) {
		if c, err := rc4.NewCipher(objKey); err == nil {
			c.XORKeyStream(data, data)
		}
	}
}

// rc4XOR returns data encrypted with key. data is not modified.
func rc4XOR(key, data []byte) []byte {
	out := make([]byte, len(data))
	if c, err := rc4.NewCipher(key); err == nil {
		c.XORKeyStream(out, data)
	}
	return out
}

func pad(password []byte) []byte {
	padded := make([]byte, 32)
	n := copy(padded, password)
	copy(padded[n:], passwordPad)
	return padded
}

func xorKey(key []byte, b byte) []byte {
	out := make([]byte, len(key))
	for i := range key {
		out[i] = key[i] ^ b
	}
	return out
}
