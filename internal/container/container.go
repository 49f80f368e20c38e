// Package container implements the authenticated encryption format that
// protects a database at rest.
//
// The layout is the scrypt(1) container format: a 96-byte header carrying
// the KDF parameters, salt, a header checksum, and a header MAC, followed
// by the AES-256-CTR ciphertext of the padded plaintext and a trailing
// HMAC-SHA256 tag over everything before it. A 64-byte scrypt-derived key
// is split into a cipher key (first half) and a MAC key (second half).
//
// Before encryption the plaintext is padded to the next 4KB boundary so
// that small edits do not leak database growth to an observer of the
// encrypted files.
package container

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/mesh-intelligence/passmate/pkg/types"
)

const (
	magic     = "scrypt"
	formatVer = 0

	saltLen   = 32
	keyLen    = 64
	headerLen = 96
	tagLen    = sha256.Size

	// paddingIncrement is the plaintext size granularity. Padding is one
	// 0x80 byte followed by zeros, so it strips unambiguously.
	paddingIncrement = 4096
)

// Encrypt seals plaintext under a passphrase-derived key using the given
// cost parameters and returns the full container bytes.
func Encrypt(plaintext []byte, passphrase string, params Params) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "generate salt")
	}
	key, err := params.key(passphrase, salt)
	if err != nil {
		return nil, err
	}

	padded := pad(plaintext)
	out := make([]byte, 0, headerLen+len(padded)+tagLen)
	out = append(out, encodeHeader(params, salt, key)...)

	block, err := aes.NewCipher(key[:32])
	if err != nil {
		return nil, errors.Wrap(err, "init cipher")
	}
	ciphertext := make([]byte, len(padded))
	// The zero IV is safe: the key is unique per container because the salt
	// is fresh on every Encrypt.
	cipher.NewCTR(block, make([]byte, aes.BlockSize)).XORKeyStream(ciphertext, padded)
	out = append(out, ciphertext...)

	mac := hmac.New(sha256.New, key[32:])
	mac.Write(out)
	return mac.Sum(out), nil
}

// Decrypt opens a container with the passphrase and returns the original
// plaintext. The integrity tags are verified before any plaintext is
// produced; a failed header MAC yields ErrWrongPassphrase and a failed body
// tag yields ErrAuthenticationFailed.
func Decrypt(data []byte, passphrase string) ([]byte, error) {
	if len(data) < headerLen+tagLen {
		return nil, errors.Wrap(types.ErrBadContainer, "file too short")
	}
	params, salt, err := decodeHeader(data[:headerLen])
	if err != nil {
		return nil, err
	}
	key, err := params.key(passphrase, salt)
	if err != nil {
		return nil, err
	}

	headerMAC := hmac.New(sha256.New, key[32:])
	headerMAC.Write(data[:64])
	if !hmac.Equal(headerMAC.Sum(nil), data[64:headerLen]) {
		return nil, types.ErrWrongPassphrase
	}

	bodyEnd := len(data) - tagLen
	tag := hmac.New(sha256.New, key[32:])
	tag.Write(data[:bodyEnd])
	if !hmac.Equal(tag.Sum(nil), data[bodyEnd:]) {
		return nil, types.ErrAuthenticationFailed
	}

	block, err := aes.NewCipher(key[:32])
	if err != nil {
		return nil, errors.Wrap(err, "init cipher")
	}
	padded := make([]byte, bodyEnd-headerLen)
	cipher.NewCTR(block, make([]byte, aes.BlockSize)).XORKeyStream(padded, data[headerLen:bodyEnd])

	plaintext, err := unpad(padded)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// encodeHeader lays out the 96-byte header:
//
//	[0:6]   magic "scrypt"
//	[6]     format version
//	[7]     log2(N)
//	[8:12]  r, big endian
//	[12:16] p, big endian
//	[16:48] salt
//	[48:64] SHA-256 checksum of bytes [0:48], truncated
//	[64:96] HMAC-SHA256 of bytes [0:64] under the MAC key
func encodeHeader(params Params, salt, key []byte) []byte {
	h := make([]byte, headerLen)
	copy(h[0:6], magic)
	h[6] = formatVer
	h[7] = params.LogN
	binary.BigEndian.PutUint32(h[8:12], params.R)
	binary.BigEndian.PutUint32(h[12:16], params.P)
	copy(h[16:48], salt)

	sum := sha256.Sum256(h[:48])
	copy(h[48:64], sum[:16])

	mac := hmac.New(sha256.New, key[32:])
	mac.Write(h[:64])
	copy(h[64:96], mac.Sum(nil))
	return h
}

func decodeHeader(h []byte) (Params, []byte, error) {
	if string(h[0:6]) != magic {
		return Params{}, nil, errors.Wrap(types.ErrBadContainer, "bad magic")
	}
	if h[6] != formatVer {
		return Params{}, nil, errors.Wrapf(types.ErrBadContainer,
			"unsupported container version %d", h[6])
	}
	sum := sha256.Sum256(h[:48])
	if !bytes.Equal(sum[:16], h[48:64]) {
		return Params{}, nil, errors.Wrap(types.ErrBadContainer, "header checksum mismatch")
	}
	params := Params{
		LogN: h[7],
		R:    binary.BigEndian.Uint32(h[8:12]),
		P:    binary.BigEndian.Uint32(h[12:16]),
	}
	if err := params.Validate(); err != nil {
		return Params{}, nil, errors.Wrap(types.ErrBadContainer, err.Error())
	}
	return params, h[16:48], nil
}

// pad appends a 0x80 marker and zeros up to the next padding increment.
// At least one byte is always added, so a plaintext that is already a
// multiple of the increment grows by a full block.
func pad(plaintext []byte) []byte {
	total := ((len(plaintext) / paddingIncrement) + 1) * paddingIncrement
	padded := make([]byte, total)
	copy(padded, plaintext)
	padded[len(plaintext)] = 0x80
	return padded
}

func unpad(padded []byte) ([]byte, error) {
	if len(padded) == 0 || len(padded)%paddingIncrement != 0 {
		return nil, errors.Wrap(types.ErrAuthenticationFailed, "bad padded length")
	}
	i := len(padded) - 1
	for i >= 0 && padded[i] == 0 {
		i--
	}
	if i < 0 || padded[i] != 0x80 || len(padded)-i > paddingIncrement {
		return nil, errors.Wrap(types.ErrAuthenticationFailed, "invalid padding")
	}
	return padded[:i], nil
}
