package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrUnknownKeyVersion = errors.New("key version not found")
	ErrMalformedSealed   = errors.New("malformed sealed value")
)

func SHA256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Box encrypts small field values (DNI, TOTP secrets) with AES-256-GCM.
// Sealed values are "<version>:<base64(nonce||ciphertext)>" so keys can be rotated.
type Box struct {
	keys    map[string][]byte
	current string
}

func NewBox(keysEnv, currentVersion string) (*Box, error) {
	keys, err := ParseKeysEnv(keysEnv)
	if err != nil {
		return nil, err
	}
	if _, ok := keys[currentVersion]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKeyVersion, currentVersion)
	}
	return &Box{keys: keys, current: currentVersion}, nil
}

func (b *Box) gcm(version string) (cipher.AEAD, error) {
	key, ok := b.keys[version]
	if !ok {
		return nil, ErrUnknownKeyVersion
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (b *Box) Seal(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	g, err := b.gcm(b.current)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, g.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	out := g.Seal(nonce, nonce, []byte(plain), nil)
	return b.current + ":" + base64.StdEncoding.EncodeToString(out), nil
}

func (b *Box) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	idx := strings.Index(sealed, ":")
	if idx <= 0 {
		return "", ErrMalformedSealed
	}
	g, err := b.gcm(sealed[:idx])
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(sealed[idx+1:])
	if err != nil || len(raw) < g.NonceSize() {
		return "", ErrMalformedSealed
	}
	plain, err := g.Open(nil, raw[:g.NonceSize()], raw[g.NonceSize():], nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// ParseKeysEnv parses "v1:base64key,v2:base64key". Every key must decode to 32 bytes.
func ParseKeysEnv(env string) (map[string][]byte, error) {
	out := make(map[string][]byte)
	if env == "" {
		return out, nil
	}
	for _, part := range strings.Split(env, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.Index(part, ":")
		if idx <= 0 {
			continue
		}
		ver := strings.TrimSpace(part[:idx])
		b64 := strings.TrimRight(strings.TrimSpace(part[idx+1:]), "=")
		key, err := base64.RawStdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", ver, err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("key %s must be 32 bytes, got %d", ver, len(key))
		}
		out[ver] = key
	}
	return out, nil
}
