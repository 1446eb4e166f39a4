package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	sealedSaltLen = 16

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// FileStore persists the session as a JSON file. When a passphrase is set
// the payload is sealed with a scrypt-derived chacha20poly1305 key, so a
// copied session file is useless without the machine secret.
type FileStore struct {
	path       string
	passphrase string
}

type fileRecord struct {
	Token   string          `json:"token"`
	Account json.RawMessage `json:"account"`
}

type sealedRecord struct {
	Sealed string `json:"sealed"`
}

// NewFileStore stores the session at path. An empty passphrase keeps the
// file in plaintext.
func NewFileStore(path, passphrase string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("session: file store path is required")
	}
	return &FileStore{path: path, passphrase: passphrase}, nil
}

func (s *FileStore) Load(ctx context.Context) (string, []byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("session: read %s: %w", s.path, err)
	}

	if s.passphrase != "" {
		var sealed sealedRecord
		if err := json.Unmarshal(data, &sealed); err != nil || sealed.Sealed == "" {
			return "", nil, ErrCorrupt
		}
		data, err = openSealed(sealed.Sealed, s.passphrase)
		if err != nil {
			return "", nil, ErrCorrupt
		}
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", nil, ErrCorrupt
	}
	if rec.Token == "" || len(rec.Account) == 0 {
		return "", nil, nil
	}
	return rec.Token, rec.Account, nil
}

func (s *FileStore) Save(ctx context.Context, token string, account []byte) error {
	payload, err := json.Marshal(fileRecord{Token: token, Account: account})
	if err != nil {
		return fmt.Errorf("session: encode session: %w", err)
	}
	if s.passphrase != "" {
		sealed, err := seal(payload, s.passphrase)
		if err != nil {
			return err
		}
		payload, err = json.Marshal(sealedRecord{Sealed: sealed})
		if err != nil {
			return fmt.Errorf("session: encode sealed session: %w", err)
		}
	}
	return writeAtomic(s.path, payload)
}

func (s *FileStore) Clear(ctx context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: remove %s: %w", s.path, err)
	}
	return nil
}

// writeAtomic replaces path via a temp file so a crash mid-write never
// leaves a truncated session behind.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("session: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("session: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("session: write session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("session: chmod session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("session: close session: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("session: replace %s: %w", path, err)
	}
	return nil
}

func seal(plaintext []byte, passphrase string) (string, error) {
	salt := make([]byte, sealedSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("session: generate salt: %w", err)
	}
	aead, err := deriveAEAD(passphrase, salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("session: generate nonce: %w", err)
	}
	sealed := aead.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return base64.RawStdEncoding.EncodeToString(out), nil
}

func openSealed(encoded, passphrase string) ([]byte, error) {
	raw, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(raw) < sealedSaltLen+chacha20poly1305.NonceSize {
		return nil, errors.New("session: sealed payload too short")
	}
	salt := raw[:sealedSaltLen]
	nonce := raw[sealedSaltLen : sealedSaltLen+chacha20poly1305.NonceSize]
	ciphertext := raw[sealedSaltLen+chacha20poly1305.NonceSize:]

	aead, err := deriveAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ciphertext, nil)
}

func deriveAEAD(passphrase string, salt []byte) (aeadCipher, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("session: derive key: %w", err)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("session: init cipher: %w", err)
	}
	return aead, nil
}

type aeadCipher interface {
	NonceSize() int
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}
