// Package secret persists the wallet's recovery phrase as a single
// age-encrypted file under the ember home directory. One wallet per home;
// the file name is fixed.
package secret

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"

	"github.com/emberwallet/ember/internal/fileutil"
	emberr "github.com/emberwallet/ember/pkg/errors"
)

const (
	// secretFileName is the fixed name of the encrypted secret file.
	secretFileName = "wallet.secret"

	// secretFileVersion is the current on-disk format version.
	secretFileVersion = 1

	// secretFilePermissions is the permission mode for the secret file.
	secretFilePermissions = 0o600
)

// Metadata describes the stored wallet without exposing the phrase.
type Metadata struct {
	Version     int       `json:"version"`
	Network     string    `json:"network"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
}

// secretFile is the on-disk structure. The phrase only ever appears in the
// encrypted blob.
type secretFile struct {
	Metadata
	EncryptedMnemonic []byte `json:"encrypted_mnemonic"`
}

// Store defines the interface for recovery phrase persistence.
type Store interface {
	// Save encrypts and writes the phrase. Fails if a wallet already
	// exists. The password should be zeroed by the caller afterwards.
	Save(mnemonic, network string, password []byte) error

	// Load reads and decrypts the stored phrase.
	Load(password []byte) (string, error)

	// Exists reports whether a wallet secret is stored.
	Exists() bool

	// Metadata reads wallet metadata without decrypting the phrase.
	Metadata() (*Metadata, error)

	// Clear removes the secret file. Clearing an empty store is a no-op.
	Clear() error

	// Path returns the secret file path.
	Path() string
}

// FileStore implements Store on the filesystem.
type FileStore struct {
	dir string
}

// interface guard
var _ Store = (*FileStore)(nil)

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the secret file path.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, secretFileName)
}

// Save encrypts and writes the phrase.
func (s *FileStore) Save(mnemonic, network string, password []byte) error {
	if s.Exists() {
		return emberr.ErrWalletExists
	}

	fingerprint, err := fingerprint(mnemonic)
	if err != nil {
		return emberr.Wrap(emberr.ErrInvalidMnemonic, "deriving fingerprint")
	}

	encrypted, err := encrypt([]byte(mnemonic), string(password))
	if err != nil {
		return fmt.Errorf("encrypting phrase: %w", err)
	}

	sf := secretFile{
		Metadata: Metadata{
			Version:     secretFileVersion,
			Network:     network,
			Fingerprint: fingerprint,
			CreatedAt:   time.Now().UTC(),
		},
		EncryptedMnemonic: encrypted,
	}

	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling secret file: %w", err)
	}

	if err := fileutil.EnsureDir(s.dir); err != nil {
		return fmt.Errorf("creating secret directory: %w", err)
	}

	return fileutil.WriteAtomic(s.Path(), data, secretFilePermissions)
}

// Load reads and decrypts the stored phrase.
func (s *FileStore) Load(password []byte) (string, error) {
	sf, err := s.read()
	if err != nil {
		return "", err
	}

	plaintext, err := decrypt(sf.EncryptedMnemonic, string(password))
	if err != nil {
		return "", emberr.ErrDecryptionFailed
	}

	mnemonic := string(plaintext)
	zeroBytes(plaintext)

	return mnemonic, nil
}

// Exists reports whether a wallet secret is stored.
func (s *FileStore) Exists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

// Metadata reads wallet metadata without decrypting the phrase.
func (s *FileStore) Metadata() (*Metadata, error) {
	sf, err := s.read()
	if err != nil {
		return nil, err
	}
	return &sf.Metadata, nil
}

// Clear removes the secret file. Clearing an empty store is a no-op so
// callers can clear unconditionally.
func (s *FileStore) Clear() error {
	err := os.Remove(s.Path())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing secret file: %w", err)
	}
	return nil
}

// read loads and parses the secret file.
func (s *FileStore) read() (*secretFile, error) {
	path := s.Path()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, emberr.ErrWalletNotFound
	}

	// #nosec G304 -- path is a fixed file name under the store directory
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading secret file: %w", err)
	}

	var sf secretFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing secret file: %w", err)
	}

	return &sf, nil
}

// fingerprint derives a short public identifier for the wallet from its
// phrase: the BIP32 master key fingerprint, hex encoded. Lets status output
// identify the wallet without touching key material again.
func fingerprint(mnemonic string) (string, error) {
	seed := bip39.NewSeed(mnemonic, "")
	defer zeroBytes(seed)

	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return "", fmt.Errorf("deriving master key: %w", err)
	}

	// A child's FingerPrint field carries the parent fingerprint.
	child, err := master.NewChildKey(0)
	if err != nil {
		return "", fmt.Errorf("deriving child key: %w", err)
	}

	return hex.EncodeToString(child.FingerPrint), nil
}

// zeroBytes overwrites a byte slice with zeros.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
