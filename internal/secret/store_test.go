package secret_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberwallet/ember/internal/secret"
	emberr "github.com/emberwallet/ember/pkg/errors"
)

// testMnemonic is a valid 12-word phrase used across tests.
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	store := secret.NewFileStore(t.TempDir())

	require.False(t, store.Exists())

	err := store.Save(testMnemonic, "mainnet", []byte("correct horse"))
	require.NoError(t, err)
	require.True(t, store.Exists())

	loaded, err := store.Load([]byte("correct horse"))
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, loaded)
}

func TestSaveRefusesOverwrite(t *testing.T) {
	t.Parallel()
	store := secret.NewFileStore(t.TempDir())

	require.NoError(t, store.Save(testMnemonic, "mainnet", []byte("pw")))

	err := store.Save(testMnemonic, "mainnet", []byte("pw"))
	require.Error(t, err)
	assert.True(t, emberr.Is(err, emberr.ErrWalletExists))
}

func TestLoadWrongPassword(t *testing.T) {
	t.Parallel()
	store := secret.NewFileStore(t.TempDir())

	require.NoError(t, store.Save(testMnemonic, "mainnet", []byte("right")))

	_, err := store.Load([]byte("wrong"))
	require.Error(t, err)
	assert.True(t, emberr.Is(err, emberr.ErrDecryptionFailed))
}

func TestLoadMissingWallet(t *testing.T) {
	t.Parallel()
	store := secret.NewFileStore(t.TempDir())

	_, err := store.Load([]byte("pw"))
	require.Error(t, err)
	assert.True(t, emberr.Is(err, emberr.ErrWalletNotFound))
}

func TestMetadataWithoutPassword(t *testing.T) {
	t.Parallel()
	store := secret.NewFileStore(t.TempDir())

	require.NoError(t, store.Save(testMnemonic, "testnet", []byte("pw")))

	meta, err := store.Metadata()
	require.NoError(t, err)
	assert.Equal(t, 1, meta.Version)
	assert.Equal(t, "testnet", meta.Network)
	assert.Len(t, meta.Fingerprint, 8) // 4 bytes hex encoded
	assert.False(t, meta.CreatedAt.IsZero())
}

func TestFingerprintDeterministic(t *testing.T) {
	t.Parallel()

	storeA := secret.NewFileStore(t.TempDir())
	storeB := secret.NewFileStore(t.TempDir())

	require.NoError(t, storeA.Save(testMnemonic, "mainnet", []byte("a")))
	require.NoError(t, storeB.Save(testMnemonic, "mainnet", []byte("b")))

	metaA, err := storeA.Metadata()
	require.NoError(t, err)
	metaB, err := storeB.Metadata()
	require.NoError(t, err)

	// Same phrase, same fingerprint, regardless of password.
	assert.Equal(t, metaA.Fingerprint, metaB.Fingerprint)
}

func TestClearIsIdempotent(t *testing.T) {
	t.Parallel()
	store := secret.NewFileStore(t.TempDir())

	// Clearing an empty store is fine.
	require.NoError(t, store.Clear())

	require.NoError(t, store.Save(testMnemonic, "mainnet", []byte("pw")))
	require.NoError(t, store.Clear())
	assert.False(t, store.Exists())

	// And again after it is gone.
	require.NoError(t, store.Clear())
}
