package signer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evstack/near-da/pkg/near"
)

const testAccount = "throwawaykey.testnet"

func TestProvisionSeed(t *testing.T) {
	s, err := Provision(SeedKey{AccountID: testAccount, Seed: "ed25519:test"})
	require.NoError(t, err)

	assert.Equal(t, testAccount, s.AccountID())
	assert.Equal(t, "ed25519:38FBJoAPGsefiNoTFoDr95zyGeMb6fx6MuQw9HaasxHH", s.PublicKey().String())

	again, err := Provision(SeedKey{AccountID: testAccount, Seed: "ed25519:test"})
	require.NoError(t, err)
	assert.Equal(t, s.PublicKey(), again.PublicKey())
}

func TestProvisionSecretKey(t *testing.T) {
	s, err := Provision(SecretKeyKey{
		AccountID: testAccount,
		SecretKey: "ed25519:38FBJoAPGsefiNoTFoDr95zyGeMb6fx6MuQw9HaasxHH38FBJoAPGsefiNoTFoDr95zyGeMb6fx6MuQw9HaasxHH",
	})
	require.NoError(t, err)

	assert.Equal(t, testAccount, s.AccountID())
	assert.Equal(t, "ed25519:6m6vtRuWa59EaqrY5txxtK6te2KdJy3zna74MWfEETG7", s.PublicKey().String())
}

func TestProvisionFile(t *testing.T) {
	dir := t.TempDir()
	seeded := NewInMemorySigner(testAccount, near.SecretKeyFromSeed("file seed"))

	path := filepath.Join(dir, "key.json")
	require.NoError(t, WriteKeyFile(path, seeded))

	s, err := Provision(FileKey{Path: path})
	require.NoError(t, err)
	assert.Equal(t, testAccount, s.AccountID())
	assert.Equal(t, seeded.PublicKey(), s.PublicKey())

	// private_key is accepted in place of secret_key
	aliasPath := filepath.Join(dir, "alias.json")
	alias := `{"account_id":"` + testAccount + `","private_key":"` + seeded.SecretKey().String() + `"}`
	require.NoError(t, os.WriteFile(aliasPath, []byte(alias), 0o600))

	s, err = Provision(FileKey{Path: aliasPath})
	require.NoError(t, err)
	assert.Equal(t, seeded.PublicKey(), s.PublicKey())
}

func TestProvisionErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}
	other := NewInMemorySigner(testAccount, near.SecretKeyFromSeed("other"))
	mine := NewInMemorySigner(testAccount, near.SecretKeyFromSeed("mine"))

	tests := []struct {
		name    string
		key     KeyType
		wantErr error
	}{
		{name: "missing file", key: FileKey{Path: filepath.Join(dir, "nope.json")}, wantErr: ErrKeyLoad},
		{name: "malformed file", key: FileKey{Path: write("bad.json", "{not json")}, wantErr: ErrKeyLoad},
		{name: "file without secret", key: FileKey{Path: write("nosecret.json", `{"account_id":"a.testnet"}`)}, wantErr: ErrKeyLoad},
		{
			name: "file with mismatched public key",
			key: FileKey{Path: write("mismatch.json",
				`{"account_id":"a.testnet","public_key":"`+other.PublicKey().String()+`","secret_key":"`+mine.SecretKey().String()+`"}`)},
			wantErr: ErrKeyLoad,
		},
		{name: "seed with bad account", key: SeedKey{AccountID: "Bad Account", Seed: "x"}, wantErr: ErrSeedDerivation},
		{name: "secret key with bad encoding", key: SecretKeyKey{AccountID: testAccount, SecretKey: "ed25519:0OIl"}, wantErr: ErrSecretKeyParse},
		{name: "secret key too short", key: SecretKeyKey{AccountID: testAccount, SecretKey: mine.PublicKey().String()}, wantErr: ErrSecretKeyParse},
		{name: "secret key with bad account", key: SecretKeyKey{AccountID: "", SecretKey: mine.SecretKey().String()}, wantErr: ErrSecretKeyParse},
		{name: "nil key", key: nil, wantErr: ErrUnknownKeyType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Provision(tt.key)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, s)
		})
	}
}

func TestInMemorySignerSign(t *testing.T) {
	s := NewInMemorySigner(testAccount, near.SecretKeyFromSeed("sign"))
	msg := []byte("message")

	sig, err := s.Sign(msg)
	require.NoError(t, err)
	assert.Equal(t, near.KeyTypeED25519, sig.KeyType)
	assert.True(t, s.PublicKey().Verify(msg, sig))
	assert.False(t, s.PublicKey().Verify([]byte("other"), sig))
}
