package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var cheapArgon2 = &Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{Algorithm: "md5"})
	require.Error(t, err)

	_, err = New(Options{Algorithm: AlgorithmBcrypt, BcryptCost: 100})
	require.Error(t, err)

	h, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, AlgorithmBcrypt, h.algorithm)
	assert.Equal(t, bcrypt.DefaultCost, h.bcryptCost)
}

func TestHasher_Bcrypt(t *testing.T) {
	h, err := New(Options{Algorithm: AlgorithmBcrypt, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	hash, err := h.Hash("pw1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))

	ok, err := h.Verify(hash, "pw1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(hash, "pw2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_Argon2id(t *testing.T) {
	h, err := New(Options{Algorithm: AlgorithmArgon2id, Argon2: cheapArgon2})
	require.NoError(t, err)

	hash, err := h.Hash("pw1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	again, err := h.Hash("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salt must differ")

	ok, err := h.Verify(hash, "pw1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_VerifiesAcrossAlgorithms(t *testing.T) {
	bc, err := New(Options{Algorithm: AlgorithmBcrypt, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	ar, err := New(Options{Algorithm: AlgorithmArgon2id, Argon2: cheapArgon2})
	require.NoError(t, err)

	legacy, err := bc.Hash("secret")
	require.NoError(t, err)
	modern, err := ar.Hash("secret")
	require.NoError(t, err)

	ok, err := ar.Verify(legacy, "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = bc.Verify(modern, "secret")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasher_Errors(t *testing.T) {
	h, err := New(Options{BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	_, err = h.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = h.Verify("", "pw")
	assert.Error(t, err)

	_, err = h.Verify("not-a-hash", "pw")
	assert.Error(t, err)

	_, err = h.Verify("$argon2id$v=19$broken", "pw")
	assert.Error(t, err)

	_, err = h.Verify("$argon2id$v=1$m=1024,t=1,p=1$c2FsdA$a2V5", "pw")
	assert.Error(t, err)
}

func TestHasher_MaxLength(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{name: "bcrypt", opts: Options{Algorithm: AlgorithmBcrypt, BcryptCost: bcrypt.MinCost}},
		{name: "argon2id", opts: Options{Algorithm: AlgorithmArgon2id, Argon2: cheapArgon2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := New(tt.opts)
			require.NoError(t, err)

			hash, err := h.Hash(strings.Repeat("a", MaxLength))
			require.NoError(t, err)
			ok, err := h.Verify(hash, strings.Repeat("a", MaxLength))
			require.NoError(t, err)
			assert.True(t, ok)

			_, err = h.Hash(strings.Repeat("a", MaxLength+1))
			assert.ErrorIs(t, err, ErrPasswordTooLong)
		})
	}
}
