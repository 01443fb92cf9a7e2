package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore("jiraconnection")

	_, err := store.Get("jdoe")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set("jdoe", "s3cret"))
	secret, err := store.Get("jdoe")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret)

	require.NoError(t, store.Delete("jdoe"))
	_, err = store.Get("jdoe")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete("jdoe"), ErrNotFound)
}

func TestStubStore(t *testing.T) {
	store := NewStubStore()
	require.NoError(t, store.Set("jdoe", "pw"))

	secret, err := store.Get("jdoe")
	require.NoError(t, err)
	assert.Equal(t, "pw", secret)

	assert.ErrorIs(t, store.Delete("someone"), ErrNotFound)
}
