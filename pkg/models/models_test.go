package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

// The document store serializes accounts with the surrealcbor codec, which
// falls back to json tags when no cbor tag is present. The password hash must
// survive that round trip even though json hides it.
func TestAccountPasswordHashSurvivesDocumentCodec(t *testing.T) {
	codec := surrealcbor.New()

	account := Account{
		ID:           NewAccountID(),
		Email:        "jane@example.com",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		Roles:        RoleSet{RoleStudent},
		Verified:     true,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
		UpdatedAt:    time.Now().UTC().Truncate(time.Second),
	}

	data, err := codec.Marshal(account)
	require.NoError(t, err)

	var decoded Account
	require.NoError(t, codec.Unmarshal(data, &decoded))

	assert.Equal(t, account.PasswordHash, decoded.PasswordHash)
	assert.Equal(t, account.Email, decoded.Email)
	assert.Equal(t, account.ID, decoded.ID)
	assert.True(t, decoded.Verified)
	assert.Equal(t, account.Roles, decoded.Roles)
}

func TestAccountPasswordHashHiddenFromJSON(t *testing.T) {
	account := Account{
		ID:           NewAccountID(),
		Email:        "jane@example.com",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
	}
	data, err := json.Marshal(account)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "password"))
	assert.False(t, strings.Contains(string(data), account.PasswordHash))
}
