package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountIDRoundTrip(t *testing.T) {
	id := NewAccountID()
	require.False(t, id.IsZero())

	parsed, err := ParseAccountID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	data, err := json.Marshal(id)
	require.NoError(t, err)

	var decoded AccountID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

func TestAccountIDRecordID(t *testing.T) {
	id := NewAccountID()
	rid := id.RecordID()
	assert.Equal(t, "accounts", rid.Table)
	assert.Equal(t, id.String(), rid.ID)
}

func TestParseAccountIDInvalid(t *testing.T) {
	_, err := ParseAccountID("not-a-uuid")
	assert.Error(t, err)
}

func TestAccountIDValueScan(t *testing.T) {
	id := NewLessonID()
	v, err := id.Value()
	require.NoError(t, err)
	require.Equal(t, id.String(), v)

	var scanned LessonID
	require.NoError(t, scanned.Scan(id.String()))
	assert.Equal(t, id, scanned)
}

func TestZeroIDValueIsNull(t *testing.T) {
	var id OrderID
	v, err := id.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRoleSetRoundTrip(t *testing.T) {
	roles := RoleSet{RoleStudent, RoleAdmin}
	assert.True(t, roles.Has(RoleAdmin))
	assert.False(t, RoleSet{RoleStudent}.Has(RoleAdmin))

	v, err := roles.Value()
	require.NoError(t, err)
	require.Equal(t, "student,admin", v)

	var scanned RoleSet
	require.NoError(t, scanned.Scan("student,admin"))
	assert.Equal(t, roles, scanned)

	require.NoError(t, scanned.Scan(""))
	assert.Empty(t, scanned)
}

func TestOrderTotal(t *testing.T) {
	order := &Order{
		Items: []*OrderItem{
			{Price: 19.90},
			{Price: 32.00},
		},
	}
	assert.InDelta(t, 51.90, order.Total(), 1e-9)
}
