package models

import (
	"testing"

	"github.com/sgabriel/rolodex/server/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateContactLastPrimaryWins(t *testing.T) {
	ds := InitializeTestDatastore()
	user := createTestUser(t, ds, "alice-owner")

	contact := &Contact{
		Name: "Alice",
		PhoneNumbers: []PhoneNumber{
			{Number: "555-1", IsPrimary: true},
			{Number: "555-2", IsPrimary: true},
		},
	}
	require.Nil(t, ds.CreateContact(user.ID, contact))

	var primaryCount int64
	ds.db.Model(&PhoneNumber{}).
		Where("contact_id = ? AND is_primary = ?", contact.ID, true).
		Count(&primaryCount)
	assert.EqualValues(t, 1, primaryCount)

	// The reloaded aggregate lists the primary number first.
	require.Len(t, contact.PhoneNumbers, 2)
	assert.Equal(t, "555-2", contact.PhoneNumbers[0].Number, "the last primary submitted should win")
	assert.True(t, contact.PhoneNumbers[0].IsPrimary)
	assert.False(t, contact.PhoneNumbers[1].IsPrimary)
}

func TestContactsByUserOrdering(t *testing.T) {
	ds := InitializeTestDatastore()
	user := createTestUser(t, ds, "sorter")

	require.Nil(t, ds.CreateContact(user.ID, &Contact{Name: "Zara"}))
	require.Nil(t, ds.CreateContact(user.ID, &Contact{Name: "Mia", IsEmergencyContact: true}))
	require.Nil(t, ds.CreateContact(user.ID, &Contact{Name: "Alice"}))
	require.Nil(t, ds.CreateContact(user.ID, &Contact{Name: "Bob", IsEmergencyContact: true}))

	contacts, _, err := ds.ContactsByUser(user.ID, 1, 10)
	require.Nil(t, err)
	require.Len(t, contacts, 4)

	names := []string{}
	for _, c := range contacts {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Bob", "Mia", "Alice", "Zara"}, names,
		"emergency contacts first, each group sorted by name")
}

func TestContactsByUserPagination(t *testing.T) {
	ds := InitializeTestDatastore()
	user := createTestUser(t, ds, "paginator")

	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		require.Nil(t, ds.CreateContact(user.ID, &Contact{Name: name}))
	}

	seen := 0
	page1, paging, err := ds.ContactsByUser(user.ID, 1, 3)
	require.Nil(t, err)
	assert.EqualValues(t, 7, paging.Total)
	assert.EqualValues(t, 3, paging.Pages)
	seen += len(page1)

	for page := 2; page <= int(paging.Pages); page++ {
		contacts, _, err := ds.ContactsByUser(user.ID, page, 3)
		require.Nil(t, err)
		seen += len(contacts)
	}
	assert.Equal(t, 7, seen, "walking all pages must cover every contact exactly once")
}

func TestContactsByUserClampsBadPaging(t *testing.T) {
	ds := InitializeTestDatastore()
	user := createTestUser(t, ds, "clamper")

	require.Nil(t, ds.CreateContact(user.ID, &Contact{Name: "only"}))

	contacts, paging, err := ds.ContactsByUser(user.ID, -3, 0)
	require.Nil(t, err)
	assert.Len(t, contacts, 1)
	assert.EqualValues(t, 1, paging.Page)
	assert.EqualValues(t, 1, paging.Pages)
}

func TestContactOwnership(t *testing.T) {
	ds := InitializeTestDatastore()
	owner := createTestUser(t, ds, "owner")
	intruder := createTestUser(t, ds, "intruder")

	contact := &Contact{Name: "C1"}
	require.Nil(t, ds.CreateContact(owner.ID, contact))

	_, err := ds.ContactByID(intruder.ID, contact.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	newName := "x"
	_, err = ds.UpdateContact(intruder.ID, contact.ID, &ContactPatch{Name: &newName})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	unchanged, err := ds.ContactByID(owner.ID, contact.ID)
	require.Nil(t, err)
	assert.Equal(t, "C1", unchanged.Name, "a forbidden update must not change anything")

	err = ds.DeleteContact(intruder.ID, contact.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestUpdateContactAppliesOnlyPresentFields(t *testing.T) {
	ds := InitializeTestDatastore()
	user := createTestUser(t, ds, "patcher")

	contact := &Contact{Name: "Rhodey", Relationship: "friend"}
	require.Nil(t, ds.CreateContact(user.ID, contact))

	relationship := "colleague"
	updated, err := ds.UpdateContact(user.ID, contact.ID, &ContactPatch{Relationship: &relationship})
	require.Nil(t, err)
	assert.Equal(t, "colleague", updated.Relationship)
	assert.Equal(t, "Rhodey", updated.Name)
}

func TestDeleteContactCascades(t *testing.T) {
	ds := InitializeTestDatastore()
	user := createTestUser(t, ds, "deleter")

	contact := &Contact{Name: "C1", PhoneNumbers: []PhoneNumber{
		{Number: "555-1", IsPrimary: true},
		{Number: "555-2"},
	}}
	require.Nil(t, ds.CreateContact(user.ID, contact))

	require.Nil(t, ds.DeleteContact(user.ID, contact.ID))

	_, err := ds.ContactByID(user.ID, contact.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	var phoneCount int64
	ds.db.Model(&PhoneNumber{}).Where("contact_id = ?", contact.ID).Count(&phoneCount)
	assert.EqualValues(t, 0, phoneCount, "no phone number may reference a deleted contact")
}

func TestDeleteContactNotFound(t *testing.T) {
	ds := InitializeTestDatastore()
	user := createTestUser(t, ds, "ghost-hunter")

	err := ds.DeleteContact(user.ID, 404)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
