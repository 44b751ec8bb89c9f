package models

import (
	"testing"

	"github.com/sgabriel/rolodex/server/apperror"
	"github.com/sgabriel/rolodex/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestUser(t *testing.T, ds *Datastore, name string) *User {
	t.Helper()

	user := &User{Name: name, Password: "very-secure"}
	require.Nil(t, ds.CreateUser(user))

	return user
}

func TestCreateUserHashesPassword(t *testing.T) {
	ds := InitializeTestDatastore()

	user := &User{Name: "tony", Password: "very-secure"}
	require.Nil(t, ds.CreateUser(user))

	stored, err := ds.UserCredentials("tony")
	require.Nil(t, err)
	assert.NotEqual(t, "very-secure", stored.Password, "password should never be stored in plain text")
	assert.True(t, auth.CheckPasswordHash("very-secure", stored.Password))
}

func TestFindUserByOmitsPassword(t *testing.T) {
	ds := InitializeTestDatastore()
	user := createTestUser(t, ds, "pepper")

	found, err := ds.FindUserBy("id", user.ID)
	require.Nil(t, err)
	assert.Equal(t, "pepper", found.Name)
	assert.Empty(t, found.Password)
}

func TestFindUserByNotFound(t *testing.T) {
	ds := InitializeTestDatastore()

	_, err := ds.FindUserBy("id", 404)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateUserAppliesOnlyPresentFields(t *testing.T) {
	ds := InitializeTestDatastore()

	age := 41
	user := &User{Name: "happy", Password: "very-secure", Age: &age}
	require.Nil(t, ds.CreateUser(user))

	newName := "hogan"
	require.Nil(t, ds.UpdateUser(user.ID, &UserPatch{Name: &newName}))

	updated, err := ds.FindUserBy("id", user.ID)
	require.Nil(t, err)
	assert.Equal(t, "hogan", updated.Name)
	require.NotNil(t, updated.Age)
	assert.Equal(t, 41, *updated.Age, "absent patch fields must be left alone")
}

func TestUpdateUserNotFound(t *testing.T) {
	ds := InitializeTestDatastore()

	newName := "nobody"
	err := ds.UpdateUser(404, &UserPatch{Name: &newName})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteUserCascades(t *testing.T) {
	ds := InitializeTestDatastore()

	user := createTestUser(t, ds, "thanos")
	bystander := createTestUser(t, ds, "nebula")

	for _, name := range []string{"gamora", "ebony maw"} {
		contact := &Contact{Name: name, PhoneNumbers: []PhoneNumber{
			{Number: "555-0001", IsPrimary: true},
			{Number: "555-0002"},
		}}
		require.Nil(t, ds.CreateContact(user.ID, contact))
	}
	keptContact := &Contact{Name: "mantis", PhoneNumbers: []PhoneNumber{{Number: "555-0009"}}}
	require.Nil(t, ds.CreateContact(bystander.ID, keptContact))

	require.Nil(t, ds.DeleteUser(user.ID))

	_, err := ds.FindUserBy("id", user.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	var contactCount, phoneCount int64
	ds.db.Model(&Contact{}).Where("user_id = ?", user.ID).Count(&contactCount)
	assert.EqualValues(t, 0, contactCount, "no contact may survive its owner")

	ds.db.Model(&PhoneNumber{}).Count(&phoneCount)
	assert.EqualValues(t, 1, phoneCount, "only the other user's phone number should remain")

	_, err = ds.ContactByID(bystander.ID, keptContact.ID)
	assert.Nil(t, err, "the cascade must not touch other users' contacts")
}

func TestDeleteUserNotFound(t *testing.T) {
	ds := InitializeTestDatastore()

	err := ds.DeleteUser(404)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
