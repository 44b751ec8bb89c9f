package models

import (
	"errors"
	"fmt"

	"github.com/sgabriel/rolodex/server/apperror"
	"github.com/sgabriel/rolodex/server/auth"
	"gorm.io/gorm"
)

var allUserFieldsExceptPassword = []string{"id",
	"name",
	"age",
	"mac_address",
	"phone_number",
	"image_url",
	"created_at",
	"updated_at",
}

type User struct {
	BaseModel
	Name        string    `json:"name" validate:"required" gorm:"not null;unique"`
	Password    string    `json:"password,omitempty" validate:"required,password" gorm:"not null"`
	Age         *int      `json:"age,omitempty" validate:"omitempty,min=0"`
	MacAddress  string    `json:"mac_address,omitempty" validate:"omitempty,mac"`
	PhoneNumber string    `json:"phone_number,omitempty" validate:"omitempty,e164"`
	ImageURL    string    `json:"image_url,omitempty" validate:"omitempty,url"`
	Contacts    []Contact `json:"contacts,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// UserPatch carries the profile fields a client may change. Only non-nil
// fields are applied.
type UserPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Password    *string `json:"password" validate:"omitempty,password"`
	Age         *int    `json:"age" validate:"omitempty,min=0"`
	MacAddress  *string `json:"mac_address" validate:"omitempty,mac"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,e164"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
}

func (p *UserPatch) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Password != nil {
		fields["password"] = *p.Password
	}
	if p.Age != nil {
		fields["age"] = *p.Age
	}
	if p.MacAddress != nil {
		fields["mac_address"] = *p.MacAddress
	}
	if p.PhoneNumber != nil {
		fields["phone_number"] = *p.PhoneNumber
	}
	if p.ImageURL != nil {
		fields["image_url"] = *p.ImageURL
	}

	return fields
}

// CreateUser stores a new user with its password hashed.
func (ds *Datastore) CreateUser(user *User) error {
	passwordHash, err := auth.HashPassword(user.Password)
	if err != nil {
		return apperror.StoreFailure(err)
	}
	user.Password = passwordHash

	// Contacts are created through their own operation, never inline.
	user.Contacts = nil

	if err := ds.db.Create(user).Error; err != nil {
		return apperror.StoreFailure(err)
	}

	return nil
}

// FindUserBy looks a user up by a single column, e.g. "id" or "name". The
// password hash is never selected.
func (ds *Datastore) FindUserBy(field string, value interface{}) (*User, error) {
	user := User{}
	err := ds.db.Select(allUserFieldsExceptPassword).
		First(&user, fmt.Sprintf("%v = ?", field), value).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user", value)
	}
	if err != nil {
		return nil, apperror.StoreFailure(err)
	}

	return &user, nil
}

// UserCredentials fetches the columns needed to verify a login attempt.
func (ds *Datastore) UserCredentials(name string) (*User, error) {
	user := User{}
	err := ds.db.Select([]string{"id", "name", "password"}).
		First(&user, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user", name)
	}
	if err != nil {
		return nil, apperror.StoreFailure(err)
	}

	return &user, nil
}

// UpdateUser applies the present patch fields to the user's profile.
func (ds *Datastore) UpdateUser(id uint, patch *UserPatch) error {
	fields := patch.Fields()

	if fields["password"] != nil {
		passwordHash, err := auth.HashPassword(fields["password"].(string))
		if err != nil {
			return apperror.StoreFailure(err)
		}
		fields["password"] = passwordHash
	}

	return ds.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Select("id").First(&User{}, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("user", id)
		}
		if err != nil {
			return apperror.StoreFailure(err)
		}

		if err := tx.Model(&User{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return apperror.StoreFailure(err)
		}

		return nil
	})
}

// DeleteUser removes the user together with all owned contacts and their
// phone numbers. Either every dependent row and the user go, or none do.
func (ds *Datastore) DeleteUser(id uint) error {
	return ds.db.Transaction(func(tx *gorm.DB) error {
		contactIDs := tx.Table("contacts").Select("id").Where("user_id = ?", id)
		if err := tx.Where("contact_id IN (?)", contactIDs).Delete(&PhoneNumber{}).Error; err != nil {
			return apperror.StoreFailure(err)
		}

		if err := tx.Where("user_id = ?", id).Delete(&Contact{}).Error; err != nil {
			return apperror.StoreFailure(err)
		}

		result := tx.Delete(&User{}, id)
		if result.Error != nil {
			return apperror.StoreFailure(result.Error)
		}
		if result.RowsAffected == 0 {
			// Nothing to delete; discard the cascade as well.
			return apperror.NotFound("user", id)
		}

		return nil
	})
}
