package models

import (
	"errors"

	"github.com/sgabriel/rolodex/server/apperror"
	"gorm.io/gorm"
)

const (
	MOBILE_PHONE = "mobile"
	HOME_PHONE   = "home"
	WORK_PHONE   = "work"
)

// phoneListOrder puts the primary number first, then sorts by type.
const phoneListOrder = "is_primary DESC, type ASC"

type PhoneNumber struct {
	BaseModel
	Number    string `json:"number" validate:"required" gorm:"not null"`
	Type      string `json:"type,omitempty" validate:"omitempty,oneof=mobile home work"`
	IsPrimary bool   `json:"is_primary"`
	ContactID uint   `json:"contact_id" gorm:"not null"`
}

// PhoneNumberPatch carries the phone-number fields a client may change.
// ContactID is immutable, so it is deliberately absent.
type PhoneNumberPatch struct {
	Number    *string `json:"number" validate:"omitempty,min=1"`
	Type      *string `json:"type" validate:"omitempty,oneof=mobile home work"`
	IsPrimary *bool   `json:"is_primary"`
}

func (p *PhoneNumberPatch) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if p.Number != nil {
		fields["number"] = *p.Number
	}
	if p.Type != nil {
		fields["type"] = *p.Type
	}
	if p.IsPrimary != nil {
		fields["is_primary"] = *p.IsPrimary
	}

	return fields
}

// clearOtherPrimaries unsets the primary flag on every other phone number of
// the contact. It must run on the same transaction handle as the statement
// that flags the target row, so a committed state never holds two primary
// numbers for one contact.
func clearOtherPrimaries(tx *gorm.DB, contactID, excludeID uint) error {
	err := tx.Model(&PhoneNumber{}).
		Where("contact_id = ? AND id <> ? AND is_primary = ?", contactID, excludeID, true).
		Update("is_primary", false).Error
	if err != nil {
		return apperror.StoreFailure(err)
	}

	return nil
}

// insertPhoneNumber stores a new phone number, demoting any current primary
// first when this one claims the slot.
func insertPhoneNumber(tx *gorm.DB, phoneNumber *PhoneNumber) error {
	if phoneNumber.Type == "" {
		phoneNumber.Type = MOBILE_PHONE
	}

	if phoneNumber.IsPrimary {
		if err := clearOtherPrimaries(tx, phoneNumber.ContactID, 0); err != nil {
			return err
		}
	}

	if err := tx.Create(phoneNumber).Error; err != nil {
		return apperror.StoreFailure(err)
	}

	return nil
}

func phoneNumbersFor(tx *gorm.DB, contactID uint) ([]PhoneNumber, error) {
	phoneNumbers := []PhoneNumber{}
	err := tx.Where("contact_id = ?", contactID).Order(phoneListOrder).Find(&phoneNumbers).Error
	if err != nil {
		return nil, apperror.StoreFailure(err)
	}

	return phoneNumbers, nil
}

// CreatePhoneNumber stores a new phone number under the given contact.
// A nonexistent parent contact is an invalid state, not a plain not-found:
// the client referenced a parent that is gone.
func (ds *Datastore) CreatePhoneNumber(principalID, contactID uint, phoneNumber *PhoneNumber) error {
	return ds.db.Transaction(func(tx *gorm.DB) error {
		_, err := contactOwnedBy(tx, principalID, contactID)
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.InvalidState("parent contact does not exist")
		}
		if err != nil {
			return err
		}

		phoneNumber.ContactID = contactID
		return insertPhoneNumber(tx, phoneNumber)
	})
}

// PhoneNumberByID returns the phone number, provided the principal owns its
// parent contact.
func (ds *Datastore) PhoneNumberByID(principalID, id uint) (*PhoneNumber, error) {
	phoneNumber := PhoneNumber{}
	err := ds.db.First(&phoneNumber, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("phone number", id)
	}
	if err != nil {
		return nil, apperror.StoreFailure(err)
	}

	if _, err := contactOwnedBy(ds.db, principalID, phoneNumber.ContactID); err != nil {
		return nil, err
	}

	return &phoneNumber, nil
}

// PhoneNumbersByContact lists the contact's phone numbers, primary first.
func (ds *Datastore) PhoneNumbersByContact(principalID, contactID uint) ([]PhoneNumber, error) {
	if _, err := contactOwnedBy(ds.db, principalID, contactID); err != nil {
		return nil, err
	}

	return phoneNumbersFor(ds.db, contactID)
}

// UpdatePhoneNumber applies the present patch fields. When the patch flags
// the row as primary, the current primary is demoted in the same transaction.
func (ds *Datastore) UpdatePhoneNumber(principalID, id uint, patch *PhoneNumberPatch) (*PhoneNumber, error) {
	phoneNumber := PhoneNumber{}

	err := ds.db.Transaction(func(tx *gorm.DB) error {
		err := tx.First(&phoneNumber, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("phone number", id)
		}
		if err != nil {
			return apperror.StoreFailure(err)
		}

		if _, err := contactOwnedBy(tx, principalID, phoneNumber.ContactID); err != nil {
			return err
		}

		if patch.IsPrimary != nil && *patch.IsPrimary {
			if err := clearOtherPrimaries(tx, phoneNumber.ContactID, phoneNumber.ID); err != nil {
				return err
			}
		}

		if fields := patch.Fields(); len(fields) > 0 {
			if err := tx.Model(&phoneNumber).Updates(fields).Error; err != nil {
				return apperror.StoreFailure(err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &phoneNumber, nil
}

// DeletePhoneNumber removes a single phone number.
func (ds *Datastore) DeletePhoneNumber(principalID, id uint) error {
	return ds.db.Transaction(func(tx *gorm.DB) error {
		phoneNumber := PhoneNumber{}
		err := tx.First(&phoneNumber, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("phone number", id)
		}
		if err != nil {
			return apperror.StoreFailure(err)
		}

		if _, err := contactOwnedBy(tx, principalID, phoneNumber.ContactID); err != nil {
			return err
		}

		result := tx.Delete(&PhoneNumber{}, id)
		if result.Error != nil {
			return apperror.StoreFailure(result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.NotFound("phone number", id)
		}

		return nil
	})
}
