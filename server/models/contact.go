package models

import (
	"context"
	"errors"

	"github.com/sgabriel/rolodex/server/apperror"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// contactListOrder puts emergency contacts first, then sorts by name.
const contactListOrder = "is_emergency_contact DESC, name ASC"

type Contact struct {
	BaseModel
	Name               string        `json:"name" validate:"required" gorm:"not null"`
	IsEmergencyContact bool          `json:"is_emergency_contact"`
	Relationship       string        `json:"relationship,omitempty"`
	ImageURL           string        `json:"image_url,omitempty" validate:"omitempty,url"`
	UserID             uint          `json:"user_id" gorm:"not null"`
	PhoneNumbers       []PhoneNumber `json:"phone_numbers" validate:"omitempty,dive" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// ContactPatch carries the contact fields a client may change. UserID is
// immutable, so it is deliberately absent.
type ContactPatch struct {
	Name               *string `json:"name" validate:"omitempty,min=1"`
	IsEmergencyContact *bool   `json:"is_emergency_contact"`
	Relationship       *string `json:"relationship"`
	ImageURL           *string `json:"image_url" validate:"omitempty,url"`
}

func (p *ContactPatch) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.IsEmergencyContact != nil {
		fields["is_emergency_contact"] = *p.IsEmergencyContact
	}
	if p.Relationship != nil {
		fields["relationship"] = *p.Relationship
	}
	if p.ImageURL != nil {
		fields["image_url"] = *p.ImageURL
	}

	return fields
}

// contactOwnedBy resolves the contact and checks that it belongs to the
// principal. Callers that go on to mutate rows must run it on the same
// transaction handle as the mutation, to close the check/use gap.
func contactOwnedBy(tx *gorm.DB, principalID, contactID uint) (*Contact, error) {
	contact := Contact{}
	err := tx.First(&contact, contactID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("contact", contactID)
	}
	if err != nil {
		return nil, apperror.StoreFailure(err)
	}

	if contact.UserID != principalID {
		return nil, apperror.Forbidden("contact belongs to another user")
	}

	return &contact, nil
}

// CreateContact stores a new contact for the principal, together with any
// inline phone numbers. The phone numbers are applied one at a time through
// the primary-flag bookkeeping, so when several claim the primary slot the
// last one wins.
func (ds *Datastore) CreateContact(principalID uint, contact *Contact) error {
	contact.UserID = principalID

	return ds.db.Transaction(func(tx *gorm.DB) error {
		phoneNumbers := contact.PhoneNumbers
		contact.PhoneNumbers = nil

		if err := tx.Create(contact).Error; err != nil {
			return apperror.StoreFailure(err)
		}

		for i := range phoneNumbers {
			phoneNumbers[i].ContactID = contact.ID
			if err := insertPhoneNumber(tx, &phoneNumbers[i]); err != nil {
				return err
			}
		}

		// Reload so the response reflects the committed primary flags.
		var err error
		contact.PhoneNumbers, err = phoneNumbersFor(tx, contact.ID)
		return err
	})
}

// ContactByID returns the contact aggregate, i.e. the contact with its phone
// numbers attached in listing order.
func (ds *Datastore) ContactByID(principalID, contactID uint) (*Contact, error) {
	contact, err := contactOwnedBy(ds.db, principalID, contactID)
	if err != nil {
		return nil, err
	}

	contact.PhoneNumbers, err = phoneNumbersFor(ds.db, contact.ID)
	if err != nil {
		return nil, err
	}

	return contact, nil
}

// ContactsByUser returns one page of the user's contact aggregates plus the
// paging info. The row count and the page window are read in one transaction,
// so they reflect the same snapshot.
func (ds *Datastore) ContactsByUser(userID uint, page, pageSize int) ([]Contact, *Paging, error) {
	page, pageSize = normalizePaging(page, pageSize)

	var contacts []Contact
	var total int64

	err := ds.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Contact{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
			return err
		}

		return tx.Scopes(paginate(page, pageSize)).
			Where("user_id = ?", userID).
			Order(contactListOrder).
			Find(&contacts).Error
	})
	if err != nil {
		return nil, nil, apperror.StoreFailure(err)
	}

	// Phone-number reads are independent per contact, so fan them out. Writes
	// go to disjoint slice slots, which keeps the input ordering.
	group, groupCtx := errgroup.WithContext(context.Background())
	for i := range contacts {
		i := i
		group.Go(func() error {
			phoneNumbers, err := phoneNumbersFor(ds.db.WithContext(groupCtx), contacts[i].ID)
			if err != nil {
				return err
			}
			contacts[i].PhoneNumbers = phoneNumbers
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	return contacts, newPaging(int64(page), int64(pageSize), total), nil
}

// UpdateContact applies the present patch fields and returns the updated
// aggregate.
func (ds *Datastore) UpdateContact(principalID, contactID uint, patch *ContactPatch) (*Contact, error) {
	var contact *Contact

	err := ds.db.Transaction(func(tx *gorm.DB) error {
		var err error
		contact, err = contactOwnedBy(tx, principalID, contactID)
		if err != nil {
			return err
		}

		if fields := patch.Fields(); len(fields) > 0 {
			if err := tx.Model(contact).Updates(fields).Error; err != nil {
				return apperror.StoreFailure(err)
			}
		}

		contact.PhoneNumbers, err = phoneNumbersFor(tx, contact.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return contact, nil
}

// DeleteContact removes the contact and all its phone numbers in one
// transaction. A missing contact aborts the whole cascade.
func (ds *Datastore) DeleteContact(principalID, contactID uint) error {
	return ds.db.Transaction(func(tx *gorm.DB) error {
		if _, err := contactOwnedBy(tx, principalID, contactID); err != nil {
			return err
		}

		if err := tx.Where("contact_id = ?", contactID).Delete(&PhoneNumber{}).Error; err != nil {
			return apperror.StoreFailure(err)
		}

		result := tx.Delete(&Contact{}, contactID)
		if result.Error != nil {
			return apperror.StoreFailure(result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.NotFound("contact", contactID)
		}

		return nil
	})
}
