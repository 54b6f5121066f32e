package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/lostfound/lostfound/internal/validation"
)

// Item is a lost-or-found listing.
type Item struct {
	ID          string     `json:"id" bson:"_id"`
	Name        string     `json:"name" bson:"name"`
	Email       string     `json:"email" bson:"email"`
	PhoneNumber string     `json:"phoneNumber" bson:"phoneNumber"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	Location    string     `json:"location" bson:"location"`
	ItemType    string     `json:"itemType" bson:"itemType"`
	Image       string     `json:"image" bson:"image"`
	LoserPhone  string     `json:"loserPhone,omitempty" bson:"loserPhone,omitempty"`
	LoserEmail  string     `json:"loserEmail,omitempty" bson:"loserEmail,omitempty"`
	Date        *time.Time `json:"date,omitempty" bson:"date,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Item types.
const (
	ItemTypeLost  = "lost"
	ItemTypeFound = "found"
)

// ItemTypes lists the accepted item types.
var ItemTypes = []string{ItemTypeLost, ItemTypeFound}

// ParseItemType normalizes an item type. An empty value defaults to found.
func ParseItemType(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return ItemTypeFound, nil
	case ItemTypeLost, ItemTypeFound:
		return s, nil
	}
	return "", fmt.Errorf("unknown item type %q", s)
}

// Validate checks the fields every stored item must carry.
func (i *Item) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", i.Name, v)
	validation.Required("email", i.Email, v)
	validation.Required("phoneNumber", i.PhoneNumber, v)
	validation.Required("title", i.Title, v)
	validation.Required("description", i.Description, v)
	validation.Required("location", i.Location, v)
	validation.Required("image", i.Image, v)
	validation.OneOf("itemType", i.ItemType, ItemTypes, v)
	return v
}
