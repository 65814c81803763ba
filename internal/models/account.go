package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus represents the lifecycle state of an account
type AccountStatus string

const (
	StatusActive  AccountStatus = "active"
	StatusBlocked AccountStatus = "blocked"
	StatusClosed  AccountStatus = "closed"
)

// Valid reports whether s is a known account status
func (s AccountStatus) Valid() bool {
	switch s {
	case StatusActive, StatusBlocked, StatusClosed:
		return true
	}
	return false
}

// Account represents a customer account
type Account struct {
	ID        int64           `json:"id" db:"id" example:"1"`
	Name      string          `json:"name" db:"name" example:"Namish"`
	Balance   decimal.Decimal `json:"balance" db:"balance" swaggertype:"number" example:"1000"`
	Status    AccountStatus   `json:"status" db:"status" example:"active"`
	Phone     string          `json:"phone,omitempty" db:"phone"`
	Email     string          `json:"email,omitempty" db:"email"`
	Address   string          `json:"address,omitempty" db:"address"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// NewAccount holds the fields a store needs to create an account
type NewAccount struct {
	Name    string
	Balance decimal.Decimal
	Phone   string
	Email   string
	Address string
}

// AccountPatch is an administrative overwrite. Every non-nil field replaces
// the stored value, including balance and status.
type AccountPatch struct {
	Name    *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Balance *decimal.Decimal `json:"balance,omitempty" validate:"omitempty,cents" swaggertype:"number"`
	Status  *AccountStatus   `json:"status,omitempty" enums:"active,blocked,closed"`
	Phone   *string          `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email   *string          `json:"email,omitempty" validate:"omitempty,max=254"`
	Address *string          `json:"address,omitempty" validate:"omitempty,max=500"`
}

// ProfilePatch carries the customer-editable profile fields
type ProfilePatch struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email   *string `json:"email,omitempty" validate:"omitempty,max=254"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// AccountPatch widens the profile patch into a full patch with balance and
// status left untouched.
func (p ProfilePatch) AccountPatch() AccountPatch {
	return AccountPatch{
		Name:    p.Name,
		Phone:   p.Phone,
		Email:   p.Email,
		Address: p.Address,
	}
}

// Fields lists the names of the fields the patch overwrites
func (p AccountPatch) Fields() []string {
	var fields []string
	if p.Name != nil {
		fields = append(fields, "name")
	}
	if p.Balance != nil {
		fields = append(fields, "balance")
	}
	if p.Status != nil {
		fields = append(fields, "status")
	}
	if p.Phone != nil {
		fields = append(fields, "phone")
	}
	if p.Email != nil {
		fields = append(fields, "email")
	}
	if p.Address != nil {
		fields = append(fields, "address")
	}
	return fields
}

// Apply merges the patch into a copy of acc
func (p AccountPatch) Apply(acc Account) Account {
	if p.Name != nil {
		acc.Name = *p.Name
	}
	if p.Balance != nil {
		acc.Balance = *p.Balance
	}
	if p.Status != nil {
		acc.Status = *p.Status
	}
	if p.Phone != nil {
		acc.Phone = *p.Phone
	}
	if p.Email != nil {
		acc.Email = *p.Email
	}
	if p.Address != nil {
		acc.Address = *p.Address
	}
	return acc
}
