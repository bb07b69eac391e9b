package models

import "github.com/tradecomply/backend/internal/domain/identity"

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	BaseModel
	Username    string              `gorm:"type:varchar(100);not null;uniqueIndex"`
	Email       string              `gorm:"type:varchar(200)"`
	DisplayName string              `gorm:"type:varchar(200)"`
	Status      identity.UserStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Permissions string              `gorm:"type:text;not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	codes := decodeStrings(m.Permissions)
	permissions := make([]identity.Permission, 0, len(codes))
	for _, c := range codes {
		permissions = append(permissions, identity.Permission(c))
	}
	return &identity.User{
		BaseEntity:  m.BaseModel.ToDomain(),
		Username:    m.Username,
		Email:       m.Email,
		DisplayName: m.DisplayName,
		Status:      m.Status,
		Permissions: permissions,
	}
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainBaseEntity(u.BaseEntity)
	m.Username = u.Username
	m.Email = u.Email
	m.DisplayName = u.DisplayName
	m.Status = u.Status
	codes := make([]string, 0, len(u.Permissions))
	for _, p := range u.Permissions {
		codes = append(codes, string(p))
	}
	m.Permissions = encodeStrings(codes)
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
