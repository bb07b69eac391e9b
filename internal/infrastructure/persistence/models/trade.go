package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradecomply/backend/internal/domain/trade"
)

// OrderModel is the persistence model for the Order domain entity.
type OrderModel struct {
	ID                    int64  `gorm:"primaryKey;autoIncrement"`
	OrderNumber           string `gorm:"type:varchar(100);not null;uniqueIndex"`
	CustomerOrderNumber   string `gorm:"type:varchar(100)"`
	ModeOfDelivery        string `gorm:"type:varchar(50)"`
	TermsOfSale           string `gorm:"type:varchar(50)"`
	ShipWindowStart       *time.Time
	ShipWindowEnd         *time.Time
	FirstExpectedDelivery *time.Time
	DeclaredValue         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency              string          `gorm:"type:varchar(3);not null;default:'USD'"`
	ClosedAt              *time.Time
	CreatedAt             time.Time `gorm:"not null"`
	UpdatedAt             time.Time `gorm:"not null"`
	Version               int       `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *trade.Order {
	return &trade.Order{
		ID:                    m.ID,
		OrderNumber:           m.OrderNumber,
		CustomerOrderNumber:   m.CustomerOrderNumber,
		ModeOfDelivery:        m.ModeOfDelivery,
		TermsOfSale:           m.TermsOfSale,
		ShipWindowStart:       m.ShipWindowStart,
		ShipWindowEnd:         m.ShipWindowEnd,
		FirstExpectedDelivery: m.FirstExpectedDelivery,
		DeclaredValue:         m.DeclaredValue,
		Currency:              m.Currency,
		ClosedAt:              m.ClosedAt,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
		Version:               m.Version,
	}
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.ID = o.ID
	m.OrderNumber = o.OrderNumber
	m.CustomerOrderNumber = o.CustomerOrderNumber
	m.ModeOfDelivery = o.ModeOfDelivery
	m.TermsOfSale = o.TermsOfSale
	m.ShipWindowStart = o.ShipWindowStart
	m.ShipWindowEnd = o.ShipWindowEnd
	m.FirstExpectedDelivery = o.FirstExpectedDelivery
	m.DeclaredValue = o.DeclaredValue
	m.Currency = o.Currency
	m.ClosedAt = o.ClosedAt
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt
	m.Version = o.Version
}

// OrderModelFromDomain creates a new persistence model from a domain Order entity.
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// EntryModel is the persistence model for the Entry domain entity.
// The last integration file is flattened into three nullable columns.
type EntryModel struct {
	ID               int64  `gorm:"primaryKey;autoIncrement"`
	EntryNumber      string `gorm:"type:varchar(50);index"`
	BrokerReference  string `gorm:"type:varchar(100);not null;uniqueIndex"`
	CustomerNumber   string `gorm:"type:varchar(50);index"`
	LastFileBucket   string `gorm:"type:varchar(200)"`
	LastFilePath     string `gorm:"type:varchar(500)"`
	LastFileName     string `gorm:"type:varchar(255)"`
	LastSentToTestAt *time.Time
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EntryModel) TableName() string {
	return "entries"
}

// ToDomain converts the persistence model to a domain Entry entity.
func (m *EntryModel) ToDomain() *trade.Entry {
	e := &trade.Entry{
		ID:               m.ID,
		EntryNumber:      m.EntryNumber,
		BrokerReference:  m.BrokerReference,
		CustomerNumber:   m.CustomerNumber,
		LastSentToTestAt: m.LastSentToTestAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	file := trade.FileRef{Bucket: m.LastFileBucket, Path: m.LastFilePath, FileName: m.LastFileName}
	if !file.IsZero() {
		e.LastFile = &file
	}
	return e
}

// FromDomain populates the persistence model from a domain Entry entity.
func (m *EntryModel) FromDomain(e *trade.Entry) {
	m.ID = e.ID
	m.EntryNumber = e.EntryNumber
	m.BrokerReference = e.BrokerReference
	m.CustomerNumber = e.CustomerNumber
	m.LastFileBucket, m.LastFilePath, m.LastFileName = "", "", ""
	if e.LastFile != nil {
		m.LastFileBucket = e.LastFile.Bucket
		m.LastFilePath = e.LastFile.Path
		m.LastFileName = e.LastFile.FileName
	}
	m.LastSentToTestAt = e.LastSentToTestAt
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// EntryModelFromDomain creates a new persistence model from a domain Entry entity.
func EntryModelFromDomain(e *trade.Entry) *EntryModel {
	m := &EntryModel{}
	m.FromDomain(e)
	return m
}
