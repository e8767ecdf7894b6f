package models

import "time"

// Customer is the persisted target row produced by an import run.
type Customer struct {
	ID               int64      `gorm:"primaryKey"`
	CustomerID       string     `gorm:"column:customer_id;size:255;not null;uniqueIndex"`
	FirstName        string     `gorm:"column:first_name;size:255"`
	LastName         string     `gorm:"column:last_name;size:255"`
	Email            string     `gorm:"size:320;index"`
	Company          string     `gorm:"size:255"`
	City             string     `gorm:"size:120"`
	Country          string     `gorm:"size:120"`
	Phone1           string     `gorm:"size:64"`
	Phone2           string     `gorm:"size:64"`
	Website          string     `gorm:"size:255"`
	AboutCustomer    string     `gorm:"column:about_customer;type:text"`
	SubscriptionDate *time.Time `gorm:"column:subscription_date"`
	CreatedAt        time.Time
	UpdatedAt        time.Time `gorm:"index"`
}

func (Customer) TableName() string {
	return "customers"
}
