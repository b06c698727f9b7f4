package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const TableAccessLog = "access_logs"

type AccessAction string

const (
	AccessActionGranted AccessAction = "ACCESS_GRANTED"
	AccessActionDenied  AccessAction = "ACCESS_DENIED"
	AccessActionFailed  AccessAction = "ACCESS_FAILED"
)

// Append-only audit of access grant attempts
type AccessLog struct {
	Id          string         `gorm:"primaryKey;type:text"`
	UserAddress string         `gorm:"type:text;not null;index"`
	DatasetId   string         `gorm:"type:text;not null;index"`
	Action      AccessAction   `gorm:"type:text;not null"`
	IpAddress   sql.NullString `gorm:"type:text"`
	UserAgent   sql.NullString `gorm:"type:text"`
	Timestamp   time.Time      `gorm:"not null"`
}

func (AccessLog) TableName() string {
	return TableAccessLog
}

func (self *AccessLog) BeforeCreate(tx *gorm.DB) error {
	if self.Id == "" {
		self.Id = uuid.NewString()
	}
	return nil
}
