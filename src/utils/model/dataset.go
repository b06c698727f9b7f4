package model

import (
	"database/sql"
	"time"
)

const (
	TableDataset     = "datasets"
	TableDatasetBlob = "dataset_blobs"
)

type Dataset struct {
	Id      string `gorm:"primaryKey;type:text"`
	Creator string `gorm:"type:text;not null"`
	Title   string `gorm:"type:text"`

	// Seal decryption policy of the full blob
	SealPolicyId sql.NullString `gorm:"type:text"`

	CreatedAt time.Time
}

func (Dataset) TableName() string {
	return TableDataset
}

// Walrus blobs of a dataset
type DatasetBlob struct {
	Id            string         `gorm:"primaryKey;type:text"`
	DatasetId     string         `gorm:"type:text;not null;uniqueIndex"`
	PreviewBlobId sql.NullString `gorm:"type:text"`
	FullBlobId    sql.NullString `gorm:"type:text"`
	CreatedAt     time.Time
}

func (DatasetBlob) TableName() string {
	return TableDatasetBlob
}
