package model

// Tables created by AutoMigrate when sql migrations aren't used (sqlite)
var MigrateModels = []any{
	&KioskReserve{},
	&Dataset{},
	&DatasetBlob{},
	&KioskPurchase{},
	&AccessLog{},
}
