package scope

import "gorm.io/gorm"

func OrderBySeqAsc(db *gorm.DB) *gorm.DB {
	return db.Order("seq ASC")
}

func OrderByUpdatedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("updated_at DESC")
}
