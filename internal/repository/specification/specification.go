package specification

import "gorm.io/gorm"

// Specification narrows a repository query; several are applied in order.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
