package scope

import "gorm.io/gorm"

// WithSoftDelete includes soft deleted rows. Sequence numbers are allocated
// across deleted rows too so the (thread_id, seq) index never collides.
func WithSoftDelete(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}
