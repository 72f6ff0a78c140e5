// model.go defines the persisted data model for the dedup store.
package datastore

// SeenReport records a report identity that has already been processed.
// Presence of a row is the sole dedup signal; report content is never
// compared or stored.
type SeenReport struct {
	ID     uint   `gorm:"primaryKey"`
	Report string `gorm:"type:text;not null;index:idx_reports_report"`
}

// TableName pins the table name so an existing database keeps its dedup
// history across upgrades.
func (SeenReport) TableName() string {
	return "reports"
}
