package models

import "time"

// Document representa um documento indexado. The embeddings themselves live in
// the qdrant collection; IndexRef is the reference recorded at upload time and
// the point payloads carry the document id for retraction.
type Document struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Filename  string     `gorm:"not null" json:"filename" form:"filename"`
	FileType  string     `gorm:"not null" json:"file_type" form:"file_type"`
	Content   string     `gorm:"type:text" json:"content" form:"content"`
	IndexRef  string     `gorm:"column:index_ref" json:"index_ref"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Preview returns the truncated content used in listings.
func (d Document) Preview(max int) string {
	if max <= 0 || len(d.Content) <= max {
		return d.Content
	}
	return d.Content[:max]
}
