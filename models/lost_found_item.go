// models/lost_found_item.go
package models

import "time"

const LostFoundTable = "cl_lost_found_items"

type ItemType string

const (
	ItemLost  ItemType = "lost"
	ItemFound ItemType = "found"
)

func (t ItemType) Valid() bool { return t == ItemLost || t == ItemFound }

type LostFoundItem struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	Type           ItemType  `gorm:"size:10;index;not null" json:"type"`
	Item           string    `gorm:"size:200;not null" json:"item"`
	Category       string    `gorm:"size:100;not null" json:"category"`
	Description    string    `gorm:"type:text;not null" json:"description"`
	Location       string    `gorm:"size:255;not null" json:"location"`
	ImageURL       string    `gorm:"type:text" json:"imageUrl,omitempty"`       // URL 或 base64
	GeminiAnalysis string    `gorm:"type:text" json:"geminiAnalysis,omitempty"` // 前端 AI 分析得到的描述
	ReporterID     string    `gorm:"type:uuid;index" json:"reporterId"`
	Reporter       *User     `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (LostFoundItem) TableName() string { return LostFoundTable }

func (it *LostFoundItem) HasAnalysis() bool { return it.GeminiAnalysis != "" }

// OwnedBy reports whether userID filed this report.
func (it *LostFoundItem) OwnedBy(userID string) bool {
	return userID != "" && it.ReporterID == userID
}
