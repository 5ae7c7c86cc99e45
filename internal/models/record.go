package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// PostStatus represents the outcome of a posting run
type PostStatus string

const (
	PostStatusSuccess    PostStatus = "success"
	PostStatusGenFailed  PostStatus = "gen_fail"
	PostStatusPostFailed PostStatus = "post_fail"
)

// StringSlice is a custom type for storing string arrays as JSON
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	return json.Unmarshal(value.([]byte), s)
}

// PostRecord is the append-only log of one posting attempt. Written for
// every run that got past selection, success or not.
type PostRecord struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	Bot           string      `gorm:"index;not null" json:"bot"`
	Mode          string      `gorm:"index;not null" json:"mode"`
	ItemTitle     string      `gorm:"not null" json:"item_title"`
	ItemID        string      `json:"item_id"` // ASIN or other stable identifier, may be empty
	PrimaryPostID string      `gorm:"index" json:"primary_post_id"`
	ReplyPostID   string      `json:"reply_post_id"`
	Link          string      `json:"link"`
	Hashtags      StringSlice `gorm:"type:json" json:"hashtags"`
	Status        PostStatus  `gorm:"index;not null" json:"status"`
	ErrorMessage  string      `json:"error_message"`
	Harvested     bool        `gorm:"default:false" json:"harvested"`
	CreatedAt     time.Time   `gorm:"autoCreateTime" json:"created_at"`
}

// Succeeded reports whether the attempt produced a live post
func (p *PostRecord) Succeeded() bool {
	return p.Status == PostStatusSuccess
}

// EngagementRecord is one metrics observation for a published post
type EngagementRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PostRecordID uint      `gorm:"index" json:"post_record_id"`
	PostID       string    `gorm:"index;not null" json:"post_id"`
	Likes        int       `json:"likes"`
	Replies      int       `json:"replies"`
	Reposts      int       `json:"reposts"`
	Quotes       int       `json:"quotes"`
	HarvestedAt  time.Time `gorm:"autoCreateTime" json:"harvested_at"`
}
