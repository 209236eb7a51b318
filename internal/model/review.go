package model

import "time"

const (
	MinScore = 1
	MaxScore = 10
)

// Review 评论：每位用户对同一作品只能有一条
type Review struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	TitleID        uint      `json:"title" gorm:"not null;uniqueIndex:idx_review_title_author"`
	AuthorID       uint      `json:"-" gorm:"not null;uniqueIndex:idx_review_title_author"`
	AuthorUsername string    `json:"author" gorm:"->;-:migration"`
	Text           string    `json:"text" gorm:"type:text;not null"`
	Score          int       `json:"score" gorm:"not null;check:chk_reviews_score,score >= 1 AND score <= 10"`
	PubDate        time.Time `json:"pub_date" gorm:"not null;index"`
	Title          *Title    `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Author         *User     `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
}

// Comment 评论下的回复
type Comment struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ReviewID       uint      `json:"-" gorm:"not null;index"`
	AuthorID       uint      `json:"-" gorm:"not null;index"`
	AuthorUsername string    `json:"author" gorm:"->;-:migration"`
	Text           string    `json:"text" gorm:"type:text;not null"`
	PubDate        time.Time `json:"pub_date" gorm:"not null;index"`
	Review         *Review   `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Author         *User     `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
}
