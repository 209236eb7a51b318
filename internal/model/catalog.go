package model

// Category 作品分类（电影、书籍、音乐……）
type Category struct {
	ID   uint   `json:"-" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:256;not null"`
	Slug string `json:"slug" gorm:"size:50;uniqueIndex;not null"`
}

// Genre 作品类型
type Genre struct {
	ID   uint   `json:"-" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:256;not null"`
	Slug string `json:"slug" gorm:"size:50;uniqueIndex;not null"`
}

// Title 作品
type Title struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:256;not null"`
	Year        int       `json:"year" gorm:"not null;index"`
	Rating      *float64  `json:"rating" gorm:"->;-:migration"` // 查询时由评论分数实时计算
	Description *string   `json:"description" gorm:"type:text"`
	Genres      []Genre   `json:"genre" gorm:"-"`
	CategoryID  *uint     `json:"-" gorm:"index"`
	Category    *Category `json:"category" gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}

// GenreTitle 作品与类型的关联（显式关联表，导入数据时按自身 ID 寻址）
type GenreTitle struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	TitleID uint   `json:"title_id" gorm:"not null;uniqueIndex:idx_genre_title"`
	GenreID uint   `json:"genre_id" gorm:"not null;uniqueIndex:idx_genre_title"`
	Title   *Title `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Genre   *Genre `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
}
