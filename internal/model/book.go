package model

import "time"

// Book is a catalog entry owned by exactly one user.
type Book struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Title           string    `json:"title" gorm:"size:200;not null;index"`
	Author          string    `json:"author" gorm:"size:100;not null;index"`
	Description     string    `json:"description" gorm:"type:text"`
	PublicationYear *int      `json:"publication_year"`
	ISBN            *string   `json:"isbn" gorm:"column:isbn;size:20;uniqueIndex"`
	ImageURL        *string   `json:"image_url" gorm:"size:500"`
	OwnerID         uint      `json:"owner_id" gorm:"not null;index"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Only declares the cascading foreign key; never loaded.
	Owner *User `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
}

// BookPatch carries the fields of a partial update. Nil fields are left untouched.
type BookPatch struct {
	Title           *string
	Author          *string
	Description     *string
	PublicationYear *int
	ISBN            *string
	ImageURL        *string
}

// Columns returns the column/value pairs to write for the supplied fields.
func (p BookPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Author != nil {
		cols["author"] = *p.Author
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.PublicationYear != nil {
		cols["publication_year"] = *p.PublicationYear
	}
	if p.ISBN != nil {
		cols["isbn"] = *p.ISBN
	}
	if p.ImageURL != nil {
		cols["image_url"] = *p.ImageURL
	}
	return cols
}
