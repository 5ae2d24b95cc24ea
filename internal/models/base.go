package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// newID fills a zero primary key before insert.
func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(tx *gorm.DB) error        { newID(&u.ID); return nil }
func (p *Post) BeforeCreate(tx *gorm.DB) error        { newID(&p.ID); return nil }
func (c *Comment) BeforeCreate(tx *gorm.DB) error     { newID(&c.ID); return nil }
func (t *Tag) BeforeCreate(tx *gorm.DB) error         { newID(&t.ID); return nil }
func (v *PostVote) BeforeCreate(tx *gorm.DB) error    { newID(&v.ID); return nil }
func (v *CommentVote) BeforeCreate(tx *gorm.DB) error { newID(&v.ID); return nil }
func (r *UserReport) BeforeCreate(tx *gorm.DB) error  { newID(&r.ID); return nil }
func (b *Bookmark) BeforeCreate(tx *gorm.DB) error    { newID(&b.ID); return nil }
