package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null;default:basic"   json:"role"`
	RefreshToken string    `gorm:"index"                    json:"-"`
	Avatar       string    `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Department struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"unique;not null"          json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Instrument struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null"                 json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Note is a piece of sheet music in the school library.
type Note struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	File         string    `gorm:"not null"                 json:"file"`
	Author       string    `gorm:"not null"                 json:"author"`
	Type         string    `gorm:"not null"                 json:"type"`
	PublisherID  *uint     `gorm:"index"                    json:"publisher_id,omitempty"`
	InstrumentID *uint     `gorm:"index"                    json:"instrument_id,omitempty"`
	Grade        *int      `json:"grade,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var NoteTypes = []string{"polyphony", "big_form", "etude", "piece", "exercise", "duet", "trio"}
