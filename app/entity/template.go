package entity

import "time"

type Template struct {
	ID uint64

	Name        string
	DisplayName string
	Description string

	HTMLTemplate string
	CSSTemplate  string

	IsActive bool

	CreatedAt time.Time
}
