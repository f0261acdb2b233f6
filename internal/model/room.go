package model

import "time"

type Room struct {
	ID        string
	Name      string
	Capacity  int
	Location  string
	Notes     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
