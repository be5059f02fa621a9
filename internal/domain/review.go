package domain

import "time"

type Review struct {
	ID        string
	Author    string
	Avatar    string
	Text      string
	Rating    float64
	CreatedAt time.Time
}
