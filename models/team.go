package models

import "time"

type Team struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CaptainID int       `json:"captain_id"`
	MemberIDs []int     `json:"member_ids"`
	CreatedAt time.Time `json:"created_at"`

	Captain *User  `json:"captain,omitempty"`
	Members []User `json:"members,omitempty"`
}
