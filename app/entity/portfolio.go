package entity

import "time"

type Portfolio struct {
	ID uint64

	Username  string
	TokenName string

	Ticker          string
	ContractAddress string
	Slogan          string
	Description     string
	Template        string

	LogoURL     string
	BannerURL   string
	TwitterURL  string
	TelegramURL string
	WebsiteURL  string

	IsPublished bool
	PublishedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
