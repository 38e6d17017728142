package model

import "time"

type LivestreamStatus string

const (
	LivestreamStatusScheduled LivestreamStatus = "scheduled"
	LivestreamStatusLive      LivestreamStatus = "live"
	LivestreamStatusEnded     LivestreamStatus = "ended"
)

// Livestream 直播場次，引擎只做存在性驗證，不會異動
type Livestream struct {
	ID             string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrganizationID string           `gorm:"not null;index;type:varchar(36)" json:"organization_id"`
	Title          string           `gorm:"not null;type:varchar(200)" json:"title"`
	Status         LivestreamStatus `gorm:"not null;type:varchar(20);default:scheduled" json:"status"`
	StartedAt      *time.Time       `json:"started_at"`
	EndedAt        *time.Time       `json:"ended_at"`
	BaseModel
}

// ProductCategory 品項分類，引擎只做存在性驗證
type ProductCategory struct {
	ID             string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrganizationID string `gorm:"not null;index;type:varchar(36)" json:"organization_id"`
	Name           string `gorm:"not null;type:varchar(100)" json:"name"`
	BaseModel
}
