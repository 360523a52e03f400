package revocation

import "time"

// UserTokenVersion is the persisted minimum-valid-version counter for one
// user. Refresh tokens minted with a lower version are rejected; persisting
// the counter means "log out everywhere" survives process restarts.
type UserTokenVersion struct {
	UserID    uint `gorm:"primaryKey"`
	Version   int  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (UserTokenVersion) TableName() string {
	return "user_token_versions"
}
