package refreshtoken

import "time"

// RefreshToken is the server-side record for one issued refresh token. Only
// a sha256 hash of the signed token is stored; the raw token exists solely
// on the client.
type RefreshToken struct {
	ID            uint   `gorm:"primarykey"`
	UserID        uint   `gorm:"not null;index"`
	TokenHash     string `gorm:"not null;uniqueIndex;size:64"`
	ExpiresAt     time.Time
	Revoked       bool `gorm:"not null;default:false;index"`
	RevokedReason string
	IPAddress     string
	DeviceInfo    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// SessionInfo carries the request metadata recorded alongside a token.
type SessionInfo struct {
	IPAddress string
	UserAgent string
}
