package entity

type OAuth2 struct {
	UserID string `gorm:"primaryKey"`
	User   User   `gorm:"foreignKey:UserID"`

	Service       string `gorm:"primaryKey;uniqueIndex:idx_oauth2_service_user"`
	ServiceUserID string `gorm:"uniqueIndex:idx_oauth2_service_user"`
}

func (OAuth2) TableName() string {
	return "oauth2"
}
