package entity

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/luckydrop/backend/pkg/enum"
)

type DistributionMode string

var (
	RandomDistribution = enum.New(DistributionMode("random"), "random")
	ManualDistribution = enum.New(DistributionMode("manual"), "manual")
)

type DropStatus string

var (
	DraftDrop = enum.New(DropStatus("draft"), "draft")
	LiveDrop  = enum.New(DropStatus("live"), "live")
)

type MediaType string

var (
	CardMedia  = enum.New(MediaType("card"), "card")
	AudioMedia = enum.New(MediaType("audio"), "audio")
	VideoMedia = enum.New(MediaType("video"), "video")
)

type Gift struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	Platform    string `json:"platform,omitempty"`
	URL         string `json:"url,omitempty"`
	Price       string `json:"price,omitempty"`
	Description string `json:"description,omitempty"`
}

type Media struct {
	Type     MediaType `json:"type"`
	URL      string    `json:"url"`
	Title    string    `json:"title,omitempty"`
	PublicID string    `json:"public_id,omitempty"`
}

// MediaList is always written as an array. Rows written by early versions
// hold a single object, which is read as a one element list.
type MediaList []Media

func (m *MediaList) Scan(obj any) error {
	var b []byte
	switch t := obj.(type) {
	case nil:
		*m = nil
		return nil
	case string:
		b = []byte(t)
	case []byte:
		b = t
	default:
		return fmt.Errorf("cannot scan invalid data type %T", obj)
	}

	if len(b) == 0 || string(b) == "null" {
		*m = nil
		return nil
	}

	var list []Media
	if err := json.Unmarshal(b, &list); err == nil {
		*m = list
		return nil
	}

	var single Media
	if err := json.Unmarshal(b, &single); err != nil {
		return err
	}

	*m = MediaList{single}
	return nil
}

func (m MediaList) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}

	return json.Marshal([]Media(m))
}

func (MediaList) GormDataType() string {
	return "json"
}

type GiftDrop struct {
	Base

	UserID string `gorm:"index"`
	User   User   `gorm:"foreignKey:UserID"`

	Title            string
	Message          string
	Gifts            Array[Gift]
	DistributionMode DistributionMode
	GifterMedia      MediaList
	Status           DropStatus

	SelectedGiftID    sql.NullString
	RecipientName     sql.NullString
	RecipientAddress  sql.NullString
	RecipientOpenedAt sql.NullTime
}

func (GiftDrop) TableName() string {
	return "gift_drops"
}

func (d *GiftDrop) GetGift(id string) (Gift, bool) {
	for _, g := range d.Gifts {
		if g.ID == id {
			return g, true
		}
	}

	return Gift{}, false
}

func (d *GiftDrop) IsOpened() bool {
	return d.RecipientOpenedAt.Valid
}

func (d *GiftDrop) HasSelection() bool {
	return d.SelectedGiftID.Valid && d.SelectedGiftID.String != ""
}

func (d *GiftDrop) HasRecipientDetails() bool {
	return d.RecipientName.Valid
}

// GiftID returns the positional id of the index-th gift of a drop.
func GiftID(dropID string, index int) string {
	return fmt.Sprintf("%s-gift-%d", dropID, index)
}
