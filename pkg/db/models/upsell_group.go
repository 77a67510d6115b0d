package models

import (
	"encoding/json"
	"time"
)

// UpsellGroup is a merchant-defined set of product references offered together
// at checkout. Product identifiers are Shopify GIDs stored as a JSON-encoded
// string array; the shop column is the tenant partition key.
type UpsellGroup struct {
	ID         uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Shop       string    `gorm:"column:shop;not null;index"`
	Title      string    `gorm:"column:title;not null"`
	ProductIDs string    `gorm:"column:product_ids;not null;default:'[]'"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// DecodeProductIDs unpacks the stored JSON identifier list.
func (g *UpsellGroup) DecodeProductIDs() ([]string, error) {
	if g.ProductIDs == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(g.ProductIDs), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// EncodeProductIDs serializes the identifier list for storage.
func EncodeProductIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
