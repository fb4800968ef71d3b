// internal/models/product.go
package models

import (
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Name        string          `json:"name" gorm:"size:255;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Category    ProductCategory `json:"category" gorm:"type:varchar(20);not null;index"`
	ImageURL    string          `json:"image" gorm:"size:512"`
	FileKey     string          `json:"-" gorm:"size:512"`
	Features    pq.StringArray  `json:"features" gorm:"type:text[]"`
	Version     string          `json:"version" gorm:"size:50"`
	Downloads   int64           `json:"downloads" gorm:"default:0"`
	Rating      float64         `json:"rating" gorm:"type:decimal(3,2);default:0"`
	IsNew       bool            `json:"isNew" gorm:"default:false"`
	IsFeatured  bool            `json:"isFeatured" gorm:"default:false"`
	Tags        pq.StringArray  `json:"tags" gorm:"type:text[]"`
}
