package model

import "fmt"

// Category is fixed reference data; rows are seeded, never created through the API.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
}

// Color is fixed reference data referenced by inventory variants.
type Color struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
}

// Age range units
const (
	UnitMonths = "months"
	UnitYears  = "years"
)

// AgeRange is a value object identified by its content (min, max, unit).
// It is shared between variants and removed once no variant references it.
type AgeRange struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	MinValue int    `gorm:"not null;default:0;uniqueIndex:idx_age_range_bounds" json:"min_value"`
	MaxValue int    `gorm:"not null;uniqueIndex:idx_age_range_bounds" json:"max_value"`
	Unit     string `gorm:"type:varchar(10);not null;default:'years';uniqueIndex:idx_age_range_bounds" json:"unit"`
}

func (AgeRange) TableName() string {
	return "age_ranges"
}

// Label renders the range the way it appears on order emails and reports, e.g. "0-6 months".
func (a *AgeRange) Label() string {
	if a == nil {
		return ""
	}
	return fmt.Sprintf("%d-%d %s", a.MinValue, a.MaxValue, a.Unit)
}

// DefaultCategories is the boutique's fixed category list.
var DefaultCategories = []string{
	"Special prices",
	"Cotton overalls and sets",
	"Wool Fleece and velvet overalls",
	"Baby boy",
	"Baby girls",
	"Boys",
	"Girls",
	"Blankets",
	"Bath towels",
	"Cotton Underwears",
	"Bibs",
	"Baby shoes",
	"Socks and tights",
	"Baby gadgets toys",
	"Others",
}

// DefaultColors is the fixed palette variants can be stocked in.
var DefaultColors = []string{
	"Red", "Blue", "Green", "Yellow", "Pink",
	"White", "Black", "Gray", "Purple", "Orange",
	"Brown", "Gold", "Silver",
}
