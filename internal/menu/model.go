package menu

import "time"

type Category string

const (
	CategoryFood  Category = "food"
	CategoryDrink Category = "drink"
)

func (c Category) Valid() bool {
	return c == CategoryFood || c == CategoryDrink
}

// MenuItem is a catalog entry. Price is in whole rupiah; stock is the
// quantity currently available for sale and never goes negative.
type MenuItem struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Price     int       `json:"price"`
	Category  Category  `json:"category"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateMenuItemInput struct {
	Name     string   `json:"name"`
	Price    int      `json:"price"`
	Category Category `json:"category"`
	Stock    int      `json:"stock"`
}

type UpdateMenuItemInput struct {
	Name     *string   `json:"name"`
	Price    *int      `json:"price"`
	Category *Category `json:"category"`
	Stock    *int      `json:"stock"`
}

// Reservation is one line of a stock adjustment batch.
type Reservation struct {
	MenuID   uint
	Quantity int
}
