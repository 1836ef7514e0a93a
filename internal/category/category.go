package category

// Category groups listings for browsing. Products refer to it by ID.
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Defaults are seeded on startup. IDs are stable so existing listings keep
// their category across restarts.
var Defaults = []Category{
	{ID: 1, Name: "Electronics", Description: "Phones, laptops, gadgets, and electronics"},
	{ID: 2, Name: "Clothing", Description: "Clothes, shoes, and accessories"},
	{ID: 3, Name: "Home & Garden", Description: "Furniture, decor, and garden items"},
	{ID: 4, Name: "Books & Media", Description: "Books, movies, music, and games"},
	{ID: 5, Name: "Sports & Outdoors", Description: "Sports equipment and outdoor gear"},
	{ID: 6, Name: "Toys & Games", Description: "Toys, board games, and collectibles"},
	{ID: 7, Name: "Other", Description: "Miscellaneous items"},
}
