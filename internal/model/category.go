package model

type Category struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

type CreateCategoryInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Palette is the fixed set of category colors.
var Palette = []string{"blue", "emerald", "red", "amber", "purple", "pink", "slate"}

func ValidColor(c string) bool {
	for _, p := range Palette {
		if p == c {
			return true
		}
	}
	return false
}

// DefaultCategories are created for a user on the first category read.
var DefaultCategories = []CreateCategoryInput{
	{Name: "Work", Color: "blue"},
	{Name: "Personal", Color: "emerald"},
	{Name: "Urgent", Color: "red"},
	{Name: "Study", Color: "amber"},
}
