package category

import "strings"

// Item is one catalogue category with its display names.
type Item struct {
	Name   string `json:"name"`
	NameUz string `json:"nameUz"`
}

// All is the pseudo-category that matches every product. It is listed for
// filtering but cannot be assigned to a product.
const All = "All"

var catalogue = []Item{
	{Name: All, NameUz: "Barchasi"},
	{Name: "Shoes", NameUz: "Poyabzal"},
	{Name: "T-Shirts", NameUz: "Futbolka"},
	{Name: "Clothes", NameUz: "Kiyim"},
	{Name: "Books", NameUz: "Kitoblar"},
	{Name: "Accessories", NameUz: "Aksessuarlar"},
	{Name: "Universal", NameUz: "Universal"},
}

// List returns the catalogue, All first.
func List() []Item {
	out := make([]Item, len(catalogue))
	copy(out, catalogue)
	return out
}

// Valid reports whether name is a category a product may belong to.
func Valid(name string) bool {
	if name == All {
		return false
	}
	for _, it := range catalogue {
		if it.Name == name {
			return true
		}
	}
	return false
}

// Normalize maps an English or Uzbek display name to the stored English name.
// Unknown names are returned unchanged.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	for _, it := range catalogue {
		if strings.EqualFold(it.Name, name) || strings.EqualFold(it.NameUz, name) {
			return it.Name
		}
	}
	return name
}

// Translate renders a stored category name in lang ("uz" or "en").
func Translate(name, lang string) string {
	for _, it := range catalogue {
		if it.Name == name || it.NameUz == name {
			if lang == "uz" {
				return it.NameUz
			}
			return it.Name
		}
	}
	return name
}
