package product

// SampleProducts is the development catalogue inserted into an empty store.
var SampleProducts = []Input{
	{
		Title:       "Trail Runner Sneakers",
		Description: "Lightweight running shoes with a grippy sole",
		Category:    "Shoes",
		Price:       89000,
		Image:       "https://placehold.co/600x600?text=Sneakers",
	},
	{
		Title:       "Classic Cotton Tee",
		Description: "Soft crew-neck T-shirt in organic cotton",
		Category:    "T-Shirts",
		Price:       19000,
		Image:       "https://placehold.co/600x600?text=Tee",
	},
	{
		Title:       "Denim Jacket",
		Description: "Washed denim jacket with button front",
		Category:    "Clothes",
		Price:       129000,
		Image:       "https://placehold.co/600x600?text=Jacket",
	},
	{
		Title:       "The Go Programming Language",
		Description: "Hardcover edition covering the language and its library",
		Category:    "Books",
		Price:       45000,
		Image:       "https://placehold.co/600x600?text=Book",
	},
	{
		Title:       "Leather Card Wallet",
		Description: "Slim wallet with four card slots",
		Category:    "Accessories",
		Price:       25000,
		Image:       "https://placehold.co/600x600?text=Wallet",
	},
}
