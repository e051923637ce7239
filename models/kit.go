package models

// Kit groups products by reference. It does not own them; a referenced
// product may be missing from the catalog.
type Kit struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	ProductIDs  []ID   `json:"productIds"`
}

type KitInput struct {
	Name        string
	Description string
	Image       string
	ProductIDs  []ID
}

func (in KitInput) Apply(k *Kit) {
	k.Name = in.Name
	k.Description = in.Description
	k.Image = in.Image
	k.ProductIDs = in.ProductIDs
}
