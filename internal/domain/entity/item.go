package entity

import "time"

const (
	ItemTypeLost  = "lost"
	ItemTypeFound = "found"

	ItemStatusOpen     = "open"
	ItemStatusResolved = "resolved"
)

// SuggestedCategories is the fixed set offered by clients. Category itself is a
// free-form tag; anything outside this list is still accepted.
var SuggestedCategories = []string{
	"Electronics", "Keys", "Wallet", "Documents", "Jewelry", "Clothing", "Pets", "Other",
}

type ItemReport struct {
	ID          string     `json:"id" firestore:"id"`
	Type        string     `json:"type" firestore:"type"` // "lost" or "found"
	Category    string     `json:"category" firestore:"category"`
	Title       string     `json:"title" firestore:"title"`
	Description string     `json:"description" firestore:"description"`
	Location    string     `json:"location" firestore:"location"`
	Lat         *float64   `json:"lat,omitempty" firestore:"lat,omitempty"`
	Lng         *float64   `json:"lng,omitempty" firestore:"lng,omitempty"`
	Date        string     `json:"date" firestore:"date"` // user-supplied, not creation time
	Contact     string     `json:"contact" firestore:"contact"`
	Image       string     `json:"image,omitempty" firestore:"image,omitempty"` // inline base64, size-capped
	Status      string     `json:"status" firestore:"status"`
	AuthorID    string     `json:"author_id" firestore:"authorId"`
	AuthorName  string     `json:"author_name" firestore:"authorName"`
	CreatedAt   time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time  `json:"updated_at" firestore:"updatedAt"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" firestore:"deletedAt,omitempty"`
}

// CounterpartType returns the type a matching report must carry: a lost item
// matches found reports and vice versa. Empty for an unknown type.
func (i *ItemReport) CounterpartType() string {
	switch i.Type {
	case ItemTypeLost:
		return ItemTypeFound
	case ItemTypeFound:
		return ItemTypeLost
	}
	return ""
}
