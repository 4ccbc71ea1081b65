package entity

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"category"`
}

type Region struct {
	ID   int    `json:"id"`
	Name string `json:"district"`
}

type TradeLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	PlaceName string  `json:"placeName"`
	Address   string  `json:"address,omitempty"`
}

type Seller struct {
	Nickname   string `json:"nickname"`
	ProfileImg string `json:"profileImg,omitempty"`
}

type Listing struct {
	ID         int64          `json:"id"`
	Title      string         `json:"title"`
	Price      int64          `json:"price"`
	Status     string         `json:"itemStatus"`
	Category   Category       `json:"Category"`
	Region     Region         `json:"Region"`
	Images     []string       `json:"images,omitempty"`
	ImgURL     string         `json:"imgUrl,omitempty"`
	OwnerID    UserID         `json:"userId"`
	BuyerID    *UserID        `json:"buyerId"`
	IsFavorite bool           `json:"isFavorite"`
	FavCount   int            `json:"favCount"`
	Detail     string         `json:"detail,omitempty"`
	Location   *TradeLocation `json:"map,omitempty"`
	Seller     *Seller        `json:"user,omitempty"`
}

// Available reports whether nobody has bought the listing yet.
func (l Listing) Available() bool {
	return l.BuyerID == nil || l.BuyerID.IsZero()
}

func (l Listing) CoverImage() string {
	if l.ImgURL != "" {
		return l.ImgURL
	}
	if len(l.Images) > 0 {
		return l.Images[0]
	}
	return ""
}

// ListingStatuses are the condition grades a seller can pick on the edit form.
var ListingStatuses = []string{"새상품", "최상", "상", "중", "하"}

// ListingForm is the seller's edit form. Price is the raw text input, which may
// carry grouping separators.
type ListingForm struct {
	CategoryID int         `json:"categoryId" validate:"required,gt=0"`
	Title      string      `json:"title" validate:"required"`
	ItemStatus string      `json:"itemStatus" validate:"required,oneof=새상품 최상 상 중 하"`
	Price      string      `json:"price" validate:"required"`
	Detail     string      `json:"detail" validate:"required"`
	Images     []ImageFile `json:"-" validate:"max=5"`
	Latitude   float64     `json:"latitude" validate:"required,latitude"`
	Longitude  float64     `json:"longitude" validate:"required,longitude"`
	PlaceName  string      `json:"placeName" validate:"required"`
}

type SoldItemsPage struct {
	Items      []Listing `json:"items"`
	TotalItems int       `json:"totalItems"`
	TotalPages int       `json:"totalPages"`
	Page       int       `json:"page"`
}

type MyPage struct {
	Nickname      string    `json:"nickname,omitempty"`
	SoldItems     []Listing `json:"soldItems"`
	BoughtItems   []Listing `json:"boughtItems"`
	FavoriteItems []Listing `json:"favoriteItems"`
}
