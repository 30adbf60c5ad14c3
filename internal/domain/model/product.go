package model

import (
	"time"

	"telegram-marketplace/internal/domain"
)

const (
	MinTitleLen    = 3
	MaxTitleLen    = 100
	MaxImages      = 3
	MaxCategoryLen = 50
)

// Comment is a user remark attached to a product, optionally with one
// seller reply.
type Comment struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Reply     *Reply    `json:"reply,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Reply struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a seller listing. Prices are integral (smallest currency
// unit); Discount is a percentage in [0,100].
type Product struct {
	ID          string
	SellerID    string
	Title       string
	Price       int64
	Discount    int
	Description string
	Images      []string
	Category    string
	Stock       int
	Likes       []string
	Comments    []Comment
	Rating      float64
	RatingCount int
	IsActive    bool
	CreatedAt   time.Time
}

func NewProduct(id, sellerID, title string, price int64, discount int, description, category string, stock int, images []string) (*Product, error) {
	if id == "" || sellerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if len(title) < MinTitleLen || price <= 0 || discount < 0 || discount > 100 || stock < 0 {
		return nil, domain.ErrValidation
	}
	if len(images) == 0 || len(images) > MaxImages {
		return nil, domain.ErrValidation
	}
	if category == "" {
		category = "Uncategorized"
	}
	return &Product{
		ID:          id,
		SellerID:    sellerID,
		Title:       title,
		Price:       price,
		Discount:    discount,
		Description: description,
		Images:      images,
		Category:    category,
		Stock:       stock,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}, nil
}

func (p *Product) IsZero() bool { return p == nil || p.ID == "" }

// DiscountedPrice is the effective unit price after the discount.
func (p *Product) DiscountedPrice() int64 {
	if p.Discount <= 0 {
		return p.Price
	}
	return p.Price - p.Price*int64(p.Discount)/100
}

// AddComment appends a remark to the product's comment thread.
func (p *Product) AddComment(userID, username, text string) {
	p.Comments = append(p.Comments, Comment{
		UserID:    userID,
		Username:  username,
		Text:      text,
		CreatedAt: time.Now(),
	})
}

func (p *Product) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// ToggleLike adds the user to the like set, or removes them when
// already present. Returns true when the result is a like.
func (p *Product) ToggleLike(userID string) bool {
	if p.LikedBy(userID) {
		out := p.Likes[:0]
		for _, id := range p.Likes {
			if id != userID {
				out = append(out, id)
			}
		}
		p.Likes = out
		return false
	}
	p.Likes = append(p.Likes, userID)
	return true
}
