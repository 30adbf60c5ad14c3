// Package flow defines the conversational state machine records: one
// tagged record per flow kind, keyed by (kind, chat id) in a StateStore.
package flow

import (
	"time"
)

// Kind partitions conversational state: a chat may hold at most one
// record per kind, and records of different kinds coexist.
type Kind string

const (
	KindSeller      Kind = "seller"
	KindEditProduct Kind = "editProduct"
	KindAdmin       Kind = "admin"
	KindContact     Kind = "contact"
	KindChat        Kind = "chat"
	KindRating      Kind = "rating"
	KindFilter      Kind = "filter"
	KindOrderFilter Kind = "orderFilter"
)

// Kinds is the closed set accepted by the StateStore.
var Kinds = []Kind{
	KindSeller, KindEditProduct, KindAdmin, KindContact,
	KindChat, KindRating, KindFilter, KindOrderFilter,
}

func ValidKind(k Kind) bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}

// Steps of the product-creation wizard, in strict forward order.
const (
	StepTitle             = "title"
	StepPrice             = "price"
	StepDiscount          = "discount"
	StepDescription       = "description"
	StepCategorySelection = "category_selection"
	StepStock             = "stock"
	StepImage             = "image"

	// Category-approval sub-flow, shared by creation and edit.
	StepNewCategoryRequest     = "new_category_request"
	StepConfirmCategoryRequest = "confirm_category_request"
	StepWaitCategoryApproval   = "wait_for_category_approval"

	// Edit-wizard-only steps reuse the field names above plus:
	StepImages = "images"

	// Admin rejection-reason prompt.
	StepRejectReason = "reject_reason"

	// Registration.
	StepAwaitingContact = "awaiting_contact"
)

// ProductDraft accumulates the fields collected by the creation wizard.
type ProductDraft struct {
	Title       string   `json:"title,omitempty"`
	Price       int64    `json:"price,omitempty"`
	Discount    int      `json:"discount,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Stock       int      `json:"stock,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// EditTarget identifies the product and field being edited.
type EditTarget struct {
	ProductID string `json:"product_id"`
	Field     string `json:"field,omitempty"`
}

// RejectPrompt carries the pending category rejection an admin is
// typing a reason for.
type RejectPrompt struct {
	CategoryName    string `json:"category_name"`
	RequesterChatID string `json:"requester_chat_id"`
}

// ChatPeer records the peer selected for a user-to-user chat relay.
type ChatPeer struct {
	PeerID string `json:"peer_id"`
}

// State is the per-(kind, chat) record. Step is always set; exactly the
// payload matching the kind is populated, so a handler never reads a
// field another kind wrote.
type State struct {
	Step string `json:"step"`

	Draft  *ProductDraft `json:"draft,omitempty"`  // KindSeller
	Edit   *EditTarget   `json:"edit,omitempty"`   // KindEditProduct
	Reject *RejectPrompt `json:"reject,omitempty"` // KindAdmin
	Peer   *ChatPeer     `json:"peer,omitempty"`   // KindChat

	// PendingCategory and RequestedAt back the category-approval
	// sub-flow for both seller and editProduct kinds; RequestedAt
	// drives the timeout sweep.
	PendingCategory string    `json:"pending_category,omitempty"`
	RequestedAt     time.Time `json:"requested_at,omitempty"`
}

// Clone returns a deep copy so store reads never alias live records.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Draft != nil {
		d := *s.Draft
		d.Images = append([]string(nil), s.Draft.Images...)
		cp.Draft = &d
	}
	if s.Edit != nil {
		e := *s.Edit
		cp.Edit = &e
	}
	if s.Reject != nil {
		r := *s.Reject
		cp.Reject = &r
	}
	if s.Peer != nil {
		p := *s.Peer
		cp.Peer = &p
	}
	return &cp
}

// NewSellerState starts the product-creation wizard at its first step.
func NewSellerState() *State {
	return &State{Step: StepTitle, Draft: &ProductDraft{}}
}

// NewEditState starts a single-field edit for the given product.
func NewEditState(productID, field string) *State {
	return &State{Step: field, Edit: &EditTarget{ProductID: productID, Field: field}}
}
