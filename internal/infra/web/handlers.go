package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/flow"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/repository"
)

// ---- wire types ----

type productDTO struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"seller_id"`
	Title       string    `json:"title"`
	Price       int64     `json:"price"`
	Discount    int       `json:"discount"`
	FinalPrice  int64     `json:"final_price"`
	Description string    `json:"description,omitempty"`
	Images      []string  `json:"images"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock"`
	Likes       int       `json:"likes"`
	Rating      float64   `json:"rating"`
	RatingCount int       `json:"rating_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func toProductDTO(p *model.Product) productDTO {
	return productDTO{
		ID:          p.ID,
		SellerID:    p.SellerID,
		Title:       p.Title,
		Price:       p.Price,
		Discount:    p.Discount,
		FinalPrice:  p.DiscountedPrice(),
		Description: p.Description,
		Images:      p.Images,
		Category:    p.Category,
		Stock:       p.Stock,
		Likes:       len(p.Likes),
		Rating:      p.Rating,
		RatingCount: p.RatingCount,
		CreatedAt:   p.CreatedAt,
	}
}

type userDTO struct {
	TelegramID string    `json:"telegram_id"`
	Username   string    `json:"username,omitempty"`
	FirstName  string    `json:"first_name,omitempty"`
	Role       string    `json:"role"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

func toUserDTO(u *model.User) userDTO {
	return userDTO{
		TelegramID: u.TelegramID,
		Username:   u.Username,
		FirstName:  u.FirstName,
		Role:       string(u.Role),
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
	}
}

type orderDTO struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id"`
	ProductIDs []string  `json:"product_ids"`
	Status     string    `json:"status"`
	TotalPrice int64     `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
}

func toOrderDTO(o *model.Order) orderDTO {
	return orderDTO{
		ID:         o.ID,
		ClientID:   o.ClientID,
		ProductIDs: o.ProductIDs,
		Status:     string(o.Status),
		TotalPrice: o.TotalPrice,
		CreatedAt:  o.CreatedAt,
	}
}

type messageDTO struct {
	ID        string    `json:"id"`
	FromID    string    `json:"from_id"`
	ToID      string    `json:"to_id"`
	Text      string    `json:"text"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func toMessageDTO(m *model.Message) messageDTO {
	return messageDTO{
		ID:        m.ID,
		FromID:    m.FromID,
		ToID:      m.ToID,
		Text:      m.Text,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrPermissionDenied):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrOutOfStock):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func pageParams(r *http.Request, defaultLimit int) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = defaultLimit
	}
	return offset, limit
}

// ---- products ----

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r, 20)
	filter := repository.ProductFilter{
		Category: r.URL.Query().Get("category"),
		SellerID: r.URL.Query().Get("seller_id"),
		Offset:   offset,
		Limit:    limit,
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("min_price"), 10, 64); err == nil {
		filter.MinPrice = v
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("max_price"), 10, 64); err == nil {
		filter.MaxPrice = v
	}

	products, err := s.products.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	total, err := s.products.Count(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	data := make([]productDTO, 0, len(products))
	for _, p := range products {
		data = append(data, toProductDTO(p))
	}
	writeJSON(w, http.StatusOK, struct {
		Data   []productDTO `json:"data"`
		Total  int          `json:"total"`
		Offset int          `json:"offset"`
		Limit  int          `json:"limit"`
	}{data, total, offset, limit})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	prod, err := s.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(prod))
}

type productCreateRequest struct {
	Title       string   `json:"title"`
	Price       int64    `json:"price"`
	Discount    int      `json:"discount"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Stock       int      `json:"stock"`
	Images      []string `json:"images"`
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if claims.Role == string(model.RoleClient) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var req productCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	prod, err := s.products.CreateFromDraft(r.Context(), claims.Subject, flow.ProductDraft{
		Title:       req.Title,
		Price:       req.Price,
		Discount:    req.Discount,
		Description: req.Description,
		Category:    req.Category,
		Stock:       req.Stock,
		Images:      req.Images,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(prod))
}

type productUpdateRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req productUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	prod, err := s.products.UpdateField(r.Context(), claims.Subject, chi.URLParam(r, "id"), req.Field, req.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(prod))
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if err := s.products.Delete(r.Context(), claims.Subject, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- categories ----

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.categories.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	type categoryDTO struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	data := make([]categoryDTO, 0, len(cats))
	for _, c := range cats {
		data = append(data, categoryDTO{ID: c.ID, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, data)
}

// createCategory creates a category directly, skipping the bot's
// approval round-trip: the caller is already an admin.
func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.categories.Approve(r.Context(), claims.Subject, req.Name, ""); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Name string `json:"name"`
	}{req.Name})
}

// ---- orders ----

type orderCreateRequest struct {
	ProductIDs []string `json:"product_ids"`
}

// placeOrder checks out the given products: they are added to the
// caller's cart (idempotently) and the cart is checked out whole. If
// anything fails, the additions made here are rolled back so the cart
// is left the way the caller had it.
func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req orderCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var added []string
	undo := func() {
		for _, id := range added {
			_ = s.cart.Remove(r.Context(), claims.Subject, id)
		}
	}
	for _, id := range req.ProductIDs {
		fresh, err := s.cart.Add(r.Context(), claims.Subject, id)
		if err != nil {
			undo()
			writeError(w, err)
			return
		}
		if fresh {
			added = append(added, id)
		}
	}

	order, err := s.orders.Checkout(r.Context(), claims.Subject)
	if err != nil {
		undo()
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(order))
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	offset, limit := pageParams(r, 20)

	var (
		orders []*model.Order
		err    error
	)
	if claims.Role == string(model.RoleClient) {
		orders, err = s.orders.ListByClient(r.Context(), claims.Subject, offset, limit)
	} else {
		orders, err = s.orders.ListAll(r.Context(), offset, limit)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	data := make([]orderDTO, 0, len(orders))
	for _, o := range orders {
		data = append(data, toOrderDTO(o))
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) changeOrderStatus(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	order, err := s.orders.ChangeStatus(r.Context(), claims.Subject, chi.URLParam(r, "id"), model.OrderStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

// ---- users ----

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	data := make([]userDTO, 0, len(users))
	for _, u := range users {
		data = append(data, toUserDTO(u))
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	id := chi.URLParam(r, "id")
	if id != claims.Subject && claims.Role != string(model.RoleAdmin) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	user, err := s.users.GetByTelegramID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

func (s *Server) changeUserRole(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := s.users.ChangeRole(r.Context(), claims.Subject, chi.URLParam(r, "id"), role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// ---- chat ----

func (s *Server) chatHistory(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	peer := r.URL.Query().Get("peer")
	if peer == "" {
		http.Error(w, "peer is required", http.StatusBadRequest)
		return
	}
	offset, limit := pageParams(r, 50)

	messages, err := s.chat.History(r.Context(), claims.Subject, peer, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	data := make([]messageDTO, 0, len(messages))
	for _, m := range messages {
		data = append(data, toMessageDTO(m))
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) sendChatMessage(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req struct {
		To   string `json:"to"`
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := s.chat.Send(r.Context(), claims.Subject, req.To, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMessageDTO(msg))
}
