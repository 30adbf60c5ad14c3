package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/adapter"
	"telegram-marketplace/internal/domain/ports/repository"
)

// Reply-keyboard captions. The router matches these verbatim, so they
// double as route keys.
const (
	btnProducts   = "🛍 Products"
	btnCart       = "🛒 Cart"
	btnOrders     = "📦 Orders"
	btnChat       = "💬 Chat"
	btnProfile    = "👤 Profile"
	btnAddProduct = "➕ Add product"
	btnMyProducts = "📋 My products"
	btnUsers      = "👥 Users"
	btnStats      = "📊 Stats"
)

const (
	productsPageSize = 5
	ordersPageSize   = 5
	usersPageSize    = 8
)

func (b *Bot) menuRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		btnProducts:   b.handleProductsMenu,
		btnCart:       b.handleCartMenu,
		btnOrders:     b.handleOrdersMenu,
		btnChat:       b.handleChatMenu,
		btnProfile:    b.handleProfileMenu,
		btnAddProduct: b.handleAddProductMenu,
		btnMyProducts: b.handleMyProductsMenu,
		btnUsers:      b.handleUsersMenu,
		btnStats:      b.handleStatsMenu,
	}
}

func (b *Bot) sendMainMenu(ctx context.Context, user *model.User, intro string) error {
	rows := [][]adapter.ReplyButton{
		{{Text: btnProducts}, {Text: btnCart}},
		{{Text: btnOrders}, {Text: btnChat}},
		{{Text: btnProfile}},
	}
	switch user.Role {
	case model.RoleSeller:
		rows = append(rows, []adapter.ReplyButton{{Text: btnAddProduct}, {Text: btnMyProducts}})
	case model.RoleAdmin:
		rows = append(rows,
			[]adapter.ReplyButton{{Text: btnAddProduct}, {Text: btnMyProducts}},
			[]adapter.ReplyButton{{Text: btnUsers}, {Text: btnStats}},
		)
	}
	return b.send.SendReplyKeyboard(ctx, user.TelegramID, intro, rows, false)
}

func (b *Bot) handleProductsMenu(ctx context.Context, message *tgbotapi.Message) error {
	return b.sendProductsPage(ctx, chatIDString(message.Chat.ID), repository.ProductFilter{}, 0)
}

func (b *Bot) handleMyProductsMenu(ctx context.Context, message *tgbotapi.Message) error {
	chatID := chatIDString(message.Chat.ID)
	return b.sendProductsPage(ctx, chatID, repository.ProductFilter{SellerID: chatID}, 0)
}

// sendProductsPage lists one page of active products as view buttons.
// Paging callbacks reset any one-shot filter; that matches how the
// filter prompt presents itself (a single filtered listing).
func (b *Bot) sendProductsPage(ctx context.Context, chatID string, filter repository.ProductFilter, offset int) error {
	filter.Offset = offset
	filter.Limit = productsPageSize

	products, err := b.products.List(ctx, filter)
	if err != nil {
		b.log.Error().Err(err).Msg("list products")
		return b.send.SendMessage(ctx, chatID, "Could not load products right now.")
	}
	total, err := b.products.Count(ctx, filter)
	if err != nil {
		total = offset + len(products)
	}
	if len(products) == 0 {
		return b.send.SendMessage(ctx, chatID, "No products found.")
	}

	rows := make([][]adapter.InlineButton, 0, len(products)+1)
	for _, p := range products {
		label := fmt.Sprintf("%s — %s", p.Title, formatPrice(p.DiscountedPrice()))
		rows = append(rows, []adapter.InlineButton{{Text: label, Data: "prod:view:" + p.ID}})
	}

	var nav []adapter.InlineButton
	if offset > 0 {
		prev := offset - productsPageSize
		if prev < 0 {
			prev = 0
		}
		nav = append(nav, adapter.InlineButton{Text: "⬅️", Data: "page:products:" + strconv.Itoa(prev)})
	}
	nav = append(nav, adapter.InlineButton{Text: "🔎 Filter", Data: "filter:open"})
	if offset+productsPageSize < total {
		nav = append(nav, adapter.InlineButton{Text: "➡️", Data: "page:products:" + strconv.Itoa(offset+productsPageSize)})
	}
	rows = append(rows, nav)

	header := fmt.Sprintf("Products %d–%d of %d:", offset+1, offset+len(products), total)
	return b.send.SendButtons(ctx, chatID, header, rows)
}

// sendProductCard renders the detailed product view. messageID > 0
// edits the existing card in place (image navigation).
func (b *Bot) sendProductCard(ctx context.Context, chatID string, prod *model.Product, imageIdx, messageID int) error {
	if imageIdx < 0 || imageIdx >= len(prod.Images) {
		imageIdx = 0
	}
	viewer := b.currentUser(ctx, chatID)

	caption := b.productCaption(prod, imageIdx)
	rows := b.productButtons(prod, viewer, imageIdx)

	if messageID > 0 {
		return b.send.EditMessagePhoto(ctx, chatID, messageID, prod.Images[imageIdx], caption, rows)
	}
	return b.send.SendPhoto(ctx, chatID, prod.Images[imageIdx], caption, rows)
}

func (b *Bot) productCaption(prod *model.Product, imageIdx int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏷 %s\n", prod.Title)
	if prod.Discount > 0 {
		fmt.Fprintf(&sb, "💰 %s (−%d%% → %s)\n", formatPrice(prod.Price), prod.Discount, formatPrice(prod.DiscountedPrice()))
	} else {
		fmt.Fprintf(&sb, "💰 %s\n", formatPrice(prod.Price))
	}
	fmt.Fprintf(&sb, "📂 %s | 📦 %d in stock\n", prod.Category, prod.Stock)
	if prod.RatingCount > 0 {
		fmt.Fprintf(&sb, "⭐ %.1f (%d ratings)\n", prod.Rating, prod.RatingCount)
	}
	fmt.Fprintf(&sb, "❤️ %d", len(prod.Likes))
	if len(prod.Images) > 1 {
		fmt.Fprintf(&sb, " | 🖼 %d/%d", imageIdx+1, len(prod.Images))
	}
	if prod.Description != "" {
		sb.WriteString("\n\n" + prod.Description)
	}
	if n := len(prod.Comments); n > 0 {
		fmt.Fprintf(&sb, "\n\n💬 Last comments (%d):", n)
		start := n - 3
		if start < 0 {
			start = 0
		}
		for _, c := range prod.Comments[start:] {
			fmt.Fprintf(&sb, "\n%s: %s", c.Username, c.Text)
		}
	}
	return sb.String()
}

func (b *Bot) productButtons(prod *model.Product, viewer *model.User, imageIdx int) [][]adapter.InlineButton {
	like := "🤍 Like"
	if viewer != nil && prod.LikedBy(viewer.TelegramID) {
		like = "❤️ Liked"
	}
	rows := [][]adapter.InlineButton{
		{
			{Text: like, Data: "prod:like:" + prod.ID},
			{Text: "🛒 Add to cart", Data: "cart:add:" + prod.ID},
		},
		{
			{Text: "⭐ Rate", Data: "prod:rate:" + prod.ID},
			{Text: "💬 Comment", Data: "prod:comment:" + prod.ID},
		},
	}
	if len(prod.Images) > 1 {
		prev := (imageIdx - 1 + len(prod.Images)) % len(prod.Images)
		next := (imageIdx + 1) % len(prod.Images)
		rows = append(rows, []adapter.InlineButton{
			{Text: "◀️", Data: fmt.Sprintf("prod:img:%d:%s", prev, prod.ID)},
			{Text: "▶️", Data: fmt.Sprintf("prod:img:%d:%s", next, prod.ID)},
		})
	}
	if viewer != nil && (viewer.TelegramID == prod.SellerID || viewer.Role == model.RoleAdmin) {
		rows = append(rows, []adapter.InlineButton{
			{Text: "✏️ Edit", Data: "prod:edit:" + prod.ID},
			{Text: "🗑 Delete", Data: "prod:del:" + prod.ID},
		})
	}
	return rows
}

func (b *Bot) sendEditMenu(ctx context.Context, chatID, productID string) error {
	rows := [][]adapter.InlineButton{
		{
			{Text: "Title", Data: "edit:title:" + productID},
			{Text: "Price", Data: "edit:price:" + productID},
			{Text: "Discount", Data: "edit:discount:" + productID},
		},
		{
			{Text: "Description", Data: "edit:description:" + productID},
			{Text: "Category", Data: "edit:category:" + productID},
			{Text: "Stock", Data: "edit:stock:" + productID},
		},
		{
			{Text: "Photos", Data: "edit:images:" + productID},
			{Text: "✖️ Cancel", Data: "edit:cancel:" + productID},
		},
	}
	return b.send.SendButtons(ctx, chatID, "What do you want to change?", rows)
}

func (b *Bot) handleCartMenu(ctx context.Context, message *tgbotapi.Message) error {
	return b.sendCartView(ctx, chatIDString(message.Chat.ID))
}

func (b *Bot) sendCartView(ctx context.Context, chatID string) error {
	products, total, err := b.cart.View(ctx, chatID)
	if err != nil {
		b.log.Error().Err(err).Msg("cart view")
		return b.send.SendMessage(ctx, chatID, "Could not load your cart right now.")
	}
	if len(products) == 0 {
		return b.send.SendMessage(ctx, chatID, "Your cart is empty.")
	}

	var sb strings.Builder
	sb.WriteString("🛒 Your cart:\n")
	rows := make([][]adapter.InlineButton, 0, len(products)+1)
	for _, p := range products {
		fmt.Fprintf(&sb, "• %s — %s\n", p.Title, formatPrice(p.DiscountedPrice()))
		rows = append(rows, []adapter.InlineButton{{Text: "❌ " + p.Title, Data: "cart:rm:" + p.ID}})
	}
	fmt.Fprintf(&sb, "\nTotal: %s", formatPrice(total))
	rows = append(rows, []adapter.InlineButton{
		{Text: "🧹 Clear", Data: "cart:clear"},
		{Text: "✅ Checkout", Data: "cart:checkout"},
	})
	return b.send.SendButtons(ctx, chatID, sb.String(), rows)
}

func (b *Bot) handleOrdersMenu(ctx context.Context, message *tgbotapi.Message) error {
	chatID := chatIDString(message.Chat.ID)
	user := b.currentUser(ctx, chatID)
	if user == nil {
		return b.send.SendMessage(ctx, chatID, "Please register first with /start.")
	}
	return b.sendOrdersPage(ctx, user, 0)
}

// sendOrdersPage lists orders newest first: clients see their own,
// sellers and admins see everything (transition rights are still
// checked per order when a button is pressed).
func (b *Bot) sendOrdersPage(ctx context.Context, user *model.User, offset int) error {
	var (
		orders []*model.Order
		err    error
	)
	if user.Role == model.RoleClient {
		orders, err = b.orders.ListByClient(ctx, user.TelegramID, offset, ordersPageSize)
	} else {
		orders, err = b.orders.ListAll(ctx, offset, ordersPageSize)
	}
	if err != nil {
		b.log.Error().Err(err).Msg("list orders")
		return b.send.SendMessage(ctx, user.TelegramID, "Could not load orders right now.")
	}
	if len(orders) == 0 {
		return b.send.SendMessage(ctx, user.TelegramID, "No orders here yet.")
	}

	var sb strings.Builder
	rows := make([][]adapter.InlineButton, 0, len(orders)+1)
	for _, o := range orders {
		fmt.Fprintf(&sb, "🧾 #%s — %s — %s (%d items)\n",
			o.ShortID(), o.Status.Label(), formatPrice(o.TotalPrice), len(o.ProductIDs))
		if row := orderActionRow(user, o); len(row) > 0 {
			rows = append(rows, row)
		}
	}

	var nav []adapter.InlineButton
	if offset > 0 {
		prev := offset - ordersPageSize
		if prev < 0 {
			prev = 0
		}
		nav = append(nav, adapter.InlineButton{Text: "⬅️", Data: "page:orders:" + strconv.Itoa(prev)})
	}
	if len(orders) == ordersPageSize {
		nav = append(nav, adapter.InlineButton{Text: "➡️", Data: "page:orders:" + strconv.Itoa(offset+ordersPageSize)})
	}
	if user.Role != model.RoleClient {
		nav = append(nav, adapter.InlineButton{Text: "🔎 Status", Data: "ofilter:open"})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return b.send.SendButtons(ctx, user.TelegramID, sb.String(), rows)
}

// orderActionRow builds the status buttons legal from the order's
// current status. Status changes are a seller/admin right, so clients
// get no buttons at all.
func orderActionRow(user *model.User, o *model.Order) []adapter.InlineButton {
	if user.Role == model.RoleClient {
		return nil
	}
	candidates := []model.OrderStatus{model.OrderProcessing, model.OrderCompleted, model.OrderCancelled}
	var row []adapter.InlineButton
	for _, next := range candidates {
		if o.Status.CanTransitionTo(next) {
			row = append(row, adapter.InlineButton{
				Text: fmt.Sprintf("#%s → %s", o.ShortID(), next.Label()),
				Data: fmt.Sprintf("order:%s:%s", next, o.ID),
			})
		}
	}
	return row
}

func (b *Bot) handleChatMenu(ctx context.Context, message *tgbotapi.Message) error {
	chatID := chatIDString(message.Chat.ID)
	user := b.currentUser(ctx, chatID)
	if user == nil {
		return b.send.SendMessage(ctx, chatID, "Please register first with /start.")
	}

	peers, err := b.users.ListChatPeers(ctx, user.Role)
	if err != nil {
		b.log.Error().Err(err).Msg("list chat peers")
		return b.send.SendMessage(ctx, chatID, "Could not load contacts right now.")
	}

	rows := make([][]adapter.InlineButton, 0, len(peers)+1)
	for _, p := range peers {
		if p.TelegramID == chatID {
			continue
		}
		rows = append(rows, []adapter.InlineButton{{Text: p.DisplayName(), Data: "chat:start:" + p.TelegramID}})
	}
	rows = append(rows, []adapter.InlineButton{{Text: "🛟 Talk to admins", Data: "adm:start"}})
	return b.send.SendButtons(ctx, chatID, "Who do you want to talk to?", rows)
}

func (b *Bot) handleProfileMenu(ctx context.Context, message *tgbotapi.Message) error {
	chatID := chatIDString(message.Chat.ID)
	user := b.currentUser(ctx, chatID)
	if user == nil {
		return b.send.SendMessage(ctx, chatID, "Please register first with /start.")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 %s\n", user.DisplayName())
	fmt.Fprintf(&sb, "Role: %s\n", user.Role)
	fmt.Fprintf(&sb, "Phone: %s\n", user.Phone)
	fmt.Fprintf(&sb, "Cart items: %d\n", len(user.Cart))
	if user.RatingCount > 0 {
		fmt.Fprintf(&sb, "Rating: %.1f (%d)\n", user.Rating, user.RatingCount)
	}
	fmt.Fprintf(&sb, "Member since: %s", user.CreatedAt.Format("2006-01-02"))
	return b.send.SendMessage(ctx, chatID, sb.String())
}

func (b *Bot) handleAddProductMenu(ctx context.Context, message *tgbotapi.Message) error {
	chatID := chatIDString(message.Chat.ID)
	user := b.currentUser(ctx, chatID)
	if user == nil || user.Role == model.RoleClient {
		return b.send.SendMessage(ctx, chatID, "Only sellers can add products. Ask an admin to upgrade your account.")
	}
	return b.startSellerWizard(ctx, chatID)
}

func (b *Bot) handleUsersMenu(ctx context.Context, message *tgbotapi.Message) error {
	chatID := chatIDString(message.Chat.ID)
	if !b.isAdmin(ctx, chatID) {
		return b.send.SendMessage(ctx, chatID, "Admins only.")
	}
	return b.sendUsersPage(ctx, chatID, 0)
}

func (b *Bot) sendUsersPage(ctx context.Context, chatID string, offset int) error {
	users, err := b.users.ListActive(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("list users")
		return b.send.SendMessage(ctx, chatID, "Could not load users right now.")
	}
	if offset >= len(users) {
		offset = 0
	}
	end := offset + usersPageSize
	if end > len(users) {
		end = len(users)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Users %d–%d of %d:\n", offset+1, end, len(users))
	rows := make([][]adapter.InlineButton, 0, usersPageSize+1)
	for _, u := range users[offset:end] {
		fmt.Fprintf(&sb, "%s — %s\n", u.DisplayName(), u.Role)
		var row []adapter.InlineButton
		for _, role := range []model.Role{model.RoleClient, model.RoleSeller, model.RoleAdmin} {
			if role == u.Role {
				continue
			}
			row = append(row, adapter.InlineButton{
				Text: fmt.Sprintf("%s → %s", u.DisplayName(), role),
				Data: fmt.Sprintf("role:%s:%s", role, u.TelegramID),
			})
		}
		rows = append(rows, row)
	}

	var nav []adapter.InlineButton
	if offset > 0 {
		prev := offset - usersPageSize
		if prev < 0 {
			prev = 0
		}
		nav = append(nav, adapter.InlineButton{Text: "⬅️", Data: "page:users:" + strconv.Itoa(prev)})
	}
	if end < len(users) {
		nav = append(nav, adapter.InlineButton{Text: "➡️", Data: "page:users:" + strconv.Itoa(end)})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return b.send.SendButtons(ctx, chatID, sb.String(), rows)
}

func (b *Bot) handleStatsMenu(ctx context.Context, message *tgbotapi.Message) error {
	chatID := chatIDString(message.Chat.ID)
	if !b.isAdmin(ctx, chatID) {
		return b.send.SendMessage(ctx, chatID, "Admins only.")
	}

	roles, err := b.users.CountByRole(ctx)
	if err != nil {
		return b.send.SendMessage(ctx, chatID, "Could not load stats right now.")
	}
	productCount, err := b.products.Count(ctx, repository.ProductFilter{})
	if err != nil {
		productCount = 0
	}
	orderCounts, err := b.orders.CountByStatus(ctx)
	if err != nil {
		orderCounts = nil
	}

	var sb strings.Builder
	sb.WriteString("📊 Marketplace stats\n\n")
	fmt.Fprintf(&sb, "Clients: %d\nSellers: %d\nAdmins: %d\n",
		roles[model.RoleClient], roles[model.RoleSeller], roles[model.RoleAdmin])
	fmt.Fprintf(&sb, "Active products: %d\n\nOrders:\n", productCount)
	for _, s := range []model.OrderStatus{model.OrderPending, model.OrderProcessing, model.OrderCompleted, model.OrderCancelled} {
		fmt.Fprintf(&sb, "%s: %d\n", s.Label(), orderCounts[s])
	}
	return b.send.SendMessage(ctx, chatID, sb.String())
}

// formatPrice renders an integer amount with thousands separators.
func formatPrice(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return "$" + out
}
