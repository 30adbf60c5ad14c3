package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/flow"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/adapter"
	"telegram-marketplace/internal/domain/ports/repository"
)

// callback is the decoded press of an inline button. chatID is the
// chat the button lives in; actorID is who pressed it (they differ in
// the shared admin chat).
type callback struct {
	chatID    string
	actorID   string
	messageID int
	data      string
}

type cbHandler func(ctx context.Context, cb *callback) error

type prefixCB struct {
	Prefix string
	Fn     cbHandler
}

func (b *Bot) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		"cart:clear":     b.cartClearCB,
		"cart:checkout":  b.checkoutCB,
		"wiz:finish":     b.wizardFinishCB,
		"wiz:more":       b.wizardMoreCB,
		"cat:new":        b.categoryNewCB,
		"cat:confirmreq": b.categoryConfirmCB,
		"cat:cancelreq":  b.categoryCancelCB,
		"adm:start":      b.adminChatStartCB,
		"adm:end":        b.adminChatEndCB,
		"chat:end":       b.chatEndCB,
		"filter:open":    b.filterOpenCB,
		"ofilter:open":   b.orderFilterOpenCB,
	}
}

func (b *Bot) cbPrefixRoutes() []prefixCB {
	return []prefixCB{
		{Prefix: "prod:view:", Fn: b.productViewCB},
		{Prefix: "prod:img:", Fn: b.productImageCB},
		{Prefix: "prod:like:", Fn: b.productLikeCB},
		{Prefix: "prod:edit:", Fn: b.productEditCB},
		{Prefix: "prod:del:", Fn: b.productDeleteCB},
		{Prefix: "prod:rate:", Fn: b.productRateMenuCB},
		{Prefix: "prod:comment:", Fn: b.productCommentCB},
		{Prefix: "rate:", Fn: b.rateCB},
		{Prefix: "cart:add:", Fn: b.cartAddCB},
		{Prefix: "cart:rm:", Fn: b.cartRemoveCB},
		{Prefix: "page:products:", Fn: b.productsPageCB},
		{Prefix: "page:orders:", Fn: b.ordersPageCB},
		{Prefix: "page:users:", Fn: b.usersPageCB},
		{Prefix: "edit:", Fn: b.editFieldCB},
		{Prefix: "cat:pick:", Fn: b.categoryPickCB},
		{Prefix: "approveCategory:", Fn: b.approveCategoryCB},
		{Prefix: "rejectCategory:", Fn: b.rejectCategoryCB},
		{Prefix: "role:", Fn: b.roleChangeCB},
		{Prefix: "order:", Fn: b.orderStatusCB},
		{Prefix: "chat:start:", Fn: b.chatStartCB},
	}
}

// splitTail decodes right-anchored callback data: everything after the
// prefix up to the LAST colon is the value (category names may contain
// colons), the final token is the trailing id.
func splitTail(data, prefix string) (value, id string, ok bool) {
	rest := strings.TrimPrefix(data, prefix)
	i := strings.LastIndex(rest, ":")
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}

// ---- products ----

func (b *Bot) productViewCB(ctx context.Context, cb *callback) error {
	id := strings.TrimPrefix(cb.data, "prod:view:")
	prod, err := b.products.GetByID(ctx, id)
	if err != nil {
		return b.send.SendMessage(ctx, cb.chatID, "That product is gone.")
	}
	return b.sendProductCard(ctx, cb.chatID, prod, 0, 0)
}

func (b *Bot) productImageCB(ctx context.Context, cb *callback) error {
	idxStr, id, ok := splitTail(cb.data, "prod:img:")
	if !ok {
		return nil
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return nil
	}
	prod, err := b.products.GetByID(ctx, id)
	if err != nil {
		return b.send.SendMessage(ctx, cb.chatID, "That product is gone.")
	}
	return b.sendProductCard(ctx, cb.chatID, prod, idx, cb.messageID)
}

func (b *Bot) productLikeCB(ctx context.Context, cb *callback) error {
	id := strings.TrimPrefix(cb.data, "prod:like:")
	liked, err := b.products.ToggleLike(ctx, cb.actorID, id)
	if err != nil {
		return b.send.SendMessage(ctx, cb.chatID, "That product is gone.")
	}
	if liked {
		return b.send.SendMessage(ctx, cb.chatID, "❤️ Liked!")
	}
	return b.send.SendMessage(ctx, cb.chatID, "Like removed.")
}

func (b *Bot) productEditCB(ctx context.Context, cb *callback) error {
	id := strings.TrimPrefix(cb.data, "prod:edit:")
	prod, err := b.products.GetByID(ctx, id)
	if err != nil {
		return b.send.SendMessage(ctx, cb.chatID, "That product is gone.")
	}
	if prod.SellerID != cb.actorID && !b.isAdmin(ctx, cb.actorID) {
		return b.send.SendMessage(ctx, cb.chatID, "You can only edit your own products.")
	}
	return b.sendEditMenu(ctx, cb.chatID, id)
}

func (b *Bot) productDeleteCB(ctx context.Context, cb *callback) error {
	id := strings.TrimPrefix(cb.data, "prod:del:")
	if err := b.products.Delete(ctx, cb.actorID, id); err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			return b.send.SendMessage(ctx, cb.chatID, "You can only delete your own products.")
		}
		return b.send.SendMessage(ctx, cb.chatID, "Could not delete that product.")
	}
	return b.send.SendMessage(ctx, cb.chatID, "Product removed. 🗑")
}

func (b *Bot) productRateMenuCB(ctx context.Context, cb *callback) error {
	id := strings.TrimPrefix(cb.data, "prod:rate:")
	row := make([]adapter.InlineButton, 0, 5)
	for stars := 1; stars <= 5; stars++ {
		row = append(row, adapter.InlineButton{
			Text: strings.Repeat("⭐", stars),
			Data: fmt.Sprintf("rate:%d:%s", stars, id),
		})
	}
	return b.send.SendButtons(ctx, cb.chatID, "How many stars?", [][]adapter.InlineButton{row})
}

func (b *Bot) rateCB(ctx context.Context, cb *callback) error {
	starsStr, id, ok := splitTail(cb.data, "rate:")
	if !ok {
		return nil
	}
	stars, err := strconv.Atoi(starsStr)
	if err != nil {
		return nil
	}
	prod, err := b.products.Rate(ctx, cb.actorID, id, stars)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			return b.send.SendMessage(ctx, cb.chatID, "Pick between 1 and 5 stars.")
		}
		return b.send.SendMessage(ctx, cb.chatID, "That product is gone.")
	}
	return b.send.SendMessage(ctx, cb.chatID,
		fmt.Sprintf("Thanks! %s now averages %.1f ⭐.", prod.Title, prod.Rating))
}

// productCommentCB parks a comment prompt; the next free-text message
// in this chat becomes the comment.
func (b *Bot) productCommentCB(ctx context.Context, cb *callback) error {
	id := strings.TrimPrefix(cb.data, "prod:comment:")
	st := &flow.State{Step: "comment", Edit: &flow.EditTarget{ProductID: id, Field: "comment"}}
	if err := b.states.Set(ctx, flow.KindRating, cb.chatID, st); err != nil {
		return b.saveStateFailed(ctx, cb.chatID, err)
	}
	return b.send.SendMessage(ctx, cb.chatID, "Write your comment:")
}

// ---- cart & checkout ----

func (b *Bot) cartAddCB(ctx context.Context, cb *callback) error {
	id := strings.TrimPrefix(cb.data, "cart:add:")
	added, err := b.cart.Add(ctx, cb.actorID, id)
	switch {
	case errors.Is(err, domain.ErrOutOfStock):
		return b.send.SendMessage(ctx, cb.chatID, "Sorry, that one is out of stock.")
	case errors.Is(err, domain.ErrNotFound):
		return b.send.SendMessage(ctx, cb.chatID, "That product is gone.")
	case err != nil:
		b.log.Error().Err(err).Msg("cart add")
		return b.send.SendMessage(ctx, cb.chatID, "Could not update your cart right now.")
	}
	if !added {
		return b.send.SendMessage(ctx, cb.chatID, "It's already in your cart.")
	}
	return b.send.SendMessage(ctx, cb.chatID, "Added to your cart. 🛒")
}

func (b *Bot) cartRemoveCB(ctx context.Context, cb *callback) error {
	id := strings.TrimPrefix(cb.data, "cart:rm:")
	if err := b.cart.Remove(ctx, cb.actorID, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		b.log.Error().Err(err).Msg("cart remove")
		return b.send.SendMessage(ctx, cb.chatID, "Could not update your cart right now.")
	}
	return b.sendCartView(ctx, cb.actorID)
}

func (b *Bot) cartClearCB(ctx context.Context, cb *callback) error {
	if err := b.cart.Clear(ctx, cb.actorID); err != nil {
		b.log.Error().Err(err).Msg("cart clear")
		return b.send.SendMessage(ctx, cb.chatID, "Could not update your cart right now.")
	}
	return b.send.SendMessage(ctx, cb.chatID, "Cart cleared.")
}

func (b *Bot) checkoutCB(ctx context.Context, cb *callback) error {
	order, err := b.orders.Checkout(ctx, cb.actorID)
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return b.send.SendMessage(ctx, cb.chatID, "Your cart is empty.")
	case errors.Is(err, domain.ErrOutOfStock):
		return b.send.SendMessage(ctx, cb.chatID,
			"An item in your cart just ran out of stock — nothing was ordered. Remove it and try again.")
	case errors.Is(err, domain.ErrNotFound):
		return b.send.SendMessage(ctx, cb.chatID,
			"An item in your cart is no longer available — nothing was ordered. Remove it and try again.")
	case err != nil:
		b.log.Error().Err(err).Msg("checkout")
		return b.send.SendMessage(ctx, cb.chatID, "Checkout failed, nothing was ordered. Please try again.")
	}
	return b.send.SendMessage(ctx, cb.chatID,
		fmt.Sprintf("✅ Order #%s placed! %d items, total %s.",
			order.ShortID(), len(order.ProductIDs), formatPrice(order.TotalPrice)))
}

// ---- paging ----

func (b *Bot) productsPageCB(ctx context.Context, cb *callback) error {
	offset, err := strconv.Atoi(strings.TrimPrefix(cb.data, "page:products:"))
	if err != nil {
		return nil
	}
	return b.sendProductsPage(ctx, cb.chatID, repository.ProductFilter{}, offset)
}

func (b *Bot) ordersPageCB(ctx context.Context, cb *callback) error {
	offset, err := strconv.Atoi(strings.TrimPrefix(cb.data, "page:orders:"))
	if err != nil {
		return nil
	}
	user := b.currentUser(ctx, cb.actorID)
	if user == nil {
		return b.send.SendMessage(ctx, cb.chatID, "Please register first with /start.")
	}
	return b.sendOrdersPage(ctx, user, offset)
}

func (b *Bot) usersPageCB(ctx context.Context, cb *callback) error {
	offset, err := strconv.Atoi(strings.TrimPrefix(cb.data, "page:users:"))
	if err != nil {
		return nil
	}
	if !b.isAdmin(ctx, cb.actorID) {
		return b.send.SendMessage(ctx, cb.chatID, "Admins only.")
	}
	return b.sendUsersPage(ctx, cb.chatID, offset)
}

// ---- wizard buttons ----

func (b *Bot) wizardFinishCB(ctx context.Context, cb *callback) error {
	st, err := b.states.Get(ctx, flow.KindSeller, cb.chatID)
	if err != nil || st == nil || st.Step != flow.StepImage || st.Draft == nil || len(st.Draft.Images) == 0 {
		return b.send.SendMessage(ctx, cb.chatID, "There is no draft to finish.")
	}
	return b.finalizeDraft(ctx, cb.chatID, st)
}

func (b *Bot) wizardMoreCB(ctx context.Context, cb *callback) error {
	return b.send.SendMessage(ctx, cb.chatID, "Send the next photo.")
}

// ---- category approval ----

// wizardAt finds which wizard kind in this chat sits at the given
// step; seller wins when both somehow match.
func (b *Bot) wizardAt(ctx context.Context, chatID, step string) (flow.Kind, *flow.State) {
	for _, kind := range []flow.Kind{flow.KindSeller, flow.KindEditProduct} {
		if st, err := b.states.Get(ctx, kind, chatID); err == nil && st != nil && st.Step == step {
			return kind, st
		}
	}
	return "", nil
}

func (b *Bot) categoryNewCB(ctx context.Context, cb *callback) error {
	kind, st := b.wizardAt(ctx, cb.chatID, flow.StepCategorySelection)
	if st == nil {
		kind, st = b.wizardAt(ctx, cb.chatID, "category")
	}
	if st == nil {
		return b.send.SendMessage(ctx, cb.chatID, "Pick a product field or start the wizard first.")
	}
	st.Step = flow.StepNewCategoryRequest
	if err := b.states.Set(ctx, kind, cb.chatID, st); err != nil {
		return b.saveStateFailed(ctx, cb.chatID, err)
	}
	return b.send.SendMessage(ctx, cb.chatID, "What should the new category be called?")
}

func (b *Bot) categoryConfirmCB(ctx context.Context, cb *callback) error {
	kind, st := b.wizardAt(ctx, cb.chatID, flow.StepConfirmCategoryRequest)
	if st == nil {
		return b.send.SendMessage(ctx, cb.chatID, "There is no category request to confirm.")
	}
	return b.submitCategoryRequest(ctx, kind, cb.chatID, st)
}

func (b *Bot) categoryCancelCB(ctx context.Context, cb *callback) error {
	kind, st := b.wizardAt(ctx, cb.chatID, flow.StepConfirmCategoryRequest)
	if st == nil {
		kind, st = b.wizardAt(ctx, cb.chatID, flow.StepNewCategoryRequest)
	}
	if st == nil {
		return b.send.SendMessage(ctx, cb.chatID, "There is no category request to cancel.")
	}
	st.PendingCategory = ""
	if kind == flow.KindSeller {
		st.Step = flow.StepCategorySelection
		if err := b.states.Set(ctx, kind, cb.chatID, st); err != nil {
			return b.saveStateFailed(ctx, cb.chatID, err)
		}
		return b.sendCategoryPicker(ctx, cb.chatID)
	}
	_ = b.states.Clear(ctx, flow.KindEditProduct, cb.chatID)
	return b.send.SendMessage(ctx, cb.chatID, "Category request cancelled.")
}

func (b *Bot) categoryPickCB(ctx context.Context, cb *callback) error {
	name := strings.TrimPrefix(cb.data, "cat:pick:")
	kind, st := b.wizardAt(ctx, cb.chatID, flow.StepCategorySelection)
	if st == nil {
		kind, st = b.wizardAt(ctx, cb.chatID, "category")
	}
	if st == nil {
		return b.send.SendMessage(ctx, cb.chatID, "Start the wizard or pick a field first.")
	}
	return b.adoptCategory(ctx, kind, cb.chatID, st, name)
}

func (b *Bot) approveCategoryCB(ctx context.Context, cb *callback) error {
	name, requester, ok := splitTail(cb.data, "approveCategory:")
	if !ok {
		return nil
	}
	if err := b.categories.Approve(ctx, cb.actorID, name, requester); err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			return b.send.SendMessage(ctx, cb.chatID, "Admins only.")
		}
		b.log.Error().Err(err).Str("category", name).Msg("approve category")
		return b.send.SendMessage(ctx, cb.chatID, "Could not approve that category.")
	}
	if err := b.send.SendMessage(ctx, cb.chatID, fmt.Sprintf("Category %q approved. ✅", name)); err != nil {
		return err
	}
	// Resume the requester's creation wizard where it parked.
	if st, err := b.states.Get(ctx, flow.KindSeller, requester); err == nil && st != nil && st.Step == flow.StepStock {
		return b.send.SendMessage(ctx, requester,
			fmt.Sprintf("Category %q was approved — how many are in stock?", name))
	}
	return nil
}

func (b *Bot) rejectCategoryCB(ctx context.Context, cb *callback) error {
	name, requester, ok := splitTail(cb.data, "rejectCategory:")
	if !ok {
		return nil
	}
	if !b.isAdmin(ctx, cb.actorID) {
		return b.send.SendMessage(ctx, cb.chatID, "Admins only.")
	}
	st := &flow.State{
		Step:   flow.StepRejectReason,
		Reject: &flow.RejectPrompt{CategoryName: name, RequesterChatID: requester},
	}
	if err := b.states.Set(ctx, flow.KindAdmin, cb.chatID, st); err != nil {
		return b.saveStateFailed(ctx, cb.chatID, err)
	}
	return b.send.SendMessage(ctx, cb.chatID,
		fmt.Sprintf("Why reject %q? Send the reason — it will be relayed to the requester.", name))
}

// ---- admin ----

func (b *Bot) roleChangeCB(ctx context.Context, cb *callback) error {
	roleStr, target, ok := splitTail(cb.data, "role:")
	if !ok {
		return nil
	}
	role, err := model.ParseRole(roleStr)
	if err != nil {
		return nil
	}
	user, err := b.users.ChangeRole(ctx, cb.actorID, target, role)
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			return b.send.SendMessage(ctx, cb.chatID, "Admins only.")
		}
		b.log.Error().Err(err).Str("target", target).Msg("change role")
		return b.send.SendMessage(ctx, cb.chatID, "Could not change that user's role.")
	}
	return b.send.SendMessage(ctx, cb.chatID,
		fmt.Sprintf("%s is now a %s.", user.DisplayName(), user.Role))
}

// ---- orders ----

func (b *Bot) orderStatusCB(ctx context.Context, cb *callback) error {
	statusStr, orderID, ok := splitTail(cb.data, "order:")
	if !ok {
		return nil
	}
	order, err := b.orders.ChangeStatus(ctx, cb.actorID, orderID, model.OrderStatus(statusStr))
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return b.send.SendMessage(ctx, cb.chatID, "That status change is not allowed from the order's current state.")
	case errors.Is(err, domain.ErrPermissionDenied):
		return b.send.SendMessage(ctx, cb.chatID, "You are not allowed to change this order.")
	case errors.Is(err, domain.ErrNotFound):
		return b.send.SendMessage(ctx, cb.chatID, "That order is gone.")
	case err != nil:
		b.log.Error().Err(err).Str("order_id", orderID).Msg("change order status")
		return b.send.SendMessage(ctx, cb.chatID, "Could not update the order right now.")
	}
	return b.send.SendMessage(ctx, cb.chatID,
		fmt.Sprintf("Order #%s is now %s.", order.ShortID(), order.Status.Label()))
}

// ---- chat ----

func (b *Bot) chatStartCB(ctx context.Context, cb *callback) error {
	peer := strings.TrimPrefix(cb.data, "chat:start:")
	st := &flow.State{Step: "relay", Peer: &flow.ChatPeer{PeerID: peer}}
	if err := b.states.Set(ctx, flow.KindChat, cb.chatID, st); err != nil {
		return b.saveStateFailed(ctx, cb.chatID, err)
	}
	_ = b.chat.MarkRead(ctx, peer, cb.chatID)

	history, err := b.chat.History(ctx, cb.chatID, peer, 0, 5)
	if err == nil && len(history) > 0 {
		var sb strings.Builder
		sb.WriteString("Recent messages:\n")
		for i := len(history) - 1; i >= 0; i-- {
			m := history[i]
			who := "them"
			if m.FromID == cb.chatID {
				who = "you"
			}
			fmt.Fprintf(&sb, "%s: %s\n", who, m.Text)
		}
		if err := b.send.SendMessage(ctx, cb.chatID, sb.String()); err != nil {
			return err
		}
	}
	return b.send.SendMessage(ctx, cb.chatID, "Chat open — everything you type goes to them. /done to close.")
}

func (b *Bot) chatEndCB(ctx context.Context, cb *callback) error {
	_ = b.states.Clear(ctx, flow.KindChat, cb.chatID)
	return b.send.SendMessage(ctx, cb.chatID, "Chat closed.")
}

func (b *Bot) adminChatStartCB(ctx context.Context, cb *callback) error {
	if err := b.chat.EnterAdminConversation(ctx, cb.chatID); err != nil {
		b.log.Error().Err(err).Msg("enter admin conversation")
		return b.send.SendMessage(ctx, cb.chatID, "Could not reach the admins right now.")
	}
	return b.send.SendMessage(ctx, cb.chatID, "You're connected to the admins — just type your message.")
}

func (b *Bot) adminChatEndCB(ctx context.Context, cb *callback) error {
	if err := b.chat.LeaveAdminConversation(ctx, cb.chatID); err != nil {
		b.log.Error().Err(err).Msg("leave admin conversation")
	}
	return b.send.SendMessage(ctx, cb.chatID, "Conversation with the admins closed.")
}

// ---- filters ----

func (b *Bot) filterOpenCB(ctx context.Context, cb *callback) error {
	if err := b.states.Set(ctx, flow.KindFilter, cb.chatID, &flow.State{Step: "query"}); err != nil {
		return b.saveStateFailed(ctx, cb.chatID, err)
	}
	return b.send.SendMessage(ctx, cb.chatID,
		"Send a filter as: category | min price | max price — use * to skip a part.\nExample: books | 100 | *")
}

func (b *Bot) orderFilterOpenCB(ctx context.Context, cb *callback) error {
	user := b.currentUser(ctx, cb.actorID)
	if user == nil || user.Role == model.RoleClient {
		return b.send.SendMessage(ctx, cb.chatID, "Sellers and admins only.")
	}
	if err := b.states.Set(ctx, flow.KindOrderFilter, cb.chatID, &flow.State{Step: "status_input"}); err != nil {
		return b.saveStateFailed(ctx, cb.chatID, err)
	}
	return b.send.SendMessage(ctx, cb.chatID,
		"Which status? pending, processing, completed or cancelled.")
}
