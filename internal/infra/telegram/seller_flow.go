package telegram

import (
	"context"
	"errors"
	"fmt"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/flow"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/adapter"
	"telegram-marketplace/internal/usecase"
)

func (b *Bot) startSellerWizard(ctx context.Context, chatID string) error {
	if err := b.states.Set(ctx, flow.KindSeller, chatID, flow.NewSellerState()); err != nil {
		b.log.Error().Err(err).Msg("start seller wizard")
		return b.send.SendMessage(ctx, chatID, "Could not start right now, please try again.")
	}
	return b.send.SendMessage(ctx, chatID, "Let's add a product. What is its title?")
}

// handleSellerInput advances the creation wizard one step. Invalid
// input re-prompts without touching state; state is written only after
// the step's input fully validates.
func (b *Bot) handleSellerInput(ctx context.Context, chatID string, st *flow.State, text string) error {
	if st.Draft == nil {
		st.Draft = &flow.ProductDraft{}
	}

	switch st.Step {
	case flow.StepTitle:
		title, err := usecase.ValidateTitle(text)
		if err != nil {
			return b.send.SendMessage(ctx, chatID,
				fmt.Sprintf("The title needs at least %d characters. Try again.", model.MinTitleLen))
		}
		st.Draft.Title = title
		st.Step = flow.StepPrice
		return b.advance(ctx, chatID, st, "Got it. What is the price? (a whole number)")

	case flow.StepPrice:
		price, err := usecase.ParsePrice(text)
		if err != nil {
			return b.send.SendMessage(ctx, chatID, "I need a positive whole number for the price.")
		}
		st.Draft.Price = price
		st.Step = flow.StepDiscount
		return b.advance(ctx, chatID, st, "Any discount? Send a percentage from 0 to 100.")

	case flow.StepDiscount:
		discount, err := usecase.ParseDiscount(text)
		if err != nil {
			return b.send.SendMessage(ctx, chatID, "The discount must be between 0 and 100.")
		}
		st.Draft.Discount = discount
		st.Step = flow.StepDescription
		return b.advance(ctx, chatID, st, "Describe the product (or send a dash to skip).")

	case flow.StepDescription:
		desc := usecase.SanitizeText(text, 2000)
		if desc == "-" {
			desc = ""
		}
		st.Draft.Description = desc
		st.Step = flow.StepCategorySelection
		if err := b.states.Set(ctx, flow.KindSeller, chatID, st); err != nil {
			return b.saveStateFailed(ctx, chatID, err)
		}
		return b.sendCategoryPicker(ctx, chatID)

	case flow.StepCategorySelection:
		// Typed text is treated as a category name: existing names are
		// picked directly, new ones go through the proposal flow.
		return b.pickOrProposeCategory(ctx, flow.KindSeller, chatID, st, text)

	case flow.StepNewCategoryRequest:
		return b.proposeCategory(ctx, flow.KindSeller, chatID, st, text)

	case flow.StepConfirmCategoryRequest:
		return b.send.SendMessage(ctx, chatID, "Use the buttons above to confirm or cancel the category request.")

	case flow.StepWaitCategoryApproval:
		return b.send.SendMessage(ctx, chatID,
			fmt.Sprintf("Your category %q is waiting for admin approval. Hang tight!", st.PendingCategory))

	case flow.StepStock:
		stock, err := usecase.ParseStock(text)
		if err != nil {
			return b.send.SendMessage(ctx, chatID, "How many are in stock? Send a number, 0 or more.")
		}
		st.Draft.Stock = stock
		st.Step = flow.StepImage
		return b.advance(ctx, chatID, st,
			fmt.Sprintf("Now send up to %d photos, one at a time.", model.MaxImages))

	case flow.StepImage:
		return b.send.SendMessage(ctx, chatID, "Send a photo, or /done when you have added enough.")

	default:
		b.log.Warn().Str("step", st.Step).Msg("seller wizard in unknown step")
		_ = b.states.Clear(ctx, flow.KindSeller, chatID)
		return b.send.SendMessage(ctx, chatID, "Something went wrong, let's start over. Use ➕ Add product.")
	}
}

func (b *Bot) advance(ctx context.Context, chatID string, st *flow.State, prompt string) error {
	if err := b.states.Set(ctx, flow.KindSeller, chatID, st); err != nil {
		return b.saveStateFailed(ctx, chatID, err)
	}
	return b.send.SendMessage(ctx, chatID, prompt)
}

func (b *Bot) saveStateFailed(ctx context.Context, chatID string, err error) error {
	b.log.Error().Err(err).Str("chat_id", chatID).Msg("save flow state")
	return b.send.SendMessage(ctx, chatID, "Could not save your progress, please resend that.")
}

func (b *Bot) sendCategoryPicker(ctx context.Context, chatID string) error {
	cats, err := b.categories.ListAll(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("list categories")
		return b.send.SendMessage(ctx, chatID, "Could not load categories, please resend that.")
	}
	rows := make([][]adapter.InlineButton, 0, len(cats)+1)
	for _, c := range cats {
		rows = append(rows, []adapter.InlineButton{{Text: c.Name, Data: "cat:pick:" + c.Name}})
	}
	rows = append(rows, []adapter.InlineButton{{Text: "➕ New category", Data: "cat:new"}})
	return b.send.SendButtons(ctx, chatID, "Pick a category, or propose a new one:", rows)
}

// pickOrProposeCategory resolves a typed category name during
// category_selection: an existing name is adopted immediately, a new
// one starts the approval proposal.
func (b *Bot) pickOrProposeCategory(ctx context.Context, kind flow.Kind, chatID string, st *flow.State, text string) error {
	name := usecase.SanitizeText(text, model.MaxCategoryLen)
	exists, err := b.categories.Exists(ctx, name)
	if err != nil {
		b.log.Error().Err(err).Msg("category lookup")
		return b.send.SendMessage(ctx, chatID, "Could not check that category, please resend it.")
	}
	if exists {
		return b.adoptCategory(ctx, kind, chatID, st, name)
	}
	return b.proposeCategory(ctx, kind, chatID, st, name)
}

// adoptCategory applies an existing category and moves the wizard on.
func (b *Bot) adoptCategory(ctx context.Context, kind flow.Kind, chatID string, st *flow.State, name string) error {
	if kind == flow.KindEditProduct {
		if _, err := b.products.UpdateField(ctx, chatID, st.Edit.ProductID, "category", name); err != nil {
			return b.editApplyFailed(ctx, chatID, err)
		}
		_ = b.states.Clear(ctx, flow.KindEditProduct, chatID)
		return b.send.SendMessage(ctx, chatID, fmt.Sprintf("Category changed to %q. ✅", name))
	}
	st.Draft.Category = name
	st.Step = flow.StepStock
	return b.advance(ctx, chatID, st, "How many are in stock?")
}

// proposeCategory asks the user to confirm a brand-new category before
// the admins are bothered with it.
func (b *Bot) proposeCategory(ctx context.Context, kind flow.Kind, chatID string, st *flow.State, text string) error {
	name := usecase.SanitizeText(text, model.MaxCategoryLen)
	if len(name) < model.MinTitleLen {
		return b.send.SendMessage(ctx, chatID,
			fmt.Sprintf("A category name needs %d–%d characters. Try another.", model.MinTitleLen, model.MaxCategoryLen))
	}
	st.PendingCategory = name
	st.Step = flow.StepConfirmCategoryRequest
	if err := b.states.Set(ctx, kind, chatID, st); err != nil {
		return b.saveStateFailed(ctx, chatID, err)
	}
	rows := [][]adapter.InlineButton{{
		{Text: "📨 Request approval", Data: "cat:confirmreq"},
		{Text: "✖️ Cancel", Data: "cat:cancelreq"},
	}}
	return b.send.SendButtons(ctx, chatID,
		fmt.Sprintf("%q is a new category and needs admin approval. Request it?", name), rows)
}

// submitCategoryRequest runs on the confirm button, for whichever kind
// holds the confirm step.
func (b *Bot) submitCategoryRequest(ctx context.Context, kind flow.Kind, chatID string, st *flow.State) error {
	name := st.PendingCategory
	existed, err := b.categories.Request(ctx, kind, chatID, name)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return b.send.SendMessage(ctx, chatID, "That category name is not valid, try another.")
		}
		b.log.Error().Err(err).Msg("category request")
		return b.send.SendMessage(ctx, chatID, "Could not submit the request, please try again.")
	}
	if existed {
		// Someone created it in the meantime; adopt it directly.
		return b.adoptCategory(ctx, kind, chatID, st, name)
	}

	user := b.currentUser(ctx, chatID)
	from := chatID
	if user != nil {
		from = user.DisplayName()
	}
	rows := [][]adapter.InlineButton{{
		{Text: "✅ Approve", Data: fmt.Sprintf("approveCategory:%s:%s", name, chatID)},
		{Text: "❌ Reject", Data: fmt.Sprintf("rejectCategory:%s:%s", name, chatID)},
	}}
	if err := b.send.SendButtons(ctx, b.cfg.AdminChatID,
		fmt.Sprintf("New category request: %q from %s", name, from), rows); err != nil {
		b.log.Error().Err(err).Msg("notify admin chat")
	}
	return b.send.SendMessage(ctx, chatID,
		fmt.Sprintf("Request for %q sent to the admins. I'll let you know when they decide.", name))
}

func (b *Bot) handleDraftPhoto(ctx context.Context, chatID string, st *flow.State, fileID string) error {
	if st.Draft == nil {
		st.Draft = &flow.ProductDraft{}
	}
	if len(st.Draft.Images) >= model.MaxImages {
		return b.send.SendMessage(ctx, chatID,
			fmt.Sprintf("That's already %d photos — the maximum. Use /done to finish.", model.MaxImages))
	}
	st.Draft.Images = append(st.Draft.Images, fileID)

	if len(st.Draft.Images) == model.MaxImages {
		return b.finalizeDraft(ctx, chatID, st)
	}
	if err := b.states.Set(ctx, flow.KindSeller, chatID, st); err != nil {
		return b.saveStateFailed(ctx, chatID, err)
	}
	rows := [][]adapter.InlineButton{{
		{Text: "✅ Create now", Data: "wiz:finish"},
		{Text: "📷 Add another", Data: "wiz:more"},
	}}
	return b.send.SendButtons(ctx, chatID,
		fmt.Sprintf("Photo %d of %d saved.", len(st.Draft.Images), model.MaxImages), rows)
}

// finalizeDraft persists the product. On persistence failure the state
// is left untouched so the seller can retry with /done.
func (b *Bot) finalizeDraft(ctx context.Context, chatID string, st *flow.State) error {
	prod, err := b.products.CreateFromDraft(ctx, chatID, *st.Draft)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrInvalidArgument) {
			_ = b.states.Clear(ctx, flow.KindSeller, chatID)
			return b.send.SendMessage(ctx, chatID, "The draft has invalid fields, let's start over. Use ➕ Add product.")
		}
		b.log.Error().Err(err).Msg("create product")
		return b.send.SendMessage(ctx, chatID, "Could not save the product, use /done to retry.")
	}
	_ = b.states.Clear(ctx, flow.KindSeller, chatID)

	caption := fmt.Sprintf("🎉 %s is live!\n💰 %s", prod.Title, formatPrice(prod.DiscountedPrice()))
	return b.send.SendPhoto(ctx, chatID, prod.Images[0], caption, nil)
}
