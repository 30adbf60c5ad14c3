package telegram

import (
	"context"
	"errors"
	"fmt"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/flow"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/usecase"
)

// editFieldCB decodes edit:<field>:<productID> button presses.
func (b *Bot) editFieldCB(ctx context.Context, cb *callback) error {
	field, productID, ok := splitTail(cb.data, "edit:")
	if !ok {
		return nil
	}
	if field == "cancel" {
		_ = b.states.Clear(ctx, flow.KindEditProduct, cb.chatID)
		return b.send.SendMessage(ctx, cb.chatID, "Edit cancelled.")
	}
	return b.startEdit(ctx, cb.chatID, productID, field)
}

// startEdit opens a single-field edit after the ownership gate: the
// product must belong to the acting chat, or the actor is an admin.
func (b *Bot) startEdit(ctx context.Context, chatID, productID, field string) error {
	prod, err := b.products.GetByID(ctx, productID)
	if err != nil {
		_ = b.states.Clear(ctx, flow.KindEditProduct, chatID)
		return b.send.SendMessage(ctx, chatID, "That product is gone.")
	}
	if prod.SellerID != chatID && !b.isAdmin(ctx, chatID) {
		_ = b.states.Clear(ctx, flow.KindEditProduct, chatID)
		return b.send.SendMessage(ctx, chatID, "You can only edit your own products.")
	}

	st := flow.NewEditState(productID, field)
	if field == "images" {
		st.Step = flow.StepImages
	}
	if err := b.states.Set(ctx, flow.KindEditProduct, chatID, st); err != nil {
		return b.saveStateFailed(ctx, chatID, err)
	}

	switch field {
	case "title":
		return b.send.SendMessage(ctx, chatID, "Send the new title.")
	case "price":
		return b.send.SendMessage(ctx, chatID, "Send the new price.")
	case "discount":
		return b.send.SendMessage(ctx, chatID, "Send the new discount (0–100).")
	case "description":
		return b.send.SendMessage(ctx, chatID, "Send the new description (or a dash to clear it).")
	case "stock":
		return b.send.SendMessage(ctx, chatID, "Send the new stock count.")
	case "category":
		return b.sendCategoryPicker(ctx, chatID)
	case "images":
		return b.send.SendMessage(ctx, chatID,
			fmt.Sprintf("Send photos to add (up to %d total), then /done.", model.MaxImages))
	default:
		_ = b.states.Clear(ctx, flow.KindEditProduct, chatID)
		return b.send.SendMessage(ctx, chatID, "I don't know that field.")
	}
}

// handleEditInput applies a typed value to the field being edited.
// Validation failure re-prompts; success applies and clears the state.
func (b *Bot) handleEditInput(ctx context.Context, chatID string, st *flow.State, text string) error {
	if st.Edit == nil {
		_ = b.states.Clear(ctx, flow.KindEditProduct, chatID)
		return b.send.SendMessage(ctx, chatID, "The edit session was lost, pick the product again.")
	}

	switch st.Step {
	case flow.StepCategorySelection, "category":
		return b.pickOrProposeCategory(ctx, flow.KindEditProduct, chatID, st, text)
	case flow.StepNewCategoryRequest:
		return b.proposeCategory(ctx, flow.KindEditProduct, chatID, st, text)
	case flow.StepConfirmCategoryRequest:
		return b.send.SendMessage(ctx, chatID, "Use the buttons above to confirm or cancel the category request.")
	case flow.StepWaitCategoryApproval:
		return b.send.SendMessage(ctx, chatID,
			fmt.Sprintf("Your category %q is waiting for admin approval. Hang tight!", st.PendingCategory))
	case flow.StepImages:
		return b.send.SendMessage(ctx, chatID, "Send a photo, or /done to finish.")
	}

	value := text
	switch st.Edit.Field {
	case "title":
		title, err := usecase.ValidateTitle(text)
		if err != nil {
			return b.send.SendMessage(ctx, chatID,
				fmt.Sprintf("The title needs at least %d characters. Try again.", model.MinTitleLen))
		}
		value = title
	case "price":
		if _, err := usecase.ParsePrice(text); err != nil {
			return b.send.SendMessage(ctx, chatID, "I need a positive whole number for the price.")
		}
	case "discount":
		if _, err := usecase.ParseDiscount(text); err != nil {
			return b.send.SendMessage(ctx, chatID, "The discount must be between 0 and 100.")
		}
	case "stock":
		if _, err := usecase.ParseStock(text); err != nil {
			return b.send.SendMessage(ctx, chatID, "Stock must be a number, 0 or more.")
		}
	case "description":
		value = usecase.SanitizeText(text, 2000)
		if value == "-" {
			value = ""
		}
	default:
		_ = b.states.Clear(ctx, flow.KindEditProduct, chatID)
		return b.send.SendMessage(ctx, chatID, "I don't know that field.")
	}

	if _, err := b.products.UpdateField(ctx, chatID, st.Edit.ProductID, st.Edit.Field, value); err != nil {
		return b.editApplyFailed(ctx, chatID, err)
	}
	_ = b.states.Clear(ctx, flow.KindEditProduct, chatID)
	return b.send.SendMessage(ctx, chatID, "Updated. ✅")
}

// handleEditPhoto adds one photo to the product, respecting the cap.
// An attempt past the cap is refused per attempt, the session stays
// open until /done.
func (b *Bot) handleEditPhoto(ctx context.Context, chatID string, st *flow.State, fileID string) error {
	prod, err := b.products.GetByID(ctx, st.Edit.ProductID)
	if err != nil {
		_ = b.states.Clear(ctx, flow.KindEditProduct, chatID)
		return b.send.SendMessage(ctx, chatID, "That product is gone.")
	}
	if len(prod.Images) >= model.MaxImages {
		return b.send.SendMessage(ctx, chatID,
			fmt.Sprintf("The product already has %d photos — the maximum. Use /done.", model.MaxImages))
	}
	images := append(append([]string(nil), prod.Images...), fileID)
	if _, err := b.products.SetImages(ctx, chatID, prod.ID, images); err != nil {
		return b.editApplyFailed(ctx, chatID, err)
	}
	return b.send.SendMessage(ctx, chatID,
		fmt.Sprintf("Photo %d of %d added. Send more or /done.", len(images), model.MaxImages))
}

func (b *Bot) editApplyFailed(ctx context.Context, chatID string, err error) error {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		_ = b.states.Clear(ctx, flow.KindEditProduct, chatID)
		return b.send.SendMessage(ctx, chatID, "You can only edit your own products.")
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidArgument):
		return b.send.SendMessage(ctx, chatID, "That value is not valid, try again.")
	case errors.Is(err, domain.ErrNotFound):
		_ = b.states.Clear(ctx, flow.KindEditProduct, chatID)
		return b.send.SendMessage(ctx, chatID, "That product is gone.")
	default:
		b.log.Error().Err(err).Msg("apply edit")
		return b.send.SendMessage(ctx, chatID, "Could not apply the change, please resend it.")
	}
}
