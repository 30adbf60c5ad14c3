//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/usecase"
)

func TestChatUseCase(t *testing.T) {
	ctx := context.Background()

	setup := func() (usecase.ChatUseCase, *MockMessageRepo, *mockNotifier) {
		users := NewMockUserRepo()
		messages := NewMockMessageRepo()
		conversations := NewMockConversationRepo()
		notifier := &mockNotifier{}
		uc := usecase.NewChatUseCase(messages, conversations, users, notifier, newTestLogger())
		seedUser(users, "client-1", model.RoleClient)
		seedUser(users, "seller-1", model.RoleSeller)
		return uc, messages, notifier
	}

	t.Run("should persist, sanitize and notify on send", func(t *testing.T) {
		uc, _, notifier := setup()
		msg, err := uc.Send(ctx, "client-1", "seller-1", "  hello <b>there</b>  ")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if strings.Contains(msg.Text, "<b>") {
			t.Errorf("expected escaped markup, got %q", msg.Text)
		}
		if !notifier.has("seller-1", "message") {
			t.Error("expected message notification for the recipient")
		}
	})

	t.Run("should reject self-sends and unknown recipients", func(t *testing.T) {
		uc, _, _ := setup()
		if _, err := uc.Send(ctx, "client-1", "client-1", "hi"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("self-send: expected ErrInvalidArgument, got: %v", err)
		}
		if _, err := uc.Send(ctx, "client-1", "ghost", "hi"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("unknown recipient: expected ErrNotFound, got: %v", err)
		}
	})

	t.Run("should list history in either direction and mark reads", func(t *testing.T) {
		uc, _, _ := setup()
		if _, err := uc.Send(ctx, "client-1", "seller-1", "ping"); err != nil {
			t.Fatal(err)
		}
		if _, err := uc.Send(ctx, "seller-1", "client-1", "pong"); err != nil {
			t.Fatal(err)
		}
		hist, err := uc.History(ctx, "client-1", "seller-1", 0, 0)
		if err != nil || len(hist) != 2 {
			t.Fatalf("history=%v err=%v", hist, err)
		}
		if err := uc.MarkRead(ctx, "client-1", "seller-1"); err != nil {
			t.Fatalf("mark read: %v", err)
		}
		hist, _ = uc.History(ctx, "client-1", "seller-1", 0, 0)
		for _, m := range hist {
			if m.FromID == "client-1" && !m.IsRead {
				t.Error("expected client messages marked read")
			}
		}
	})

	t.Run("should track the admin-conversation marker per chat", func(t *testing.T) {
		uc, _, _ := setup()
		if in, _ := uc.InAdminConversation(ctx, "client-1"); in {
			t.Fatal("expected marker off by default")
		}
		if err := uc.EnterAdminConversation(ctx, "client-1"); err != nil {
			t.Fatal(err)
		}
		if in, _ := uc.InAdminConversation(ctx, "client-1"); !in {
			t.Fatal("expected marker on after enter")
		}
		if err := uc.LeaveAdminConversation(ctx, "client-1"); err != nil {
			t.Fatal(err)
		}
		if in, _ := uc.InAdminConversation(ctx, "client-1"); in {
			t.Fatal("expected marker off after leave")
		}
	})
}
