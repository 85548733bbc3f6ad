package email

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/frahmantamala/calendar-sharing/internal/core/events"
)

// TokenMinter mints the verification token embedded in the welcome mail.
type TokenMinter interface {
	GenerateEmailVerificationToken(userID string) (string, error)
}

// Notifier turns domain events into outbound mail.
type Notifier struct {
	sender  Sender
	tokens  TokenMinter
	baseURL string
	logger  *slog.Logger
}

func NewNotifier(sender Sender, tokens TokenMinter, baseURL string, logger *slog.Logger) *Notifier {
	return &Notifier{
		sender:  sender,
		tokens:  tokens,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Register subscribes the notifier to every event type it handles.
func (n *Notifier) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeUserRegistered, n.handleUserRegistered)
	bus.Subscribe(events.EventTypeInvitationCreated, n.handleInvitationCreated)
	bus.Subscribe(events.EventTypePasswordResetSent, n.handlePasswordResetRequested)
}

func (n *Notifier) handleUserRegistered(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.UserRegisteredEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	token, err := n.tokens.GenerateEmailVerificationToken(e.UserID)
	if err != nil {
		return fmt.Errorf("failed to mint verification token: %w", err)
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", n.baseURL, token)
	html, err := renderVerification(e.Name, link)
	if err != nil {
		return err
	}

	return n.sender.Send(ctx, Message{
		To:      e.Email,
		ToName:  e.Name,
		Subject: "Verify your email address",
		HTML:    html,
	})
}

func (n *Notifier) handleInvitationCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.InvitationCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	link := fmt.Sprintf("%s/calendars/%s", n.baseURL, e.CalendarID)
	if !e.UserExists {
		link = fmt.Sprintf("%s/register?email=%s", n.baseURL, e.RecipientEmail)
	}

	subject, html, err := renderInvitation(e.Language, e.InviterName, e.CalendarTitle, link, e.UserExists)
	if err != nil {
		return err
	}

	return n.sender.Send(ctx, Message{
		To:      e.RecipientEmail,
		ToName:  e.RecipientName,
		Subject: subject,
		HTML:    html,
	})
}

func (n *Notifier) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PasswordResetRequestedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", n.baseURL, e.Token)
	html, err := renderPasswordReset(e.Name, link)
	if err != nil {
		return err
	}

	return n.sender.Send(ctx, Message{
		To:      e.Email,
		ToName:  e.Name,
		Subject: "Reset your password",
		HTML:    html,
	})
}
