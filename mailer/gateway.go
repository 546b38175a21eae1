// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielhkuo/interpoll/polls"
)

var _ polls.Notifier = (*Gateway)(nil)

// Gateway renders invitation emails and hands them to a Sender
type Gateway struct {
	baseURL string
	sender  Sender
}

// NewGateway builds links under baseURL, e.g. https://polls.example.com
func NewGateway(baseURL string, sender Sender) *Gateway {
	return &Gateway{baseURL: strings.TrimRight(baseURL, "/"), sender: sender}
}

// ManageLink, VoteLink and ResultsLink are the URLs embedded in emails
func (g *Gateway) ManageLink(manageToken string) string {
	return g.baseURL + "/manage/" + manageToken
}

func (g *Gateway) VoteLink(voteToken string) string {
	return g.baseURL + "/vote/" + voteToken
}

func (g *Gateway) ResultsLink(observeToken string) string {
	return g.baseURL + "/results/" + observeToken
}

// SendManageNotification sends the organizer the manage and results links
func (g *Gateway) SendManageNotification(ctx context.Context, to, manageToken, observeToken, title string) error {
	body := fmt.Sprintf(`You have created a poll '%s'.

To manage, click on the following link:

%s

Results can be followed at:

%s

If you don't want to manage, you can ignore this email.
`, title, g.ManageLink(manageToken), g.ResultsLink(observeToken))

	return g.send(ctx, Message{
		To:      to,
		Subject: fmt.Sprintf("Manage '%s'", title),
		Body:    body,
	})
}

// SendVoteNotification sends a participant their personal voting link
func (g *Gateway) SendVoteNotification(ctx context.Context, to, voteToken, title string) error {
	body := fmt.Sprintf(`You have been invited to vote on '%s'.

To vote, click on the following link:

%s

If you don't want to vote, you can ignore this email.
`, title, g.VoteLink(voteToken))

	return g.send(ctx, Message{
		To:      to,
		Subject: fmt.Sprintf("Vote on '%s'", title),
		Body:    body,
	})
}

func (g *Gateway) send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	if err := g.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %q: %w", msg.Subject, err)
	}
	return nil
}
