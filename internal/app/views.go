package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"splitmate/internal/api"
	"splitmate/internal/models"
	"splitmate/internal/session"
	"splitmate/internal/split"
)

func (a *App) renderLanding(ctx context.Context) error {
	fmt.Fprintln(a.out, "splitmate - track and settle shared expenses")
	if user := a.sessions.User(ctx); user != nil {
		fmt.Fprintf(a.out, "Signed in as %s. Try: dashboard, groups, history, watch\n", user.Username)
	} else {
		fmt.Fprintln(a.out, "Not signed in. Try: login, register")
	}
	return nil
}

func (a *App) renderLogin(ctx context.Context) error {
	if a.args.email == "" || a.args.password == "" {
		fmt.Fprintln(a.out, "usage: login -email <email> -password <password>")
		return nil
	}

	sess, err := a.client.Login(ctx, a.args.email, a.args.password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Fprintf(a.out, "Welcome back, %s.\n", sess.User.Username)
	return nil
}

func (a *App) renderRegister(ctx context.Context) error {
	if a.args.username == "" || a.args.email == "" || a.args.password == "" {
		fmt.Fprintln(a.out, "usage: register -username <name> -email <email> -password <password>")
		return nil
	}

	msg, err := a.client.Register(ctx, a.args.username, a.args.email, a.args.password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) renderVerifyEmail(ctx context.Context) error {
	if a.args.token == "" {
		fmt.Fprintln(a.out, "usage: verify-email -token <token>")
		return nil
	}

	sess, err := a.client.VerifyEmail(ctx, a.args.token)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	fmt.Fprintf(a.out, "Email verified. Welcome, %s.\n", sess.User.Username)
	return nil
}

func (a *App) renderLogout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *App) renderAccount(ctx context.Context) error {
	user := a.sessions.User(ctx)
	if user == nil {
		return errors.New("no stored user profile")
	}
	fmt.Fprintf(a.out, "%s <%s> (id %s)\n", user.Username, user.Email, user.ID)

	// Tokens from this server are JWTs; show expiry when decodable. An
	// opaque token is not an error, there is just nothing to show.
	if info, ok := session.InspectToken(a.sessions.Token(ctx)); ok && info.ExpiresAt > 0 {
		fmt.Fprintf(a.out, "Session expires %s\n", time.Unix(info.ExpiresAt, 0).Format(time.RFC1123))
	}
	return nil
}

func (a *App) renderDashboard(ctx context.Context) error {
	balance, err := a.client.Balance(ctx)
	if err != nil {
		return fmt.Errorf("failed to load balance: %w", err)
	}

	fmt.Fprintf(a.out, "You owe %.2f, you are owed %.2f (net %+.2f)\n",
		balance.TotalOwes, balance.TotalOwed, balance.Net())
	for _, entry := range balance.Owes {
		fmt.Fprintf(a.out, "  owe %s: %.2f\n", entry.User.Username, entry.Amount)
	}
	for _, entry := range balance.Owed {
		fmt.Fprintf(a.out, "  owed by %s: %.2f\n", entry.User.Username, entry.Amount)
	}

	groups, page, err := a.client.Groups(ctx, api.ListOptions{Limit: 5})
	if err != nil {
		return fmt.Errorf("failed to load groups: %w", err)
	}
	fmt.Fprintf(a.out, "Groups (page %d of %d):\n", page.Page, page.Pages)
	for _, g := range groups {
		fmt.Fprintf(a.out, "  %s  %s (%d members)\n", g.ID, g.Name, len(g.Members))
	}
	return nil
}

func (a *App) renderGroups(ctx context.Context) error {
	if a.args.name != "" {
		g, err := a.client.CreateGroup(ctx, a.args.name, a.args.description)
		if err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}
		fmt.Fprintf(a.out, "Created group %s (%s)\n", g.Name, g.ID)
		return nil
	}

	groups, page, err := a.client.Groups(ctx, a.listOptions())
	if err != nil {
		return fmt.Errorf("failed to load groups: %w", err)
	}
	fmt.Fprintf(a.out, "Groups (page %d of %d):\n", page.Page, page.Pages)
	for _, g := range groups {
		fmt.Fprintf(a.out, "  %s  %s (%d members)\n", g.ID, g.Name, len(g.Members))
	}
	return nil
}

func (a *App) renderGroup(ctx context.Context) error {
	if a.args.groupID == "" {
		return errors.New("a group ID is required")
	}

	g, err := a.client.Group(ctx, a.args.groupID)
	if err != nil {
		return fmt.Errorf("failed to load group: %w", err)
	}

	fmt.Fprintf(a.out, "%s - %s\n", g.Name, g.Description)
	me := a.sessions.User(ctx)
	for _, m := range g.Members {
		label := ""
		if g.IsAdmin(m.User.ID) {
			label = " (admin)"
		}
		fmt.Fprintf(a.out, "  member %s%s\n", m.User.Username, label)
	}
	for _, inv := range g.PendingInvites {
		fmt.Fprintf(a.out, "  invited %s\n", inv.User.Username)
	}
	for _, e := range g.Expenses {
		fmt.Fprintf(a.out, "  expense %s: %.2f paid by %s (%s)\n",
			e.Description, e.Amount, e.PaidBy.Username, e.SplitType)
	}
	if me != nil && g.IsAdmin(me.ID) {
		fmt.Fprintln(a.out, "You manage this group.")
	}
	return nil
}

func (a *App) renderInvite(ctx context.Context) error {
	if a.args.groupID == "" || a.args.userID == "" {
		return errors.New("both -group and -user are required")
	}
	if err := a.client.InviteUser(ctx, a.args.groupID, a.args.userID); err != nil {
		return fmt.Errorf("failed to send invite: %w", err)
	}
	fmt.Fprintln(a.out, "Invitation sent.")
	return nil
}

func (a *App) renderRespond(ctx context.Context) error {
	if a.args.groupID == "" {
		return errors.New("-group is required")
	}
	if err := a.client.RespondToInvite(ctx, a.args.groupID, a.args.accept); err != nil {
		return fmt.Errorf("failed to respond to invite: %w", err)
	}
	if a.args.accept {
		fmt.Fprintln(a.out, "Invitation accepted.")
	} else {
		fmt.Fprintln(a.out, "Invitation declined.")
	}
	return nil
}

func (a *App) renderSearch(ctx context.Context) error {
	if a.args.query == "" {
		return errors.New("a search query is required")
	}
	users, err := a.client.SearchUsers(ctx, a.args.query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	for _, u := range users {
		fmt.Fprintf(a.out, "%s  %s <%s>\n", u.ID, u.Username, u.Email)
	}
	return nil
}

func (a *App) renderExpense(ctx context.Context) error {
	if a.args.groupID == "" || a.args.description == "" {
		return errors.New("both -group and -description are required")
	}

	memberIDs := splitList(a.args.splitWith)
	amounts, err := parsePairs(a.args.amounts)
	if err != nil {
		return fmt.Errorf("invalid -amounts: %w", err)
	}
	percents, err := parsePairs(a.args.percents)
	if err != nil {
		return fmt.Errorf("invalid -percents: %w", err)
	}

	splits, err := split.Build(models.SplitType(strings.ToUpper(a.args.splitType)),
		a.args.amount, memberIDs, amounts, percents)
	if err != nil {
		return err
	}

	e, err := a.client.CreateExpense(ctx, api.ExpenseInput{
		Description: a.args.description,
		Amount:      a.args.amount,
		GroupID:     a.args.groupID,
		SplitType:   models.SplitType(strings.ToUpper(a.args.splitType)),
		Splits:      splits,
		Note:        a.args.note,
	})
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	fmt.Fprintf(a.out, "Added expense %s: %.2f split %s across %d members\n",
		e.Description, e.Amount, e.SplitType, len(splits))
	return nil
}

func (a *App) renderPay(ctx context.Context) error {
	if a.args.paidTo == "" || a.args.groupID == "" {
		return errors.New("both -to and -group are required")
	}

	p, err := a.client.CreatePayment(ctx, api.PaymentInput{
		PaidTo:    a.args.paidTo,
		Amount:    a.args.amount,
		GroupID:   a.args.groupID,
		ExpenseID: a.args.expenseID,
	})
	if err != nil {
		return fmt.Errorf("payment failed: %w", err)
	}
	fmt.Fprintf(a.out, "Paid %.2f to %s\n", p.Amount, p.PaidTo.Username)
	return nil
}

func (a *App) renderHistory(ctx context.Context) error {
	expenses, expPage, err := a.client.UserExpenses(ctx, a.listOptions())
	if err != nil {
		return fmt.Errorf("failed to load expenses: %w", err)
	}
	fmt.Fprintf(a.out, "Expenses (page %d of %d):\n", expPage.Page, expPage.Pages)
	for _, e := range expenses {
		fmt.Fprintf(a.out, "  %s  %.2f  %s\n", e.Description, e.Amount, e.PaidBy.Username)
	}

	payments, payPage, err := a.client.Payments(ctx, a.listOptions())
	if err != nil {
		return fmt.Errorf("failed to load payments: %w", err)
	}
	fmt.Fprintf(a.out, "Payments (page %d of %d):\n", payPage.Page, payPage.Pages)
	for _, p := range payments {
		fmt.Fprintf(a.out, "  %s -> %s  %.2f\n", p.PaidBy.Username, p.PaidTo.Username, p.Amount)
	}
	return nil
}

func (a *App) renderNotifications(ctx context.Context) error {
	switch {
	case a.args.markAll:
		if err := a.client.MarkAllNotificationsRead(ctx); err != nil {
			return fmt.Errorf("failed to mark notifications read: %w", err)
		}
		fmt.Fprintln(a.out, "All notifications marked read.")
		return nil

	case a.args.notificationID != "" && a.args.remove:
		if err := a.client.DeleteNotification(ctx, a.args.notificationID); err != nil {
			return fmt.Errorf("failed to delete notification: %w", err)
		}
		fmt.Fprintln(a.out, "Notification deleted.")
		return nil

	case a.args.notificationID != "":
		if err := a.client.MarkNotificationRead(ctx, a.args.notificationID); err != nil {
			return fmt.Errorf("failed to mark notification read: %w", err)
		}
		fmt.Fprintln(a.out, "Notification marked read.")
		return nil
	}

	notifications, page, err := a.client.Notifications(ctx, a.listOptions())
	if err != nil {
		return fmt.Errorf("failed to load notifications: %w", err)
	}
	fmt.Fprintf(a.out, "Notifications (page %d of %d):\n", page.Page, page.Pages)
	for _, n := range notifications {
		marker := " "
		if !n.IsRead {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %s  [%s] %s\n", marker, n.ID, n.Type, n.Message)
	}
	return nil
}

func (a *App) renderChat(ctx context.Context) error {
	if a.args.groupID == "" {
		return errors.New("-group is required")
	}

	if a.args.content != "" {
		if err := a.client.SendMessage(ctx, a.args.groupID, a.args.content); err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
		fmt.Fprintln(a.out, "Sent.")
		return nil
	}

	messages, page, err := a.client.Messages(ctx, a.args.groupID, a.listOptions())
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}
	fmt.Fprintf(a.out, "Messages (page %d of %d):\n", page.Page, page.Pages)
	for _, m := range messages {
		fmt.Fprintf(a.out, "[%s] %s: %s\n",
			m.Timestamp.Format("15:04"), m.Sender.Username, m.Content)
	}
	return nil
}

// splitList splits a comma-separated flag value, dropping empties.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parsePairs parses "user=value" pairs from a comma-separated flag value.
func parsePairs(raw string) (map[string]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	pairs := make(map[string]float64)
	for _, part := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("expected user=value, got %q", part)
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value in %q: %w", part, err)
		}
		pairs[key] = f
	}
	return pairs, nil
}
