// Package tui is the live partner dashboard rendered with bubbletea.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chrisdamba/partnerconsole/internal/dashboard"
	"github.com/chrisdamba/partnerconsole/internal/incentive"
	"github.com/chrisdamba/partnerconsole/internal/models"
)

// Board is the view-model surface the dashboard drives.
type Board interface {
	Snapshot() dashboard.Snapshot
	Refresh(ctx context.Context) error
	AcceptOrder(ctx context.Context, orderID string) error
	AdvanceStatus(ctx context.Context, orderID string, next models.OrderStatus) error
	ToggleAvailability(ctx context.Context, online bool) error
	Incentives(ctx context.Context) ([]incentive.Status, error)
}

type snapshotMsg struct{ snapshot dashboard.Snapshot }

type noticeMsg struct{ notice dashboard.Notice }

type incentivesMsg struct{ statuses []incentive.Status }

// actionDoneMsg closes out a backend call. Failures were already reported
// through the notifier.
type actionDoneMsg struct{ err error }

type Model struct {
	ctx     context.Context
	board   Board
	bridge  *Bridge
	partner string
	keys    KeyMap
	help    help.Model
	bar     progress.Model
	clock   func() time.Time

	snap       dashboard.Snapshot
	incentives []incentive.Status
	notice     *dashboard.Notice
	selected   int
	busy       bool
	width      int
}

func NewModel(ctx context.Context, board Board, bridge *Bridge, partnerName string) Model {
	return Model{
		ctx:     ctx,
		board:   board,
		bridge:  bridge,
		partner: partnerName,
		keys:    DefaultKeyMap,
		help:    help.New(),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		clock:   time.Now,
		snap:    board.Snapshot(),
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.refresh(), m.loadIncentives()}
	if m.bridge != nil {
		cmds = append(cmds, m.bridge.listen())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		m.snap = msg.snapshot
		m.clampSelection()
		m.incentives = rescore(m.incentives, m.snap.Stats, m.clock())
		return m, m.listen()

	case noticeMsg:
		n := msg.notice
		m.notice = &n
		return m, m.listen()

	case incentivesMsg:
		m.incentives = msg.statuses
		return m, nil

	case actionDoneMsg:
		m.busy = false
		return m, nil

	case refreshedMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.snap.Available)-1 {
			m.selected++
		}

	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(m.refresh(), m.loadIncentives())

	case key.Matches(msg, m.keys.Accept):
		if m.busy {
			return m, nil
		}
		if len(m.snap.Available) == 0 {
			m.setNotice(dashboard.LevelError, "No order selected")
			return m, nil
		}
		id := m.snap.Available[m.selected].ID
		m.busy = true
		return m, m.run(func(ctx context.Context) error { return m.board.AcceptOrder(ctx, id) })

	case key.Matches(msg, m.keys.PickedUp):
		return m.advance(models.OrderStatusPickedUp)

	case key.Matches(msg, m.keys.Delivered):
		return m.advance(models.OrderStatusDelivered)

	case key.Matches(msg, m.keys.Online):
		if m.busy {
			return m, nil
		}
		online := !m.snap.Online
		m.busy = true
		return m, m.run(func(ctx context.Context) error { return m.board.ToggleAvailability(ctx, online) })
	}
	return m, nil
}

// advance only offers transitions that are legal for the active order.
func (m Model) advance(next models.OrderStatus) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	active := m.snap.Active
	if active == nil {
		m.setNotice(dashboard.LevelError, "No active delivery")
		return m, nil
	}
	for _, a := range dashboard.NextActions(*active) {
		if a.Next == next {
			id := active.ID
			m.busy = true
			return m, m.run(func(ctx context.Context) error { return m.board.AdvanceStatus(ctx, id, next) })
		}
	}
	m.setNotice(dashboard.LevelError, fmt.Sprintf("Cannot mark a %s order as %s", strings.ToLower(active.OrderStatus.Label()), strings.ToLower(next.Label())))
	return m, nil
}

func (m *Model) setNotice(level dashboard.Level, text string) {
	m.notice = &dashboard.Notice{Level: level, Message: text}
}

func (m *Model) clampSelection() {
	if m.selected >= len(m.snap.Available) {
		m.selected = len(m.snap.Available) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m Model) run(fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{err: fn(ctx)}
	}
}

// refreshedMsg ends a refresh. It leaves busy alone so an accept or status
// change still in flight keeps its keys locked.
type refreshedMsg struct{ err error }

func (m Model) refresh() tea.Cmd {
	ctx, board := m.ctx, m.board
	return func() tea.Msg {
		return refreshedMsg{err: board.Refresh(ctx)}
	}
}

func (m Model) loadIncentives() tea.Cmd {
	ctx, board := m.ctx, m.board
	return func() tea.Msg {
		statuses, err := board.Incentives(ctx)
		if err != nil {
			return nil
		}
		return incentivesMsg{statuses: statuses}
	}
}

func (m Model) listen() tea.Cmd {
	if m.bridge == nil {
		return nil
	}
	return m.bridge.listen()
}

func rescore(current []incentive.Status, stats models.DeliveryStats, now time.Time) []incentive.Status {
	if len(current) == 0 {
		return current
	}
	list := make([]models.Incentive, len(current))
	for i, s := range current {
		list[i] = s.Incentive
	}
	return incentive.Evaluate(list, stats, now)
}

func (m Model) View() string {
	var b strings.Builder

	status := offlineStyle.Render("● Offline")
	if m.snap.Online {
		status = onlineStyle.Render("● Online")
	}
	b.WriteString(titleStyle.Render("Partner Console") + "  " + m.partner + "  " + status + "\n")

	if m.notice != nil {
		style := infoStyle
		if m.notice.Level == dashboard.LevelError {
			style = errorStyle
		}
		b.WriteString(style.Render(m.notice.Message) + "\n")
	}

	b.WriteString(m.viewStats())
	b.WriteString(m.viewActive())
	b.WriteString(m.viewAvailable())
	b.WriteString(m.viewIncentives())
	b.WriteString(m.viewRecent())

	if !m.snap.RefreshedAt.IsZero() {
		b.WriteString("\n" + dimStyle.Render("Updated "+m.snap.RefreshedAt.Format("15:04:05")))
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m Model) viewStats() string {
	s := m.snap.Stats
	boxes := []string{
		statBoxStyle.Render(fmt.Sprintf("Today\n%d deliveries\n₹%.2f", s.TodayDeliveries, s.TodayEarnings)),
		statBoxStyle.Render(fmt.Sprintf("This week\n%d deliveries", s.WeekDeliveries)),
		statBoxStyle.Render(fmt.Sprintf("This month\n%d deliveries\n₹%.2f", s.MonthDeliveries, s.MonthEarnings)),
		statBoxStyle.Render(fmt.Sprintf("Rating\n%.1f ★\n%d active", s.AverageRating, s.ActiveOrders)),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...) + "\n"
}

func (m Model) viewActive() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Active delivery") + "\n")
	o := m.snap.Active
	if o == nil {
		b.WriteString(dimStyle.Render("  No active delivery") + "\n")
		return b.String()
	}
	fmt.Fprintf(&b, "  %s → %s  [%s]\n", o.Restaurant.Name, o.Customer.Name, o.OrderStatus.Label())
	fmt.Fprintf(&b, "  Pickup: %s\n  Drop:   %s\n", o.Restaurant.Address, o.Customer.Address)
	var actions []string
	for _, a := range dashboard.NextActions(*o) {
		switch a.Next {
		case models.OrderStatusPickedUp:
			actions = append(actions, "[p] "+a.Label)
		case models.OrderStatusDelivered:
			actions = append(actions, "[d] "+a.Label)
		}
	}
	if len(actions) > 0 {
		b.WriteString("  " + strings.Join(actions, "  ") + "\n")
	}
	return b.String()
}

func (m Model) viewAvailable() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render(fmt.Sprintf("Available orders (%d)", len(m.snap.Available))) + "\n")
	if len(m.snap.Available) == 0 {
		b.WriteString(dimStyle.Render("  Waiting for new orders…") + "\n")
		return b.String()
	}
	for i, o := range m.snap.Available {
		line := fmt.Sprintf("  %s → %s  ₹%.2f", o.Restaurant.Name, o.Customer.Address, o.TotalAmount)
		if i == m.selected {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) viewIncentives() string {
	if len(m.incentives) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Incentives") + "\n")
	for _, s := range m.incentives {
		state := "active"
		switch {
		case s.Completed:
			state = "completed"
		case !s.Active:
			state = "inactive"
		}
		fmt.Fprintf(&b, "  %s (%s, ₹%.0f) %s\n  %s %.0f%%\n",
			s.Incentive.Title, s.Incentive.Type, s.Incentive.Reward, dimStyle.Render(state),
			m.bar.ViewAs(s.Progress/100), s.Progress)
	}
	return b.String()
}

func (m Model) viewRecent() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Recent activity") + "\n")
	if len(m.snap.Recent) == 0 {
		b.WriteString(dimStyle.Render("  No deliveries yet") + "\n")
		return b.String()
	}
	for _, o := range m.snap.Recent {
		fmt.Fprintf(&b, "  %s  %s → %s  %s\n", o.UpdatedAt.Local().Format("Jan 02 15:04"), o.Restaurant.Name, o.Customer.Name, o.OrderStatus.Label())
	}
	return b.String()
}
