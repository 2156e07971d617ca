package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/chrisdamba/partnerconsole/internal/api"
	"github.com/chrisdamba/partnerconsole/internal/dashboard"
	"github.com/chrisdamba/partnerconsole/internal/location"
	"github.com/chrisdamba/partnerconsole/internal/models"
	"github.com/chrisdamba/partnerconsole/internal/realtime"
	"github.com/chrisdamba/partnerconsole/internal/session"
)

const deniedMessage = "Access denied: this console is only available to delivery partners."

// app is the per-invocation wiring shared by every command.
type app struct {
	cfg    *models.Config
	client *api.Client
	store  *session.Store
}

func newApp(cfg *models.Config) (*app, error) {
	client, err := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}
	if err := client.LoadSession(cfg.SessionFile); err != nil {
		log.Printf("Ignoring unreadable session file: %v", err)
	}
	return &app{cfg: cfg, client: client, store: session.NewStore(client)}, nil
}

// partner resumes the saved session and applies the partner-only gate.
func (a *app) partner(ctx context.Context) (*models.PartnerProfile, error) {
	a.store.FetchCurrentProfile(ctx)
	p, err := a.store.RequirePartner()
	switch {
	case errors.Is(err, session.ErrUnauthenticated):
		return nil, fmt.Errorf("not signed in, run `partnerconsole login` first")
	case errors.Is(err, session.ErrForbidden):
		return nil, errors.New(deniedMessage)
	}
	return p, err
}

func (a *app) saveSession() {
	if err := a.client.SaveSession(a.cfg.SessionFile); err != nil {
		log.Printf("Failed to save session: %v", err)
	}
}

func (a *app) viewModel(partner *models.PartnerProfile, notifier dashboard.Notifier, tracker *dashboard.Tracker) *dashboard.ViewModel {
	return dashboard.New(a.client, partner, notifier, tracker, dashboard.Options{
		EarningsPerDelivery: a.cfg.EarningsPerDelivery,
		AverageRating:       a.cfg.AverageRating,
		RecentLimit:         a.cfg.RecentActivityLimit,
	})
}

// dialer returns nil when realtime updates are disabled.
func (a *app) dialer() realtime.Dialer {
	rt := a.cfg.Realtime
	switch rt.Transport {
	case models.TransportAMQP:
		return realtime.NewAMQPDialer(rt.AMQPURL, rt.Exchange)
	case models.TransportKafka:
		return realtime.NewKafkaDialer(rt.KafkaBrokers, rt.EventsTopic, rt.LocationTopic)
	}
	return nil
}

// locationSource returns nil when no position feed is configured.
func (a *app) locationSource() location.Source {
	if a.cfg.Location.Source == "" {
		return nil
	}
	src, err := location.Open(a.cfg.Location.Source)
	if err != nil {
		log.Printf("Location sampling disabled: %v", err)
		return nil
	}
	return src
}

// cliNotifier prints notices for one-shot commands.
type cliNotifier struct{}

func (cliNotifier) Notify(n dashboard.Notice) {
	if n.Level == dashboard.LevelError {
		fmt.Fprintln(os.Stderr, "✗", n.Message)
		return
	}
	fmt.Println("✓", n.Message)
}
