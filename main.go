package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/handoffapp/handoff/handoff"
	"github.com/handoffapp/handoff/handoff/api"
	"github.com/handoffapp/handoff/handoff/logger"
	"github.com/handoffapp/handoff/handoff/negotiation"
	"github.com/handoffapp/handoff/handoff/store"
	"github.com/handoffapp/handoff/handoff/timeutil"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	path := flag.String("config", "config.toml", "path to config")
	listingID := flag.String("listing", "", "listing id when opening a new negotiation")
	negotiationID := flag.String("negotiation", "", "negotiation id to watch")
	buyerID := flag.String("buyer", "", "buyer party id when opening a new negotiation")
	sellerID := flag.String("seller", "", "seller party id when opening a new negotiation")
	proposeTime := flag.String("propose-time", "", "RFC3339 meeting time to propose or counter with")
	accept := flag.Bool("accept", false, "accept the other party's pending time proposal")
	reject := flag.Bool("reject", false, "reject the negotiation")
	pay := flag.Bool("pay", false, "pay the negotiation fee")
	proposeLocation := flag.String("propose-location", "", "place name to propose as the meeting location")
	locationNote := flag.String("location-note", "", "optional note attached to a location proposal")
	respondTo := flag.String("respond-to", "", "location proposal id to respond to")
	respondAccept := flag.Bool("respond-accept", false, "accept the proposal given by -respond-to")
	send := flag.String("send", "", "chat message to send")
	flag.Parse()

	cfg, err := handoff.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	customHandler := logger.NewHandler(cfg.Log.Level)
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting Handoff negotiation client",
		slog.String("version", version),
		slog.String("commit", commit))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var snapshots store.SnapshotRepository
	if cfg.Cache.DBPath != "" {
		db, err := store.NewDB(cfg.Cache.DBPath)
		if err != nil {
			slog.Error("Failed to open offline cache", slog.Any("error", err))
			os.Exit(-1)
		}
		defer db.Close()

		snapshots = store.NewSnapshotRepository(db)
		initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
		if err := snapshots.InitializeTables(initCtx); err != nil {
			initCancel()
			slog.Error("Failed to initialize offline cache schema", slog.Any("error", err))
			os.Exit(-1)
		}
		initCancel()
	}

	authority := api.NewClient(cfg.API.BaseURL, cfg.API.SessionToken, cfg.API.Timeout())

	app, err := handoff.New(*cfg, authority, snapshots)
	if err != nil {
		slog.Error("Failed to initialize application", slog.Any("error", err))
		os.Exit(-1)
	}
	defer app.Shutdown(10 * time.Second)

	var engine *negotiation.Engine
	switch {
	case *negotiationID != "":
		engine, err = app.Watch(ctx, *negotiationID)
	case *listingID != "":
		if *proposeTime == "" || *buyerID == "" || *sellerID == "" {
			slog.Error("Opening a negotiation requires -propose-time, -buyer and -seller")
			os.Exit(-1)
		}
		var t time.Time
		t, err = timeutil.ParseTimestamp(*proposeTime)
		if err == nil {
			engine, err = app.OpenNegotiation(ctx, *listingID, *buyerID, *sellerID, t)
		}
	default:
		slog.Error("Either -negotiation or -listing is required")
		os.Exit(-1)
	}
	if err != nil {
		slog.Error("Failed to start negotiation session", slog.Any("error", err))
		os.Exit(-1)
	}

	engine.Subscribe(printReadModel)
	printReadModel(engine.ReadModel())

	if err := runAction(ctx, app, engine, actionFlags{
		proposeTime:     *proposeTime,
		watching:        *negotiationID != "",
		accept:          *accept,
		reject:          *reject,
		pay:             *pay,
		proposeLocation: *proposeLocation,
		locationNote:    *locationNote,
		respondTo:       *respondTo,
		respondAccept:   *respondAccept,
		send:            *send,
	}); err != nil {
		slog.Error("Action failed", slog.Any("error", err))
	}

	slog.Info("Watching negotiation. Press CTRL-C to exit.",
		slog.String("negotiation_id", engine.NegotiationID()))
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down...")
}

type actionFlags struct {
	proposeTime     string
	watching        bool
	accept          bool
	reject          bool
	pay             bool
	proposeLocation string
	locationNote    string
	respondTo       string
	respondAccept   bool
	send            string
}

func runAction(ctx context.Context, app *handoff.App, engine *negotiation.Engine, flags actionFlags) error {
	switch {
	case flags.accept:
		return engine.AcceptTime(ctx)
	case flags.reject:
		return engine.Reject(ctx)
	case flags.pay:
		return engine.Pay(ctx)
	case flags.proposeTime != "" && flags.watching:
		t, err := timeutil.ParseTimestamp(flags.proposeTime)
		if err != nil {
			return err
		}
		return engine.CounterTime(ctx, t)
	case flags.proposeLocation != "":
		place, err := app.Places.Resolve(flags.proposeLocation)
		if err != nil {
			return err
		}
		return engine.ProposeLocation(ctx, place.Latitude, place.Longitude, place.Name, flags.locationNote)
	case flags.respondTo != "":
		return engine.RespondToLocation(ctx, flags.respondTo, flags.respondAccept)
	case flags.send != "":
		return engine.SendMessage(ctx, flags.send)
	}
	return nil
}

func printReadModel(rm negotiation.ReadModel) {
	fmt.Printf("\n=== Negotiation %s (%s) ===\n", rm.NegotiationID, rm.Status)
	fmt.Printf("Meeting time: %s\n", handoff.FormatMeetingTime(rm.EffectiveTime))
	if rm.RemainingTimeText != "" {
		fmt.Printf("Time until meeting: %s\n", rm.RemainingTimeText)
	}
	if rm.EffectiveLocation != nil {
		fmt.Printf("Meeting location: %s\n", rm.EffectiveLocation.ProposedLocation)
	}
	fmt.Printf("Fee: %s  buyer paid: %t  seller paid: %t\n",
		rm.Payment.FeeText, rm.Payment.BuyerPaid, rm.Payment.SellerPaid)
	if rm.RemainingPaymentText != "" {
		fmt.Printf("Payment window: %s\n", rm.RemainingPaymentText)
	}
	if rm.Payment.UnlockedForLocation {
		fmt.Println("Location negotiation is unlocked.")
	}
	if rm.PendingConfirmation {
		fmt.Println("(awaiting confirmation)")
	}
	for _, m := range rm.Messages {
		who := "them"
		if m.IsFromUser {
			who = "you"
		}
		suffix := ""
		switch m.Delivery {
		case negotiation.DeliverySending:
			suffix = " (sending)"
		case negotiation.DeliveryFailed:
			suffix = " (failed)"
		}
		fmt.Printf("  [%s] %s: %s%s\n", m.SentAt.Local().Format("15:04"), who, m.Text, suffix)
	}
}
