package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/text/language"

	"github.com/nugget/thane-inbox/internal/compose"
	"github.com/nugget/thane-inbox/internal/config"
	"github.com/nugget/thane-inbox/internal/events"
	"github.com/nugget/thane-inbox/internal/identity"
	"github.com/nugget/thane-inbox/internal/inbox"
	"github.com/nugget/thane-inbox/internal/mailbox"
	"github.com/nugget/thane-inbox/internal/seed"
	"github.com/nugget/thane-inbox/internal/settings"
)

// app is the wired engine for one command invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	bus     *events.Bus
	notices <-chan events.Event

	dir      *identity.SQLiteDirectory
	settings *settings.Store
	store    *mailbox.Store
	session  *inbox.Session
	resolver *compose.Resolver
	locale   language.Tag
}

func newApp(stderr io.Writer, configPath string) (*app, error) {
	path, err := config.FindConfig(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	logger, err := cfg.NewLogger(stderr)
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded", "path", path, "me", cfg.Me)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	bus := events.New()
	a := &app{
		cfg:     cfg,
		logger:  logger,
		bus:     bus,
		notices: bus.Subscribe(64),
	}
	if err := a.open(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) open() error {
	cfg := a.cfg

	dir, err := identity.NewSQLiteDirectory(cfg.Directory.SQLitePath, cfg.Directory.SearchLimit,
		a.logger.With("component", "directory"))
	if err != nil {
		return fmt.Errorf("open directory: %w", err)
	}
	a.dir = dir

	if cfg.Directory.VCardFile != "" {
		if _, err := a.importVCards(cfg.Directory.VCardFile); err != nil {
			return err
		}
	}

	st, err := settings.NewStore(cfg.SettingsPath(), a.bus, a.logger.With("component", "settings"))
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}
	a.settings = st

	locale, err := st.GetOr(settings.NamespaceCompose, settings.KeyLocale, cfg.Locale)
	if err != nil {
		return err
	}
	a.locale = compose.ParseLocale(locale)

	a.store = mailbox.NewStore(a.logger.With("component", "mailbox"))
	if cfg.SeedFile != "" {
		f, err := seed.Load(cfg.SeedFile)
		if err != nil {
			return fmt.Errorf("load seed: %w", err)
		}
		if _, err := f.Apply(a.store, dir.Upsert, a.logger); err != nil {
			return fmt.Errorf("apply seed: %w", err)
		}
	}

	if _, found, err := dir.FindByID(cfg.Me); err != nil {
		return err
	} else if !found {
		a.logger.Warn("configured identity not in directory", "me", cfg.Me)
	}

	builder := compose.NewBuilder(cfg.Me, dir, a.locale, a.logger.With("component", "compose"))
	a.session = inbox.NewSession(inbox.Config{
		Store:     a.store,
		Directory: dir,
		Builder:   builder,
		Bus:       a.bus,
		Logger:    a.logger.With("component", "session"),
	})
	a.resolver = compose.NewResolver(dir)
	return nil
}

// importVCards upserts every card in path into the directory.
func (a *app) importVCards(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open vcard file: %w", err)
	}
	defer f.Close()

	idents, err := identity.ReadVCards(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	for _, ident := range idents {
		if err := a.dir.Upsert(ident); err != nil {
			return 0, fmt.Errorf("import %s: %w", ident.ID, err)
		}
	}
	a.logger.Info("vcards imported", "path", path, "count", len(idents))
	return len(idents), nil
}

// flushNotices logs the notifications published so far. The CLI is the
// host of the notification channel; a UI would show these as toasts.
func (a *app) flushNotices() {
	for {
		select {
		case e := <-a.notices:
			a.logger.Info("notice", "source", e.Source, "kind", e.Kind, "data", e.Data)
		default:
			return
		}
	}
}

// Close flushes pending notices and releases the databases.
func (a *app) Close() error {
	a.flushNotices()
	a.bus.Unsubscribe(a.notices)

	var errs []error
	if a.settings != nil {
		errs = append(errs, a.settings.Close())
	}
	if a.dir != nil {
		errs = append(errs, a.dir.Close())
	}
	return errors.Join(errs...)
}
