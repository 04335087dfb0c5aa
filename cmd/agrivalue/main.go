package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"AgriValue/internal/analyzer"
	"AgriValue/internal/appraisal"
	"AgriValue/internal/config"
	"AgriValue/internal/history"
	"AgriValue/internal/model"
	"AgriValue/internal/notifier"
	"AgriValue/internal/scheduler"
	"AgriValue/internal/storage"
)

const usage = `usage: agrivalue <command> [flags]

commands:
  analyze <image> [-min N -max N]        identify equipment in a photo and look up prices
  search -make M [-model M -type T -year Y] [-image PATH]
                                         look up prices for manually entered details
  correct <id> -make M [-model ...]      re-run the price search for a history entry
  show <id> [-min N -max N]              show a saved appraisal
  history                                list saved appraisals
  clear                                  delete all saved appraisals
  refresh                                re-query prices for saved appraisals
  watch                                  run scheduled refreshes and answer Telegram commands
`

var (
	alert  = color.New(color.FgRed, color.Bold)
	header = color.New(color.FgCyan, color.Bold)
	faint  = color.New(color.Faint)
)

type app struct {
	cfg *config.Config
	kv  storage.KV
	svc *appraisal.Service
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	a, err := newApp(cfg)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	defer a.kv.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "analyze":
		err = a.analyze(ctx, args)
	case "search":
		err = a.search(ctx, args)
	case "correct":
		err = a.correct(ctx, args)
	case "show":
		err = a.show(ctx, args)
	case "history":
		fmt.Print(notifier.FormatHistory(a.svc.History.GetAll(ctx)))
	case "clear":
		a.svc.History.Clear(ctx)
		fmt.Println("History cleared.")
	case "refresh":
		err = a.refresh(ctx)
	case "watch":
		err = a.watch(ctx)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		alert.Fprintln(os.Stderr, analyzer.UserMessage(err))
		log.Printf("[ERROR] %s: %v", cmd, err)
		a.kv.Close()
		os.Exit(1)
	}
}

func newApp(cfg *config.Config) (*app, error) {
	kv, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var vault history.ImageVault = history.NewNoopVault()
	if cfg.ImagesEnabled() {
		dv, err := history.NewDirVault(cfg.Storage.ImageDir)
		if err != nil {
			log.Printf("[WARN] image dir unavailable, referencing images in place: %v", err)
		} else {
			vault = dv
		}
	}

	an := analyzer.NewHTTPAnalyzer(cfg.API.BaseURL, cfg.API.AnalyzePath, cfg.Proxy, cfg.API.Timeout)
	store := history.NewStore(kv, vault)
	return &app{cfg: cfg, kv: kv, svc: appraisal.NewService(an, store)}, nil
}

func queryFlags(fs *flag.FlagSet) *analyzer.Query {
	q := &analyzer.Query{}
	fs.StringVar(&q.Make, "make", "", "manufacturer")
	fs.StringVar(&q.Model, "model", "", "model name")
	fs.StringVar(&q.Type, "type", "", "equipment type")
	fs.StringVar(&q.Year, "year", "", "year or year range")
	return q
}

// parseWithArg parses flags that may follow a single positional argument.
func parseWithArg(fs *flag.FlagSet, args []string, name string) (string, error) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		if err := fs.Parse(args[1:]); err != nil {
			return "", err
		}
		return args[0], nil
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() == 0 {
		return "", fmt.Errorf("%s is required", name)
	}
	return fs.Arg(0), nil
}

func (a *app) analyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	var w priceWindow
	w.register(fs)
	image, err := parseWithArg(fs, args, "image path")
	if err != nil {
		return err
	}
	res, err := a.svc.Analyze(ctx, image)
	if err != nil {
		return err
	}
	a.print(w.apply(fs, res))
	return nil
}

func (a *app) search(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	q := queryFlags(fs)
	image := fs.String("image", "", "photo to attach to the history entry")
	if err := fs.Parse(args); err != nil {
		return err
	}
	res, err := a.svc.Search(ctx, *q, *image)
	if err != nil {
		return err
	}
	a.print(res)
	return nil
}

func (a *app) correct(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("correct", flag.ExitOnError)
	q := queryFlags(fs)
	id, err := parseWithArg(fs, args, "history id")
	if err != nil {
		return err
	}
	res, err := a.svc.Correct(ctx, id, *q)
	if err != nil {
		return err
	}
	a.print(res)
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	var w priceWindow
	w.register(fs)
	id, err := parseWithArg(fs, args, "history id")
	if err != nil {
		return err
	}
	res, ok := a.svc.Select(ctx, id)
	if !ok {
		return fmt.Errorf("history entry %s not found", id)
	}
	a.print(w.apply(fs, res))
	return nil
}

func (a *app) refresh(ctx context.Context) error {
	report, err := a.svc.Refresh(ctx, a.cfg.Schedule.RefreshLimit)
	if err != nil {
		return err
	}
	fmt.Print(notifier.FormatRefresh(report))
	return nil
}

func (a *app) watch(ctx context.Context) error {
	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if a.cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy)
		sender = tn
	}

	sched := scheduler.NewScheduler(ctx, a.svc, sender, a.cfg.Schedule.RefreshLimit)
	if err := sched.Register(a.cfg.Schedule.RefreshCron); err != nil {
		return err
	}
	sched.Start()

	var wg sync.WaitGroup
	defer func() {
		sched.Stop()
		wg.Wait()
	}()

	if tn != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tn.StartPolling(ctx, sched.HandleCommand)
		}()
		log.Println("[INFO] Telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, refreshing prices now")
		sched.RunRefreshAsync()
	}

	log.Println("[INFO] AgriValue is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
	return nil
}

func (a *app) print(res *appraisal.Appraisal) {
	r := res.Result
	if r.Origin() == model.SourceManual {
		header.Print("Manual search ")
	} else {
		header.Print("AI appraisal ")
	}
	faint.Printf("(%s)\n", a.svc.Analyzer.Name())
	if r.VerificationWarning != "" && !r.Verified {
		color.Yellow("Check the identification before relying on these prices.")
	}
	fmt.Print(notifier.FormatAppraisal(res, notifier.DefaultListingLimit))
	if res.HistoryID == "" {
		color.Yellow("Result was not saved to history.")
	}
}
