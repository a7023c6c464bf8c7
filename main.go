package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wikibuilder/render"
	"wikibuilder/server"
	"wikibuilder/wiki"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "wikibuilder",
	Short:         "Generate Wikipedia-style articles and website audits with an LLM",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

var wikiHTML bool

var wikiCmd = &cobra.Command{
	Use:   "wiki <topic>",
	Short: "Run the extract, summarize and format pipeline for a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWiki,
}

var auditCmd = &cobra.Command{
	Use:   "audit <url>",
	Short: "Audit a website's SEO, accessibility and performance",
	Args:  cobra.ExactArgs(1),
	RunE:  runAudit,
}

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides log.level)")
	wikiCmd.Flags().BoolVar(&wikiHTML, "html", false, "print a rendered HTML page instead of Markdown")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")

	rootCmd.AddCommand(wikiCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runWiki(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, configPath, logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	p, err := a.pipeline()
	if err != nil {
		return err
	}
	topic := strings.Join(args, " ")
	article, err := p.Run(ctx, topic)
	if err != nil {
		switch wiki.KindOf(err) {
		case wiki.KindInvalidInput:
			return errors.New("please enter a non-empty topic")
		case wiki.KindCancelled:
			return fmt.Errorf("generation cancelled: %w", err)
		default:
			return fmt.Errorf("generation failed, retry with the same or a different topic: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if !wikiHTML {
		fmt.Fprintln(out, article.Markdown)
		return nil
	}

	sections := wiki.Parse(article.Markdown)
	rendered, err := render.Sections(sections)
	if err != nil {
		return err
	}
	thumb := ""
	if th, err := a.thumbnails(); err == nil && th != nil {
		if src, err := th.Lookup(ctx, article.Topic); err == nil {
			thumb = src
		}
	}
	page, err := render.Article(render.Page{
		Topic:     article.Topic,
		Thumbnail: thumb,
		TOC:       wiki.TableOfContents(sections),
		Sections:  rendered,
		Elapsed:   article.Elapsed.Round(10 * time.Millisecond).String(),
	})
	if err != nil {
		return err
	}
	fmt.Fprint(out, page)
	return nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, configPath, logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	auditor, err := a.auditor()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Server.AuditTimeout)
	defer cancel()
	report, err := auditor.Run(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.Analysis)
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, configPath, logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	p, err := a.pipeline()
	if err != nil {
		return err
	}
	auditor, err := a.auditor()
	if err != nil {
		return err
	}
	var thumbs server.ThumbnailSource
	if th, err := a.thumbnails(); err != nil {
		return err
	} else if th != nil {
		thumbs = th
	}

	srv, err := server.New(p, auditor, thumbs, server.Config{
		MaxConcurrentJobs: a.cfg.Server.MaxConcurrentJobs,
		JobTimeout:        a.cfg.Server.JobTimeout,
		AuditTimeout:      a.cfg.Server.AuditTimeout,
		JobRetention:      a.cfg.Server.JobRetention,
	}, a.logger.Named("server"))
	if err != nil {
		return err
	}

	listen := a.cfg.Server.Addr
	if serveAddr != "" {
		listen = serveAddr
	}
	httpSrv := &http.Server{
		Addr:              listen,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting web server", zap.String("addr", listen))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		srv.Close()
		return err
	})
	return g.Wait()
}
