package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/corretor/internal/exam"
	"github.com/pavelanni/corretor/internal/export"
	"github.com/pavelanni/corretor/internal/handler"
	appI18n "github.com/pavelanni/corretor/internal/i18n"
	"github.com/pavelanni/corretor/internal/model"
	"github.com/pavelanni/corretor/internal/scheduler"
	"github.com/pavelanni/corretor/internal/scoring"
	"github.com/pavelanni/corretor/internal/store"
)

func main() {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "corretor",
		Short: "Multiple-choice exam grader with CSV, PDF and XLSX exports",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), importCmd(), historyCmd(), resetCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `corretor --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "corretor.db", "SQLite database path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP grading server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", appI18n.DefaultLang, "UI language and name sort order (pt-BR, en)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /prova)")
	f.Bool("secure-cookies", true, "Set Secure flag on cookies")
	f.String("operator-password", "", "Require this password to use the server (or set CORRETOR_OPERATOR_PASSWORD)")
	f.Duration("session-cleanup", 0, "Interval between expired-session cleanups (default 1h)")
	addCommonFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the stored results as CSV, PDF or XLSX",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.StringP("format", "f", "csv", "Output format (csv, pdf, xlsx)")
	f.StringP("output", "o", "", "Output file path (- for stdout, default is the download file name)")
	f.StringP("lang", "l", appI18n.DefaultLang, "Name sort order")
	addCommonFlags(cmd)
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the stored exam with an exported CSV or XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	addCommonFlags(cmd)
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent imports",
		RunE:  runHistory,
	}
	cmd.Flags().IntP("limit", "n", 20, "Number of imports to show")
	addCommonFlags(cmd)
	return cmd
}

func resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard the stored exam and start from defaults",
		RunE:  runReset,
	}
	addCommonFlags(cmd)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("CORRETOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("corretor")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/corretor")
	v.AddConfigPath("/etc/corretor")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// openSession opens the database and restores the stored exam.
func openSession(v *viper.Viper) (*store.Store, *exam.Session, error) {
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	snap, err := db.LoadSnapshot()
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	sess, err := exam.FromSnapshot(snap)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("restore exam: %w", err)
	}
	return db, sess, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, sess, err := openSession(v)
	if err != nil {
		return err
	}
	defer db.Close()

	if pw := v.GetString("operator-password"); pw != "" {
		if err := db.SetOperatorPassword(pw); err != nil {
			return fmt.Errorf("set operator password: %w", err)
		}
	}
	authEnabled, err := db.HasOperator()
	if err != nil {
		return fmt.Errorf("check operator: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	cleanup := scheduler.New(db, v.GetDuration("session-cleanup"))
	if err := cleanup.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer cleanup.Stop()

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.Config{
		Lang:          lang,
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
		AuthEnabled:   authEnabled,
	}

	h, err := handler.New(db, sess, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"base_path", basePath,
		"auth", authEnabled,
		"questions", sess.QuestionCount(),
		"students", len(sess.Roster()),
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	format, ok := model.ParseExportFormat(v.GetString("format"))
	if !ok {
		return fmt.Errorf("unknown export format %q (want csv, pdf or xlsx)", v.GetString("format"))
	}

	db, sess, err := openSession(v)
	if err != nil {
		return err
	}
	defer db.Close()

	view := scoring.View(sess.Snapshot(), scoring.ParseLanguage(v.GetString("lang")))
	if len(view.Rows) == 0 {
		return errors.New("no students to export")
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, view); err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}

	outPath := v.GetString("output")
	if outPath == "" {
		outPath = export.FileName(format, view)
	}
	var w io.Writer
	if outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	slog.Info("exported results", "format", format, "path", outPath, "students", len(view.Rows))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	snap, err := export.Read(bytes.NewReader(data), path)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}

	db, sess, err := openSession(v)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sess.Restore(snap); err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	if err := db.SaveSnapshot(sess.Snapshot()); err != nil {
		return err
	}

	rec := model.ImportRecord{
		Name:      filepath.Base(path),
		SHA256:    sha256sum(data),
		Questions: snap.QuestionCount,
		Students:  len(snap.Roster),
	}
	if err := db.RecordImport(rec); err != nil {
		slog.Warn("failed to record import", "path", path, "error", err)
	}
	slog.Info("imported results", "path", path, "questions", rec.Questions, "students", rec.Students)
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	records, err := db.ListImports(v.GetInt("limit"))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "IMPORTED\tFILE\tQUESTIONS\tSTUDENTS\tSHA256")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.12s\n",
			r.ImportedAt.Local().Format(time.DateTime), r.Name, r.Questions, r.Students, r.SHA256)
	}
	return w.Flush()
}

func runReset(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.DeleteSnapshot(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	slog.Info("exam reset to defaults")
	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
