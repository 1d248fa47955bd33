package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/examgrid/gradeflow/internal/backend"
	"github.com/examgrid/gradeflow/internal/config"
	"github.com/examgrid/gradeflow/internal/database"
	"github.com/examgrid/gradeflow/internal/domain"
	"github.com/examgrid/gradeflow/internal/logger"
	"github.com/examgrid/gradeflow/internal/repository"
	"github.com/examgrid/gradeflow/internal/service"
	"go.uber.org/zap"
)

const usage = `gradeflow - exam grading workflow client

Usage:
  gradeflow <command> [flags]

Commands:
  upload-key       Upload an answer key and attach its metadata
  set-metadata     Attach metadata to an existing key sheet
  upload-students  Upload student scripts for a key sheet
  evaluate         Trigger grading for a key sheet
  results          Print the raw results body for a key sheet
  summary          Print the normalized results and summary statistics
  student-sheet    Fetch one student's stored document record
  list             List key sheets from the auxiliary store
  delete           Delete a key sheet from the auxiliary store
  health           Check backend liveness
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}
	command := os.Args[1]
	args := os.Args[2:]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := backend.NewClient(&cfg.Backend, log)

	var keySheetRepo *repository.KeySheetRepository
	auxDB, err := database.NewAuxStore(&cfg.AuxStore, log)
	if err != nil {
		// The auxiliary store is optional; only list/delete need it
		log.Warn("Auxiliary store connection failed, continuing without it", zap.Error(err))
	} else if auxDB != nil {
		keySheetRepo = repository.NewKeySheetRepository(auxDB)
	}

	svc := service.NewGradingService(client, keySheetRepo, log)

	switch command {
	case "upload-key":
		return runUploadKey(ctx, svc, args)
	case "set-metadata":
		return runSetMetadata(ctx, svc, args)
	case "upload-students":
		return runUploadStudents(ctx, svc, args)
	case "evaluate":
		return runEvaluate(ctx, svc, args)
	case "results":
		return runResults(ctx, svc, args)
	case "summary":
		return runSummary(ctx, svc, args)
	case "student-sheet":
		return runStudentSheet(ctx, svc, args)
	case "list":
		return runList(ctx, svc)
	case "delete":
		return runDelete(ctx, svc, args)
	case "health":
		return runHealth(ctx, svc)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func runUploadKey(ctx context.Context, svc *service.GradingService, args []string) error {
	fs := flag.NewFlagSet("upload-key", flag.ExitOnError)
	path := fs.String("file", "", "path to the answer key document")
	subject := fs.String("subject", "", "subject name")
	questions := fs.Int("questions", 0, "total number of questions")
	totalScore := fs.Float64("total-score", 0, "maximum attainable score")
	gradeSystem := fs.String("grade-system", "", "grade system label (default A/B/C)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	file, err := openUploadFile(*path)
	if err != nil {
		return err
	}
	defer file.close()

	creation, err := svc.UploadKeySheet(ctx, file.upload, domain.KeyMetadataInput{
		SubjectName:    *subject,
		TotalQuestions: *questions,
		TotalScore:     *totalScore,
		GradeSystem:    *gradeSystem,
	})
	if err != nil {
		return err
	}
	return printJSON(creation)
}

func runSetMetadata(ctx context.Context, svc *service.GradingService, args []string) error {
	fs := flag.NewFlagSet("set-metadata", flag.ExitOnError)
	keySheetID := fs.String("key", "", "key sheet id")
	subject := fs.String("subject", "", "subject name")
	questions := fs.Int("questions", 0, "total number of questions")
	totalScore := fs.Float64("total-score", 0, "maximum attainable score")
	gradeSystem := fs.String("grade-system", "", "grade system label (default A/B/C)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	creation, err := svc.SetKeySheetMetadata(ctx, *keySheetID, domain.KeyMetadataInput{
		SubjectName:    *subject,
		TotalQuestions: *questions,
		TotalScore:     *totalScore,
		GradeSystem:    *gradeSystem,
	})
	if err != nil {
		return err
	}
	return printJSON(creation)
}

// runUploadStudents accepts positional studentID=path pairs after the flags
func runUploadStudents(ctx context.Context, svc *service.GradingService, args []string) error {
	fs := flag.NewFlagSet("upload-students", flag.ExitOnError)
	keySheetID := fs.String("key", "", "key sheet id")
	perStudent := fs.Bool("continue-on-error", false, "upload one request per student and continue past failures")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pairs := fs.Args()
	if len(pairs) == 0 {
		return fmt.Errorf("no scripts given; expected studentID=path arguments")
	}

	var files []domain.StudentFile
	var opened []*uploadHandle
	defer func() {
		for _, h := range opened {
			h.close()
		}
	}()
	for _, pair := range pairs {
		studentID, path, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid script argument %q; expected studentID=path", pair)
		}
		h, err := openUploadFile(path)
		if err != nil {
			return err
		}
		opened = append(opened, h)
		files = append(files, domain.StudentFile{StudentID: studentID, File: h.upload})
	}

	if *perStudent {
		outcomes := make([]domain.StudentUploadOutcome, 0, len(files))
		for _, f := range files {
			outcomes = append(outcomes, svc.UploadStudentFile(ctx, *keySheetID, f.File, f.StudentID))
		}
		return printJSON(outcomes)
	}

	scripts, err := svc.UploadStudentScripts(ctx, *keySheetID, files)
	if err != nil {
		return err
	}
	return printJSON(scripts)
}

func runEvaluate(ctx context.Context, svc *service.GradingService, args []string) error {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	keySheetID := fs.String("key", "", "key sheet id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := svc.EvaluateStudentScripts(ctx, *keySheetID); err != nil {
		return err
	}
	fmt.Printf("evaluation started for key sheet %s; poll with: gradeflow summary -key %s\n",
		*keySheetID, *keySheetID)
	return nil
}

func runResults(ctx context.Context, svc *service.GradingService, args []string) error {
	fs := flag.NewFlagSet("results", flag.ExitOnError)
	keySheetID := fs.String("key", "", "key sheet id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	raw, err := svc.GetEvaluationResults(ctx, *keySheetID)
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

func runSummary(ctx context.Context, svc *service.GradingService, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	keySheetID := fs.String("key", "", "key sheet id")
	watch := fs.Bool("watch", false, "poll until results are available")
	interval := fs.Duration("interval", 10*time.Second, "polling interval with -watch")
	if err := fs.Parse(args); err != nil {
		return err
	}

	for {
		summary, err := svc.GetEvaluationSummary(ctx, *keySheetID)
		if err != nil {
			return err
		}
		if !*watch || summary.Summary.TotalStudents > 0 {
			return printJSON(summary)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(*interval):
		}
	}
}

func runStudentSheet(ctx context.Context, svc *service.GradingService, args []string) error {
	fs := flag.NewFlagSet("student-sheet", flag.ExitOnError)
	studentID := fs.String("id", "", "student id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sheet, err := svc.GetStudentSheet(ctx, *studentID)
	if err != nil {
		return err
	}
	return printJSON(sheet)
}

func runList(ctx context.Context, svc *service.GradingService) error {
	sheets, err := svc.ListKeySheets(ctx)
	if err != nil {
		return err
	}
	return printJSON(sheets)
}

func runDelete(ctx context.Context, svc *service.GradingService, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.String("id", "", "key sheet id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("key sheet id is required")
	}

	if err := svc.DeleteKeySheet(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("key sheet %s deleted\n", *id)
	return nil
}

func runHealth(ctx context.Context, svc *service.GradingService) error {
	if svc.CheckBackendHealth(ctx) {
		fmt.Println("backend: healthy")
		return nil
	}
	return fmt.Errorf("backend unreachable")
}

type uploadHandle struct {
	upload domain.UploadFile
	close  func()
}

func openUploadFile(path string) (*uploadHandle, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &uploadHandle{
		upload: domain.UploadFile{Filename: filepath.Base(path), Content: f},
		close:  func() { _ = f.Close() },
	}, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
