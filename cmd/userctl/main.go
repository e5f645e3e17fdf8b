package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/pdfvault/pdfvault-backend/internal/auth"
	authbiz "github.com/pdfvault/pdfvault-backend/internal/auth/biz"
	authdata "github.com/pdfvault/pdfvault-backend/internal/auth/data"
	"github.com/pdfvault/pdfvault-backend/internal/conf"
	filebiz "github.com/pdfvault/pdfvault-backend/internal/file/biz"
	filedata "github.com/pdfvault/pdfvault-backend/internal/file/data"
	"github.com/pdfvault/pdfvault-backend/internal/file/storage"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/database"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/logger"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/sizefmt"
	"golang.org/x/term"
)

const usage = `userctl - account administration for the PDF vault

Usage:
  userctl [-config config.yaml] <command> [arguments]

Commands:
  init               create or migrate the database schema
  create <email>     create a user (prompts for password)
  delete <email>     delete a user and all their files
  list               list all users
  info <email>       show a user's details and storage usage
  password <email>   set a new password for a user (prompts)
`

func main() {
	configFile := flag.String("config", "config.yaml", "config file path")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	// Keep the CLI quiet; database errors still go to stderr
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "console"})
	if err != nil {
		fatal("failed to initialize logger: %v", err)
	}
	defer log.Sync()

	db, err := database.New(&config.Database, log)
	if err != nil {
		fatal("failed to connect to database: %v", err)
	}
	defer db.Close()

	store, err := storage.NewLocalStore(config.Storage.UploadDir, config.Storage.TempDir, log)
	if err != nil {
		fatal("failed to initialize storage: %v", err)
	}

	userRepo := authdata.NewUserRepo(db, log)
	fileRepo := filedata.NewFileRepo(db, log)
	authUC := authbiz.NewAuthUseCase(userRepo, auth.NewJWTManager("", "", 0), authbiz.AdminCredentials{}, nil, log)
	fileUC := filebiz.NewFileUseCase(fileRepo, store, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args[0] {
	case "init":
		cmdInit(db)
	case "create":
		requireArg(args, "create")
		cmdCreate(ctx, authUC, args[1])
	case "delete":
		requireArg(args, "delete")
		cmdDelete(ctx, authUC, fileUC, args[1])
	case "list":
		cmdList(ctx, authUC)
	case "info":
		requireArg(args, "info")
		cmdInfo(ctx, authUC, fileRepo, args[1])
	case "password":
		requireArg(args, "password")
		cmdPassword(ctx, authUC, args[1])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
}

func requireArg(args []string, cmd string) {
	if len(args) < 2 {
		fatal("usage: userctl %s <email>", cmd)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func promptPassword(prompt string) string {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fatal("failed to read password: %v", err)
	}
	return string(password)
}

func promptNewPassword() string {
	password := promptPassword("New password: ")
	confirm := promptPassword("Confirm password: ")
	if password != confirm {
		fatal("passwords do not match")
	}
	return password
}

func cmdInit(db *database.DB) {
	if err := db.GetDB().AutoMigrate(&authdata.UserPO{}, &filedata.FilePO{}); err != nil {
		fatal("migration failed: %v", err)
	}
	fmt.Println("database schema is up to date")
}

func cmdCreate(ctx context.Context, authUC *authbiz.AuthUseCase, email string) {
	password := promptNewPassword()

	user, err := authUC.Register(ctx, email, password)
	if err != nil {
		fatal("failed to create user: %v", err)
	}
	fmt.Printf("created user %s (id %s)\n", user.Email, user.ID)
}

func cmdDelete(ctx context.Context, authUC *authbiz.AuthUseCase, fileUC *filebiz.FileUseCase, email string) {
	if _, err := authUC.GetUserInfo(ctx, email); err != nil {
		fatal("%v", err)
	}

	fmt.Printf("delete user %s and ALL their files? [y/N]: ", email)
	var answer string
	fmt.Scanln(&answer)
	if answer != "y" && answer != "Y" {
		fmt.Println("aborted")
		return
	}

	removed, err := fileUC.PurgeOwner(ctx, email)
	if err != nil {
		fatal("failed to remove files: %v", err)
	}
	if err := authUC.DeleteUser(ctx, email); err != nil {
		fatal("failed to delete user: %v", err)
	}
	fmt.Printf("deleted user %s and %d file(s)\n", email, removed)
}

func cmdList(ctx context.Context, authUC *authbiz.AuthUseCase) {
	users, err := authUC.ListUsers(ctx)
	if err != nil {
		fatal("failed to list users: %v", err)
	}

	if len(users) == 0 {
		fmt.Println("no users")
		return
	}

	fmt.Printf("%-40s %s\n", "EMAIL", "CREATED")
	for _, user := range users {
		fmt.Printf("%-40s %s\n", user.Email, user.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("\n%d user(s)\n", len(users))
}

func cmdInfo(ctx context.Context, authUC *authbiz.AuthUseCase, fileRepo filebiz.FileRepo, email string) {
	user, err := authUC.GetUserInfo(ctx, email)
	if err != nil {
		fatal("%v", err)
	}

	records, err := fileRepo.ListAllByOwner(ctx, email)
	if err != nil {
		fatal("failed to list files: %v", err)
	}

	var totalBytes int64
	globalCount := 0
	for _, record := range records {
		totalBytes += record.SizeBytes
		if record.IsGlobal {
			globalCount++
		}
	}

	fmt.Printf("email:       %s\n", user.Email)
	fmt.Printf("id:          %s\n", user.ID)
	fmt.Printf("created:     %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("files:       %d (%d global)\n", len(records), globalCount)
	fmt.Printf("storage:     %s\n", sizefmt.Format(totalBytes))
}

func cmdPassword(ctx context.Context, authUC *authbiz.AuthUseCase, email string) {
	password := promptNewPassword()

	if err := authUC.AdminResetPassword(ctx, email, password); err != nil {
		fatal("failed to set password: %v", err)
	}
	fmt.Printf("password updated for %s\n", email)
}
