// Command libraryctl performs administrative tasks against the library database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/library/library-go/internal/config"
	"github.com/library/library-go/internal/crypto"
	"github.com/library/library-go/internal/metrics"
	"github.com/library/library-go/internal/model"
	"github.com/library/library-go/internal/repository"
	"github.com/library/library-go/internal/service"
)

const generatedPasswordLength = 20

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "libraryctl",
		Short:        "Administer the library lending service",
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCmd(), newCreateAdminCmd(), newSetAdminCmd("promote", true), newSetAdminCmd("demote", false))
	return root
}

// openAuth connects to the configured database and builds an AuthService over it.
func openAuth(ctx context.Context) (*service.AuthService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	db, err := repository.NewDB(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}

	auth := service.NewAuthService(
		repository.NewStore(db),
		crypto.NewHasher(crypto.DefaultHashParams()),
		crypto.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry),
		metrics.New(),
	)
	return auth, func() { db.Close() }, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, closeDB, err := openAuth(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	var (
		name     string
		phone    string
		generate bool
	)

	cmd := &cobra.Command{
		Use:   "create-admin <email>",
		Short: "Create a user with admin rights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := adminPassword(cmd, generate)
			if err != nil {
				return err
			}

			auth, closeDB, err := openAuth(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			req := model.CreateUserRequest{Name: name, Email: args[0], Password: password}
			if phone != "" {
				req.Phone = &phone
			}

			user, err := auth.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := auth.SetAdmin(cmd.Context(), user.Email, true); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (id %d)\n", user.Email, user.ID)
			if generate {
				fmt.Fprintf(cmd.OutOrStdout(), "password: %s\n", password)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&phone, "phone", "", "optional phone number")
	cmd.Flags().BoolVar(&generate, "generate", false, "generate a random password instead of prompting")
	return cmd
}

func newSetAdminCmd(use string, isAdmin bool) *cobra.Command {
	short := "Grant admin rights to an existing user"
	if !isAdmin {
		short = "Revoke admin rights from a user"
	}

	return &cobra.Command{
		Use:   use + " <email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, closeDB, err := openAuth(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if err := auth.SetAdmin(cmd.Context(), args[0], isAdmin); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: is_admin=%t\n", args[0], isAdmin)
			return nil
		},
	}
}

func adminPassword(cmd *cobra.Command, generate bool) (string, error) {
	if generate {
		return crypto.GenerateCredential(generatedPasswordLength)
	}

	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", errors.New("stdin is not a terminal, use --generate")
	}

	first, err := readPassword(cmd, "Password: ")
	if err != nil {
		return "", err
	}
	second, err := readPassword(cmd, "Repeat password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	if first == "" {
		return "", errors.New("password must not be empty")
	}
	return first, nil
}

func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
