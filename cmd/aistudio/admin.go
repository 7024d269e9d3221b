package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/adzspec-asad/ai-studio-api/internal/adapter/goosemigrate"
	"github.com/adzspec-asad/ai-studio-api/internal/adapter/migratecli"
	"github.com/adzspec-asad/ai-studio-api/internal/adapter/postgres"
	"github.com/adzspec-asad/ai-studio-api/internal/config"
	"github.com/adzspec-asad/ai-studio-api/internal/domain/tenant"
	"github.com/adzspec-asad/ai-studio-api/internal/domain/user"
	"github.com/adzspec-asad/ai-studio-api/internal/port/schema"
	"github.com/adzspec-asad/ai-studio-api/internal/secrets"
	"github.com/adzspec-asad/ai-studio-api/internal/service"
)

// runAdmin dispatches admin subcommands.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "create-user":
		return runAdminCreateUser(args[1:])
	case "list-users":
		return runAdminListUsers(args[1:])
	case "reset-password":
		return runAdminResetPassword(args[1:])
	case "provision-tenant":
		return runAdminProvisionTenant(args[1:])
	case "remove-tenant":
		return runAdminRemoveTenant(args[1:])
	case "list-tenants":
		return runAdminListTenants(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: aistudio admin <command> [options]

Commands:
  create-user        Create a system user
  list-users         List all system users
  reset-password     Reset a system user's password
  provision-tenant   Create a tenant database, role and registry entry
  remove-tenant      Drop a tenant's database, role and registry entry
  list-tenants       List registered tenants
  help               Show this help message

Examples:
  aistudio admin create-user --email root@example.com --name "Root" --superadmin
  aistudio admin reset-password --email root@example.com
  aistudio admin provision-tenant --name "Acme Corp" --slug acme
  aistudio admin remove-tenant --slug acme
`)
}

type adminDeps struct {
	auth    *service.AuthService
	tenants *service.TenantService
	cleanup func()
}

func loadAdminDeps() (*adminDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewMasterPool(ctx, cfg.MasterDB)
	if err != nil {
		return nil, fmt.Errorf("connect to master database: %w", err)
	}

	log := slog.Default()
	store := postgres.NewStore(pool)
	prov := postgres.NewProvisioner(pool, cfg.MasterDB.Database, log)
	pools := postgres.NewPools(postgres.PgxOpen(cfg.TenantPool), cfg.TenantPool.IdleTTL, log)

	var applier schema.Applier
	if cfg.Migration.Mode == "subprocess" {
		applier = migratecli.New(cfg.Migration.GooseBin, cfg.Migration.TenantDir, cfg.Migration.Timeout)
	} else {
		applier = goosemigrate.New(cfg.Migration.Timeout)
	}

	var cipher *secrets.Cipher
	if key := os.Getenv(cfg.Encryption.KeyEnv); key != "" {
		cipher, err = secrets.NewCipher(key)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("encryption key: %w", err)
		}
	}

	return &adminDeps{
		auth: service.NewAuthService(store, cfg.Auth),
		tenants: service.NewTenantService(service.TenantServiceOpts{
			Store:    store,
			Prov:     prov,
			Applier:  applier,
			Pools:    pools,
			Cipher:   cipher,
			Defaults: tenant.Defaults{DBHost: cfg.MasterDB.Host, DBPort: cfg.MasterDB.Port},
			Log:      log,
		}),
		cleanup: func() {
			pools.Close()
			pool.Close()
		},
	}, nil
}

func runAdminCreateUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	email := fs.String("email", "", "user email address (required)")
	name := fs.String("name", "", "user display name (required)")
	password := fs.String("password", "", "password (prompted if not provided)") //nolint:gosec // CLI flag
	superadmin := fs.Bool("superadmin", false, "grant superadmin role")
	support := fs.Bool("support", false, "grant support role instead of admin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	pass := *password
	if pass == "" {
		var err error
		pass, err = promptPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if pass != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}

	role := user.RoleAdmin
	if *superadmin {
		role = user.RoleSuperadmin
	} else if *support {
		role = user.RoleSupport
	}

	deps, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer deps.cleanup()

	u, err := deps.auth.Register(context.Background(), &user.CreateRequest{
		Email:    *email,
		Name:     *name,
		Password: pass,
		Role:     role,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(os.Stderr, "User created: %s (id=%s, role=%s)\n", u.Email, u.ID, u.Role)
	return nil
}

func runAdminListUsers(args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	deps, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer deps.cleanup()

	users, err := deps.auth.ListUsers(context.Background())
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tENABLED")
	for i := range users {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
			users[i].ID, users[i].Email, users[i].Name, users[i].Role, users[i].Enabled)
	}
	return w.Flush()
}

func runAdminResetPassword(args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	email := fs.String("email", "", "user email address (required)")
	password := fs.String("password", "", "new password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	newPass := *password
	if newPass == "" {
		var err error
		newPass, err = promptPassword("New password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if newPass != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}

	deps, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer deps.cleanup()

	if err := deps.auth.ResetPassword(context.Background(), *email, newPass); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Password reset successfully for %s\n", *email)
	return nil
}

func runAdminProvisionTenant(args []string) error {
	fs := flag.NewFlagSet("provision-tenant", flag.ContinueOnError)
	name := fs.String("name", "", "tenant display name (required)")
	slug := fs.String("slug", "", "tenant slug (derived if omitted)")
	dbHost := fs.String("db-host", "", "tenant database host (defaults to master host)")
	dbPort := fs.Int("db-port", 0, "tenant database port (defaults to master port)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	deps, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer deps.cleanup()

	t, err := deps.tenants.Provision(context.Background(), tenant.Spec{
		Name:   *name,
		Slug:   *slug,
		DBHost: *dbHost,
		DBPort: *dbPort,
	})
	if err != nil {
		return fmt.Errorf("provision tenant: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Tenant provisioned: %s (db=%s, user=%s)\n", t.Slug, t.DBName, t.DBUser)
	return nil
}

func runAdminRemoveTenant(args []string) error {
	fs := flag.NewFlagSet("remove-tenant", flag.ContinueOnError)
	slug := fs.String("slug", "", "tenant slug (required)")
	yes := fs.Bool("yes", false, "skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *slug == "" {
		return fmt.Errorf("--slug is required")
	}

	if !*yes {
		fmt.Fprintf(os.Stderr, "This drops the tenant database and role for %q. Type the slug to confirm: ", *slug)
		var confirm string
		if _, err := fmt.Scanln(&confirm); err != nil || confirm != *slug {
			return fmt.Errorf("confirmation did not match, aborting")
		}
	}

	deps, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer deps.cleanup()

	if err := deps.tenants.Remove(context.Background(), *slug); err != nil {
		return fmt.Errorf("remove tenant: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Tenant removed: %s\n", *slug)
	return nil
}

func runAdminListTenants(args []string) error {
	fs := flag.NewFlagSet("list-tenants", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	deps, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer deps.cleanup()

	tenants, err := deps.tenants.List(context.Background())
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	if len(tenants) == 0 {
		fmt.Println("No tenants found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SLUG\tNAME\tDB_HOST\tDB_NAME\tSTATUS")
	for i := range tenants {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s:%d\t%s\t%s\n",
			tenants[i].Slug, tenants[i].Name, tenants[i].DBHost, tenants[i].DBPort, tenants[i].DBName, tenants[i].Status)
	}
	return w.Flush()
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
