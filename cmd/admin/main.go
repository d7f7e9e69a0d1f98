// Command admin is a terminal console over the admin API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"admingate/internal/adminapi"
	"admingate/internal/cache"
	"admingate/internal/config"
	"admingate/internal/observability"
	"admingate/internal/service"
)

const usage = `Usage: admin <command> [arguments]

Commands:
  me                          Show the signed-in admin and capabilities
  users [flags]               List users
  user <id>                   Show a user with restrictions and pending approvals
  status <id> [flags]         Change a user's account status
  restrict <id> [flags]       Create or update a restriction
  ban <id> [flags]            Ban a user
  resolve <id> [flags]        Lift a restriction or ban, or restore a terminated account
  approvals [flags]           List approval requests
  approval <id>               Show one approval request
  decide <id> [flags]         Approve or reject a pending request
  cancel <id> [flags]         Cancel a pending request
  token [flags]               Mint a sandbox bearer token
`

// console bundles the services one command run needs.
type console struct {
	cfg       *config.Config
	out       *printer
	guard     *adminapi.SessionGuard
	access    *service.AccessService
	approvals *service.ApprovalService
	directory *service.DirectoryService
	caps      *service.CapabilityService
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	observability.SetLevel(cfg.LogLevel)

	shutdownTracing, err := observability.InitTracing(cfg.Tracing("admingate-cli"))
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg, os.Args[1], os.Args[2:])
	stop()
	if err := shutdownTracing(context.Background()); err != nil {
		observability.GlobalLogger.Warn("tracing shutdown failed", "error", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, command string, args []string) int {
	out := newPrinter(os.Stdout, cfg.OutputFormat)

	if command == "token" {
		return report(nil, cmdToken(cfg, out, args))
	}

	c, err := newConsole(ctx, cfg, out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	handlers := map[string]func(context.Context, []string) error{
		"me":        c.cmdMe,
		"users":     c.cmdUsers,
		"user":      c.cmdUser,
		"status":    c.cmdStatus,
		"restrict":  c.cmdRestrict,
		"ban":       c.cmdBan,
		"resolve":   c.cmdResolve,
		"approvals": c.cmdApprovals,
		"approval":  c.cmdApproval,
		"decide":    c.cmdDecide,
		"cancel":    c.cmdCancel,
	}
	handler, ok := handlers[command]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n%s", command, usage)
		return 2
	}
	return report(c.guard, handler(ctx, args))
}

func newConsole(ctx context.Context, cfg *config.Config, out *printer) (*console, error) {
	client, err := adminapi.NewClient(cfg.AdminAPIURL, cfg.AdminAPIToken, cfg.Timeout())
	if err != nil {
		return nil, err
	}

	guard := adminapi.NewSessionGuard(func(context.Context) {
		fmt.Fprintf(os.Stderr, "Your admin session has ended. Sign in again at %s\n", cfg.LoginURL)
	})
	client.Use(adminapi.AccountDeniedHook(guard))

	var snapshots *cache.CapabilityCache
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			observability.GlobalLogger.Warn("capability cache unavailable, continuing without it", "error", err)
		} else {
			snapshots = cache.NewCapabilityCache(rdb, cfg.CacheTTL())
		}
	}

	policy := cfg.Policy()
	directory := service.NewDirectoryService(client, policy)
	caps := service.NewCapabilityService(directory, snapshots, policy, client.Fingerprint())
	client.Use(caps.RefreshHook())

	return &console{
		cfg:       cfg,
		out:       out,
		guard:     guard,
		access:    service.NewAccessService(client, nil),
		approvals: service.NewApprovalService(client),
		directory: directory,
		caps:      caps,
	}, nil
}

// report turns a command error into an exit code. Account denials were
// already reported by the session guard.
func report(guard *adminapi.SessionGuard, err error) int {
	if err == nil {
		return 0
	}
	if guard != nil && guard.Tripped() && adminapi.IsAccountAccessDenied(err) {
		return 1
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintln(os.Stderr, usageErr.Error())
		return 2
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}
