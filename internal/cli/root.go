// Package cli maps command-line verbs onto the orchestration service.
package cli

import (
	"context"
	"fmt"

	"github.com/okian/roadlens/internal/app"
	"github.com/okian/roadlens/internal/config"
)

// Run dispatches one CLI invocation against a ready service.
func Run(ctx context.Context, svc *app.Service, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "jobs":
		return runJobs(ctx, svc)
	case "job":
		return runJobDetail(ctx, svc, args[1:])
	case "watch":
		return runWatch(ctx, svc, cfg)
	case "run":
		return runJob(ctx, svc, args[1:])
	case "review":
		return runReview(ctx, svc, args[1:])
	case "upload":
		return runUpload(ctx, svc, args[1:])
	case "org":
		return runOrg(ctx, svc)
	case "token":
		return runToken(ctx, svc, args[1:])
	case "catalog":
		return runCatalog(ctx, svc)
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("roadlens: traffic-video analytics dashboard client")
	fmt.Println()
	fmt.Println("Job Commands:")
	fmt.Println("  jobs                         list processing jobs once")
	fmt.Println("  watch                        live job list (polls the backend)")
	fmt.Println("  job <id> [--clip <clip-id>]  full detail view for one job")
	fmt.Println("  run <id>                     trigger processing for a queued job")
	fmt.Println("  upload <file>                upload a video and create a job")
	fmt.Println()
	fmt.Println("Review Commands:")
	fmt.Println("  review <job-id> <event-id> confirm|reject [--clip <clip-id>]")
	fmt.Println()
	fmt.Println("Org Commands:")
	fmt.Println("  org                          monthly usage and API token listing")
	fmt.Println("  token create <name>          mint a token (plaintext shown once)")
	fmt.Println("  token revoke <id>            revoke a token")
	fmt.Println("  catalog                      published data-pack catalog")
	fmt.Println()
	fmt.Println("Configuration comes from ROADLENS_* environment variables,")
	fmt.Println("an optional .env file, and the YAML file named by ROADLENS_CONFIG.")
}
