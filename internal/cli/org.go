package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/okian/roadlens/internal/app"
)

func runOrg(ctx context.Context, svc *app.Service) error {
	view, err := svc.Org().Load(ctx)
	if err != nil {
		return err
	}

	u := view.Usage
	fmt.Println(headingStyle.Render("Usage " + u.YearMonth))
	fmt.Printf("  processed minutes  %.1f / %.1f\n", u.ProcessedMinutes, u.Limits.ProcessedMinutes)
	fmt.Printf("  jobs               %d / %d\n", u.JobsTotal, u.Limits.Jobs)
	fmt.Printf("  exports            %d / %d\n", u.ExportsTotal, u.Limits.Exports)

	fmt.Println()
	fmt.Println(headingStyle.Render("API tokens"))
	if len(view.Tokens) == 0 {
		fmt.Println(dimStyle.Render("  none; create one with: roadlens token create <name>"))
	}
	for _, t := range view.Tokens {
		marker := ""
		if t.Revoked() {
			marker = "  " + rejectStyle.Render("revoked "+*t.RevokedAt)
		}
		fmt.Printf("  #%-4d %-20s created %s%s\n", t.ID, t.Name, t.CreatedAt, marker)
	}
	return nil
}

func runToken(ctx context.Context, svc *app.Service, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: roadlens token create <name> | token revoke <id>")
	}
	switch args[0] {
	case "create":
		plaintext, err := svc.Org().CreateToken(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Println("token created; this value is shown exactly once:")
		fmt.Println()
		fmt.Println("  " + plaintext)
		return nil
	case "revoke":
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid token id %q", args[1])
		}
		if err := svc.Org().RevokeToken(ctx, id); err != nil {
			return err
		}
		fmt.Printf("token %d revoked\n", id)
		return nil
	default:
		return fmt.Errorf("usage: roadlens token create <name> | token revoke <id>")
	}
}

func runCatalog(ctx context.Context, svc *app.Service) error {
	items, err := svc.Org().Catalog(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println(dimStyle.Render("no published data packs yet"))
		return nil
	}

	fmt.Println(headingStyle.Render("Data catalog"))
	for _, item := range items {
		fmt.Printf("  job %-4d %-30s %s  %s\n", item.JobID, item.Filename, item.DatapackVersion, dimStyle.Render(item.Hash))
		if item.Download != "" {
			fmt.Println(dimStyle.Render("           " + item.Download))
		}
	}
	return nil
}
