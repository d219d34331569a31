// revalidate re-runs document validation for an order, or for one document,
// after threshold or extraction fixes.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/revalidate -order <id>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/kilo/kilo_backend/config"
	"github.com/kilo/kilo_backend/models"
	"github.com/kilo/kilo_backend/utils"
	"github.com/kilo/kilo_backend/workflow"
)

func main() {
	orderID := flag.String("order", "", "Required unless -document is set: order id")
	documentID := flag.String("document", "", "Optional: only this document")
	dryRun := flag.Bool("dry-run", false, "Compute and print results without writing them")
	continueOnError := flag.Bool("continue-on-error", false, "Skip failing documents and continue with the others")
	flag.Parse()

	if strings.TrimSpace(*orderID) == "" && strings.TrimSpace(*documentID) == "" {
		fmt.Fprintln(os.Stderr, "-order or -document is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := config.GetLogger()
	ctx := utils.WithoutParticipantScope(context.Background())

	var ids []string
	if id := strings.TrimSpace(*documentID); id != "" {
		ids = append(ids, id)
	} else {
		docs, err := models.ListOrderDocuments(ctx, strings.TrimSpace(*orderID))
		if err != nil {
			fmt.Fprintf(os.Stderr, "list documents: %v\n", err)
			os.Exit(1)
		}
		for _, d := range docs {
			ids = append(ids, d.ID)
		}
	}
	if len(ids) == 0 {
		fmt.Println("no documents found")
		return
	}

	store := models.NewGormValidationStore(db)
	validator := workflow.NewDocumentValidator(store, workflow.PubSubPublisher{}, logger)

	var done, skipped int
	for _, id := range ids {
		if *dryRun {
			if err := printDryRun(ctx, validator, store, id); err != nil {
				if errors.Is(err, workflow.ErrNoExtraction) {
					fmt.Printf("document=%s skipped: %v\n", id, err)
					skipped++
					continue
				}
				if *continueOnError {
					fmt.Fprintf(os.Stderr, "document=%s failed (skipping): %v\n", id, err)
					continue
				}
				fmt.Fprintf(os.Stderr, "document=%s failed: %v\n", id, err)
				os.Exit(1)
			}
			done++
			continue
		}

		out, err := validator.ValidateDocument(ctx, id, "")
		if errors.Is(err, workflow.ErrNoExtraction) {
			fmt.Printf("document=%s skipped: %v\n", id, err)
			skipped++
			continue
		}
		if err != nil {
			if *continueOnError {
				fmt.Fprintf(os.Stderr, "document=%s failed (skipping): %v\n", id, err)
				continue
			}
			fmt.Fprintf(os.Stderr, "document=%s failed: %v\n", id, err)
			os.Exit(1)
		}
		fmt.Printf("document=%s match=%.1f%% (%d/%d) disposition=%s persisted=%t\n",
			id, out.Result.MatchPercentage, out.Result.ChecksMatched, out.Result.ChecksConsidered,
			out.Result.Disposition, out.Persisted)
		done++
	}

	fmt.Printf("revalidate complete: %d validated, %d skipped\n", done, skipped)
}

// printDryRun reconciles stored data the way a live run would and prints
// every verdict.
func printDryRun(ctx context.Context, validator *workflow.DocumentValidator, store *models.GormValidationStore, id string) error {
	doc, err := store.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if !doc.HasExtraction() {
		return workflow.ErrNoExtraction
	}
	order, err := store.GetOrder(ctx, doc.OrderId)
	if err != nil {
		return err
	}
	res := validator.Reconcile(doc, order)

	fmt.Printf("document=%s match=%.1f%% (%d/%d) disposition=%s (dry run)\n",
		id, res.MatchPercentage, res.ChecksMatched, res.ChecksConsidered, res.Disposition)
	for _, v := range res.Verdicts {
		delta := ""
		if v.DeltaPercent.Valid {
			delta = " delta=" + v.DeltaPercent.Decimal.String() + "%"
		}
		fmt.Printf("  %-16s order=%q extracted=%q match=%s%s\n", v.Field, v.OrderValue, v.ExtractedValue, v.Match, delta)
	}
	return nil
}
