package catalog

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/oelhadidy/agrovet-backend/pkg/enums"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
)

// ScanReport summarizes one scan run.
type ScanReport struct {
	Scanned  int `json:"scanned"`
	Notified int `json:"notified"`
	Refilled int `json:"refilled"`
}

// LowStockScan notifies admins about every available product at or under the
// threshold. Individual notification failures are aggregated and returned
// alongside the partial report so the worker can log them without aborting
// the run.
func (s *service) LowStockScan(ctx context.Context, threshold int) (ScanReport, error) {
	if threshold < 0 {
		return ScanReport{}, pkgerrors.New(pkgerrors.CodeValidation, "threshold cannot be negative")
	}

	products, err := s.repo.ListLowStock(ctx, threshold)
	if err != nil {
		return ScanReport{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock products")
	}

	report := ScanReport{Scanned: len(products)}
	var errs error
	for _, product := range products {
		link := productLink(product.ID.String())
		message := fmt.Sprintf("%q is down to %d units", product.Title, product.Stock)
		if err := s.notifier.NotifyAdmins(ctx, string(enums.NotificationTypeLowStock), "Low stock", message, &link); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("notify for product %s: %w", product.ID, err))
			continue
		}
		report.Notified++
	}
	return report, errs
}

// AutoRefillScan tops flagged products back up to their refill target and
// notifies admins about each refill. Per-product failures are aggregated; the
// scan keeps going so one bad row cannot starve the rest.
func (s *service) AutoRefillScan(ctx context.Context) (ScanReport, error) {
	products, err := s.repo.ListRefillable(ctx)
	if err != nil {
		return ScanReport{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list refillable products")
	}

	report := ScanReport{Scanned: len(products)}
	var errs error
	for _, product := range products {
		if err := s.repo.SetStock(ctx, product.ID, product.RefillTarget); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("refill product %s: %w", product.ID, err))
			continue
		}
		report.Refilled++

		link := productLink(product.ID.String())
		message := fmt.Sprintf("%q restocked from %d to %d units", product.Title, product.Stock, product.RefillTarget)
		if err := s.notifier.NotifyAdmins(ctx, string(enums.NotificationTypeRefill), "Auto refill", message, &link); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("notify for product %s: %w", product.ID, err))
			continue
		}
		report.Notified++
	}
	return report, errs
}

func productLink(productID string) string {
	return "/products/" + productID
}
