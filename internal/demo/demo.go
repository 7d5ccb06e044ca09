// Package demo runs the end-to-end sample flows against the services.
package demo

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"sample-app/internal/domain"
	"sample-app/internal/helpers"
	"sample-app/internal/loader"
	"sample-app/internal/pipeline"
	"sample-app/internal/service"
)

// TestCard passes the Luhn check.
const TestCard = "4532015112830366"

// Deps are the services the flows run against. Loader, Dataset and Exporter
// are optional: without a dataset the pipeline uses built-in sample records.
type Deps struct {
	Auth     service.AuthService
	Payments service.PaymentService
	Emails   service.EmailService
	Loader   *loader.Loader
	Dataset  string
	Exporter *service.Exporter
	Logger   logrus.FieldLogger
}

// Report summarises a full run.
type Report struct {
	User       *domain.User
	Token      string
	Products   []*domain.Product
	Page       []*domain.Product
	TotalPages int
	Charge     *domain.Transaction
	Refund     *domain.Transaction
	Pipeline   PipelineResult
	EmailsSent int
}

// PipelineResult is the outcome of the data pipeline flow.
type PipelineResult struct {
	Records  []pipeline.Record
	Stats    pipeline.Stats
	HasStats bool
	Groups   pipeline.Groups
	Location string
}

// Run executes the user, catalog, payment and pipeline flows in order.
func Run(ctx context.Context, deps Deps) (*Report, error) {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	report := &Report{}

	user, token, err := UserFlow(ctx, deps.Auth, deps.Emails, log)
	if err != nil {
		return nil, fmt.Errorf("user flow: %w", err)
	}
	report.User, report.Token = user, token

	report.Products, report.Page, report.TotalPages, err = CatalogFlow(log)
	if err != nil {
		return nil, fmt.Errorf("catalog flow: %w", err)
	}

	report.Charge, report.Refund, err = PaymentFlow(ctx, deps.Payments, deps.Emails, user, log)
	if err != nil {
		return nil, fmt.Errorf("payment flow: %w", err)
	}

	report.Pipeline, err = PipelineFlow(ctx, deps, log)
	if err != nil {
		return nil, fmt.Errorf("pipeline flow: %w", err)
	}

	if deps.Emails != nil {
		report.EmailsSent = deps.Emails.SentCount()
	}
	log.Info("All demo flows completed successfully.")
	return report, nil
}

// UserFlow registers john_doe, logs in and sends the welcome email.
func UserFlow(ctx context.Context, auth service.AuthService, emails service.EmailService, log logrus.FieldLogger) (*domain.User, string, error) {
	log.Info("=== User Registration Flow ===")

	user, err := auth.Register(ctx, service.RegisterInput{
		Username:  "john_doe",
		Email:     "john@example.com",
		Password:  "SecurePass1",
		FirstName: "John",
		LastName:  "Doe",
	})
	if err != nil {
		return nil, "", err
	}

	token, err := auth.Login(ctx, "john_doe", "SecurePass1")
	if err != nil {
		return nil, "", err
	}
	log.Infof("Login token: %s...", token[:10])

	if emails != nil {
		emails.SendWelcome(ctx, user.Email, user.Username, user.FullName())
		log.Infof("Welcome email sent to %s", user.Email)
	}
	return user, token, nil
}

// CatalogFlow builds the sample catalog and returns its first page of three.
func CatalogFlow(log logrus.FieldLogger) ([]*domain.Product, []*domain.Product, int, error) {
	log.Info("=== Building Product Catalog ===")

	products := []*domain.Product{
		domain.NewProduct("Gaming Laptop", decimal.RequireFromString("1299.99"), domain.CategoryElectronics, "High-performance gaming laptop"),
		domain.NewProduct("Python Cookbook", decimal.RequireFromString("39.99"), domain.CategoryBooks, "Advanced Python recipes"),
		domain.NewProduct("Running Shoes", decimal.RequireFromString("89.99"), domain.CategoryClothing, ""),
		domain.NewProduct("Organic Coffee", decimal.RequireFromString("14.99"), domain.CategoryFood, ""),
	}
	products[2].AddVariant(domain.ProductVariant{SKU: "SHOE-BLK-42", Color: "Black", Size: "42", Stock: 10})
	products[2].AddVariant(domain.ProductVariant{SKU: "SHOE-WHT-43", Color: "White", Size: "43", Stock: 5})

	for _, p := range products {
		log.Infof("  %s - %s | stock: %d", p.Name, p.FormattedPrice(), p.TotalStock())
	}

	page, totalPages, err := helpers.Paginate(products, 1, 3)
	if err != nil {
		return nil, nil, 0, err
	}
	names := make([]string, len(page))
	for i, p := range page {
		names[i] = p.Name
	}
	log.Infof("Page 1 of %d: %v", totalPages, names)
	return products, page, totalPages, nil
}

// PaymentFlow charges the test card, confirms the order and refunds it.
func PaymentFlow(ctx context.Context, payments service.PaymentService, emails service.EmailService, user *domain.User, log logrus.FieldLogger) (*domain.Transaction, *domain.Transaction, error) {
	log.Info("=== Payment Flow ===")

	tx, err := payments.Charge(ctx, decimal.RequireFromString("149.99"), TestCard, "")
	if err != nil {
		return nil, nil, err
	}
	log.Infof("Charged: %s | Status: %s", tx.FormattedAmount(), tx.Status)

	if emails != nil {
		emails.SendOrderConfirmation(ctx, user.Email, user.FullName(), tx.ID[:8], tx.Amount)
	}

	refund, err := payments.Refund(ctx, tx.ID)
	if err != nil {
		return tx, nil, err
	}
	if refund == nil {
		return tx, nil, errors.New("refund: transaction disappeared")
	}
	log.Infof("Refund status: %s", refund.Status)
	return tx, refund, nil
}

// SampleRecords is the raw dataset used when no dataset file is configured.
// The third record lacks a name and the fourth has an unparsable price.
func SampleRecords() []pipeline.Record {
	return []pipeline.Record{
		{"name": "  alice ", "category": "FOOD", "price": "12.5"},
		{"name": "bob", "category": "ELECTRONICS", "price": "499"},
		{"name": "", "category": "BOOKS", "price": "9.99"},
		{"name": "carol", "category": "clothing", "price": "bad"},
	}
}

// PipelineFlow cleans the dataset, logs price stats and category counts and
// exports the result when storage is configured.
func PipelineFlow(ctx context.Context, deps Deps, log logrus.FieldLogger) (PipelineResult, error) {
	log.Info("=== Data Pipeline ===")

	raw := SampleRecords()
	if deps.Loader != nil && deps.Dataset != "" {
		raw = deps.Loader.LoadCSV(ctx, deps.Dataset, ',')
	}

	result := PipelineResult{}
	result.Records = pipeline.New(log).
		DropMissing("name", "price").
		NormalizeStrings("name", "category").
		CastNumeric("price").
		Run(raw)

	result.Stats, result.HasStats = pipeline.ComputeStats(result.Records, "price")
	if result.HasStats {
		log.Infof("Processed %d records. Stats: count=%d mean=%.2f median=%.2f stdev=%.2f min=%.2f max=%.2f",
			len(result.Records), result.Stats.Count, result.Stats.Mean, result.Stats.Median,
			result.Stats.Stdev, result.Stats.Min, result.Stats.Max)
	} else {
		log.Infof("Processed %d records. Stats: none", len(result.Records))
	}

	result.Groups = pipeline.GroupBy(result.Records, "category")
	for _, category := range result.Groups.Keys() {
		log.Infof("  [%s] %d item(s)", category, len(result.Groups.Get(category)))
	}

	if deps.Exporter.Enabled() {
		location, err := deps.Exporter.Export(ctx, helpers.GenerateID("demo-"), result.Records)
		if err != nil {
			return result, err
		}
		result.Location = location
		log.Infof("Exported pipeline results to %s", location)
	}
	return result, nil
}
