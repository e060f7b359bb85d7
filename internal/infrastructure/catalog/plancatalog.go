// Package catalog loads the plan price list from YAML.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/abengolea/heartlink-sub000/internal/application/subscription/usecases"
	vo "github.com/abengolea/heartlink-sub000/internal/domain/subscription/valueobjects"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

//go:embed plans.yaml
var defaultCatalog []byte

type planEntry struct {
	PlanType        string  `yaml:"plan_type"`
	Title           string  `yaml:"title"`
	Amount          float64 `yaml:"amount"`
	Currency        string  `yaml:"currency"`
	DiscountPercent int     `yaml:"discount_percent"`
}

type catalogFile struct {
	Plans []planEntry `yaml:"plans"`
}

// PlanCatalog is an immutable price list keyed by plan type.
type PlanCatalog struct {
	prices map[vo.PlanType]*usecases.PlanPrice
}

var _ usecases.PlanCatalog = (*PlanCatalog)(nil)

// Load reads the catalog at path, or the built-in catalog when path is empty.
func Load(path string, log logger.Interface) (*PlanCatalog, error) {
	data := defaultCatalog
	source := "embedded"

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read plan catalog: %w", err)
		}
		data = content
		source = path
	}

	c, err := Parse(data)
	if err != nil {
		return nil, err
	}

	log.Infow("plan catalog loaded",
		"source", source,
		"plans", len(c.prices),
	)
	return c, nil
}

// Parse builds a catalog from YAML. Every plan type must appear exactly once.
func Parse(data []byte) (*PlanCatalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse plan catalog: %w", err)
	}

	prices := make(map[vo.PlanType]*usecases.PlanPrice, len(file.Plans))
	for _, entry := range file.Plans {
		planType, err := vo.NewPlanType(entry.PlanType)
		if err != nil {
			return nil, err
		}
		if _, dup := prices[planType]; dup {
			return nil, fmt.Errorf("plan %s is listed twice", planType)
		}
		if entry.Amount <= 0 {
			return nil, fmt.Errorf("plan %s must have a positive amount", planType)
		}
		if entry.DiscountPercent < 0 || entry.DiscountPercent >= 100 {
			return nil, fmt.Errorf("plan %s discount must be between 0 and 99", planType)
		}

		amount, err := vo.NewMoneyFromDecimal(entry.Amount, entry.Currency)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", planType, err)
		}

		title := entry.Title
		if title == "" {
			title = "HeartLink " + planType.String()
		}

		prices[planType] = &usecases.PlanPrice{
			PlanType:        planType,
			Title:           title,
			Amount:          amount,
			DiscountPercent: entry.DiscountPercent,
		}
	}

	for _, required := range []vo.PlanType{vo.PlanTypeMonthly, vo.PlanTypeAnnual} {
		if _, ok := prices[required]; !ok {
			return nil, fmt.Errorf("plan catalog has no %s plan", required)
		}
	}

	return &PlanCatalog{prices: prices}, nil
}

func (c *PlanCatalog) Price(planType vo.PlanType) (*usecases.PlanPrice, error) {
	price, ok := c.prices[planType]
	if !ok {
		return nil, fmt.Errorf("plan %s is not in the catalog", planType)
	}
	copied := *price
	return &copied, nil
}
