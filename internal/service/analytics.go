package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const summarySampleSize = 10

type SalesCategoryStats struct {
	Count    int             `json:"count"`
	Revenue  decimal.Decimal `json:"revenue"`
	Quantity int             `json:"quantity"`
}

type ProductRevenue struct {
	ProductName string          `json:"productName"`
	Revenue     decimal.Decimal `json:"revenue"`
	Quantity    int             `json:"quantity"`
}

type DailySales struct {
	Date     string          `json:"date"`
	Count    int             `json:"count"`
	Revenue  decimal.Decimal `json:"revenue"`
	Quantity int             `json:"quantity"`
}

// SalesSummary is the reduction of the sales inside one date range.
type SalesSummary struct {
	TotalSales     int                           `json:"totalSales"`
	TotalRevenue   decimal.Decimal               `json:"totalRevenue"`
	TotalQuantity  int                           `json:"totalQuantity"`
	CategoryStats  map[string]SalesCategoryStats `json:"categoryStats"`
	TopProducts    []ProductRevenue              `json:"topProducts"`
	LowProducts    []ProductRevenue              `json:"lowProducts"`
	DailyBreakdown []DailySales                  `json:"dailyBreakdown"`
}

type InventoryCategoryStats struct {
	Count         int             `json:"count"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	TotalQuantity int             `json:"totalQuantity"`
}

// InventorySummary is the reduction of the whole catalog.
type InventorySummary struct {
	TotalItems      int                               `json:"totalItems"`
	TotalValue      decimal.Decimal                   `json:"totalValue"`
	TotalQuantity   int                               `json:"totalQuantity"`
	LowStockCount   int                               `json:"lowStockCount"`
	LowStockItems   []models.Product                  `json:"lowStockItems"`
	OutOfStockCount int                               `json:"outOfStockCount"`
	OutOfStockItems []models.Product                  `json:"outOfStockItems"`
	CategoryStats   map[string]InventoryCategoryStats `json:"categoryStats"`
}

// Dashboard combines both summaries.
type Dashboard struct {
	Sales     *SalesSummary     `json:"sales"`
	Inventory *InventorySummary `json:"inventory"`
}

// SummarizeSales reduces sales into totals, per-category and per-product
// aggregates and a per-day series. Product ranking ties keep first-seen order.
func SummarizeSales(sales []models.Sale) *SalesSummary {
	summary := &SalesSummary{
		TotalRevenue:   decimal.Zero,
		CategoryStats:  map[string]SalesCategoryStats{},
		TopProducts:    []ProductRevenue{},
		LowProducts:    []ProductRevenue{},
		DailyBreakdown: []DailySales{},
	}

	var ranked []*ProductRevenue
	byProduct := map[string]*ProductRevenue{}
	byDay := map[string]*DailySales{}

	for _, sale := range sales {
		summary.TotalSales++
		summary.TotalRevenue = summary.TotalRevenue.Add(sale.TotalAmount)
		summary.TotalQuantity += sale.Quantity

		cat := summary.CategoryStats[sale.Category]
		cat.Count++
		cat.Revenue = cat.Revenue.Add(sale.TotalAmount)
		cat.Quantity += sale.Quantity
		summary.CategoryStats[sale.Category] = cat

		pr, ok := byProduct[sale.ProductName]
		if !ok {
			pr = &ProductRevenue{ProductName: sale.ProductName, Revenue: decimal.Zero}
			byProduct[sale.ProductName] = pr
			ranked = append(ranked, pr)
		}
		pr.Revenue = pr.Revenue.Add(sale.TotalAmount)
		pr.Quantity += sale.Quantity

		day := sale.Date.UTC().Format("2006-01-02")
		d, ok := byDay[day]
		if !ok {
			d = &DailySales{Date: day, Revenue: decimal.Zero}
			byDay[day] = d
		}
		d.Count++
		d.Revenue = d.Revenue.Add(sale.TotalAmount)
		d.Quantity += sale.Quantity
	}

	desc := make([]*ProductRevenue, len(ranked))
	copy(desc, ranked)
	sort.SliceStable(desc, func(i, j int) bool { return desc[i].Revenue.GreaterThan(desc[j].Revenue) })

	asc := make([]*ProductRevenue, len(ranked))
	copy(asc, ranked)
	sort.SliceStable(asc, func(i, j int) bool { return asc[i].Revenue.LessThan(asc[j].Revenue) })

	for i := 0; i < len(ranked) && i < summarySampleSize; i++ {
		summary.TopProducts = append(summary.TopProducts, *desc[i])
		summary.LowProducts = append(summary.LowProducts, *asc[i])
	}

	for _, d := range byDay {
		summary.DailyBreakdown = append(summary.DailyBreakdown, *d)
	}
	sort.Slice(summary.DailyBreakdown, func(i, j int) bool {
		return summary.DailyBreakdown[i].Date < summary.DailyBreakdown[j].Date
	})
	return summary
}

// SummarizeInventory reduces the catalog. Low stock uses the reorder level
// and threshold; out of stock means a quantity of zero.
func SummarizeInventory(products []models.Product, threshold int) *InventorySummary {
	summary := &InventorySummary{
		TotalValue:      decimal.Zero,
		LowStockItems:   []models.Product{},
		OutOfStockItems: []models.Product{},
		CategoryStats:   map[string]InventoryCategoryStats{},
	}

	for i := range products {
		p := &products[i]
		value := p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))

		summary.TotalItems++
		summary.TotalValue = summary.TotalValue.Add(value)
		summary.TotalQuantity += p.Quantity

		if p.IsLowStock(threshold) {
			summary.LowStockCount++
			if len(summary.LowStockItems) < summarySampleSize {
				summary.LowStockItems = append(summary.LowStockItems, *p)
			}
		}
		if p.Quantity == 0 {
			summary.OutOfStockCount++
			if len(summary.OutOfStockItems) < summarySampleSize {
				summary.OutOfStockItems = append(summary.OutOfStockItems, *p)
			}
		}

		cat := summary.CategoryStats[p.Category]
		cat.Count++
		cat.TotalValue = cat.TotalValue.Add(value)
		cat.TotalQuantity += p.Quantity
		summary.CategoryStats[p.Category] = cat
	}
	return summary
}

// AnalyticsService serves read-only summaries, cached in Redis when configured.
type AnalyticsService struct {
	products  ProductRepository
	sales     SaleRepository
	cache     Cache
	threshold int
	ttl       time.Duration
	logger    *zap.Logger
}

func NewAnalyticsService(products ProductRepository, sales SaleRepository, cache Cache, threshold int, ttl time.Duration) *AnalyticsService {
	return &AnalyticsService{
		products:  products,
		sales:     sales,
		cache:     cache,
		threshold: threshold,
		ttl:       ttl,
		logger:    util.GetLogger(),
	}
}

func (a *AnalyticsService) SalesAnalytics(ctx context.Context, r models.DateRange) (summary *SalesSummary, err error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.SalesAnalytics")
	defer func() { util.EndSpan(span, err) }()

	key := analyticsCachePrefix + "sales:" + rangeBound(r.Start) + ":" + rangeBound(r.End)
	if a.cached(ctx, key, &summary) {
		return summary, nil
	}

	sales, err := a.sales.ListSalesInRange(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	summary = SummarizeSales(sales)
	a.store(ctx, key, summary)
	return summary, nil
}

func (a *AnalyticsService) InventoryAnalytics(ctx context.Context) (summary *InventorySummary, err error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.InventoryAnalytics")
	defer func() { util.EndSpan(span, err) }()

	key := analyticsCachePrefix + "inventory"
	if a.cached(ctx, key, &summary) {
		return summary, nil
	}

	products, err := a.products.ListAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	summary = SummarizeInventory(products, a.threshold)
	a.store(ctx, key, summary)
	return summary, nil
}

// Dashboard computes both summaries concurrently.
func (a *AnalyticsService) Dashboard(ctx context.Context, r models.DateRange) (*Dashboard, error) {
	var dash Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dash.Sales, err = a.SalesAnalytics(gctx, r)
		return err
	})
	g.Go(func() error {
		var err error
		dash.Inventory, err = a.InventoryAnalytics(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &dash, nil
}

func (a *AnalyticsService) cached(ctx context.Context, key string, dest interface{}) bool {
	if a.cache == nil {
		return false
	}
	found, err := a.cache.GetJSON(ctx, key, dest)
	if err != nil {
		a.logger.Warn("Analytics cache read failed", zap.String("key", key), zap.Error(err))
		util.AnalyticsCacheTotal.WithLabelValues("error").Inc()
		return false
	}
	if found {
		util.AnalyticsCacheTotal.WithLabelValues("hit").Inc()
	} else {
		util.AnalyticsCacheTotal.WithLabelValues("miss").Inc()
	}
	return found
}

func (a *AnalyticsService) store(ctx context.Context, key string, value interface{}) {
	if a.cache == nil {
		return
	}
	if err := a.cache.SetJSON(ctx, key, value, a.ttl); err != nil {
		a.logger.Warn("Analytics cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func rangeBound(t *time.Time) string {
	if t == nil {
		return "*"
	}
	return t.UTC().Format(time.RFC3339)
}
