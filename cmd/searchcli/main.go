// searchcli runs the search engine from the command line, against either
// the configured inventory endpoints or the built-in simulated providers.
// Useful for poking at pricing and flexible dates without the dashboard.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Nenad034/olympichub-search/internal/config"
	"github.com/Nenad034/olympichub-search/internal/crm"
	"github.com/Nenad034/olympichub-search/internal/mealplan"
	"github.com/Nenad034/olympichub-search/internal/models"
	"github.com/Nenad034/olympichub-search/internal/obs"
	"github.com/Nenad034/olympichub-search/internal/providers"
	"github.com/Nenad034/olympichub-search/internal/search"
	"github.com/Nenad034/olympichub-search/internal/validator"
)

var (
	flagConfig      string
	flagDests       []string
	flagCheckIn     string
	flagCheckOut    string
	flagRooms       []string
	flagMealPlan    string
	flagNationality string
	flagKind        string
	flagReseller    bool
	flagRange       int
)

func main() {
	root := &cobra.Command{
		Use:   "searchcli",
		Short: "Query the booking search engine from the terminal",
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config.yaml")
	root.PersistentFlags().StringSliceVar(&flagDests, "dest", nil, "destination as kind:id:name (repeatable)")
	root.PersistentFlags().StringVar(&flagCheckIn, "checkin", "", "check-in date YYYY-MM-DD")
	root.PersistentFlags().StringVar(&flagCheckOut, "checkout", "", "check-out date YYYY-MM-DD")
	root.PersistentFlags().StringSliceVar(&flagRooms, "room", []string{"2"}, "room as adults[+age,age] (repeatable)")
	root.PersistentFlags().StringVar(&flagMealPlan, "meal", "all", "meal plan filter (RO/BB/HB/FB/AI/UAI/all)")
	root.PersistentFlags().StringVar(&flagNationality, "nationality", "RS", "guest nationality")
	root.PersistentFlags().StringVar(&flagKind, "kind", "hotel", "search kind")
	root.PersistentFlags().BoolVar(&flagReseller, "reseller", false, "apply subagent markup")

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Run one explicit search and print the priced offers",
		RunE:  runSearch,
	}

	datesCmd := &cobra.Command{
		Use:   "dates",
		Short: "Probe flexible check-in dates around the requested one",
		RunE:  runDates,
	}
	datesCmd.Flags().IntVar(&flagRange, "range", 2, "days before and after check-in")

	root.AddCommand(searchCmd, datesCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildDeps() (*search.Service, search.Pricing, error) {
	_ = godotenv.Load()
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, search.Pricing{}, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	registry := providers.NewRegistry()
	for _, pc := range cfg.Providers {
		registry.Add(providers.NewHTTPProvider(pc.Name, pc.BaseURL, cfg.ProviderTimeout()))
	}
	if len(registry.All()) == 0 {
		registry.Add(providers.NewMockProvider("mock1", 0.2, 0.0, 0))
		registry.Add(providers.NewMockProvider("mock2", 0.25, 0.0, 1))
	}

	metrics := obs.NewMetrics(prometheus.NewRegistry())
	agg := search.NewAggregator(registry, cfg.ProviderTimeout(), metrics, logger)
	var sales search.SalesCounter
	if cfg.CRM.BaseURL != "" {
		sales = crm.NewClient(cfg.CRM.BaseURL, cfg.CRMTimeout())
	}
	return search.NewService(agg, sales, logger), search.Pricing{IsReseller: flagReseller}, nil
}

func buildRequest() (*models.SearchRequest, error) {
	req := &models.SearchRequest{
		MealPlan:    flagMealPlan,
		Nationality: flagNationality,
		Kind:        models.SearchKind(flagKind),
	}

	for _, d := range flagDests {
		parts := strings.SplitN(d, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("destination %q must be kind:id or kind:id:name", d)
		}
		ref := models.DestinationRef{Kind: models.DestinationKind(parts[0]), ID: parts[1]}
		if len(parts) == 3 {
			ref.Name = parts[2]
		} else {
			ref.Name = parts[1]
		}
		req.Destinations = append(req.Destinations, ref)
	}

	var err error
	if req.CheckIn, err = validator.ValidateDate(flagCheckIn); err != nil {
		return nil, fmt.Errorf("checkin: %w", err)
	}
	if req.CheckOut, err = validator.ValidateDate(flagCheckOut); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	for _, spec := range flagRooms {
		alloc, err := parseRoom(spec)
		if err != nil {
			return nil, err
		}
		req.Allocations = append(req.Allocations, alloc)
	}

	return req, req.Validate()
}

// parseRoom reads the same shape the cache key uses: "2" or "2+7,3".
func parseRoom(spec string) (models.RoomAllocation, error) {
	var alloc models.RoomAllocation
	parts := strings.SplitN(spec, "+", 2)
	adults, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 8)
	if err != nil {
		return alloc, fmt.Errorf("room %q: bad adults count", spec)
	}
	alloc.Adults = uint(adults)
	alloc.ChildrenAges = []uint{}
	if len(parts) == 2 {
		for _, s := range strings.Split(parts[1], ",") {
			age, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
			if err != nil {
				return alloc, fmt.Errorf("room %q: bad child age %q", spec, s)
			}
			alloc.ChildrenAges = append(alloc.ChildrenAges, uint(age))
		}
		alloc.Children = uint(len(alloc.ChildrenAges))
	}
	return alloc, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc, pricing, err := buildDeps()
	if err != nil {
		return err
	}
	req, err := buildRequest()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	start := time.Now()
	res, err := svc.Search(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("%d offers in %s (%d/%d queries ok)\n\n",
		len(res.Offers),
		time.Since(start).Round(time.Millisecond),
		res.Stats.QueriesSucceeded, res.Stats.QueriesTotal)

	for _, o := range res.Offers {
		line := fmt.Sprintf("%-28s %d* %-12s %s", o.Name, o.Stars, mealplan.Normalize(o.MealPlan), o.Provider)
		if total, ok := search.AggregatePrice(o, req.Allocations, pricing); ok {
			line += fmt.Sprintf("  %s %s total", humanize.CommafWithDigits(total, 2), o.Currency)
		} else {
			line += "  (partial availability)"
		}
		if o.SalesCount >= search.BestSellerThreshold {
			line += "  [best seller]"
		}
		fmt.Println(line)
	}
	return nil
}

func runDates(cmd *cobra.Command, args []string) error {
	svc, pricing, err := buildDeps()
	if err != nil {
		return err
	}
	req, err := buildRequest()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	nights := req.Nights()
	probe := func(ctx context.Context, checkIn time.Time) (bool, float64, error) {
		shifted := *req
		shifted.CheckIn = checkIn
		shifted.CheckOut = checkIn.AddDate(0, 0, nights)
		res, err := svc.Search(ctx, &shifted)
		if err != nil {
			return false, 0, err
		}
		best := 0.0
		found := false
		for _, o := range res.Offers {
			if total, ok := search.AggregatePrice(o, shifted.Allocations, pricing); ok && (!found || total < best) {
				best = total
				found = true
			}
		}
		return found, best, nil
	}

	dates := search.ExpandDates(req.CheckIn, flagRange, time.Now().UTC())
	table := search.BuildDateTable(ctx, dates, probe)

	for _, row := range table {
		mark := " "
		if row.Cheapest {
			mark = "*"
		}
		if !row.Available {
			fmt.Printf("%s %s  unavailable\n", mark, row.Date.Format("2006-01-02"))
			continue
		}
		fmt.Printf("%s %s  %s EUR\n", mark, row.Date.Format("2006-01-02"), humanize.CommafWithDigits(*row.Price, 2))
	}
	return nil
}
