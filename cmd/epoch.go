package main

import (
	"encoding/json"
	"fmt"

	"github.com/Marketen/epoch-clock/internal/application/domain"
	"github.com/Marketen/epoch-clock/internal/application/services"
	"github.com/Marketen/epoch-clock/internal/config"
	"github.com/Marketen/epoch-clock/internal/server"

	"github.com/spf13/cobra"
)

// epochQuery selects one of the clock operations; at most one of the selectors is set.
// maxRange and maxPageSize cap what a query may list; zero leaves only the domain cap.
type epochQuery struct {
	time        *int64
	id          *int64
	start, end  *int64
	page        int
	pageSize    int
	recent      bool
	maxRange    int64
	maxPageSize int
}

func newEpochCmd() *cobra.Command {
	var (
		kind, network     string
		t, id, start, end int64
		q                 epochQuery
	)

	cmd := &cobra.Command{
		Use:   "epoch",
		Short: "Query a configured epoch schedule",
		Example: `  epochclock epoch --kind reward --network flare
  epochclock epoch --kind price --network songbird --time 1700000000000
  epochclock epoch --kind reward --network flare --start 1690000000000 --end 1700000000000
  epochclock epoch --kind reward --network flare --recent --page-size 60`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("time") {
				q.time = &t
			}
			if flags.Changed("id") {
				q.id = &id
			}
			if flags.Changed("start") || flags.Changed("end") {
				if !flags.Changed("start") || !flags.Changed("end") {
					return fmt.Errorf("--start and --end must be given together")
				}
				q.start, q.end = &start, &end
			}

			key, err := domain.ParseScheduleKey(kind, network)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			q.maxRange, q.maxPageSize = cfg.HTTP.MaxRangeEpochs, cfg.HTTP.MaxPageSize
			router, err := buildRouter(cfg)
			if err != nil {
				return err
			}

			clock, err := services.NewScheduleService(router, nil, router.Keys()).Clock(cmd.Context(), key)
			if err != nil {
				return err
			}
			result, err := runEpochQuery(clock, q)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&kind, "kind", string(domain.RewardEpoch), "schedule kind: reward or price")
	flags.StringVar(&network, "network", string(domain.Flare), "network name")
	flags.Int64Var(&t, "time", 0, "timestamp in milliseconds; prints the epoch containing it")
	flags.Int64Var(&id, "id", 0, "epoch id; prints its bounds")
	flags.Int64Var(&start, "start", 0, "range start in milliseconds (with --end)")
	flags.Int64Var(&end, "end", 0, "range end in milliseconds, exclusive (with --start)")
	flags.BoolVar(&q.recent, "recent", false, "list recent epochs from the current one")
	flags.IntVar(&q.page, "page", 0, "page for --recent, zero based")
	flags.IntVar(&q.pageSize, "page-size", 10, "page size for --recent")
	cmd.MarkFlagsMutuallyExclusive("time", "id", "start", "recent")
	cmd.MarkFlagsMutuallyExclusive("time", "id", "end", "recent")
	return cmd
}

// runEpochQuery evaluates q against clock. With no selector it returns the current snapshot.
func runEpochQuery(clock *domain.EpochClock, q epochQuery) (any, error) {
	switch {
	case q.time != nil:
		t := domain.Timestamp(*q.time)
		if err := clock.CheckTime(t); err != nil {
			return nil, err
		}
		return clock.EpochAt(t), nil
	case q.id != nil:
		id := domain.EpochID(*q.id)
		if err := clock.CheckEpochID(id); err != nil {
			return nil, err
		}
		return clock.Epoch(id), nil
	case q.start != nil && q.end != nil:
		r, err := clock.OverlappingRange(domain.Timestamp(*q.start), domain.Timestamp(*q.end))
		if err != nil {
			return nil, err
		}
		if q.maxRange > 0 && r.Len() > q.maxRange {
			return nil, fmt.Errorf("%w: %d epochs, limit %d", domain.ErrRangeTooLarge, r.Len(), q.maxRange)
		}
		ids, err := r.IDs()
		if err != nil {
			return nil, err
		}
		return server.NewRangeResponse(r, ids), nil
	case q.recent:
		if q.pageSize <= 0 || q.page < 0 {
			return nil, fmt.Errorf("--page must be >= 0 and --page-size > 0")
		}
		if q.maxPageSize > 0 && q.pageSize > q.maxPageSize {
			return nil, fmt.Errorf("%w: --page-size %d, limit %d", domain.ErrRangeTooLarge, q.pageSize, q.maxPageSize)
		}
		return clock.RecentEpochs(clock.CurrentEpochID(), q.page, q.pageSize)
	default:
		return clock.Snapshot(), nil
	}
}
