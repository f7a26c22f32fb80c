// Command seed inserts a grid of bookable slots for the coming days.
// Existing slots are left untouched, so it is safe to run repeatedly.
package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/apperror"
	"github.com/kishan2613/Sarthi/config"
	"github.com/kishan2613/Sarthi/database/repository"
	"github.com/kishan2613/Sarthi/models"
	"github.com/kishan2613/Sarthi/services/slot"
	"github.com/kishan2613/Sarthi/utils"
)

var defaultGhats = []string{"Ram Ghat", "Datta Ghat", "Mangalnath Ghat", "Triveni Ghat"}

var defaultWindows = []string{"05:00-06:00", "06:00-07:00", "07:00-08:00", "17:00-18:00", "18:00-19:00"}

func main() {
	flags := pflag.NewFlagSet("seed", pflag.ExitOnError)
	flags.Int("days", 7, "number of days to seed, starting today")
	flags.String("start", "", "first day (YYYY-MM-DD); defaults to today")
	flags.Int("capacity", 200, "capacity of each slot")
	flags.StringSlice("ghats", defaultGhats, "ghats to seed")
	flags.StringSlice("windows", defaultWindows, "time windows to seed")
	_ = flags.Parse(os.Args[1:])

	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}

	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	stores, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		logger.Sugar().Fatalf("seed: failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer func() { _ = stores.Close(context.Background()) }()

	start := time.Now().In(cfg.Location())
	if s := strings.TrimSpace(v.GetString("start")); s != "" {
		start, err = time.ParseInLocation(models.DateLayout, s, cfg.Location())
		if err != nil {
			logger.Sugar().Fatalf("seed: invalid --start: %v", err)
		}
	}

	svc := slot.NewDefaultSlotService(stores.Slots, nil, logger)
	created, skipped := 0, 0
	for d := 0; d < v.GetInt("days"); d++ {
		date := start.AddDate(0, 0, d).Format(models.DateLayout)
		for _, ghat := range v.GetStringSlice("ghats") {
			for _, window := range v.GetStringSlice("windows") {
				_, err := svc.CreateSlot(ctx, models.CreateSlotRequest{
					Date:     date,
					Time:     window,
					Ghat:     ghat,
					Capacity: v.GetInt("capacity"),
				})
				switch apperror.CodeOf(err) {
				case "":
					created++
				case apperror.CodeConflict:
					skipped++
				default:
					logger.Sugar().Fatalf("seed: failed to create slot %s %s %s: %v", date, window, ghat, err)
				}
			}
		}
	}

	logger.Info("Seeding complete", zap.Int("created", created), zap.Int("skipped", skipped))
}
