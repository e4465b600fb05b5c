package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// BannerInfo carries the handful of config facts worth showing at startup.
// Kept separate from internal/config.Config so this package has no import
// cycle back into the config package.
type BannerInfo struct {
	Environment     string
	ThreadPoolSize  int
	HooksEnabled    bool
	StorageEndpoint string
}

// PrintBanner displays the startup banner and logs the same facts through
// logger. logger must already be constructed; this package never reaches
// for a package-level logger.
func PrintBanner(info BannerInfo, logger arbor.ILogger) {
	version := GetVersion()
	build := GetBuild()

	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(70)

	fmt.Printf("\n")
	b.PrintTopLine()
	b.PrintCenteredText("MMREPLICATE")
	b.PrintCenteredText("Media catalog replication engine")
	b.PrintSeparatorLine()
	b.PrintKeyValue("Version", version, 15)
	b.PrintKeyValue("Build", build, 15)
	b.PrintKeyValue("Environment", info.Environment, 15)
	b.PrintKeyValue("Pool size", fmt.Sprintf("%d", info.ThreadPoolSize), 15)
	b.PrintKeyValue("Hooks", enabledLabel(info.HooksEnabled), 15)
	b.PrintBottomLine()
	fmt.Printf("\n")

	logger.Info().
		Str("version", version).
		Str("build", build).
		Str("environment", info.Environment).
		Int("thread_pool_size", info.ThreadPoolSize).
		Bool("hooks_enabled", info.HooksEnabled).
		Str("storage_endpoint", info.StorageEndpoint).
		Msg("mmreplicate starting")
}

// PrintShutdownBanner displays the shutdown banner.
func PrintShutdownBanner(logger arbor.ILogger) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(42)

	b.PrintTopLine()
	b.PrintCenteredText("SHUTTING DOWN")
	b.PrintCenteredText("MMREPLICATE")
	b.PrintBottomLine()
	fmt.Println()

	logger.Info().Int64("goroutines_spawned", GetGoroutineCount()).Msg("mmreplicate shutting down")
}

func enabledLabel(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}
