package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/internal/utils"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/candidate"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/credits"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/enrich"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/jobs"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/platforms"
	igplatform "github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/platforms/instagram"
	ttplatform "github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/platforms/tiktok"
	webplatform "github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/platforms/web"
	ytplatform "github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/platforms/youtube"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/searcher"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/storage"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/whttp"
)

// searchCmd implements: affiliatefinder search
var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search platforms for affiliate candidates and stream them as NDJSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := requestFromFlags(cmd, args[0])
		if err != nil {
			return err
		}

		useDB, _ := cmd.Flags().GetBool("db")
		var db *storage.DB
		if useDB {
			dbPath, _ := cmd.Flags().GetString("dbpath")
			if dbPath == "" {
				dbPath = viper.GetString("db.path")
			}
			db, err = storage.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
		}

		s := buildSearcher(cmd, db)
		events, err := s.Run(cmd.Context(), req)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		for ev := range events {
			if err := enc.Encode(ev); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("platform", "web", `Comma-separated platforms to search ("web,youtube,instagram,tiktok" or "all")`)
	searchCmd.Flags().String("country", "", "Country the candidates should serve (e.g. germany)")
	searchCmd.Flags().String("language", "", "Language the candidate content should be in (e.g. german)")
	searchCmd.Flags().String("brand", "", "Own brand domain, used to reject self and competitor matches")
	searchCmd.Flags().StringSlice("competitor", nil, "Competitor domains to reject (repeatable)")
	searchCmd.Flags().String("owner", "default", "Owner id used for result uniqueness and credit accounting")
	searchCmd.Flags().Int("budget", 0, "Overall search budget in seconds (0 = default)")
	searchCmd.Flags().Bool("db", false, "Persist discovered candidates to the database")
	searchCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: from config)")
}

func requestFromFlags(cmd *cobra.Command, keyword string) (candidate.SearchRequest, error) {
	platformList, _ := cmd.Flags().GetString("platform")
	country, _ := cmd.Flags().GetString("country")
	language, _ := cmd.Flags().GetString("language")
	brand, _ := cmd.Flags().GetString("brand")
	competitors, _ := cmd.Flags().GetStringSlice("competitor")
	owner, _ := cmd.Flags().GetString("owner")
	budget, _ := cmd.Flags().GetInt("budget")

	req := candidate.SearchRequest{
		Owner:             owner,
		Keyword:           keyword,
		Country:           country,
		Language:          language,
		BrandDomain:       brand,
		CompetitorDomains: competitors,
	}
	if budget > 0 {
		req.Budget = time.Duration(budget) * time.Second
	}

	if platformList == "all" {
		req.Platforms = []candidate.Platform{
			candidate.PlatformWeb, candidate.PlatformYouTube,
			candidate.PlatformInstagram, candidate.PlatformTikTok,
		}
		return req, nil
	}
	for _, name := range strings.Split(platformList, ",") {
		p, err := candidate.ParsePlatform(name)
		if err != nil {
			return req, fmt.Errorf("--platform: %w", err)
		}
		req.Platforms = append(req.Platforms, p)
	}
	return req, nil
}

// buildSearcher assembles the orchestrator from whatever credentials the
// config carries. Platforms without credentials are skipped, enrichment and
// credit accounting stay off when their services aren't configured.
func buildSearcher(cmd *cobra.Command, db *storage.DB) *searcher.Searcher {
	proxy, _ := cmd.Flags().GetString("proxy")
	httpClient := whttp.NewClientWithProxy(proxy)

	var provs []platforms.Provider

	// Web: the scraping fallback works without a key, so web is always on.
	web := webplatform.New(viper.GetString("serp.key"))
	web.HTTP = httpClient
	provs = append(provs, web)
	if web.APIKey == "" {
		utils.Log.Info("No serp.key in config, web search uses the HTML fallback.")
	}

	// YouTube
	ytKey := viper.GetString("youtube.key")
	if ytKey != "" {
		yt := ytplatform.New(ytKey)
		yt.HTTP = httpClient
		provs = append(provs, yt)
	} else {
		utils.Log.Info("Skipping YouTube: youtube.key not found in config.")
	}

	// Instagram + TikTok share one scrape-job API.
	hubURL := viper.GetString("scrapehub.url")
	hubToken := viper.GetString("scrapehub.token")
	if hubToken != "" {
		hub := jobs.NewHTTPClient(hubURL, hubToken)
		hub.HTTP = httpClient
		poller := &jobs.Poller{Client: hub}
		provs = append(provs, igplatform.New(poller), ttplatform.New(poller))
	} else {
		utils.Log.Info("Skipping Instagram and TikTok: scrapehub.token not found in config.")
	}

	s := &searcher.Searcher{Providers: provs, Store: db}

	if trafficKey := viper.GetString("traffic.key"); trafficKey != "" {
		traffic := enrich.NewHTTPClient(trafficKey)
		traffic.HTTP = httpClient
		s.Batcher = enrich.NewBatcher(traffic)
	} else {
		utils.Log.Info("No traffic.key in config, enrichment is off.")
	}

	if ledgerURL := viper.GetString("ledger.url"); ledgerURL != "" {
		s.Ledger = credits.NewHTTPLedger(ledgerURL, viper.GetString("ledger.token"))
	}

	return s
}
