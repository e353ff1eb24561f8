package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sureshield/coinledger/internal/daemon"
	"github.com/sureshield/coinledger/internal/domain"
	"github.com/sureshield/coinledger/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install the default earn rules and starter reward catalog",
	Long: `Install (or refresh) the default earning rule for each task type and a
starter reward catalog. Existing rules for the same task types are replaced;
wallets and the ledger are never touched.`,
	RunE: runSeed,
}

// defaultEarnRules is the out-of-the-box configuration: how many coins each
// task grants, its cooldown, and its daily cap.
func defaultEarnRules() []domain.EarnRule {
	return []domain.EarnRule{
		{TaskType: domain.ReasonSignUp, CoinAmount: 100, CooldownMinutes: 0, MaxPerDay: 1, IsActive: true},
		{TaskType: domain.ReasonDailyLogin, CoinAmount: 10, CooldownMinutes: 720, MaxPerDay: 1, IsActive: true},
		{TaskType: domain.ReasonPolicyPurchase, CoinAmount: 500, CooldownMinutes: 0, MaxPerDay: 3, IsActive: true},
		{TaskType: domain.ReasonReferral, CoinAmount: 200, CooldownMinutes: 60, MaxPerDay: 5, IsActive: true},
		{TaskType: domain.ReasonHealthQuiz, CoinAmount: 50, CooldownMinutes: 60, MaxPerDay: 2, IsActive: true},
		{TaskType: domain.ReasonDocumentUpload, CoinAmount: 25, CooldownMinutes: 30, MaxPerDay: 4, IsActive: true},
		{TaskType: domain.ReasonAdminCredit, CoinAmount: 0, CooldownMinutes: 0, MaxPerDay: 1000, IsActive: true},
	}
}

func defaultRewardItems() []domain.RewardItem {
	return []domain.RewardItem{
		{ID: "premium-discount-5", Name: "5% premium discount voucher", CoinCost: 500, Category: "discount", Stock: 100, MaxPerDay: 1, IsAvailable: true, IsActive: true},
		{ID: "teleconsult-free", Name: "Free teleconsultation", CoinCost: 300, Category: "health", Stock: 50, MaxPerDay: 2, IsAvailable: true, IsActive: true},
		{ID: "pharmacy-voucher-50", Name: "Pharmacy voucher", CoinCost: 200, Category: "voucher", Stock: 200, MaxPerDay: 3, IsAvailable: true, IsActive: true},
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	for _, rule := range defaultEarnRules() {
		if err := db.UpsertRule(ctx, rule); err != nil {
			return fmt.Errorf("seeding rule %s: %w", rule.TaskType, err)
		}
	}
	for _, item := range defaultRewardItems() {
		if _, err := db.UpsertRewardItem(ctx, item); err != nil {
			return fmt.Errorf("seeding reward %s: %w", item.ID, err)
		}
	}

	fmt.Printf("seeded %d earn rules and %d reward items into %s\n",
		len(defaultEarnRules()), len(defaultRewardItems()), cfg.Database.Path)
	return nil
}
