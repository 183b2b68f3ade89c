// Package config loads process configuration from an optional YAML file
// layered with environment-variable overrides, the same two-stage approach
// the teacher's pkg/config uses for its service processes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ChainConfig controls block-application and fee-schedule constants that are
// not protocol invariants but are still environment-tunable (e.g. for test
// networks running shorter intervals).
type ChainConfig struct {
	MaxTimeUntilExpirationSeconds int64   `json:"max_time_until_expiration_seconds" yaml:"max_time_until_expiration_seconds" env:"CHAIN_MAX_TIME_UNTIL_EXPIRATION_SECONDS"`
	OwnerUpdateLimitSeconds       int64   `json:"owner_update_limit_seconds" yaml:"owner_update_limit_seconds" env:"CHAIN_OWNER_UPDATE_LIMIT_SECONDS"`
	StakeWithdrawIntervalSeconds  int64   `json:"stake_withdraw_interval_seconds" yaml:"stake_withdraw_interval_seconds" env:"CHAIN_STAKE_WITHDRAW_INTERVAL_SECONDS"`
	FeedIntervalBlocks            int64   `json:"feed_interval_blocks" yaml:"feed_interval_blocks" env:"CHAIN_FEED_INTERVAL_BLOCKS"`
	EquityIntervalBlocks          int64   `json:"equity_interval_blocks" yaml:"equity_interval_blocks" env:"CHAIN_EQUITY_INTERVAL_BLOCKS"`
	MaxProxyRecursionDepth        int     `json:"max_proxy_recursion_depth" yaml:"max_proxy_recursion_depth" env:"CHAIN_MAX_PROXY_RECURSION_DEPTH"`
	MaxSigCheckDepth               int     `json:"max_sig_check_depth" yaml:"max_sig_check_depth" env:"CHAIN_MAX_SIG_CHECK_DEPTH"`
	NetworkFeePercent              float64 `json:"network_fee_percent" yaml:"network_fee_percent" env:"CHAIN_NETWORK_FEE_PERCENT"`
	GovernanceFeeShare             float64 `json:"governance_fee_share" yaml:"governance_fee_share" env:"CHAIN_GOVERNANCE_FEE_SHARE"`
	ReferralFeeShare               float64 `json:"referral_fee_share" yaml:"referral_fee_share" env:"CHAIN_REFERRAL_FEE_SHARE"`

	AccountCreationFee            int64   `json:"account_creation_fee" yaml:"account_creation_fee" env:"CHAIN_ACCOUNT_CREATION_FEE"`
	DelegationRatio               float64 `json:"delegation_ratio" yaml:"delegation_ratio" env:"CHAIN_DELEGATION_RATIO"`
	DelegationReturnDays          int     `json:"delegation_return_days" yaml:"delegation_return_days" env:"CHAIN_DELEGATION_RETURN_DAYS"`
	MinResetDelayDays             int     `json:"min_reset_delay_days" yaml:"min_reset_delay_days" env:"CHAIN_MIN_RESET_DELAY_DAYS"`
	OwnerHistoryRetentionDays     int     `json:"owner_history_retention_days" yaml:"owner_history_retention_days" env:"CHAIN_OWNER_HISTORY_RETENTION_DAYS"`
	RecoveryDelaySeconds          int64   `json:"recovery_delay_seconds" yaml:"recovery_delay_seconds" env:"CHAIN_RECOVERY_DELAY_SECONDS"`
	RecoveryExpirationSeconds     int64   `json:"recovery_expiration_seconds" yaml:"recovery_expiration_seconds" env:"CHAIN_RECOVERY_EXPIRATION_SECONDS"`
	ConnectionUpgradeCooldownSeconds int64 `json:"connection_upgrade_cooldown_seconds" yaml:"connection_upgrade_cooldown_seconds" env:"CHAIN_CONNECTION_UPGRADE_COOLDOWN_SECONDS"`
	ConnectionRequestDurationSeconds int64 `json:"connection_request_duration_seconds" yaml:"connection_request_duration_seconds" env:"CHAIN_CONNECTION_REQUEST_DURATION_SECONDS"`
	ActivityClaimIntervalSeconds  int64   `json:"activity_claim_interval_seconds" yaml:"activity_claim_interval_seconds" env:"CHAIN_ACTIVITY_CLAIM_INTERVAL_SECONDS"`
	MinProducerVotesForActivity   uint64  `json:"min_producer_votes_for_activity" yaml:"min_producer_votes_for_activity" env:"CHAIN_MIN_PRODUCER_VOTES_FOR_ACTIVITY"`
	ReferrerRewardWindowSeconds   int64   `json:"referrer_reward_window_seconds" yaml:"referrer_reward_window_seconds" env:"CHAIN_REFERRER_REWARD_WINDOW_SECONDS"`
	GenericUpdateRateLimitSeconds int64   `json:"generic_update_rate_limit_seconds" yaml:"generic_update_rate_limit_seconds" env:"CHAIN_GENERIC_UPDATE_RATE_LIMIT_SECONDS"`
	GovernanceApprovalThresholdPct float64 `json:"governance_approval_threshold_pct" yaml:"governance_approval_threshold_pct" env:"CHAIN_GOVERNANCE_APPROVAL_THRESHOLD_PCT"`
	GovernanceApprovalMinVoters   int     `json:"governance_approval_min_voters" yaml:"governance_approval_min_voters" env:"CHAIN_GOVERNANCE_APPROVAL_MIN_VOTERS"`
	ActivityRewardAmount          int64   `json:"activity_reward_amount" yaml:"activity_reward_amount" env:"CHAIN_ACTIVITY_REWARD_AMOUNT"`

	EquityRewardPerInterval        int64   `json:"equity_reward_per_interval" yaml:"equity_reward_per_interval" env:"CHAIN_EQUITY_REWARD_PER_INTERVAL"`
	EquityInactivityDays           int     `json:"equity_inactivity_days" yaml:"equity_inactivity_days" env:"CHAIN_EQUITY_INACTIVITY_DAYS"`
	EquityActivityBonus            float64 `json:"equity_activity_bonus" yaml:"equity_activity_bonus" env:"CHAIN_EQUITY_ACTIVITY_BONUS"`
	EquityMembershipTierBonus      float64 `json:"equity_membership_tier_bonus" yaml:"equity_membership_tier_bonus" env:"CHAIN_EQUITY_MEMBERSHIP_TIER_BONUS"`
	ModeratorWeightDecayPerInterval float64 `json:"moderator_weight_decay_per_interval" yaml:"moderator_weight_decay_per_interval" env:"CHAIN_MODERATOR_WEIGHT_DECAY_PER_INTERVAL"`
	VotingPowerDecayPerInterval     float64 `json:"voting_power_decay_per_interval" yaml:"voting_power_decay_per_interval" env:"CHAIN_VOTING_POWER_DECAY_PER_INTERVAL"`
}

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level      string `json:"level" yaml:"level" env:"LOG_LEVEL"`
	Format     string `json:"format" yaml:"format" env:"LOG_FORMAT"`
	Output     string `json:"output" yaml:"output" env:"LOG_OUTPUT"`
	FilePrefix string `json:"file_prefix" yaml:"file_prefix" env:"LOG_FILE_PREFIX"`
}

// MetricsConfig controls the Prometheus collector endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" env:"METRICS_ENABLED"`
	Addr    string `json:"addr" yaml:"addr" env:"METRICS_ADDR"`
}

// Config is the top-level configuration structure for the ledgerchaind
// process.
type Config struct {
	Chain   ChainConfig   `json:"chain" yaml:"chain"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// New returns a configuration populated with the protocol's default
// constants (spec.md §5, §6, §4.7, §4.9).
func New() *Config {
	return &Config{
		Chain: ChainConfig{
			MaxTimeUntilExpirationSeconds: 3600,
			OwnerUpdateLimitSeconds:       86400,
			StakeWithdrawIntervalSeconds:  86400 * 7,
			FeedIntervalBlocks:            180,
			EquityIntervalBlocks:          1200,
			MaxProxyRecursionDepth:        4,
			MaxSigCheckDepth:              2,
			NetworkFeePercent:             0.0005,
			GovernanceFeeShare:            0.25,
			ReferralFeeShare:              0.10,

			AccountCreationFee:               1000,
			DelegationRatio:                  5.0,
			DelegationReturnDays:             7,
			MinResetDelayDays:                3,
			OwnerHistoryRetentionDays:        30,
			RecoveryDelaySeconds:             86400,
			RecoveryExpirationSeconds:        86400 * 30,
			ConnectionUpgradeCooldownSeconds: 86400 * 7,
			ConnectionRequestDurationSeconds: 86400 * 7,
			ActivityClaimIntervalSeconds:     86400,
			MinProducerVotesForActivity:      10,
			ReferrerRewardWindowSeconds:      86400 * 365,
			GenericUpdateRateLimitSeconds:    1,
			GovernanceApprovalThresholdPct:   0.15,
			GovernanceApprovalMinVoters:      3,
			ActivityRewardAmount:             100,

			EquityRewardPerInterval:         1_000_000,
			EquityInactivityDays:            30,
			EquityActivityBonus:             0.25,
			EquityMembershipTierBonus:       0.10,
			ModeratorWeightDecayPerInterval: 0.98,
			VotingPowerDecayPerInterval:     0.99,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			FilePrefix: "ledgerchaind",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9105",
		},
	}
}

// Load loads configuration from an optional `.env` file, an optional YAML
// file (CONFIG_FILE or ./configs/config.yaml), and then environment
// variables, in that order of increasing precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := New()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	} else {
		_ = loadFromFile("configs/config.yaml", cfg)
	}

	if err := envdecode.Decode(cfg); err != nil {
		// envdecode errors when no tagged fields are present in the
		// environment; treat that as "no overrides" so local runs work
		// without exporting vars.
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			return nil, fmt.Errorf("decode env: %w", err)
		}
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	expanded, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
