package chainstate_test

import (
	"testing"
	"time"

	"github.com/r3e-network/ledgerchain/domain/account"
	"github.com/r3e-network/ledgerchain/domain/asset"
	"github.com/r3e-network/ledgerchain/domain/operation"
	"github.com/r3e-network/ledgerchain/domain/virtualop"
	"github.com/r3e-network/ledgerchain/internal/chainstate"
	"github.com/r3e-network/ledgerchain/internal/evaluator"
	"github.com/r3e-network/ledgerchain/internal/scheduler"
	"github.com/r3e-network/ledgerchain/internal/store"
	"github.com/r3e-network/ledgerchain/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedGenesisAccount registers name directly against the store, bypassing
// the evaluator, the way a chain's genesis block would: evalAccountCreate
// itself requires a pre-existing, already-funded registrar, so the very
// first account on the chain cannot be created through the evaluator.
func seedGenesisAccount(s *chainstate.State, name string, now time.Time) {
	s.Accounts.Create(func(id store.ID) account.Account {
		return account.Account{
			ID:           account.ID(id),
			Name:         name,
			Active:       true,
			Registrar:    name,
			CreatedAt:    now,
			LastUpdated:  now,
			LastVote:     now,
			LastView:     now,
			LastShare:    now,
			LastPost:     now,
			LastTransfer: now,
		}
	})
	auth := account.Authority{Threshold: 1, Keys: []account.WeightedKey{{KeyFingerprint: "key-" + name, Weight: 1}}}
	s.AccountAuthorities.Create(func(id store.ID) account.AccountAuthority {
		return account.AccountAuthority{AccountName: name, Owner: auth, Active: auth, Posting: auth, LastOwnerUpdate: now}
	})
}

func signedTx(id string, signer string, expiration time.Time, ops ...operation.Operation) *operation.Transaction {
	return &operation.Transaction{
		ID:         id,
		Expiration: expiration,
		Operations: ops,
		Signatures: []operation.Signature{{KeyFingerprint: "key-" + signer}},
	}
}

// TestApplyBlockCreatesAccountAndMatchesOrders drives a single block through
// evaluator.Dispatch and scheduler.All() via chainstate.ApplyBlock, covering
// account creation (spec.md §4.7) followed by limit order placement and
// price-time-priority matching (spec.md §4.3, boundary scenario 1) in one
// end-to-end pipeline.
func TestApplyBlockCreatesAccountAndMatchesOrders(t *testing.T) {
	cfg := config.New()
	sink := &virtualop.SliceSink{}
	s := chainstate.New(&cfg.Chain, sink)

	genesisTime := time.Unix(1_700_000_000, 0)
	seedGenesisAccount(s, "genesis", genesisTime)
	require.NoError(t, s.Ledger.AdjustLiquid("seed", "genesis", chainstate.NativeSymbol, 1_000_000))
	require.NoError(t, s.Ledger.AdjustStaked("seed", "genesis", chainstate.NativeSymbol, 1_000_000))

	blockTime := genesisTime.Add(time.Minute)
	newAccountAuth := account.Authority{Threshold: 1, Keys: []account.WeightedKey{{KeyFingerprint: "key-alicelong", Weight: 1}}}

	createTx := signedTx("tx-create-alice", "genesis", blockTime.Add(time.Hour), operation.AccountCreate{
		Creator:    "genesis",
		NewAccount: "alicelong",
		Fee:        cfg.Chain.AccountCreationFee,
		FeeSymbol:  chainstate.NativeSymbol,
		Owner:      newAccountAuth,
		Active:     newAccountAuth,
		Posting:    newAccountAuth,
	})

	block1 := &operation.Block{Number: 1, Timestamp: blockTime, Txs: []*operation.Transaction{createTx}}
	require.NoError(t, chainstate.ApplyBlock(s, block1, evaluator.Dispatch, scheduler.All()))

	created, ok := s.Account("alicelong")
	require.True(t, ok)
	assert.True(t, created.Active)
	assert.EqualValues(t, cfg.Chain.AccountCreationFee, s.Ledger.GetBalance("alicelong", chainstate.NativeSymbol, asset.PoolStaked))
	assert.EqualValues(t, 1_000_000-cfg.Chain.AccountCreationFee, s.Ledger.GetBalance("genesis", chainstate.NativeSymbol, asset.PoolLiquid))

	// Fund both sides of a USD/COIN market: alicelong sells COIN for USD,
	// genesis (acting as a USD issuer surrogate here) sells USD for COIN.
	require.NoError(t, s.Ledger.AdjustLiquid("seed", "alicelong", chainstate.NativeSymbol, 500))
	require.NoError(t, s.Ledger.AdjustLiquid("seed", "genesis", "USD", 1000))

	blockTime2 := blockTime.Add(time.Minute)
	sellCoin := signedTx("tx-sell-coin", "alicelong", blockTime2.Add(time.Hour), operation.MarketLimitOrderCreate{
		Owner:        "alicelong",
		OwnerOrderID: 1,
		SellPrice:    asset.Price{Base: 1, BaseSym: chainstate.NativeSymbol, Quote: 2, QuoteSym: "USD"},
		ForSale:      100,
		Expiration:   blockTime2.Add(24 * time.Hour),
	})
	buyCoin := signedTx("tx-buy-coin", "genesis", blockTime2.Add(time.Hour), operation.MarketLimitOrderCreate{
		Owner:        "genesis",
		OwnerOrderID: 2,
		SellPrice:    asset.Price{Base: 2, BaseSym: "USD", Quote: 1, QuoteSym: chainstate.NativeSymbol},
		ForSale:      200,
		Expiration:   blockTime2.Add(24 * time.Hour),
	})

	block2 := &operation.Block{Number: 2, Timestamp: blockTime2, Txs: []*operation.Transaction{sellCoin, buyCoin}}
	require.NoError(t, chainstate.ApplyBlock(s, block2, evaluator.Dispatch, scheduler.All()))

	// Both orders rest at the same price (1 COIN = 2 USD) and fully cross:
	// alicelong's 100 COIN for sale exactly matches genesis's 200 USD for
	// sale (200 USD buys 100 COIN at the 2:1 rate). The debit side of each
	// order (what each side gave up) is untouched by fee routing and stays
	// exact; the credit side (what each side receives) now nets out below
	// the gross fill amount once the market's issuer and network trading
	// fees are deducted.
	assert.EqualValues(t, 500-100, s.Ledger.GetBalance("alicelong", chainstate.NativeSymbol, asset.PoolLiquid))
	aliceUSD := s.Ledger.GetBalance("alicelong", "USD", asset.PoolLiquid)
	assert.Greater(t, aliceUSD, asset.Amount(0))
	assert.Less(t, aliceUSD, asset.Amount(200))
	assert.EqualValues(t, 1000-200, s.Ledger.GetBalance("genesis", "USD", asset.PoolLiquid))
	genesisCoinGain := s.Ledger.GetBalance("genesis", chainstate.NativeSymbol, asset.PoolLiquid) - (1_000_000 - cfg.Chain.AccountCreationFee)
	assert.Greater(t, genesisCoinGain, asset.Amount(0))
	assert.Less(t, genesisCoinGain, asset.Amount(100))

	_, stillResting := s.Book.BestPrice(chainstate.NativeSymbol, "USD")
	assert.False(t, stillResting, "fully filled orders leave nothing resting")

	assert.NotEmpty(t, sink.Ops)
}

// TestApplyBlockRejectsExpiredTransactionWithoutAbortingBlock covers spec.md
// §7: a single invalid transaction does not prevent the rest of the block
// (including the maintenance passes) from applying.
func TestApplyBlockRejectsExpiredTransactionWithoutAbortingBlock(t *testing.T) {
	cfg := config.New()
	s := chainstate.New(&cfg.Chain, nil)

	genesisTime := time.Unix(1_700_000_000, 0)
	seedGenesisAccount(s, "genesis", genesisTime)
	require.NoError(t, s.Ledger.AdjustLiquid("seed", "genesis", chainstate.NativeSymbol, 10_000))
	require.NoError(t, s.Ledger.AdjustStaked("seed", "genesis", chainstate.NativeSymbol, 10_000))

	blockTime := genesisTime.Add(time.Minute)
	expiredTx := signedTx("tx-expired", "genesis", genesisTime, operation.AccountCreate{
		Creator:    "genesis",
		NewAccount: "toolate",
		Fee:        cfg.Chain.AccountCreationFee,
		FeeSymbol:  chainstate.NativeSymbol,
		Owner:      account.Authority{Threshold: 1, Keys: []account.WeightedKey{{KeyFingerprint: "k", Weight: 1}}},
		Active:     account.Authority{Threshold: 1, Keys: []account.WeightedKey{{KeyFingerprint: "k", Weight: 1}}},
		Posting:    account.Authority{Threshold: 1, Keys: []account.WeightedKey{{KeyFingerprint: "k", Weight: 1}}},
	})

	newAccountAuth := account.Authority{Threshold: 1, Keys: []account.WeightedKey{{KeyFingerprint: "key-fineaccnt", Weight: 1}}}
	goodTx := signedTx("tx-good", "genesis", blockTime.Add(time.Hour), operation.AccountCreate{
		Creator:    "genesis",
		NewAccount: "fineaccnt",
		Fee:        cfg.Chain.AccountCreationFee,
		FeeSymbol:  chainstate.NativeSymbol,
		Owner:      newAccountAuth,
		Active:     newAccountAuth,
		Posting:    newAccountAuth,
	})

	block := &operation.Block{Number: 1, Timestamp: blockTime, Txs: []*operation.Transaction{expiredTx, goodTx}}
	require.NoError(t, chainstate.ApplyBlock(s, block, evaluator.Dispatch, scheduler.All()))

	_, ok := s.Account("toolate")
	assert.False(t, ok, "expired transaction must not apply")
	_, ok = s.Account("fineaccnt")
	assert.True(t, ok, "later valid transaction in the same block must still apply")
}
