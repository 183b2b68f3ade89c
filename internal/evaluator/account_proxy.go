package evaluator

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/account"
	"github.com/r3e-network/ledgerchain/domain/operation"
	"github.com/r3e-network/ledgerchain/internal/chainstate"
	"github.com/r3e-network/ledgerchain/pkg/errors"
)

// evalAccountUpdateProxy sets or clears an account's vote proxy, rejecting
// any assignment that would create a cycle or exceed the maximum proxy
// chain depth (spec.md §3 global invariant, §4.7).
func evalAccountUpdateProxy(s *chainstate.State, op operation.AccountUpdateProxy, now time.Time) error {
	const name = "account.update_proxy"

	id, acc, ok := s.AccountWithID(op.Account)
	if !ok {
		return errors.UnknownEntity(name, "account", op.Account)
	}

	if op.NewProxy != "" {
		if op.NewProxy == op.Account {
			return errors.PreconditionViolated(name, "an account cannot proxy to itself")
		}
		if _, ok := s.Account(op.NewProxy); !ok {
			return errors.UnknownEntity(name, "account", op.NewProxy)
		}
		if proxyChainHits(s, op.NewProxy, op.Account, s.Config.MaxProxyRecursionDepth) {
			return errors.PreconditionViolated(name, "proxy assignment would create a cycle")
		}
	}

	s.Accounts.Modify(id, func(a *account.Account) {
		a.Proxy = op.NewProxy
		a.LastUpdated = now
	})
	return nil
}

// proxyChainHits walks the proxy chain starting at start up to depth hops,
// reporting whether it ever reaches target (which would close a cycle back
// to the account being reassigned).
func proxyChainHits(s *chainstate.State, start, target string, depth int) bool {
	cur := start
	for i := 0; i < depth; i++ {
		if cur == target {
			return true
		}
		acc, ok := s.Account(cur)
		if !ok || acc.Proxy == "" {
			return false
		}
		cur = acc.Proxy
	}
	return cur == target
}
