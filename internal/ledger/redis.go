package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	id "testament/pkg/domain"
	"testament/pkg/platform/sentinel"
)

const balanceKeyPrefix = "testament:ledger:"

// transferScript atomically checks the vault balance and moves funds. Running
// it server-side keeps debit-and-credit a single step even with multiple
// service instances pointed at the same Redis.
var transferScript = redis.NewScript(`
local vault = KEYS[1]
local to = KEYS[2]
local amount = tonumber(ARGV[1])
local balance = tonumber(redis.call("GET", vault) or "0")
if balance < amount then
	return 0
end
redis.call("DECRBY", vault, amount)
redis.call("INCRBY", to, amount)
return 1
`)

// debitScript atomically checks the vault balance and removes funds, the
// compensation half of a credit whose operation failed.
var debitScript = redis.NewScript(`
local vault = KEYS[1]
local amount = tonumber(ARGV[1])
local balance = tonumber(redis.call("GET", vault) or "0")
if balance < amount then
	return 0
end
redis.call("DECRBY", vault, amount)
return 1
`)

// Redis is a ledger backed by a shared Redis instance, one integer key per
// account.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (l *Redis) Credit(ctx context.Context, vault id.AccountID, amount uint64) error {
	if err := l.client.IncrBy(ctx, balanceKey(vault), int64(amount)).Err(); err != nil {
		return fmt.Errorf("credit vault: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return nil
}

func (l *Redis) Debit(ctx context.Context, vault id.AccountID, amount uint64) error {
	ok, err := debitScript.Run(ctx, l.client, []string{balanceKey(vault)}, amount).Int()
	if err != nil {
		return fmt.Errorf("debit vault: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	if ok != 1 {
		return sentinel.ErrInsufficientFunds
	}
	return nil
}

func (l *Redis) Transfer(ctx context.Context, vault id.AccountID, to id.AccountID, amount uint64) error {
	ok, err := transferScript.Run(ctx, l.client,
		[]string{balanceKey(vault), balanceKey(to)},
		amount,
	).Int()
	if err != nil {
		return fmt.Errorf("transfer: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	if ok != 1 {
		return sentinel.ErrInsufficientFunds
	}
	return nil
}

func (l *Redis) Balance(ctx context.Context, vault id.AccountID) (uint64, error) {
	v, err := l.client.Get(ctx, balanceKey(vault)).Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("read vault balance: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return v, nil
}

func balanceKey(account id.AccountID) string {
	return balanceKeyPrefix + account.String()
}
