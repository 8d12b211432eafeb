package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var ErrGroupNotFound = errors.New("group not found")

// GroupRepository keeps the players currently joined to each game group.
type GroupRepository interface {
	AddMember(ctx context.Context, group, player string) error
	RemoveMember(ctx context.Context, group, player string) (int64, error)
	Members(ctx context.Context, group string) ([]string, error)
	IsMember(ctx context.Context, group, player string) (bool, error)
}

type dbGroup struct {
	client *redis.Client
}

func NewGroupRepository(client *redis.Client) GroupRepository {
	return &dbGroup{
		client: client,
	}
}

func groupKey(group string) string {
	return "group:" + group
}

func (that *dbGroup) AddMember(ctx context.Context, group, player string) error {
	if err := that.client.SAdd(ctx, groupKey(group), player).Err(); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

// RemoveMember returns the number of players left in the group.
func (that *dbGroup) RemoveMember(ctx context.Context, group, player string) (int64, error) {
	key := groupKey(group)

	if err := that.client.SRem(ctx, key, player).Err(); err != nil {
		return 0, fmt.Errorf("failed to remove member: %w", err)
	}

	remaining, err := that.client.SCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}

	return remaining, nil
}

func (that *dbGroup) Members(ctx context.Context, group string) ([]string, error) {
	members, err := that.client.SMembers(ctx, groupKey(group)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}

	if len(members) == 0 {
		return nil, ErrGroupNotFound
	}

	return members, nil
}

func (that *dbGroup) IsMember(ctx context.Context, group, player string) (bool, error) {
	ok, err := that.client.SIsMember(ctx, groupKey(group), player).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("failed to check member: %w", err)
	}

	return ok, nil
}
