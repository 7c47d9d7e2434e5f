// Package cache хранит JSON-значения в Redis: заметки по ключу и роли пользователей.
// Заполнение идет через SetIfUnchanged со снимком версий, инвалидация повышает версию.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/notes-app/internal/config"
)

// Cache обертка над клиентом Redis.
type Cache struct {
	Db *redis.Client
}

// InitServer подключается к Redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Get читает значение по ключу в result. false, если ключа нет.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Snapshot снимок версий ключей. Снимается до чтения из базы и передается в SetIfUnchanged.
type Snapshot map[string]string

// versionTTL время жизни счетчика версии, должно быть больше TTL любого значения.
const versionTTL = 24 * time.Hour

func versionKey(key string) string {
	return "ver:" + key
}

func groupKey(group string) string {
	return "group:" + group
}

// Versions читает текущие версии ключей. Отсутствующая версия: пустая строка.
func (c *Cache) Versions(ctx context.Context, keys ...string) (Snapshot, error) {
	const op = "cache.Versions"
	seen := make(Snapshot, len(keys))
	if len(keys) == 0 {
		return seen, nil
	}
	vkeys := make([]string, len(keys))
	for i, k := range keys {
		vkeys[i] = versionKey(k)
	}
	vals, err := c.Db.MGet(ctx, vkeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for i, k := range keys {
		v, _ := vals[i].(string)
		seen[k] = v
	}
	return seen, nil
}

// SetIfUnchanged сохраняет значение, только если ни одна версия из seen не изменилась
// с момента снимка. Ключ добавляется в группы groups. false: значение устарело и не записано.
func (c *Cache) SetIfUnchanged(ctx context.Context, key string, value any, expiration time.Duration, seen Snapshot, groups ...string) (bool, error) {
	const op = "cache.SetIfUnchanged"
	jsonData, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	watched := make([]string, 0, len(seen))
	for k := range seen {
		watched = append(watched, versionKey(k))
	}

	stored := false
	txf := func(tx *redis.Tx) error {
		for k, want := range seen {
			got, err := tx.Get(ctx, versionKey(k)).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if got != want {
				return nil
			}
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, jsonData, expiration)
			for _, g := range groups {
				pipe.SAdd(ctx, groupKey(g), key)
				pipe.Expire(ctx, groupKey(g), expiration)
			}
			return nil
		})
		if err != nil {
			return err
		}
		stored = true
		return nil
	}

	err = c.Db.Watch(ctx, txf, watched...)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return stored, nil
}

// Invalidate удаляет ключи и повышает их версии, чтобы отменить начатые заполнения.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	const op = "cache.Invalidate"
	if len(keys) == 0 {
		return nil
	}
	_, err := c.Db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Incr(ctx, versionKey(k))
			pipe.Expire(ctx, versionKey(k), versionTTL)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// InvalidateGroup удаляет все ключи группы и повышает версию группы.
func (c *Cache) InvalidateGroup(ctx context.Context, group string) error {
	const op = "cache.InvalidateGroup"
	_, err := c.Db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(group))
		pipe.Expire(ctx, versionKey(group), versionTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	members, err := c.Db.SMembers(ctx, groupKey(group)).Result()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = c.Db.Del(ctx, append(members, groupKey(group))...).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (c *Cache) Close() error {
	return c.Db.Close()
}

// NoteKey ключ кэша заметки.
func NoteKey(noteID string) string {
	return "note:" + noteID
}

// OwnerNotesGroup группа закэшированных заметок пользователя.
func OwnerNotesGroup(userID string) string {
	return "notes:" + userID
}

// RoleKey ключ кэша роли пользователя.
func RoleKey(userID string) string {
	return "role:" + userID
}
