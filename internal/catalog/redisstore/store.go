// Package redisstore implements catalog.Store on Redis.
//
// Layout, under a configurable prefix:
//
//	<prefix>:catalog:seq        INCR counter for book ids
//	<prefix>:catalog:books      list of book ids in insertion order
//	<prefix>:catalog:book:<id>  hash with title, author, year
//	<prefix>:catalog:borrowed   hash of book id -> borrower
package redisstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/entities"
)

// Store keeps the catalog in Redis. It owns the client and closes it on Close.
type Store struct {
	rdb    *redis.Client
	prefix string
}

var _ catalog.Store = (*Store)(nil)

// New wraps an existing client. An empty prefix defaults to "librarian".
func New(rdb *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "librarian"
	}
	return &Store{rdb: rdb, prefix: prefix}
}

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, addr, password string, db int, prefix string) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return New(rdb, prefix), nil
}

func (s *Store) key(parts ...string) string {
	k := s.prefix + ":catalog"
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (s *Store) List(ctx context.Context) ([]entities.Book, error) {
	ids, err := s.rdb.LRange(ctx, s.key("books"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list book ids: %w", err)
	}
	if len(ids) == 0 {
		return []entities.Book{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, s.key("book", id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load books: %w", err)
	}

	books := make([]entities.Book, 0, len(ids))
	for i, id := range ids {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue
		}
		seq, _ := strconv.ParseUint(id, 10, 64)
		books = append(books, entities.Book{
			BookID: id,
			Seq:    seq,
			Title:  fields["title"],
			Author: fields["author"],
			Year:   fields["year"],
		})
	}
	return books, nil
}

func (s *Store) Borrowed(ctx context.Context) (map[string]string, error) {
	borrowed, err := s.rdb.HGetAll(ctx, s.key("borrowed")).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load borrow records: %w", err)
	}
	return borrowed, nil
}

func (s *Store) Add(ctx context.Context, title, author, year string) (entities.Book, error) {
	seq, err := s.rdb.Incr(ctx, s.key("seq")).Result()
	if err != nil {
		return entities.Book{}, fmt.Errorf("failed to allocate book id: %w", err)
	}

	book := entities.Book{
		BookID: strconv.FormatInt(seq, 10),
		Seq:    uint64(seq),
		Title:  title,
		Author: author,
		Year:   year,
	}

	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.key("book", book.BookID), "title", title, "author", author, "year", year)
		p.RPush(ctx, s.key("books"), book.BookID)
		return nil
	})
	if err != nil {
		return entities.Book{}, fmt.Errorf("failed to save book: %w", err)
	}
	return book, nil
}

func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	var removed *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		removed = p.LRem(ctx, s.key("books"), 0, id)
		p.Del(ctx, s.key("book", id))
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to remove book %s: %w", id, err)
	}
	return removed.Val() > 0, nil
}

func (s *Store) Search(ctx context.Context, query string) ([]entities.Book, error) {
	books, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Filter(books, query), nil
}

func (s *Store) Borrow(ctx context.Context, id, user string) (bool, error) {
	created, err := s.rdb.HSetNX(ctx, s.key("borrowed"), id, user).Result()
	if err != nil {
		return false, fmt.Errorf("failed to borrow book %s: %w", id, err)
	}
	return created, nil
}

func (s *Store) Return(ctx context.Context, id string) (bool, error) {
	removed, err := s.rdb.HDel(ctx, s.key("borrowed"), id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to return book %s: %w", id, err)
	}
	return removed > 0, nil
}

// Ping reports whether Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
