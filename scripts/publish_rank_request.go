//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type rankRequest struct {
	RequestID uuid.UUID `json:"request_id"`
	Query     *string   `json:"query,omitempty"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	Limit     int       `json:"limit,omitempty"`
}

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	query := flag.String("q", "90210", "ZIP code or address")
	limit := flag.Int("limit", 3, "number of locations to return")
	flag.Parse()

	client := redis.NewClient(&redis.Options{Addr: *redisAddr})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	req := rankRequest{RequestID: uuid.New(), Query: query, Limit: *limit}
	data, err := json.Marshal(req)
	if err != nil {
		log.Fatalf("Failed to marshal request: %v", err)
	}

	// запоминаем хвост ответного стрима до публикации
	lastID := "$"
	if msgs, err := client.XRevRangeN(ctx, "stream:nearest:ranked", "+", "-", 1).Result(); err == nil && len(msgs) > 0 {
		lastID = msgs[0].ID
	}

	id, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: "stream:nearest:rank",
		Values: map[string]interface{}{"data": string(data)},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish request: %v", err)
	}
	fmt.Printf("Published %s (request %s, q=%q)\n", id, req.RequestID, *query)

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		streams, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{"stream:nearest:ranked", lastID},
			Count:   10,
			Block:   time.Second,
		}).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			log.Fatalf("Failed to read responses: %v", err)
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				raw, ok := msg.Values["data"].(string)
				if !ok {
					continue
				}
				var resp map[string]interface{}
				if err := json.Unmarshal([]byte(raw), &resp); err != nil {
					continue
				}
				if resp["request_id"] == req.RequestID.String() {
					pretty, _ := json.MarshalIndent(resp, "", "  ")
					fmt.Printf("%s\n", pretty)
					return
				}
			}
		}
	}
	fmt.Println("Timeout waiting for response")
}
