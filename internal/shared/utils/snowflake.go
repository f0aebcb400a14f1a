package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// 41 bits of milliseconds since epoch, 10 bits node, 12 bits sequence.
const (
	snowflakeEpochMilli int64 = 1704067200000 // 2024-01-01 00:00:00 UTC

	snowflakeNodeBits = 10
	snowflakeSeqBits  = 12

	snowflakeMaxNode = int64(1)<<snowflakeNodeBits - 1
	snowflakeSeqMask = int64(1)<<snowflakeSeqBits - 1
)

// Snowflake generates unique, roughly time-ordered int64 ids. Document ids
// across the store come from here, so two processes must not share a node id.
type Snowflake struct {
	mu   sync.Mutex
	node int64
	last int64
	seq  int64
	now  func() int64
}

func NewSnowflake(nodeID int64) (*Snowflake, error) {
	if nodeID < 0 || nodeID > snowflakeMaxNode {
		return nil, fmt.Errorf("snowflake node id out of range: %d", nodeID)
	}
	return &Snowflake{node: nodeID, now: func() int64 { return time.Now().UnixMilli() }}, nil
}

func (s *Snowflake) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now()
	if ts < s.last {
		// Hold position through clock regressions, ids stay monotonic.
		ts = s.last
	}
	if ts == s.last {
		s.seq = (s.seq + 1) & snowflakeSeqMask
		if s.seq == 0 {
			for ts <= s.last {
				ts = s.now()
			}
		}
	} else {
		s.seq = 0
	}
	s.last = ts

	return (ts-snowflakeEpochMilli)<<(snowflakeNodeBits+snowflakeSeqBits) |
		s.node<<snowflakeSeqBits |
		s.seq
}

var (
	defaultOnce sync.Once
	defaultGen  *Snowflake
	defaultErr  error
)

// defaultSnowflake reads SNOWFLAKE_NODE_ID once, defaulting to node 1 so a
// single-process deployment needs no setup.
func defaultSnowflake() (*Snowflake, error) {
	defaultOnce.Do(func() {
		node := int64(1)
		if raw := strings.TrimSpace(os.Getenv("SNOWFLAKE_NODE_ID")); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				defaultErr = fmt.Errorf("invalid SNOWFLAKE_NODE_ID: %w", err)
				return
			}
			node = parsed
		}
		defaultGen, defaultErr = NewSnowflake(node)
	})
	return defaultGen, defaultErr
}

// NextStringID returns a fresh id formatted for document _id fields.
func NextStringID() (string, error) {
	gen, err := defaultSnowflake()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(gen.NextID(), 10), nil
}
