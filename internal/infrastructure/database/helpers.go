package database

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Ping kiểm tra database connection có còn sống và responsive không// Function này thường được gọi bởi health check endpoints
func (db *PostgresDB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	// Health check không nên chờ quá lâu - 5s là reasonable
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.Pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// Close đóng tất cả connections trong pool và cleanup resources
// Safe to call multiple times - subsequent calls sẽ là no-op
func (db *PostgresDB) Close() error {
	if db.Pool == nil {
		log.Println("[DATABASE] Pool is already closed or was never initialized")
		return nil
	}

	log.Println("[DATABASE] Closing database connection pool...")

	// Pool.Close() đợi acquired connections được released trước khi terminate
	db.Pool.Close()
	db.Pool = nil

	log.Println("[DATABASE] Connection pool closed successfully")
	return nil
}

// PoolStats chứa thống kê chi tiết về connection pool
// Struct này được dùng cho monitoring và debugging performance issues
type PoolStats struct {
	AcquireCount            int64         // Tổng số lần acquire connection (lifetime metric)
	AcquireDuration         time.Duration // Tổng thời gian spent acquiring connections
	AcquiredConns           int32         // Số connections hiện đang được used
	CanceledAcquireCount    int64         // Số lần acquire bị cancel (do timeout hoặc context cancel)
	ConstructingConns       int32         // Số connections đang được establish (connecting state)
	EmptyAcquireCount       int64         // Số lần acquire từ empty pool (had to wait)
	IdleConns               int32         // Số connections idle, sẵn sàng dùng
	MaxConns                int32         // Max connections configured
	TotalConns              int32         // Total connections (acquired + idle + constructing)
	NewConnsCount           int64         // Số connections mới đã tạo (lifetime metric)
	MaxLifetimeDestroyCount int64         // Connections closed do exceed MaxConnLifetime
	MaxIdleDestroyCount     int64         // Connections closed do exceed MaxConnIdleTime
}

// Stats trả về snapshot của connection pool statistics
func (db *PostgresDB) Stats() (*PoolStats, error) {
	if db.Pool == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	// Pool.Stat() return atomic snapshot - all values consistent tại một thời điểm
	rawStats := db.Pool.Stat()

	return &PoolStats{
		AcquiredConns:     rawStats.AcquiredConns(),
		ConstructingConns: rawStats.ConstructingConns(),
		IdleConns:         rawStats.IdleConns(),
		TotalConns:        rawStats.TotalConns(),
		MaxConns:          rawStats.MaxConns(),

		AcquireCount:         rawStats.AcquireCount(),
		AcquireDuration:      rawStats.AcquireDuration(),
		CanceledAcquireCount: rawStats.CanceledAcquireCount(),
		EmptyAcquireCount:    rawStats.EmptyAcquireCount(),
		NewConnsCount:        rawStats.NewConnsCount(),

		MaxLifetimeDestroyCount: rawStats.MaxLifetimeDestroyCount(),
		MaxIdleDestroyCount:     rawStats.MaxIdleDestroyCount(),
	}, nil
}
