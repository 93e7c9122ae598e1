package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrSnapshotNotFound 快照不存在
var ErrSnapshotNotFound = errors.New("Backup not found")

// Snapshot 一份数据文件快照；列表查询不带 Document
type Snapshot struct {
	ID        int64     `json:"id"`
	Reason    string    `json:"reason"`
	Size      int       `json:"size"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"createdAt"`
	Document  []byte    `json:"-"`
}

// Save 保存快照，返回快照 ID
// 与最近一份内容相同时不重复写入，直接返回已有 ID
func (s *Store) Save(reason string, document []byte) (int64, error) {
	sum := sha256.Sum256(document)
	checksum := hex.EncodeToString(sum[:])

	var lastID int64
	var lastChecksum string
	err := s.db.QueryRow(`SELECT id, checksum FROM menu_snapshots ORDER BY id DESC LIMIT 1`).Scan(&lastID, &lastChecksum)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to query latest snapshot: %w", err)
	}
	if err == nil && lastChecksum == checksum {
		return lastID, nil
	}

	res, err := s.db.Exec(`
		INSERT INTO menu_snapshots (reason, size, checksum, document, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, reason, len(document), checksum, document, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to save snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get snapshot id: %w", err)
	}
	return id, nil
}

// List 按时间倒序列出快照
func (s *Store) List(limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, reason, size, checksum, created_at
		FROM menu_snapshots
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	out := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.Reason, &snap.Size, &snap.Checksum, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Get 读取完整快照
func (s *Store) Get(id int64) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.QueryRow(`
		SELECT id, reason, size, checksum, created_at, document
		FROM menu_snapshots WHERE id = ?
	`, id).Scan(&snap.ID, &snap.Reason, &snap.Size, &snap.Checksum, &snap.CreatedAt, &snap.Document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snap, nil
}

// Prune 只保留最近 keep 份快照，返回删除数量
func (s *Store) Prune(keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.db.Exec(`
		DELETE FROM menu_snapshots
		WHERE id NOT IN (SELECT id FROM menu_snapshots ORDER BY id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

// Count 快照数量
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM menu_snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}
