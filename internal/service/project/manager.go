package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"profitpro/internal/model"
	"profitpro/internal/service/store"
)

// ErrNoUndo 没有可撤销的修改
var ErrNoUndo = errors.New("no undo snapshot")

// SnapshotRecorder 每次保存后记录一份历史快照
type SnapshotRecorder interface {
	Save(reason string, document []byte) (int64, error)
	Prune(keep int) (int64, error)
}

// Options 管理器配置
type Options struct {
	MenusFile  string
	Defaults   Defaults
	Backups    SnapshotRecorder
	BackupKeep int
	Logger     *logrus.Logger
}

// Manager 数据文件管理器：加载、修复、原子保存、单步撤销与历史快照
// 所有写操作经 Mutate 串行执行；多进程同时写入时以最后一次保存为准
type Manager struct {
	path     string
	undoPath string
	defaults Defaults
	backups  SnapshotRecorder
	keep     int
	log      *logrus.Logger

	store *store.MemoryStore

	mu          sync.Mutex
	lastSavedAt time.Time
	lastReason  string
	repaired    int
	corruptFile string
}

func NewManager(memStore *store.MemoryStore, opts Options) (*Manager, error) {
	if strings.TrimSpace(opts.MenusFile) == "" {
		return nil, errors.New("menus file is required")
	}
	if memStore == nil {
		return nil, errors.New("store is required")
	}
	if len(opts.Defaults.Menus) == 0 && opts.Defaults.CostMultiplier == 0 {
		opts.Defaults = DefaultDefaults()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	ext := filepath.Ext(opts.MenusFile)
	return &Manager{
		path:     opts.MenusFile,
		undoPath: strings.TrimSuffix(opts.MenusFile, ext) + ".undo" + ext,
		defaults: opts.Defaults,
		backups:  opts.Backups,
		keep:     opts.BackupKeep,
		log:      opts.Logger,
		store:    memStore,
	}, nil
}

// Store 内存数据
func (m *Manager) Store() *store.MemoryStore {
	return m.store
}

// Defaults 默认值
func (m *Manager) Defaults() Defaults {
	return m.defaults
}

// Load 读取数据文件
// 文件不存在时写入默认数据；文件损坏时移到 <file>.corrupt-<time> 后使用默认数据
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		menus, _, _ := Normalize(nil, m.defaults)
		m.store.Replace(menus)
		m.log.WithField("file", m.path).Info("menus file not found, created default menus")
		return m.saveLocked("init", false)
	}
	if err != nil {
		return fmt.Errorf("read menus file: %w", err)
	}

	menus, fixes, err := Normalize(data, m.defaults)
	if err != nil {
		entry := m.log.WithError(err).WithField("file", m.path)
		aside := m.path + ".corrupt-" + time.Now().UTC().Format("20060102T150405")
		if rerr := osRename(m.path, aside); rerr != nil {
			entry.WithField("rename_error", rerr.Error()).Warn("move corrupt menus file aside failed")
		} else {
			m.corruptFile = aside
			entry = entry.WithField("moved_to", aside)
		}
		entry.Error("menus file is not valid, using default menus")
		menus, _, _ = Normalize(nil, m.defaults)
		m.store.Replace(menus)
		return nil
	}

	m.store.Replace(menus)
	m.repaired = fixes
	m.log.WithFields(logrus.Fields{
		"file":  m.path,
		"menus": len(menus),
		"items": m.store.Count(),
	}).Info("menus loaded")
	if warnings := CheckPrices(menus); len(warnings) > 0 {
		m.log.WithField("ingredients", len(warnings)).Warn("ingredient prices out of expected range")
	}

	if fixes > 0 {
		m.log.WithField("fixes", fixes).Warn("repaired legacy menu data")
		return m.saveLocked("repair", true)
	}
	return nil
}

// SaveNow 立即保存
func (m *Manager) SaveNow() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked("save", false)
}

// Mutate 执行一次修改：应用命令，写入撤销快照，保存并记录历史
// 保存失败时内存数据回滚
func (m *Manager) Mutate(reason string, cmd store.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := m.store.Snapshot()
	if err := m.store.Apply(cmd); err != nil {
		return err
	}
	return m.commitLocked(reason, before)
}

// Restore 用历史快照替换当前数据，可撤销
func (m *Manager) Restore(reason string, document []byte) error {
	menus, _, err := Normalize(document, m.defaults)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	before := m.store.Snapshot()
	m.store.Replace(menus)
	return m.commitLocked(reason, before)
}

// UndoLast 撤销上一次修改：恢复快照并删除（单步撤销）
func (m *Manager) UndoLast() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !fileExists(m.undoPath) {
		return ErrNoUndo
	}
	data, err := os.ReadFile(m.undoPath)
	if err != nil {
		return fmt.Errorf("read undo snapshot: %w", err)
	}
	menus, _, err := Normalize(data, m.defaults)
	if err != nil {
		return err
	}

	m.store.Replace(menus)
	_ = os.Remove(m.undoPath)
	return m.saveLocked("undo", true)
}

// Document 当前数据（与数据文件格式一致）
func (m *Manager) Document() ([]byte, error) {
	return encodeJSON(m.store.Snapshot())
}

// Status 数据文件状态
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Status{
		MenusFile:     m.path,
		Menus:         m.store.MenuNames(),
		ItemCount:     m.store.Count(),
		LastSavedAt:   m.lastSavedAt,
		LastReason:    m.lastReason,
		CanUndo:       fileExists(m.undoPath),
		Repaired:      m.repaired,
		Backups:       m.backups != nil,
		CorruptFile:   m.corruptFile,
		PriceWarnings: CheckPrices(m.store.Snapshot()),
	}
}

func (m *Manager) commitLocked(reason string, before model.Menus) error {
	undo, err := encodeJSON(before)
	if err != nil {
		m.store.Replace(before)
		return err
	}
	if err := writeBytesAtomic(m.undoPath, undo); err != nil {
		m.store.Replace(before)
		return fmt.Errorf("write undo snapshot: %w", err)
	}
	if err := m.saveLocked(reason, true); err != nil {
		m.store.Replace(before)
		return err
	}
	return nil
}

func (m *Manager) saveLocked(reason string, backup bool) error {
	data, err := encodeJSON(m.store.Snapshot())
	if err != nil {
		return err
	}
	if err := writeBytesAtomic(m.path, data); err != nil {
		return fmt.Errorf("write menus file: %w", err)
	}
	m.lastSavedAt = time.Now().UTC()
	m.lastReason = reason

	if backup && m.backups != nil {
		m.recordBackupLocked(reason, data)
	}
	return nil
}

// 历史快照失败不影响保存结果
func (m *Manager) recordBackupLocked(reason string, data []byte) {
	id, err := m.backups.Save(reason, data)
	if err != nil {
		m.log.WithError(err).WithField("reason", reason).Warn("record backup failed")
		return
	}
	entry := m.log.WithFields(logrus.Fields{"backup": id, "reason": reason})
	if m.keep > 0 {
		removed, err := m.backups.Prune(m.keep)
		if err != nil {
			entry.WithError(err).Warn("prune backups failed")
			return
		}
		entry = entry.WithField("pruned", removed)
	}
	entry.Debug("backup recorded")
}
