package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound 表示缓存文件不存在。
var ErrNotFound = errors.New("blob not found")

// 图像条目统一落盘为 PNG 后缀，键本身不含扩展名。
const fileExt = ".png"

// NewStore 以 basePath 为根目录构建平铺的图像缓存，整站复用一份实例。
func NewStore(basePath string) (*Store, error) {
	if basePath == "" {
		return nil, errors.New("cache path required")
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve cache path: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create cache path: %w", err)
	}

	return &Store{
		basePath: abs,
		locks:    make(map[string]*entryLock),
	}, nil
}

// Store 通过 entryLock 避免同一键并发写入，同时复用 basePath。
type Store struct {
	basePath string

	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

// Key 对解析后的路由串做稳定散列，保证不同逻辑资源永不碰撞、
// 相同资源永远映射到同一文件。
func Key(resolvedRoute string) string {
	sum := sha256.Sum256([]byte(resolvedRoute))
	return hex.EncodeToString(sum[:])
}

// Path 返回某个路由键对应的缓存文件绝对路径。
func (s *Store) Path(resolvedRoute string) string {
	return filepath.Join(s.basePath, Key(resolvedRoute)+fileExt)
}

// Get 返回缓存的图像字节；文件不存在即视为未缓存（无额外索引）。
func (s *Store) Get(ctx context.Context, resolvedRoute string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(s.Path(resolvedRoute))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Put 将图像字节写入缓存。实现通过临时文件 + rename 保证原子性，
// 并发写同一键时后写者覆盖（字节相同，结果幂等）。
func (s *Store) Put(ctx context.Context, resolvedRoute string, data []byte) (string, error) {
	unlock := s.lockEntry(resolvedRoute)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	filePath := s.Path(resolvedRoute)
	tempFile, err := os.CreateTemp(s.basePath, ".blob-*")
	if err != nil {
		return "", err
	}
	tempName := tempFile.Name()

	_, err = tempFile.Write(data)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return "", err
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return "", err
	}
	return filePath, nil
}

func (s *Store) lockEntry(key string) func() {
	s.mu.Lock()
	lock := s.locks[key]
	if lock == nil {
		lock = &entryLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}
