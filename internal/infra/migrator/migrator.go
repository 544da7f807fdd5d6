package migrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
)

var (
	// ErrNoDatabase возвращается, если соединение с БД не передано
	ErrNoDatabase = errors.New("migrator: database is nil")

	// ErrMigrate возвращается при ошибке применения или отката миграций
	ErrMigrate = errors.New("migrator: migration failed")
)

// goose хранит диалект и файловую систему глобально
var gooseMu sync.Mutex

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Fatal(format string, v ...interface{})
}

// Migrator обертка над goose для встроенных SQL миграций
type Migrator struct {
	db     *sql.DB
	fsys   fs.FS
	dir    string
	logger Logger
}

// New создает мигратор. fsys содержит *.sql файлы в каталоге dir.
func New(db *sql.DB, fsys fs.FS, dir string, logger Logger) (*Migrator, error) {
	if db == nil {
		return nil, ErrNoDatabase
	}
	if dir == "" {
		dir = "."
	}

	return &Migrator{db: db, fsys: fsys, dir: dir, logger: logger}, nil
}

// Up применяет все ожидающие миграции
func (m *Migrator) Up(ctx context.Context) error {
	return m.run(func() error {
		m.logger.Info("Migrator: applying migrations")
		if err := goose.UpContext(ctx, m.db, m.dir); err != nil {
			return fmt.Errorf("%w: up: %w", ErrMigrate, err)
		}
		return nil
	})
}

// Down откатывает последнюю миграцию
func (m *Migrator) Down(ctx context.Context) error {
	return m.run(func() error {
		m.logger.Info("Migrator: rolling back last migration")
		if err := goose.DownContext(ctx, m.db, m.dir); err != nil {
			return fmt.Errorf("%w: down: %w", ErrMigrate, err)
		}
		return nil
	})
}

// Status выводит состояние миграций в лог
func (m *Migrator) Status(ctx context.Context) error {
	return m.run(func() error {
		if err := goose.StatusContext(ctx, m.db, m.dir); err != nil {
			return fmt.Errorf("%w: status: %w", ErrMigrate, err)
		}
		return nil
	})
}

// Version возвращает текущую версию схемы
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	var version int64
	err := m.run(func() error {
		v, err := goose.GetDBVersionContext(ctx, m.db)
		if err != nil {
			return fmt.Errorf("%w: version: %w", ErrMigrate, err)
		}
		version = v
		return nil
	})
	return version, err
}

func (m *Migrator) run(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(m.fsys)
	goose.SetLogger(gooseLogger{m.logger})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%w: set dialect: %w", ErrMigrate, err)
	}

	return fn()
}

// gooseLogger направляет вывод goose в логгер сервиса
type gooseLogger struct {
	logger Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal(format, v...)
}
