// Package store persists users, board events, exports, queued web commands
// and reported device state.
package store

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/internal/model"
)

var (
	// ErrNotFound is returned when the addressed row does not exist
	ErrNotFound = errors.New("not found")
	// ErrUserExists is returned by CreateUser for a taken username
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidFormat is returned for export formats other than CSV and PDF
	ErrInvalidFormat = errors.New("invalid export format")
)

// Store defines the interface for all database operations.
type Store interface {
	protoboard.Recorder

	Authenticate(ctx context.Context, username, password string) (*model.User, error)
	CreateUser(ctx context.Context, username, password, role string) (*model.User, error)

	RecentEvents(ctx context.Context, limit int) ([]model.Event, error)

	SaveExport(ctx context.Context, data []byte, format string) (string, error)
	GetExport(ctx context.Context, id string) (*model.Export, error)
	ListExports(ctx context.Context) ([]model.Export, error)

	EnqueueCommand(ctx context.Context, cmd *model.Command) error
	PendingCommands(ctx context.Context, deviceID string) ([]model.Command, error)
	ListCommands(ctx context.Context, limit int) ([]model.Command, error)
	MarkCommandSent(ctx context.Context, id uint) error

	ReportState(ctx context.Context, deviceID, detail, value string) error
	States(ctx context.Context, deviceID string) ([]model.DeviceState, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, now: time.Now}
}

// bcryptPrefix marks a hashed password; anything else is a legacy plaintext row
const bcryptPrefix = "$2"

// Authenticate checks a password and returns the user on success. A nil user
// with a nil error means the credentials were wrong. Legacy plaintext
// passwords are upgraded to bcrypt on their first successful check.
func (s *gormStore) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", username, err)
	}
	if !user.Active {
		return nil, nil
	}

	if strings.HasPrefix(user.PasswordHash, bcryptPrefix) {
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
			return nil, nil
		}
		return &user, nil
	}

	if subtle.ConstantTimeCompare([]byte(user.PasswordHash), []byte(password)) != 1 {
		return nil, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&user).Update("password_hash", string(hash)).Error; err != nil {
		return nil, fmt.Errorf("failed to upgrade password for %s: %w", username, err)
	}
	return &user, nil
}

// CreateUser adds an active user with a bcrypt password hash
func (s *gormStore) CreateUser(ctx context.Context, username, password, role string) (*model.User, error) {
	if role == "" {
		role = model.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := model.User{Username: username, PasswordHash: string(hash), Role: role, Active: true}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUserExists
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", username, err)
	}
	return &user, nil
}

// RecordEvent appends a board record to the event log
func (s *gormStore) RecordEvent(ctx context.Context, rec protoboard.Record) error {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	event := model.Event{
		Type:      rec.Type,
		Detail:    rec.Detail,
		Origin:    rec.Origin,
		Value:     rec.Value,
		Timestamp: ts,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("failed to record %s event: %w", rec.Type, err)
	}
	return nil
}

// RecentEvents returns up to limit events, newest first
func (s *gormStore) RecentEvents(ctx context.Context, limit int) ([]model.Event, error) {
	var events []model.Event
	q := s.db.WithContext(ctx).Order("timestamp DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// SaveExport stores a rendered export and returns its id
func (s *gormStore) SaveExport(ctx context.Context, data []byte, format string) (string, error) {
	format = strings.ToUpper(format)
	if format != "CSV" && format != "PDF" {
		return "", fmt.Errorf("%w: %s", ErrInvalidFormat, format)
	}

	export := model.Export{
		ID:     uuid.NewString(),
		Format: format,
		Size:   len(data),
		Data:   data,
	}
	if err := s.db.WithContext(ctx).Create(&export).Error; err != nil {
		return "", fmt.Errorf("failed to save export: %w", err)
	}
	return export.ID, nil
}

// GetExport loads one export including its contents
func (s *gormStore) GetExport(ctx context.Context, id string) (*model.Export, error) {
	var export model.Export
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&export).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("export %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load export %s: %w", id, err)
	}
	return &export, nil
}

// ListExports returns export metadata, newest first, without the contents
func (s *gormStore) ListExports(ctx context.Context) ([]model.Export, error) {
	var exports []model.Export
	err := s.db.WithContext(ctx).
		Select("id", "user_id", "format", "size", "created_at").
		Order("created_at DESC").
		Find(&exports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	return exports, nil
}

// EnqueueCommand queues a command for the panel
func (s *gormStore) EnqueueCommand(ctx context.Context, cmd *model.Command) error {
	cmd.Sent = false
	if err := s.db.WithContext(ctx).Create(cmd).Error; err != nil {
		return fmt.Errorf("failed to enqueue command: %w", err)
	}
	return nil
}

// PendingCommands returns unsent commands in the order they were queued.
// Commands without a device id match every device.
func (s *gormStore) PendingCommands(ctx context.Context, deviceID string) ([]model.Command, error) {
	var cmds []model.Command
	q := s.db.WithContext(ctx).Where("sent = ?", false)
	if deviceID != "" {
		q = q.Where("device_id = ? OR device_id = ?", deviceID, "")
	}
	if err := q.Order("id ASC").Find(&cmds).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending commands: %w", err)
	}
	return cmds, nil
}

// ListCommands returns up to limit commands, newest first
func (s *gormStore) ListCommands(ctx context.Context, limit int) ([]model.Command, error) {
	var cmds []model.Command
	q := s.db.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&cmds).Error; err != nil {
		return nil, fmt.Errorf("failed to list commands: %w", err)
	}
	return cmds, nil
}

// MarkCommandSent flags a command as delivered
func (s *gormStore) MarkCommandSent(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&model.Command{}).Where("id = ?", id).Update("sent", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark command %d sent: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("command %d: %w", id, ErrNotFound)
	}
	return nil
}

// ReportState upserts the latest value of detail for deviceID
func (s *gormStore) ReportState(ctx context.Context, deviceID, detail, value string) error {
	state := model.DeviceState{DeviceID: deviceID, Detail: detail, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}, {Name: "detail"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&state).Error
	if err != nil {
		return fmt.Errorf("failed to report %s state: %w", detail, err)
	}
	return nil
}

// States returns every reported detail of deviceID ordered by detail
func (s *gormStore) States(ctx context.Context, deviceID string) ([]model.DeviceState, error) {
	var states []model.DeviceState
	err := s.db.WithContext(ctx).Where("device_id = ?", deviceID).Order("detail ASC").Find(&states).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	return states, nil
}
