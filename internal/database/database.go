// Package database is the boundary adapter in front of Postgres. All
// raw driver errors are classified here, once, into the closed set the
// rest of the application branches on (ErrSchemaMissing,
// ErrUniqueViolation, or a plain error).
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cartshare/internal/models"
)

// Service exposes every query the application issues against Postgres.
type Service interface {
	// Users
	CreateOrUpdateUser(user *models.User) error
	GetUserByID(id int) (*models.User, error)

	// Workspaces and membership
	OwnedWorkspaces(ctx context.Context, userID int) ([]models.Workspace, error)
	MemberWorkspaces(ctx context.Context, email string) ([]models.Workspace, error)
	PendingWorkspaceInvites(ctx context.Context, email string) ([]PendingInvite, error)
	InsertWorkspace(ctx context.Context, name string, ownerID int) (*models.Workspace, error)
	UpsertWorkspaceMember(ctx context.Context, workspaceID uuid.UUID, email string, role models.MemberRole, invitedBy int) error
	CheckWorkspaceAccess(ctx context.Context, workspaceID uuid.UUID, userID int, email string) (models.MemberRole, error)
	WorkspaceMemberByID(ctx context.Context, id uuid.UUID) (*models.WorkspaceMember, error)
	AcceptWorkspaceInvite(ctx context.Context, id uuid.UUID, userID int) error
	DeleteWorkspaceMember(ctx context.Context, id uuid.UUID) error
	WorkspaceMembers(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceMember, error)

	// Lists and items
	ListsVisibleTo(ctx context.Context, workspaceID *uuid.UUID, userID int, email string) ([]models.List, error)
	GetList(ctx context.Context, id uuid.UUID) (*models.List, error)
	InsertList(ctx context.Context, list *models.List) error
	UpdateList(ctx context.Context, list *models.List) error
	DeleteListRow(ctx context.Context, id uuid.UUID) error
	ItemsForList(ctx context.Context, listID uuid.UUID) ([]models.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	InsertItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
	DeleteItemRow(ctx context.Context, id uuid.UUID) error
	SwapItemPositions(ctx context.Context, a, b uuid.UUID) error
	CanAccessList(ctx context.Context, listID uuid.UUID, userID int, email string) (bool, error)

	// List shares
	UpsertListShare(ctx context.Context, listID uuid.UUID, email string, invitedBy int) error
	ListShareByID(ctx context.Context, id uuid.UUID) (*models.ListShare, error)
	PendingListShares(ctx context.Context, email string) ([]models.ListShare, error)
	AcceptListShare(ctx context.Context, id uuid.UUID, userID int) error
	DeleteListShare(ctx context.Context, id uuid.UUID) error

	RunMigrations() error
	Health() map[string]string
	Close() error
}

type service struct {
	gorm *gorm.DB
	db   *sql.DB
}

var dbInstance *service

// New returns the shared database service, connecting on first use.
// The connection string comes from DB_STRING.
func New() Service {
	if dbInstance != nil {
		return dbInstance
	}

	dsn := os.Getenv("DB_STRING")
	if dsn == "" {
		log.Fatal("DB_STRING environment variable not set")
	}

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	dbInstance = &service{gorm: gormDB, db: sqlDB}
	return dbInstance
}

// Health returns connection health and pool statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	if err := s.db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	poolStats := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(poolStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(poolStats.InUse)
	stats["idle"] = strconv.Itoa(poolStats.Idle)
	stats["wait_count"] = strconv.FormatInt(poolStats.WaitCount, 10)

	if poolStats.OpenConnections > 20 {
		stats["message"] = "The database is experiencing heavy load"
	}

	return stats
}

// Close closes the underlying connection pool.
func (s *service) Close() error {
	return s.db.Close()
}
