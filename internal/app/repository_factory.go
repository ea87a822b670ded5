package app

import (
	"fmt"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/outbox"
	taskPersistence "github.com/felixgeelhaar/flowboard/internal/tasks/infrastructure/persistence"
	workflowPersistence "github.com/felixgeelhaar/flowboard/internal/workflow/infrastructure/persistence"
)

// RepositoryFactory creates repositories for a connection. The SQL
// repositories are dialect-aware, so one factory serves both drivers.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) (*RepositoryFactory, error) {
	driver := conn.Driver()
	if !driver.IsValid() {
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
	return &RepositoryFactory{conn: conn, driver: driver}, nil
}

// StatusRepository creates the workflow status store.
func (f *RepositoryFactory) StatusRepository() *workflowPersistence.SQLStatusRepository {
	return workflowPersistence.NewSQLStatusRepository(f.conn)
}

// TaskRepository creates the task store. It also answers the workflow's
// task usage queries.
func (f *RepositoryFactory) TaskRepository() *taskPersistence.SQLTaskRepository {
	return taskPersistence.NewSQLTaskRepository(f.conn)
}

// OutboxRepository creates the transactional outbox.
func (f *RepositoryFactory) OutboxRepository() outbox.Repository {
	return outbox.NewSQLRepository(f.conn)
}

// UnitOfWork creates a unit of work bound to the connection.
func (f *RepositoryFactory) UnitOfWork() sharedApplication.UnitOfWork {
	return database.NewUnitOfWork(f.conn)
}

// Driver returns the database driver.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// Connection returns the underlying connection.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}
