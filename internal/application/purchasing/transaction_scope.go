package purchasingapp

import (
	"context"

	"github.com/erp/posync/internal/domain/purchasing"
)

// TransactionScope provides transactional access to purchasing repositories.
// All repository operations inside Execute share one database transaction and
// are committed or rolled back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all purchasing repositories within a transaction.
//
// Notes are stored separately from the PurchaseOrder aggregate for query
// performance, but the order's notes projection is always written in the same
// transaction as the note itself.
type TransactionalRepositories interface {
	PurchaseOrderRepo() purchasing.PurchaseOrderRepository
	LineItemRepo() purchasing.LineItemRepository
	NoteRepo() purchasing.NoteRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing with in-memory repositories.
type NoOpTransactionScope struct {
	orderRepo    purchasing.PurchaseOrderRepository
	lineItemRepo purchasing.LineItemRepository
	noteRepo     purchasing.NoteRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	orderRepo purchasing.PurchaseOrderRepository,
	lineItemRepo purchasing.LineItemRepository,
	noteRepo purchasing.NoteRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orderRepo:    orderRepo,
		lineItemRepo: lineItemRepo,
		noteRepo:     noteRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) PurchaseOrderRepo() purchasing.PurchaseOrderRepository {
	return s.orderRepo
}

func (s *NoOpTransactionScope) LineItemRepo() purchasing.LineItemRepository {
	return s.lineItemRepo
}

func (s *NoOpTransactionScope) NoteRepo() purchasing.NoteRepository {
	return s.noteRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
