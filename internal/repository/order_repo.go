package repository

import (
	"errors"

	"sokoni/internal/domain"
	"sokoni/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository is the engine's side of the order-service contract: it reads
// orders with their line items and writes payment status and commission inside
// the engine's atomic units. Everything else about orders belongs to the order
// service.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

func (r *OrderRepository) Create(o *models.Order) error {
	return r.db.Create(o).Error
}

// GetWithItemsForUpdate loads an order and its items, row-locking the order so
// concurrent hold/release/refund calls on the same order serialize.
func (r *OrderRepository) GetWithItemsForUpdate(id uint) (*models.Order, error) {
	var o models.Order
	q := r.db
	if r.db.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	if err := r.db.Where("order_id = ?", id).Find(&o.Items).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// SetPaymentStatus writes the new payment status (and commission, at release)
// as part of the caller's transaction.
func (r *OrderRepository) SetPaymentStatus(orderID uint, status string, commission decimal.Decimal) error {
	return r.db.Model(&models.Order{}).Where("id = ?", orderID).Updates(map[string]interface{}{
		"payment_status": status,
		"commission":     commission,
	}).Error
}

func (r *OrderRepository) CreateAllocation(a *models.EscrowAllocation) error {
	return r.db.Create(a).Error
}

// AllocationsByOrder returns the stored per-seller hold records in the given
// state, in insertion order.
func (r *OrderRepository) AllocationsByOrder(orderID uint, status string) ([]models.EscrowAllocation, error) {
	var list []models.EscrowAllocation
	err := r.db.Where("order_id = ? AND status = ?", orderID, status).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *OrderRepository) SetAllocationStatus(id uint, status string) error {
	return r.db.Model(&models.EscrowAllocation{}).Where("id = ?", id).Update("status", status).Error
}
