package repository

import (
	"errors"
	"strings"

	"github.com/forknet/forknet/internal/models"

	"gorm.io/gorm"
)

// DeliveryProofRepository 送达凭证数据访问接口
type DeliveryProofRepository interface {
	Create(proof *models.DeliveryProof) error
	GetByOrderID(orderID uint) (*models.DeliveryProof, error)
	GetByProofNo(proofNo string) (*models.DeliveryProof, error)
	NextTokenNo() (uint64, error)
	List(filter DeliveryProofListFilter) ([]models.DeliveryProof, int64, error)
	WithTx(tx *gorm.DB) *GormDeliveryProofRepository
}

// GormDeliveryProofRepository GORM 送达凭证仓储实现
type GormDeliveryProofRepository struct {
	db *gorm.DB
}

// NewDeliveryProofRepository 创建送达凭证仓储
func NewDeliveryProofRepository(db *gorm.DB) *GormDeliveryProofRepository {
	return &GormDeliveryProofRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDeliveryProofRepository) WithTx(tx *gorm.DB) *GormDeliveryProofRepository {
	if tx == nil {
		return r
	}
	return &GormDeliveryProofRepository{db: tx}
}

// Create 写入送达凭证
func (r *GormDeliveryProofRepository) Create(proof *models.DeliveryProof) error {
	return r.db.Create(proof).Error
}

// GetByOrderID 根据订单 ID 获取凭证
func (r *GormDeliveryProofRepository) GetByOrderID(orderID uint) (*models.DeliveryProof, error) {
	if orderID == 0 {
		return nil, nil
	}
	var proof models.DeliveryProof
	if err := r.db.Where("order_id = ?", orderID).First(&proof).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &proof, nil
}

// GetByProofNo 根据凭证编号获取凭证
func (r *GormDeliveryProofRepository) GetByProofNo(proofNo string) (*models.DeliveryProof, error) {
	proofNo = strings.TrimSpace(proofNo)
	if proofNo == "" {
		return nil, nil
	}
	var proof models.DeliveryProof
	if err := r.db.Where("proof_no = ?", proofNo).First(&proof).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &proof, nil
}

// NextTokenNo 下一个单调递增序号（当前最大值 + 1）
// 调用方需在事务内使用以避免并发取到相同序号。
func (r *GormDeliveryProofRepository) NextTokenNo() (uint64, error) {
	var max uint64
	if err := r.db.Model(&models.DeliveryProof{}).
		Select("COALESCE(MAX(token_no), 0)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max + 1, nil
}

// List 分页查询送达凭证
func (r *GormDeliveryProofRepository) List(filter DeliveryProofListFilter) ([]models.DeliveryProof, int64, error) {
	query := r.db.Model(&models.DeliveryProof{})
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.RestaurantID != 0 {
		query = query.Where("restaurant_id = ?", filter.RestaurantID)
	}
	if filter.DriverID != 0 {
		query = query.Where("driver_id = ?", filter.DriverID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var proofs []models.DeliveryProof
	if err := query.Order("token_no desc").Find(&proofs).Error; err != nil {
		return nil, 0, err
	}
	return proofs, total, nil
}
