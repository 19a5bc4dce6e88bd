package service

import (
	"sync"

	"github.com/forknet/forknet/internal/constants"
	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/repository"

	"gorm.io/gorm"
)

// ReputationService 信誉服务
// 计分规则确定性：完成 40 分、评分每星 6 分、准时 20 分、活跃 10 分，
// 相同事件序列重放得到相同累计分。
type ReputationService struct {
	reputationRepo repository.ReputationRepository

	mu                sync.RWMutex
	authorizedCallers map[string]bool
}

// NewReputationService 创建信誉服务
func NewReputationService(reputationRepo repository.ReputationRepository) *ReputationService {
	return &ReputationService{
		reputationRepo:    reputationRepo,
		authorizedCallers: make(map[string]bool),
	}
}

// SetAuthorizedCaller 登记授权调用方，仅在装配阶段调用
func (s *ReputationService) SetAuthorizedCaller(caller string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorizedCallers[caller] = true
}

func (s *ReputationService) authorize(caller string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authorizedCallers[caller] {
		return ErrNotAuthorized
	}
	return nil
}

// InteractionInput 单次交互计分输入
type InteractionInput struct {
	AccountID uint
	OrderID   uint
	Completed bool
	Rating    int // 0 表示未评分
	OnTime    bool
	Remark    string
}

// ScoreDelta 单次交互得分（上限 100）
func ScoreDelta(completed bool, rating int, onTime bool) int {
	delta := constants.ReputationWeightActivity
	if completed {
		delta += constants.ReputationWeightCompletion
	}
	if rating > 0 {
		if rating > 5 {
			rating = 5
		}
		delta += rating * constants.ReputationWeightPerRating
	}
	if onTime {
		delta += constants.ReputationWeightOnTime
	}
	if delta > 100 {
		delta = 100
	}
	return delta
}

// TierForScore 按累计分派生信誉等级
func TierForScore(score int) string {
	switch {
	case score >= constants.ReputationTierPlatinumMin:
		return constants.ReputationTierPlatinum
	case score >= constants.ReputationTierGoldMin:
		return constants.ReputationTierGold
	case score >= constants.ReputationTierSilverMin:
		return constants.ReputationTierSilver
	default:
		return constants.ReputationTierBronze
	}
}

// RecordInteraction 在事务内记录一次交互并更新累计档案
func (s *ReputationService) RecordInteraction(tx *gorm.DB, caller string, input InteractionInput) (*models.ReputationRecord, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	if input.AccountID == 0 {
		return nil, ErrAccountNotFound
	}
	if input.Rating < 0 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}
	repo := s.reputationRepo.WithTx(tx)

	record, err := repo.GetRecordByAccountIDForUpdate(input.AccountID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = &models.ReputationRecord{
			AccountID: input.AccountID,
			Tier:      constants.ReputationTierBronze,
		}
		if err := repo.CreateRecord(record); err != nil {
			return nil, err
		}
	}

	delta := ScoreDelta(input.Completed, input.Rating, input.OnTime)
	event := &models.ReputationEvent{
		AccountID: input.AccountID,
		OrderID:   input.OrderID,
		Completed: input.Completed,
		Rating:    input.Rating,
		OnTime:    input.OnTime,
		Delta:     delta,
		Remark:    input.Remark,
	}
	if err := repo.CreateEvent(event); err != nil {
		return nil, err
	}

	record.Score += delta
	record.Tier = TierForScore(record.Score)
	if input.Completed {
		record.CompletedCount++
	}
	if input.OnTime {
		record.OnTimeCount++
	}
	if input.Rating > 0 {
		record.RatingSum += input.Rating
		record.RatingCount++
	}
	if err := repo.UpdateRecord(record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetRecord 查询账户信誉档案（不存在时返回零分档案）
func (s *ReputationService) GetRecord(accountID uint) (*models.ReputationRecord, error) {
	if accountID == 0 {
		return nil, ErrAccountNotFound
	}
	record, err := s.reputationRepo.GetRecordByAccountID(accountID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return &models.ReputationRecord{
			AccountID: accountID,
			Tier:      constants.ReputationTierBronze,
		}, nil
	}
	return record, nil
}

// ListEvents 分页查询信誉事件
func (s *ReputationService) ListEvents(filter repository.ReputationEventListFilter) ([]models.ReputationEvent, int64, error) {
	return s.reputationRepo.ListEvents(filter)
}
