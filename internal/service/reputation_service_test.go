package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/forknet/forknet/internal/constants"
	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupReputationServiceTest(t *testing.T) (*ReputationService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:reputation_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.ReputationRecord{},
		&models.ReputationEvent{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	svc := NewReputationService(repository.NewReputationRepository(db))
	svc.SetAuthorizedCaller(CallerOrderOrchestrator)
	return svc, db
}

func TestScoreDelta(t *testing.T) {
	cases := []struct {
		name      string
		completed bool
		rating    int
		onTime    bool
		want      int
	}{
		{"activity only", false, 0, false, 10},
		{"completed", true, 0, false, 50},
		{"completed on time", true, 0, true, 70},
		{"completed rated three", true, 3, false, 68},
		{"full marks", true, 5, true, 100},
		{"rating clamped to five", true, 9, true, 100},
	}
	for _, tc := range cases {
		if got := ScoreDelta(tc.completed, tc.rating, tc.onTime); got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestTierForScore(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{0, constants.ReputationTierBronze},
		{100, constants.ReputationTierBronze},
		{101, constants.ReputationTierSilver},
		{250, constants.ReputationTierSilver},
		{251, constants.ReputationTierGold},
		{500, constants.ReputationTierGold},
		{501, constants.ReputationTierPlatinum},
		{10000, constants.ReputationTierPlatinum},
	}
	for _, tc := range cases {
		if got := TierForScore(tc.score); got != tc.want {
			t.Errorf("score %d: expected %s, got %s", tc.score, tc.want, got)
		}
	}
}

func TestReputationServiceRejectsUnknownCaller(t *testing.T) {
	svc, db := setupReputationServiceTest(t)
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.RecordInteraction(tx, "rogue", InteractionInput{AccountID: 1, OrderID: 1})
		return err
	})
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestReputationServiceRecordInteraction(t *testing.T) {
	svc, db := setupReputationServiceTest(t)

	record := recordTestInteraction(t, svc, db, InteractionInput{
		AccountID: 1,
		OrderID:   10,
		Completed: true,
		Rating:    5,
		OnTime:    true,
	})
	if record.Score != 100 {
		t.Fatalf("expected score 100, got %d", record.Score)
	}
	if record.Tier != constants.ReputationTierBronze {
		t.Fatalf("expected bronze at 100, got %s", record.Tier)
	}

	record = recordTestInteraction(t, svc, db, InteractionInput{
		AccountID: 1,
		OrderID:   11,
		Completed: true,
		OnTime:    false,
	})
	if record.Score != 150 {
		t.Fatalf("expected score 150, got %d", record.Score)
	}
	if record.Tier != constants.ReputationTierSilver {
		t.Fatalf("expected silver at 150, got %s", record.Tier)
	}
	if record.CompletedCount != 2 || record.OnTimeCount != 1 || record.RatingCount != 1 || record.RatingSum != 5 {
		t.Fatalf("unexpected counters: %+v", record)
	}

	var events []models.ReputationEvent
	if err := db.Where("account_id = ?", 1).Order("id").Find(&events).Error; err != nil {
		t.Fatalf("load events failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Delta != 100 || events[1].Delta != 50 {
		t.Fatalf("unexpected deltas: %d / %d", events[0].Delta, events[1].Delta)
	}
}

// 相同事件序列在不同账户上重放得到相同累计分
func TestReputationServiceDeterministicReplay(t *testing.T) {
	svc, db := setupReputationServiceTest(t)

	sequence := []InteractionInput{
		{OrderID: 1, Completed: true, Rating: 4, OnTime: true},
		{OrderID: 2, Completed: true, OnTime: false},
		{OrderID: 3, Completed: false, Rating: 2, OnTime: false},
	}
	var first, second *models.ReputationRecord
	for _, input := range sequence {
		input.AccountID = 1
		first = recordTestInteraction(t, svc, db, input)
	}
	for _, input := range sequence {
		input.AccountID = 2
		second = recordTestInteraction(t, svc, db, input)
	}
	if first.Score != second.Score || first.Tier != second.Tier {
		t.Fatalf("replay diverged: %d/%s vs %d/%s", first.Score, first.Tier, second.Score, second.Tier)
	}
}

func TestReputationServiceGetRecordDefaultsToBronze(t *testing.T) {
	svc, _ := setupReputationServiceTest(t)
	record, err := svc.GetRecord(42)
	if err != nil {
		t.Fatalf("get record failed: %v", err)
	}
	if record.Score != 0 || record.Tier != constants.ReputationTierBronze {
		t.Fatalf("expected empty bronze record, got %+v", record)
	}
}

func recordTestInteraction(t *testing.T, svc *ReputationService, db *gorm.DB, input InteractionInput) *models.ReputationRecord {
	t.Helper()
	var record *models.ReputationRecord
	if err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		record, err = svc.RecordInteraction(tx, CallerOrderOrchestrator, input)
		return err
	}); err != nil {
		t.Fatalf("record interaction failed: %v", err)
	}
	return record
}
