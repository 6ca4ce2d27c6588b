package billing

import (
	"time"

	"braintech-system/internal/database/models"
)

type MethodBreakdown struct {
	Method string  `json:"method"`
	Count  int64   `json:"count"`
	Total  float64 `json:"total"`
}

type Statistics struct {
	TodayBills   int64   `json:"today_bills"`
	TodayRevenue float64 `json:"today_revenue"`
	WeekBills    int64   `json:"week_bills"`
	WeekRevenue  float64 `json:"week_revenue"`
	MonthBills   int64   `json:"month_bills"`
	MonthRevenue float64 `json:"month_revenue"`
	AverageBill  float64 `json:"average_bill"`
	PendingItems int64   `json:"pending_items"`

	PaymentMethods []MethodBreakdown `json:"payment_methods"`
	RecentBills    []models.Bill     `json:"-"`
}

// Statistics aggregates billing volume over three calendar windows anchored
// at local midnight: today, the week starting Monday, and the month starting
// on the 1st. The average covers today's bills only.
func (e *Engine) Statistics() (*Statistics, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	// time.Weekday has Sunday as 0; shift so the week opens on Monday.
	offset := int(now.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset = 6
	}
	weekStart := today.AddDate(0, 0, -offset)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	stats := &Statistics{}

	var err error
	if stats.TodayBills, stats.TodayRevenue, err = e.windowTotals(today); err != nil {
		return nil, err
	}
	if stats.WeekBills, stats.WeekRevenue, err = e.windowTotals(weekStart); err != nil {
		return nil, err
	}
	if stats.MonthBills, stats.MonthRevenue, err = e.windowTotals(monthStart); err != nil {
		return nil, err
	}

	row := struct{ Avg float64 }{}
	if err := e.db.Model(&models.Bill{}).
		Select("COALESCE(AVG(total), 0) AS avg").
		Where("created_at >= ?", today).
		Scan(&row).Error; err != nil {
		return nil, err
	}
	stats.AverageBill = row.Avg

	if err := e.db.Model(&models.BillItem{}).
		Where("item_status = ?", models.ItemPending).
		Count(&stats.PendingItems).Error; err != nil {
		return nil, err
	}

	if err := e.db.Model(&models.Bill{}).
		Select("payment_method AS method, COUNT(*) AS count, COALESCE(SUM(total), 0) AS total").
		Group("payment_method").
		Scan(&stats.PaymentMethods).Error; err != nil {
		return nil, err
	}

	if err := e.db.Preload("Items").
		Order("created_at DESC").
		Limit(5).
		Find(&stats.RecentBills).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

func (e *Engine) windowTotals(since time.Time) (int64, float64, error) {
	row := struct {
		Count int64
		Total float64
	}{}
	err := e.db.Model(&models.Bill{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total), 0) AS total").
		Where("created_at >= ?", since).
		Scan(&row).Error
	return row.Count, row.Total, err
}
