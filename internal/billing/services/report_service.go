package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/phongkham/phongkham-backend/internal/billing/models"
	consultModels "github.com/phongkham/phongkham-backend/internal/consultation/models"
	pharmacyModels "github.com/phongkham/phongkham-backend/internal/pharmacy/models"
	"github.com/phongkham/phongkham-backend/internal/prescription"
	"github.com/phongkham/phongkham-backend/pkg/storage/redisstore"
)

var ErrBadDateRange = errors.New("ngày bắt đầu không được lớn hơn ngày kết thúc")

// Revenue charts switch from daily to monthly buckets past this span.
const monthlyBucketThresholdDays = 31

type ReportService struct {
	Store  *redisstore.Store
	Logger *zap.Logger
}

func NewReportService(store *redisstore.Store, logger *zap.Logger) *ReportService {
	return &ReportService{Store: store, Logger: logger}
}

type ReportStats struct {
	TotalRevenue      float64 `json:"totalRevenue"`
	ConsultationCount int     `json:"consultationCount"`
	AvgRevenuePerDay  float64 `json:"avgRevenuePerDay"`
	TotalDrugCapital  float64 `json:"totalDrugCapital"`
	TotalProfit       float64 `json:"totalProfit"`
}

type ChartPoint struct {
	Name    string  `json:"name"`
	Revenue float64 `json:"doanhThu"`
}

type Report struct {
	Stats     ReportStats  `json:"stats"`
	ChartData []ChartPoint `json:"chartData"`
	DayCount  int          `json:"dayCount"`
}

// Generate builds the revenue/profit report for [startDate, endDate],
// inclusive on both ends at day granularity. Dates are "YYYY-MM-DD".
func (s *ReportService) Generate(ctx context.Context, startDate, endDate string) (Report, error) {
	start, err := time.ParseInLocation("2006-01-02", startDate, time.Local)
	if err != nil {
		return Report{}, fmt.Errorf("ngày bắt đầu không hợp lệ: %q", startDate)
	}
	end, err := time.ParseInLocation("2006-01-02", endDate, time.Local)
	if err != nil {
		return Report{}, fmt.Errorf("ngày kết thúc không hợp lệ: %q", endDate)
	}
	if start.After(end) {
		return Report{}, ErrBadDateRange
	}
	rangeEnd := end.AddDate(0, 0, 1) // exclusive upper bound, end of endDate
	dayCount := calendarDays(start, end)

	var revenue []models.RevenueRecord
	if _, err := s.Store.GetJSON(ctx, redisstore.KeyRevenue, &revenue); err != nil {
		return Report{}, err
	}
	var patients []consultModels.Patient
	if _, err := s.Store.GetJSON(ctx, redisstore.KeyPatients, &patients); err != nil {
		return Report{}, err
	}
	prices, err := s.priceMap(ctx)
	if err != nil {
		return Report{}, err
	}

	inRange := func(t time.Time) bool {
		return !t.Before(start) && t.Before(rangeEnd)
	}

	var stats ReportStats
	var filtered []models.RevenueRecord
	for _, r := range revenue {
		if inRange(r.Time()) {
			filtered = append(filtered, r)
			stats.TotalRevenue += r.Total
			stats.TotalDrugCapital += prescription.CapitalCost(r.Prescription, prices)
		}
	}
	for _, p := range patients {
		if inRange(p.ConsultationTime()) {
			stats.ConsultationCount++
		}
	}
	if dayCount > 0 {
		stats.AvgRevenuePerDay = stats.TotalRevenue / float64(dayCount)
	}
	stats.TotalProfit = stats.TotalRevenue - stats.TotalDrugCapital

	report := Report{
		Stats:     stats,
		ChartData: bucketize(filtered, dayCount > monthlyBucketThresholdDays),
		DayCount:  dayCount,
	}
	s.Logger.Info("report generated",
		zap.String("start", startDate),
		zap.String("end", endDate),
		zap.Int("days", dayCount),
		zap.Float64("revenue", stats.TotalRevenue),
	)
	return report, nil
}

// calendarDays counts the inclusive span in calendar dates. Counting dates
// instead of wall-clock hours keeps DST transitions inside the range from
// shifting the result.
func calendarDays(start, end time.Time) int {
	startUTC := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endUTC := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(endUTC.Sub(startUTC).Hours()/24) + 1
}

// bucketize groups revenue by calendar day, or by calendar month when the
// span is long, oldest bucket first.
func bucketize(records []models.RevenueRecord, monthly bool) []ChartPoint {
	type bucket struct {
		at    time.Time
		total float64
	}
	buckets := map[string]*bucket{}
	for _, r := range records {
		t := r.Time()
		var key string
		var anchor time.Time
		if monthly {
			key = fmt.Sprintf("Tháng %d/%d", int(t.Month()), t.Year())
			anchor = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		} else {
			key = fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
			anchor = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{at: anchor}
			buckets[key] = b
		}
		b.total += r.Total
	}

	points := make([]ChartPoint, 0, len(buckets))
	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return buckets[keys[i]].at.Before(buckets[keys[j]].at)
	})
	for _, key := range keys {
		points = append(points, ChartPoint{Name: key, Revenue: buckets[key].total})
	}
	return points
}

// DashboardStats is the landing-page summary.
type DashboardStats struct {
	PatientsToday      int            `json:"patientsToday"`
	RevenueToday       float64        `json:"revenueToday"`
	LastSevenDays      []ChartPoint   `json:"lastSevenDays"`
	GenderDistribution map[string]int `json:"genderDistribution"`
	TopDiagnoses       []ChartPoint   `json:"topDiagnoses"`
}

// Dashboard computes today's counts, the 7-day visit trend, gender split
// and the most frequent primary diagnoses (first line of the diagnosis
// text).
func (s *ReportService) Dashboard(ctx context.Context, now time.Time) (DashboardStats, error) {
	var patients []consultModels.Patient
	if _, err := s.Store.GetJSON(ctx, redisstore.KeyPatients, &patients); err != nil {
		return DashboardStats{}, err
	}
	var revenue []models.RevenueRecord
	if _, err := s.Store.GetJSON(ctx, redisstore.KeyRevenue, &revenue); err != nil {
		return DashboardStats{}, err
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	sameDay := func(t time.Time) bool {
		return !t.Before(today) && t.Before(today.AddDate(0, 0, 1))
	}

	stats := DashboardStats{GenderDistribution: map[string]int{}}
	dayCounts := make(map[string]int)
	diagnosisCounts := map[string]int{}

	for _, p := range patients {
		t := p.ConsultationTime()
		if sameDay(t) {
			stats.PatientsToday++
		}
		if p.Gender != "" {
			stats.GenderDistribution[p.Gender]++
		}
		if d := strings.TrimSpace(p.Diagnosis); d != "" {
			primary := strings.TrimSpace(strings.SplitN(d, "\n", 2)[0])
			if primary != "" {
				diagnosisCounts[primary]++
			}
		}
		if !t.Before(today.AddDate(0, 0, -6)) && t.Before(today.AddDate(0, 0, 1)) {
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
			dayCounts[day.Format("2/1")]++
		}
	}
	for _, r := range revenue {
		if sameDay(r.Time()) {
			stats.RevenueToday += r.Total
		}
	}

	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		label := day.Format("2/1")
		stats.LastSevenDays = append(stats.LastSevenDays, ChartPoint{
			Name:    label,
			Revenue: float64(dayCounts[label]),
		})
	}

	type diag struct {
		name  string
		count int
	}
	diags := make([]diag, 0, len(diagnosisCounts))
	for name, count := range diagnosisCounts {
		diags = append(diags, diag{name, count})
	}
	sort.Slice(diags, func(i, j int) bool {
		if diags[i].count != diags[j].count {
			return diags[i].count > diags[j].count
		}
		return diags[i].name < diags[j].name
	})
	for i, d := range diags {
		if i == 5 {
			break
		}
		stats.TopDiagnoses = append(stats.TopDiagnoses, ChartPoint{Name: d.name, Revenue: float64(d.count)})
	}
	return stats, nil
}

func (s *ReportService) priceMap(ctx context.Context) (map[string]prescription.PriceInfo, error) {
	var drugs []pharmacyModels.Drug
	found, err := s.Store.GetJSON(ctx, redisstore.KeyDrugs, &drugs)
	if err != nil {
		return nil, err
	}
	if !found {
		drugs = pharmacyModels.SeedDrugs
	}
	prices := make(map[string]prescription.PriceInfo, len(drugs))
	for _, d := range drugs {
		prices[prescription.PriceKey(d.Name)] = prescription.PriceInfo{Price: d.Price, Unit: d.Unit}
	}
	return prices, nil
}
