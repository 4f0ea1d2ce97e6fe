package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/phongkham/phongkham-backend/internal/billing/services"
)

type BillingController struct {
	RevenueService *services.RevenueService
	ReportService  *services.ReportService
}

func NewBillingController(revenueService *services.RevenueService, reportService *services.ReportService) *BillingController {
	return &BillingController{RevenueService: revenueService, ReportService: reportService}
}

func (bc *BillingController) ListRevenue(c echo.Context) error {
	revenue, err := bc.RevenueService.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Không đọc được danh sách hóa đơn: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "OK",
		"data":    revenue,
	})
}

func (bc *BillingController) SetPaymentStatus(c echo.Context) error {
	var req struct {
		PaymentStatus string `json:"paymentStatus"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	record, err := bc.RevenueService.SetPaymentStatus(c.Request().Context(), c.Param("id"), req.PaymentStatus)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadPaymentStatus):
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": "Trạng thái thanh toán phải là 'paid' hoặc 'unpaid'.",
				"data":    nil,
			})
		case errors.Is(err, services.ErrRevenueNotFound):
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Không tìm thấy hóa đơn.",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Đã cập nhật trạng thái thanh toán.",
		"data":    record,
	})
}

// GenerateReport answers GET /report?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (bc *BillingController) GenerateReport(c echo.Context) error {
	start := c.QueryParam("start")
	end := c.QueryParam("end")
	if start == "" || end == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Vui lòng chọn ngày bắt đầu và kết thúc.",
			"data":    nil,
		})
	}
	report, err := bc.ReportService.Generate(c.Request().Context(), start, end)
	if err != nil {
		if errors.Is(err, services.ErrBadDateRange) {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": "Ngày bắt đầu không được lớn hơn ngày kết thúc.",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "OK",
		"data":    report,
	})
}

func (bc *BillingController) Dashboard(c echo.Context) error {
	stats, err := bc.ReportService.Dashboard(c.Request().Context(), time.Now())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "OK",
		"data":    stats,
	})
}
