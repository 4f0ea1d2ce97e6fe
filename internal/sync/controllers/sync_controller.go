package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/phongkham/phongkham-backend/internal/settings"
	"github.com/phongkham/phongkham-backend/internal/sync/services"
	"github.com/phongkham/phongkham-backend/ws"
)

type SyncController struct {
	CSV      *services.CSVService
	Sheet    *services.SheetService
	Settings *settings.Service
}

func NewSyncController(csv *services.CSVService, sheet *services.SheetService, settingsService *settings.Service) *SyncController {
	return &SyncController{CSV: csv, Sheet: sheet, Settings: settingsService}
}

// webAppURL resolves the Apps Script endpoint: an explicit URL in the
// request wins, otherwise the one saved in settings is used.
func (sc *SyncController) webAppURL(c echo.Context, requested string) string {
	if requested != "" {
		return requested
	}
	current, err := sc.Settings.Get(c.Request().Context())
	if err != nil {
		return ""
	}
	return current.WebAppURL
}

func (sc *SyncController) ExportCSV(c echo.Context) error {
	content, err := sc.CSV.Export(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Không thể xuất dữ liệu",
		})
	}
	filename := services.ExportFilename(time.Now())
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", content)
}

func (sc *SyncController) ImportCSV(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Vui lòng chọn tệp CSV",
		})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Không thể đọc tệp CSV",
		})
	}
	defer file.Close()

	result, err := sc.CSV.Import(c.Request().Context(), file)
	if err != nil {
		if errors.Is(err, services.ErrMissingColumns) || errors.Is(err, services.ErrEmptyFile) {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Nhập dữ liệu thất bại",
		})
	}

	if result.Imported > 0 {
		ws.HubInstance.BroadcastEvent("data_imported", result)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Đã nhập dữ liệu từ tệp CSV",
		"data":    result,
	})
}

type sheetRequest struct {
	WebAppURL string `json:"webAppUrl"`
	Confirm   bool   `json:"confirm"`
}

func (sc *SyncController) PushToSheet(c echo.Context) error {
	var req sheetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Dữ liệu yêu cầu không hợp lệ",
		})
	}

	result, err := sc.Sheet.Push(c.Request().Context(), sc.webAppURL(c, req.WebAppURL))
	if err != nil {
		if errors.Is(err, services.ErrBadScriptURL) {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": err.Error(),
			})
		}
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"status":  http.StatusBadGateway,
			"message": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Đã đồng bộ lên Google Sheets",
		"data":    result,
	})
}

func (sc *SyncController) PullFromSheet(c echo.Context) error {
	var req sheetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Dữ liệu yêu cầu không hợp lệ",
		})
	}

	result, err := sc.Sheet.Pull(c.Request().Context(), sc.webAppURL(c, req.WebAppURL), req.Confirm)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadScriptURL),
			errors.Is(err, services.ErrMissingHeaders),
			errors.Is(err, services.ErrNoRemoteData):
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": err.Error(),
			})
		}
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"status":  http.StatusBadGateway,
			"message": err.Error(),
		})
	}

	message := "Xem trước dữ liệu từ Google Sheets, gửi lại với confirm để ghi đè"
	if result.Applied {
		message = "Đã tải dữ liệu từ Google Sheets và thay thế dữ liệu cục bộ"
		ws.HubInstance.BroadcastEvent("data_imported", result)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": message,
		"data":    result,
	})
}
