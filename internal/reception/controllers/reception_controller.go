package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/phongkham/phongkham-backend/internal/reception/models"
	"github.com/phongkham/phongkham-backend/internal/reception/services"
	"github.com/phongkham/phongkham-backend/ws"
)

type ReceptionController struct {
	Service *services.ReceptionService
}

func NewReceptionController(service *services.ReceptionService) *ReceptionController {
	return &ReceptionController{Service: service}
}

func (rc *ReceptionController) CheckIn(c echo.Context) error {
	var entry models.ReceptionPatient
	if err := c.Bind(&entry); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Dữ liệu tiếp nhận không hợp lệ",
		})
	}

	saved, err := rc.Service.CheckIn(c.Request().Context(), entry)
	if err != nil {
		if errors.Is(err, services.ErrNameRequired) {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Không thể lưu lượt tiếp nhận",
		})
	}

	ws.HubInstance.BroadcastEvent("reception_update", saved)

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":  http.StatusCreated,
		"message": "Đã tiếp nhận bệnh nhân " + saved.Name,
		"data":    saved,
	})
}

func (rc *ReceptionController) ListQueue(c echo.Context) error {
	queue, err := rc.Service.VisibleQueue(c.Request().Context(), time.Now())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Không thể tải danh sách tiếp nhận",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": http.StatusOK,
		"data":   queue,
	})
}

func (rc *ReceptionController) DeleteEntry(c echo.Context) error {
	id := c.Param("id")
	if err := rc.Service.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Không tìm thấy lượt tiếp nhận",
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Không thể xoá lượt tiếp nhận",
		})
	}

	ws.HubInstance.BroadcastEvent("reception_update", map[string]interface{}{"deletedId": id})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Đã xoá lượt tiếp nhận",
	})
}
