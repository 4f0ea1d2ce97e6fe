package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/phongkham/phongkham-backend/internal/consultation/services"
)

type DiagnosisController struct {
	Service *services.DiagnosisService
}

func NewDiagnosisController(service *services.DiagnosisService) *DiagnosisController {
	return &DiagnosisController{Service: service}
}

type diagnosisRequest struct {
	Name string `json:"name"`
}

func (dc *DiagnosisController) ListDiagnoses(c echo.Context) error {
	diagnoses, err := dc.Service.List(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Không đọc được danh sách chẩn đoán: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "OK",
		"data":    diagnoses,
	})
}

func (dc *DiagnosisController) AddDiagnosis(c echo.Context) error {
	var req diagnosisRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	added, err := dc.Service.Add(c.Request().Context(), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDiagnosisRequired):
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": "Tên chẩn đoán không được để trống.",
				"data":    nil,
			})
		case errors.Is(err, services.ErrDiagnosisExists):
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": "Chẩn đoán này đã có trong danh sách.",
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
		"message": fmt.Sprintf("Đã thêm chẩn đoán \"%s\"", added),
		"data":    added,
	})
}

func (dc *DiagnosisController) UpdateDiagnosis(c echo.Context) error {
	var req diagnosisRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	renamed, err := dc.Service.Rename(c.Request().Context(), c.Param("name"), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDiagnosisRequired):
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": "Tên chẩn đoán không được để trống.",
				"data":    nil,
			})
		case errors.Is(err, services.ErrDiagnosisExists):
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": "Tên chẩn đoán này đã tồn tại.",
				"data":    nil,
			})
		case errors.Is(err, services.ErrDiagnosisNotFound):
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Không tìm thấy chẩn đoán.",
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
		"message": "Đã cập nhật chẩn đoán.",
		"data":    renamed,
	})
}

func (dc *DiagnosisController) DeleteDiagnosis(c echo.Context) error {
	name := c.Param("name")
	if err := dc.Service.Delete(c.Request().Context(), name); err != nil {
		if errors.Is(err, services.ErrDiagnosisNotFound) {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Không tìm thấy chẩn đoán.",
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
		"message": fmt.Sprintf("Đã xóa chẩn đoán \"%s\"", name),
		"data":    nil,
	})
}

func (dc *DiagnosisController) DeleteAllDiagnoses(c echo.Context) error {
	if err := dc.Service.DeleteAll(c.Request().Context()); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Đã xóa tất cả chẩn đoán.",
		"data":    nil,
	})
}
