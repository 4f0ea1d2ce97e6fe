package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/phongkham/phongkham-backend/internal/ai"
	"github.com/phongkham/phongkham-backend/internal/pharmacy/models"
	"github.com/phongkham/phongkham-backend/internal/pharmacy/services"
)

type DrugController struct {
	Service  *services.DrugService
	AIClient *ai.Client
}

func NewDrugController(service *services.DrugService, aiClient *ai.Client) *DrugController {
	return &DrugController{Service: service, AIClient: aiClient}
}

func (dc *DrugController) ListDrugs(c echo.Context) error {
	drugs, err := dc.Service.List(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Không đọc được danh sách thuốc: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "OK",
		"data":    drugs,
	})
}

func (dc *DrugController) AddDrug(c echo.Context) error {
	var req models.Drug
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	drug, err := dc.Service.Add(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDrugNameRequired):
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": "Tên thuốc không được để trống.",
				"data":    nil,
			})
		case errors.Is(err, services.ErrDrugExists):
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": "Thuốc này đã có trong danh sách.",
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
		"message": fmt.Sprintf("Đã thêm thuốc \"%s\"", drug.Name),
		"data":    drug,
	})
}

func (dc *DrugController) UpdateDrug(c echo.Context) error {
	var req models.Drug
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	drug, err := dc.Service.Update(c.Request().Context(), c.Param("name"), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDrugNameRequired):
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": "Tên thuốc không được để trống.",
				"data":    nil,
			})
		case errors.Is(err, services.ErrDrugNotFound):
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Không tìm thấy thuốc.",
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
		"message": fmt.Sprintf("Đã cập nhật thuốc \"%s\"", drug.Name),
		"data":    drug,
	})
}

func (dc *DrugController) DeleteDrug(c echo.Context) error {
	name := c.Param("name")
	if err := dc.Service.Delete(c.Request().Context(), name); err != nil {
		if errors.Is(err, services.ErrDrugNotFound) {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Không tìm thấy thuốc.",
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
		"message": fmt.Sprintf("Đã xóa thuốc \"%s\"", name),
		"data":    nil,
	})
}

func (dc *DrugController) DeleteAllDrugs(c echo.Context) error {
	if err := dc.Service.DeleteAll(c.Request().Context()); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Đã xóa tất cả thuốc khỏi danh sách.",
		"data":    nil,
	})
}

// UploadDrugs takes a bulk-upload file: .xlsx/.xls parsed as a workbook,
// anything else as "name,price[,usage[,unit]]" lines. Duplicates against
// the master list are dropped silently.
func (dc *DrugController) UploadDrugs(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Thiếu file tải lên.",
			"data":    nil,
		})
	}
	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Không đọc được file: " + err.Error(),
			"data":    nil,
		})
	}
	defer src.Close()
	content, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Không đọc được file: " + err.Error(),
			"data":    nil,
		})
	}

	var drugs []models.Drug
	lower := strings.ToLower(fileHeader.Filename)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls") {
		drugs, err = services.ParseWorkbook(content)
	} else {
		drugs, err = services.ParseDelimited(string(content))
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": err.Error(),
			"data":    nil,
		})
	}
	return dc.mergeAndRespond(c, drugs)
}

// ExtractDrugs sends free text (e.g. extracted from a PDF price list) to
// the AI endpoint and merges whatever it finds.
func (dc *DrugController) ExtractDrugs(c echo.Context) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	drugs, err := dc.AIClient.ExtractDrugs(c.Request().Context(), req.Text)
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"status":  http.StatusBadGateway,
			"message": err.Error(),
			"data":    nil,
		})
	}
	return dc.mergeAndRespond(c, drugs)
}

func (dc *DrugController) mergeAndRespond(c echo.Context, drugs []models.Drug) error {
	added, err := dc.Service.Merge(c.Request().Context(), drugs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": err.Error(),
			"data":    nil,
		})
	}
	message := "Không có thuốc mới nào được tìm thấy hoặc tất cả đã có trong danh sách."
	if added > 0 {
		message = fmt.Sprintf("%d loại thuốc mới đã được thêm vào danh sách.", added)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": message,
		"data":    map[string]int{"added": added, "received": len(drugs)},
	})
}

// DownloadTemplate streams the sample import workbook.
func (dc *DrugController) DownloadTemplate(c echo.Context) error {
	content, err := services.TemplateWorkbook()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": err.Error(),
			"data":    nil,
		})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="mau-danh-sach-thuoc.xlsx"`)
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}
