package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/phongkham/phongkham-backend/internal/ai"
	billingModels "github.com/phongkham/phongkham-backend/internal/billing/models"
	"github.com/phongkham/phongkham-backend/internal/consultation/models"
	"github.com/phongkham/phongkham-backend/internal/consultation/services"
	"github.com/phongkham/phongkham-backend/ws"
)

type PatientController struct {
	Service  *services.PatientService
	AIClient *ai.Client
}

func NewPatientController(service *services.PatientService, aiClient *ai.Client) *PatientController {
	return &PatientController{Service: service, AIClient: aiClient}
}

// SaveConsultationRequest is the payload of a consultation save: the full
// patient record, the billing figures, and the reception-queue entry this
// visit originated from (optional).
type SaveConsultationRequest struct {
	Patient     models.Patient            `json:"patient"`
	Payment     billingModels.PaymentInfo `json:"payment"`
	ReceptionID string                    `json:"receptionId,omitempty"`
}

func (pc *PatientController) SaveConsultation(c echo.Context) error {
	var req SaveConsultationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	result, err := pc.Service.Save(c.Request().Context(), req.Patient, req.Payment, req.ReceptionID)
	if err != nil {
		if errors.Is(err, services.ErrNameRequired) {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": "Vui lòng nhập họ tên bệnh nhân.",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Không lưu được hồ sơ: " + err.Error(),
			"data":    nil,
		})
	}

	ws.HubInstance.BroadcastEvent("consultation_saved", map[string]interface{}{
		"patient_id":   result.Patient.ID,
		"patient_name": result.Patient.Name,
		"created":      result.Created,
		"total":        result.Revenue.Total,
	})

	message := "Đã cập nhật hồ sơ bệnh nhân " + result.Patient.Name
	if result.Created {
		message = "Đã tạo hồ sơ mới cho bệnh nhân " + result.Patient.Name
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": message,
		"data":    result,
	})
}

func (pc *PatientController) ListPatients(c echo.Context) error {
	patients, err := pc.Service.List(c.Request().Context(), c.QueryParam("retention"), c.QueryParam("search"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Không đọc được danh sách bệnh nhân: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "OK",
		"data":    patients,
	})
}

func (pc *PatientController) GetPatient(c echo.Context) error {
	patient, err := pc.Service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrPatientNotFound) {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Không tìm thấy bệnh nhân.",
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
		"message": "OK",
		"data":    patient,
	})
}

func (pc *PatientController) DeletePatient(c echo.Context) error {
	deleted, err := pc.Service.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrPatientNotFound) {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Không tìm thấy bệnh nhân.",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Không xóa được bệnh nhân: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Đã xóa bệnh nhân \"" + deleted.Name + "\" và các dữ liệu liên quan.",
		"data":    deleted,
	})
}

// HistoryPersons answers "which distinct persons have visited under this
// name", one entry per (name, age, gender) tuple.
func (pc *PatientController) HistoryPersons(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Tham số name là bắt buộc.",
			"data":    nil,
		})
	}
	persons, err := pc.Service.HistoryPersons(c.Request().Context(), name)
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
		"data":    persons,
	})
}

func (pc *PatientController) HistoryVisits(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Tham số name là bắt buộc.",
			"data":    nil,
		})
	}
	visits, err := pc.Service.HistoryForPerson(c.Request().Context(), name, c.QueryParam("age"), c.QueryParam("gender"))
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
		"data":    visits,
	})
}

// SuggestDiagnosis forwards the symptoms to the AI assistant and returns
// its free-text differential.
func (pc *PatientController) SuggestDiagnosis(c echo.Context) error {
	var req struct {
		Symptoms string `json:"symptoms"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	suggestion, err := pc.AIClient.SuggestDiagnosis(c.Request().Context(), req.Symptoms)
	if err != nil {
		if errors.Is(err, ai.ErrSymptomsRequired) || errors.Is(err, ai.ErrNotConfigured) {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": err.Error(),
				"data":    nil,
			})
		}
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"status":  http.StatusBadGateway,
			"message": err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "OK",
		"data":    map[string]string{"suggestion": suggestion},
	})
}
