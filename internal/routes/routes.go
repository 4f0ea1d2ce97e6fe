package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/phongkham/phongkham-backend/internal/ai"
	billingControllers "github.com/phongkham/phongkham-backend/internal/billing/controllers"
	billingServices "github.com/phongkham/phongkham-backend/internal/billing/services"
	consultControllers "github.com/phongkham/phongkham-backend/internal/consultation/controllers"
	consultServices "github.com/phongkham/phongkham-backend/internal/consultation/services"
	pharmacyControllers "github.com/phongkham/phongkham-backend/internal/pharmacy/controllers"
	pharmacyServices "github.com/phongkham/phongkham-backend/internal/pharmacy/services"
	receptionControllers "github.com/phongkham/phongkham-backend/internal/reception/controllers"
	receptionServices "github.com/phongkham/phongkham-backend/internal/reception/services"
	"github.com/phongkham/phongkham-backend/internal/settings"
	syncControllers "github.com/phongkham/phongkham-backend/internal/sync/controllers"
	syncServices "github.com/phongkham/phongkham-backend/internal/sync/services"
	"github.com/phongkham/phongkham-backend/pkg/storage/redisstore"
	"github.com/phongkham/phongkham-backend/ws"
)

// Init wires every service, controller and route on the Echo instance.
func Init(e *echo.Echo, store *redisstore.Store, logger *zap.Logger, aiClient *ai.Client) {
	// Services
	patientService := consultServices.NewPatientService(store, logger)
	diagnosisService := consultServices.NewDiagnosisService(store, logger)
	drugService := pharmacyServices.NewDrugService(store, logger)
	revenueService := billingServices.NewRevenueService(store, logger)
	reportService := billingServices.NewReportService(store, logger)
	receptionService := receptionServices.NewReceptionService(store, logger)
	csvService := syncServices.NewCSVService(store, logger)
	sheetService := syncServices.NewSheetService(store, logger)
	settingsService := settings.NewService(store)

	// Controllers
	patientController := consultControllers.NewPatientController(patientService, aiClient)
	diagnosisController := consultControllers.NewDiagnosisController(diagnosisService)
	drugController := pharmacyControllers.NewDrugController(drugService, aiClient)
	billingController := billingControllers.NewBillingController(revenueService, reportService)
	receptionController := receptionControllers.NewReceptionController(receptionService)
	syncController := syncControllers.NewSyncController(csvService, sheetService, settingsService)
	settingsController := settings.NewController(settingsService)

	api := e.Group("/api")

	// Patients and consultation history
	patients := api.Group("/patients")
	patients.POST("", patientController.SaveConsultation)
	patients.GET("", patientController.ListPatients)
	patients.GET("/history", patientController.HistoryPersons)
	patients.GET("/history/visits", patientController.HistoryVisits)
	patients.POST("/suggest-diagnosis", patientController.SuggestDiagnosis)
	patients.GET("/:id", patientController.GetPatient)
	patients.DELETE("/:id", patientController.DeletePatient)

	// Drug catalog
	drugs := api.Group("/drugs")
	drugs.GET("", drugController.ListDrugs)
	drugs.POST("", drugController.AddDrug)
	drugs.PUT("/:name", drugController.UpdateDrug)
	drugs.DELETE("/all", drugController.DeleteAllDrugs)
	drugs.DELETE("/:name", drugController.DeleteDrug)
	drugs.POST("/upload", drugController.UploadDrugs)
	drugs.POST("/extract", drugController.ExtractDrugs)
	drugs.GET("/template", drugController.DownloadTemplate)

	// Diagnosis master list
	diagnoses := api.Group("/diagnoses")
	diagnoses.GET("", diagnosisController.ListDiagnoses)
	diagnoses.POST("", diagnosisController.AddDiagnosis)
	diagnoses.PUT("/:name", diagnosisController.UpdateDiagnosis)
	diagnoses.DELETE("/all", diagnosisController.DeleteAllDiagnoses)
	diagnoses.DELETE("/:name", diagnosisController.DeleteDiagnosis)

	// Revenue and reports
	revenue := api.Group("/revenue")
	revenue.GET("", billingController.ListRevenue)
	revenue.PUT("/:id/payment", billingController.SetPaymentStatus)
	api.GET("/report", billingController.GenerateReport)
	api.GET("/dashboard", billingController.Dashboard)

	// Reception queue
	reception := api.Group("/reception")
	reception.POST("", receptionController.CheckIn)
	reception.GET("", receptionController.ListQueue)
	reception.DELETE("/:id", receptionController.DeleteEntry)

	// CSV and Google Sheets sync
	syncGroup := api.Group("/sync")
	syncGroup.GET("/export", syncController.ExportCSV)
	syncGroup.POST("/import", syncController.ImportCSV)
	syncGroup.POST("/sheets/push", syncController.PushToSheet)
	syncGroup.POST("/sheets/pull", syncController.PullFromSheet)

	// Settings
	api.GET("/settings", settingsController.GetSettings)
	api.PUT("/settings", settingsController.UpdateSettings)

	// Live updates
	e.GET("/ws", ws.ServeWS(ws.HubInstance))
}
