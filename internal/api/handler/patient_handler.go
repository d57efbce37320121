package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinic-client/internal/core/ports"
)

// PatientHandler serves the /patients collection.
type PatientHandler struct {
	service ports.PatientService
}

func NewPatientHandler(service ports.PatientService) *PatientHandler {
	return &PatientHandler{service: service}
}

// List handles GET /patients.
func (h *PatientHandler) List(c echo.Context) error {
	patients, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, patients)
}

// Get handles GET /patients/:id.
func (h *PatientHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	patient, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, patient)
}

// Create handles POST /patients.
func (h *PatientHandler) Create(c echo.Context) error {
	var req createPatientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	patient, err := h.service.Create(c.Request().Context(), req.fields())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, patient)
}

// Update handles PUT /patients/:id. Absent fields are left unchanged.
func (h *PatientHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updatePatientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	patient, err := h.service.Update(c.Request().Context(), id, req.fields())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, patient)
}

// Delete handles DELETE /patients/:id.
func (h *PatientHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Patient deleted successfully"})
}
