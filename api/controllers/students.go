package controllers

import (
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/schoolpay/backend/api/responses"
	"github.com/schoolpay/backend/internal/students"
	pkgerrors "github.com/schoolpay/backend/pkg/errors"
	"github.com/schoolpay/backend/pkg/logger"
)

// StudentsController resolves student records for the fee office. The office
// works from admission numbers on paper slips, not uuids.
type StudentsController struct {
	students students.Repository
	logg     *logger.Logger
}

// NewStudentsController builds the controller.
func NewStudentsController(studentRepo students.Repository, logg *logger.Logger) *StudentsController {
	return &StudentsController{students: studentRepo, logg: logg}
}

// Lookup resolves a student by admission number (?admission_no=).
func (c *StudentsController) Lookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	admissionNo := strings.TrimSpace(r.URL.Query().Get("admission_no"))
	if admissionNo == "" {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "admission_no is required"))
		return
	}

	student, err := c.students.FindByAdmissionNo(ctx, admissionNo)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "student not found"))
			return
		}
		responses.WriteError(ctx, c.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load student"))
		return
	}
	responses.WriteSuccess(w, student)
}
